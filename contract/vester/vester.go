// Package vester keeps release schedules of native currency and PSP22
// assets held in custody for a receiver.
package vester

import (
	"fmt"
	"math/big"

	"github.com/wooyang2018/govchain/common/metrics"
	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/psp22"
)

const (
	scheduleBucket = "schedule"
	nextIdBucket   = "nextId"
)

var (
	ErrScheduleNotFound  = contractBase.NewError(contractBase.KindNotFound, "ScheduleNotFound")
	ErrInvalidAmountPaid = contractBase.NewError(contractBase.KindPrecondition, "InvalidAmountPaid")
)

// VestingData is one schedule. Released never exceeds Amount.
type VestingData struct {
	Amount   *contractBase.Amount `json:"amount"`
	Released *contractBase.Amount `json:"released"`
	Start    int64                `json:"start"`
	Schedule ScheduleSpec         `json:"schedule"`
}

type VestingScheduled struct {
	Receiver string               `json:"receiver"`
	Asset    string               `json:"asset"`
	Id       uint64               `json:"id"`
	Amount   *contractBase.Amount `json:"amount"`
	Schedule ScheduleSpec         `json:"schedule"`
}

type TokenReleased struct {
	Receiver string               `json:"receiver"`
	Asset    string               `json:"asset"`
	Id       uint64               `json:"id"`
	Amount   *contractBase.Amount `json:"amount"`
}

type Vester struct {
	ctx *VesterCtx
}

func NewVester(ctx *VesterCtx) *Vester {
	return &Vester{ctx: ctx}
}

func (v *Vester) Methods() map[string]contractBase.KernMethod {
	return map[string]contractBase.KernMethod{
		"createVest":        v.CreateVest,
		"release":           v.Release,
		"releasable":        v.Releasable,
		"vestingScheduleOf": v.VestingScheduleOf,
		"nextIdVestOf":      v.NextIdVestOf,
	}
}

// Releasable returns what data lets go at now given the schedule durations.
// The result is monotone in now and never lets Released pass Amount.
func Releasable(data *VestingData, waitingTime, vestingTime, now int64) *big.Int {
	amount := data.Amount.Int()
	released := data.Released.Int()
	cliff := data.Start + waitingTime
	if now < cliff {
		return new(big.Int)
	}
	vested := amount
	if vestingTime > 0 && now-cliff < vestingTime {
		vested = contractBase.MulDivDown(amount, big.NewInt(now-cliff), big.NewInt(vestingTime))
	}
	if vested.Cmp(released) <= 0 {
		return new(big.Int)
	}
	return vested.Sub(vested, released)
}

func scheduleKey(receiver, asset string, id uint64) []byte {
	return []byte(fmt.Sprintf("%s/%s/%020d", receiver, asset, id))
}

func pairKey(receiver, asset string) []byte {
	return []byte(receiver + "/" + asset)
}

func (v *Vester) CreateVest(ctx contractBase.KContext) (*contractBase.Response, error) {
	receiver, err := contractBase.ArgString(ctx, "receiver")
	if err != nil {
		return nil, err
	}
	asset := contractBase.ArgOptString(ctx, "asset")
	amount, err := contractBase.ArgAmount(ctx, "amount")
	if err != nil {
		return nil, err
	}
	var schedule ScheduleSpec
	if err := contractBase.ArgJSON(ctx, "schedule", &schedule); err != nil {
		return nil, err
	}

	if asset == "" {
		if ctx.Value().Cmp(amount) != 0 {
			return nil, ErrInvalidAmountPaid.WithDetail("paid %s for %s", ctx.Value(), amount)
		}
	} else {
		if ctx.Value().Sign() != 0 {
			return nil, ErrInvalidAmountPaid.WithDetail("native value sent with asset %s", asset)
		}
		if err := psp22.NewClient(asset).TransferFrom(ctx, ctx.Caller(), ctx.Self(), amount); err != nil {
			return nil, err
		}
	}

	id, err := contractBase.GetUint64(ctx, nextIdBucket, pairKey(receiver, asset))
	if err != nil {
		return nil, err
	}
	if err := contractBase.PutUint64(ctx, nextIdBucket, pairKey(receiver, asset), id+1); err != nil {
		return nil, err
	}
	data := &VestingData{
		Amount:   contractBase.NewAmount(amount),
		Released: new(contractBase.Amount),
		Start:    ctx.Now(),
		Schedule: schedule,
	}
	if err := contractBase.PutObject(ctx, scheduleBucket, scheduleKey(receiver, asset, id), data); err != nil {
		return nil, err
	}
	err = ctx.EmitEvent("VestingScheduled", &VestingScheduled{
		Receiver: receiver,
		Asset:    asset,
		Id:       id,
		Amount:   data.Amount,
		Schedule: schedule,
	})
	if err != nil {
		return nil, err
	}
	v.ctx.XLog.Debug("vest created", "receiver", receiver, "asset", asset, "id", id, "amount", amount.String())
	return contractBase.NewResponse(id)
}

func scheduleArgs(ctx contractBase.KContext) (string, string, uint64, error) {
	receiver, err := contractBase.ArgString(ctx, "receiver")
	if err != nil {
		return "", "", 0, err
	}
	id, err := contractBase.ArgUint64(ctx, "id")
	if err != nil {
		return "", "", 0, err
	}
	return receiver, contractBase.ArgOptString(ctx, "asset"), id, nil
}

func loadSchedule(ctx contractBase.KContext, receiver, asset string, id uint64) (*VestingData, error) {
	data := new(VestingData)
	found, err := contractBase.GetObject(ctx, scheduleBucket, scheduleKey(receiver, asset, id), data)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrScheduleNotFound.WithDetail("%s/%s/%d", receiver, asset, id)
	}
	return data, nil
}

func releasableOf(ctx contractBase.KContext, data *VestingData) *big.Int {
	waitingTime, vestingTime := data.Schedule.Durations(ctx)
	return Releasable(data, waitingTime, vestingTime, ctx.Now())
}

func (v *Vester) Releasable(ctx contractBase.KContext) (*contractBase.Response, error) {
	receiver, asset, id, err := scheduleArgs(ctx)
	if err != nil {
		return nil, err
	}
	data, err := loadSchedule(ctx, receiver, asset, id)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(contractBase.NewAmount(releasableOf(ctx, data)))
}

// Release pays out what is releasable to the receiver. Anyone may trigger it
// and nothing releasable is not an error.
func (v *Vester) Release(ctx contractBase.KContext) (*contractBase.Response, error) {
	receiver, asset, id, err := scheduleArgs(ctx)
	if err != nil {
		return nil, err
	}
	data, err := loadSchedule(ctx, receiver, asset, id)
	if err != nil {
		return nil, err
	}
	amount := releasableOf(ctx, data)
	if amount.Sign() == 0 {
		return contractBase.NewResponse(contractBase.NewAmount(amount))
	}

	released := data.Released.Int()
	data.Released = contractBase.NewAmount(released.Add(released, amount))
	if err := contractBase.PutObject(ctx, scheduleBucket, scheduleKey(receiver, asset, id), data); err != nil {
		return nil, err
	}
	if asset == "" {
		err = ctx.TransferNative(receiver, amount)
	} else {
		err = psp22.NewClient(asset).Transfer(ctx, receiver, amount)
	}
	if err != nil {
		return nil, err
	}
	err = ctx.EmitEvent("TokenReleased", &TokenReleased{
		Receiver: receiver,
		Asset:    asset,
		Id:       id,
		Amount:   contractBase.NewAmount(amount),
	})
	if err != nil {
		return nil, err
	}
	if v.ctx.MetricSwitch {
		metrics.VestReleaseCounter.WithLabelValues(v.ctx.BcName).Inc()
	}
	return contractBase.NewResponse(contractBase.NewAmount(amount))
}

func (v *Vester) VestingScheduleOf(ctx contractBase.KContext) (*contractBase.Response, error) {
	receiver, asset, id, err := scheduleArgs(ctx)
	if err != nil {
		return nil, err
	}
	data := new(VestingData)
	found, err := contractBase.GetObject(ctx, scheduleBucket, scheduleKey(receiver, asset, id), data)
	if err != nil {
		return nil, err
	}
	if !found {
		data = nil
	}
	return contractBase.NewResponse(data)
}

func (v *Vester) NextIdVestOf(ctx contractBase.KContext) (*contractBase.Response, error) {
	receiver, err := contractBase.ArgString(ctx, "receiver")
	if err != nil {
		return nil, err
	}
	id, err := contractBase.GetUint64(ctx, nextIdBucket, pairKey(receiver, contractBase.ArgOptString(ctx, "asset")))
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(id)
}
