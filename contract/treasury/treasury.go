// Package treasury holds funds of the DAO and spends them through orders:
// batches of operations created by the governor and executed by the
// foundation inside a time window.
package treasury

import (
	"errors"
	"fmt"

	"github.com/wooyang2018/govchain/common/metrics"
	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/permission"
	"github.com/wooyang2018/govchain/permission/base"
	"github.com/wooyang2018/govchain/storage"
)

const (
	orderBucket = "order"
	metaBucket  = "meta"

	vesterKey = "vester"
	nextIdKey = "nextId"
)

var (
	ErrNoSuchOrder          = contractBase.NewError(contractBase.KindNotFound, "NoSuchOrder")
	ErrToEarlyToExecute     = contractBase.NewError(contractBase.KindPrecondition, "ToEarlyToExecute")
	ErrToLateToExecute      = contractBase.NewError(contractBase.KindPrecondition, "ToLateToExecute")
	ErrNativeTransferFailed = contractBase.NewError(contractBase.KindPrecondition, "NativeTransferFailed")
)

type Order struct {
	EarliestExecution int64           `json:"earliestExecution"`
	LatestExecution   int64           `json:"latestExecution"`
	Operations        []OperationSpec `json:"operations"`
}

// events
type (
	OrderCreated struct {
		Id                uint64          `json:"id"`
		EarliestExecution int64           `json:"earliestExecution"`
		LatestExecution   int64           `json:"latestExecution"`
		Operations        []OperationSpec `json:"operations"`
	}
	OrderExecuted struct {
		Id uint64 `json:"id"`
	}
	OrderCancelled struct {
		Id uint64 `json:"id"`
	}
	VesterChanged struct {
		Vester string `json:"vester"`
	}
)

type Treasury struct {
	ctx *TreasuryCtx
	acl *permission.KernMethod
}

func NewTreasury(ctx *TreasuryCtx) *Treasury {
	return &Treasury{
		ctx: ctx,
		acl: permission.NewKernContractMethod(),
	}
}

func (t *Treasury) Methods() map[string]contractBase.KernMethod {
	methods := t.acl.Methods()
	methods["initialize"] = t.Initialize
	methods["createOrder"] = t.CreateOrder
	methods["executeOrder"] = t.ExecuteOrder
	methods["cancelOrder"] = t.CancelOrder
	methods["setVester"] = t.SetVester
	methods["order"] = t.Order
	methods["nextOrderId"] = t.NextOrderId
	methods["pendingOrders"] = t.PendingOrders
	methods["vester"] = t.Vester
	return methods
}

func orderKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%020d", id))
}

// Initialize makes the governor admin and spender, the foundation executor
// and canceller.
func (t *Treasury) Initialize(ctx contractBase.KContext) (*contractBase.Response, error) {
	if _, err := ctx.Get(metaBucket, []byte(vesterKey)); err == nil {
		return nil, contractBase.ErrAlreadyInitialized
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	governor, err := contractBase.ArgString(ctx, "governor")
	if err != nil {
		return nil, err
	}
	foundation, err := contractBase.ArgString(ctx, "foundation")
	if err != nil {
		return nil, err
	}
	vesterName, err := contractBase.ArgString(ctx, "vester")
	if err != nil {
		return nil, err
	}

	grants := []struct {
		role    base.RoleType
		account string
	}{
		{base.DefaultAdmin, governor},
		{base.Spender, governor},
		{base.Executor, foundation},
		{base.Canceller, foundation},
	}
	for _, g := range grants {
		if err := permission.InitGrant(ctx, g.role, g.account); err != nil {
			return nil, err
		}
	}
	if err := t.setVester(ctx, vesterName); err != nil {
		return nil, err
	}
	t.ctx.XLog.Info("treasury initialized", "treasury", ctx.Self(), "governor", governor, "foundation", foundation)
	return contractBase.NewResponse(nil)
}

func (t *Treasury) setVester(ctx contractBase.KContext, vesterName string) error {
	if err := ctx.Put(metaBucket, []byte(vesterKey), []byte(vesterName)); err != nil {
		return err
	}
	return ctx.EmitEvent("VesterChanged", &VesterChanged{Vester: vesterName})
}

func (t *Treasury) SetVester(ctx contractBase.KContext) (*contractBase.Response, error) {
	if err := permission.EnsureHasRole(ctx, base.ParametersAdmin); err != nil {
		return nil, err
	}
	vesterName, err := contractBase.ArgString(ctx, "vester")
	if err != nil {
		return nil, err
	}
	if err := t.setVester(ctx, vesterName); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (t *Treasury) CreateOrder(ctx contractBase.KContext) (*contractBase.Response, error) {
	if err := permission.EnsureHasRole(ctx, base.Spender); err != nil {
		return nil, err
	}
	earliest, err := contractBase.ArgInt64(ctx, "earliestExecution")
	if err != nil {
		return nil, err
	}
	latest, err := contractBase.ArgInt64(ctx, "latestExecution")
	if err != nil {
		return nil, err
	}
	var ops []OperationSpec
	if err := contractBase.ArgJSON(ctx, "operations", &ops); err != nil {
		return nil, err
	}

	id, err := contractBase.GetUint64(ctx, metaBucket, []byte(nextIdKey))
	if err != nil {
		return nil, err
	}
	order := &Order{EarliestExecution: earliest, LatestExecution: latest, Operations: ops}
	if err := contractBase.PutObject(ctx, orderBucket, orderKey(id), order); err != nil {
		return nil, err
	}
	if err := contractBase.PutUint64(ctx, metaBucket, []byte(nextIdKey), id+1); err != nil {
		return nil, err
	}
	err = ctx.EmitEvent("OrderCreated", &OrderCreated{
		Id:                id,
		EarliestExecution: earliest,
		LatestExecution:   latest,
		Operations:        ops,
	})
	if err != nil {
		return nil, err
	}
	t.observe("created")
	return contractBase.NewResponse(id)
}

func (t *Treasury) observe(outcome string) {
	if t.ctx.MetricSwitch {
		metrics.TreasuryOrderCounter.WithLabelValues(t.ctx.BcName, outcome).Inc()
	}
}

// removeOrder takes an order out of state so that it runs at most once.
func (t *Treasury) removeOrder(ctx contractBase.KContext, id uint64) (*Order, error) {
	order := new(Order)
	found, err := contractBase.GetObject(ctx, orderBucket, orderKey(id), order)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoSuchOrder.WithDetail("order %d", id)
	}
	if err := ctx.Del(orderBucket, orderKey(id)); err != nil {
		return nil, err
	}
	return order, nil
}

// ExecuteOrder runs the operations of an order in sequence. The order is
// removed before the first operation, so an operation cannot execute it
// again; a failing operation fails the whole call and the order stays.
func (t *Treasury) ExecuteOrder(ctx contractBase.KContext) (*contractBase.Response, error) {
	if err := permission.EnsureHasRole(ctx, base.Executor); err != nil {
		return nil, err
	}
	id, err := contractBase.ArgUint64(ctx, "id")
	if err != nil {
		return nil, err
	}
	order, err := t.removeOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	now := ctx.Now()
	if now < order.EarliestExecution {
		return nil, ErrToEarlyToExecute.WithDetail("now %d, earliest %d", now, order.EarliestExecution)
	}
	if now > order.LatestExecution {
		return nil, ErrToLateToExecute.WithDetail("now %d, latest %d", now, order.LatestExecution)
	}

	vesterBuf, err := ctx.Get(metaBucket, []byte(vesterKey))
	if err != nil {
		return nil, err
	}
	for i, op := range order.Operations {
		if err := op.run(ctx, string(vesterBuf)); err != nil {
			t.ctx.XLog.Warn("treasury operation failed", "order", id, "index", i, "type", op.kind(), "err", err)
			t.observe("failed")
			return nil, err
		}
	}

	if err := ctx.EmitEvent("OrderExecuted", &OrderExecuted{Id: id}); err != nil {
		return nil, err
	}
	t.observe("executed")
	t.ctx.XLog.Info("order executed", "order", id, "operations", len(order.Operations))
	return contractBase.NewResponse(nil)
}

func (t *Treasury) CancelOrder(ctx contractBase.KContext) (*contractBase.Response, error) {
	if err := permission.EnsureHasRole(ctx, base.Canceller); err != nil {
		return nil, err
	}
	id, err := contractBase.ArgUint64(ctx, "id")
	if err != nil {
		return nil, err
	}
	if _, err := t.removeOrder(ctx, id); err != nil {
		return nil, err
	}
	if err := ctx.EmitEvent("OrderCancelled", &OrderCancelled{Id: id}); err != nil {
		return nil, err
	}
	t.observe("cancelled")
	return contractBase.NewResponse(nil)
}

// Order answers null for unknown, executed and cancelled orders.
func (t *Treasury) Order(ctx contractBase.KContext) (*contractBase.Response, error) {
	id, err := contractBase.ArgUint64(ctx, "id")
	if err != nil {
		return nil, err
	}
	order := new(Order)
	found, err := contractBase.GetObject(ctx, orderBucket, orderKey(id), order)
	if err != nil {
		return nil, err
	}
	if !found {
		order = nil
	}
	return contractBase.NewResponse(order)
}

func (t *Treasury) NextOrderId(ctx contractBase.KContext) (*contractBase.Response, error) {
	v, err := contractBase.GetUint64(ctx, metaBucket, []byte(nextIdKey))
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(v)
}

// PendingOrders lists the ids of orders not yet executed nor cancelled.
func (t *Treasury) PendingOrders(ctx contractBase.KContext) (*contractBase.Response, error) {
	iter, err := ctx.Select(orderBucket, nil, nil)
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	ids := make([]uint64, 0)
	for iter.Next() {
		var id uint64
		if _, err := fmt.Sscanf(string(iter.Key()), "%d", &id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(ids)
}

func (t *Treasury) Vester(ctx contractBase.KContext) (*contractBase.Response, error) {
	buf, err := ctx.Get(metaBucket, []byte(vesterKey))
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(string(buf))
}
