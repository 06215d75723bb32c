package treasury

import (
	"encoding/json"
	"fmt"

	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/psp22"
	"github.com/wooyang2018/govchain/contract/vester"
)

const (
	OpNativeTransfer = "nativeTransfer"
	OpPSP22Transfer  = "psp22Transfer"
	OpVest           = "vest"
)

// Operation is one fund movement of an order. Implemented by NativeTransfer,
// PSP22Transfer and Vest.
type Operation interface {
	// run performs the operation on behalf of the treasury
	run(ctx contractBase.KContext, vesterName string) error
	kind() string
}

type NativeTransfer struct {
	To     string               `json:"to"`
	Amount *contractBase.Amount `json:"amount"`
}

func (op *NativeTransfer) run(ctx contractBase.KContext, _ string) error {
	if err := ctx.TransferNative(op.To, op.Amount.Int()); err != nil {
		return ErrNativeTransferFailed.WithDetail("%s to %s: %v", op.Amount, op.To, err)
	}
	return nil
}

func (op *NativeTransfer) kind() string {
	return OpNativeTransfer
}

type PSP22Transfer struct {
	Asset  string               `json:"asset"`
	To     string               `json:"to"`
	Amount *contractBase.Amount `json:"amount"`
	// Data is passed along for compatibility and never interpreted
	Data string `json:"data,omitempty"`
}

func (op *PSP22Transfer) run(ctx contractBase.KContext, _ string) error {
	return psp22.NewClient(op.Asset).Transfer(ctx, op.To, op.Amount.Int())
}

func (op *PSP22Transfer) kind() string {
	return OpPSP22Transfer
}

// Vest locks Amount of Asset for Receiver in the vester. An empty Asset
// vests native currency held by the treasury.
type Vest struct {
	Receiver string               `json:"receiver"`
	Asset    string               `json:"asset,omitempty"`
	Amount   *contractBase.Amount `json:"amount"`
	Schedule vester.ScheduleSpec  `json:"schedule"`
}

func (op *Vest) run(ctx contractBase.KContext, vesterName string) error {
	amount := op.Amount.Int()
	if op.Asset != "" {
		if err := psp22.NewClient(op.Asset).Approve(ctx, vesterName, amount); err != nil {
			return err
		}
	}
	_, err := vester.NewClient(vesterName).CreateVest(ctx, op.Receiver, op.Asset, amount, op.Schedule)
	return err
}

func (op *Vest) kind() string {
	return OpVest
}

// OperationSpec carries an Operation through JSON as {"type": ..., fields...}.
type OperationSpec struct {
	Operation
}

func (s OperationSpec) MarshalJSON() ([]byte, error) {
	if s.Operation == nil {
		return nil, fmt.Errorf("empty treasury operation")
	}
	body, err := json.Marshal(s.Operation)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(s.kind())
	return json.Marshal(fields)
}

func (s *OperationSpec) UnmarshalJSON(buf []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(buf, &head); err != nil {
		return err
	}
	var op Operation
	switch head.Type {
	case OpNativeTransfer:
		op = new(NativeTransfer)
	case OpPSP22Transfer:
		op = new(PSP22Transfer)
	case OpVest:
		op = new(Vest)
	default:
		return fmt.Errorf("unknown treasury operation type %q", head.Type)
	}
	if err := json.Unmarshal(buf, op); err != nil {
		return err
	}
	if err := validate(op); err != nil {
		return err
	}
	s.Operation = op
	return nil
}

func validate(op Operation) error {
	switch o := op.(type) {
	case *NativeTransfer:
		if o.To == "" || o.Amount == nil {
			return fmt.Errorf("native transfer needs to and amount")
		}
	case *PSP22Transfer:
		if o.Asset == "" || o.To == "" || o.Amount == nil {
			return fmt.Errorf("psp22 transfer needs asset, to and amount")
		}
	case *Vest:
		if o.Receiver == "" || o.Amount == nil || o.Schedule.Schedule == nil {
			return fmt.Errorf("vest needs receiver, amount and schedule")
		}
	}
	return nil
}

func NewNativeTransfer(to string, amount *contractBase.Amount) OperationSpec {
	return OperationSpec{&NativeTransfer{To: to, Amount: amount}}
}

func NewPSP22Transfer(asset, to string, amount *contractBase.Amount) OperationSpec {
	return OperationSpec{&PSP22Transfer{Asset: asset, To: to, Amount: amount}}
}

func NewVest(receiver, asset string, amount *contractBase.Amount, schedule vester.ScheduleSpec) OperationSpec {
	return OperationSpec{&Vest{Receiver: receiver, Asset: asset, Amount: amount, Schedule: schedule}}
}
