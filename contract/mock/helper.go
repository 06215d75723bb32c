package mock

import (
	"fmt"
	"math/big"

	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/engine"
	"github.com/wooyang2018/govchain/engine/base"
	mock "github.com/wooyang2018/govchain/mock/config"
	"github.com/wooyang2018/govchain/storage/memory"
)

const (
	ChainName = "govtest"
	// GenesisTime is the clock of a fresh helper chain
	GenesisTime int64 = 1_700_000_000_000
)

// TestHelper drives a memory backed chain with a manual clock.
type TestHelper struct {
	chain  *engine.Chain
	now    int64
	events []*contractBase.Event
}

func NewTestHelper(genesis map[string]*big.Int) *TestHelper {
	mock.InitFakeLogger()
	ctx, err := base.NewChainCtx(ChainName, nil)
	if err != nil {
		panic(err)
	}
	chain, err := engine.NewChain(ctx, &engine.ChainConfig{
		BCName:      ChainName,
		DB:          memory.NewMemDatabase(),
		Genesis:     genesis,
		GenesisTime: GenesisTime,
	})
	if err != nil {
		panic(err)
	}
	return &TestHelper{
		chain: chain,
		now:   GenesisTime,
	}
}

func (th *TestHelper) Chain() *engine.Chain {
	return th.chain
}

func (th *TestHelper) Now() int64 {
	return th.now
}

// SetTime moves the clock to ts, later invocations run at ts.
func (th *TestHelper) SetTime(ts int64) {
	th.now = ts
}

func (th *TestHelper) Advance(d int64) {
	th.now += d
}

// Deploy registers c under name and runs its initialize method as initiator.
func (th *TestHelper) Deploy(name string, c contractBase.Contract, initiator string, args map[string][]byte) error {
	res, err := th.chain.Deploy(name, c, initiator, args, th.now)
	if err != nil {
		return err
	}
	th.events = res.Events
	return nil
}

func (th *TestHelper) Invoke(initiator, contract, method string, args map[string][]byte) (*contractBase.Response, error) {
	return th.InvokeWithValue(initiator, contract, method, args, nil)
}

func (th *TestHelper) InvokeWithValue(initiator, contract, method string, args map[string][]byte,
	value *big.Int) (*contractBase.Response, error) {
	res, err := th.chain.Invoke(&engine.Transaction{
		Initiator: initiator,
		Contract:  contract,
		Method:    method,
		Args:      args,
		Value:     value,
		Timestamp: th.now,
	})
	if err != nil {
		th.events = nil
		return nil, err
	}
	th.events = res.Events
	return res.Response, nil
}

// Query runs a read-only call at the helper clock and decodes its body into out.
func (th *TestHelper) Query(contract, method string, args map[string][]byte, out interface{}) error {
	resp, err := th.chain.Query(&engine.Transaction{
		Contract:  contract,
		Method:    method,
		Args:      args,
		Timestamp: th.now,
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// Amount queries a method answering a single amount.
func (th *TestHelper) Amount(contract, method string, args map[string][]byte) *big.Int {
	out := new(contractBase.Amount)
	if err := th.Query(contract, method, args, out); err != nil {
		panic(fmt.Sprintf("query %s.%s failed: %v", contract, method, err))
	}
	return out.Int()
}

// Events returns the events committed by the last successful invocation.
func (th *TestHelper) Events() []*contractBase.Event {
	return th.events
}

// EventNames lists the names of Events in emission order.
func (th *TestHelper) EventNames() []string {
	names := make([]string, 0, len(th.events))
	for _, evt := range th.events {
		names = append(names, evt.Name)
	}
	return names
}

func (th *TestHelper) NativeBalance(account string) *big.Int {
	return th.chain.NativeBalance(account)
}

func (th *TestHelper) Close() {
	th.chain.Close()
}
