package kernel

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/sandbox"
	"github.com/wooyang2018/govchain/logger"
)

// kcontextImpl is the view a running kernel method has of the chain.
type kcontextImpl struct {
	mgr       *Manager
	state     *sandbox.XMCache
	args      map[string][]byte
	self      string
	caller    string
	initiator string
	value     *big.Int
	now       int64
	depth     int
	events    *[]*base.Event
}

func (k *kcontextImpl) Args() map[string][]byte {
	return k.args
}

func (k *kcontextImpl) Initiator() string {
	return k.initiator
}

func (k *kcontextImpl) Caller() string {
	return k.caller
}

func (k *kcontextImpl) Self() string {
	return k.self
}

func (k *kcontextImpl) Now() int64 {
	return k.now
}

func (k *kcontextImpl) Value() *big.Int {
	return new(big.Int).Set(k.value)
}

func (k *kcontextImpl) bucket(bucket string) string {
	return k.self + sandbox.BucketSeperator + bucket
}

func (k *kcontextImpl) Get(bucket string, key []byte) ([]byte, error) {
	return k.state.Get(k.bucket(bucket), key)
}

func (k *kcontextImpl) Put(bucket string, key, value []byte) error {
	return k.state.Put(k.bucket(bucket), key, value)
}

func (k *kcontextImpl) Del(bucket string, key []byte) error {
	return k.state.Del(k.bucket(bucket), key)
}

func (k *kcontextImpl) Select(bucket string, startKey []byte, endKey []byte) (base.Iterator, error) {
	return k.state.Select(k.bucket(bucket), startKey, endKey)
}

func (k *kcontextImpl) NativeBalance(account string) *big.Int {
	return NativeBalance(k.state, account)
}

func (k *kcontextImpl) TransferNative(to string, amount *big.Int) error {
	return MoveNative(k.state, k.self, to, amount)
}

func (k *kcontextImpl) EmitEvent(name string, body interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal event %s failed.err:%v", name, err)
	}
	*k.events = append(*k.events, &base.Event{
		Contract:  k.self,
		Name:      name,
		Body:      buf,
		Timestamp: k.now,
	})
	return nil
}

func (k *kcontextImpl) GetLog() logger.Logger {
	return k.mgr.log
}

func (k *kcontextImpl) Call(contract, method string, args map[string][]byte, value *big.Int) (*base.Response, error) {
	return k.call(contract, method, args, value, k.events)
}

// call runs contract.method as a callee of k inside a forked sandbox. Writes
// and events of the callee become visible to k only if the callee succeeds.
func (k *kcontextImpl) call(contract, method string, args map[string][]byte, value *big.Int,
	events *[]*base.Event) (*base.Response, error) {
	if k.depth >= k.mgr.maxCallDepth {
		return nil, ErrCallDepthExceeded.WithDetail("depth %d", k.depth)
	}
	handler, err := k.mgr.kregistry.GetKernMethod(contract, method)
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = new(big.Int)
	}
	if args == nil {
		args = make(map[string][]byte)
	}

	begin := time.Now()
	child := k.state.Fork()
	childEvents := make([]*base.Event, 0)
	callee := &kcontextImpl{
		mgr:       k.mgr,
		state:     child,
		args:      args,
		self:      contract,
		caller:    k.self,
		initiator: k.initiator,
		value:     new(big.Int).Set(value),
		now:       k.now,
		depth:     k.depth + 1,
		events:    &childEvents,
	}

	resp, err := func() (*base.Response, error) {
		if err := MoveNative(child, k.self, contract, value); err != nil {
			return nil, err
		}
		return handler(callee)
	}()
	k.mgr.observe(contract, method, begin, err)
	if err != nil {
		k.mgr.log.Debug("kernel method failed", "contract", contract, "method", method,
			"caller", k.self, "depth", callee.depth, "err", err)
		return nil, fmt.Errorf("%s.%s: %w", contract, method, err)
	}
	if resp == nil {
		resp = &base.Response{Status: base.StatusOK}
	}
	if resp.Status >= base.StatusErrorThreshold {
		return nil, fmt.Errorf("%s.%s: status %d: %s", contract, method, resp.Status, resp.Message)
	}

	if err := k.state.Merge(child); err != nil {
		return nil, err
	}
	*events = append(*events, childEvents...)
	return resp, nil
}
