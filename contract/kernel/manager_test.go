package kernel

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/sandbox"
	"github.com/wooyang2018/govchain/logger"
	mock "github.com/wooyang2018/govchain/mock/config"
	"github.com/wooyang2018/govchain/storage/memory"
)

var errBoom = base.NewError(base.KindPrecondition, "Boom")

type counter struct{}

func (c *counter) Methods() map[string]base.KernMethod {
	return map[string]base.KernMethod{
		"incr": func(ctx base.KContext) (*base.Response, error) {
			n, err := base.GetUint64(ctx, "cnt", []byte("n"))
			if err != nil {
				return nil, err
			}
			if err := base.PutUint64(ctx, "cnt", []byte("n"), n+1); err != nil {
				return nil, err
			}
			ctx.EmitEvent("Incremented", map[string]uint64{"n": n + 1})
			return base.NewResponse(n + 1)
		},
		"incrThenFail": func(ctx base.KContext) (*base.Response, error) {
			if _, err := ctx.Call(ctx.Self(), "incr", nil, nil); err != nil {
				return nil, err
			}
			return nil, errBoom
		},
		"incrAndSwallow": func(ctx base.KContext) (*base.Response, error) {
			if _, err := ctx.Call(ctx.Self(), "incrThenFail", nil, nil); !errors.Is(err, errBoom) {
				return nil, errors.New("expected nested failure")
			}
			return ctx.Call(ctx.Self(), "incr", nil, nil)
		},
		"recurse": func(ctx base.KContext) (*base.Response, error) {
			return ctx.Call(ctx.Self(), "recurse", nil, nil)
		},
		"whoami": func(ctx base.KContext) (*base.Response, error) {
			return base.NewResponse([]string{ctx.Caller(), ctx.Initiator(), ctx.Self(), ctx.Value().String()})
		},
	}
}

func newTestManager(t *testing.T) (*Manager, *sandbox.XMCache) {
	mock.InitFakeLogger()
	log, err := logger.NewLogger("", "kernel_test")
	require.NoError(t, err)
	m, err := NewManager(&ManagerConfig{BCName: "test", Log: log, MaxCallDepth: 4})
	require.NoError(t, err)
	require.NoError(t, m.Deploy("counter", &counter{}))
	state := sandbox.NewXMCache(sandbox.NewDBReader(memory.NewMemDatabase()))
	return m, state
}

func invoke(m *Manager, state *sandbox.XMCache, method string, value *big.Int) (*base.Response, []*base.Event, error) {
	return m.Invoke(&ContextConfig{
		State:     state,
		Initiator: "alice",
		Contract:  "counter",
		Method:    method,
		Value:     value,
		Now:       1000,
	})
}

func readCounter(t *testing.T, state *sandbox.XMCache) uint64 {
	n, err := base.GetUint64(state, "counter/cnt", []byte("n"))
	require.NoError(t, err)
	return n
}

func TestInvokeCommitsOnSuccess(t *testing.T) {
	m, state := newTestManager(t)
	resp, events, err := invoke(m, state, "incr", nil)
	require.NoError(t, err)
	var n uint64
	require.NoError(t, resp.Decode(&n))
	require.Equal(t, uint64(1), n)
	require.Len(t, events, 1)
	require.Equal(t, "counter", events[0].Contract)
	require.Equal(t, int64(1000), events[0].Timestamp)
	require.Equal(t, uint64(1), readCounter(t, state))
}

func TestInvokeRollsBackNestedWrites(t *testing.T) {
	m, state := newTestManager(t)
	_, _, err := invoke(m, state, "incrThenFail", nil)
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, uint64(0), readCounter(t, state))

	_, events, err := invoke(m, state, "incrAndSwallow", nil)
	require.NoError(t, err)
	require.Len(t, events, 1, "events of the failed branch must be dropped")
	require.Equal(t, uint64(1), readCounter(t, state))
}

func TestInvokeCallDepth(t *testing.T) {
	m, state := newTestManager(t)
	_, _, err := invoke(m, state, "recurse", nil)
	require.ErrorIs(t, err, ErrCallDepthExceeded)
}

func TestInvokeUnknownMethod(t *testing.T) {
	m, state := newTestManager(t)
	_, _, err := invoke(m, state, "nope", nil)
	require.ErrorIs(t, err, base.ErrMethodNotFound)
	require.Equal(t, base.KindNotFound, base.KindOf(err))
}

func TestInvokeNativeValue(t *testing.T) {
	m, state := newTestManager(t)
	require.NoError(t, MintNative(state, "alice", big.NewInt(100)))

	resp, _, err := invoke(m, state, "whoami", big.NewInt(30))
	require.NoError(t, err)
	var who []string
	require.NoError(t, resp.Decode(&who))
	require.Equal(t, []string{"alice", "alice", "counter", "30"}, who)
	require.Equal(t, int64(70), NativeBalance(state, "alice").Int64())
	require.Equal(t, int64(30), NativeBalance(state, "counter").Int64())

	_, _, err = invoke(m, state, "whoami", big.NewInt(1000))
	require.ErrorIs(t, err, base.ErrNativeTransfer)
	require.Equal(t, int64(70), NativeBalance(state, "alice").Int64())
}

func TestDeployTwice(t *testing.T) {
	m, _ := newTestManager(t)
	require.ErrorIs(t, m.Deploy("counter", &counter{}), ErrContractExists)
	require.Contains(t, m.GetKernRegistry().Contracts(), "counter")
}
