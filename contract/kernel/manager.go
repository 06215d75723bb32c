package kernel

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/wooyang2018/govchain/common/metrics"
	"github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/sandbox"
	"github.com/wooyang2018/govchain/logger"
	"github.com/wooyang2018/govchain/storage"
)

const (
	// NativeContract owns the bucket of native balances
	NativeContract = "$native"
	NativeBucket   = NativeContract + sandbox.BucketSeperator + "balance"

	DefaultMaxCallDepth = 16
)

var (
	ErrCallDepthExceeded   = base.NewError(base.KindPrecondition, "CallDepthExceeded")
	ErrContractExists      = errors.New("contract already deployed")
	ErrInvalidNativeAmount = base.ErrNativeTransfer.WithDetail("negative amount")
)

// Manager dispatches kernel method invocations on top of a sandbox.
type Manager struct {
	bcName       string
	log          logger.Logger
	kregistry    registryImpl
	maxCallDepth int
	metric       bool
}

type ManagerConfig struct {
	BCName       string
	Log          logger.Logger
	MaxCallDepth int
	MetricSwitch bool
}

func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if cfg == nil || cfg.BCName == "" {
		return nil, errors.New("empty chain name when init contract manager")
	}
	if cfg.Log == nil {
		return nil, errors.New("nil logger when init contract manager")
	}
	depth := cfg.MaxCallDepth
	if depth <= 0 {
		depth = DefaultMaxCallDepth
	}
	return &Manager{
		bcName:       cfg.BCName,
		log:          cfg.Log,
		maxCallDepth: depth,
		metric:       cfg.MetricSwitch,
	}, nil
}

func (m *Manager) GetKernRegistry() base.KernRegistry {
	return &m.kregistry
}

// Deploy registers every method of c under name.
func (m *Manager) Deploy(name string, c base.Contract) error {
	if err := base.ValidContractName(name); err != nil {
		return err
	}
	if m.kregistry.has(name) {
		return fmt.Errorf("%w: %s", ErrContractExists, name)
	}
	for method, handler := range c.Methods() {
		m.kregistry.RegisterKernMethod(name, method, handler)
	}
	return nil
}

// Undeploy drops every method registered under name.
func (m *Manager) Undeploy(name string) {
	m.kregistry.unregister(name)
}

// ContextConfig describes one top level invocation.
type ContextConfig struct {
	State     *sandbox.XMCache
	Initiator string
	Contract  string
	Method    string
	Args      map[string][]byte
	Value     *big.Int
	Now       int64
}

// Invoke runs the method in a child of cfg.State. The child is merged into
// cfg.State only on success, together with the emitted events.
func (m *Manager) Invoke(cfg *ContextConfig) (*base.Response, []*base.Event, error) {
	root := &kcontextImpl{
		mgr:       m,
		state:     cfg.State,
		self:      cfg.Initiator,
		initiator: cfg.Initiator,
		now:       cfg.Now,
	}
	events := make([]*base.Event, 0)
	resp, err := root.call(cfg.Contract, cfg.Method, cfg.Args, cfg.Value, &events)
	if err != nil {
		return nil, nil, err
	}
	return resp, events, nil
}

func (m *Manager) observe(contract, method string, begin time.Time, err error) {
	if !m.metric {
		return
	}
	code := base.NameOf(err)
	metrics.ContractInvokeCounter.WithLabelValues(m.bcName, contract, method, code).Inc()
	metrics.ContractInvokeHistogram.WithLabelValues(m.bcName, contract, method).Observe(time.Since(begin).Seconds())
}

// NativeBalance reads a native balance straight from a sandbox.
func NativeBalance(state base.StateSandbox, account string) *big.Int {
	v, err := base.GetAmount(state, NativeBucket, []byte(account))
	if err != nil {
		return new(big.Int)
	}
	return v
}

// MoveNative transfers native currency between two accounts of a sandbox.
func MoveNative(state base.StateSandbox, from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrInvalidNativeAmount
	}
	fromBal, err := base.GetAmount(state, NativeBucket, []byte(from))
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return base.ErrNativeTransfer.WithDetail("insufficient native balance of %s: have %s need %s", from, fromBal, amount)
	}
	toBal, err := base.GetAmount(state, NativeBucket, []byte(to))
	if err != nil {
		return err
	}
	if err := base.PutAmount(state, NativeBucket, []byte(from), fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return base.PutAmount(state, NativeBucket, []byte(to), toBal.Add(toBal, amount))
}

// MintNative credits native currency without a source, used at genesis.
func MintNative(state base.StateSandbox, to string, amount *big.Int) error {
	bal, err := base.GetAmount(state, NativeBucket, []byte(to))
	if err != nil {
		return err
	}
	return base.PutAmount(state, NativeBucket, []byte(to), bal.Add(bal, amount))
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
