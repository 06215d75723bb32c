package engine

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/kernel"
	"github.com/wooyang2018/govchain/contract/sandbox"
	"github.com/wooyang2018/govchain/engine/base"
	"github.com/wooyang2018/govchain/engine/event"
	"github.com/wooyang2018/govchain/logger"
	"github.com/wooyang2018/govchain/storage"
)

const (
	// metaBucket holds chain bookkeeping next to contract state
	metaBucket     = "$chain"
	metaLastTsKey  = "lastTs"
	metaGenesisKey = "genesis"
	metaDeployKey  = "deploy."

	queryCacheExpiration = time.Minute
)

// ChainConfig configures a Chain.
type ChainConfig struct {
	BCName string
	DB     storage.Database
	// native balances minted once when DB is empty
	Genesis      map[string]*big.Int
	GenesisTime  int64
	MaxCallDepth int
	MetricSwitch bool
	// AsyncEvents delivers committed events from a dispatcher goroutine
	AsyncEvents bool
}

// Transaction is one top level contract invocation at a block timestamp.
type Transaction struct {
	Initiator string
	Contract  string
	Method    string
	Args      map[string][]byte
	Value     *big.Int
	// Timestamp in milliseconds, must not be earlier than the previous one
	Timestamp int64
}

type TxResult struct {
	Response  *contractBase.Response
	Events    []*contractBase.Event
	Timestamp int64
}

// Chain executes transactions against committed state. Transactions run one
// at a time, each on its own sandbox: success commits the sandbox as a single
// batch, failure leaves committed state untouched.
type Chain struct {
	ctx     *base.ChainCtx
	log     logger.Logger
	db      storage.Database
	kernel  *kernel.Manager
	bus     *event.Bus
	async   bool
	queries *cache.Cache
	lastTs  int64
	closed  bool
	mutex   sync.Mutex
}

func NewChain(ctx *base.ChainCtx, cfg *ChainConfig) (*Chain, error) {
	if ctx == nil || cfg == nil || cfg.DB == nil {
		return nil, base.ErrParameter.More("nil chain ctx, config or db")
	}
	km, err := kernel.NewManager(&kernel.ManagerConfig{
		BCName:       ctx.BCName,
		Log:          ctx.XLog,
		MaxCallDepth: cfg.MaxCallDepth,
		MetricSwitch: cfg.MetricSwitch,
	})
	if err != nil {
		return nil, err
	}

	c := &Chain{
		ctx:    ctx,
		log:    ctx.XLog,
		db:     cfg.DB,
		kernel: km,
		bus:    event.NewBus(ctx.XLog, cfg.MetricSwitch),
		async:  cfg.AsyncEvents,
		// cleanup interval 0 keeps go-cache from starting a janitor goroutine
		queries: cache.New(queryCacheExpiration, 0),
	}
	if err := c.loadOrGenesis(cfg); err != nil {
		c.bus.Stop()
		return nil, err
	}
	ctx.Timer.Mark("NewChain")
	c.log.Info("chain ready", "lastTs", c.lastTs, "timer", ctx.Timer.Print())
	return c, nil
}

func (c *Chain) loadOrGenesis(cfg *ChainConfig) error {
	state := c.newState()
	if _, err := state.Get(metaBucket, []byte(metaGenesisKey)); err == nil {
		ts, err := contractBase.GetUint64(state, metaBucket, []byte(metaLastTsKey))
		if err != nil {
			return base.ErrInternal.More("load last timestamp: %v", err)
		}
		c.lastTs = int64(ts)
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	accounts := make([]string, 0, len(cfg.Genesis))
	for account := range cfg.Genesis {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, account := range accounts {
		amount := cfg.Genesis[account]
		if amount == nil || amount.Sign() < 0 {
			return base.ErrGenesisAmount.More("account %s", account)
		}
		if err := kernel.MintNative(state, account, amount); err != nil {
			return err
		}
	}
	if err := state.Put(metaBucket, []byte(metaGenesisKey), []byte(strconv.FormatInt(cfg.GenesisTime, 10))); err != nil {
		return err
	}
	c.lastTs = cfg.GenesisTime
	return c.commit(state)
}

func (c *Chain) newState() *sandbox.XMCache {
	return sandbox.NewXMCache(sandbox.NewDBReader(c.db))
}

func (c *Chain) commit(state *sandbox.XMCache) error {
	if err := contractBase.PutUint64(state, metaBucket, []byte(metaLastTsKey), uint64(c.lastTs)); err != nil {
		return err
	}
	batch := c.db.NewBatch()
	if err := state.Commit(batch); err != nil {
		return base.ErrStorageWrite.More("%v", err)
	}
	if err := batch.Write(); err != nil {
		return base.ErrStorageWrite.More("%v", err)
	}
	c.queries.Flush()
	return nil
}

func (c *Chain) Context() *base.ChainCtx {
	return c.ctx
}

// Bus gives access to committed contract events.
func (c *Chain) Bus() *event.Bus {
	return c.bus
}

func (c *Chain) GetKernRegistry() contractBase.KernRegistry {
	return c.kernel.GetKernRegistry()
}

// Now returns the timestamp of the last committed transaction.
func (c *Chain) Now() int64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lastTs
}

// Deploy registers contract under name and runs its initialize method once.
// A contract already initialized in storage is only registered again.
func (c *Chain) Deploy(name string, contract contractBase.Contract, initiator string,
	args map[string][]byte, ts int64) (*TxResult, error) {
	if err := c.kernel.Deploy(name, contract); err != nil {
		return nil, base.ErrContractDeploy.More("%s: %v", name, err)
	}

	state := c.newState()
	if _, err := state.Get(metaBucket, []byte(metaDeployKey+name)); err == nil {
		c.log.Info("contract already initialized", "contract", name)
		return &TxResult{Timestamp: c.Now()}, nil
	}
	if _, ok := contract.Methods()["initialize"]; !ok {
		return &TxResult{Timestamp: c.Now()}, nil
	}
	res, err := c.invoke(&Transaction{
		Initiator: initiator,
		Contract:  name,
		Method:    "initialize",
		Args:      args,
		Timestamp: ts,
	}, func(state *sandbox.XMCache) error {
		return state.Put(metaBucket, []byte(metaDeployKey+name), []byte(initiator))
	})
	if err != nil {
		// 初始化失败时撤销注册, 允许同名重新部署
		c.kernel.Undeploy(name)
		return res, err
	}
	return res, nil
}

// Invoke executes tx and commits its writes if it succeeds.
func (c *Chain) Invoke(tx *Transaction) (*TxResult, error) {
	return c.invoke(tx, nil)
}

func (c *Chain) invoke(tx *Transaction, onSuccess func(*sandbox.XMCache) error) (*TxResult, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return nil, base.ErrChainClosed
	}
	if tx.Timestamp < c.lastTs {
		return nil, base.ErrTimeRewind.More("tx %d < last %d", tx.Timestamp, c.lastTs)
	}

	state := c.newState()
	resp, events, err := c.kernel.Invoke(&kernel.ContextConfig{
		State:     state,
		Initiator: tx.Initiator,
		Contract:  tx.Contract,
		Method:    tx.Method,
		Args:      tx.Args,
		Value:     tx.Value,
		Now:       tx.Timestamp,
	})
	if err != nil {
		c.log.Warn("tx failed", "initiator", tx.Initiator, "contract", tx.Contract, "method", tx.Method,
			"ts", tx.Timestamp, "kind", contractBase.KindOf(err).String(), "err", err)
		return nil, err
	}
	if onSuccess != nil {
		if err := onSuccess(state); err != nil {
			return nil, err
		}
	}

	prevTs := c.lastTs
	c.lastTs = tx.Timestamp
	if err := c.commit(state); err != nil {
		c.lastTs = prevTs
		return nil, err
	}
	c.log.Debug("tx committed", "initiator", tx.Initiator, "contract", tx.Contract, "method", tx.Method,
		"ts", tx.Timestamp, "writes", state.WriteCount(), "events", len(events))

	if c.async {
		c.bus.PublishAsync(events...)
	} else {
		c.bus.Publish(events...)
	}
	return &TxResult{Response: resp, Events: events, Timestamp: tx.Timestamp}, nil
}

// Query runs a method read-only. A zero Timestamp means the last committed
// timestamp; later timestamps evaluate time dependent views ahead of time.
func (c *Chain) Query(tx *Transaction) (*contractBase.Response, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return nil, base.ErrChainClosed
	}
	ts := tx.Timestamp
	if ts == 0 {
		ts = c.lastTs
	}

	key := queryKey(tx, ts)
	if v, ok := c.queries.Get(key); ok {
		return v.(*contractBase.Response), nil
	}
	resp, _, err := c.kernel.Invoke(&kernel.ContextConfig{
		State:     c.newState(),
		Initiator: tx.Initiator,
		Contract:  tx.Contract,
		Method:    tx.Method,
		Args:      tx.Args,
		Now:       ts,
	})
	if err != nil {
		return nil, err
	}
	c.queries.SetDefault(key, resp)
	return resp, nil
}

func queryKey(tx *Transaction, ts int64) string {
	names := make([]string, 0, len(tx.Args))
	for k := range tx.Args {
		names = append(names, k)
	}
	sort.Strings(names)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|%s|%s.%s", ts, tx.Initiator, tx.Contract, tx.Method)
	for _, k := range names {
		fmt.Fprintf(&sb, "|%s=%x", k, tx.Args[k])
	}
	return sb.String()
}

// NativeBalance returns the committed native balance of account.
func (c *Chain) NativeBalance(account string) *big.Int {
	return kernel.NativeBalance(c.newState(), account)
}

// Close stops event delivery and closes the database. It is idempotent.
func (c *Chain) Close() {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return
	}
	c.closed = true
	c.mutex.Unlock()

	c.bus.Stop()
	c.db.Close()
	c.log.Info("chain closed", "lastTs", c.lastTs)
}
