package scenario

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	xconf "github.com/wooyang2018/govchain/common/config"
	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/proposal/propose"
	"github.com/wooyang2018/govchain/engine"
	"github.com/wooyang2018/govchain/logger"
	_ "github.com/wooyang2018/govchain/storage/leveldb"
	_ "github.com/wooyang2018/govchain/storage/memory"
	"golang.org/x/sync/errgroup"
)

// DefaultGenesisTime is the clock of every scenario chain at deployment.
const DefaultGenesisTime int64 = 1_700_000_000_000

type Runner struct {
	EnvCfg      *xconf.EnvConf
	GovCfg      *xconf.GovConf
	GenesisTime int64
	// KeepChain leaves the chain of each result open and registered in
	// Chains until Close.
	KeepChain bool
	Chains    *engine.ChainManagerImpl
	log       logger.Logger
}

func NewRunner(envCfg *xconf.EnvConf, govCfg *xconf.GovConf) (*Runner, error) {
	if envCfg == nil || govCfg == nil {
		return nil, fmt.Errorf("new runner failed because some param unset")
	}
	log, err := logger.NewLogger("", "scenario")
	if err != nil {
		return nil, err
	}
	return &Runner{
		EnvCfg:      envCfg,
		GovCfg:      govCfg,
		GenesisTime: DefaultGenesisTime,
		Chains:      engine.NewChainManagerImpl(log),
		log:         log,
	}, nil
}

// Close stops every chain kept by the runner.
func (r *Runner) Close() {
	r.Chains.StopChains()
}

// Result is the outcome of a scenario that ran to the end.
type Result struct {
	Name  string
	Steps int
	Lines []string
	Chain *engine.Chain
}

// StepError reports the first step whose outcome differs from the scenario.
type StepError struct {
	Scenario string
	Index    int
	Step     *Step
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("scenario %s step %d (%s.%s by %s): %v",
		e.Scenario, e.Index, e.Step.Contract, e.Step.Method, e.Step.From, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func chainName(base, scenario string) string {
	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, scenario)
	return base + "-" + name
}

// Run replays s on a chain of its own.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Result, error) {
	govCfg := *r.GovCfg
	govCfg.ChainName = chainName(r.GovCfg.ChainName, s.Name)
	chain, err := engine.CreateChain(r.EnvCfg, &govCfg, r.GenesisTime)
	if err != nil {
		return nil, err
	}
	keep := false
	defer func() {
		if !keep {
			chain.Close()
		}
	}()

	now := r.GenesisTime
	if err := DeployStack(chain, &govCfg, now); err != nil {
		return nil, err
	}
	for account, amount := range s.Mint {
		v, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return nil, fmt.Errorf("scenario %s: bad mint amount %q for %s", s.Name, amount, account)
		}
		_, err := chain.Invoke(&engine.Transaction{
			Initiator: govCfg.Foundation,
			Contract:  AssetContract,
			Method:    "mint",
			Args:      contractBase.NewArgs().Str("to", account).Amount("amount", v),
			Timestamp: now,
		})
		if err != nil {
			return nil, fmt.Errorf("scenario %s: mint to %s failed.err:%v", s.Name, account, err)
		}
	}

	res := &Result{Name: s.Name}
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		advance, _ := ParseAdvance(step.Advance)
		now += advance
		if err := r.runStep(chain, step, now); err != nil {
			return nil, &StepError{Scenario: s.Name, Index: i, Step: step, Err: err}
		}
		res.Steps++
	}
	r.log.Info("scenario done", "scenario", s.Name, "steps", res.Steps, "chain", govCfg.ChainName)

	lines, err := report(chain, s.Report)
	if err != nil {
		return nil, err
	}
	res.Lines = lines
	if r.KeepChain {
		if err := r.Chains.Put(govCfg.ChainName, chain); err != nil {
			return nil, fmt.Errorf("scenario %s: %v", s.Name, err)
		}
		keep = true
		res.Chain = chain
	}
	return res, nil
}

func (r *Runner) runStep(chain *engine.Chain, step *Step, now int64) error {
	args, err := EncodeArgs(step.Args)
	if err != nil {
		return err
	}
	var value *big.Int
	if step.Value != "" {
		v, ok := new(big.Int).SetString(step.Value, 10)
		if !ok {
			return fmt.Errorf("bad value %q", step.Value)
		}
		value = v
	}
	tx := &engine.Transaction{
		Initiator: step.From,
		Contract:  step.Contract,
		Method:    step.Method,
		Args:      args,
		Value:     value,
		Timestamp: now,
	}

	var resp *contractBase.Response
	if step.Query {
		resp, err = chain.Query(tx)
	} else {
		var res *engine.TxResult
		res, err = chain.Invoke(tx)
		if res != nil {
			resp = res.Response
		}
	}

	if step.ExpectError != "" {
		if err == nil {
			return fmt.Errorf("expected error %s, got success", step.ExpectError)
		}
		if name := contractBase.NameOf(err); name != step.ExpectError {
			return fmt.Errorf("expected error %s, got %s: %v", step.ExpectError, name, err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if step.Expect != nil {
		if resp == nil || len(resp.Body) == 0 {
			return fmt.Errorf("expected %v, got empty response", step.Expect)
		}
		same, err := sameJSON(resp.Body, step.Expect)
		if err != nil {
			return err
		}
		if !same {
			return fmt.Errorf("expected %v, got %s", step.Expect, resp.Body)
		}
	}
	return nil
}

func queryAmount(chain *engine.Chain, contract, method string, args contractBase.Args) (*big.Int, error) {
	resp, err := chain.Query(&engine.Transaction{Contract: contract, Method: method, Args: args})
	if err != nil {
		return nil, err
	}
	v := new(contractBase.Amount)
	if err := resp.Decode(v); err != nil {
		return nil, err
	}
	return v.Int(), nil
}

// report lists balances of accounts and every proposal of the governor.
func report(chain *engine.Chain, accounts []string) ([]string, error) {
	lines := make([]string, 0, len(accounts)+1)
	for _, account := range accounts {
		owner := contractBase.NewArgs().Str("owner", account)
		asset, err := queryAmount(chain, AssetContract, "balanceOf", owner)
		if err != nil {
			return nil, err
		}
		shares, err := queryAmount(chain, GovernorContract, "balanceOf", owner)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("%-12s asset %s  votes %s  native %s", account,
			humanize.BigComma(asset), humanize.BigComma(shares), humanize.BigComma(chain.NativeBalance(account))))
	}

	mgr, err := propose.NewProposeManager(GovernorContract, propose.QueryFunc(
		func(contract, method string, args map[string][]byte) (*contractBase.Response, error) {
			return chain.Query(&engine.Transaction{Contract: contract, Method: method, Args: args})
		}))
	if err != nil {
		return nil, err
	}
	views, err := mgr.ListProposals()
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		st := v.State
		lines = append(lines, fmt.Sprintf("proposal %d %-17s for %s against %s slash %s", v.Id, st.Status,
			humanize.BigComma(st.VotesFor.Int()), humanize.BigComma(st.VotesAgainst.Int()),
			humanize.BigComma(st.VotesAgainstWithSlash.Int())))
	}
	return lines, nil
}

// RunAll replays scenarios concurrently, each on its own chain. Results keep
// the order of scenarios.
func (r *Runner) RunAll(ctx context.Context, scenarios []*Scenario) ([]*Result, error) {
	results := make([]*Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			res, err := r.Run(gctx, s)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.Close()
		return nil, err
	}
	return results, nil
}
