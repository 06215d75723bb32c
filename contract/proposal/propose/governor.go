// Package propose is the proposal engine of the governor. A governor is one
// kernel contract holding both the stake ledger and the proposals voted with
// its shares.
package propose

import (
	"errors"
	"math/big"
	"strconv"

	"github.com/wooyang2018/govchain/common/metrics"
	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/proposal/govern"
	"github.com/wooyang2018/govchain/contract/proposal/utils"
	"github.com/wooyang2018/govchain/permission"
	"github.com/wooyang2018/govchain/permission/base"
	"github.com/wooyang2018/govchain/storage"
)

type Governor struct {
	ctx    *ProposeCtx
	ledger *govern.Ledger
}

func NewGovernor(ctx *ProposeCtx) (*Governor, error) {
	govCtx, err := govern.NewGovCtx(ctx.BcName, ctx.MetricSwitch)
	if err != nil {
		return nil, err
	}
	return &Governor{
		ctx:    ctx,
		ledger: govern.NewLedger(govCtx),
	}, nil
}

func (g *Governor) Methods() map[string]contractBase.KernMethod {
	methods := g.ledger.Methods()
	methods["initialize"] = g.Initialize
	methods["propose"] = g.Propose
	methods["vote"] = g.Vote
	methods["finalize"] = g.Finalize
	methods["execute"] = g.Execute
	methods["forceUnstake"] = g.ForceUnstake
	methods["changeVotingRules"] = g.ChangeVotingRules
	methods["changeUnstakePeriod"] = g.ChangeUnstakePeriod

	methods["rules"] = g.Rules
	methods["status"] = g.Status
	methods["state"] = g.State
	methods["voteOf"] = g.VoteOf
	methods["minimumToFinalize"] = g.MinimumToFinalize
	methods["hashProposal"] = g.HashProposal
	methods["hashDescription"] = g.HashDescription
	methods["hashById"] = g.HashById
	methods["descriptionById"] = g.DescriptionById
	methods["nextProposalId"] = g.counterView(utils.NextProposalKey)
	methods["activeProposals"] = g.counterView(utils.ActiveProposalKey)
	methods["finalizedProposals"] = g.counterView(utils.FinalizedProposal)
	methods["executedProposals"] = g.counterView(utils.ExecutedProposal)
	methods["lockedOf"] = g.LockedOf
	methods["lastForceUnstake"] = g.LastForceUnstake
	return methods
}

// Initialize sets up the ledger and the voting rules. rules must fit in the
// unstake period.
func (g *Governor) Initialize(ctx contractBase.KContext) (*contractBase.Response, error) {
	args, err := govern.ParseInitArgs(ctx)
	if err != nil {
		return nil, err
	}
	rules := new(VotingRules)
	if err := contractBase.ArgJSON(ctx, "rules", rules); err != nil {
		return nil, err
	}
	if err := rules.Validate(args.UnstakePeriod); err != nil {
		return nil, err
	}
	if err := govern.Init(ctx, args); err != nil {
		return nil, err
	}
	if err := contractBase.PutObject(ctx, utils.RulesBucket, []byte(utils.RulesKey), rules); err != nil {
		return nil, err
	}
	g.ctx.XLog.Info("governor initialized", "governor", ctx.Self(), "asset", args.Asset,
		"vester", args.Vester, "unstakePeriod", args.UnstakePeriod)
	return contractBase.NewResponse(nil)
}

func loadRules(ctx contractBase.StateSandbox) (*VotingRules, error) {
	rules := new(VotingRules)
	found, err := contractBase.GetObject(ctx, utils.RulesBucket, []byte(utils.RulesKey), rules)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, contractBase.ErrNotInitialized
	}
	return rules, nil
}

func loadState(ctx contractBase.StateSandbox, id uint64) (*ProposalState, error) {
	st := new(ProposalState)
	found, err := contractBase.GetObject(ctx, utils.ProposalBucket, utils.MakeProposalKey(id), st)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrProposalDoesntExist.WithDetail("id %d", id)
	}
	return st, nil
}

func saveState(ctx contractBase.StateSandbox, id uint64, st *ProposalState) error {
	return contractBase.PutObject(ctx, utils.ProposalBucket, utils.MakeProposalKey(id), st)
}

func loadVote(ctx contractBase.StateSandbox, id uint64, account string) (*UserVote, error) {
	v := new(UserVote)
	found, err := contractBase.GetObject(ctx, utils.VoteBucket, utils.MakeVoteKey(id, account), v)
	if err != nil || !found {
		return nil, err
	}
	return v, nil
}

func addCounter(ctx contractBase.StateSandbox, key string, delta int64) error {
	v, err := contractBase.GetUint64(ctx, utils.CounterBucket, []byte(key))
	if err != nil {
		return err
	}
	return contractBase.PutUint64(ctx, utils.CounterBucket, []byte(key), uint64(int64(v)+delta))
}

func (g *Governor) observe(status ProposalStatus) {
	if g.ctx.MetricSwitch {
		metrics.ProposalCounter.WithLabelValues(g.ctx.BcName, string(status)).Inc()
	}
}

// Propose registers a proposal of the caller, who must hold the proposer
// deposit part of the supply. The deposit is locked in the governor until
// the proposal is finalized.
func (g *Governor) Propose(ctx contractBase.KContext) (*contractBase.Response, error) {
	proposal := new(Proposal)
	if err := contractBase.ArgJSON(ctx, "proposal", proposal); err != nil {
		return nil, err
	}
	description := contractBase.ArgOptString(ctx, "description")
	if HashDescription(description) != proposal.DescriptionHash {
		return nil, ErrWrongDescriptionHash
	}
	rules, err := loadRules(ctx)
	if err != nil {
		return nil, err
	}

	proposer := ctx.Caller()
	total, err := govern.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	deposit := contractBase.MulDivDown(total, big.NewInt(int64(rules.ProposerDepositPartE3)), big1000)
	votes, err := govern.BalanceOf(ctx, proposer)
	if err != nil {
		return nil, err
	}
	// admission compares against the exact part, the locked deposit is floored
	need := new(big.Int).Mul(total, big.NewInt(int64(rules.ProposerDepositPartE3)))
	if votes.Sign() == 0 || new(big.Int).Mul(votes, big1000).Cmp(need) < 0 {
		return nil, ErrInsuficientVotes.WithDetail("%s holds %s, needs %s/1000", proposer, votes, need)
	}

	if _, err := ctx.Get(utils.ProposalHashBucket, utils.MakeIdByDescriptionKey(proposal.DescriptionHash)); err == nil {
		return nil, ErrProposalAlreadyExists.WithDetail("description %s", proposal.DescriptionHash)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	proposalHash, err := proposal.Hash()
	if err != nil {
		return nil, err
	}
	counter, err := govern.Counter(ctx)
	if err != nil {
		return nil, err
	}

	id, err := contractBase.GetUint64(ctx, utils.CounterBucket, []byte(utils.NextProposalKey))
	if err != nil {
		return nil, err
	}
	idStr := []byte(strconv.FormatUint(id, 10))
	for key, value := range map[string][]byte{
		string(utils.MakeHashByIdKey(id)):                             []byte(proposalHash),
		string(utils.MakeIdByHashKey(proposalHash)):                   idStr,
		string(utils.MakeIdByDescriptionKey(proposal.DescriptionHash)): idStr,
	} {
		if err := ctx.Put(utils.ProposalHashBucket, []byte(key), value); err != nil {
			return nil, err
		}
	}
	err = contractBase.PutObject(ctx, utils.ProposalBucket, utils.MakeProposalDescKey(id), &ProposalDescription{
		DescriptionUrl:  proposal.DescriptionUrl,
		DescriptionHash: proposal.DescriptionHash,
	})
	if err != nil {
		return nil, err
	}
	st := &ProposalState{
		Status:                StatusActive,
		Proposer:              proposer,
		Start:                 ctx.Now(),
		VotesAtStart:          contractBase.NewAmount(total),
		CounterAtStart:        contractBase.NewAmount(counter),
		VotesFor:              new(contractBase.Amount),
		VotesAgainst:          new(contractBase.Amount),
		VotesAgainstWithSlash: new(contractBase.Amount),
		EarliestExecution:     proposal.EarliestExecution,
	}
	if err := saveState(ctx, id, st); err != nil {
		return nil, err
	}
	if err := contractBase.PutUint64(ctx, utils.CounterBucket, []byte(utils.NextProposalKey), id+1); err != nil {
		return nil, err
	}
	if err := addCounter(ctx, utils.ActiveProposalKey, 1); err != nil {
		return nil, err
	}

	// 锁定提案押金
	if err := contractBase.PutAmount(ctx, utils.LockBucket, utils.MakeLockKey(id), deposit); err != nil {
		return nil, err
	}
	if err := govern.MoveShares(ctx, proposer, ctx.Self(), deposit); err != nil {
		return nil, err
	}

	err = ctx.EmitEvent("ProposalCreated", &ProposalCreated{ProposalId: id, ProposalHash: proposalHash, Proposal: proposal})
	if err != nil {
		return nil, err
	}
	g.observe(StatusActive)
	g.ctx.XLog.Info("proposal created", "id", id, "proposer", proposer, "hash", proposalHash, "deposit", deposit.String())
	return contractBase.NewResponse(id)
}

func proposalIdArg(ctx contractBase.KContext) (uint64, error) {
	return contractBase.ArgUint64(ctx, "proposalId")
}

// Vote adds the live share balance of the caller to one side. The proposer
// also votes with the locked deposit. Every account votes once.
func (g *Governor) Vote(ctx contractBase.KContext) (*contractBase.Response, error) {
	id, err := proposalIdArg(ctx)
	if err != nil {
		return nil, err
	}
	voteArg, err := contractBase.ArgString(ctx, "vote")
	if err != nil {
		return nil, err
	}
	vote, err := ParseVote(voteArg)
	if err != nil {
		return nil, err
	}
	voter := ctx.Caller()

	st, err := loadState(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Status != StatusActive {
		return nil, ErrWrongStatus.WithDetail("proposal %d is %s", id, st.Status)
	}
	weight, err := govern.BalanceOf(ctx, voter)
	if err != nil {
		return nil, err
	}
	if voter == st.Proposer {
		locked, err := contractBase.GetAmount(ctx, utils.LockBucket, utils.MakeLockKey(id))
		if err != nil {
			return nil, err
		}
		weight.Add(weight, locked)
	}
	if weight.Sign() == 0 {
		return nil, ErrInsuficientVotes.WithDetail("%s has no votes", voter)
	}
	prev, err := loadVote(ctx, id, voter)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		return nil, ErrAlreadyVoted.WithDetail("%s voted %s on %d", voter, prev.Vote, id)
	}

	var bucket **contractBase.Amount
	switch vote {
	case VoteAgreed:
		bucket = &st.VotesFor
	case VoteDisagreed:
		bucket = &st.VotesAgainst
	case VoteDisagreedWithProposerSlashing:
		bucket = &st.VotesAgainstWithSlash
	}
	sum := (*bucket).Int()
	*bucket = contractBase.NewAmount(sum.Add(sum, weight))
	if err := saveState(ctx, id, st); err != nil {
		return nil, err
	}
	userVote := &UserVote{Vote: vote, Amount: contractBase.NewAmount(weight)}
	if err := contractBase.PutObject(ctx, utils.VoteBucket, utils.MakeVoteKey(id, voter), userVote); err != nil {
		return nil, err
	}
	err = ctx.EmitEvent("VoteCasted", &VoteCasted{
		Account:    voter,
		ProposalId: id,
		Vote:       vote,
		Reason:     contractBase.ArgOptString(ctx, "reason"),
	})
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

// Finalize closes voting on an active proposal. The proposer deposit goes
// back unless the proposal is defeated with slash.
func (g *Governor) Finalize(ctx contractBase.KContext) (*contractBase.Response, error) {
	id, err := proposalIdArg(ctx)
	if err != nil {
		return nil, err
	}
	st, err := loadState(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Status != StatusActive {
		return nil, ErrWrongStatus.WithDetail("proposal %d is %s", id, st.Status)
	}
	rules, err := loadRules(ctx)
	if err != nil {
		return nil, err
	}
	counter, err := govern.Counter(ctx)
	if err != nil {
		return nil, err
	}
	now := ctx.Now()
	status, err := Decide(st, rules, now, counter)
	if err != nil {
		return nil, err
	}

	st.Status = status
	st.Finalized = &now
	if now >= st.Start+rules.InitialPeriod+rules.FlatPeriod {
		st.ForceUnstakePossible = true
	}
	if err := saveState(ctx, id, st); err != nil {
		return nil, err
	}
	if err := addCounter(ctx, utils.ActiveProposalKey, -1); err != nil {
		return nil, err
	}
	if err := addCounter(ctx, utils.FinalizedProposal, 1); err != nil {
		return nil, err
	}

	if status != StatusDefeatedWithSlash {
		locked, err := contractBase.GetAmount(ctx, utils.LockBucket, utils.MakeLockKey(id))
		if err != nil {
			return nil, err
		}
		if err := contractBase.PutAmount(ctx, utils.LockBucket, utils.MakeLockKey(id), new(big.Int)); err != nil {
			return nil, err
		}
		if err := govern.MoveShares(ctx, ctx.Self(), st.Proposer, locked); err != nil {
			return nil, err
		}
	}

	if err := ctx.EmitEvent("ProposalFinalized", &ProposalFinalized{ProposalId: id, Status: status}); err != nil {
		return nil, err
	}
	g.observe(status)
	g.ctx.XLog.Info("proposal finalized", "id", id, "status", status, "for", st.VotesFor.String(),
		"against", st.VotesAgainst.String(), "slash", st.VotesAgainstWithSlash.String())
	return contractBase.NewResponse(status)
}

// Execute runs the transactions of a succeeded proposal in order. The caller
// passes the whole proposal, found by its hash. The proposal is marked
// executed before any transaction runs, so a transaction cannot execute it
// again; a failing transaction fails the whole call.
func (g *Governor) Execute(ctx contractBase.KContext) (*contractBase.Response, error) {
	if err := permission.EnsureHasRole(ctx, base.Executor); err != nil {
		return nil, err
	}
	proposal := new(Proposal)
	if err := contractBase.ArgJSON(ctx, "proposal", proposal); err != nil {
		return nil, err
	}
	proposalHash, err := proposal.Hash()
	if err != nil {
		return nil, err
	}
	idBuf, err := ctx.Get(utils.ProposalHashBucket, utils.MakeIdByHashKey(proposalHash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProposalDoesntExist.WithDetail("hash %s", proposalHash)
	}
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(string(idBuf), 10, 64)
	if err != nil {
		return nil, err
	}
	st, err := loadState(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Status != StatusSucceeded {
		return nil, ErrWrongStatus.WithDetail("proposal %d is %s", id, st.Status)
	}
	if st.EarliestExecution != nil && ctx.Now() < *st.EarliestExecution {
		return nil, ErrTooEarlyToExecuteProposal.WithDetail("now %d, earliest %d", ctx.Now(), *st.EarliestExecution)
	}

	st.Status = StatusExecuted
	if err := saveState(ctx, id, st); err != nil {
		return nil, err
	}
	if err := addCounter(ctx, utils.ExecutedProposal, 1); err != nil {
		return nil, err
	}
	for i, tx := range proposal.Transactions {
		var value *big.Int
		if tx.TransferredValue != nil {
			value = tx.TransferredValue.Int()
		}
		if _, err := ctx.Call(tx.Callee, tx.Selector, tx.Args(), value); err != nil {
			g.ctx.XLog.Warn("proposal transaction reverted", "id", id, "index", i, "callee", tx.Callee,
				"selector", tx.Selector, "err", err)
			return nil, ErrUnderlyingTransactionReverted.WithDetail("transaction %d: %v", i, err)
		}
	}

	if err := ctx.EmitEvent("ProposalExecuted", &ProposalExecuted{ProposalId: id}); err != nil {
		return nil, err
	}
	g.observe(StatusExecuted)
	return contractBase.NewResponse(nil)
}

// ForceUnstake withdraws the whole stake of an account that ignored a
// proposal finalized after the flat period although it had stake before
// the finalization. Each proposal unstakes an account at most once and
// only in increasing id order.
func (g *Governor) ForceUnstake(ctx contractBase.KContext) (*contractBase.Response, error) {
	account, err := contractBase.ArgString(ctx, "account")
	if err != nil {
		return nil, err
	}
	id, err := proposalIdArg(ctx)
	if err != nil {
		return nil, err
	}
	st, err := loadState(ctx, id)
	if err != nil {
		return nil, err
	}
	if !st.ForceUnstakePossible || st.Finalized == nil {
		return nil, ErrCantForceUnstake.WithDetail("proposal %d not finalized after flat period", id)
	}
	staked, ok, err := govern.LastStakeTimestamp(ctx, account)
	if err != nil {
		return nil, err
	}
	if !ok || staked >= *st.Finalized {
		return nil, ErrCantForceUnstake.WithDetail("%s staked after proposal %d", account, id)
	}
	voted, err := loadVote(ctx, id, account)
	if err != nil {
		return nil, err
	}
	if voted != nil {
		return nil, ErrCantForceUnstake.WithDetail("%s voted on %d", account, id)
	}
	last, err := ctx.Get(utils.ForceUnstakeBucket, []byte(account))
	if err == nil {
		lastId, err := strconv.ParseUint(string(last), 10, 64)
		if err != nil {
			return nil, err
		}
		if lastId >= id {
			return nil, ErrCantForceUnstake.WithDetail("%s already unstaked for %d", account, lastId)
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if err := ctx.Put(utils.ForceUnstakeBucket, []byte(account), []byte(strconv.FormatUint(id, 10))); err != nil {
		return nil, err
	}

	balance, err := govern.BalanceOf(ctx, account)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, ErrCantForceUnstake.WithDetail("%s has no stake", account)
	}
	vestId, err := govern.WithdrawTo(ctx, ctx.Self(), account, account, balance, true)
	if err != nil {
		return nil, err
	}
	g.ctx.XLog.Info("force unstake", "account", account, "proposal", id, "amount", balance.String())
	return contractBase.NewResponse(vestId)
}

func (g *Governor) ChangeVotingRules(ctx contractBase.KContext) (*contractBase.Response, error) {
	if err := permission.EnsureHasRole(ctx, base.ParametersAdmin); err != nil {
		return nil, err
	}
	rules := new(VotingRules)
	if err := contractBase.ArgJSON(ctx, "rules", rules); err != nil {
		return nil, err
	}
	period, err := govern.GetUnstakePeriod(ctx)
	if err != nil {
		return nil, err
	}
	if err := rules.Validate(period); err != nil {
		return nil, err
	}
	if err := contractBase.PutObject(ctx, utils.RulesBucket, []byte(utils.RulesKey), rules); err != nil {
		return nil, err
	}
	if err := ctx.EmitEvent("VotingRulesChanged", &VotingRulesChanged{Rules: rules}); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (g *Governor) ChangeUnstakePeriod(ctx contractBase.KContext) (*contractBase.Response, error) {
	if err := permission.EnsureHasRole(ctx, base.ParametersAdmin); err != nil {
		return nil, err
	}
	period, err := contractBase.ArgInt64(ctx, "unstakePeriod")
	if err != nil {
		return nil, err
	}
	rules, err := loadRules(ctx)
	if err != nil {
		return nil, err
	}
	if err := rules.Validate(period); err != nil {
		return nil, err
	}
	if err := govern.SetUnstakePeriod(ctx, period); err != nil {
		return nil, err
	}
	if err := ctx.EmitEvent("UnstakePeriodChanged", &UnstakePeriodChanged{UnstakePeriod: period}); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}
