package propose_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/mock"
	"github.com/wooyang2018/govchain/contract/proposal/propose"
	"github.com/wooyang2018/govchain/contract/psp22"
	"github.com/wooyang2018/govchain/contract/vester"
	"github.com/wooyang2018/govchain/engine"
	"github.com/wooyang2018/govchain/permission"
)

const (
	day     int64 = 86_400_000
	unstake       = 180 * day
)

var (
	stakers = []string{"s0", "s1", "s2", "s3", "s4", "s5"}
	weights = []int64{100, 100, 10, 10, 1, 1}
	rules   = &propose.VotingRules{
		MinimumStakePartE3:    10,
		ProposerDepositPartE3: 100,
		InitialPeriod:         3 * day,
		FlatPeriod:            10 * day,
		FinalPeriod:           4 * day,
	}
)

func setup(t *testing.T) *mock.TestHelper {
	th := mock.NewTestHelper(nil)
	t.Cleanup(th.Close)
	require.NoError(t, th.Deploy("abax", psp22.NewToken(), "admin", contractBase.NewArgs().Str("name", "Abax")))
	vctx, err := vester.NewVesterCtx(mock.ChainName, false)
	require.NoError(t, err)
	require.NoError(t, th.Deploy("vester", vester.NewVester(vctx), "admin", nil))
	pctx, err := propose.NewProposeCtx(mock.ChainName, false)
	require.NoError(t, err)
	gov, err := propose.NewGovernor(pctx)
	require.NoError(t, err)
	require.NoError(t, th.Deploy("governor", gov, "admin", contractBase.NewArgs().
		Str("asset", "abax").Str("vester", "vester").Int("unstakePeriod", unstake).
		Str("name", "Vote Abax").Str("symbol", "vABAX").JSON("rules", rules).
		Str("executor", "foundation").Str("parametersAdmin", "foundation")))

	for i, who := range stakers {
		w := big.NewInt(weights[i])
		_, err = th.Invoke("admin", "abax", "mint", contractBase.NewArgs().Str("to", who).Amount("amount", w))
		require.NoError(t, err)
		_, err = th.Invoke(who, "abax", "approve", contractBase.NewArgs().Str("spender", "governor").Amount("amount", w))
		require.NoError(t, err)
		_, err = th.Invoke(who, "governor", "deposit", contractBase.NewArgs().Amount("amount", w))
		require.NoError(t, err)
	}
	th.Advance(1)
	return th
}

func newProposal(description string, txs ...*propose.Transaction) *propose.Proposal {
	return &propose.Proposal{
		DescriptionHash: propose.HashDescription(description),
		Transactions:    txs,
	}
}

func submit(th *mock.TestHelper, who string, p *propose.Proposal, description string) (uint64, error) {
	resp, err := th.Invoke(who, "governor", "propose",
		contractBase.NewArgs().JSON("proposal", p).Str("description", description))
	if err != nil {
		return 0, err
	}
	var id uint64
	return id, resp.Decode(&id)
}

func vote(th *mock.TestHelper, who string, id uint64, v propose.Vote) error {
	_, err := th.Invoke(who, "governor", "vote",
		contractBase.NewArgs().Uint("proposalId", id).Str("vote", string(v)))
	return err
}

func finalize(th *mock.TestHelper, id uint64) (propose.ProposalStatus, error) {
	resp, err := th.Invoke("anyone", "governor", "finalize", contractBase.NewArgs().Uint("proposalId", id))
	if err != nil {
		return "", err
	}
	var status propose.ProposalStatus
	return status, resp.Decode(&status)
}

func execute(th *mock.TestHelper, who string, p *propose.Proposal) error {
	_, err := th.Invoke(who, "governor", "execute", contractBase.NewArgs().JSON("proposal", p))
	return err
}

func stateOf(t *testing.T, th *mock.TestHelper, id uint64) *propose.ProposalState {
	var st *propose.ProposalState
	require.NoError(t, th.Query("governor", "state", contractBase.NewArgs().Uint("proposalId", id), &st))
	return st
}

func shares(th *mock.TestHelper, owner string) int64 {
	return th.Amount("governor", "balanceOf", contractBase.NewArgs().Str("owner", owner)).Int64()
}

func TestScenarioA(t *testing.T) {
	th := setup(t)
	p := newProposal("raise the cap")

	_, err := submit(th, "s4", p, "raise the cap")
	assert.ErrorIs(t, err, propose.ErrInsuficientVotes)
	_, err = submit(th, "s2", p, "raise the cap")
	assert.ErrorIs(t, err, propose.ErrInsuficientVotes)
	_, err = submit(th, "s0", p, "another text")
	assert.ErrorIs(t, err, propose.ErrWrongDescriptionHash)

	id, err := submit(th, "s0", p, "raise the cap")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
	assert.Contains(t, th.EventNames(), "ProposalCreated")

	// 押金 222 * 10% 向下取整
	assert.Equal(t, int64(22), th.Amount("governor", "lockedOf", contractBase.NewArgs().Uint("proposalId", id)).Int64())
	assert.Equal(t, int64(78), shares(th, "s0"))
	assert.Equal(t, int64(22), shares(th, "governor"))
	assert.Equal(t, int64(222), th.Amount("governor", "totalSupply", nil).Int64())

	st := stateOf(t, th, id)
	require.NotNil(t, st)
	assert.Equal(t, propose.StatusActive, st.Status)
	assert.Equal(t, "s0", st.Proposer)
	assert.Equal(t, int64(222), st.VotesAtStart.Int().Int64())

	var next, active uint64
	require.NoError(t, th.Query("governor", "nextProposalId", nil, &next))
	require.NoError(t, th.Query("governor", "activeProposals", nil, &active))
	assert.Equal(t, uint64(1), next)
	assert.Equal(t, uint64(1), active)

	// 同一描述不能再次提案
	p2 := newProposal("raise the cap", &propose.Transaction{Callee: "abax", Selector: "tokenName"})
	_, err = submit(th, "s1", p2, "raise the cap")
	assert.ErrorIs(t, err, propose.ErrProposalAlreadyExists)
}

func stake(t *testing.T, th *mock.TestHelper, who string, amount int64) {
	w := big.NewInt(amount)
	_, err := th.Invoke("admin", "abax", "mint", contractBase.NewArgs().Str("to", who).Amount("amount", w))
	require.NoError(t, err)
	_, err = th.Invoke(who, "abax", "approve", contractBase.NewArgs().Str("spender", "governor").Amount("amount", w))
	require.NoError(t, err)
	_, err = th.Invoke(who, "governor", "deposit", contractBase.NewArgs().Amount("amount", w))
	require.NoError(t, err)
}

func TestProposeThresholdIsExact(t *testing.T) {
	th := setup(t)
	// 24 of 246 is below the exact 24.6 even though the floor is 24
	stake(t, th, "s6", 24)
	_, err := submit(th, "s6", newProposal("edge"), "edge")
	assert.ErrorIs(t, err, propose.ErrInsuficientVotes)

	// 25 of 247 reaches 24.7, the locked deposit is floor(24.7)
	stake(t, th, "s6", 1)
	id, err := submit(th, "s6", newProposal("edge"), "edge")
	require.NoError(t, err)
	assert.Equal(t, int64(24), th.Amount("governor", "lockedOf", contractBase.NewArgs().Uint("proposalId", id)).Int64())
	assert.Equal(t, int64(1), shares(th, "s6"))
}

func TestScenarioB(t *testing.T) {
	th := setup(t)
	id, err := submit(th, "s0", newProposal("all agree"), "all agree")
	require.NoError(t, err)
	for _, who := range stakers {
		require.NoError(t, vote(th, who, id, propose.VoteAgreed))
	}
	st := stateOf(t, th, id)
	assert.Equal(t, int64(222), st.VotesFor.Int().Int64())

	status, err := finalize(th, id)
	require.NoError(t, err)
	assert.Equal(t, propose.StatusSucceeded, status)
	assert.Equal(t, int64(100), shares(th, "s0"))
	assert.Equal(t, int64(0), shares(th, "governor"))

	st = stateOf(t, th, id)
	assert.False(t, st.ForceUnstakePossible)
	require.NotNil(t, st.Finalized)
	assert.Equal(t, th.Now(), *st.Finalized)

	_, err = finalize(th, id)
	assert.ErrorIs(t, err, propose.ErrWrongStatus)
	assert.ErrorIs(t, vote(th, "s1", id, propose.VoteDisagreed), propose.ErrWrongStatus)
}

func TestScenarioC(t *testing.T) {
	th := setup(t)
	start := th.Now()
	id, err := submit(th, "s0", newProposal("quiet one"), "quiet one")
	require.NoError(t, err)
	require.NoError(t, vote(th, "s4", id, propose.VoteAgreed))

	th.SetTime(start + rules.InitialPeriod)
	_, err = finalize(th, id)
	assert.ErrorIs(t, err, propose.ErrFinalizeCondition)

	th.SetTime(start + rules.InitialPeriod + rules.FlatPeriod)
	var view propose.MinimumView
	require.NoError(t, th.Query("governor", "minimumToFinalize", contractBase.NewArgs().Uint("proposalId", id), &view))
	assert.Equal(t, int64(2), view.Minimum.Int().Int64())
	assert.False(t, view.Early)
	_, err = finalize(th, id)
	assert.ErrorIs(t, err, propose.ErrFinalizeCondition)

	th.SetTime(start + rules.InitialPeriod + rules.FlatPeriod + rules.FinalPeriod)
	status, err := finalize(th, id)
	require.NoError(t, err)
	assert.Equal(t, propose.StatusSucceeded, status)
	assert.True(t, stateOf(t, th, id).ForceUnstakePossible)
}

func TestTieAfterVotingWindow(t *testing.T) {
	th := setup(t)
	start := th.Now()
	id, err := submit(th, "s0", newProposal("split"), "split")
	require.NoError(t, err)
	require.NoError(t, vote(th, "s2", id, propose.VoteAgreed))
	require.NoError(t, vote(th, "s3", id, propose.VoteDisagreed))

	th.SetTime(start + rules.InitialPeriod + rules.FlatPeriod + rules.FinalPeriod + 1)
	status, err := finalize(th, id)
	require.NoError(t, err)
	assert.Equal(t, propose.StatusSucceeded, status)
	assert.Equal(t, int64(100), shares(th, "s0"))
}

func TestAlreadyVoted(t *testing.T) {
	th := setup(t)
	id, err := submit(th, "s0", newProposal("twice"), "twice")
	require.NoError(t, err)
	require.NoError(t, vote(th, "s2", id, propose.VoteAgreed))
	assert.ErrorIs(t, vote(th, "s2", id, propose.VoteDisagreed), propose.ErrAlreadyVoted)
	assert.ErrorIs(t, vote(th, "nobody", id, propose.VoteAgreed), propose.ErrInsuficientVotes)
	assert.ErrorIs(t, vote(th, "s2", 7, propose.VoteAgreed), propose.ErrProposalDoesntExist)

	var uv *propose.UserVote
	require.NoError(t, th.Query("governor", "voteOf", contractBase.NewArgs().Uint("proposalId", id).Str("account", "s2"), &uv))
	require.NotNil(t, uv)
	assert.Equal(t, propose.VoteAgreed, uv.Vote)
	assert.Equal(t, int64(10), uv.Amount.Int().Int64())

	// 提案人以押金加余额投票
	require.NoError(t, vote(th, "s0", id, propose.VoteAgreed))
	assert.Equal(t, int64(110), stateOf(t, th, id).VotesFor.Int().Int64())

	var status *propose.ProposalStatus
	require.NoError(t, th.Query("governor", "status", contractBase.NewArgs().Uint("proposalId", 7), &status))
	assert.Nil(t, status)
}

func TestSlashing(t *testing.T) {
	th := setup(t)
	id, err := submit(th, "s0", newProposal("bad idea"), "bad idea")
	require.NoError(t, err)
	require.NoError(t, vote(th, "s1", id, propose.VoteDisagreedWithProposerSlashing))
	require.NoError(t, vote(th, "s2", id, propose.VoteDisagreedWithProposerSlashing))
	require.NoError(t, vote(th, "s3", id, propose.VoteDisagreed))

	status, err := finalize(th, id)
	require.NoError(t, err)
	assert.Equal(t, propose.StatusDefeatedWithSlash, status)
	assert.Equal(t, int64(78), shares(th, "s0"))
	assert.Equal(t, int64(22), shares(th, "governor"))
	assert.Equal(t, int64(22), th.Amount("governor", "lockedOf", contractBase.NewArgs().Uint("proposalId", id)).Int64())

	id, err = submit(th, "s1", newProposal("plain no"), "plain no")
	require.NoError(t, err)
	require.NoError(t, vote(th, "s0", id, propose.VoteDisagreed))
	require.NoError(t, vote(th, "s2", id, propose.VoteDisagreed))
	require.NoError(t, vote(th, "s3", id, propose.VoteDisagreedWithProposerSlashing))
	_, err = finalize(th, id)
	assert.ErrorIs(t, err, propose.ErrFinalizeCondition)
	th.Advance(rules.InitialPeriod + 1)
	status, err = finalize(th, id)
	require.NoError(t, err)
	assert.Equal(t, propose.StatusDefeated, status)
	assert.Equal(t, int64(100), shares(th, "s1"))
}

func TestExecute(t *testing.T) {
	th := setup(t)
	earliest := th.Now() + day
	p := newProposal("new admin", &propose.Transaction{
		Callee:   "governor",
		Selector: "grantRole",
		Input:    map[string]string{"role": "PARAMETERS_ADMIN", "account": "carol"},
	})
	p.EarliestExecution = &earliest
	id, err := submit(th, "s0", p, "new admin")
	require.NoError(t, err)

	assert.ErrorIs(t, execute(th, "foundation", p), propose.ErrWrongStatus)
	for _, who := range stakers[:2] {
		require.NoError(t, vote(th, who, id, propose.VoteAgreed))
	}
	_, err = finalize(th, id)
	require.NoError(t, err)

	assert.ErrorIs(t, execute(th, "s0", p), permission.ErrMissingRole)
	assert.ErrorIs(t, execute(th, "foundation", p), propose.ErrTooEarlyToExecuteProposal)
	assert.ErrorIs(t, execute(th, "foundation", newProposal("unknown")), propose.ErrProposalDoesntExist)

	th.SetTime(earliest)
	require.NoError(t, execute(th, "foundation", p))
	assert.Equal(t, propose.StatusExecuted, stateOf(t, th, id).Status)
	assert.Contains(t, th.EventNames(), "ProposalExecuted")

	var ok bool
	require.NoError(t, th.Query("governor", "hasRole",
		contractBase.NewArgs().Str("role", "PARAMETERS_ADMIN").Str("account", "carol"), &ok))
	assert.True(t, ok)
	assert.ErrorIs(t, execute(th, "foundation", p), propose.ErrWrongStatus)

	var executed uint64
	require.NoError(t, th.Query("governor", "executedProposals", nil, &executed))
	assert.Equal(t, uint64(1), executed)
}

func TestExecuteRevert(t *testing.T) {
	th := setup(t)
	p := newProposal("broken",
		&propose.Transaction{
			Callee:   "governor",
			Selector: "grantRole",
			Input:    map[string]string{"role": "PARAMETERS_ADMIN", "account": "carol"},
		},
		&propose.Transaction{Callee: "abax", Selector: "noSuchMethod"},
	)
	id, err := submit(th, "s0", p, "broken")
	require.NoError(t, err)
	for _, who := range stakers[:2] {
		require.NoError(t, vote(th, who, id, propose.VoteAgreed))
	}
	_, err = finalize(th, id)
	require.NoError(t, err)

	err = execute(th, "foundation", p)
	assert.ErrorIs(t, err, propose.ErrUnderlyingTransactionReverted)
	assert.Equal(t, propose.StatusSucceeded, stateOf(t, th, id).Status)

	var ok bool
	require.NoError(t, th.Query("governor", "hasRole",
		contractBase.NewArgs().Str("role", "PARAMETERS_ADMIN").Str("account", "carol"), &ok))
	assert.False(t, ok)
}

// A proposal cannot withdraw somebody else's stake through the governor.
func TestExecuteWithdrawForOtherOwner(t *testing.T) {
	th := setup(t)
	p := newProposal("take s2 stake", &propose.Transaction{
		Callee:   "governor",
		Selector: "withdraw",
		Input:    map[string]string{"amount": "10", "owner": "s2", "receiver": "thief"},
	})
	id, err := submit(th, "s0", p, "take s2 stake")
	require.NoError(t, err)
	for _, who := range stakers[:2] {
		require.NoError(t, vote(th, who, id, propose.VoteAgreed))
	}
	status, err := finalize(th, id)
	require.NoError(t, err)
	require.Equal(t, propose.StatusSucceeded, status)

	err = execute(th, "foundation", p)
	assert.ErrorIs(t, err, propose.ErrUnderlyingTransactionReverted)
	assert.Contains(t, err.Error(), "InsufficientAllowance")
	assert.Equal(t, int64(10), shares(th, "s2"))
	assert.Equal(t, propose.StatusSucceeded, stateOf(t, th, id).Status)

	var next uint64
	require.NoError(t, th.Query("vester", "nextIdVestOf",
		contractBase.NewArgs().Str("receiver", "thief").Str("asset", "abax"), &next))
	assert.Equal(t, uint64(0), next)
}

func TestForceUnstake(t *testing.T) {
	th := setup(t)
	start := th.Now()
	id, err := submit(th, "s0", newProposal("ignored"), "ignored")
	require.NoError(t, err)
	require.NoError(t, vote(th, "s4", id, propose.VoteAgreed))

	forceUnstake := func(account string) error {
		_, err := th.Invoke("anyone", "governor", "forceUnstake",
			contractBase.NewArgs().Str("account", account).Uint("proposalId", id))
		return err
	}

	th.SetTime(start + rules.InitialPeriod + rules.FlatPeriod + rules.FinalPeriod)
	// 新质押者在提案结束后入场
	_, err = th.Invoke("admin", "abax", "mint", contractBase.NewArgs().Str("to", "late").Amount("amount", big.NewInt(5)))
	require.NoError(t, err)
	_, err = th.Invoke("late", "abax", "approve", contractBase.NewArgs().Str("spender", "governor").Amount("amount", big.NewInt(5)))
	require.NoError(t, err)
	_, err = th.Invoke("late", "governor", "deposit", contractBase.NewArgs().Amount("amount", big.NewInt(5)))
	require.NoError(t, err)

	assert.ErrorIs(t, forceUnstake("s1"), propose.ErrCantForceUnstake)
	_, err = finalize(th, id)
	require.NoError(t, err)

	require.NoError(t, forceUnstake("s1"))
	assert.Equal(t, int64(0), shares(th, "s1"))
	assert.Contains(t, th.EventNames(), "Withdraw")
	var data *vester.VestingData
	require.NoError(t, th.Query("vester", "vestingScheduleOf",
		contractBase.NewArgs().Str("receiver", "s1").Str("asset", "abax").Uint("id", 0), &data))
	require.NotNil(t, data)
	assert.Equal(t, int64(100), data.Amount.Int().Int64())

	var last *uint64
	require.NoError(t, th.Query("governor", "lastForceUnstake", contractBase.NewArgs().Str("account", "s1"), &last))
	require.NotNil(t, last)
	assert.Equal(t, id, *last)

	assert.ErrorIs(t, forceUnstake("s1"), propose.ErrCantForceUnstake)
	assert.ErrorIs(t, forceUnstake("s4"), propose.ErrCantForceUnstake)
	assert.ErrorIs(t, forceUnstake("late"), propose.ErrCantForceUnstake)
	assert.ErrorIs(t, forceUnstake("nobody"), propose.ErrCantForceUnstake)
	require.NoError(t, forceUnstake("s0"))
}

func TestForceUnstakeNeedsLateFinalize(t *testing.T) {
	th := setup(t)
	id, err := submit(th, "s0", newProposal("fast"), "fast")
	require.NoError(t, err)
	for _, who := range stakers[:2] {
		require.NoError(t, vote(th, who, id, propose.VoteAgreed))
	}
	_, err = finalize(th, id)
	require.NoError(t, err)
	_, err = th.Invoke("anyone", "governor", "forceUnstake",
		contractBase.NewArgs().Str("account", "s3").Uint("proposalId", id))
	assert.ErrorIs(t, err, propose.ErrCantForceUnstake)
}

func TestChangeParameters(t *testing.T) {
	th := setup(t)
	next := *rules
	next.FlatPeriod = 20 * day

	_, err := th.Invoke("s0", "governor", "changeVotingRules", contractBase.NewArgs().JSON("rules", &next))
	assert.ErrorIs(t, err, permission.ErrMissingRole)
	_, err = th.Invoke("foundation", "governor", "changeVotingRules", contractBase.NewArgs().JSON("rules", &next))
	require.NoError(t, err)
	assert.Equal(t, []string{"VotingRulesChanged"}, th.EventNames())

	var got propose.VotingRules
	require.NoError(t, th.Query("governor", "rules", nil, &got))
	assert.Equal(t, next, got)

	_, err = th.Invoke("foundation", "governor", "changeUnstakePeriod", contractBase.NewArgs().Int("unstakePeriod", 10*day))
	assert.ErrorIs(t, err, propose.ErrUnstakeShorterThanVotingPeriod)
	_, err = th.Invoke("foundation", "governor", "changeUnstakePeriod", contractBase.NewArgs().Int("unstakePeriod", 30*day))
	require.NoError(t, err)

	next.FinalPeriod = 30 * day
	_, err = th.Invoke("foundation", "governor", "changeVotingRules", contractBase.NewArgs().JSON("rules", &next))
	assert.ErrorIs(t, err, propose.ErrUnstakeShorterThanVotingPeriod)

	var period int64
	require.NoError(t, th.Query("governor", "unstakePeriod", nil, &period))
	assert.Equal(t, 30*day, period)
}

func TestProposeManager(t *testing.T) {
	th := setup(t)
	_, err := submit(th, "s0", newProposal("first"), "first")
	require.NoError(t, err)
	id, err := submit(th, "s1", newProposal("second"), "second")
	require.NoError(t, err)
	for _, who := range stakers[:2] {
		require.NoError(t, vote(th, who, id, propose.VoteAgreed))
	}
	_, err = finalize(th, id)
	require.NoError(t, err)

	mgr, err := propose.NewProposeManager("governor", propose.QueryFunc(
		func(contract, method string, args map[string][]byte) (*contractBase.Response, error) {
			return th.Chain().Query(&engine.Transaction{Contract: contract, Method: method, Args: args})
		}))
	require.NoError(t, err)

	views, err := mgr.ListProposals()
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, propose.StatusActive, views[0].State.Status)
	assert.NotNil(t, views[0].Minimum)
	assert.Equal(t, propose.StatusSucceeded, views[1].State.Status)
	assert.Nil(t, views[1].Minimum)
	assert.Equal(t, propose.HashDescription("second"), views[1].Description.DescriptionHash)
	assert.Len(t, views[1].Hash, 64)

	missing, err := mgr.GetProposalByID(9)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
