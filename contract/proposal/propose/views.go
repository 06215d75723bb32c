package propose

import (
	"errors"
	"strconv"

	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/proposal/govern"
	"github.com/wooyang2018/govchain/contract/proposal/utils"
	"github.com/wooyang2018/govchain/storage"
)

// MinimumView is the answer of minimumToFinalize.
type MinimumView struct {
	Minimum *contractBase.Amount `json:"minimum"`
	Total   *contractBase.Amount `json:"total"`
	// Early is set while only a strict majority of total finalizes
	Early bool `json:"early"`
}

func (g *Governor) Rules(ctx contractBase.KContext) (*contractBase.Response, error) {
	rules, err := loadRules(ctx)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(rules)
}

// optionalState returns nil for unknown proposals.
func optionalState(ctx contractBase.KContext) (*ProposalState, error) {
	id, err := proposalIdArg(ctx)
	if err != nil {
		return nil, err
	}
	st, err := loadState(ctx, id)
	if errors.Is(err, ErrProposalDoesntExist) {
		return nil, nil
	}
	return st, err
}

func (g *Governor) State(ctx contractBase.KContext) (*contractBase.Response, error) {
	st, err := optionalState(ctx)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(st)
}

func (g *Governor) Status(ctx contractBase.KContext) (*contractBase.Response, error) {
	st, err := optionalState(ctx)
	if err != nil {
		return nil, err
	}
	var status *ProposalStatus
	if st != nil {
		status = &st.Status
	}
	return contractBase.NewResponse(status)
}

func (g *Governor) VoteOf(ctx contractBase.KContext) (*contractBase.Response, error) {
	id, err := proposalIdArg(ctx)
	if err != nil {
		return nil, err
	}
	account, err := contractBase.ArgString(ctx, "account")
	if err != nil {
		return nil, err
	}
	v, err := loadVote(ctx, id, account)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(v)
}

func (g *Governor) MinimumToFinalize(ctx contractBase.KContext) (*contractBase.Response, error) {
	id, err := proposalIdArg(ctx)
	if err != nil {
		return nil, err
	}
	st, err := loadState(ctx, id)
	if err != nil {
		return nil, err
	}
	rules, err := loadRules(ctx)
	if err != nil {
		return nil, err
	}
	counter, err := govern.Counter(ctx)
	if err != nil {
		return nil, err
	}
	minimum, early := MinimumToFinalize(st, rules, ctx.Now(), counter)
	return contractBase.NewResponse(&MinimumView{
		Minimum: contractBase.NewAmount(minimum),
		Total:   contractBase.NewAmount(TotalVotes(st, counter)),
		Early:   early,
	})
}

func (g *Governor) HashProposal(ctx contractBase.KContext) (*contractBase.Response, error) {
	proposal := new(Proposal)
	if err := contractBase.ArgJSON(ctx, "proposal", proposal); err != nil {
		return nil, err
	}
	h, err := proposal.Hash()
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(h)
}

func (g *Governor) HashDescription(ctx contractBase.KContext) (*contractBase.Response, error) {
	return contractBase.NewResponse(HashDescription(contractBase.ArgOptString(ctx, "description")))
}

func (g *Governor) HashById(ctx contractBase.KContext) (*contractBase.Response, error) {
	id, err := proposalIdArg(ctx)
	if err != nil {
		return nil, err
	}
	var h *string
	buf, err := ctx.Get(utils.ProposalHashBucket, utils.MakeHashByIdKey(id))
	switch {
	case err == nil:
		s := string(buf)
		h = &s
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}
	return contractBase.NewResponse(h)
}

func (g *Governor) DescriptionById(ctx contractBase.KContext) (*contractBase.Response, error) {
	id, err := proposalIdArg(ctx)
	if err != nil {
		return nil, err
	}
	desc := new(ProposalDescription)
	found, err := contractBase.GetObject(ctx, utils.ProposalBucket, utils.MakeProposalDescKey(id), desc)
	if err != nil {
		return nil, err
	}
	if !found {
		desc = nil
	}
	return contractBase.NewResponse(desc)
}

func (g *Governor) counterView(key string) contractBase.KernMethod {
	return func(ctx contractBase.KContext) (*contractBase.Response, error) {
		v, err := contractBase.GetUint64(ctx, utils.CounterBucket, []byte(key))
		if err != nil {
			return nil, err
		}
		return contractBase.NewResponse(v)
	}
}

// LockedOf is the proposer deposit still held for a proposal.
func (g *Governor) LockedOf(ctx contractBase.KContext) (*contractBase.Response, error) {
	id, err := proposalIdArg(ctx)
	if err != nil {
		return nil, err
	}
	locked, err := contractBase.GetAmount(ctx, utils.LockBucket, utils.MakeLockKey(id))
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(contractBase.NewAmount(locked))
}

func (g *Governor) LastForceUnstake(ctx contractBase.KContext) (*contractBase.Response, error) {
	account, err := contractBase.ArgString(ctx, "account")
	if err != nil {
		return nil, err
	}
	var id *uint64
	buf, err := ctx.Get(utils.ForceUnstakeBucket, []byte(account))
	switch {
	case err == nil:
		v, err := strconv.ParseUint(string(buf), 10, 64)
		if err != nil {
			return nil, err
		}
		id = &v
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}
	return contractBase.NewResponse(id)
}
