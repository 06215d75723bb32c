package propose

import (
	"encoding/json"
	"fmt"
	"strings"

	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/proposal/utils"
)

type ProposalStatus string

const (
	StatusActive            ProposalStatus = "Active"
	StatusSucceeded         ProposalStatus = "Succeeded"
	StatusDefeated          ProposalStatus = "Defeated"
	StatusDefeatedWithSlash ProposalStatus = "DefeatedWithSlash"
	StatusExecuted          ProposalStatus = "Executed"
)

type Vote string

const (
	VoteAgreed                        Vote = "Agreed"
	VoteDisagreed                     Vote = "Disagreed"
	VoteDisagreedWithProposerSlashing Vote = "DisagreedWithProposerSlashing"
)

// ParseVote accepts the vote names in any case.
func ParseVote(s string) (Vote, error) {
	for _, v := range []Vote{VoteAgreed, VoteDisagreed, VoteDisagreedWithProposerSlashing} {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", contractBase.ErrInvalidArgs.WithDetail("unknown vote %q", s)
}

var (
	ErrInsuficientVotes               = contractBase.NewError(contractBase.KindPrecondition, "InsuficientVotes")
	ErrProposalAlreadyExists          = contractBase.NewError(contractBase.KindPrecondition, "ProposalAlreadyExists")
	ErrProposalDoesntExist            = contractBase.NewError(contractBase.KindNotFound, "ProposalDoesntExist")
	ErrWrongStatus                    = contractBase.NewError(contractBase.KindPrecondition, "WrongStatus")
	ErrFinalizeCondition              = contractBase.NewError(contractBase.KindPrecondition, "FinalizeCondition")
	ErrUnderlyingTransactionReverted  = contractBase.NewError(contractBase.KindNestedCall, "UnderlyingTransactionReverted")
	ErrWrongDescriptionHash           = contractBase.NewError(contractBase.KindPrecondition, "WrongDescriptionHash")
	ErrTooEarlyToExecuteProposal      = contractBase.NewError(contractBase.KindPrecondition, "TooEarlyToExecuteProposal")
	ErrAlreadyVoted                   = contractBase.NewError(contractBase.KindPrecondition, "AlreadyVoted")
	ErrCantForceUnstake               = contractBase.NewError(contractBase.KindPrecondition, "CantForceUnstake")
	ErrUnstakeShorterThanVotingPeriod = contractBase.NewError(contractBase.KindPrecondition, "UnstakeShorterThanVotingPeriod")
)

// VotingRules are parts in thousandths of the vote supply and window lengths
// in milliseconds.
type VotingRules struct {
	// minimal part of the supply needed to finalize during the flat period
	MinimumStakePartE3 uint16 `json:"minimumStakePartE3"`
	// part of the supply a proposer must hold, and deposits, to propose
	ProposerDepositPartE3 uint16 `json:"proposerDepositPartE3"`
	InitialPeriod         int64  `json:"initialPeriod"`
	FlatPeriod            int64  `json:"flatPeriod"`
	FinalPeriod           int64  `json:"finalPeriod"`
}

// Validate checks rules against the unstake period. Voting must end before
// a stake withdrawn at proposal start unlocks.
func (r *VotingRules) Validate(unstakePeriod int64) error {
	if r.MinimumStakePartE3 > 1000 || r.ProposerDepositPartE3 > 1000 {
		return contractBase.ErrInvalidArgs.WithDetail("part above 1000")
	}
	if r.InitialPeriod < 0 || r.FlatPeriod < 0 || r.FinalPeriod < 0 {
		return contractBase.ErrInvalidArgs.WithDetail("negative voting period")
	}
	if r.InitialPeriod+r.FlatPeriod+r.FinalPeriod > unstakePeriod {
		return ErrUnstakeShorterThanVotingPeriod.WithDetail("voting lasts %d, unstake period %d",
			r.InitialPeriod+r.FlatPeriod+r.FinalPeriod, unstakePeriod)
	}
	return nil
}

// Transaction is one nested call run by execute on behalf of the governor.
type Transaction struct {
	Callee           string               `json:"callee"`
	Selector         string               `json:"selector"`
	Input            map[string]string    `json:"input,omitempty"`
	TransferredValue *contractBase.Amount `json:"transferredValue,omitempty"`
}

func (tx *Transaction) Args() map[string][]byte {
	args := make(map[string][]byte, len(tx.Input))
	for k, v := range tx.Input {
		args[k] = []byte(v)
	}
	return args
}

type Proposal struct {
	DescriptionHash   string         `json:"descriptionHash"`
	Transactions      []*Transaction `json:"transactions"`
	EarliestExecution *int64         `json:"earliestExecution,omitempty"`
	DescriptionUrl    string         `json:"descriptionUrl,omitempty"`
}

// Hash identifies a proposal by the sha256 of its JSON encoding.
func (p *Proposal) Hash() (string, error) {
	buf, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal proposal failed.err:%v", err)
	}
	return utils.HashHex(buf), nil
}

func HashDescription(description string) string {
	return utils.HashHex([]byte(description))
}

type ProposalState struct {
	Status ProposalStatus `json:"status"`
	// set when finalized after the flat period
	ForceUnstakePossible  bool                 `json:"forceUnstakePossible"`
	Proposer              string               `json:"proposer"`
	Start                 int64                `json:"start"`
	VotesAtStart          *contractBase.Amount `json:"votesAtStart"`
	CounterAtStart        *contractBase.Amount `json:"counterAtStart"`
	Finalized             *int64               `json:"finalized,omitempty"`
	VotesFor              *contractBase.Amount `json:"votesFor"`
	VotesAgainst          *contractBase.Amount `json:"votesAgainst"`
	VotesAgainstWithSlash *contractBase.Amount `json:"votesAgainstWithSlash"`
	EarliestExecution     *int64               `json:"earliestExecution,omitempty"`
}

type UserVote struct {
	Vote   Vote                 `json:"vote"`
	Amount *contractBase.Amount `json:"amount"`
}

type ProposalDescription struct {
	DescriptionUrl  string `json:"descriptionUrl"`
	DescriptionHash string `json:"descriptionHash"`
}

type ProposalCreated struct {
	ProposalId   uint64    `json:"proposalId"`
	ProposalHash string    `json:"proposalHash"`
	Proposal     *Proposal `json:"proposal"`
}

type VoteCasted struct {
	Account    string `json:"account"`
	ProposalId uint64 `json:"proposalId"`
	Vote       Vote   `json:"vote"`
	Reason     string `json:"reason,omitempty"`
}

type ProposalFinalized struct {
	ProposalId uint64         `json:"proposalId"`
	Status     ProposalStatus `json:"status"`
}

type ProposalExecuted struct {
	ProposalId uint64 `json:"proposalId"`
}

type VotingRulesChanged struct {
	Rules *VotingRules `json:"rules"`
}

type UnstakePeriodChanged struct {
	UnstakePeriod int64 `json:"unstakePeriod"`
}
