package propose

import (
	"math/big"

	contractBase "github.com/wooyang2018/govchain/contract/base"
)

var (
	big2    = big.NewInt(2)
	big1000 = big.NewInt(1000)
)

// TotalVotes is the denominator of a proposal: the supply at its start plus
// everything deposited since. Withdrawals after the start do not lower it.
func TotalVotes(st *ProposalState, counter *big.Int) *big.Int {
	total := new(big.Int).Sub(counter, st.CounterAtStart.Int())
	return total.Add(total, st.VotesAtStart.Int())
}

// MinimumToFinalize returns the votes one side needs to finalize at now.
// During the initial period only a strict majority of the total finalizes
// and early is true. The flat period asks for the minimum stake part, which
// then decays linearly to zero over the final period.
func MinimumToFinalize(st *ProposalState, rules *VotingRules, now int64, counter *big.Int) (minimum *big.Int, early bool) {
	total := TotalVotes(st, counter)
	endInitial := st.Start + rules.InitialPeriod
	endFlat := endInitial + rules.FlatPeriod
	endFinal := endFlat + rules.FinalPeriod

	flat := contractBase.MulDivDown(total, big.NewInt(int64(rules.MinimumStakePartE3)), big1000)
	switch {
	case now <= endInitial:
		half := new(big.Int).Quo(total, big2)
		return half.Add(half, big.NewInt(1)), true
	case now <= endFlat:
		return flat, false
	case now <= endFinal:
		return contractBase.MulDivDown(flat, big.NewInt(endFinal-now), big.NewInt(rules.FinalPeriod)), false
	default:
		return new(big.Int), false
	}
}

func defeat(st *ProposalState) ProposalStatus {
	slash := st.VotesAgainstWithSlash.Int()
	if slash.Sign() > 0 && slash.Cmp(st.VotesAgainst.Int()) >= 0 {
		return StatusDefeatedWithSlash
	}
	return StatusDefeated
}

// Decide returns the outcome of finalizing st at now, or FinalizeCondition
// when neither side may finalize yet.
func Decide(st *ProposalState, rules *VotingRules, now int64, counter *big.Int) (ProposalStatus, error) {
	total := TotalVotes(st, counter)
	agreed := st.VotesFor.Int()
	against := new(big.Int).Add(st.VotesAgainst.Int(), st.VotesAgainstWithSlash.Int())

	if new(big.Int).Mul(agreed, big2).Cmp(total) > 0 {
		return StatusSucceeded, nil
	}
	if new(big.Int).Mul(against, big2).Cmp(total) > 0 {
		return defeat(st), nil
	}

	minimum, early := MinimumToFinalize(st, rules, now, counter)
	if early || (agreed.Cmp(minimum) < 0 && against.Cmp(minimum) < 0) {
		return "", ErrFinalizeCondition.WithDetail("for %s against %s, need %s of %s", agreed, against, minimum, total)
	}
	// a tie goes to the proposal unless nobody voted at all
	if agreed.Sign() == 0 && against.Sign() == 0 {
		return StatusDefeated, nil
	}
	if against.Cmp(agreed) > 0 {
		return defeat(st), nil
	}
	return StatusSucceeded, nil
}
