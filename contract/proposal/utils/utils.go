package utils

import (
	"encoding/hex"
	"fmt"

	"github.com/wooyang2018/govchain/crypto/core/hash"
)

const (
	// GovernTokenKernelContract 治理代币账本子模块
	GovernTokenKernelContract = "govern"
	// ProposalKernelContract 提案子模块
	ProposalKernelContract = "propose"
	// DefaultGovernorName 默认部署的治理合约名
	DefaultGovernorName = "governor"
)

// 治理代币账本的存储桶
const (
	LedgerBucket         = "ledger"
	SharesBucket         = "shares"
	ShareAllowanceBucket = "shareAllowance"
	LastStakeBucket      = "lastStake"
)

// 提案的存储桶
const (
	RulesBucket        = "rules"
	ProposalBucket     = "proposal"
	ProposalHashBucket = "proposalHash"
	VoteBucket         = "vote"
	LockBucket         = "lock"
	CounterBucket      = "counter"
	ForceUnstakeBucket = "forceUnstake"
)

const (
	RulesKey           = "rules"
	NextProposalKey    = "next"
	ActiveProposalKey  = "active"
	FinalizedProposal  = "finalized"
	ExecutedProposal   = "executed"
	proposalStateKey   = "state/"
	proposalDescKey    = "desc/"
	hashByIdKey        = "id/"
	idByHashKey        = "hash/"
	idByDescriptionKey = "description/"
)

// FormatId pads id so that keys of consecutive ids sort numerically.
func FormatId(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

func MakeProposalKey(id uint64) []byte {
	return []byte(proposalStateKey + FormatId(id))
}

func MakeProposalDescKey(id uint64) []byte {
	return []byte(proposalDescKey + FormatId(id))
}

func MakeHashByIdKey(id uint64) []byte {
	return []byte(hashByIdKey + FormatId(id))
}

func MakeIdByHashKey(proposalHash string) []byte {
	return []byte(idByHashKey + proposalHash)
}

func MakeIdByDescriptionKey(descriptionHash string) []byte {
	return []byte(idByDescriptionKey + descriptionHash)
}

func MakeVoteKey(id uint64, account string) []byte {
	return []byte(FormatId(id) + "/" + account)
}

func MakeLockKey(id uint64) []byte {
	return []byte(FormatId(id))
}

// HashHex returns the hex encoded sha256 of data.
func HashHex(data []byte) string {
	return hex.EncodeToString(hash.HashUsingSha256(data))
}
