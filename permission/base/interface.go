package base

import (
	"strconv"

	"github.com/wooyang2018/govchain/crypto/core/hash"
)

const (
	SubModName = "access_control"

	// DefaultAdminName 根角色，默认是所有角色的管理角色
	DefaultAdminName = "DEFAULT_ADMIN"
)

// RoleType is a 32 bit role identifier derived from the role name.
type RoleType = uint32

const DefaultAdmin RoleType = 0

var (
	Executor        = RoleOf("EXECUTOR")
	ParametersAdmin = RoleOf("PARAMETERS_ADMIN")
	Spender         = RoleOf("SPENDER")
	Canceller       = RoleOf("CANCELLER")
	Minter          = RoleOf("MINTER")
)

// RoleOf returns the role id of a role name.
func RoleOf(name string) RoleType {
	if name == DefaultAdminName {
		return DefaultAdmin
	}
	return hash.Selector(name)
}

// ParseRole accepts a decimal role id or a role name.
func ParseRole(s string) RoleType {
	if v, err := strconv.ParseUint(s, 10, 32); err == nil {
		return RoleType(v)
	}
	return RoleOf(s)
}

// Bucket names inside a contract's own state
const (
	RoleMemberBucket = "roleMember"
	RoleAdminBucket  = "roleAdmin"
)

// MakeRoleMemberKey returns the key of account inside role's member set. Keys
// of one role share the "<role>:" prefix.
func MakeRoleMemberKey(role RoleType, account string) []byte {
	return []byte(MakeRolePrefix(role) + account)
}

func MakeRolePrefix(role RoleType) string {
	return strconv.FormatUint(uint64(role), 10) + ":"
}

func MakeRoleAdminKey(role RoleType) []byte {
	return []byte(strconv.FormatUint(uint64(role), 10))
}
