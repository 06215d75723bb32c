package permission

import (
	"errors"
	"strconv"

	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/permission/base"
	"github.com/wooyang2018/govchain/storage"
)

var (
	ErrMissingRole   = contractBase.NewError(contractBase.KindAuthorization, "MissingRole")
	ErrInvalidCaller = contractBase.NewError(contractBase.KindAuthorization, "InvalidCaller")
	ErrRoleRedundant = contractBase.NewError(contractBase.KindRedundant, "RoleRedundant")
)

type RoleGranted struct {
	Role    base.RoleType `json:"role"`
	Grantee string        `json:"grantee"`
	Grantor string        `json:"grantor"`
}

type RoleRevoked struct {
	Role    base.RoleType `json:"role"`
	Account string        `json:"account"`
	Sender  string        `json:"sender"`
}

type RoleAdminChanged struct {
	Role          base.RoleType `json:"role"`
	PreviousAdmin base.RoleType `json:"previousAdmin"`
	NewAdmin      base.RoleType `json:"newAdmin"`
}

// HasRole reports whether account holds role in the running contract.
func HasRole(ctx contractBase.StateSandbox, role base.RoleType, account string) (bool, error) {
	_, err := ctx.Get(base.RoleMemberBucket, base.MakeRoleMemberKey(role, account))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetRoleAdmin returns the admin role of role, DefaultAdmin when unset.
func GetRoleAdmin(ctx contractBase.StateSandbox, role base.RoleType) (base.RoleType, error) {
	v, err := ctx.Get(base.RoleAdminBucket, base.MakeRoleAdminKey(role))
	if errors.Is(err, storage.ErrNotFound) {
		return base.DefaultAdmin, nil
	}
	if err != nil {
		return 0, err
	}
	admin, err := strconv.ParseUint(string(v), 10, 32)
	if err != nil {
		return 0, err
	}
	return base.RoleType(admin), nil
}

// EnsureHasRole fails with MissingRole unless the caller holds role.
func EnsureHasRole(ctx contractBase.KContext, role base.RoleType) error {
	ok, err := HasRole(ctx, role, ctx.Caller())
	if err != nil {
		return err
	}
	if !ok {
		return ErrMissingRole.WithDetail("%s lacks role %d", ctx.Caller(), role)
	}
	return nil
}

// InitGrant grants role without any admin check. Only contract initializers
// use it to seed their role table.
func InitGrant(ctx contractBase.KContext, role base.RoleType, account string) error {
	ok, err := HasRole(ctx, role, account)
	if err != nil || ok {
		return err
	}
	return grant(ctx, role, account)
}

// SetRoleAdmin changes the admin role of role without any check.
func SetRoleAdmin(ctx contractBase.KContext, role, admin base.RoleType) error {
	prev, err := GetRoleAdmin(ctx, role)
	if err != nil {
		return err
	}
	if err := ctx.Put(base.RoleAdminBucket, base.MakeRoleAdminKey(role),
		[]byte(strconv.FormatUint(uint64(admin), 10))); err != nil {
		return err
	}
	return ctx.EmitEvent("RoleAdminChanged", &RoleAdminChanged{Role: role, PreviousAdmin: prev, NewAdmin: admin})
}

// GetRoleMembers lists the holders of role ordered by account.
func GetRoleMembers(ctx contractBase.StateSandbox, role base.RoleType) ([]string, error) {
	prefix := base.MakeRolePrefix(role)
	// ';' sorts right after ':'
	end := prefix[:len(prefix)-1] + ";"
	iter, err := ctx.Select(base.RoleMemberBucket, []byte(prefix), []byte(end))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	members := make([]string, 0)
	for iter.Next() {
		members = append(members, string(iter.Key()[len(prefix):]))
	}
	return members, iter.Error()
}

func grant(ctx contractBase.KContext, role base.RoleType, account string) error {
	if err := ctx.Put(base.RoleMemberBucket, base.MakeRoleMemberKey(role, account), []byte("1")); err != nil {
		return err
	}
	return ctx.EmitEvent("RoleGranted", &RoleGranted{Role: role, Grantee: account, Grantor: ctx.Caller()})
}

func revoke(ctx contractBase.KContext, role base.RoleType, account string) error {
	if err := ctx.Del(base.RoleMemberBucket, base.MakeRoleMemberKey(role, account)); err != nil {
		return err
	}
	return ctx.EmitEvent("RoleRevoked", &RoleRevoked{Role: role, Account: account, Sender: ctx.Caller()})
}

func ensureRoleAdmin(ctx contractBase.KContext, role base.RoleType) error {
	admin, err := GetRoleAdmin(ctx, role)
	if err != nil {
		return err
	}
	return EnsureHasRole(ctx, admin)
}
