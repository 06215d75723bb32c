package permission

import (
	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/permission/base"
)

// KernMethod exposes the role table of a contract as kernel methods. Contracts
// embed it so that every instance answers the same access control calls.
type KernMethod struct{}

func NewKernContractMethod() *KernMethod {
	return &KernMethod{}
}

// Methods returns the access control method table keyed by method name.
func (t *KernMethod) Methods() map[string]contractBase.KernMethod {
	return map[string]contractBase.KernMethod{
		"hasRole":        t.HasRole,
		"getRoleAdmin":   t.GetRoleAdmin,
		"getRoleMembers": t.GetRoleMembers,
		"grantRole":      t.GrantRole,
		"revokeRole":     t.RevokeRole,
		"renounceRole":   t.RenounceRole,
		"setRoleAdmin":   t.SetRoleAdmin,
	}
}

func roleArg(ctx contractBase.KContext) (base.RoleType, error) {
	s, err := contractBase.ArgString(ctx, "role")
	if err != nil {
		return 0, err
	}
	return base.ParseRole(s), nil
}

func roleAndAccount(ctx contractBase.KContext) (base.RoleType, string, error) {
	role, err := roleArg(ctx)
	if err != nil {
		return 0, "", err
	}
	account, err := contractBase.ArgString(ctx, "account")
	if err != nil {
		return 0, "", err
	}
	return role, account, nil
}

func (t *KernMethod) HasRole(ctx contractBase.KContext) (*contractBase.Response, error) {
	role, account, err := roleAndAccount(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := HasRole(ctx, role, account)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(ok)
}

func (t *KernMethod) GetRoleAdmin(ctx contractBase.KContext) (*contractBase.Response, error) {
	role, err := roleArg(ctx)
	if err != nil {
		return nil, err
	}
	admin, err := GetRoleAdmin(ctx, role)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(admin)
}

func (t *KernMethod) GetRoleMembers(ctx contractBase.KContext) (*contractBase.Response, error) {
	role, err := roleArg(ctx)
	if err != nil {
		return nil, err
	}
	members, err := GetRoleMembers(ctx, role)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(members)
}

func (t *KernMethod) GrantRole(ctx contractBase.KContext) (*contractBase.Response, error) {
	role, account, err := roleAndAccount(ctx)
	if err != nil {
		return nil, err
	}
	if err := ensureRoleAdmin(ctx, role); err != nil {
		return nil, err
	}
	ok, err := HasRole(ctx, role, account)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, ErrRoleRedundant.WithDetail("%s already holds role %d", account, role)
	}
	if err := grant(ctx, role, account); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (t *KernMethod) RevokeRole(ctx contractBase.KContext) (*contractBase.Response, error) {
	role, account, err := roleAndAccount(ctx)
	if err != nil {
		return nil, err
	}
	if err := ensureRoleAdmin(ctx, role); err != nil {
		return nil, err
	}
	ok, err := HasRole(ctx, role, account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMissingRole.WithDetail("%s does not hold role %d", account, role)
	}
	if err := revoke(ctx, role, account); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (t *KernMethod) RenounceRole(ctx contractBase.KContext) (*contractBase.Response, error) {
	role, account, err := roleAndAccount(ctx)
	if err != nil {
		return nil, err
	}
	if account != ctx.Caller() {
		return nil, ErrInvalidCaller.WithDetail("%s cannot renounce for %s", ctx.Caller(), account)
	}
	ok, err := HasRole(ctx, role, account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMissingRole.WithDetail("%s does not hold role %d", account, role)
	}
	if err := revoke(ctx, role, account); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (t *KernMethod) SetRoleAdmin(ctx contractBase.KContext) (*contractBase.Response, error) {
	role, err := roleArg(ctx)
	if err != nil {
		return nil, err
	}
	adminStr, err := contractBase.ArgString(ctx, "admin")
	if err != nil {
		return nil, err
	}
	if err := ensureRoleAdmin(ctx, role); err != nil {
		return nil, err
	}
	if err := SetRoleAdmin(ctx, role, base.ParseRole(adminStr)); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}
