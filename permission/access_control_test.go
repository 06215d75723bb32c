package permission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/mock"
	"github.com/wooyang2018/govchain/permission"
	"github.com/wooyang2018/govchain/permission/base"
)

// guarded is a contract whose poke method needs SPENDER.
type guarded struct {
	acl *permission.KernMethod
}

func (g *guarded) Methods() map[string]contractBase.KernMethod {
	methods := g.acl.Methods()
	methods["initialize"] = func(ctx contractBase.KContext) (*contractBase.Response, error) {
		if err := permission.InitGrant(ctx, base.DefaultAdmin, ctx.Caller()); err != nil {
			return nil, err
		}
		return contractBase.NewResponse(nil)
	}
	methods["poke"] = func(ctx contractBase.KContext) (*contractBase.Response, error) {
		if err := permission.EnsureHasRole(ctx, base.Spender); err != nil {
			return nil, err
		}
		return contractBase.NewResponse(nil)
	}
	return methods
}

func setup(t *testing.T) *mock.TestHelper {
	th := mock.NewTestHelper(nil)
	t.Cleanup(th.Close)
	require.NoError(t, th.Deploy("guarded", &guarded{acl: permission.NewKernContractMethod()}, "root", nil))
	return th
}

func roleArgs(role, account string) contractBase.Args {
	return contractBase.NewArgs().Str("role", role).Str("account", account)
}

func hasRole(t *testing.T, th *mock.TestHelper, role, account string) bool {
	var ok bool
	require.NoError(t, th.Query("guarded", "hasRole", roleArgs(role, account), &ok))
	return ok
}

func TestRoleIds(t *testing.T) {
	assert.Equal(t, base.RoleType(0), base.RoleOf(base.DefaultAdminName))
	assert.Equal(t, base.RoleType(368_001_360), base.ParametersAdmin)
	assert.Equal(t, base.RoleType(3_684_413_446), base.Spender)
	assert.Equal(t, base.RoleType(3_551_554_066), base.Executor)
	assert.Equal(t, base.RoleType(4_141_332_106), base.Canceller)
	assert.Equal(t, base.Spender, base.ParseRole("3684413446"))
	assert.Equal(t, base.Spender, base.ParseRole("SPENDER"))
}

func TestGrantRevoke(t *testing.T) {
	th := setup(t)
	assert.True(t, hasRole(t, th, "DEFAULT_ADMIN", "root"))

	_, err := th.Invoke("alice", "guarded", "poke", nil)
	assert.ErrorIs(t, err, permission.ErrMissingRole)
	_, err = th.Invoke("alice", "guarded", "grantRole", roleArgs("SPENDER", "alice"))
	assert.ErrorIs(t, err, permission.ErrMissingRole)

	_, err = th.Invoke("root", "guarded", "grantRole", roleArgs("SPENDER", "alice"))
	require.NoError(t, err)
	assert.Equal(t, []string{"RoleGranted"}, th.EventNames())
	_, err = th.Invoke("alice", "guarded", "poke", nil)
	require.NoError(t, err)

	_, err = th.Invoke("root", "guarded", "grantRole", roleArgs("SPENDER", "alice"))
	assert.ErrorIs(t, err, permission.ErrRoleRedundant)
	assert.Equal(t, contractBase.KindRedundant, contractBase.KindOf(err))

	_, err = th.Invoke("root", "guarded", "grantRole", roleArgs("SPENDER", "bob"))
	require.NoError(t, err)
	var members []string
	require.NoError(t, th.Query("guarded", "getRoleMembers", contractBase.NewArgs().Str("role", "SPENDER"), &members))
	assert.Equal(t, []string{"alice", "bob"}, members)

	_, err = th.Invoke("root", "guarded", "revokeRole", roleArgs("SPENDER", "alice"))
	require.NoError(t, err)
	assert.False(t, hasRole(t, th, "SPENDER", "alice"))
	_, err = th.Invoke("root", "guarded", "revokeRole", roleArgs("SPENDER", "alice"))
	assert.ErrorIs(t, err, permission.ErrMissingRole)
}

func TestRenounceRole(t *testing.T) {
	th := setup(t)
	_, err := th.Invoke("root", "guarded", "grantRole", roleArgs("SPENDER", "alice"))
	require.NoError(t, err)

	_, err = th.Invoke("root", "guarded", "renounceRole", roleArgs("SPENDER", "alice"))
	assert.ErrorIs(t, err, permission.ErrInvalidCaller)
	_, err = th.Invoke("alice", "guarded", "renounceRole", roleArgs("SPENDER", "alice"))
	require.NoError(t, err)
	assert.Equal(t, []string{"RoleRevoked"}, th.EventNames())
	assert.False(t, hasRole(t, th, "SPENDER", "alice"))
	_, err = th.Invoke("alice", "guarded", "renounceRole", roleArgs("SPENDER", "alice"))
	assert.ErrorIs(t, err, permission.ErrMissingRole)
}

func TestSetRoleAdmin(t *testing.T) {
	th := setup(t)
	_, err := th.Invoke("root", "guarded", "grantRole", roleArgs("CANCELLER", "carol"))
	require.NoError(t, err)

	_, err = th.Invoke("carol", "guarded", "setRoleAdmin",
		contractBase.NewArgs().Str("role", "SPENDER").Str("admin", "CANCELLER"))
	assert.ErrorIs(t, err, permission.ErrMissingRole)
	_, err = th.Invoke("root", "guarded", "setRoleAdmin",
		contractBase.NewArgs().Str("role", "SPENDER").Str("admin", "CANCELLER"))
	require.NoError(t, err)
	assert.Equal(t, []string{"RoleAdminChanged"}, th.EventNames())

	var admin base.RoleType
	require.NoError(t, th.Query("guarded", "getRoleAdmin", contractBase.NewArgs().Str("role", "SPENDER"), &admin))
	assert.Equal(t, base.Canceller, admin)

	// 管理角色转移后原管理员失去授权能力
	_, err = th.Invoke("root", "guarded", "grantRole", roleArgs("SPENDER", "dave"))
	assert.ErrorIs(t, err, permission.ErrMissingRole)
	_, err = th.Invoke("carol", "guarded", "grantRole", roleArgs("SPENDER", "dave"))
	require.NoError(t, err)
	assert.True(t, hasRole(t, th, "SPENDER", "dave"))
}
