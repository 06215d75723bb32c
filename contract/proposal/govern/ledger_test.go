package govern_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/mock"
	"github.com/wooyang2018/govchain/contract/proposal/govern"
	"github.com/wooyang2018/govchain/contract/psp22"
	"github.com/wooyang2018/govchain/contract/vester"
)

const (
	day     int64 = 86_400_000
	unstake       = 180 * day
)

func setup(t *testing.T) *mock.TestHelper {
	th := mock.NewTestHelper(nil)
	t.Cleanup(th.Close)
	require.NoError(t, th.Deploy("abax", psp22.NewToken(), "admin",
		contractBase.NewArgs().Str("name", "Abax").Uint("decimals", 12)))
	vctx, err := vester.NewVesterCtx(mock.ChainName, false)
	require.NoError(t, err)
	require.NoError(t, th.Deploy("vester", vester.NewVester(vctx), "admin", nil))
	gctx, err := govern.NewGovCtx(mock.ChainName, false)
	require.NoError(t, err)
	require.NoError(t, th.Deploy("gov", govern.NewLedger(gctx), "admin", contractBase.NewArgs().
		Str("asset", "abax").Str("vester", "vester").Int("unstakePeriod", unstake).
		Str("name", "Vote Abax").Str("symbol", "vABAX")))

	for _, who := range []string{"alice", "bob"} {
		_, err = th.Invoke("admin", "abax", "mint", contractBase.NewArgs().Str("to", who).Amount("amount", big.NewInt(1000)))
		require.NoError(t, err)
		_, err = th.Invoke(who, "abax", "approve", contractBase.NewArgs().Str("spender", "gov").Amount("amount", big.NewInt(1000)))
		require.NoError(t, err)
	}
	return th
}

func deposit(th *mock.TestHelper, who string, amount int64) error {
	_, err := th.Invoke(who, "gov", "deposit", contractBase.NewArgs().Amount("amount", big.NewInt(amount)))
	return err
}

func balanceOf(th *mock.TestHelper, contract, owner string) int64 {
	return th.Amount(contract, "balanceOf", contractBase.NewArgs().Str("owner", owner)).Int64()
}

func TestMetadata(t *testing.T) {
	th := setup(t)
	var name, symbol string
	var decimals uint8
	require.NoError(t, th.Query("gov", "tokenName", nil, &name))
	require.NoError(t, th.Query("gov", "tokenSymbol", nil, &symbol))
	require.NoError(t, th.Query("gov", "tokenDecimals", nil, &decimals))
	assert.Equal(t, "Vote Abax", name)
	assert.Equal(t, "vABAX", symbol)
	assert.Equal(t, uint8(12), decimals)

	var durations vester.Durations
	require.NoError(t, th.Query("gov", vester.DurationsMethod, nil, &durations))
	assert.Equal(t, vester.Durations{WaitingTime: unstake}, durations)
}

func TestDepositWithdraw(t *testing.T) {
	th := setup(t)
	require.NoError(t, deposit(th, "alice", 600))
	assert.Equal(t, []string{"Approval", "Transfer", "Deposit"}, th.EventNames())
	assert.Equal(t, int64(600), balanceOf(th, "gov", "alice"))
	assert.Equal(t, int64(400), balanceOf(th, "abax", "alice"))
	assert.Equal(t, int64(600), th.Amount("gov", "totalSupply", nil).Int64())

	var staked *int64
	require.NoError(t, th.Query("gov", "lastStakeTimestamp", contractBase.NewArgs().Str("account", "alice"), &staked))
	require.NotNil(t, staked)
	assert.Equal(t, th.Now(), *staked)

	th.Advance(day)
	resp, err := th.Invoke("alice", "gov", "withdraw", contractBase.NewArgs().Amount("amount", big.NewInt(600)))
	require.NoError(t, err)
	var vestId uint64
	require.NoError(t, resp.Decode(&vestId))
	assert.Equal(t, uint64(0), vestId)
	assert.Equal(t, int64(0), balanceOf(th, "gov", "alice"))
	assert.Equal(t, int64(0), th.Amount("gov", "totalSupply", nil).Int64())
	assert.Equal(t, int64(600), balanceOf(th, "abax", "vester"))

	staked = nil
	require.NoError(t, th.Query("gov", "lastStakeTimestamp", contractBase.NewArgs().Str("account", "alice"), &staked))
	assert.Nil(t, staked)

	var data *vester.VestingData
	ids := contractBase.NewArgs().Str("receiver", "alice").Str("asset", "abax").Uint("id", 0)
	require.NoError(t, th.Query("vester", "vestingScheduleOf", ids, &data))
	require.NotNil(t, data)
	assert.Equal(t, int64(600), data.Amount.Int().Int64())
	constant, ok := data.Schedule.Schedule.(*vester.Constant)
	require.True(t, ok)
	assert.Equal(t, unstake, constant.WaitingTime)
	assert.Equal(t, int64(0), constant.VestingTime)

	th.Advance(unstake - 1)
	_, err = th.Invoke("alice", "vester", "release", ids)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balanceOf(th, "abax", "alice"))
	th.Advance(1)
	_, err = th.Invoke("alice", "vester", "release", ids)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balanceOf(th, "abax", "alice"))
}

func TestZeroAmount(t *testing.T) {
	th := setup(t)
	err := deposit(th, "alice", 0)
	assert.ErrorIs(t, err, contractBase.ErrInvalidArgs)
	_, err = th.Invoke("alice", "gov", "withdraw", contractBase.NewArgs().Amount("amount", big.NewInt(0)))
	assert.ErrorIs(t, err, contractBase.ErrInvalidArgs)
}

func TestUntransferrable(t *testing.T) {
	th := setup(t)
	require.NoError(t, deposit(th, "alice", 100))
	args := contractBase.NewArgs().Str("to", "bob").Amount("amount", big.NewInt(10))
	_, err := th.Invoke("alice", "gov", "transfer", args)
	assert.ErrorIs(t, err, govern.ErrUntransferrable)
	_, err = th.Invoke("bob", "gov", "transferFrom", args.Str("from", "alice"))
	assert.ErrorIs(t, err, govern.ErrUntransferrable)
	assert.Equal(t, int64(100), balanceOf(th, "gov", "alice"))
}

func TestMaxWithdraw(t *testing.T) {
	th := setup(t)
	require.NoError(t, deposit(th, "alice", 100))
	assert.Equal(t, int64(100), th.Amount("gov", "maxWithdraw", contractBase.NewArgs().Str("owner", "alice")).Int64())

	_, err := th.Invoke("alice", "gov", "withdraw", contractBase.NewArgs().Amount("amount", big.NewInt(101)))
	assert.ErrorIs(t, err, govern.ErrMaxWithdraw)
	assert.Equal(t, int64(100), balanceOf(th, "gov", "alice"))

	// 部分提取后质押时间不变
	_, err = th.Invoke("alice", "gov", "withdraw", contractBase.NewArgs().Amount("amount", big.NewInt(40)))
	require.NoError(t, err)
	var staked *int64
	require.NoError(t, th.Query("gov", "lastStakeTimestamp", contractBase.NewArgs().Str("account", "alice"), &staked))
	assert.NotNil(t, staked)
}

func TestDelegatedWithdraw(t *testing.T) {
	th := setup(t)
	require.NoError(t, deposit(th, "alice", 100))
	args := contractBase.NewArgs().Amount("amount", big.NewInt(30)).Str("owner", "alice").Str("receiver", "carol")

	_, err := th.Invoke("bob", "gov", "withdraw", args)
	assert.ErrorIs(t, err, psp22.ErrInsufficientAllowance)

	_, err = th.Invoke("alice", "gov", "approve", contractBase.NewArgs().Str("spender", "bob").Amount("amount", big.NewInt(50)))
	require.NoError(t, err)
	_, err = th.Invoke("bob", "gov", "withdraw", args)
	require.NoError(t, err)
	assert.Equal(t, int64(70), balanceOf(th, "gov", "alice"))
	assert.Equal(t, int64(20), th.Amount("gov", "allowance",
		contractBase.NewArgs().Str("owner", "alice").Str("spender", "bob")).Int64())
	assert.Equal(t, uint64(1), nextVest(th, "carol"))
	assert.Equal(t, uint64(0), nextVest(th, "alice"))
}

func TestDepositForReceiver(t *testing.T) {
	th := setup(t)
	_, err := th.Invoke("alice", "gov", "deposit", contractBase.NewArgs().Amount("amount", big.NewInt(10)).Str("receiver", "bob"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), balanceOf(th, "gov", "bob"))
	assert.Equal(t, int64(0), balanceOf(th, "gov", "alice"))
	assert.Equal(t, int64(990), balanceOf(th, "abax", "alice"))
}

func nextVest(th *mock.TestHelper, receiver string) uint64 {
	var id uint64
	if err := th.Query("vester", "nextIdVestOf", contractBase.NewArgs().Str("receiver", receiver).Str("asset", "abax"), &id); err != nil {
		panic(err)
	}
	return id
}
