// Package govern is the stake ledger of the governor: deposits of the
// underlying asset mint non-transferable vote shares 1:1, withdrawals burn
// them and lock the asset in a vest for the unstake period.
package govern

import (
	"errors"
	"math/big"
	"strconv"

	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/contract/proposal/utils"
	"github.com/wooyang2018/govchain/contract/psp22"
	"github.com/wooyang2018/govchain/contract/vester"
	"github.com/wooyang2018/govchain/permission"
	"github.com/wooyang2018/govchain/permission/base"
	"github.com/wooyang2018/govchain/storage"
)

const (
	configKey        = "config"
	unstakePeriodKey = "unstakePeriod"
	totalSupplyKey   = "totalSupply"
	counterKey       = "counter"
)

var (
	ErrMaxWithdraw     = contractBase.NewError(contractBase.KindPrecondition, "MaxWithdraw")
	ErrUntransferrable = contractBase.NewError(contractBase.KindPrecondition, "Untransferrable")
	ErrZeroAmount      = contractBase.ErrInvalidArgs.WithDetail("zero amount")
)

// Ledger is the stake ledger kernel contract. The governor embeds its methods.
type Ledger struct {
	ctx *GovCtx
	acl *permission.KernMethod
}

func NewLedger(ctx *GovCtx) *Ledger {
	return &Ledger{
		ctx: ctx,
		acl: permission.NewKernContractMethod(),
	}
}

func (l *Ledger) Methods() map[string]contractBase.KernMethod {
	methods := l.acl.Methods()
	methods["initialize"] = l.Initialize
	methods["deposit"] = l.Deposit
	methods["withdraw"] = l.Withdraw
	methods["transfer"] = l.Transfer
	methods["transferFrom"] = l.Transfer
	methods["approve"] = l.Approve
	methods["allowance"] = l.Allowance
	methods["balanceOf"] = l.BalanceOf
	methods["maxWithdraw"] = l.BalanceOf
	methods["totalSupply"] = l.TotalSupply
	methods["tokenName"] = l.TokenName
	methods["tokenSymbol"] = l.TokenSymbol
	methods["tokenDecimals"] = l.TokenDecimals
	methods["asset"] = l.Asset
	methods["vester"] = l.Vester
	methods["unstakePeriod"] = l.UnstakePeriod
	methods["lastStakeTimestamp"] = l.LastStakeTimestamp
	methods["getWaitingAndVestingDurations"] = l.GetWaitingAndVestingDurations
	return methods
}

// ParseInitArgs reads the ledger part of an initialize call.
func ParseInitArgs(ctx contractBase.KContext) (*InitArgs, error) {
	asset, err := contractBase.ArgString(ctx, "asset")
	if err != nil {
		return nil, err
	}
	vesterName, err := contractBase.ArgString(ctx, "vester")
	if err != nil {
		return nil, err
	}
	period, err := contractBase.ArgInt64(ctx, "unstakePeriod")
	if err != nil {
		return nil, err
	}
	if period < 0 {
		return nil, contractBase.ErrInvalidArgs.WithDetail("negative unstake period")
	}
	return &InitArgs{
		Config: Config{
			Asset:  asset,
			Vester: vesterName,
			Name:   contractBase.ArgOptString(ctx, "name"),
			Symbol: contractBase.ArgOptString(ctx, "symbol"),
		},
		UnstakePeriod:   period,
		Executor:        contractBase.ArgOptString(ctx, "executor"),
		ParametersAdmin: contractBase.ArgOptString(ctx, "parametersAdmin"),
	}, nil
}

// Init stores the ledger config and seeds the role table. The contract
// administers itself.
func Init(ctx contractBase.KContext, args *InitArgs) error {
	if _, err := ctx.Get(utils.LedgerBucket, []byte(configKey)); err == nil {
		return contractBase.ErrAlreadyInitialized
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	cfg := args.Config
	cfg.Decimals = psp22.NewClient(cfg.Asset).Decimals(ctx)
	if err := contractBase.PutObject(ctx, utils.LedgerBucket, []byte(configKey), &cfg); err != nil {
		return err
	}
	if err := SetUnstakePeriod(ctx, args.UnstakePeriod); err != nil {
		return err
	}
	if err := permission.InitGrant(ctx, base.DefaultAdmin, ctx.Self()); err != nil {
		return err
	}
	if args.Executor != "" {
		if err := permission.InitGrant(ctx, base.Executor, args.Executor); err != nil {
			return err
		}
	}
	if args.ParametersAdmin != "" {
		if err := permission.InitGrant(ctx, base.ParametersAdmin, args.ParametersAdmin); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) Initialize(ctx contractBase.KContext) (*contractBase.Response, error) {
	args, err := ParseInitArgs(ctx)
	if err != nil {
		return nil, err
	}
	if err := Init(ctx, args); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func LoadConfig(ctx contractBase.StateSandbox) (*Config, error) {
	cfg := new(Config)
	found, err := contractBase.GetObject(ctx, utils.LedgerBucket, []byte(configKey), cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, contractBase.ErrNotInitialized
	}
	return cfg, nil
}

func GetUnstakePeriod(ctx contractBase.StateSandbox) (int64, error) {
	v, err := contractBase.GetUint64(ctx, utils.LedgerBucket, []byte(unstakePeriodKey))
	return int64(v), err
}

func SetUnstakePeriod(ctx contractBase.StateSandbox, period int64) error {
	return contractBase.PutUint64(ctx, utils.LedgerBucket, []byte(unstakePeriodKey), uint64(period))
}

func BalanceOf(ctx contractBase.StateSandbox, account string) (*big.Int, error) {
	return contractBase.GetAmount(ctx, utils.SharesBucket, []byte(account))
}

func TotalSupply(ctx contractBase.StateSandbox) (*big.Int, error) {
	return contractBase.GetAmount(ctx, utils.LedgerBucket, []byte(totalSupplyKey))
}

// Counter is the sum of every share ever deposited. Withdrawals never lower it.
func Counter(ctx contractBase.StateSandbox) (*big.Int, error) {
	return contractBase.GetAmount(ctx, utils.LedgerBucket, []byte(counterKey))
}

// LastStakeTimestamp is the time account went from no stake to some stake.
func LastStakeTimestamp(ctx contractBase.StateSandbox, account string) (int64, bool, error) {
	v, err := ctx.Get(utils.LastStakeBucket, []byte(account))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	ts, err := strconv.ParseInt(string(v), 10, 64)
	return ts, err == nil, err
}

// MoveShares moves shares between accounts inside the ledger. Only the
// governor itself uses it, to lock and return proposer deposits.
func MoveShares(ctx contractBase.StateSandbox, from, to string, amount *big.Int) error {
	fromBal, err := BalanceOf(ctx, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return psp22.ErrInsufficientBalance.WithDetail("%s has %s shares, moving %s", from, fromBal, amount)
	}
	toBal, err := BalanceOf(ctx, to)
	if err != nil {
		return err
	}
	if err := contractBase.PutAmount(ctx, utils.SharesBucket, []byte(from), fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return contractBase.PutAmount(ctx, utils.SharesBucket, []byte(to), toBal.Add(toBal, amount))
}

func addAmount(ctx contractBase.StateSandbox, bucket string, key []byte, delta *big.Int) (*big.Int, error) {
	v, err := contractBase.GetAmount(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	v.Add(v, delta)
	if v.Sign() < 0 {
		return nil, contractBase.NewError(contractBase.KindInternal, "Underflow").WithDetail("%s/%s", bucket, key)
	}
	return v, contractBase.PutAmount(ctx, bucket, key, v)
}

// Deposit pulls amount of the asset from the caller and mints as many shares
// to receiver.
func (l *Ledger) Deposit(ctx contractBase.KContext) (*contractBase.Response, error) {
	amount, err := contractBase.ArgAmount(ctx, "amount")
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, ErrZeroAmount
	}
	receiver := contractBase.ArgOptString(ctx, "receiver")
	if receiver == "" {
		receiver = ctx.Caller()
	}
	cfg, err := LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := psp22.NewClient(cfg.Asset).TransferFrom(ctx, ctx.Caller(), ctx.Self(), amount); err != nil {
		return nil, err
	}

	prev, err := BalanceOf(ctx, receiver)
	if err != nil {
		return nil, err
	}
	if _, err := addAmount(ctx, utils.SharesBucket, []byte(receiver), amount); err != nil {
		return nil, err
	}
	if _, err := addAmount(ctx, utils.LedgerBucket, []byte(totalSupplyKey), amount); err != nil {
		return nil, err
	}
	if _, err := addAmount(ctx, utils.LedgerBucket, []byte(counterKey), amount); err != nil {
		return nil, err
	}
	if prev.Sign() == 0 {
		if err := ctx.Put(utils.LastStakeBucket, []byte(receiver), []byte(strconv.FormatInt(ctx.Now(), 10))); err != nil {
			return nil, err
		}
	}

	shares := contractBase.NewAmount(amount)
	err = ctx.EmitEvent("Deposit", &Deposit{Sender: ctx.Caller(), Owner: receiver, Assets: shares, Shares: shares})
	if err != nil {
		return nil, err
	}
	l.ctx.XLog.Debug("deposit", "sender", ctx.Caller(), "owner", receiver, "amount", amount.String())
	return contractBase.NewResponse(shares)
}

func (l *Ledger) Withdraw(ctx contractBase.KContext) (*contractBase.Response, error) {
	amount, err := contractBase.ArgAmount(ctx, "amount")
	if err != nil {
		return nil, err
	}
	receiver := contractBase.ArgOptString(ctx, "receiver")
	if receiver == "" {
		receiver = ctx.Caller()
	}
	owner := contractBase.ArgOptString(ctx, "owner")
	if owner == "" {
		owner = ctx.Caller()
	}
	id, err := WithdrawTo(ctx, ctx.Caller(), receiver, owner, amount, false)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(id)
}

// WithdrawTo burns amount shares of owner at once and vests the same amount
// of the asset to receiver after the unstake period. A sender other than the
// owner spends the owner's share allowance unless forced, which only the
// force unstake path of the governor sets. It returns the id of the created
// vest.
func WithdrawTo(ctx contractBase.KContext, sender, receiver, owner string, amount *big.Int, forced bool) (uint64, error) {
	if amount.Sign() == 0 {
		return 0, ErrZeroAmount
	}
	bal, err := BalanceOf(ctx, owner)
	if err != nil {
		return 0, err
	}
	if bal.Cmp(amount) < 0 {
		return 0, ErrMaxWithdraw.WithDetail("%s can withdraw %s, asked %s", owner, bal, amount)
	}
	if sender != owner && !forced {
		if err := spendAllowance(ctx, owner, sender, amount); err != nil {
			return 0, err
		}
	}

	left, err := addAmount(ctx, utils.SharesBucket, []byte(owner), new(big.Int).Neg(amount))
	if err != nil {
		return 0, err
	}
	if _, err := addAmount(ctx, utils.LedgerBucket, []byte(totalSupplyKey), new(big.Int).Neg(amount)); err != nil {
		return 0, err
	}
	if left.Sign() == 0 {
		err := ctx.Del(utils.LastStakeBucket, []byte(owner))
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return 0, err
		}
	}

	cfg, err := LoadConfig(ctx)
	if err != nil {
		return 0, err
	}
	period, err := GetUnstakePeriod(ctx)
	if err != nil {
		return 0, err
	}
	if err := psp22.NewClient(cfg.Asset).Approve(ctx, cfg.Vester, amount); err != nil {
		return 0, err
	}
	vestId, err := vester.NewClient(cfg.Vester).CreateVest(ctx, receiver, cfg.Asset, amount, vester.NewConstant(period, 0))
	if err != nil {
		return 0, err
	}

	assets := contractBase.NewAmount(amount)
	err = ctx.EmitEvent("Withdraw", &Withdraw{
		Sender:   sender,
		Receiver: receiver,
		Owner:    owner,
		Assets:   assets,
		Shares:   assets,
		VestId:   vestId,
	})
	return vestId, err
}

func shareAllowanceKey(owner, spender string) []byte {
	return []byte(owner + "/" + spender)
}

func spendAllowance(ctx contractBase.KContext, owner, spender string, amount *big.Int) error {
	cur, err := contractBase.GetAmount(ctx, utils.ShareAllowanceBucket, shareAllowanceKey(owner, spender))
	if err != nil {
		return err
	}
	if cur.Cmp(amount) < 0 {
		return psp22.ErrInsufficientAllowance.WithDetail("%s allows %s only %s shares", owner, spender, cur)
	}
	return contractBase.PutAmount(ctx, utils.ShareAllowanceBucket, shareAllowanceKey(owner, spender), cur.Sub(cur, amount))
}

// Transfer backs both transfer and transferFrom: shares never move.
func (l *Ledger) Transfer(ctx contractBase.KContext) (*contractBase.Response, error) {
	return nil, ErrUntransferrable
}

// Approve lets a spender withdraw shares of the caller.
func (l *Ledger) Approve(ctx contractBase.KContext) (*contractBase.Response, error) {
	spender, err := contractBase.ArgString(ctx, "spender")
	if err != nil {
		return nil, err
	}
	amount, err := contractBase.ArgAmount(ctx, "amount")
	if err != nil {
		return nil, err
	}
	if err := contractBase.PutAmount(ctx, utils.ShareAllowanceBucket, shareAllowanceKey(ctx.Caller(), spender), amount); err != nil {
		return nil, err
	}
	err = ctx.EmitEvent("Approval", &psp22.Approval{Owner: ctx.Caller(), Spender: spender, Value: contractBase.NewAmount(amount)})
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (l *Ledger) Allowance(ctx contractBase.KContext) (*contractBase.Response, error) {
	owner, err := contractBase.ArgString(ctx, "owner")
	if err != nil {
		return nil, err
	}
	spender, err := contractBase.ArgString(ctx, "spender")
	if err != nil {
		return nil, err
	}
	v, err := contractBase.GetAmount(ctx, utils.ShareAllowanceBucket, shareAllowanceKey(owner, spender))
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(contractBase.NewAmount(v))
}

func (l *Ledger) BalanceOf(ctx contractBase.KContext) (*contractBase.Response, error) {
	owner, err := contractBase.ArgString(ctx, "owner")
	if err != nil {
		return nil, err
	}
	v, err := BalanceOf(ctx, owner)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(contractBase.NewAmount(v))
}

func (l *Ledger) TotalSupply(ctx contractBase.KContext) (*contractBase.Response, error) {
	v, err := TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(contractBase.NewAmount(v))
}

func (l *Ledger) config(ctx contractBase.KContext, field func(*Config) interface{}) (*contractBase.Response, error) {
	cfg, err := LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(field(cfg))
}

func (l *Ledger) TokenName(ctx contractBase.KContext) (*contractBase.Response, error) {
	return l.config(ctx, func(c *Config) interface{} { return c.Name })
}

func (l *Ledger) TokenSymbol(ctx contractBase.KContext) (*contractBase.Response, error) {
	return l.config(ctx, func(c *Config) interface{} { return c.Symbol })
}

func (l *Ledger) TokenDecimals(ctx contractBase.KContext) (*contractBase.Response, error) {
	return l.config(ctx, func(c *Config) interface{} { return c.Decimals })
}

func (l *Ledger) Asset(ctx contractBase.KContext) (*contractBase.Response, error) {
	return l.config(ctx, func(c *Config) interface{} { return c.Asset })
}

func (l *Ledger) Vester(ctx contractBase.KContext) (*contractBase.Response, error) {
	return l.config(ctx, func(c *Config) interface{} { return c.Vester })
}

func (l *Ledger) UnstakePeriod(ctx contractBase.KContext) (*contractBase.Response, error) {
	v, err := GetUnstakePeriod(ctx)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(v)
}

func (l *Ledger) LastStakeTimestamp(ctx contractBase.KContext) (*contractBase.Response, error) {
	account, err := contractBase.ArgString(ctx, "account")
	if err != nil {
		return nil, err
	}
	ts, ok, err := LastStakeTimestamp(ctx, account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return contractBase.NewResponse((*int64)(nil))
	}
	return contractBase.NewResponse(ts)
}

// GetWaitingAndVestingDurations lets vests of the ledger follow the current
// unstake period.
func (l *Ledger) GetWaitingAndVestingDurations(ctx contractBase.KContext) (*contractBase.Response, error) {
	v, err := GetUnstakePeriod(ctx)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(&vester.Durations{WaitingTime: v, VestingTime: 0})
}
