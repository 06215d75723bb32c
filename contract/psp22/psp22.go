// Package psp22 is a fungible token kernel contract used as the underlying
// asset of the governor and as treasury funds.
package psp22

import (
	"errors"
	"math/big"
	"strconv"

	contractBase "github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/permission"
	"github.com/wooyang2018/govchain/permission/base"
	"github.com/wooyang2018/govchain/storage"
)

const (
	balanceBucket   = "balance"
	allowanceBucket = "allowance"
	metaBucket      = "meta"

	metaName        = "name"
	metaSymbol      = "symbol"
	metaDecimals    = "decimals"
	metaTotalSupply = "totalSupply"

	DefaultDecimals = 12
)

var (
	ErrInsufficientBalance   = contractBase.NewError(contractBase.KindPrecondition, "InsufficientBalance")
	ErrInsufficientAllowance = contractBase.NewError(contractBase.KindPrecondition, "InsufficientAllowance")
)

type Transfer struct {
	From  string               `json:"from"`
	To    string               `json:"to"`
	Value *contractBase.Amount `json:"value"`
}

type Approval struct {
	Owner   string               `json:"owner"`
	Spender string               `json:"spender"`
	Value   *contractBase.Amount `json:"value"`
}

// Token is the PSP22 kernel contract. Every deployment keeps its own ledger.
type Token struct {
	acl *permission.KernMethod
}

func NewToken() *Token {
	return &Token{acl: permission.NewKernContractMethod()}
}

func (t *Token) Methods() map[string]contractBase.KernMethod {
	methods := t.acl.Methods()
	methods["initialize"] = t.Initialize
	methods["tokenName"] = t.TokenName
	methods["tokenSymbol"] = t.TokenSymbol
	methods["tokenDecimals"] = t.TokenDecimals
	methods["totalSupply"] = t.TotalSupply
	methods["balanceOf"] = t.BalanceOf
	methods["allowance"] = t.Allowance
	methods["approve"] = t.Approve
	methods["increaseAllowance"] = t.IncreaseAllowance
	methods["decreaseAllowance"] = t.DecreaseAllowance
	methods["transfer"] = t.Transfer
	methods["transferFrom"] = t.TransferFrom
	methods["mint"] = t.Mint
	methods["burn"] = t.Burn
	return methods
}

// Initialize sets the metadata and hands DEFAULT_ADMIN and MINTER to admin,
// the caller when admin is empty.
func (t *Token) Initialize(ctx contractBase.KContext) (*contractBase.Response, error) {
	if _, err := ctx.Get(metaBucket, []byte(metaName)); err == nil {
		return nil, contractBase.ErrAlreadyInitialized
	}
	name, err := contractBase.ArgString(ctx, "name")
	if err != nil {
		return nil, err
	}
	symbol := contractBase.ArgOptString(ctx, "symbol")
	decimals := uint64(DefaultDecimals)
	if _, ok := ctx.Args()["decimals"]; ok {
		if decimals, err = contractBase.ArgUint64(ctx, "decimals"); err != nil {
			return nil, err
		}
		if decimals > 255 {
			return nil, contractBase.ErrInvalidArgs.WithDetail("decimals %d", decimals)
		}
	}
	admin := contractBase.ArgOptString(ctx, "admin")
	if admin == "" {
		admin = ctx.Caller()
	}

	for k, v := range map[string]string{
		metaName:     name,
		metaSymbol:   symbol,
		metaDecimals: strconv.FormatUint(decimals, 10),
	} {
		if err := ctx.Put(metaBucket, []byte(k), []byte(v)); err != nil {
			return nil, err
		}
	}
	if err := permission.InitGrant(ctx, base.DefaultAdmin, admin); err != nil {
		return nil, err
	}
	if err := permission.InitGrant(ctx, base.Minter, admin); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (t *Token) meta(ctx contractBase.KContext, key string) (*contractBase.Response, error) {
	v, err := ctx.Get(metaBucket, []byte(key))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, contractBase.ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(string(v))
}

func (t *Token) TokenName(ctx contractBase.KContext) (*contractBase.Response, error) {
	return t.meta(ctx, metaName)
}

func (t *Token) TokenSymbol(ctx contractBase.KContext) (*contractBase.Response, error) {
	return t.meta(ctx, metaSymbol)
}

func (t *Token) TokenDecimals(ctx contractBase.KContext) (*contractBase.Response, error) {
	v, err := contractBase.GetUint64(ctx, metaBucket, []byte(metaDecimals))
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(v)
}

func (t *Token) TotalSupply(ctx contractBase.KContext) (*contractBase.Response, error) {
	v, err := contractBase.GetAmount(ctx, metaBucket, []byte(metaTotalSupply))
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(contractBase.NewAmount(v))
}

func (t *Token) BalanceOf(ctx contractBase.KContext) (*contractBase.Response, error) {
	owner, err := contractBase.ArgString(ctx, "owner")
	if err != nil {
		return nil, err
	}
	v, err := contractBase.GetAmount(ctx, balanceBucket, []byte(owner))
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(contractBase.NewAmount(v))
}

func (t *Token) Allowance(ctx contractBase.KContext) (*contractBase.Response, error) {
	owner, err := contractBase.ArgString(ctx, "owner")
	if err != nil {
		return nil, err
	}
	spender, err := contractBase.ArgString(ctx, "spender")
	if err != nil {
		return nil, err
	}
	v, err := getAllowance(ctx, owner, spender)
	if err != nil {
		return nil, err
	}
	return contractBase.NewResponse(contractBase.NewAmount(v))
}

func (t *Token) Approve(ctx contractBase.KContext) (*contractBase.Response, error) {
	spender, amount, err := spenderAndAmount(ctx)
	if err != nil {
		return nil, err
	}
	if err := setAllowance(ctx, ctx.Caller(), spender, amount); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (t *Token) IncreaseAllowance(ctx contractBase.KContext) (*contractBase.Response, error) {
	spender, amount, err := spenderAndAmount(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := getAllowance(ctx, ctx.Caller(), spender)
	if err != nil {
		return nil, err
	}
	if err := setAllowance(ctx, ctx.Caller(), spender, cur.Add(cur, amount)); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (t *Token) DecreaseAllowance(ctx contractBase.KContext) (*contractBase.Response, error) {
	spender, amount, err := spenderAndAmount(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := getAllowance(ctx, ctx.Caller(), spender)
	if err != nil {
		return nil, err
	}
	if cur.Cmp(amount) < 0 {
		return nil, ErrInsufficientAllowance.WithDetail("allowance %s below %s", cur, amount)
	}
	if err := setAllowance(ctx, ctx.Caller(), spender, cur.Sub(cur, amount)); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (t *Token) Transfer(ctx contractBase.KContext) (*contractBase.Response, error) {
	to, err := contractBase.ArgString(ctx, "to")
	if err != nil {
		return nil, err
	}
	amount, err := contractBase.ArgAmount(ctx, "amount")
	if err != nil {
		return nil, err
	}
	if err := move(ctx, ctx.Caller(), to, amount); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

// TransferFrom moves tokens of from on behalf of the caller, spending the
// allowance from granted to the caller.
func (t *Token) TransferFrom(ctx contractBase.KContext) (*contractBase.Response, error) {
	from, err := contractBase.ArgString(ctx, "from")
	if err != nil {
		return nil, err
	}
	to, err := contractBase.ArgString(ctx, "to")
	if err != nil {
		return nil, err
	}
	amount, err := contractBase.ArgAmount(ctx, "amount")
	if err != nil {
		return nil, err
	}
	if from != ctx.Caller() {
		cur, err := getAllowance(ctx, from, ctx.Caller())
		if err != nil {
			return nil, err
		}
		if cur.Cmp(amount) < 0 {
			return nil, ErrInsufficientAllowance.WithDetail("%s allows %s only %s of %s", from, ctx.Caller(), cur, amount)
		}
		if err := setAllowance(ctx, from, ctx.Caller(), cur.Sub(cur, amount)); err != nil {
			return nil, err
		}
	}
	if err := move(ctx, from, to, amount); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func (t *Token) Mint(ctx contractBase.KContext) (*contractBase.Response, error) {
	if err := permission.EnsureHasRole(ctx, base.Minter); err != nil {
		return nil, err
	}
	to, err := contractBase.ArgString(ctx, "to")
	if err != nil {
		return nil, err
	}
	amount, err := contractBase.ArgAmount(ctx, "amount")
	if err != nil {
		return nil, err
	}
	if err := addSupply(ctx, amount); err != nil {
		return nil, err
	}
	bal, err := contractBase.GetAmount(ctx, balanceBucket, []byte(to))
	if err != nil {
		return nil, err
	}
	if err := contractBase.PutAmount(ctx, balanceBucket, []byte(to), bal.Add(bal, amount)); err != nil {
		return nil, err
	}
	if err := ctx.EmitEvent("Transfer", &Transfer{To: to, Value: contractBase.NewAmount(amount)}); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

// Burn destroys tokens of the caller.
func (t *Token) Burn(ctx contractBase.KContext) (*contractBase.Response, error) {
	amount, err := contractBase.ArgAmount(ctx, "amount")
	if err != nil {
		return nil, err
	}
	owner := ctx.Caller()
	bal, err := contractBase.GetAmount(ctx, balanceBucket, []byte(owner))
	if err != nil {
		return nil, err
	}
	if bal.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance.WithDetail("%s has %s, burning %s", owner, bal, amount)
	}
	if err := contractBase.PutAmount(ctx, balanceBucket, []byte(owner), bal.Sub(bal, amount)); err != nil {
		return nil, err
	}
	if err := addSupply(ctx, new(big.Int).Neg(amount)); err != nil {
		return nil, err
	}
	if err := ctx.EmitEvent("Transfer", &Transfer{From: owner, Value: contractBase.NewAmount(amount)}); err != nil {
		return nil, err
	}
	return contractBase.NewResponse(nil)
}

func spenderAndAmount(ctx contractBase.KContext) (string, *big.Int, error) {
	spender, err := contractBase.ArgString(ctx, "spender")
	if err != nil {
		return "", nil, err
	}
	amount, err := contractBase.ArgAmount(ctx, "amount")
	if err != nil {
		return "", nil, err
	}
	return spender, amount, nil
}

func allowanceKey(owner, spender string) []byte {
	return []byte(owner + "/" + spender)
}

func getAllowance(ctx contractBase.StateSandbox, owner, spender string) (*big.Int, error) {
	return contractBase.GetAmount(ctx, allowanceBucket, allowanceKey(owner, spender))
}

func setAllowance(ctx contractBase.KContext, owner, spender string, v *big.Int) error {
	if err := contractBase.PutAmount(ctx, allowanceBucket, allowanceKey(owner, spender), v); err != nil {
		return err
	}
	return ctx.EmitEvent("Approval", &Approval{Owner: owner, Spender: spender, Value: contractBase.NewAmount(v)})
}

func move(ctx contractBase.KContext, from, to string, amount *big.Int) error {
	fromBal, err := contractBase.GetAmount(ctx, balanceBucket, []byte(from))
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance.WithDetail("%s has %s, moving %s", from, fromBal, amount)
	}
	if from != to {
		toBal, err := contractBase.GetAmount(ctx, balanceBucket, []byte(to))
		if err != nil {
			return err
		}
		if err := contractBase.PutAmount(ctx, balanceBucket, []byte(from), fromBal.Sub(fromBal, amount)); err != nil {
			return err
		}
		if err := contractBase.PutAmount(ctx, balanceBucket, []byte(to), toBal.Add(toBal, amount)); err != nil {
			return err
		}
	}
	return ctx.EmitEvent("Transfer", &Transfer{From: from, To: to, Value: contractBase.NewAmount(amount)})
}

func addSupply(ctx contractBase.KContext, delta *big.Int) error {
	supply, err := contractBase.GetAmount(ctx, metaBucket, []byte(metaTotalSupply))
	if err != nil {
		return err
	}
	return contractBase.PutAmount(ctx, metaBucket, []byte(metaTotalSupply), supply.Add(supply, delta))
}
