package psp22

import (
	"math/big"

	contractBase "github.com/wooyang2018/govchain/contract/base"
)

// Client calls a deployed token from inside another kernel contract. The
// running contract is the caller of every call.
type Client struct {
	Asset string
}

func NewClient(asset string) *Client {
	return &Client{Asset: asset}
}

func (c *Client) Transfer(ctx contractBase.KContext, to string, amount *big.Int) error {
	_, err := ctx.Call(c.Asset, "transfer", contractBase.NewArgs().
		Str("to", to).Amount("amount", amount), nil)
	return err
}

func (c *Client) TransferFrom(ctx contractBase.KContext, from, to string, amount *big.Int) error {
	_, err := ctx.Call(c.Asset, "transferFrom", contractBase.NewArgs().
		Str("from", from).Str("to", to).Amount("amount", amount), nil)
	return err
}

func (c *Client) Approve(ctx contractBase.KContext, spender string, amount *big.Int) error {
	_, err := ctx.Call(c.Asset, "approve", contractBase.NewArgs().
		Str("spender", spender).Amount("amount", amount), nil)
	return err
}

func (c *Client) BalanceOf(ctx contractBase.KContext, owner string) (*big.Int, error) {
	resp, err := ctx.Call(c.Asset, "balanceOf", contractBase.NewArgs().Str("owner", owner), nil)
	if err != nil {
		return nil, err
	}
	out := new(contractBase.Amount)
	if err := resp.Decode(out); err != nil {
		return nil, err
	}
	return out.Int(), nil
}

// Decimals answers the token decimals, DefaultDecimals when the asset cannot tell.
func (c *Client) Decimals(ctx contractBase.KContext) uint8 {
	resp, err := ctx.Call(c.Asset, "tokenDecimals", nil, nil)
	if err != nil {
		return DefaultDecimals
	}
	var v uint8
	if err := resp.Decode(&v); err != nil {
		return DefaultDecimals
	}
	return v
}
