package vester

import (
	"math/big"

	contractBase "github.com/wooyang2018/govchain/contract/base"
)

// Client creates vests on a deployed vester from inside another kernel
// contract. PSP22 vests need an allowance for the vester first.
type Client struct {
	Vester string
}

func NewClient(vester string) *Client {
	return &Client{Vester: vester}
}

// CreateVest schedules amount of asset for receiver. Native vests (empty
// asset) forward amount as call value.
func (c *Client) CreateVest(ctx contractBase.KContext, receiver, asset string, amount *big.Int,
	schedule ScheduleSpec) (uint64, error) {
	var value *big.Int
	if asset == "" {
		value = amount
	}
	args := contractBase.NewArgs().Str("receiver", receiver).Str("asset", asset).
		Amount("amount", amount).JSON("schedule", schedule)
	resp, err := ctx.Call(c.Vester, "createVest", args, value)
	if err != nil {
		return 0, err
	}
	var id uint64
	if err := resp.Decode(&id); err != nil {
		return 0, err
	}
	return id, nil
}
