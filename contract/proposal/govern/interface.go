package govern

import (
	contractBase "github.com/wooyang2018/govchain/contract/base"
)

// Config is the immutable part of a ledger set at initialize. UnstakePeriod
// is kept apart since the governor may change it.
type Config struct {
	Asset    string `json:"asset"`
	Vester   string `json:"vester"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// InitArgs seeds a ledger. Executor and ParametersAdmin receive their roles
// when set.
type InitArgs struct {
	Config
	UnstakePeriod   int64
	Executor        string
	ParametersAdmin string
}

type Deposit struct {
	Sender string               `json:"sender"`
	Owner  string               `json:"owner"`
	Assets *contractBase.Amount `json:"assets"`
	Shares *contractBase.Amount `json:"shares"`
}

type Withdraw struct {
	Sender   string               `json:"sender"`
	Receiver string               `json:"receiver"`
	Owner    string               `json:"owner"`
	Assets   *contractBase.Amount `json:"assets"`
	Shares   *contractBase.Amount `json:"shares"`
	VestId   uint64               `json:"vestId"`
}
