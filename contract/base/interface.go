package base

import (
	"math/big"

	"github.com/wooyang2018/govchain/logger"
)

type KernRegistry interface {
	RegisterKernMethod(contract, method string, handler KernMethod)
	UnregisterKernMethod(contract, method string)
	GetKernMethod(contract, method string) (KernMethod, error)
	// Contracts lists the contract names with at least one registered method
	Contracts() []string
}

type KernMethod func(ctx KContext) (*Response, error)

// Contract is a kernel contract kind. A kind may be deployed several times
// under different names, each deployment owning its own state.
type Contract interface {
	Methods() map[string]KernMethod
}

type KContext interface {
	// 交易相关数据
	Args() map[string][]byte
	Initiator() string
	Caller() string
	// Self is the name of the running contract, which is also its account
	Self() string
	// Now is the block timestamp in milliseconds
	Now() int64
	// Value is the native amount transferred along with the call
	Value() *big.Int

	// 状态修改接口，按合约名隔离
	StateSandbox

	NativeBalance(account string) *big.Int
	// TransferNative moves native currency out of the running contract's account
	TransferNative(to string, amount *big.Int) error

	Call(contract, method string, args map[string][]byte, value *big.Int) (*Response, error)

	EmitEvent(name string, body interface{}) error
	GetLog() logger.Logger
}

type StateSandbox interface {
	Get(bucket string, key []byte) ([]byte, error)
	Put(bucket string, key, value []byte) error
	Del(bucket string, key []byte) error
	// Select iterates keys of bucket in [startKey, endKey); an empty endKey
	// means the end of the bucket
	Select(bucket string, startKey []byte, endKey []byte) (Iterator, error)
}

// Iterator is the interface to iterate state. Keys are returned without
// their bucket prefix.
type Iterator interface {
	Key() []byte
	Value() []byte
	Next() bool
	Error() error
	Close()
}

const (
	// StatusOK is used when contract successfully ends.
	StatusOK = 200
	// StatusErrorThreshold is the status dividing line for the normal operation of the contract
	StatusErrorThreshold = 400
	// StatusError is used when contract fails.
	StatusError = 500
)

// Response is the result of the contract run
type Response struct {
	// Status 用于反映合约的运行结果的错误码
	Status int `json:"status"`
	// Message 用于携带一些有用的debug信息
	Message string `json:"message"`
	// Body 字段用于存储合约执行的结果，JSON编码
	Body []byte `json:"body"`
}

// Event is emitted by a contract and delivered once the transaction commits.
type Event struct {
	Contract  string `json:"contract"`
	Name      string `json:"name"`
	Body      []byte `json:"body"`
	Timestamp int64  `json:"timestamp"`
}
