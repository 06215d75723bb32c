package base

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"

	"github.com/wooyang2018/govchain/storage"
)

var (
	contractNameRegex = regexp.MustCompile("^[a-zA-Z_$]{1}[0-9a-zA-Z_.]+[0-9a-zA-Z_]$")
)

const (
	contractNameMaxSize = 32
	contractNameMinSize = 3
)

// ValidContractName return error when contractName is not a valid contract name.
func ValidContractName(contractName string) error {
	contractSize := len(contractName)
	if contractSize > contractNameMaxSize || contractSize < contractNameMinSize {
		return fmt.Errorf("contract name length expect [%d~%d], actual: %d", contractNameMinSize, contractNameMaxSize, contractSize)
	}
	if !contractNameRegex.MatchString(contractName) {
		return fmt.Errorf("contract name does not fit the rule of contract name")
	}
	return nil
}

// NewResponse builds a successful response with a JSON body.
func NewResponse(body interface{}) (*Response, error) {
	if body == nil {
		return &Response{Status: StatusOK}, nil
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal response failed.err:%v", err)
	}
	return &Response{Status: StatusOK, Body: buf}, nil
}

// Decode unmarshals the response body into out.
func (r *Response) Decode(out interface{}) error {
	if r == nil || len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.Body, out)
}

// GetObject loads a JSON object from state. found is false if the key is absent.
func GetObject(ctx StateSandbox, bucket string, key []byte, out interface{}) (bool, error) {
	buf, err := ctx.Get(bucket, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return false, fmt.Errorf("unmarshal %s/%s failed.err:%v", bucket, key, err)
	}
	return true, nil
}

func PutObject(ctx StateSandbox, bucket string, key []byte, in interface{}) error {
	buf, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return ctx.Put(bucket, key, buf)
}

// GetAmount loads a decimal amount, absent keys read as zero.
func GetAmount(ctx StateSandbox, bucket string, key []byte) (*big.Int, error) {
	buf, err := ctx.Get(bucket, key)
	if errors.Is(err, storage.ErrNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(string(buf), 10)
	if !ok {
		return nil, fmt.Errorf("bad amount at %s/%s", bucket, key)
	}
	return v, nil
}

// PutAmount stores a decimal amount, zero deletes the key.
func PutAmount(ctx StateSandbox, bucket string, key []byte, v *big.Int) error {
	if v.Sign() == 0 {
		err := ctx.Del(bucket, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	return ctx.Put(bucket, key, []byte(v.String()))
}

func GetUint64(ctx StateSandbox, bucket string, key []byte) (uint64, error) {
	buf, err := ctx.Get(bucket, key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(buf), 10, 64)
}

func PutUint64(ctx StateSandbox, bucket string, key []byte, v uint64) error {
	return ctx.Put(bucket, key, []byte(strconv.FormatUint(v, 10)))
}
