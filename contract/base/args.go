package base

import (
	"encoding/json"
	"math/big"
	"strconv"
)

// ArgString returns a required non empty string argument.
func ArgString(ctx KContext, name string) (string, error) {
	v := ctx.Args()[name]
	if len(v) == 0 {
		return "", ErrInvalidArgs.WithDetail("missing %s", name)
	}
	return string(v), nil
}

// ArgOptString returns an optional string argument.
func ArgOptString(ctx KContext, name string) string {
	return string(ctx.Args()[name])
}

// ArgAmount parses a required non-negative decimal amount.
func ArgAmount(ctx KContext, name string) (*big.Int, error) {
	s, err := ArgString(ctx, name)
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, ErrInvalidArgs.WithDetail("bad amount %s=%q", name, s)
	}
	return v, nil
}

func ArgUint64(ctx KContext, name string) (uint64, error) {
	s, err := ArgString(ctx, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidArgs.WithDetail("bad integer %s=%q", name, s)
	}
	return v, nil
}

func ArgInt64(ctx KContext, name string) (int64, error) {
	s, err := ArgString(ctx, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidArgs.WithDetail("bad integer %s=%q", name, s)
	}
	return v, nil
}

func ArgUint32(ctx KContext, name string) (uint32, error) {
	s, err := ArgString(ctx, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, ErrInvalidArgs.WithDetail("bad integer %s=%q", name, s)
	}
	return uint32(v), nil
}

// ArgJSON decodes a required JSON argument into out.
func ArgJSON(ctx KContext, name string, out interface{}) error {
	v := ctx.Args()[name]
	if len(v) == 0 {
		return ErrInvalidArgs.WithDetail("missing %s", name)
	}
	if err := json.Unmarshal(v, out); err != nil {
		return ErrInvalidArgs.WithDetail("bad json %s: %v", name, err)
	}
	return nil
}

// Args is a small builder for call arguments.
type Args map[string][]byte

func NewArgs() Args {
	return make(Args)
}

func (a Args) Str(name, v string) Args {
	a[name] = []byte(v)
	return a
}

func (a Args) Amount(name string, v *big.Int) Args {
	a[name] = []byte(v.String())
	return a
}

func (a Args) Uint(name string, v uint64) Args {
	a[name] = []byte(strconv.FormatUint(v, 10))
	return a
}

func (a Args) Int(name string, v int64) Args {
	a[name] = []byte(strconv.FormatInt(v, 10))
	return a
}

func (a Args) JSON(name string, v interface{}) Args {
	buf, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	a[name] = buf
	return a
}
