package base

import (
	"bytes"
	"fmt"
	"math/big"
)

// Amount is an arbitrary precision non-negative integer that travels as a
// decimal JSON string.
type Amount big.Int

func NewAmount(v *big.Int) *Amount {
	if v == nil {
		return new(Amount)
	}
	return (*Amount)(new(big.Int).Set(v))
}

// AmountOf parses a decimal string, an empty string is zero.
func AmountOf(s string) (*Amount, error) {
	if s == "" {
		return new(Amount), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, ErrInvalidArgs.WithDetail("bad amount %q", s)
	}
	return (*Amount)(v), nil
}

// Int returns a copy of a as a big.Int, nil reads as zero.
func (a *Amount) Int() *big.Int {
	if a == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(a))
}

func (a *Amount) String() string {
	if a == nil {
		return "0"
	}
	return (*big.Int)(a).String()
}

func (a *Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted or a bare decimal number.
func (a *Amount) UnmarshalJSON(buf []byte) error {
	s := string(bytes.Trim(buf, `"`))
	if s == "null" {
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("bad amount %s", buf)
	}
	(*big.Int)(a).Set(v)
	return nil
}

// MulDivDown returns floor(x * y / d) in full precision, zero when d is zero.
func MulDivDown(x, y, d *big.Int) *big.Int {
	if d.Sign() == 0 {
		return new(big.Int)
	}
	r := new(big.Int).Mul(x, y)
	return r.Quo(r, d)
}
