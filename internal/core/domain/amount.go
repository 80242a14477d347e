package domain

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmountOverflow is returned when an addition exceeds the uint64 range.
	ErrAmountOverflow = errors.New("amount overflow")
	// ErrNegativeAmount is returned when a parsed amount is below zero.
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrMalformedAmount is returned for anything that is not a base-10 integer.
	ErrMalformedAmount = errors.New("amount must be an integer in the smallest unit")
)

// Amount is a quantity of native value in its smallest indivisible unit.
type Amount uint64

// Add returns a+b, or ErrAmountOverflow instead of wrapping.
func (a Amount) Add(b Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, fmt.Errorf("%d + %d: %w", a, b, ErrAmountOverflow)
	}
	return Amount(sum), nil
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a == 0
}

// String renders the raw integer.
func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// MarshalText encodes the amount as a decimal string so JSON clients do not
// lose precision above 2^53.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	v, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Decimal converts the amount to a decimal scaled by 10^-decimals,
// e.g. 30000000000000000 with 18 decimals is 0.03.
func (a Amount) Decimal(decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -decimals)
}

// ParseAmount parses a base-10 integer string of smallest units.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		if !isDigits(rest) {
			return 0, ErrMalformedAmount
		}
		if strings.Trim(rest, "0") == "" {
			return 0, nil
		}
		return 0, ErrNegativeAmount
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, ErrAmountOverflow
		}
		return 0, ErrMalformedAmount
	}
	return Amount(v), nil
}

// ParseUnits converts a human decimal quantity ("0.03") into smallest units
// given the unit's decimals. Sub-unit precision is rejected rather than rounded.
func ParseUnits(s string, decimals int32) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrMalformedAmount
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return 0, ErrMalformedAmount
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return Amount(bi.Uint64()), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
