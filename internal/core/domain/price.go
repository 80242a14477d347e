package domain

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNonPositiveRate is returned when the feed reports a zero or negative price.
	ErrNonPositiveRate = errors.New("price feed returned a non-positive rate")
	// ErrUnexpectedDecimals is returned when the feed precision differs from the configured one.
	ErrUnexpectedDecimals = errors.New("price feed decimals do not match configuration")
	// ErrStaleQuote is returned when a quote is older than the allowed age.
	ErrStaleQuote = errors.New("price quote is stale")
)

// PriceQuote is a single read of the reference price of one native unit.
// Rate is fixed-point with Decimals decimal places.
type PriceQuote struct {
	Rate      int64     `json:"rate"`
	Decimals  int32     `json:"decimals"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Decimal renders the rate as a decimal (200000000000 with 8 decimals is 2000).
func (q PriceQuote) Decimal() decimal.Decimal {
	return decimal.New(q.Rate, -q.Decimals)
}

// ConversionPolicy converts native value into reference-currency units and
// enforces the minimum contribution. Converted values are integers scaled by
// 10^RateDecimals and are floored, so a value that converts to 49.999... of a
// 50 minimum is rejected.
type ConversionPolicy struct {
	NativeDecimals int32
	RateDecimals   int32
	MaxQuoteAge    time.Duration

	minimum      decimal.Decimal
	minimumUnits *big.Int
	nativeScale  *big.Int
}

// NewConversionPolicy builds a policy from a reference-currency minimum such as "50".
// The minimum must be representable at the feed's precision.
func NewConversionPolicy(minimum decimal.Decimal, nativeDecimals, rateDecimals int32, maxQuoteAge time.Duration) (ConversionPolicy, error) {
	if minimum.IsNegative() {
		return ConversionPolicy{}, fmt.Errorf("minimum contribution must not be negative: %s", minimum)
	}
	if nativeDecimals < 0 || nativeDecimals > 36 {
		return ConversionPolicy{}, fmt.Errorf("native decimals out of range: %d", nativeDecimals)
	}
	if rateDecimals < 0 || rateDecimals > 18 {
		return ConversionPolicy{}, fmt.Errorf("rate decimals out of range: %d", rateDecimals)
	}
	scaled := minimum.Shift(rateDecimals)
	if !scaled.IsInteger() {
		return ConversionPolicy{}, fmt.Errorf("minimum %s has more than %d decimal places", minimum, rateDecimals)
	}
	return ConversionPolicy{
		NativeDecimals: nativeDecimals,
		RateDecimals:   rateDecimals,
		MaxQuoteAge:    maxQuoteAge,
		minimum:        minimum,
		minimumUnits:   scaled.BigInt(),
		nativeScale:    new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(nativeDecimals)), nil),
	}, nil
}

// Minimum returns the configured reference-currency floor.
func (p ConversionPolicy) Minimum() decimal.Decimal {
	return p.minimum
}

// CheckQuote validates a quote's plausibility at time now.
func (p ConversionPolicy) CheckQuote(q PriceQuote, now time.Time) error {
	if q.Rate <= 0 {
		return ErrNonPositiveRate
	}
	if q.Decimals != p.RateDecimals {
		return fmt.Errorf("got %d, want %d: %w", q.Decimals, p.RateDecimals, ErrUnexpectedDecimals)
	}
	if p.MaxQuoteAge > 0 && !q.UpdatedAt.IsZero() && now.Sub(q.UpdatedAt) > p.MaxQuoteAge {
		return fmt.Errorf("updated %s ago: %w", now.Sub(q.UpdatedAt).Truncate(time.Second), ErrStaleQuote)
	}
	return nil
}

// ToReference returns floor(value * rate / 10^NativeDecimals), i.e. the
// reference value scaled by 10^RateDecimals.
func (p ConversionPolicy) ToReference(value Amount, q PriceQuote) *big.Int {
	v := new(big.Int).SetUint64(uint64(value))
	v.Mul(v, big.NewInt(q.Rate))
	return v.Quo(v, p.nativeScale)
}

// MeetsMinimum reports whether a converted value is at least the minimum (inclusive).
func (p ConversionPolicy) MeetsMinimum(converted *big.Int) bool {
	return converted.Cmp(p.minimumUnits) >= 0
}

// FormatReference renders a converted value as a reference-currency decimal.
func (p ConversionPolicy) FormatReference(converted *big.Int) string {
	return decimal.NewFromBigInt(converted, -p.RateDecimals).String()
}
