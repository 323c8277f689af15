package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"helium-ledger/pkg/errno"
)

// BonesPerUnit 1 HNT = 100_000_000 bones
const BonesPerUnit = 100_000_000

var unitScale = decimal.NewFromInt(BonesPerUnit)

// Amount is a quantity in bones. Wire and fee arithmetic only ever see the integer.
type Amount uint64

// ParseAmount parses a display-unit string ("1.5", "0.00000001") into bones without going
// through a float.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errno.ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %q", errno.ErrInvalidAmount, s)
	}
	bones := d.Mul(unitScale)
	if !bones.Equal(bones.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q has more than 8 decimal places", errno.ErrInvalidAmount, s)
	}
	if bones.GreaterThan(decimal.NewFromUint64(math.MaxUint64)) {
		return 0, fmt.Errorf("%w: %q overflows", errno.ErrInvalidAmount, s)
	}
	return Amount(bones.BigInt().Uint64()), nil
}

func (a Amount) Bones() uint64 {
	return uint64(a)
}

// Decimal is the presentation value (bones / 10^8).
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromUint64(uint64(a)).Div(unitScale)
}

// Float64 is presentation-only; never feed it back into a transaction.
func (a Amount) Float64() float64 {
	f, _ := a.Decimal().Float64()
	return f
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(8)
}

// Set and Type let Amount be used directly as a cobra/pflag value.
func (a *Amount) Set(s string) error {
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a *Amount) Type() string {
	return "hnt"
}
