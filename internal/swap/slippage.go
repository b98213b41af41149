/*

Minimum-output calculation for swap slippage protection. Pure functions,
no state: the executor feeds them the current bound before every swap.

*/

package swap

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

const (
	// BpsDenominator is the basis-point scale: 10000 bps = 100%.
	BpsDenominator = 10000

	// MaxSlippageBps caps the tolerance at 5%.
	MaxSlippageBps = 500
)

var (
	ErrInvalidSlippageBps = errors.New("slippage bps out of range")
	ErrZeroQuote          = errors.New("quote is zero")
	ErrMarginCollapsed    = errors.New("slippage margin collapsed to zero")
)

// ValidateSlippageBps checks a tolerance is in the inclusive range (0, 500].
func ValidateSlippageBps(bps int64) error {
	if bps <= 0 || bps > MaxSlippageBps {
		return fmt.Errorf("%w: %d (must be in (0, %d])", ErrInvalidSlippageBps, bps, MaxSlippageBps)
	}
	return nil
}

// MinimumOutput computes the smallest acceptable swap output from a quoted
// amount and a basis-point tolerance, using floor division:
//
//	minOut = quoted * (10000 - bps) / 10000
//
// A zero quote means the route is temporarily unusable. When the tolerance
// margin quoted*bps/10000 itself floors to zero the guard would be a no-op,
// so the amount is too small for the configured tolerance (q >= 20 at the
// 500 bps cap); that signals misconfiguration and is not retryable.
func MinimumOutput(quoted sdkmath.Int, bps int64) (sdkmath.Int, error) {
	if err := ValidateSlippageBps(bps); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if quoted.IsNil() || !quoted.IsPositive() {
		return sdkmath.ZeroInt(), ErrZeroQuote
	}

	if quoted.MulRaw(bps).QuoRaw(BpsDenominator).IsZero() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: quoted %s at %d bps", ErrMarginCollapsed, quoted.String(), bps)
	}
	return quoted.MulRaw(BpsDenominator - bps).QuoRaw(BpsDenominator), nil
}
