/*
This file contains common utility functions for converting between SDK math
integers and the big.Int values used at the EVM boundary.
*/

package utils

import (
	"errors"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrAmountNil      = errors.New("amount is nil")
	ErrAmountNegative = errors.New("amount is negative")
)

// BigIntToSDKInt converts a big.Int returned by a contract call into an SDK Int.
func BigIntToSDKInt(amount *big.Int) (sdkmath.Int, error) {
	if amount == nil {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if amount.Sign() < 0 {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	return sdkmath.NewIntFromBigInt(amount), nil
}

// SDKIntToBigInt converts an SDK Int into the big.Int form contract calls expect.
func SDKIntToBigInt(amount sdkmath.Int) (*big.Int, error) {
	if amount.IsNil() {
		return nil, ErrAmountNil
	}
	if amount.IsNegative() {
		return nil, ErrAmountNegative
	}
	return amount.BigInt(), nil
}
