// Copyright (C) 2022 Creditor Corp. Group.
// See LICENSE for copying information.

package numbers

import (
	"math"
	"math/big"
)

// Zero defines 0 number.
const Zero = 0

// ZeroBigInt defies 0 as *big.Int type.
var ZeroBigInt = big.NewInt(0)

// OneBigInt defies 1 as *big.Int type.
var OneBigInt = big.NewInt(1)

// IsNegative returns true if the number is less than zero.
func IsNegative(num *big.Int) bool {
	return num.Sign() < Zero
}

// IsPositive returns true if the number is grater than zero.
func IsPositive(num *big.Int) bool {
	return num.Sign() > Zero
}

// IsZero returns true if the number is zero.
func IsZero(num *big.Int) bool {
	return num.Sign() == Zero
}

// IsGreater returns true is a > b.
func IsGreater(a, b *big.Int) bool {
	return a.Cmp(b) > Zero
}

// IsEqual returns true is a = b.
func IsEqual(a, b *big.Int) bool {
	return a.Cmp(b) == Zero
}

// IsLess returns true is a < b.
func IsLess(a, b *big.Int) bool {
	return a.Cmp(b) < Zero
}

// CeilFloatProduct multiplies amount by a display-precision float rate and
// rounds the result up to the nearest integer unit for settlement.
func CeilFloatProduct(rate float64, amount *big.Int) *big.Int {
	// satoshi totals fit float64 mantissa, the whole supply is below 2^53.
	amountFloat, _ := new(big.Float).SetInt(amount).Float64()

	result, _ := big.NewFloat(math.Ceil(rate * amountFloat)).Int(nil)

	return result
}
