// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package snipe

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrInputNotFound defines that a requested target input is absent from the reference transaction.
	ErrInputNotFound = errors.New("target input not found in reference transaction")

	// ErrMissingWitnessData defines that the utxo a target input spends misses script or amount.
	ErrMissingWitnessData = errors.New("witness utxo misses script or amount")

	// ErrMissingOutputData defines that a reference transaction output misses script or amount.
	ErrMissingOutputData = errors.New("reference output misses script or amount")

	// ErrInsufficientFunds defines that buyer utxos cannot cover fee, service fee and payment total.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSignerRejected defines that the signing callback failed or returned malformed data.
	ErrSignerRejected = errors.New("signer rejected transaction")

	// ErrNetwork defines that a chain reader call failed.
	ErrNetwork = errors.New("chain reader request failed")

	// ErrNotReplaceable defines that no input of the reference transaction signals replace-by-fee.
	ErrNotReplaceable = errors.New("reference transaction does not signal replaceability")
)

// InsufficientFundsError describes an insufficient balance failure with details.
type InsufficientFundsError struct {
	Need *big.Int
	Have *big.Int
}

// Error returns error description.
func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: need %s, have %s", ErrInsufficientFunds, e.Need, e.Have)
}

// Is implements comparator method for [errors] package.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
