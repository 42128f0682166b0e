// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"errors"
)

// ErrUnbalancedTransaction defines that input and output sums do not match the declared fee.
var ErrUnbalancedTransaction = errors.New("transaction value balance is not exact")
