// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package utils

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ErrNoAddressInScript defines that output script does not encode a standard address.
var ErrNoAddressInScript = errors.New("no address in output script")

// AddressFromScript extracts the canonical destination address encoded by an output script.
func AddressFromScript(script []byte, networkParams *chaincfg.Params) (string, error) {
	_, addresses, _, err := txscript.ExtractPkScriptAddrs(script, networkParams)
	if err != nil {
		return "", err
	}

	if len(addresses) == 0 {
		return "", ErrNoAddressInScript
	}

	return addresses[0].EncodeAddress(), nil
}

// PayToAddrScript decodes an address for the given network and compiles its locking script.
func PayToAddrScript(address string, networkParams *chaincfg.Params) ([]byte, error) {
	decodedAddress, err := btcutil.DecodeAddress(address, networkParams)
	if err != nil {
		return nil, err
	}

	return txscript.PayToAddrScript(decodedAddress)
}
