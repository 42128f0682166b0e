// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// ErrMissingWitnessUtxo defines that a psbt input carries no witness utxo to sign against.
var ErrMissingWitnessUtxo = errors.New("psbt input misses witness utxo")

// Signer signs every input of a PSBT with taproot key-spend signatures.
// It implements the single-shot signing capability the snipe assembler
// expects from a caller-supplied callback.
type Signer struct {
	networkParams *chaincfg.Params
	privateKey    *btcec.PrivateKey
}

// NewSigner is a constructor for Signer.
func NewSigner(networkParams *chaincfg.Params, privateKey *btcec.PrivateKey) *Signer {
	return &Signer{
		networkParams: networkParams,
		privateKey:    privateKey,
	}
}

// Sign parses the base64 PSBT, signs each input against its witness utxo and
// returns the fully signed transaction hex ready for broadcast.
func (signer *Signer) Sign(ctx context.Context, unsignedPSBT string) (string, error) {
	packet, err := psbt.NewFromRawBytes(strings.NewReader(unsignedPSBT), true)
	if err != nil {
		return "", err
	}

	tx := packet.UnsignedTx.Copy()

	prevOutputFetcherMap := make(map[wire.OutPoint]*wire.TxOut, len(tx.TxIn))
	for idx, input := range packet.Inputs {
		if input.WitnessUtxo == nil {
			return "", ErrMissingWitnessUtxo
		}

		prevOutputFetcherMap[tx.TxIn[idx].PreviousOutPoint] = input.WitnessUtxo
	}

	var (
		prevOutputFetcher = txscript.NewMultiPrevOutFetcher(prevOutputFetcherMap)
		sigHashes         = txscript.NewTxSigHashes(tx, prevOutputFetcher)
	)
	for idx := range tx.TxIn {
		witnessUTXO := packet.Inputs[idx].WitnessUtxo

		witness, err := txscript.TaprootWitnessSignature(
			tx, sigHashes, idx, witnessUTXO.Value, witnessUTXO.PkScript,
			packet.Inputs[idx].SighashType, signer.privateKey)
		if err != nil {
			return "", err
		}

		tx.TxIn[idx].Witness = witness
	}

	w := bytes.NewBuffer(nil)
	err = tx.Serialize(w)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(w.Bytes()), nil
}
