// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"ordsnipe/bitcoin/utils"
	"ordsnipe/internal/numbers"
)

const (
	// txVersion defines transaction version for this builder.
	txVersion int32 = 2
	// signHashType define signature hash type for input signing.
	signHashType = txscript.SigHashAll
)

// NonDustAmount defines the smallest amount in satoshi an output or funding
// utxo is allowed to carry before it is considered uneconomical.
var NonDustAmount = big.NewInt(546)

// BuildingTx is an append-only transaction under construction. It accumulates
// typed inputs with their witness data and typed outputs, tracks exact input
// and output sums, and serializes itself into a signer-ready PSBT.
// A BuildingTx is owned by a single assembly run and is not safe for
// concurrent mutation.
type BuildingTx struct {
	networkParams *chaincfg.Params
	tx            *wire.MsgTx
	witnessUTXOs  []*wire.TxOut
	inputSum      *big.Int
	outputSum     *big.Int
}

// NewBuildingTx is a constructor for BuildingTx.
func NewBuildingTx(networkParams *chaincfg.Params) *BuildingTx {
	return &BuildingTx{
		networkParams: networkParams,
		tx:            wire.NewMsgTx(txVersion),
		inputSum:      big.NewInt(0),
		outputSum:     big.NewInt(0),
	}
}

// AddInput appends an input spending the given previous output along with the
// witness utxo data required to sign it, and accumulates the witness amount
// into the input sum.
func (b *BuildingTx) AddInput(prevTxHash string, prevIndex uint32, sequence uint32, witnessAmount *big.Int, witnessScript []byte) error {
	utxoHash, err := chainhash.NewHashFromStr(prevTxHash)
	if err != nil {
		return err
	}

	txIn := wire.NewTxIn(wire.NewOutPoint(utxoHash, prevIndex), nil, nil)
	txIn.Sequence = sequence
	b.tx.AddTxIn(txIn)

	b.witnessUTXOs = append(b.witnessUTXOs, wire.NewTxOut(witnessAmount.Int64(), witnessScript))
	b.inputSum.Add(b.inputSum, witnessAmount)

	return nil
}

// AddOutput appends an output paying the amount to the address and accumulates
// the amount into the output sum.
func (b *BuildingTx) AddOutput(address string, amount *big.Int) error {
	script, err := utils.PayToAddrScript(address, b.networkParams)
	if err != nil {
		return err
	}

	b.tx.AddTxOut(wire.NewTxOut(amount.Int64(), script))
	b.outputSum.Add(b.outputSum, amount)

	return nil
}

// InputSum returns the accumulated witness amount of all inputs.
func (b *BuildingTx) InputSum() *big.Int {
	return new(big.Int).Set(b.inputSum)
}

// OutputSum returns the accumulated amount of all outputs.
func (b *BuildingTx) OutputSum() *big.Int {
	return new(big.Int).Set(b.outputSum)
}

// Tx returns the underlying unsigned transaction.
func (b *BuildingTx) Tx() *wire.MsgTx {
	return b.tx
}

// CheckBalance verifies that the input sum equals the output sum plus the
// declared fee exactly. The fee is the implicit value retained by the network,
// it participates in the balance only, never as an output.
func (b *BuildingTx) CheckBalance(fee *big.Int) error {
	total := new(big.Int).Add(b.outputSum, fee)
	if !numbers.IsEqual(b.inputSum, total) {
		return fmt.Errorf("%w: inputs %s, outputs plus fee %s", ErrUnbalancedTransaction, b.inputSum, total)
	}

	return nil
}

// PSBT serializes the transaction into a partly signed bitcoin transaction
// with witness utxo data attached to every input.
func (b *BuildingTx) PSBT() ([]byte, error) {
	p, err := psbt.NewFromUnsignedTx(b.tx)
	if err != nil {
		return nil, err
	}

	for i, witnessUTXO := range b.witnessUTXOs {
		p.Inputs[i].WitnessUtxo = witnessUTXO
		p.Inputs[i].SighashType = signHashType
	}

	w := bytes.NewBuffer(nil)
	err = p.Serialize(w)
	if err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// PSBTBase64 returns the PSBT in base64 encoding for signer handoff.
func (b *BuildingTx) PSBTBase64() (string, error) {
	raw, err := b.PSBT()
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}
