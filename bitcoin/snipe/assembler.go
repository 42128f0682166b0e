// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package snipe

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"ordsnipe/bitcoin"
	"ordsnipe/bitcoin/txbuilder"
	"ordsnipe/bitcoin/utils"
	"ordsnipe/internal/numbers"
)

// ChainReader resolves transactions and spendable outputs from the network.
type ChainReader interface {
	FetchTransaction(ctx context.Context, txid string) (*wire.MsgTx, error)
	FetchUTXOs(ctx context.Context, address string) ([]bitcoin.UTXO, error)
	FetchOutputScript(ctx context.Context, txid string, index uint32) ([]byte, error)
	Broadcast(ctx context.Context, signedHex string) (string, error)
}

// SignFunc is a caller-supplied single-shot signing capability. It accepts the
// unsigned transaction as base64 PSBT and returns the signed transaction hex.
type SignFunc func(ctx context.Context, unsignedPSBT string) (signedHex string, err error)

// Config defines configuration for Assembler.
type Config struct {
	ServiceFeeRate     float64 // fixed fraction of the ordinal payment total.
	ServiceFeeAddress  string
	DustFloor          *big.Int // funding utxos at or below this value are skipped.
	RequireReplaceable bool     // reject reference transactions that do not signal BIP-125.
	NetworkParams      *chaincfg.Params
}

// Request describes one snipe assembly run.
type Request struct {
	ReferenceTxID       string
	TargetInputIDs      []string // non-empty, ordered, not de-duplicated.
	DesiredFee          *big.Int // in satoshi, pre-rounded, non-negative.
	BuyerOrdinalAddress string
	BuyerPaymentAddress string
	Signer              SignFunc
}

// Assembler builds an unsigned transaction that snipes inscribed outputs out
// of a previously broadcast transaction: it mirrors the selected inputs,
// redirects their value to the buyer, preserves the seller's payment outputs,
// funds fee and service fee from buyer utxos and emits change.
type Assembler struct {
	config Config
	chain  ChainReader
	log    *zap.Logger
}

// NewAssembler is a constructor for Assembler.
func NewAssembler(config Config, chainReader ChainReader, log *zap.Logger) *Assembler {
	if config.DustFloor == nil {
		config.DustFloor = txbuilder.NonDustAmount
	}
	if config.NetworkParams == nil {
		config.NetworkParams = &chaincfg.MainNetParams
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Assembler{
		config: config,
		chain:  chainReader,
		log:    log,
	}
}

// assembly holds the mutable state of one assembly run: the transaction under
// construction and the explicit accumulators threaded through every step.
type assembly struct {
	building        *txbuilder.BuildingTx
	sellerAddresses map[string]struct{}
	ordinalPayment  *big.Int // what the buyer owes the sellers for the sniped items.
	fundingInput    *big.Int // total value of buyer utxos pulled in as inputs.
}

// newAssembly is a constructor for assembly.
func newAssembly(networkParams *chaincfg.Params) *assembly {
	return &assembly{
		building:        txbuilder.NewBuildingTx(networkParams),
		sellerAddresses: make(map[string]struct{}),
		ordinalPayment:  big.NewInt(0),
		fundingInput:    big.NewInt(0),
	}
}

// Assemble runs one full snipe: builds the unsigned transaction, hands it to
// the signer and broadcasts the result. Returns the final transaction
// identifier. Any failure aborts the run, no partial transaction is ever
// broadcast.
func (a *Assembler) Assemble(ctx context.Context, req Request) (string, error) {
	if req.Signer == nil {
		return "", errors.New("no signer provided")
	}

	building, err := a.AssembleUnsigned(ctx, req)
	if err != nil {
		return "", err
	}

	unsignedPSBT, err := building.PSBTBase64()
	if err != nil {
		return "", err
	}

	signedHex, err := req.Signer(ctx, unsignedPSBT)
	if err != nil {
		return "", errors.Join(ErrSignerRejected, err)
	}
	if signedHex == "" {
		return "", ErrSignerRejected
	}

	txid, err := a.chain.Broadcast(ctx, signedHex)
	if err != nil {
		return "", errors.Join(ErrNetwork, err)
	}

	a.log.Info("snipe transaction broadcast", zap.String("txid", txid),
		zap.String("reference", req.ReferenceTxID))

	return txid, nil
}

// AssembleUnsigned builds and balance-checks the unsigned snipe transaction
// without signing or broadcasting it.
func (a *Assembler) AssembleUnsigned(ctx context.Context, req Request) (*txbuilder.BuildingTx, error) {
	err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	refTx, err := a.chain.FetchTransaction(ctx, req.ReferenceTxID)
	if err != nil {
		return nil, errors.Join(ErrNetwork, err)
	}

	if a.config.RequireReplaceable && !IsReplaceable(refTx) {
		return nil, ErrNotReplaceable
	}

	run := newAssembly(a.config.NetworkParams)

	err = a.redirectTargetInputs(ctx, run, refTx, req)
	if err != nil {
		return nil, err
	}

	err = a.matchPaymentOutputs(run, refTx)
	if err != nil {
		return nil, err
	}

	serviceFee := a.serviceFee(run.ordinalPayment)

	err = a.fundFromBuyer(ctx, run, req, serviceFee)
	if err != nil {
		return nil, err
	}

	err = a.appendServiceFeeAndChange(run, req, serviceFee)
	if err != nil {
		return nil, err
	}

	err = run.building.CheckBalance(req.DesiredFee)
	if err != nil {
		return nil, err
	}

	a.log.Debug("assembled unsigned snipe transaction",
		zap.String("reference", req.ReferenceTxID),
		zap.String("ordinalPayment", run.ordinalPayment.String()),
		zap.String("serviceFee", serviceFee.String()),
		zap.String("fundingInput", run.fundingInput.String()))

	return run.building, nil
}

// redirectTargetInputs mirrors every requested target input of the reference
// transaction into the building transaction and pays its full witness amount
// to the buyer's ordinal address. Inputs are matched by previous-transaction
// identifier, not by position: the reference ordering is not guaranteed to
// match the caller's selection order, and a caller may select a strict subset.
// The seller address behind each witness script is recorded for payment
// output matching.
func (a *Assembler) redirectTargetInputs(ctx context.Context, run *assembly, refTx *wire.MsgTx, req Request) error {
	for _, targetID := range req.TargetInputIDs {
		txIn := findInputByPrevTx(refTx, targetID)
		if txIn == nil {
			return fmt.Errorf("%w: %s", ErrInputNotFound, targetID)
		}

		prevTx, err := a.chain.FetchTransaction(ctx, targetID)
		if err != nil {
			return errors.Join(ErrNetwork, err)
		}

		prevIndex := txIn.PreviousOutPoint.Index
		if uint32(len(prevTx.TxOut)) <= prevIndex {
			return fmt.Errorf("%w: %s has no output %d", ErrMissingWitnessData, targetID, prevIndex)
		}

		witnessUTXO := prevTx.TxOut[prevIndex]
		if len(witnessUTXO.PkScript) == 0 || witnessUTXO.Value == 0 {
			return fmt.Errorf("%w: %s:%d", ErrMissingWitnessData, targetID, prevIndex)
		}

		witnessAmount := big.NewInt(witnessUTXO.Value)
		err = run.building.AddInput(targetID, prevIndex, txIn.Sequence, witnessAmount, witnessUTXO.PkScript)
		if err != nil {
			return err
		}

		// redirected ordinal output for the buyer.
		err = run.building.AddOutput(req.BuyerOrdinalAddress, witnessAmount)
		if err != nil {
			return err
		}

		sellerAddress, err := utils.AddressFromScript(witnessUTXO.PkScript, a.config.NetworkParams)
		if err != nil {
			return fmt.Errorf("%w: %s:%d: %v", ErrMissingWitnessData, targetID, prevIndex, err)
		}

		run.sellerAddresses[sellerAddress] = struct{}{}
	}

	return nil
}

// matchPaymentOutputs copies every reference transaction output addressed to a
// recorded seller into the building transaction with an identical amount and
// accumulates the ordinal payment total. The match is purely address-set
// based, not per-input-linked: an output paying the seller of an unselected
// input is matched as well.
func (a *Assembler) matchPaymentOutputs(run *assembly, refTx *wire.MsgTx) error {
	for idx, txOut := range refTx.TxOut {
		if len(txOut.PkScript) == 0 || txOut.Value == 0 {
			return fmt.Errorf("%w: output %d", ErrMissingOutputData, idx)
		}

		address, err := utils.AddressFromScript(txOut.PkScript, a.config.NetworkParams)
		if err != nil {
			// a script without a standard address cannot match a seller.
			continue
		}

		if _, ok := run.sellerAddresses[address]; !ok {
			continue
		}

		amount := big.NewInt(txOut.Value)
		err = run.building.AddOutput(address, amount)
		if err != nil {
			return err
		}

		run.ordinalPayment.Add(run.ordinalPayment, amount)
	}

	return nil
}

// serviceFee returns the marketplace cut: a fixed fraction of the ordinal
// payment total rounded up for settlement, zero when the total is zero.
func (a *Assembler) serviceFee(ordinalPayment *big.Int) *big.Int {
	if numbers.IsZero(ordinalPayment) {
		return big.NewInt(0)
	}

	return numbers.CeilFloatProduct(a.config.ServiceFeeRate, ordinalPayment)
}

// fundFromBuyer pulls buyer utxos into the building transaction until
// fee + service fee + ordinal payment is covered. Selection is greedy and
// first-fit in provider order, utxos at or below the dust floor are skipped,
// and each accepted utxo's output script is re-resolved from its originating
// transaction.
func (a *Assembler) fundFromBuyer(ctx context.Context, run *assembly, req Request, serviceFee *big.Int) error {
	needed := new(big.Int).Add(req.DesiredFee, serviceFee)
	needed.Add(needed, run.ordinalPayment)

	utxos, err := a.chain.FetchUTXOs(ctx, req.BuyerPaymentAddress)
	if err != nil {
		return errors.Join(ErrNetwork, err)
	}

	outstanding := new(big.Int).Set(needed)
	for _, utxo := range utxos {
		if !numbers.IsGreater(utxo.Amount, a.config.DustFloor) {
			continue
		}

		script, err := a.chain.FetchOutputScript(ctx, utxo.TxHash, utxo.Index)
		if err != nil {
			return errors.Join(ErrNetwork, err)
		}

		err = run.building.AddInput(utxo.TxHash, utxo.Index, wire.MaxTxInSequenceNum, utxo.Amount, script)
		if err != nil {
			return err
		}

		run.fundingInput.Add(run.fundingInput, utxo.Amount)
		outstanding.Sub(outstanding, utxo.Amount)
		if !numbers.IsPositive(outstanding) {
			break
		}
	}

	if numbers.IsPositive(outstanding) {
		return &InsufficientFundsError{Need: needed, Have: new(big.Int).Set(run.fundingInput)}
	}

	return nil
}

// appendServiceFeeAndChange emits the service fee output if any fee is due and
// returns the remaining funding value to the buyer's payment address. No dust
// check is applied to the change output.
func (a *Assembler) appendServiceFeeAndChange(run *assembly, req Request, serviceFee *big.Int) error {
	if numbers.IsPositive(serviceFee) {
		err := run.building.AddOutput(a.config.ServiceFeeAddress, serviceFee)
		if err != nil {
			return err
		}
	}

	change := new(big.Int).Sub(run.fundingInput, req.DesiredFee)
	change.Sub(change, serviceFee)
	change.Sub(change, run.ordinalPayment)

	if numbers.IsPositive(change) {
		err := run.building.AddOutput(req.BuyerPaymentAddress, change)
		if err != nil {
			return err
		}
	}

	return nil
}

// findInputByPrevTx returns the reference input spending an output of the
// given previous transaction, or nil if none does.
func findInputByPrevTx(tx *wire.MsgTx, prevTxID string) *wire.TxIn {
	for _, txIn := range tx.TxIn {
		if txIn.PreviousOutPoint.Hash.String() == prevTxID {
			return txIn
		}
	}

	return nil
}

// validateRequest checks request fields required before any network call.
func validateRequest(req Request) error {
	switch {
	case req.ReferenceTxID == "":
		return errors.New("no reference transaction id provided")
	case len(req.TargetInputIDs) == 0:
		return errors.New("no target inputs requested")
	case req.DesiredFee == nil || numbers.IsNegative(req.DesiredFee):
		return errors.New("desired fee must be a non-negative amount")
	case req.BuyerOrdinalAddress == "":
		return errors.New("no buyer ordinal address provided")
	case req.BuyerPaymentAddress == "":
		return errors.New("no buyer payment address provided")
	}

	return nil
}
