// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

// Package main contains the snipe CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"ordsnipe/bitcoin/chain"
	"ordsnipe/bitcoin/signer"
	"ordsnipe/bitcoin/snipe"
)

var options struct {
	ReferenceTx        string        `long:"reference-tx" env:"SNIPE_REFERENCE_TX" required:"true" description:"reference transaction id to snipe from"`
	Inputs             []string      `long:"input" env:"SNIPE_INPUTS" env-delim:"," required:"true" description:"target input txid, repeatable"`
	Fee                int64         `long:"fee" env:"SNIPE_FEE" required:"true" description:"desired miner fee in satoshi"`
	OrdinalAddress     string        `long:"ordinal-address" env:"SNIPE_ORDINAL_ADDRESS" required:"true" description:"buyer address receiving the sniped ordinals"`
	PaymentAddress     string        `long:"payment-address" env:"SNIPE_PAYMENT_ADDRESS" required:"true" description:"buyer address funding the purchase and receiving change"`
	ServiceFeeAddress  string        `long:"service-fee-address" env:"SNIPE_SERVICE_FEE_ADDRESS" required:"true" description:"marketplace service fee collection address"`
	ServiceFeeRate     float64       `long:"service-fee-rate" env:"SNIPE_SERVICE_FEE_RATE" default:"0.02" description:"service fee rate over the ordinal payment total"`
	WIF                string        `long:"wif" env:"SNIPE_WIF" required:"true" description:"private key in WIF for local taproot signing"`
	APIURL             string        `long:"api-url" env:"SNIPE_API_URL" description:"block explorer api url override"`
	Testnet            bool          `long:"testnet" env:"SNIPE_TESTNET" description:"use testnet"`
	RequireReplaceable bool          `long:"require-replaceable" env:"SNIPE_REQUIRE_REPLACEABLE" description:"reject reference transactions that do not signal replace-by-fee"`
	Timeout            time.Duration `long:"timeout" env:"SNIPE_TIMEOUT" default:"1m" description:"explorer request timeout"`
}

func main() {
	_, err := flags.Parse(&options)
	if err != nil {
		os.Exit(1)
	}

	log, err := zap.NewProduction()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	networkParams := &chaincfg.MainNetParams
	if options.Testnet {
		networkParams = &chaincfg.TestNet3Params
	}

	wif, err := btcutil.DecodeWIF(options.WIF)
	if err != nil {
		log.Error("invalid wif", zap.Error(err))
		os.Exit(1)
	}

	client := chain.NewClient(chain.Config{
		APIURL:  options.APIURL,
		Testnet: options.Testnet,
		Timeout: options.Timeout,
	}, log)

	assembler := snipe.NewAssembler(snipe.Config{
		ServiceFeeRate:     options.ServiceFeeRate,
		ServiceFeeAddress:  options.ServiceFeeAddress,
		RequireReplaceable: options.RequireReplaceable,
		NetworkParams:      networkParams,
	}, client, log)

	txid, err := assembler.Assemble(context.Background(), snipe.Request{
		ReferenceTxID:       options.ReferenceTx,
		TargetInputIDs:      options.Inputs,
		DesiredFee:          big.NewInt(options.Fee),
		BuyerOrdinalAddress: options.OrdinalAddress,
		BuyerPaymentAddress: options.PaymentAddress,
		Signer:              signer.NewSigner(networkParams, wif.PrivKey).Sign,
	})
	if err != nil {
		log.Error("snipe assembly failed", zap.Error(err))
		os.Exit(1)
	}

	log.Info("snipe transaction finalized", zap.String("txid", txid))
}
