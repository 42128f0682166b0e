// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"ordsnipe/bitcoin"
)

const (
	// mainnetAPIURL defines default block explorer API endpoint for mainnet.
	mainnetAPIURL = "https://blockstream.info/api"
	// testnetAPIURL defines default block explorer API endpoint for testnet.
	testnetAPIURL = "https://blockstream.info/testnet/api"

	// defaultTimeout defines default timeout for explorer requests.
	defaultTimeout = time.Minute
)

// Config defines configuration for Client.
type Config struct {
	APIURL  string // optional, overrides the network default.
	Testnet bool
	Timeout time.Duration
}

// Client resolves transactions, spendable outputs and broadcasts signed
// transactions through an esplora-style block explorer API. The network is
// fixed at construction, one client never mixes networks.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient is a constructor for Client.
func NewClient(config Config, log *zap.Logger) *Client {
	baseURL := config.APIURL
	if baseURL == "" {
		baseURL = mainnetAPIURL
		if config.Testnet {
			baseURL = testnetAPIURL
		}
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// FetchTransaction resolves a transaction identifier to its full decoded transaction.
func (client *Client) FetchTransaction(ctx context.Context, txid string) (*wire.MsgTx, error) {
	body, err := client.get(ctx, "/tx/"+txid+"/hex")
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %s: %w", txid, err)
	}

	rawTx, err := hex.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %s: decode hex: %w", txid, err)
	}

	tx := new(wire.MsgTx)
	err = tx.Deserialize(bytes.NewReader(rawTx))
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %s: deserialize: %w", txid, err)
	}

	client.log.Debug("fetched transaction", zap.String("txid", txid),
		zap.Int("inputs", len(tx.TxIn)), zap.Int("outputs", len(tx.TxOut)))

	return tx, nil
}

// utxoResponse describes a single unspent output entry of the explorer API.
type utxoResponse struct {
	TxID  string `json:"txid"`
	Vout  uint32 `json:"vout"`
	Value int64  `json:"value"`
}

// FetchUTXOs resolves an address to its current spendable outputs.
// The provider's ordering is passed through unchanged.
func (client *Client) FetchUTXOs(ctx context.Context, address string) ([]bitcoin.UTXO, error) {
	body, err := client.get(ctx, "/address/"+address+"/utxo")
	if err != nil {
		return nil, fmt.Errorf("fetch utxos of %s: %w", address, err)
	}

	var entries []utxoResponse
	err = json.Unmarshal(body, &entries)
	if err != nil {
		return nil, fmt.Errorf("fetch utxos of %s: unmarshal: %w", address, err)
	}

	utxos := make([]bitcoin.UTXO, 0, len(entries))
	for _, entry := range entries {
		utxos = append(utxos, bitcoin.UTXO{
			TxHash:  entry.TxID,
			Index:   entry.Vout,
			Amount:  big.NewInt(entry.Value),
			Address: address,
		})
	}

	client.log.Debug("fetched utxos", zap.String("address", address), zap.Int("count", len(utxos)))

	return utxos, nil
}

// FetchOutputScript resolves the exact output script of the given previous
// output. The script reported by the utxo endpoint may be stale or partial,
// the originating transaction is authoritative.
func (client *Client) FetchOutputScript(ctx context.Context, txid string, index uint32) ([]byte, error) {
	tx, err := client.FetchTransaction(ctx, txid)
	if err != nil {
		return nil, err
	}

	if uint32(len(tx.TxOut)) <= index {
		return nil, fmt.Errorf("fetch output script: transaction %s has no output %d", txid, index)
	}

	return tx.TxOut[index].PkScript, nil
}

// Broadcast submits a signed transaction encoding to the network and returns
// the finalized transaction identifier.
func (client *Client) Broadcast(ctx context.Context, signedHex string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+"/tx", strings.NewReader(signedHex))
	if err != nil {
		return "", fmt.Errorf("broadcast: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	body, err := client.do(req)
	if err != nil {
		return "", fmt.Errorf("broadcast: %w", err)
	}

	txid := strings.TrimSpace(string(body))
	client.log.Info("broadcast transaction", zap.String("txid", txid))

	return txid, nil
}

// get performs GET request to the explorer and returns the response body.
func (client *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	return client.do(req)
}

// do executes the request, treating any non-2xx status as an error with the
// explorer's message attached.
func (client *Client) do(req *http.Request) ([]byte, error) {
	resp, err := client.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("explorer responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}
