package heliumapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"helium-ledger/pkg/address"
	"helium-ledger/pkg/errno"
	"helium-ledger/pkg/fee"
	"helium-ledger/pkg/logger"
	"helium-ledger/pkg/wallet/types"
)

const (
	DefaultMainNetURL = "https://api.helium.io"
	DefaultTestNetURL = "https://testnet-api.helium.wtf"
	DefaultTimeout    = 15 * time.Second
)

// Account is the ledger state of a wallet.
type Account struct {
	Address          string       `json:"address"`
	Balance          types.Amount `json:"balance"`
	DCBalance        uint64       `json:"dc_balance"`
	SecBalance       types.Amount `json:"sec_balance"`
	Nonce            uint64       `json:"nonce"`
	SpeculativeNonce uint64       `json:"speculative_nonce"`
}

// Validator is the subset of validator state used to default stake amounts.
type Validator struct {
	Address string       `json:"address"`
	Owner   string       `json:"owner"`
	Stake   types.Amount `json:"stake"`
}

// PendingTxn is the submission receipt.
type PendingTxn struct {
	Hash string `json:"hash"`
}

// Client is a minimal client for the blockchain HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// URLs maps each network to its API base URL.
type URLs struct {
	MainNet string
	TestNet string
}

// ForNetwork picks the base URL serving network.
func (u URLs) ForNetwork(n address.Network) string {
	if n == address.TestNet {
		if u.TestNet != "" {
			return u.TestNet
		}
		return DefaultTestNetURL
	}
	if u.MainNet != "" {
		return u.MainNet
	}
	return DefaultMainNetURL
}

// GetAccount wraps GET /v1/accounts/:address.
func (c *Client) GetAccount(ctx context.Context, addr address.Address) (*Account, error) {
	var out Account
	if err := c.get(ctx, "/v1/accounts/"+url.PathEscape(addr.String()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetValidator wraps GET /v1/validators/:address.
func (c *Client) GetValidator(ctx context.Context, addr address.Address) (*Validator, error) {
	var out Validator
	if err := c.get(ctx, "/v1/validators/"+url.PathEscape(addr.String()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFeeConfig reads the fee chain variables from GET /v1/vars. Any failure is
// ErrGettingFees.
func (c *Client) GetFeeConfig(ctx context.Context) (fee.Config, error) {
	var vars struct {
		TxnFees          *bool   `json:"txn_fees"`
		DCPayloadSize    *uint64 `json:"dc_payload_size"`
		TxnFeeMultiplier *uint64 `json:"txn_fee_multiplier"`
	}
	if err := c.get(ctx, "/v1/vars", &vars); err != nil {
		return fee.Config{}, fmt.Errorf("%w: %w", errno.ErrGettingFees, err)
	}
	if vars.DCPayloadSize == nil || vars.TxnFeeMultiplier == nil {
		return fee.Config{}, fmt.Errorf("%w: chain vars missing fee parameters", errno.ErrGettingFees)
	}
	cfg := fee.Config{
		TxnFees:          true,
		DCPayloadSize:    *vars.DCPayloadSize,
		TxnFeeMultiplier: *vars.TxnFeeMultiplier,
	}
	if vars.TxnFees != nil {
		cfg.TxnFees = *vars.TxnFees
	}
	return cfg, nil
}

// Submit wraps POST /v1/pending_transactions with the BlockchainTxn wrapper of txn.
// Submissions are never retried: a duplicate broadcast is worse than a failed one.
func (c *Client) Submit(ctx context.Context, txn types.Txn) (*PendingTxn, error) {
	wrapped, err := types.Wrap(txn)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(map[string]string{"txn": base64.StdEncoding.EncodeToString(wrapped)})

	var out PendingTxn
	if err := c.do(ctx, http.MethodPost, "/v1/pending_transactions", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	logger.Info("transaction submitted", zap.String("kind", txn.Kind().String()), zap.String("hash", out.Hash))
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do performs one request and decodes the {"data": ...} envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", errno.ErrRemote, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", errno.ErrRemote, method, path, err)
	}
	logger.Debug("helium api", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: status %d: %s", errno.ErrRemote, method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: %s %s: decode: %w", errno.ErrRemote, method, path, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%w: %s %s: empty data", errno.ErrRemote, method, path)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %s %s: decode: %w", errno.ErrRemote, method, path, err)
	}
	return nil
}
