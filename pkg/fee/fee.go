package fee

import (
	"bytes"
	"fmt"

	"helium-ledger/pkg/wallet/types"
)

// Config is the subset of chain variables that drives transaction fees.
type Config struct {
	// TxnFees disables fees entirely when false (early chain behaviour).
	TxnFees          bool   `json:"txn_fees"`
	DCPayloadSize    uint64 `json:"dc_payload_size"`
	TxnFeeMultiplier uint64 `json:"txn_fee_multiplier"`
}

// DefaultConfig is the mainnet schedule at the time of writing.
func DefaultConfig() Config {
	return Config{TxnFees: true, DCPayloadSize: 24, TxnFeeMultiplier: 5000}
}

var zeroSignature = bytes.Repeat([]byte{0}, types.SignatureSize)

// Calculate returns the fee in data credits for txn. The fee is embedded in the payload the
// device signs, so it is computed on a copy whose fee is zero and whose signature slots hold
// zero bytes of the final signature length.
func Calculate(txn types.Txn, cfg Config) (uint64, error) {
	if !cfg.TxnFees {
		return 0, nil
	}
	if cfg.DCPayloadSize == 0 {
		return 0, fmt.Errorf("fee: dc_payload_size must be positive")
	}

	stand := txn.Clone()
	stand.SetFee(0)
	for _, sig := range stand.SignatureFields() {
		*sig = append([]byte(nil), zeroSignature...)
	}
	raw, err := stand.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("fee: encode %s: %w", txn.Kind(), err)
	}

	units := (uint64(len(raw)) + cfg.DCPayloadSize - 1) / cfg.DCPayloadSize
	return units * cfg.TxnFeeMultiplier, nil
}

// Apply computes the fee and stores it on txn.
func Apply(txn types.Txn, cfg Config) error {
	f, err := Calculate(txn, cfg)
	if err != nil {
		return err
	}
	txn.SetFee(f)
	return nil
}
