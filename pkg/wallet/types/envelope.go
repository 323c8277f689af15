package types

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"helium-ledger/pkg/crypto_util"
	"helium-ledger/pkg/errno"
)

// Wrap encodes txn inside the BlockchainTxn oneof wrapper used for submission.
func Wrap(txn Txn) ([]byte, error) {
	inner, err := txn.MarshalBinary()
	if err != nil {
		return nil, err
	}
	b := protowire.AppendTag(nil, protowire.Number(txn.Kind()), protowire.BytesType)
	return protowire.AppendBytes(b, inner), nil
}

// Unwrap decodes a BlockchainTxn wrapper holding exactly one supported record.
func Unwrap(data []byte) (Txn, error) {
	var out Txn
	err := walkFields(data, func(f field) error {
		if out != nil {
			return fmt.Errorf("%w: wrapper holds more than one transaction", errno.ErrDecodingFailed)
		}
		if f.typ != protowire.BytesType {
			return fmt.Errorf("%w: wrapper field %d is not a message", errno.ErrDecodingFailed, f.num)
		}
		txn, err := New(Kind(f.num))
		if err != nil {
			return err
		}
		if err := txn.UnmarshalBinary(f.bytes); err != nil {
			return err
		}
		out = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: empty wrapper", errno.ErrDecodingFailed)
	}
	return out, nil
}

// EncodeEnvelope renders the portable text form handed between co-signers:
// base64(wrapper ‖ checksum(wrapper)).
func EncodeEnvelope(txn Txn) (string, error) {
	wrapped, err := Wrap(txn)
	if err != nil {
		return "", err
	}
	raw := append(wrapped, crypto_util.Checksum(wrapped)...)
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeEnvelope reverses EncodeEnvelope; surrounding whitespace is ignored.
func DecodeEnvelope(s string) (Txn, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrInvalidEnvelope, err)
	}
	if len(raw) <= crypto_util.ChecksumSize {
		return nil, fmt.Errorf("%w: too short", errno.ErrInvalidEnvelope)
	}
	body, sum := raw[:len(raw)-crypto_util.ChecksumSize], raw[len(raw)-crypto_util.ChecksumSize:]
	if !bytes.Equal(crypto_util.Checksum(body), sum) {
		return nil, fmt.Errorf("%w: checksum mismatch", errno.ErrInvalidEnvelope)
	}
	txn, err := Unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errno.ErrInvalidEnvelope, err)
	}
	return txn, nil
}

// Hash is the transaction id: sha256 over the record with signatures cleared,
// base64url without padding.
func Hash(txn Txn) (string, error) {
	msg, err := SigningBytes(txn)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(crypto_util.SHA256(msg)), nil
}
