package types

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helium-ledger/pkg/errno"
)

func bin(fill byte) []byte {
	b := bytes.Repeat([]byte{fill}, 33)
	b[0] = 0x01
	return b
}

func sig(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, SignatureSize)
}

func sampleTxns() map[string]Txn {
	return map[string]Txn{
		"payment": &Payment{
			Payer: bin(0xA1), Payee: bin(0xB2), Amount: 150_000_000, Fee: 35_000, Nonce: 42, Signature: sig(0x0C),
		},
		"stake": &StakeValidator{
			Address: bin(0xC3), Owner: bin(0xD4), Stake: 1_000_000_000_000, OwnerSignature: sig(0x1D), Fee: 40_000,
		},
		"transfer fully signed": &TransferValidatorStake{
			OldAddress: bin(0x01), NewAddress: bin(0x02), OldOwner: bin(0x03), NewOwner: bin(0x04),
			OldOwnerSignature: sig(0x05), NewOwnerSignature: sig(0x06),
			Fee: 55_000, StakeAmount: 1_000_000_000_000, PaymentAmount: 7,
		},
		"transfer partially signed": &TransferValidatorStake{
			OldAddress: bin(0x01), NewAddress: bin(0x02), OldOwner: bin(0x03), NewOwner: bin(0x04),
			OldOwnerSignature: sig(0x05),
			Fee:               55_000, StakeAmount: 1_000_000_000_000,
		},
		"unstake": &UnstakeValidator{
			Address: bin(0xE5), Owner: bin(0xF6), OwnerSignature: sig(0x2E), Fee: 45_000,
			StakeAmount: 1_000_000_000_000, StakeReleaseHeight: 1_234_567,
		},
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	for name, txn := range sampleTxns() {
		t.Run(name, func(t *testing.T) {
			env, err := EncodeEnvelope(txn)
			require.NoError(t, err)

			decoded, err := DecodeEnvelope(env)
			require.NoError(t, err)
			assert.Equal(t, txn, decoded)

			want, _ := txn.MarshalBinary()
			got, _ := decoded.MarshalBinary()
			assert.Equal(t, want, got)

			again, err := EncodeEnvelope(decoded)
			require.NoError(t, err)
			assert.Equal(t, env, again)
		})
	}
}

func TestEnvelopeRejectsTampering(t *testing.T) {
	env, err := EncodeEnvelope(sampleTxns()["transfer partially signed"])
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(env)
	require.NoError(t, err)
	raw[10] ^= 0xFF

	_, err = DecodeEnvelope(base64.StdEncoding.EncodeToString(raw))
	assert.True(t, errors.Is(err, errno.ErrInvalidEnvelope))

	_, err = DecodeEnvelope("not base64 at all!")
	assert.True(t, errors.Is(err, errno.ErrInvalidEnvelope))
}

func TestEnvelopeToleratesWhitespace(t *testing.T) {
	txn := sampleTxns()["stake"]
	env, err := EncodeEnvelope(txn)
	require.NoError(t, err)

	decoded, err := DecodeEnvelope("  " + env + "\n")
	require.NoError(t, err)
	assert.Equal(t, txn, decoded)
}

func TestUnmarshalRejectsWrongWireType(t *testing.T) {
	// field 3 (amount) encoded as bytes instead of varint
	bad := []byte{0x1A, 0x01, 0x00}
	var p Payment
	err := p.UnmarshalBinary(bad)
	assert.True(t, errors.Is(err, errno.ErrDecodingFailed))

	err = p.UnmarshalBinary([]byte{0x0A, 0x05, 0x01})
	assert.True(t, errors.Is(err, errno.ErrDecodingFailed))
}

func TestUnwrapUnknownKind(t *testing.T) {
	// field 99, length 0
	_, err := Unwrap([]byte{0x9A, 0x06, 0x00})
	assert.True(t, errors.Is(err, errno.ErrDecodingFailed))
}

func TestHashIgnoresSignatures(t *testing.T) {
	signed := sampleTxns()["transfer fully signed"].(*TransferValidatorStake)
	unsigned := signed.Clone().(*TransferValidatorStake)
	unsigned.OldOwnerSignature, unsigned.NewOwnerSignature = nil, nil

	h1, err := Hash(signed)
	require.NoError(t, err)
	h2, err := Hash(unsigned)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 43)
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleTxns()["payment"].(*Payment)
	c := orig.Clone().(*Payment)
	c.Signature[0] = 0xFF
	c.Payee[1] = 0x00
	assert.Equal(t, byte(0x0C), orig.Signature[0])
	assert.Equal(t, byte(0xB2), orig.Payee[1])
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"1", 100_000_000},
		{"1.5", 150_000_000},
		{"0.00000001", 1},
		{"0", 0},
		{" 12.34567890 ", 1_234_567_890},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"-1", "abc", "0.000000001", "1e30"} {
		_, err := ParseAmount(bad)
		assert.True(t, errors.Is(err, errno.ErrInvalidAmount), bad)
	}
}

func TestAmountPresentation(t *testing.T) {
	a := Amount(123_456_789)
	assert.Equal(t, "1.23456789", a.String())
	assert.InDelta(t, 1.23456789, a.Float64(), 1e-12)
	assert.Equal(t, uint64(123_456_789), a.Bones())
}
