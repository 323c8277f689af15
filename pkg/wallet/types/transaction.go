package types

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"helium-ledger/pkg/errno"
)

// SignatureSize is the length of an ed25519 signature produced by the device.
const SignatureSize = 64

// Kind tags the transaction variants this signer understands. The values are the field
// numbers of the BlockchainTxn oneof wrapper used for submission and envelopes.
type Kind protowire.Number

const (
	KindPayment                Kind = 8
	KindStakeValidator         Kind = 29
	KindTransferValidatorStake Kind = 30
	KindUnstakeValidator       Kind = 31
)

func (k Kind) String() string {
	switch k {
	case KindPayment:
		return "payment_v1"
	case KindStakeValidator:
		return "stake_validator_v1"
	case KindTransferValidatorStake:
		return "transfer_validator_stake_v1"
	case KindUnstakeValidator:
		return "unstake_validator_v1"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Txn is a transaction record in the submission wire format.
type Txn interface {
	Kind() Kind
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error

	GetFee() uint64
	SetFee(fee uint64)
	// SignatureFields exposes every signature slot of the record, in field order.
	SignatureFields() []*[]byte
	Clone() Txn
}

// New returns an empty record for kind.
func New(kind Kind) (Txn, error) {
	switch kind {
	case KindPayment:
		return &Payment{}, nil
	case KindStakeValidator:
		return &StakeValidator{}, nil
	case KindTransferValidatorStake:
		return &TransferValidatorStake{}, nil
	case KindUnstakeValidator:
		return &UnstakeValidator{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported transaction %s", errno.ErrDecodingFailed, kind)
	}
}

// Payment mirrors blockchain_txn_payment_v1.
type Payment struct {
	Payer     []byte `json:"payer"`
	Payee     []byte `json:"payee"`
	Amount    uint64 `json:"amount"`
	Fee       uint64 `json:"fee"`
	Nonce     uint64 `json:"nonce"`
	Signature []byte `json:"signature,omitempty"`
}

func (t *Payment) Kind() Kind        { return KindPayment }
func (t *Payment) GetFee() uint64    { return t.Fee }
func (t *Payment) SetFee(fee uint64) { t.Fee = fee }

func (t *Payment) SignatureFields() []*[]byte {
	return []*[]byte{&t.Signature}
}

func (t *Payment) Clone() Txn {
	c := *t
	c.Payer, c.Payee, c.Signature = cloneBytes(t.Payer), cloneBytes(t.Payee), cloneBytes(t.Signature)
	return &c
}

func (t *Payment) MarshalBinary() ([]byte, error) {
	var b []byte
	b = appendBytesField(b, 1, t.Payer)
	b = appendBytesField(b, 2, t.Payee)
	b = appendVarintField(b, 3, t.Amount)
	b = appendVarintField(b, 4, t.Fee)
	b = appendVarintField(b, 5, t.Nonce)
	b = appendBytesField(b, 6, t.Signature)
	return b, nil
}

func (t *Payment) UnmarshalBinary(data []byte) error {
	*t = Payment{}
	return walkFields(data, func(f field) error {
		switch f.num {
		case 1:
			return f.bytesInto(&t.Payer)
		case 2:
			return f.bytesInto(&t.Payee)
		case 3:
			return f.varintInto(&t.Amount)
		case 4:
			return f.varintInto(&t.Fee)
		case 5:
			return f.varintInto(&t.Nonce)
		case 6:
			return f.bytesInto(&t.Signature)
		}
		return nil
	})
}

// StakeValidator mirrors blockchain_txn_stake_validator_v1.
type StakeValidator struct {
	Address        []byte `json:"address"`
	Owner          []byte `json:"owner"`
	Stake          uint64 `json:"stake"`
	OwnerSignature []byte `json:"owner_signature,omitempty"`
	Fee            uint64 `json:"fee"`
}

func (t *StakeValidator) Kind() Kind        { return KindStakeValidator }
func (t *StakeValidator) GetFee() uint64    { return t.Fee }
func (t *StakeValidator) SetFee(fee uint64) { t.Fee = fee }

func (t *StakeValidator) SignatureFields() []*[]byte {
	return []*[]byte{&t.OwnerSignature}
}

func (t *StakeValidator) Clone() Txn {
	c := *t
	c.Address, c.Owner, c.OwnerSignature = cloneBytes(t.Address), cloneBytes(t.Owner), cloneBytes(t.OwnerSignature)
	return &c
}

func (t *StakeValidator) MarshalBinary() ([]byte, error) {
	var b []byte
	b = appendBytesField(b, 1, t.Address)
	b = appendBytesField(b, 2, t.Owner)
	b = appendVarintField(b, 3, t.Stake)
	b = appendBytesField(b, 4, t.OwnerSignature)
	b = appendVarintField(b, 5, t.Fee)
	return b, nil
}

func (t *StakeValidator) UnmarshalBinary(data []byte) error {
	*t = StakeValidator{}
	return walkFields(data, func(f field) error {
		switch f.num {
		case 1:
			return f.bytesInto(&t.Address)
		case 2:
			return f.bytesInto(&t.Owner)
		case 3:
			return f.varintInto(&t.Stake)
		case 4:
			return f.bytesInto(&t.OwnerSignature)
		case 5:
			return f.varintInto(&t.Fee)
		}
		return nil
	})
}

// TransferValidatorStake mirrors blockchain_txn_transfer_validator_stake_v1. Each owner
// signature is filled independently; see internal/service for the co-signing rules.
type TransferValidatorStake struct {
	OldAddress        []byte `json:"old_address"`
	NewAddress        []byte `json:"new_address"`
	OldOwner          []byte `json:"old_owner"`
	NewOwner          []byte `json:"new_owner"`
	OldOwnerSignature []byte `json:"old_owner_signature,omitempty"`
	NewOwnerSignature []byte `json:"new_owner_signature,omitempty"`
	Fee               uint64 `json:"fee"`
	StakeAmount       uint64 `json:"stake_amount"`
	PaymentAmount     uint64 `json:"payment_amount"`
}

func (t *TransferValidatorStake) Kind() Kind        { return KindTransferValidatorStake }
func (t *TransferValidatorStake) GetFee() uint64    { return t.Fee }
func (t *TransferValidatorStake) SetFee(fee uint64) { t.Fee = fee }

func (t *TransferValidatorStake) SignatureFields() []*[]byte {
	return []*[]byte{&t.OldOwnerSignature, &t.NewOwnerSignature}
}

// FullySigned reports whether both owner signatures are present.
func (t *TransferValidatorStake) FullySigned() bool {
	return len(t.OldOwnerSignature) > 0 && len(t.NewOwnerSignature) > 0
}

func (t *TransferValidatorStake) Clone() Txn {
	c := *t
	c.OldAddress, c.NewAddress = cloneBytes(t.OldAddress), cloneBytes(t.NewAddress)
	c.OldOwner, c.NewOwner = cloneBytes(t.OldOwner), cloneBytes(t.NewOwner)
	c.OldOwnerSignature, c.NewOwnerSignature = cloneBytes(t.OldOwnerSignature), cloneBytes(t.NewOwnerSignature)
	return &c
}

func (t *TransferValidatorStake) MarshalBinary() ([]byte, error) {
	var b []byte
	b = appendBytesField(b, 1, t.OldAddress)
	b = appendBytesField(b, 2, t.NewAddress)
	b = appendBytesField(b, 3, t.OldOwner)
	b = appendBytesField(b, 4, t.NewOwner)
	b = appendBytesField(b, 5, t.OldOwnerSignature)
	b = appendBytesField(b, 6, t.NewOwnerSignature)
	b = appendVarintField(b, 7, t.Fee)
	b = appendVarintField(b, 8, t.StakeAmount)
	b = appendVarintField(b, 9, t.PaymentAmount)
	return b, nil
}

func (t *TransferValidatorStake) UnmarshalBinary(data []byte) error {
	*t = TransferValidatorStake{}
	return walkFields(data, func(f field) error {
		switch f.num {
		case 1:
			return f.bytesInto(&t.OldAddress)
		case 2:
			return f.bytesInto(&t.NewAddress)
		case 3:
			return f.bytesInto(&t.OldOwner)
		case 4:
			return f.bytesInto(&t.NewOwner)
		case 5:
			return f.bytesInto(&t.OldOwnerSignature)
		case 6:
			return f.bytesInto(&t.NewOwnerSignature)
		case 7:
			return f.varintInto(&t.Fee)
		case 8:
			return f.varintInto(&t.StakeAmount)
		case 9:
			return f.varintInto(&t.PaymentAmount)
		}
		return nil
	})
}

// UnstakeValidator mirrors blockchain_txn_unstake_validator_v1.
type UnstakeValidator struct {
	Address            []byte `json:"address"`
	Owner              []byte `json:"owner"`
	OwnerSignature     []byte `json:"owner_signature,omitempty"`
	Fee                uint64 `json:"fee"`
	StakeAmount        uint64 `json:"stake_amount"`
	StakeReleaseHeight uint64 `json:"stake_release_height"`
}

func (t *UnstakeValidator) Kind() Kind        { return KindUnstakeValidator }
func (t *UnstakeValidator) GetFee() uint64    { return t.Fee }
func (t *UnstakeValidator) SetFee(fee uint64) { t.Fee = fee }

func (t *UnstakeValidator) SignatureFields() []*[]byte {
	return []*[]byte{&t.OwnerSignature}
}

func (t *UnstakeValidator) Clone() Txn {
	c := *t
	c.Address, c.Owner, c.OwnerSignature = cloneBytes(t.Address), cloneBytes(t.Owner), cloneBytes(t.OwnerSignature)
	return &c
}

func (t *UnstakeValidator) MarshalBinary() ([]byte, error) {
	var b []byte
	b = appendBytesField(b, 1, t.Address)
	b = appendBytesField(b, 2, t.Owner)
	b = appendBytesField(b, 3, t.OwnerSignature)
	b = appendVarintField(b, 4, t.Fee)
	b = appendVarintField(b, 5, t.StakeAmount)
	b = appendVarintField(b, 6, t.StakeReleaseHeight)
	return b, nil
}

func (t *UnstakeValidator) UnmarshalBinary(data []byte) error {
	*t = UnstakeValidator{}
	return walkFields(data, func(f field) error {
		switch f.num {
		case 1:
			return f.bytesInto(&t.Address)
		case 2:
			return f.bytesInto(&t.Owner)
		case 3:
			return f.bytesInto(&t.OwnerSignature)
		case 4:
			return f.varintInto(&t.Fee)
		case 5:
			return f.varintInto(&t.StakeAmount)
		case 6:
			return f.varintInto(&t.StakeReleaseHeight)
		}
		return nil
	})
}

// SigningBytes is the message the device signs: the record with every signature cleared.
func SigningBytes(txn Txn) ([]byte, error) {
	c := txn.Clone()
	for _, sig := range c.SignatureFields() {
		*sig = nil
	}
	return c.MarshalBinary()
}
