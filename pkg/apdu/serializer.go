package apdu

import (
	"encoding/binary"
	"fmt"

	"helium-ledger/pkg/address"
	"helium-ledger/pkg/errno"
	"helium-ledger/pkg/wallet/types"
)

// Serializable is implemented by every request the device understands: it renders the
// instruction for an account index and decodes the payload the device answers with.
type Serializable interface {
	Instruction(account uint8) (Command, error)
	FromAnswer(data []byte) error
}

// SignRequest is a Serializable transaction; Signed holds the record decoded from the
// device answer.
type SignRequest interface {
	Serializable
	Signed() types.Txn
}

// ForTxn picks the request implementation for a record.
func ForTxn(txn types.Txn) (SignRequest, error) {
	switch t := txn.(type) {
	case *types.Payment:
		return &PaymentRequest{Txn: t}, nil
	case *types.StakeValidator:
		return &StakeRequest{Txn: t}, nil
	case *types.TransferValidatorStake:
		return &TransferRequest{Txn: t}, nil
	case *types.UnstakeValidator:
		return &UnstakeRequest{Txn: t}, nil
	default:
		return nil, fmt.Errorf("apdu: no instruction for %T", txn)
	}
}

// payload builds little-endian instruction bodies.
type payload struct {
	buf []byte
	err error
}

func (p *payload) u64(v uint64) *payload {
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
	return p
}

// key writes the fixed 0x00 tag followed by the 32-byte key of a record address field.
func (p *payload) key(name string, bin []byte) *payload {
	if p.err != nil {
		return p
	}
	addr, err := address.FromBin(bin)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
		return p
	}
	p.buf = append(p.buf, 0x00)
	p.buf = append(p.buf, addr.Bytes()...)
	return p
}

func (p *payload) command(ins, account byte) (Command, error) {
	if p.err != nil {
		return Command{}, p.err
	}
	if len(p.buf) > MaxPayload {
		return Command{}, fmt.Errorf("%w: %d bytes", errno.ErrEncodingOverflow, len(p.buf))
	}
	return Command{CLA: CLA, INS: ins, P1: account, Data: p.buf}, nil
}

func decodeInto(txn types.Txn, data []byte) error {
	if err := txn.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("%w: %s: %w", errno.ErrDecodingFailed, txn.Kind(), err)
	}
	return nil
}

// PaymentRequest: amount ‖ fee ‖ nonce ‖ 0x00 ‖ payee
type PaymentRequest struct {
	Txn    *types.Payment
	signed *types.Payment
}

func (r *PaymentRequest) Instruction(account uint8) (Command, error) {
	p := new(payload).u64(r.Txn.Amount).u64(r.Txn.Fee).u64(r.Txn.Nonce).key("payee", r.Txn.Payee)
	return p.command(InsSignPayment, account)
}

func (r *PaymentRequest) FromAnswer(data []byte) error {
	r.signed = new(types.Payment)
	return decodeInto(r.signed, data)
}

func (r *PaymentRequest) Signed() types.Txn { return r.signed }

// StakeRequest: stake ‖ fee ‖ 0x00 ‖ validator
type StakeRequest struct {
	Txn    *types.StakeValidator
	signed *types.StakeValidator
}

func (r *StakeRequest) Instruction(account uint8) (Command, error) {
	p := new(payload).u64(r.Txn.Stake).u64(r.Txn.Fee).key("address", r.Txn.Address)
	return p.command(InsSignValidatorStake, account)
}

func (r *StakeRequest) FromAnswer(data []byte) error {
	r.signed = new(types.StakeValidator)
	return decodeInto(r.signed, data)
}

func (r *StakeRequest) Signed() types.Txn { return r.signed }

// TransferRequest: stake_amount ‖ payment_amount ‖ fee ‖ new_owner ‖ old_owner ‖
// new_address ‖ old_address, each address behind a 0x00 tag.
type TransferRequest struct {
	Txn    *types.TransferValidatorStake
	signed *types.TransferValidatorStake
}

func (r *TransferRequest) Instruction(account uint8) (Command, error) {
	p := new(payload).u64(r.Txn.StakeAmount).u64(r.Txn.PaymentAmount).u64(r.Txn.Fee).
		key("new_owner", r.Txn.NewOwner).
		key("old_owner", r.Txn.OldOwner).
		key("new_address", r.Txn.NewAddress).
		key("old_address", r.Txn.OldAddress)
	return p.command(InsSignValidatorTransfer, account)
}

func (r *TransferRequest) FromAnswer(data []byte) error {
	r.signed = new(types.TransferValidatorStake)
	return decodeInto(r.signed, data)
}

func (r *TransferRequest) Signed() types.Txn { return r.signed }

// UnstakeRequest: stake_amount ‖ stake_release_height ‖ fee ‖ 0x00 ‖ validator
type UnstakeRequest struct {
	Txn    *types.UnstakeValidator
	signed *types.UnstakeValidator
}

func (r *UnstakeRequest) Instruction(account uint8) (Command, error) {
	p := new(payload).u64(r.Txn.StakeAmount).u64(r.Txn.StakeReleaseHeight).u64(r.Txn.Fee).
		key("address", r.Txn.Address)
	return p.command(InsSignValidatorUnstake, account)
}

func (r *UnstakeRequest) FromAnswer(data []byte) error {
	r.signed = new(types.UnstakeValidator)
	return decodeInto(r.signed, data)
}

func (r *UnstakeRequest) Signed() types.Txn { return r.signed }

// Version of the Helium app running on the device.
type Version struct {
	Major, Minor, Patch uint8
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// SupportsAccounts reports whether the app accepts an account index other than 0. The same
// release introduced the validator instructions.
func (v Version) SupportsAccounts() bool {
	return v.Major >= 2
}

// VersionRequest asks for the app version; the device answers with exactly three bytes.
type VersionRequest struct {
	Version Version
}

func (r *VersionRequest) Instruction(uint8) (Command, error) {
	return Command{CLA: CLA, INS: InsGetVersion}, nil
}

func (r *VersionRequest) FromAnswer(data []byte) error {
	if len(data) != 3 {
		return fmt.Errorf("%w: got %d bytes", errno.ErrVersion, len(data))
	}
	r.Version = Version{Major: data[0], Minor: data[1], Patch: data[2]}
	return nil
}

// PubkeyRequest reads the account key. With Display set the device also shows the address
// on screen for the user to compare.
type PubkeyRequest struct {
	Display bool
	Address address.Address
}

func (r *PubkeyRequest) Instruction(account uint8) (Command, error) {
	var display byte
	if r.Display {
		display = 1
	}
	return Command{CLA: CLA, INS: InsGetPublicKey, P1: display, P2: account}, nil
}

// FromAnswer reads the 33-byte key bin that follows the leading byte of the answer.
func (r *PubkeyRequest) FromAnswer(data []byte) error {
	if len(data) < 1+address.BinSize {
		return fmt.Errorf("%w: public key answer of %d bytes", errno.ErrDecodingFailed, len(data))
	}
	addr, err := address.FromBin(data[1 : 1+address.BinSize])
	if err != nil {
		return fmt.Errorf("%w: %w", errno.ErrDecodingFailed, err)
	}
	r.Address = addr
	return nil
}
