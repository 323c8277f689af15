package ledger

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"helium-ledger/pkg/address"
	"helium-ledger/pkg/apdu"
	"helium-ledger/pkg/wallet/types"
)

const (
	statusDenied     uint16 = 0x6985
	statusBadIns     uint16 = 0x6D00
	statusWrongInput uint16 = 0x6A80
)

// MockDevice is an in-memory Helium app. It rebuilds records from instruction payloads the
// way the firmware does and signs them with deterministic per-account ed25519 keys.
type MockDevice struct {
	Network address.Network
	Version apdu.Version

	// Deny makes every sign instruction answer with the single-byte rejection.
	Deny bool
	// AppClosed makes every instruction answer with an empty payload.
	AppClosed bool
	// OpenErr, when set, is returned by Open.
	OpenErr error

	mu       sync.Mutex
	commands []apdu.Command
	opened   int
	closed   int
	seed     byte
}

// NewMockDevice returns a device on network; seed distinguishes keys between devices.
func NewMockDevice(network address.Network, seed byte) *MockDevice {
	return &MockDevice{Network: network, Version: apdu.Version{Major: 2, Minor: 3, Patch: 0}, seed: seed}
}

// PrivateKey of an account.
func (d *MockDevice) PrivateKey(account uint8) ed25519.PrivateKey {
	s := sha256.Sum256([]byte{d.seed, account, byte(d.Network)})
	return ed25519.NewKeyFromSeed(s[:])
}

// Address of an account.
func (d *MockDevice) Address(account uint8) address.Address {
	pub := d.PrivateKey(account).Public().(ed25519.PublicKey)
	a, _ := address.FromBytes(pub, d.Network)
	return a
}

// Commands returns the instructions received so far.
func (d *MockDevice) Commands() []apdu.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]apdu.Command(nil), d.commands...)
}

// Sessions reports how many sessions were opened and closed.
func (d *MockDevice) Sessions() (opened, closed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened, d.closed
}

func (d *MockDevice) Open(ctx context.Context) (Session, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.mu.Lock()
	d.opened++
	d.mu.Unlock()
	return &mockSession{dev: d}, nil
}

type mockSession struct {
	dev    *MockDevice
	closed bool
}

func (s *mockSession) Close() error {
	if s.closed {
		return errors.New("mock: session closed twice")
	}
	s.closed = true
	s.dev.mu.Lock()
	s.dev.closed++
	s.dev.mu.Unlock()
	return nil
}

func (s *mockSession) Exchange(ctx context.Context, cmd apdu.Command) (apdu.Answer, error) {
	if err := ctx.Err(); err != nil {
		return apdu.Answer{}, err
	}
	if s.closed {
		return apdu.Answer{}, errors.New("mock: exchange on closed session")
	}
	if _, err := cmd.MarshalBinary(); err != nil {
		return apdu.Answer{}, err
	}
	d := s.dev
	d.mu.Lock()
	d.commands = append(d.commands, cmd)
	d.mu.Unlock()

	if d.AppClosed || cmd.CLA != apdu.CLA {
		return apdu.Answer{Status: statusBadIns}, nil
	}

	switch cmd.INS {
	case apdu.InsGetVersion:
		return ok([]byte{d.Version.Major, d.Version.Minor, d.Version.Patch}), nil
	case apdu.InsGetPublicKey:
		return ok(append([]byte{0x00}, d.Address(cmd.P2).Bin()...)), nil
	}

	if d.Deny {
		return apdu.Answer{Data: []byte{0x00}, Status: statusDenied}, nil
	}
	txn, err := d.rebuild(cmd)
	if err != nil {
		return apdu.Answer{Data: []byte{0x00}, Status: statusWrongInput}, nil
	}
	raw, err := txn.MarshalBinary()
	if err != nil {
		return apdu.Answer{}, err
	}
	return ok(raw), nil
}

func ok(data []byte) apdu.Answer {
	return apdu.Answer{Data: data, Status: apdu.StatusOK}
}

// rebuild reconstructs and signs the record described by a sign instruction.
func (d *MockDevice) rebuild(cmd apdu.Command) (types.Txn, error) {
	account := cmd.P1
	self := d.Address(account).Bin()
	r := &payloadReader{buf: cmd.Data, net: d.Network}

	var txn types.Txn
	switch cmd.INS {
	case apdu.InsSignPayment:
		p := &types.Payment{Payer: self}
		p.Amount, p.Fee, p.Nonce = r.u64(), r.u64(), r.u64()
		p.Payee = r.key()
		txn = p
	case apdu.InsSignValidatorStake:
		p := &types.StakeValidator{Owner: self}
		p.Stake, p.Fee = r.u64(), r.u64()
		p.Address = r.key()
		txn = p
	case apdu.InsSignValidatorTransfer:
		p := &types.TransferValidatorStake{}
		p.StakeAmount, p.PaymentAmount, p.Fee = r.u64(), r.u64(), r.u64()
		p.NewOwner, p.OldOwner, p.NewAddress, p.OldAddress = r.key(), r.key(), r.key(), r.key()
		txn = p
	case apdu.InsSignValidatorUnstake:
		p := &types.UnstakeValidator{Owner: self}
		p.StakeAmount, p.StakeReleaseHeight, p.Fee = r.u64(), r.u64(), r.u64()
		p.Address = r.key()
		txn = p
	default:
		return nil, fmt.Errorf("mock: unknown instruction %#02x", cmd.INS)
	}
	if r.err != nil || len(r.buf) != 0 {
		return nil, fmt.Errorf("mock: bad payload for %#02x", cmd.INS)
	}

	msg, err := types.SigningBytes(txn)
	if err != nil {
		return nil, err
	}
	sig := ed25519.Sign(d.PrivateKey(account), msg)

	switch t := txn.(type) {
	case *types.Payment:
		t.Signature = sig
	case *types.StakeValidator:
		t.OwnerSignature = sig
	case *types.UnstakeValidator:
		t.OwnerSignature = sig
	case *types.TransferValidatorStake:
		// One signature per instruction: the old owner slot wins when the device holds both roles.
		switch {
		case string(t.OldOwner) == string(self):
			t.OldOwnerSignature = sig
		case string(t.NewOwner) == string(self):
			t.NewOwnerSignature = sig
		default:
			return nil, errors.New("mock: device is not a party to the transfer")
		}
	}
	return txn, nil
}

type payloadReader struct {
	buf []byte
	net address.Network
	err error
}

func (r *payloadReader) u64() uint64 {
	if r.err != nil || len(r.buf) < 8 {
		r.err = errors.New("short payload")
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf)
	r.buf = r.buf[8:]
	return v
}

func (r *payloadReader) key() []byte {
	if r.err != nil || len(r.buf) < 1+address.KeySize || r.buf[0] != 0x00 {
		r.err = errors.New("bad address")
		return nil
	}
	a, err := address.FromBytes(r.buf[1:1+address.KeySize], r.net)
	if err != nil {
		r.err = err
		return nil
	}
	r.buf = r.buf[1+address.KeySize:]
	return a.Bin()
}
