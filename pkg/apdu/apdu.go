package apdu

import (
	"encoding/binary"
	"fmt"

	"helium-ledger/pkg/errno"
)

// Instruction set understood by the Helium app. These values are shared with the device
// firmware and must not be renumbered without a firmware version bump.
const (
	CLA byte = 0xE0

	InsGetVersion            byte = 0x01
	InsGetPublicKey          byte = 0x02
	InsSignPayment           byte = 0x08
	InsSignValidatorStake    byte = 0x09
	InsSignValidatorTransfer byte = 0x0A
	InsSignValidatorUnstake  byte = 0x0B
)

const (
	// MaxPayload is the single-frame capacity (Lc is one byte). Larger instructions would
	// need frame splitting, which this protocol version does not define.
	MaxPayload = 255

	StatusOK uint16 = 0x9000
)

// Command is a single device instruction.
type Command struct {
	CLA  byte
	INS  byte
	P1   byte
	P2   byte
	Data []byte
}

// MarshalBinary renders the raw frame: CLA INS P1 P2 Lc Data.
func (c Command) MarshalBinary() ([]byte, error) {
	if len(c.Data) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", errno.ErrEncodingOverflow, len(c.Data))
	}
	out := make([]byte, 0, 5+len(c.Data))
	out = append(out, c.CLA, c.INS, c.P1, c.P2, byte(len(c.Data)))
	return append(out, c.Data...), nil
}

func (c Command) String() string {
	return fmt.Sprintf("cla=%#02x ins=%#02x p1=%d p2=%d lc=%d", c.CLA, c.INS, c.P1, c.P2, len(c.Data))
}

// Answer is the device response with the trailing status word split off.
type Answer struct {
	Data   []byte
	Status uint16
}

// ParseAnswer splits a raw response frame into payload and status word.
func ParseAnswer(raw []byte) (Answer, error) {
	if len(raw) < 2 {
		return Answer{}, fmt.Errorf("%w: response frame of %d bytes", errno.ErrDecodingFailed, len(raw))
	}
	n := len(raw) - 2
	return Answer{
		Data:   append([]byte(nil), raw[:n]...),
		Status: binary.BigEndian.Uint16(raw[n:]),
	}, nil
}

// Denied reports an on-device rejection. The device answers a refused signature with a
// single byte, whatever the status word says.
func (a Answer) Denied() bool {
	return len(a.Data) == 1
}

// Empty means the Helium app is not the active app on the device.
func (a Answer) Empty() bool {
	return len(a.Data) == 0
}

func (a Answer) OK() bool {
	return a.Status == StatusOK
}
