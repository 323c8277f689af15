package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"

	"helium-ledger/pkg/errno"
)

const (
	// KeySize 公钥 (ed25519) 的字节长度
	KeySize = 32
	// BinSize 带网络/密钥类型标记的二进制长度
	BinSize = KeySize + 1

	// Version 文本地址的版本字节 (libp2p 约定)
	Version byte = 0x00

	keyTypeEd25519 byte = 0x01
	keyTypeMask    byte = 0x0F
	networkMask    byte = 0xF0
)

// Network is the network discriminator carried in the high nibble of the key tag.
type Network byte

const (
	MainNet Network = 0x00
	TestNet Network = 0x10
)

func (n Network) String() string {
	switch n {
	case MainNet:
		return "mainnet"
	case TestNet:
		return "testnet"
	default:
		return fmt.Sprintf("network(0x%02x)", byte(n))
	}
}

// Units returns the ticker used when displaying amounts on this network.
func (n Network) Units() string {
	if n == TestNet {
		return "TNT"
	}
	return "HNT"
}

func (n Network) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// Address is an ed25519 public key tagged with the network it belongs to.
type Address struct {
	Network Network
	key     [KeySize]byte
}

// FromBytes builds an Address from the raw 32-byte key.
func FromBytes(b []byte, network Network) (Address, error) {
	if len(b) != KeySize {
		return Address{}, fmt.Errorf("%w: expected %d bytes, got %d", errno.ErrMalformedAddress, KeySize, len(b))
	}
	if network != MainNet && network != TestNet {
		return Address{}, fmt.Errorf("%w: %s", errno.ErrMalformedAddress, network)
	}
	a := Address{Network: network}
	copy(a.key[:], b)
	return a, nil
}

// FromBin parses the 33-byte tagged form stored in transaction records.
func FromBin(b []byte) (Address, error) {
	if len(b) != BinSize {
		return Address{}, fmt.Errorf("%w: expected %d bytes, got %d", errno.ErrMalformedAddress, BinSize, len(b))
	}
	if b[0]&keyTypeMask != keyTypeEd25519 {
		return Address{}, fmt.Errorf("%w: 0x%02x", errno.ErrUnknownKeyType, b[0]&keyTypeMask)
	}
	return FromBytes(b[1:], Network(b[0]&networkMask))
}

// Parse decodes the base58check text form. Any version byte other than 0 is rejected.
func Parse(s string) (Address, error) {
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		if errors.Is(err, base58.ErrChecksum) {
			return Address{}, fmt.Errorf("%w: %s", errno.ErrChecksumMismatch, s)
		}
		return Address{}, fmt.Errorf("%w: %s", errno.ErrBadEncoding, s)
	}
	if version != Version {
		return Address{}, fmt.Errorf("%w: unexpected version byte 0x%02x", errno.ErrBadEncoding, version)
	}
	return FromBin(payload)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Bytes returns the 32-byte key.
func (a Address) Bytes() []byte {
	out := make([]byte, KeySize)
	copy(out, a.key[:])
	return out
}

// Bin returns the tagged form [network|keytype ‖ key].
func (a Address) Bin() []byte {
	out := make([]byte, 0, BinSize)
	out = append(out, byte(a.Network)|keyTypeEd25519)
	return append(out, a.key[:]...)
}

// String renders base58check over [version ‖ tag ‖ key].
func (a Address) String() string {
	return base58.CheckEncode(a.Bin(), Version)
}

func (a Address) IsZero() bool {
	return a.key == [KeySize]byte{}
}

func (a Address) Equal(b Address) bool {
	return a.Network == b.Network && bytes.Equal(a.key[:], b.key[:])
}

// MarshalText lets addresses travel through JSON and viper as their text form.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
