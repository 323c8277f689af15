package ledger

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helium-ledger/pkg/address"
	"helium-ledger/pkg/apdu"
	"helium-ledger/pkg/errno"
	"helium-ledger/pkg/monitor"
	"helium-ledger/pkg/wallet/types"
)

func TestWithSessionClosesOnEveryPath(t *testing.T) {
	dev := NewMockDevice(address.MainNet, 1)
	boom := errors.New("boom")

	err := WithSession(context.Background(), dev, func(s Session) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = WithSession(context.Background(), dev, func(s Session) error { return nil })
	assert.NoError(t, err)

	opened, closed := dev.Sessions()
	assert.Equal(t, 2, opened)
	assert.Equal(t, 2, closed)
}

func TestWithSessionOpenFailure(t *testing.T) {
	dev := NewMockDevice(address.MainNet, 1)
	dev.OpenErr = errors.New("usb gone")

	called := false
	err := WithSession(context.Background(), dev, func(s Session) error {
		called = true
		return nil
	})
	assert.True(t, errors.Is(err, errno.ErrCouldNotFindLedger))
	assert.False(t, called)
}

func TestGetVersionAndAddress(t *testing.T) {
	dev := NewMockDevice(address.TestNet, 7)
	err := WithSession(context.Background(), dev, func(s Session) error {
		v, err := GetVersion(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, dev.Version, v)

		a, err := GetAddress(context.Background(), s, 3, true)
		require.NoError(t, err)
		assert.True(t, dev.Address(3).Equal(a))
		assert.Equal(t, address.TestNet, a.Network)
		return nil
	})
	require.NoError(t, err)

	cmds := dev.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, byte(1), cmds[1].P1)
	assert.Equal(t, byte(3), cmds[1].P2)
}

func TestDoClassifiesAnswers(t *testing.T) {
	dev := NewMockDevice(address.MainNet, 2)
	payee := NewMockDevice(address.MainNet, 3).Address(0)
	txn := &types.Payment{Payer: dev.Address(0).Bin(), Payee: payee.Bin(), Amount: 5, Fee: 30_000, Nonce: 1}

	run := func() error {
		return WithSession(context.Background(), dev, func(s Session) error {
			req, err := apdu.ForTxn(txn)
			require.NoError(t, err)
			_, err = Do(context.Background(), s, req, 0)
			return err
		})
	}

	before := testutil.ToFloat64(monitor.DeviceExchangesTotal.WithLabelValues("0x08", monitor.ResultDenied))
	dev.Deny = true
	assert.ErrorIs(t, run(), ErrDenied)
	after := testutil.ToFloat64(monitor.DeviceExchangesTotal.WithLabelValues("0x08", monitor.ResultDenied))
	assert.Equal(t, before+1, after)

	dev.Deny = false
	dev.AppClosed = true
	assert.True(t, errors.Is(run(), errno.ErrAppNotRunning))

	dev.AppClosed = false
	assert.NoError(t, run())
}

func TestMockDeviceSignsRebuiltRecord(t *testing.T) {
	dev := NewMockDevice(address.MainNet, 4)
	other := NewMockDevice(address.MainNet, 5)
	txn := &types.TransferValidatorStake{
		OldAddress: other.Address(1).Bin(), NewAddress: other.Address(2).Bin(),
		OldOwner: other.Address(0).Bin(), NewOwner: dev.Address(0).Bin(),
		StakeAmount: 10_000 * types.BonesPerUnit, Fee: 55_000,
	}

	var signed *types.TransferValidatorStake
	err := WithSession(context.Background(), dev, func(s Session) error {
		req, err := apdu.ForTxn(txn)
		require.NoError(t, err)
		if _, err := Do(context.Background(), s, req, 0); err != nil {
			return err
		}
		signed = req.Signed().(*types.TransferValidatorStake)
		return nil
	})
	require.NoError(t, err)

	assert.Empty(t, signed.OldOwnerSignature)
	require.Len(t, signed.NewOwnerSignature, types.SignatureSize)

	msg, err := types.SigningBytes(txn)
	require.NoError(t, err)
	pub := dev.PrivateKey(0).Public().(ed25519.PublicKey)
	assert.True(t, ed25519.Verify(pub, msg, signed.NewOwnerSignature))
}

// fakeSpeculos answers every frame with the given data and status.
func fakeSpeculos(t *testing.T, data []byte, status uint16) (string, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var head [4]byte
		if _, err := io.ReadFull(conn, head[:]); err != nil {
			return
		}
		frame := make([]byte, binary.BigEndian.Uint32(head[:]))
		if _, err := io.ReadFull(conn, frame); err != nil {
			return
		}
		got <- frame

		out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
		out = append(out, data...)
		out = binary.BigEndian.AppendUint16(out, status)
		_, _ = conn.Write(out)
	}()
	return ln.Addr().String(), got
}

func TestTCPTransportFraming(t *testing.T) {
	addr, got := fakeSpeculos(t, []byte{2, 0, 1}, apdu.StatusOK)

	var v apdu.Version
	err := WithSession(context.Background(), NewTCPTransport(addr), func(s Session) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var err error
		v, err = GetVersion(ctx, s)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, apdu.Version{Major: 2, Minor: 0, Patch: 1}, v)
	assert.Equal(t, []byte{0xE0, 0x01, 0x00, 0x00, 0x00}, <-got)
}

func TestTCPTransportBadStatusIsVersionError(t *testing.T) {
	addr, _ := fakeSpeculos(t, []byte{2, 0, 1}, 0x6E00)

	err := WithSession(context.Background(), NewTCPTransport(addr), func(s Session) error {
		_, err := GetVersion(context.Background(), s)
		return err
	})
	assert.True(t, errors.Is(err, errno.ErrVersion))
}

func TestTCPTransportUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	err = WithSession(context.Background(), NewTCPTransport(addr), func(s Session) error { return nil })
	assert.True(t, errors.Is(err, errno.ErrCouldNotFindLedger))
}
