package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"helium-ledger/pkg/address"
	"helium-ledger/pkg/apdu"
	"helium-ledger/pkg/errno"
	"helium-ledger/pkg/logger"
	"helium-ledger/pkg/monitor"
)

// Transport opens sessions to a signing device.
type Transport interface {
	Open(ctx context.Context) (Session, error)
}

// Session is an open connection to the device. Exchange blocks until the device answers;
// a deadline on ctx is honoured where the underlying link supports one.
type Session interface {
	Exchange(ctx context.Context, cmd apdu.Command) (apdu.Answer, error)
	Close() error
}

// deviceMu serializes device access within the process. The device runs one instruction
// at a time and a second host connection mid-exchange corrupts both.
var deviceMu sync.Mutex

// WithSession opens a session, runs fn and closes the session on every path. The device lock
// is held for the whole call.
func WithSession(ctx context.Context, t Transport, fn func(Session) error) error {
	deviceMu.Lock()
	defer deviceMu.Unlock()

	s, err := t.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errno.ErrCouldNotFindLedger, err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logger.Warn("closing ledger session", zap.Error(cerr))
		}
	}()
	return fn(s)
}

// ErrDenied is returned by Do when the user rejected the instruction on the device. Callers
// turn it into an outcome; it never leaves the service layer as a failure.
var ErrDenied = errors.New("ledger: transaction not confirmed on device")

// Do renders req for account, exchanges it and feeds the answer back into req.
func Do(ctx context.Context, s Session, req apdu.Serializable, account uint8) (apdu.Answer, error) {
	cmd, err := req.Instruction(account)
	if err != nil {
		return apdu.Answer{}, err
	}
	ins := fmt.Sprintf("%#02x", cmd.INS)
	logger.Debug("ledger exchange", zap.Stringer("cmd", cmd))

	ans, err := s.Exchange(ctx, cmd)
	if err != nil {
		monitor.DeviceExchangesTotal.WithLabelValues(ins, monitor.ResultTransportErr).Inc()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return apdu.Answer{}, err
		}
		return apdu.Answer{}, fmt.Errorf("%w: %w", errno.ErrCouldNotFindLedger, err)
	}
	switch {
	case ans.Empty():
		monitor.DeviceExchangesTotal.WithLabelValues(ins, monitor.ResultAppClosed).Inc()
		return ans, errno.ErrAppNotRunning
	case ans.Denied():
		monitor.DeviceExchangesTotal.WithLabelValues(ins, monitor.ResultDenied).Inc()
		return ans, ErrDenied
	}
	monitor.DeviceExchangesTotal.WithLabelValues(ins, monitor.ResultOK).Inc()

	if err := req.FromAnswer(ans.Data); err != nil {
		return ans, err
	}
	return ans, nil
}

// GetVersion asks the device for the Helium app version.
func GetVersion(ctx context.Context, s Session) (apdu.Version, error) {
	req := &apdu.VersionRequest{}
	ans, err := Do(ctx, s, req, 0)
	if err != nil {
		if errors.Is(err, ErrDenied) {
			return apdu.Version{}, fmt.Errorf("%w: single byte answer", errno.ErrVersion)
		}
		return apdu.Version{}, err
	}
	if !ans.OK() {
		return apdu.Version{}, fmt.Errorf("%w: status %#04x", errno.ErrVersion, ans.Status)
	}
	return req.Version, nil
}

// GetAddress reads the address of an account. With display set the device shows it too.
func GetAddress(ctx context.Context, s Session, account uint8, display bool) (address.Address, error) {
	req := &apdu.PubkeyRequest{Display: display}
	if _, err := Do(ctx, s, req, account); err != nil {
		if errors.Is(err, ErrDenied) {
			return address.Address{}, fmt.Errorf("%w: single byte answer", errno.ErrDecodingFailed)
		}
		return address.Address{}, err
	}
	return req.Address, nil
}
