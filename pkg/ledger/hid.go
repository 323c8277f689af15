package ledger

import (
	"context"
	"errors"
	"fmt"

	ledger_go "github.com/zondax/ledger-go"

	"helium-ledger/pkg/apdu"
)

// HIDTransport talks to a physical device over USB-HID.
type HIDTransport struct {
	// Index selects among several attached devices.
	Index int

	admin ledger_go.LedgerAdmin
}

func NewHIDTransport(index int) *HIDTransport {
	return &HIDTransport{Index: index, admin: ledger_go.NewLedgerAdmin()}
}

func (t *HIDTransport) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.admin.CountDevices() <= t.Index {
		return nil, errors.New("no ledger device attached")
	}
	dev, err := t.admin.Connect(t.Index)
	if err != nil {
		return nil, err
	}
	return &hidSession{dev: dev}, nil
}

type hidSession struct {
	dev ledger_go.LedgerDevice
}

// Exchange cannot interrupt a HID read once the frame is written, so ctx is only checked
// before sending.
func (s *hidSession) Exchange(ctx context.Context, cmd apdu.Command) (apdu.Answer, error) {
	if err := ctx.Err(); err != nil {
		return apdu.Answer{}, err
	}
	frame, err := cmd.MarshalBinary()
	if err != nil {
		return apdu.Answer{}, err
	}

	data, err := s.dev.Exchange(frame)
	if err != nil {
		// The library strips the status word and reports a non-9000 status as an error
		// alongside whatever payload the device sent. A nil payload means the link failed.
		if data == nil {
			return apdu.Answer{}, fmt.Errorf("hid exchange: %w", err)
		}
		return apdu.Answer{Data: data}, nil
	}
	return apdu.Answer{Data: data, Status: apdu.StatusOK}, nil
}

func (s *hidSession) Close() error {
	return s.dev.Close()
}
