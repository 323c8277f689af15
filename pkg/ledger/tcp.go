package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"helium-ledger/pkg/apdu"
)

// DefaultEmulatorAddr is the APDU port speculos listens on.
const DefaultEmulatorAddr = "127.0.0.1:9999"

// TCPTransport talks to a device emulator. Frames are length-prefixed: the request is
// len(4, big endian) ‖ apdu, the answer is len(4) ‖ data(len) ‖ status(2).
type TCPTransport struct {
	Addr        string
	DialTimeout time.Duration
}

func NewTCPTransport(addr string) *TCPTransport {
	if addr == "" {
		addr = DefaultEmulatorAddr
	}
	return &TCPTransport{Addr: addr, DialTimeout: 5 * time.Second}
}

func (t *TCPTransport) Open(ctx context.Context) (Session, error) {
	d := net.Dialer{Timeout: t.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.Addr)
	if err != nil {
		return nil, err
	}
	return &tcpSession{conn: conn}, nil
}

type tcpSession struct {
	conn net.Conn
}

func (s *tcpSession) Exchange(ctx context.Context, cmd apdu.Command) (apdu.Answer, error) {
	frame, err := cmd.MarshalBinary()
	if err != nil {
		return apdu.Answer{}, err
	}
	deadline, _ := ctx.Deadline()
	if err := s.conn.SetDeadline(deadline); err != nil {
		return apdu.Answer{}, err
	}

	req := binary.BigEndian.AppendUint32(make([]byte, 0, 4+len(frame)), uint32(len(frame)))
	if _, err := s.conn.Write(append(req, frame...)); err != nil {
		return apdu.Answer{}, fmt.Errorf("emulator write: %w", err)
	}

	var head [4]byte
	if _, err := io.ReadFull(s.conn, head[:]); err != nil {
		return apdu.Answer{}, fmt.Errorf("emulator read: %w", err)
	}
	n := binary.BigEndian.Uint32(head[:])
	if n > 1<<16 {
		return apdu.Answer{}, fmt.Errorf("emulator answer too large: %d bytes", n)
	}
	body := make([]byte, int(n)+2)
	if _, err := io.ReadFull(s.conn, body); err != nil {
		return apdu.Answer{}, fmt.Errorf("emulator read: %w", err)
	}
	return apdu.ParseAnswer(body)
}

func (s *tcpSession) Close() error {
	return s.conn.Close()
}
