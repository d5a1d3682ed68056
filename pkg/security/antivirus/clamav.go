package antivirus

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// clamd rejects streams over StreamMaxLength (25M by default), so
// payloads are sent in chunks well under it.
const clamChunkSize = 1 << 20

// ClamAVScanner talks to a clamd daemon over TCP or a Unix socket.
type ClamAVScanner struct {
	address string
	timeout time.Duration
	dialer  net.Dialer
}

var _ Scanner = (*ClamAVScanner)(nil)

// NewClamAVScanner creates a ClamAV scanner.
// address: TCP "localhost:3310" or Unix socket "/var/run/clamav/clamd.sock"
func NewClamAVScanner(address string, timeout time.Duration) *ClamAVScanner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClamAVScanner{
		address: address,
		timeout: timeout,
	}
}

func (c *ClamAVScanner) Name() string {
	return "clamav"
}

func (c *ClamAVScanner) network() string {
	if strings.HasPrefix(c.address, "/") {
		return "unix"
	}
	return "tcp"
}

func (c *ClamAVScanner) dial(ctx context.Context, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, c.network(), c.address)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(timeout))
	return conn, nil
}

// Available sends zPING and expects PONG.
func (c *ClamAVScanner) Available(ctx context.Context) bool {
	conn, err := c.dial(ctx, 5*time.Second)
	if err != nil {
		return false
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zPING\x00")); err != nil {
		return false
	}
	reply, err := readReply(conn)
	if err != nil {
		return false
	}
	return reply == "PONG"
}

// Scan streams data with zINSTREAM. Any failure is reported as infected.
func (c *ClamAVScanner) Scan(ctx context.Context, filename string, data []byte) ScanResult {
	result := ScanResult{ScannerName: c.Name()}
	fail := func(err error) ScanResult {
		result.Infected = true
		result.Error = err
		return result
	}

	conn, err := c.dial(ctx, c.timeout)
	if err != nil {
		return fail(fmt.Errorf("failed to connect to clamd: %w", err))
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return fail(fmt.Errorf("failed to send command: %w", err))
	}

	size := make([]byte, 4)
	for start := 0; start < len(data); start += clamChunkSize {
		end := start + clamChunkSize
		if end > len(data) {
			end = len(data)
		}
		binary.BigEndian.PutUint32(size, uint32(end-start))
		if _, err := conn.Write(size); err != nil {
			return fail(fmt.Errorf("failed to send chunk size: %w", err))
		}
		if _, err := conn.Write(data[start:end]); err != nil {
			return fail(fmt.Errorf("failed to send chunk: %w", err))
		}
	}
	// zero length chunk terminates the stream
	if _, err := conn.Write([]byte{0, 0, 0, 0}); err != nil {
		return fail(fmt.Errorf("failed to send end marker: %w", err))
	}

	reply, err := readReply(conn)
	if err != nil {
		return fail(fmt.Errorf("failed to read response: %w", err))
	}

	// "stream: OK", "stream: Eicar-Signature FOUND" or "... ERROR"
	verdict := strings.TrimSpace(strings.TrimPrefix(reply, "stream:"))
	switch {
	case strings.HasSuffix(verdict, "FOUND"):
		result.Infected = true
		result.ThreatName = strings.TrimSpace(strings.TrimSuffix(verdict, "FOUND"))
	case strings.HasSuffix(verdict, "ERROR"):
		return fail(fmt.Errorf("scan error on %s: %s", filename, verdict))
	case verdict != "OK":
		return fail(fmt.Errorf("unexpected clamd reply: %q", reply))
	}
	return result
}

// readReply reads one NUL terminated clamd reply.
func readReply(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if b == 0 {
				return strings.TrimSpace(sb.String()), nil
			}
			sb.WriteByte(b)
		}
		if err == io.EOF {
			return strings.TrimSpace(sb.String()), nil
		}
		if err != nil {
			return "", err
		}
	}
}
