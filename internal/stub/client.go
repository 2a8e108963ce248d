package stub

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/ramload/internal/logging"
	"github.com/muurk/ramload/internal/rsp"
)

// ChunkSize is the largest memory transfer st-util accepts in one packet.
const ChunkSize = 4096

var replyOK = []byte("OK")

// Exchanger sends one request packet and returns the reply payload.
// *rsp.Conn implements it.
type Exchanger interface {
	Exchange(payload []byte) ([]byte, error)
}

// Client issues debug-stub commands over a single connection.
// It is not safe for concurrent use; the protocol allows one request in flight.
type Client struct {
	conn      Exchanger
	logger    *zap.Logger
	chunkSize int
}

// Option configures a Client.
type Option func(*Client)

// WithChunkSize overrides the maximum bytes per memory packet. Values that
// are not a positive multiple of 4 are ignored.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n%4 == 0 {
			c.chunkSize = n
		}
	}
}

// NewClient returns a Client using conn. If logger is nil a no-op logger is used.
func NewClient(conn Exchanger, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		conn:      conn,
		logger:    logger,
		chunkSize: ChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// expectOK sends req and requires the literal "OK" reply.
func (c *Client) expectOK(command string, req []byte) error {
	resp, err := c.conn.Exchange(req)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	if !bytes.Equal(resp, replyOK) {
		return &CommandError{Command: command, Expected: `"OK"`, Response: resp}
	}
	return nil
}

// EnableExtendedMode switches the stub to extended mode, which also keeps
// st-util alive when this connection goes away. It must be the first
// command on a fresh connection.
func (c *Client) EnableExtendedMode() error {
	c.logger.Debug("enabling extended mode")
	return c.expectOK("set persistency", []byte{'!'})
}

// Reset soft-resets the target core.
func (c *Client) Reset() error {
	c.logger.Info("resetting target")
	return c.expectOK("reset", []byte("R00"))
}

// WriteMemory writes data at addr, split into ChunkSize pieces in
// ascending address order.
func (c *Client) WriteMemory(addr uint32, data []byte) error {
	if addr%4 != 0 || len(data)%4 != 0 {
		return &AlignmentError{Addr: addr, Length: len(data)}
	}

	c.logger.Info("write memory", logging.Addr("addr", addr), zap.Int("length", len(data)))

	for off := 0; off < len(data); off += c.chunkSize {
		chunk := data[off:min(off+c.chunkSize, len(data))]
		caddr := addr + uint32(off)

		req := make([]byte, 0, 20+2*len(chunk))
		req = append(req, 'M')
		req = rsp.AppendHex(req, uint64(caddr), 8)
		req = append(req, ',')
		req = rsp.AppendHex(req, uint64(len(chunk)), 8)
		req = append(req, ':')
		req = hex.AppendEncode(req, chunk)

		resp, err := c.conn.Exchange(req)
		if err != nil {
			return &TransferError{Op: "write memory", Addr: caddr, Length: len(chunk), Err: err}
		}
		if !bytes.Equal(resp, replyOK) {
			return &CommandError{
				Command:  "write memory",
				Expected: `"OK"`,
				Response: resp,
				Addr:     caddr,
				Length:   len(chunk),
			}
		}
	}
	return nil
}

// ReadMemory reads n bytes starting at addr, chunked like WriteMemory.
func (c *Client) ReadMemory(addr uint32, n int) ([]byte, error) {
	if addr%4 != 0 || n%4 != 0 || n < 0 {
		return nil, &AlignmentError{Addr: addr, Length: n}
	}

	c.logger.Info("read memory", logging.Addr("addr", addr), zap.Int("length", n))

	data := make([]byte, 0, n)
	for off := 0; off < n; off += c.chunkSize {
		clen := min(c.chunkSize, n-off)
		caddr := addr + uint32(off)

		req := make([]byte, 0, 18)
		req = append(req, 'm')
		req = rsp.AppendHex(req, uint64(caddr), 8)
		req = append(req, ',')
		req = rsp.AppendHex(req, uint64(clen), 8)

		resp, err := c.conn.Exchange(req)
		if err != nil {
			return nil, &TransferError{Op: "read memory", Addr: caddr, Length: clen, Err: err}
		}

		chunk, err := hex.AppendDecode(nil, resp)
		if err == nil && len(chunk) != clen {
			err = fmt.Errorf("got %d bytes", len(chunk))
		}
		if err != nil {
			return nil, &CommandError{
				Command:  "read memory",
				Expected: fmt.Sprintf("%d hex digit pairs", clen),
				Response: resp,
				Addr:     caddr,
				Length:   clen,
				Err:      err,
			}
		}
		data = append(data, chunk...)
	}
	return data, nil
}

// ReadRegisters reads the core registers r0-r15.
func (c *Client) ReadRegisters() (Registers, error) {
	var regs Registers

	resp, err := c.conn.Exchange([]byte{'g'})
	if err != nil {
		return regs, fmt.Errorf("read_all_regs: %w", err)
	}
	if err := regs.Decode(resp); err != nil {
		return regs, &CommandError{
			Command:  "read_all_regs",
			Expected: fmt.Sprintf("at least %d hex digits", 8*NumCoreRegisters),
			Response: resp,
			Err:      err,
		}
	}
	return regs, nil
}

// WriteRegister sets register idx (0-15 are r0-r15) to value.
func (c *Client) WriteRegister(idx int, value uint32) error {
	name := RegisterName(idx)
	c.logger.Info("write register", zap.String("reg", name), logging.Addr("value", value))

	req := make([]byte, 0, 12)
	req = append(req, 'P')
	req = rsp.AppendHex(req, uint64(idx), 2)
	req = append(req, '=')
	req = appendWordLE(req, value)

	return c.expectOK("set "+name, req)
}

// Continue resumes the target and blocks until the stub reports that it
// stopped. The stop reply is returned in printable form.
func (c *Client) Continue() (string, error) {
	c.logger.Info("resuming target")
	resp, err := c.conn.Exchange([]byte{'c'})
	if err != nil {
		return "", fmt.Errorf("continue: %w", err)
	}
	return rsp.Printable(resp), nil
}

// appendWordLE appends v as 8 hex digits in target (little-endian) byte order.
func appendWordLE(dst []byte, v uint32) []byte {
	for i := 0; i < 4; i++ {
		dst = rsp.AppendHex(dst, uint64(v>>(8*i))&0xff, 2)
	}
	return dst
}
