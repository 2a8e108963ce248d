package rsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/muurk/ramload/internal/logging"
)

// rxChunkSize matches the receive size st-util clients traditionally use.
const rxChunkSize = 2048

// Conn exchanges framed packets with a debug stub over a byte stream.
type Conn struct {
	rw     io.ReadWriter
	logger *zap.Logger

	rxBuf [rxChunkSize]byte
	dec   Decoder
}

// NewConn wraps an established stream. If logger is nil a no-op logger is used.
func NewConn(rw io.ReadWriter, logger *zap.Logger) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conn{
		rw:     rw,
		logger: logger,
	}
}

// Dial connects to a debug stub listening on addr ("host:port").
func Dial(ctx context.Context, addr string, logger *zap.Logger) (*Conn, error) {
	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to debug stub at %s: %w", addr, err)
	}
	c := NewConn(nc, logger)
	c.logger.Debug("connected to debug stub", zap.String("addr", addr))
	return c, nil
}

// Close closes the underlying stream if it supports closing.
func (c *Conn) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// CloseOnDone closes the connection as soon as ctx is done, which unblocks
// any pending read or write. The returned function detaches the watcher.
func (c *Conn) CloseOnDone(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		c.logger.Debug("context done, closing stub connection", zap.Error(ctx.Err()))
		_ = c.Close()
	})
}

// Send frames payload, writes it and waits for the peer's acknowledgement.
func (c *Conn) Send(payload []byte) error {
	logging.LogRawBytes(c.logger, "rsp send", payload)

	frame := AppendFrame(make([]byte, 0, len(payload)+8), payload)
	if err := c.writeFull(frame); err != nil {
		return fmt.Errorf("send packet: %w", err)
	}

	var ack [1]byte
	n, err := c.rw.Read(ack[:])
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			err = ErrBrokenStream
		}
		return &AckError{Err: err}
	}
	if ack[0] != Ack {
		return &AckError{Got: ack[0]}
	}
	return nil
}

// Recv reads one packet, verifies it, acknowledges it and returns its
// unescaped payload.
func (c *Conn) Recv() ([]byte, error) {
	c.dec.Reset()
	for {
		n, err := c.rw.Read(c.rxBuf[:])
		if n == 0 {
			if err == nil || errors.Is(err, io.EOF) {
				err = ErrBrokenStream
			}
			return nil, fmt.Errorf("receive packet: %w", err)
		}

		done, ferr := c.dec.Feed(c.rxBuf[:n])
		if ferr != nil {
			return nil, ferr
		}
		if done {
			break
		}
	}

	payload := c.dec.Payload()
	logging.LogRawBytes(c.logger, "rsp recv", payload)

	if err := c.writeFull([]byte{Ack}); err != nil {
		return nil, fmt.Errorf("send ack: %w", err)
	}
	return payload, nil
}

// Exchange sends a request and returns the stub's reply.
func (c *Conn) Exchange(payload []byte) ([]byte, error) {
	if err := c.Send(payload); err != nil {
		return nil, err
	}
	return c.Recv()
}

func (c *Conn) writeFull(buf []byte) error {
	for len(buf) > 0 {
		n, err := c.rw.Write(buf)
		if err != nil {
			return err
		}
		if n <= 0 {
			return ErrBrokenStream
		}
		buf = buf[n:]
	}
	return nil
}
