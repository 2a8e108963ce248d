// Package rsptest provides an in-process debug stub for tests.
//
// The Stub understands the handful of packets ramload issues (!, R00, M, m,
// g, P, c), keeps a sparse byte-addressed memory and a register file, and
// records every request it receives. Faults are injected with Hook.
package rsptest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/muurk/ramload/internal/rsp"
)

// NumRegisters is the size of the register file reported by 'g'.
// st-util reports r0-r15, a block of legacy FPA registers and xPSR; the
// fake only cares about the first 16 words and pads with xPSR.
const NumRegisters = 17

// Hook may answer a request in place of the built-in handler.
// Returning handled=false falls through to the default behaviour.
type Hook func(req string) (reply string, handled bool)

// Stub is a fake st-util.
type Stub struct {
	// TrapReport is returned for 'c'.
	TrapReport string
	// Hook is consulted before the built-in handler.
	Hook Hook

	mu       sync.Mutex
	requests []string
	memory   map[uint32]byte
	regs     [NumRegisters]uint32
}

// New returns a stub with empty memory and a SIGTRAP stop reply.
func New() *Stub {
	return &Stub{
		TrapReport: "S05",
		memory:     make(map[uint32]byte),
	}
}

// Connect starts serving the stub on one end of an in-memory pipe and
// returns a client connection on the other end. Both ends are closed when
// the test finishes.
func (s *Stub) Connect(t testing.TB) *rsp.Conn {
	t.Helper()

	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(rsp.NewConn(server, nil))
	}()
	t.Cleanup(func() {
		client.Close()
		server.Close()
		<-done
	})

	return rsp.NewConn(client, nil)
}

// Serve answers requests until the connection fails.
func (s *Stub) Serve(conn *rsp.Conn) error {
	for {
		req, err := conn.Recv()
		if err != nil {
			return err
		}
		reply := s.handle(string(req))
		if err := conn.Send([]byte(reply)); err != nil {
			return err
		}
	}
}

// Requests returns a copy of every request payload received so far.
func (s *Stub) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Memory returns n bytes of the fake target memory starting at addr.
func (s *Stub) Memory(addr uint32, n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = s.memory[addr+uint32(i)]
	}
	return out
}

// Register returns the value of register idx.
func (s *Stub) Register(idx int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[idx]
}

// SetRegister presets register idx.
func (s *Stub) SetRegister(idx int, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[idx] = v
}

func (s *Stub) handle(req string) string {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	hook := s.Hook
	s.mu.Unlock()

	if hook != nil {
		if reply, ok := hook(req); ok {
			return reply
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case req == "!", req == "R00":
		return "OK"
	case req == "c":
		return s.TrapReport
	case req == "g":
		var buf []byte
		for _, r := range s.regs {
			buf = binary.LittleEndian.AppendUint32(buf, r)
		}
		return hex.EncodeToString(buf)
	case strings.HasPrefix(req, "M"):
		addr, n, data, err := parseAddrLen(req[1:], true)
		if err != nil || len(data) != n {
			return "E01"
		}
		for i, b := range data {
			s.memory[addr+uint32(i)] = b
		}
		return "OK"
	case strings.HasPrefix(req, "m"):
		addr, n, _, err := parseAddrLen(req[1:], false)
		if err != nil {
			return "E01"
		}
		out := make([]byte, n)
		for i := range out {
			out[i] = s.memory[addr+uint32(i)]
		}
		return hex.EncodeToString(out)
	case strings.HasPrefix(req, "P"):
		idxStr, valStr, ok := strings.Cut(req[1:], "=")
		if !ok {
			return "E01"
		}
		idx, err := strconv.ParseUint(idxStr, 16, 8)
		if err != nil || int(idx) >= len(s.regs) {
			return "E01"
		}
		raw, err := hex.DecodeString(valStr)
		if err != nil || len(raw) != 4 {
			return "E01"
		}
		s.regs[idx] = binary.LittleEndian.Uint32(raw)
		return "OK"
	}
	return ""
}

// parseAddrLen parses "AAAAAAAA,LLLLLLLL[:data]".
func parseAddrLen(s string, withData bool) (uint32, int, []byte, error) {
	head, body, hasBody := strings.Cut(s, ":")
	if withData != hasBody {
		return 0, 0, nil, fmt.Errorf("malformed request %q", s)
	}
	addrStr, lenStr, ok := strings.Cut(head, ",")
	if !ok {
		return 0, 0, nil, fmt.Errorf("malformed request %q", s)
	}
	addr, err := strconv.ParseUint(addrStr, 16, 32)
	if err != nil {
		return 0, 0, nil, err
	}
	n, err := strconv.ParseUint(lenStr, 16, 32)
	if err != nil {
		return 0, 0, nil, err
	}
	var data []byte
	if withData {
		if data, err = hex.DecodeString(body); err != nil {
			return 0, 0, nil, err
		}
	}
	return uint32(addr), int(n), data, nil
}
