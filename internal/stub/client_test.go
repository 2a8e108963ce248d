package stub

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/muurk/ramload/internal/rsp"
	"github.com/muurk/ramload/internal/rsp/rsptest"
)

func newTestClient(t *testing.T, s *rsptest.Stub, opts ...Option) *Client {
	t.Helper()
	return NewClient(s.Connect(t), zap.NewNop(), opts...)
}

func pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + i>>8)
	}
	return data
}

func TestSimpleCommands(t *testing.T) {
	s := rsptest.New()
	c := newTestClient(t, s)

	if err := c.EnableExtendedMode(); err != nil {
		t.Fatalf("EnableExtendedMode() error = %v", err)
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	got := s.Requests()
	want := []string{"!", "R00"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("requests = %q, want %q", got, want)
	}
}

func TestCommandRejected(t *testing.T) {
	tests := []struct {
		name    string
		run     func(c *Client) error
		command string
	}{
		{"extended mode", (*Client).EnableExtendedMode, "set persistency"},
		{"reset", (*Client).Reset, "reset"},
		{"write register", func(c *Client) error { return c.WriteRegister(RegPC, 1) }, "set PC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rsptest.New()
			s.Hook = func(string) (string, bool) { return "E01", true }
			c := newTestClient(t, s)

			err := tt.run(c)
			var cmdErr *CommandError
			if !errors.As(err, &cmdErr) {
				t.Fatalf("err = %v, want *CommandError", err)
			}
			if cmdErr.Command != tt.command {
				t.Errorf("Command = %q, want %q", cmdErr.Command, tt.command)
			}
			if !strings.Contains(err.Error(), `"E01"`) {
				t.Errorf("error %q does not show the reply", err)
			}
		})
	}
}

func TestWriteMemoryChunking(t *testing.T) {
	tests := []struct {
		name   string
		addr   uint32
		length int
		chunks []int
	}{
		{"single small", 0x20000000, 16, []int{16}},
		{"exactly one chunk", 0x20000000, ChunkSize, []int{ChunkSize}},
		{"one over", 0x20000000, ChunkSize + 4, []int{ChunkSize, 4}},
		{"several", 0x00000000, 10000, []int{4096, 4096, 1808}},
		{"empty", 0x20000000, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rsptest.New()
			c := newTestClient(t, s)
			data := pattern(tt.length)

			if err := c.WriteMemory(tt.addr, data); err != nil {
				t.Fatalf("WriteMemory() error = %v", err)
			}

			reqs := s.Requests()
			if len(reqs) != len(tt.chunks) {
				t.Fatalf("got %d requests, want %d", len(reqs), len(tt.chunks))
			}
			addr := tt.addr
			for i, n := range tt.chunks {
				prefix := fmt.Sprintf("M%08x,%08x:", addr, n)
				if !strings.HasPrefix(reqs[i], prefix) {
					t.Errorf("request %d = %.30q..., want prefix %q", i, reqs[i], prefix)
				}
				if len(reqs[i]) != len(prefix)+2*n {
					t.Errorf("request %d carries %d data digits, want %d", i, len(reqs[i])-len(prefix), 2*n)
				}
				addr += uint32(n)
			}

			if !bytes.Equal(s.Memory(tt.addr, tt.length), data) {
				t.Error("stub memory does not match written data")
			}
		})
	}
}

func TestReadMemoryChunking(t *testing.T) {
	s := rsptest.New()
	c := newTestClient(t, s)
	data := pattern(9000)

	if err := c.WriteMemory(0x20000000, data); err != nil {
		t.Fatalf("WriteMemory() error = %v", err)
	}
	before := len(s.Requests())

	got, err := c.ReadMemory(0x20000000, len(data))
	if err != nil {
		t.Fatalf("ReadMemory() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("read data differs from written data")
	}

	reads := s.Requests()[before:]
	want := []string{
		"m20000000,00001000",
		"m20001000,00001000",
		"m20002000,00000328",
	}
	if strings.Join(reads, " ") != strings.Join(want, " ") {
		t.Errorf("read requests = %q, want %q", reads, want)
	}
}

func TestWithChunkSize(t *testing.T) {
	s := rsptest.New()
	c := newTestClient(t, s, WithChunkSize(8), WithChunkSize(7))

	if err := c.WriteMemory(0, pattern(20)); err != nil {
		t.Fatalf("WriteMemory() error = %v", err)
	}
	if n := len(s.Requests()); n != 3 {
		t.Errorf("got %d requests with chunk size 8, want 3", n)
	}
}

func TestMemoryAlignment(t *testing.T) {
	s := rsptest.New()
	c := newTestClient(t, s)

	var alignErr *AlignmentError
	if err := c.WriteMemory(0x2, pattern(4)); !errors.As(err, &alignErr) {
		t.Errorf("unaligned address: err = %v, want *AlignmentError", err)
	}
	if err := c.WriteMemory(0x0, pattern(6)); !errors.As(err, &alignErr) {
		t.Errorf("unaligned length: err = %v, want *AlignmentError", err)
	}
	if _, err := c.ReadMemory(0x1, 4); !errors.As(err, &alignErr) {
		t.Errorf("unaligned read: err = %v, want *AlignmentError", err)
	}
	if n := len(s.Requests()); n != 0 {
		t.Errorf("%d requests sent for rejected transfers", n)
	}
}

func TestWriteMemoryFailureKeepsContext(t *testing.T) {
	s := rsptest.New()
	s.Hook = func(req string) (string, bool) {
		if strings.HasPrefix(req, "M20001000") {
			return "E0E", true
		}
		return "", false
	}
	c := newTestClient(t, s)

	err := c.WriteMemory(0x20000000, pattern(3*ChunkSize))
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("err = %v, want *CommandError", err)
	}
	if cmdErr.Addr != 0x20001000 || cmdErr.Length != ChunkSize {
		t.Errorf("error context = 0x%08X/%d, want 0x20001000/%d", cmdErr.Addr, cmdErr.Length, ChunkSize)
	}
	if n := len(s.Requests()); n != 2 {
		t.Errorf("%d requests sent, want the write to stop after the failing chunk (2)", n)
	}
}

func TestReadMemoryBadReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"error reply", "E01"},
		{"short", "0011"},
		{"not hex", "zz112233"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rsptest.New()
			s.Hook = func(string) (string, bool) { return tt.reply, true }
			c := newTestClient(t, s)

			_, err := c.ReadMemory(0, 4)
			var cmdErr *CommandError
			if !errors.As(err, &cmdErr) {
				t.Fatalf("err = %v, want *CommandError", err)
			}
		})
	}
}

func TestReadRegisters(t *testing.T) {
	s := rsptest.New()
	for i := 0; i < NumCoreRegisters; i++ {
		s.SetRegister(i, 0x11111111*uint32(i%16))
	}
	s.SetRegister(RegSP, 0x10010000)
	s.SetRegister(RegPC, 0x00000199)
	c := newTestClient(t, s)

	regs, err := c.ReadRegisters()
	if err != nil {
		t.Fatalf("ReadRegisters() error = %v", err)
	}
	if regs.SP() != 0x10010000 {
		t.Errorf("SP = %08X, want 10010000", regs.SP())
	}
	if regs.PC() != 0x00000199 {
		t.Errorf("PC = %08X, want 00000199", regs.PC())
	}
	if regs[3] != 0x33333333 {
		t.Errorf("r3 = %08X, want 33333333", regs[3])
	}
}

func TestRegistersDecode(t *testing.T) {
	// r0 = 0x04030201 transmitted least significant byte first
	reply := "01020304" + strings.Repeat("00000000", 15)
	var regs Registers
	if err := regs.Decode([]byte(reply)); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if regs[0] != 0x04030201 {
		t.Errorf("r0 = %08X, want 04030201", regs[0])
	}

	if err := regs.Decode([]byte(reply[:len(reply)-1])); err == nil {
		t.Error("expected error for a reply one digit short")
	}
}

func TestReadRegistersShortReply(t *testing.T) {
	s := rsptest.New()
	s.Hook = func(string) (string, bool) { return strings.Repeat("0", 8*15), true }
	c := newTestClient(t, s)

	_, err := c.ReadRegisters()
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("err = %v, want *CommandError", err)
	}
}

func TestWriteRegisterEncoding(t *testing.T) {
	s := rsptest.New()
	c := newTestClient(t, s)

	if err := c.WriteRegister(RegSP, 0x10010000); err != nil {
		t.Fatalf("WriteRegister(SP) error = %v", err)
	}
	if err := c.WriteRegister(RegPC, 0x08000189); err != nil {
		t.Fatalf("WriteRegister(PC) error = %v", err)
	}

	want := []string{"P0d=00000110", "P0f=89010008"}
	got := s.Requests()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("requests = %q, want %q", got, want)
	}
	if s.Register(RegPC) != 0x08000189 {
		t.Errorf("stub PC = %08X, want 08000189", s.Register(RegPC))
	}
}

func TestContinueReturnsPrintableReport(t *testing.T) {
	s := rsptest.New()
	s.TrapReport = "T05\x01\\"
	c := newTestClient(t, s)

	report, err := c.Continue()
	if err != nil {
		t.Fatalf("Continue() error = %v", err)
	}
	if report != `T05\x01\x5C` {
		t.Errorf("report = %q", report)
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	c := NewClient(brokenExchanger{}, nil)

	err := c.WriteMemory(0x100, pattern(4))
	var te *TransferError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransferError", err)
	}
	if !errors.Is(err, rsp.ErrBrokenStream) {
		t.Errorf("err = %v, want to wrap ErrBrokenStream", err)
	}
	if te.Addr != 0x100 {
		t.Errorf("Addr = 0x%X, want 0x100", te.Addr)
	}
}

type brokenExchanger struct{}

func (brokenExchanger) Exchange([]byte) ([]byte, error) {
	return nil, rsp.ErrBrokenStream
}

func TestRegistersString(t *testing.T) {
	var regs Registers
	regs[RegPC] = 0xDEADBEEF
	out := regs.String()
	if lines := strings.Split(out, "\n"); len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(out, "r15: DEADBEEF") {
		t.Errorf("missing r15 in %q", out)
	}
}
