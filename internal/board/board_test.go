package board

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(c.Boards) == 0 {
		t.Fatal("expected at least one board in catalog")
	}

	// Should return the same instance
	c2, err := Load()
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if c != c2 {
		t.Error("expected Load to return same instance")
	}
}

func TestDefaultBoard(t *testing.T) {
	b, err := Lookup("")
	if err != nil {
		t.Fatalf("Lookup(\"\") failed: %v", err)
	}
	if b.Name != Default {
		t.Errorf("expected %s, got %s", Default, b.Name)
	}
	if b.Remap.Address != 0x40013800 || b.Remap.Value != 3 {
		t.Errorf("remap = 0x%08x <- 0x%08x, want 0x40013800 <- 0x00000003", b.Remap.Address, b.Remap.Value)
	}
	if b.DefaultStackPointer != 0x10010000 {
		t.Errorf("default SP = 0x%08x, want 0x10010000", b.DefaultStackPointer)
	}
	if !bytes.Equal(b.Remap.Bytes(), []byte{3, 0, 0, 0}) {
		t.Errorf("remap bytes = % x", b.Remap.Bytes())
	}
}

func TestUnknownBoard(t *testing.T) {
	_, err := Lookup("arduino-uno")

	var ub *UnknownBoardError
	if !errors.As(err, &ub) {
		t.Fatalf("expected *UnknownBoardError, got %v", err)
	}
	if !strings.Contains(err.Error(), Default) {
		t.Errorf("error should list available boards: %v", err)
	}
}

func TestNamesSorted(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	names := c.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"invalid yaml", "boards: [", "failed to parse"},
		{"missing name", "boards:\n  - description: x\n", "without a name"},
		{"duplicate", "boards:\n  - name: a\n  - name: a\n", "duplicate"},
		{"unaligned remap", "boards:\n  - name: a\n    remap:\n      address: 0x40013801\n", "not word aligned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
