package main

import (
	"debug/elf"
	"errors"
	"strings"
	"testing"

	"github.com/muurk/ramload/internal/board"
	"github.com/muurk/ramload/internal/image"
	"github.com/muurk/ramload/internal/image/imagetest"
	"github.com/muurk/ramload/internal/loader"
	"github.com/muurk/ramload/internal/rsp"
	"github.com/muurk/ramload/internal/ui"
)

func testBoard(t *testing.T) *board.Board {
	t.Helper()
	b, err := board.Lookup("")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return b
}

func TestSegmentTable(t *testing.T) {
	buf := imagetest.Builder{
		Segments: []imagetest.Segment{
			{Type: elf.PT_LOAD, PAddr: 0, Data: imagetest.VectorTable(0x10008000, 0x189, 16)},
			{Type: elf.PT_NOTE, Data: []byte("gnu\x00")},
		},
	}.Build()
	hdr, err := image.ParseHeader(buf)
	if err != nil {
		t.Fatal(err)
	}

	out, err := segmentTable(buf, hdr, image.ArchLoad, testBoard(t))
	if err != nil {
		t.Fatalf("segmentTable() error = %v", err)
	}
	for _, want := range []string{"PT_LOAD", "load", "PT_NOTE", "skip", "0x10008000 (vector table)", "16 bytes in RAM"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestSegmentTableStopsAtRejectedEntry(t *testing.T) {
	buf := imagetest.Builder{
		Segments: []imagetest.Segment{
			{Type: elf.PT_INTERP, Data: []byte("/lib/ld\x00")},
			{Type: elf.PT_LOAD, PAddr: 0x20000000, Data: make([]byte, 4)},
		},
	}.Build()
	hdr, err := image.ParseHeader(buf)
	if err != nil {
		t.Fatal(err)
	}

	out, err := segmentTable(buf, hdr, image.ArchLoad, testBoard(t))
	if !errors.Is(err, image.ErrDynamicSegment) {
		t.Fatalf("err = %v, want ErrDynamicSegment", err)
	}
	if strings.Contains(out, "0x20000000") || strings.Contains(out, "Initial SP") {
		t.Errorf("table should stop at the rejected entry:\n%s", out)
	}
}

func TestBoardListIncludesNotes(t *testing.T) {
	catalog, err := board.Load()
	if err != nil {
		t.Fatalf("board.Load() error = %v", err)
	}
	out := boardList(catalog)
	for _, want := range []string{board.Default + " (default)", "0x40013800 <- 0x00000003", "SYSCFG_MEMRMP = 3 maps SRAM1"} {
		if !strings.Contains(out, want) {
			t.Errorf("board list missing %q:\n%s", want, out)
		}
	}
}

func TestStepStatus(t *testing.T) {
	tests := map[loader.Status]ui.StepStatus{
		loader.StatusInProgress: ui.StepRunning,
		loader.StatusSuccess:    ui.StepComplete,
		loader.StatusFailed:     ui.StepFailed,
		loader.StatusSkipped:    ui.StepSkipped,
		"bogus":                 ui.StepPending,
	}
	for in, want := range tests {
		if got := stepStatus(in); got != want {
			t.Errorf("stepStatus(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadTips(t *testing.T) {
	s := &settings{host: "localhost", port: 4242, board: testBoard(t)}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"format", &loader.StepError{Step: "x", Err: &image.FormatError{Err: image.ErrBadMagic}}, "ramload inspect"},
		{"arch", &image.SegmentError{Err: image.ErrArchSegment}, "--arch-segments load"},
		{"readback", &loader.ReadbackError{}, "remaps RAM"},
		{"broken", rsp.ErrBrokenStream, "st-util -p 4242"},
		{"other", errors.New("boom"), "--verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tips := strings.Join(loadTips(tt.err, s), "\n")
			if !strings.Contains(tips, tt.want) {
				t.Errorf("tips missing %q:\n%s", tt.want, tips)
			}
		})
	}
}
