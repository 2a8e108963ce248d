package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected no-op logger when no level is configured")
	}
}

func TestDumps(t *testing.T) {
	if got := asciiDump([]byte("OK\x00\xff")); got != "OK.." {
		t.Errorf("asciiDump = %q, want %q", got, "OK..")
	}
	if got := hexDump([]byte{0x24, 0x23}); got != "2423" {
		t.Errorf("hexDump = %q, want %q", got, "2423")
	}

	long := make([]byte, maxDumpBytes+10)
	if got := hexDump(long); !strings.HasSuffix(got, "...") || len(got) != 2*maxDumpBytes+3 {
		t.Errorf("hexDump of long buffer not truncated: len %d", len(got))
	}
}

func TestPacketFields(t *testing.T) {
	fields := PacketFields([]byte("m00000000,00000004"))
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[0].Key != "length" || fields[0].Integer != 18 {
		t.Errorf("length field = %+v", fields[0])
	}
}

func TestLogRawBytes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	LogRawBytes(zap.New(core), "frame", []byte("S05"))

	entries := logs.AllUntimed()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if entries[0].Message != "frame" || fields["hex"] != "533035" || fields["ascii"] != "S05" {
		t.Errorf("entry = %q %v", entries[0].Message, fields)
	}
}

func TestLogRawBytesBelowDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	LogRawBytes(zap.New(core), "frame", []byte("S05"))
	if logs.Len() != 0 {
		t.Errorf("expected nothing logged at info level, got %d entries", logs.Len())
	}
}

func TestSync(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize("error"); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { logger = nil })
	// stderr may not support fsync; Sync ignores that
	Sync()
}
