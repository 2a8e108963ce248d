package config

import (
	"fmt"

	"github.com/muurk/ramload/internal/board"
	"github.com/muurk/ramload/internal/image"
)

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// Preferences represents the entire user configuration file.
type Preferences struct {
	Version int       `yaml:"version"`
	Stub    StubPrefs `yaml:"stub"`
	// Board selects the board profile used for remap and default SP
	Board string `yaml:"board,omitempty"`
	// ArchSpecificSegments is "load" or "reject"
	ArchSpecificSegments string `yaml:"arch_specific_segments,omitempty"`
	// ValidateFirst checks the whole image before touching the target
	ValidateFirst bool `yaml:"validate_first"`
}

// StubPrefs locates the debug stub.
type StubPrefs struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Defaults returns Preferences for a st-util running on the local machine.
func Defaults() *Preferences {
	return &Preferences{
		Version: CurrentVersion,
		Stub: StubPrefs{
			Host: "localhost",
			Port: 4242,
		},
		Board:                board.Default,
		ArchSpecificSegments: image.ArchLoad.String(),
	}
}

// Validate checks field values.
func (p *Preferences) Validate() error {
	if p.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", p.Version, CurrentVersion)
	}
	if p.Stub.Host == "" {
		return fmt.Errorf("stub.host must not be empty")
	}
	if p.Stub.Port <= 0 || p.Stub.Port > 65535 {
		return fmt.Errorf("stub.port %d out of range", p.Stub.Port)
	}
	if _, err := p.ArchPolicy(); err != nil {
		return err
	}
	return nil
}

// ArchPolicy returns the parsed arch_specific_segments setting.
func (p *Preferences) ArchPolicy() (image.ArchPolicy, error) {
	return image.ParseArchPolicy(p.ArchSpecificSegments)
}
