package board

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed boards.yaml
var boardsYAML []byte

// Default is the board used when none is configured.
const Default = "stm32f4-discovery"

// Board describes the target-specific setup a load needs.
type Board struct {
	// Name is the identifier used on the command line
	Name string `yaml:"name"`

	// Description is the human-readable board name
	Description string `yaml:"description"`

	// Remap is the register write issued right after reset
	Remap Remap `yaml:"remap"`

	// DefaultStackPointer is used when the image does not provide one
	DefaultStackPointer uint32 `yaml:"default_stack_pointer"`

	// Notes explains the remap and stack choice; shown by 'ramload boards'
	Notes string `yaml:"notes"`
}

// Remap is a single word written to a memory-mapped configuration register.
type Remap struct {
	Address uint32 `yaml:"address"`
	Value   uint32 `yaml:"value"`
}

// Bytes returns the remap value in target byte order.
func (r Remap) Bytes() []byte {
	return binary.LittleEndian.AppendUint32(nil, r.Value)
}

func (b *Board) String() string {
	return fmt.Sprintf("%s - %s", b.Name, b.Description)
}

// Catalog holds the known boards.
type Catalog struct {
	Boards []*Board
	index  map[string]*Board
}

type catalogContainer struct {
	Boards []*Board `yaml:"boards"`
}

var (
	globalCatalog     *Catalog
	globalCatalogOnce sync.Once
	globalCatalogErr  error
)

// Load parses the embedded board catalog. It is safe to call repeatedly;
// the catalog is parsed only once.
func Load() (*Catalog, error) {
	globalCatalogOnce.Do(func() {
		globalCatalog, globalCatalogErr = Parse(boardsYAML)
	})
	return globalCatalog, globalCatalogErr
}

// Parse builds a catalog from YAML data.
func Parse(data []byte) (*Catalog, error) {
	var container catalogContainer
	if err := yaml.Unmarshal(data, &container); err != nil {
		return nil, fmt.Errorf("failed to parse board catalog: %w", err)
	}

	c := &Catalog{
		Boards: container.Boards,
		index:  make(map[string]*Board, len(container.Boards)),
	}
	for _, b := range c.Boards {
		if b.Name == "" {
			return nil, fmt.Errorf("board catalog: entry without a name")
		}
		if _, dup := c.index[b.Name]; dup {
			return nil, fmt.Errorf("board catalog: duplicate board %q", b.Name)
		}
		if b.Remap.Address%4 != 0 {
			return nil, fmt.Errorf("board %q: remap address 0x%08x is not word aligned", b.Name, b.Remap.Address)
		}
		c.index[b.Name] = b
	}
	return c, nil
}

// Get looks up a board by name.
func (c *Catalog) Get(name string) (*Board, error) {
	b, ok := c.index[name]
	if !ok {
		return nil, &UnknownBoardError{Name: name, Available: c.Names()}
	}
	return b, nil
}

// Names returns the board names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.index))
	for name := range c.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup loads the embedded catalog and returns the named board.
// An empty name selects Default.
func Lookup(name string) (*Board, error) {
	if name == "" {
		name = Default
	}
	c, err := Load()
	if err != nil {
		return nil, err
	}
	return c.Get(name)
}

// UnknownBoardError is returned for a board name missing from the catalog.
type UnknownBoardError struct {
	Name      string
	Available []string
}

func (e *UnknownBoardError) Error() string {
	return fmt.Sprintf("unknown board %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}
