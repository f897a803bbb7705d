// Package config defines the problem configuration consumed by the flux
// kernel and the assembly layer: flow regime, time-integration scheme,
// grid-motion flag, and the fixed problem sizes. Configurations can be built
// directly or loaded from a TOML file.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// TimeScheme identifies the outer time-integration scheme.
type TimeScheme uint8

const (
	EulerExplicit TimeScheme = iota
	EulerImplicit
)

var (
	timeSchemeNames = map[string]TimeScheme{
		"explicit": EulerExplicit,
		"implicit": EulerImplicit,
	}
	timeSchemePrintNames = []string{"Euler Explicit", "Euler Implicit"}
)

func (ts TimeScheme) String() string {
	return timeSchemePrintNames[ts]
}

// NewTimeScheme parses a time scheme label.
func NewTimeScheme(label string) (TimeScheme, error) {
	ts, ok := timeSchemeNames[strings.ToLower(label)]
	if !ok {
		return 0, fmt.Errorf("unknown time scheme %q", label)
	}
	return ts, nil
}

// Regime identifies the flow regime, which changes how completion formulas
// interpret the primitive state.
type Regime uint8

const (
	Compressible Regime = iota
	Incompressible
)

var (
	regimeNames = map[string]Regime{
		"compressible":   Compressible,
		"incompressible": Incompressible,
	}
	regimePrintNames = []string{"Compressible", "Incompressible"}
)

func (r Regime) String() string {
	return regimePrintNames[r]
}

// NewRegime parses a flow regime label.
func NewRegime(label string) (Regime, error) {
	r, ok := regimeNames[strings.ToLower(label)]
	if !ok {
		return 0, fmt.Errorf("unknown flow regime %q", label)
	}
	return r, nil
}

// Config is the problem definition shared by every flux computer of a run.
// The sizes NDim and NVar are fixed for the life of the problem; computers
// size their buffers from them at construction and never resize.
type Config struct {
	NDim int // Spatial dimensions, 2 or 3
	NVar int // Transported scalar variables per node

	TimeScheme  TimeScheme
	Regime      Regime
	DynamicGrid bool // Grid-velocity terms included when true

	Model string // Completion model label: "sa", "sst" or "species"
}

// Validate checks that the configuration describes a solvable problem.
func (c *Config) Validate() error {
	if c.NDim != 2 && c.NDim != 3 {
		return fmt.Errorf("NDim must be 2 or 3, got %d", c.NDim)
	}
	if c.NVar < 1 {
		return fmt.Errorf("NVar must be at least 1, got %d", c.NVar)
	}
	return nil
}

// fileConfig is the on-disk TOML shape; kinds are labels rather than enums.
type fileConfig struct {
	NDim        int    `toml:"ndim"`
	NVar        int    `toml:"nvar"`
	TimeScheme  string `toml:"time_scheme"`
	Regime      string `toml:"regime"`
	DynamicGrid bool   `toml:"dynamic_grid"`
	Model       string `toml:"model"`
}

// Load reads a problem configuration from a TOML file.
func Load(path string) (*Config, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return fromFile(&fc)
}

// Parse reads a problem configuration from TOML source text.
func Parse(data string) (*Config, error) {
	var fc fileConfig
	if _, err := toml.Decode(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return fromFile(&fc)
}

func fromFile(fc *fileConfig) (*Config, error) {
	c := &Config{
		NDim:        fc.NDim,
		NVar:        fc.NVar,
		DynamicGrid: fc.DynamicGrid,
		Model:       fc.Model,
	}
	if fc.TimeScheme != "" {
		ts, err := NewTimeScheme(fc.TimeScheme)
		if err != nil {
			return nil, err
		}
		c.TimeScheme = ts
	}
	if fc.Regime != "" {
		r, err := NewRegime(fc.Regime)
		if err != nil {
			return nil, err
		}
		c.Regime = r
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
