// Package config loads the settings of a simulation run.
package config

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/blofeld/blofeld/disease"
)

// Config describes one simulation run.
type Config struct {
	// Seed of the run. Zero draws a seed from the operating system.
	Seed uint64 `koanf:"seed"`

	// MaxTime bounds simulated time. Zero means no bound.
	MaxTime float64 `koanf:"max_time"`

	// MaxRounds bounds the number of dispatched events. Zero means no bound.
	MaxRounds uint64 `koanf:"max_rounds"`

	// Parallelism is the number of modules that propose weights at the same
	// time. Zero or less uses all CPUs.
	Parallelism int `koanf:"parallelism"`

	LogLevel string `koanf:"log_level"`

	Herds    []Herd         `koanf:"herds"`
	Contacts [][]float64    `koanf:"contacts"`
	Disease  disease.Params `koanf:"disease"`

	Culling   Culling   `koanf:"culling"`
	Recording Recording `koanf:"recording"`
	Monitor   Monitor   `koanf:"monitor"`
}

// Herd describes a herd and how many of its members start in each stage.
// Members not listed in Initial are susceptible.
type Herd struct {
	Name    string         `koanf:"name"`
	Size    int            `koanf:"size"`
	Initial map[string]int `koanf:"initial"`
}

// Culling configures the culling authority.
type Culling struct {
	Enabled bool `koanf:"enabled"`

	// Detection is the rate at which a clinical individual is found.
	Detection float64 `koanf:"detection"`

	// Threshold is the number of clinical onsets that activate culling.
	Threshold int `koanf:"threshold"`
}

// Recording configures the SQLite result database.
type Recording struct {
	Enabled bool `koanf:"enabled"`

	// Path of the database without the .sqlite3 extension. Empty picks a
	// unique name.
	Path string `koanf:"path"`
}

// Monitor configures the web monitor.
type Monitor struct {
	Enabled     bool `koanf:"enabled"`
	Port        int  `koanf:"port"`
	OpenBrowser bool `koanf:"open_browser"`
}

// New returns the default configuration: a single herd of 100 animals with
// one infectious clinical case.
func New() *Config {
	params := disease.DefaultParams()
	params.BetaClinical = 0.5
	params.BetaSubclin = 0.25
	params.Incubation = 0.2
	params.Progression = 0.5
	params.Recovery = 0.1
	params.Healing = 0.2

	return &Config{
		MaxTime:     365,
		Parallelism: 1,
		LogLevel:    "info",
		Herds: []Herd{
			{Name: "herd", Size: 100, Initial: map[string]int{"I": 1}},
		},
		Disease: params,
		Culling: Culling{
			Detection: 0.5,
			Threshold: 5,
		},
	}
}

// Level returns the parsed log level.
func (c *Config) Level() log.Level {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}

	return l
}

// InitialStages converts the initial stage counts of a herd.
func (h Herd) InitialStages() (map[disease.Stage]int, error) {
	stages := make(map[disease.Stage]int, len(h.Initial))

	for name, n := range h.Initial {
		s, ok := disease.ParseStage(name)
		if !ok {
			return nil, fmt.Errorf("herd %q: unknown stage %q", h.Name, name)
		}

		if n < 0 {
			return nil, fmt.Errorf("herd %q: negative count for stage %s",
				h.Name, name)
		}

		stages[s] += n
	}

	return stages, nil
}

// Validate checks the configuration for settings that cannot be simulated.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

func (c *Config) validate() error {
	if c.MaxTime < 0 {
		return fmt.Errorf("max_time must not be negative")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if len(c.Herds) == 0 {
		return fmt.Errorf("at least one herd is required")
	}

	for _, h := range c.Herds {
		if err := validateHerd(h); err != nil {
			return err
		}
	}

	if err := c.Disease.Validate(); err != nil {
		return fmt.Errorf("disease: %w", err)
	}

	if err := c.validateContacts(); err != nil {
		return err
	}

	if c.Culling.Enabled {
		if c.Culling.Detection <= 0 {
			return fmt.Errorf("culling.detection must be positive")
		}

		if c.Culling.Threshold < 1 {
			return fmt.Errorf("culling.threshold must be at least 1")
		}
	}

	return nil
}

func validateHerd(h Herd) error {
	if h.Size < 0 {
		return fmt.Errorf("herd %q: size must not be negative", h.Name)
	}

	stages, err := h.InitialStages()
	if err != nil {
		return err
	}

	seeded := 0
	for _, n := range stages {
		seeded += n
	}

	if seeded > h.Size {
		return fmt.Errorf("herd %q: %d initial cases exceed size %d",
			h.Name, seeded, h.Size)
	}

	return nil
}

func (c *Config) validateContacts() error {
	if len(c.Contacts) == 0 {
		return nil
	}

	if len(c.Contacts) != len(c.Herds) {
		return fmt.Errorf("contacts has %d rows, want %d",
			len(c.Contacts), len(c.Herds))
	}

	for i, row := range c.Contacts {
		if len(row) != len(c.Herds) {
			return fmt.Errorf("contacts row %d has %d columns, want %d",
				i, len(row), len(c.Herds))
		}
	}

	return nil
}
