// Package toml loads unspool configuration from a TOML file.
//
// The file mirrors [unspool.Config] with snake_case keys. Every key is
// optional; anything left out keeps its default. Durations are strings in
// [time.ParseDuration] form:
//
//	[reveal]
//	unit = "grapheme"
//	max_rate = 300
//
//	[scroll]
//	max_velocity = 90
//	self_tag_window = "200ms"
package toml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/unspool"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file values.
const (
	EnvRevealUnit  = "UNSPOOL_REVEAL_UNIT"
	EnvMaxVelocity = "UNSPOOL_MAX_VELOCITY"
)

type duration time.Duration

func (d *duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type revealFile struct {
	Unit        string  `toml:"unit"`
	MinRate     float64 `toml:"min_rate"`
	MaxRate     float64 `toml:"max_rate"`
	InitialRate float64 `toml:"initial_rate"`
	Smoothing   float64 `toml:"smoothing"`
}

type scrollFile struct {
	Tolerance        float64  `toml:"tolerance"`
	NoiseThreshold   float64  `toml:"noise_threshold"`
	MaxVelocity      float64  `toml:"max_velocity"`
	Stiffness        float64  `toml:"stiffness"`
	SelfTagWindow    duration `toml:"self_tag_window"`
	SelfTagTolerance float64  `toml:"self_tag_tolerance"`
	FrameInterval    duration `toml:"frame_interval"`
}

type file struct {
	Reveal revealFile `toml:"reveal"`
	Scroll scrollFile `toml:"scroll"`
}

func fromConfig(c unspool.Config) file {
	return file{
		Reveal: revealFile{
			Unit:        string(c.Reveal.Unit),
			MinRate:     c.Reveal.MinRate,
			MaxRate:     c.Reveal.MaxRate,
			InitialRate: c.Reveal.InitialRate,
			Smoothing:   c.Reveal.Smoothing,
		},
		Scroll: scrollFile{
			Tolerance:        c.Scroll.Tolerance,
			NoiseThreshold:   c.Scroll.NoiseThreshold,
			MaxVelocity:      c.Scroll.MaxVelocity,
			Stiffness:        c.Scroll.Stiffness,
			SelfTagWindow:    duration(c.Scroll.SelfTagWindow),
			SelfTagTolerance: c.Scroll.SelfTagTolerance,
			FrameInterval:    duration(c.Scroll.FrameInterval),
		},
	}
}

func (f file) config() unspool.Config {
	return unspool.Config{
		Reveal: unspool.RevealConfig{
			Unit:        unspool.RevealUnit(f.Reveal.Unit),
			MinRate:     f.Reveal.MinRate,
			MaxRate:     f.Reveal.MaxRate,
			InitialRate: f.Reveal.InitialRate,
			Smoothing:   f.Reveal.Smoothing,
		},
		Scroll: unspool.ScrollConfig{
			Tolerance:        f.Scroll.Tolerance,
			NoiseThreshold:   f.Scroll.NoiseThreshold,
			MaxVelocity:      f.Scroll.MaxVelocity,
			Stiffness:        f.Scroll.Stiffness,
			SelfTagWindow:    time.Duration(f.Scroll.SelfTagWindow),
			SelfTagTolerance: f.Scroll.SelfTagTolerance,
			FrameInterval:    time.Duration(f.Scroll.FrameInterval),
		},
	}
}

// DefaultPath returns ~/.config/unspool/config.toml, or "" when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "unspool", "config.toml")
}

// Load reads the configuration at path on top of [unspool.DefaultConfig],
// applies environment overrides and validates the result. A missing file
// is not an error. Unknown keys are.
func Load(path string) (unspool.Config, error) {
	f := fromConfig(unspool.DefaultConfig())
	if path != "" {
		if err := decode(path, &f); err != nil {
			return unspool.Config{}, err
		}
	}
	cfg := f.config()
	if err := applyEnv(&cfg); err != nil {
		return unspool.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return unspool.Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(path string, f *file) error {
	r, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer r.Close()

	err = toml.NewDecoder(r).DisallowUnknownFields().Decode(f)
	var strict *toml.StrictMissingError
	if errors.As(err, &strict) {
		return fmt.Errorf("config %s: unknown keys:\n%s: %w", path, strict.String(), unspool.ErrValidation)
	}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		return fmt.Errorf("config %s:%d:%d: %w", path, row, col, err)
	}
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *unspool.Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvRevealUnit)); v != "" {
		cfg.Reveal.Unit = unspool.RevealUnit(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxVelocity)); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxVelocity, unspool.ErrValidation)
		}
		cfg.Scroll.MaxVelocity = f
	}
	return nil
}

// Encode renders cfg as TOML in the format Load reads.
func Encode(cfg unspool.Config) ([]byte, error) {
	b, err := toml.Marshal(fromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return b, nil
}
