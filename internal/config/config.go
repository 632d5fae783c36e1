// Package config layers the application settings: defaults, then the
// store's settings table, then MUDRA_* environment variables. Command-line
// flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ayusman/mudra/internal/scene"
)

// EnvPrefix is prepended to the upper-cased setting key.
const EnvPrefix = "MUDRA_"

// Config holds every user-tunable setting.
type Config struct {
	Particles   int
	Idle        string
	Alpha       float64
	ColorFactor float64
	ShortHold   int
	LongHold    int
	PointSize   float64
	CameraID    int
	AssetsDir   string
	DataDir     string
	ServerAddr  string
	Phrases     []string
	Audio       bool
	Gestures    bool
}

// Default returns the built-in settings.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	data := filepath.Join(home, ".mudra")
	sc := scene.DefaultConfig()

	return Config{
		Particles:   sc.Particles,
		Idle:        sc.Idle.String(),
		Alpha:       sc.Motion.Alpha,
		ColorFactor: sc.Motion.ColorFactor,
		ShortHold:   sc.ShortHold,
		LongHold:    sc.LongHold,
		PointSize:   sc.PointSize,
		CameraID:    0,
		AssetsDir:   filepath.Join(data, "assets"),
		DataDir:     data,
		ServerAddr:  "127.0.0.1:8420",
		Phrases:     append([]string(nil), sc.Phrases...),
		Audio:       true,
		Gestures:    true,
	}
}

// field binds a setting key to a Config field.
type field struct {
	key string
	set func(c *Config, v string) error
}

var fields = []field{
	{"particles", intField(func(c *Config) *int { return &c.Particles })},
	{"idle", func(c *Config, v string) error { c.Idle = v; return nil }},
	{"alpha", floatField(func(c *Config) *float64 { return &c.Alpha })},
	{"color_factor", floatField(func(c *Config) *float64 { return &c.ColorFactor })},
	{"short_hold", intField(func(c *Config) *int { return &c.ShortHold })},
	{"long_hold", intField(func(c *Config) *int { return &c.LongHold })},
	{"point_size", floatField(func(c *Config) *float64 { return &c.PointSize })},
	{"camera", intField(func(c *Config) *int { return &c.CameraID })},
	{"assets_dir", func(c *Config, v string) error { c.AssetsDir = v; return nil }},
	{"data_dir", func(c *Config, v string) error { c.DataDir = v; return nil }},
	{"server_addr", func(c *Config, v string) error { c.ServerAddr = v; return nil }},
	{"phrases", func(c *Config, v string) error { c.Phrases = SplitPhrases(v); return nil }},
	{"audio", boolField(func(c *Config) *bool { return &c.Audio })},
	{"gestures", boolField(func(c *Config) *bool { return &c.Gestures })},
}

func intField(ptr func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*ptr(c) = n
		return nil
	}
}

func floatField(ptr func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		*ptr(c) = f
		return nil
	}
}

func boolField(ptr func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*ptr(c) = b
		return nil
	}
}

// Keys lists every setting key.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// Set applies one setting by key.
func (c *Config) Set(key, value string) error {
	for _, f := range fields {
		if f.key == key {
			if err := f.set(c, value); err != nil {
				return fmt.Errorf("setting %s=%q: %w", key, value, err)
			}
			return nil
		}
	}
	return fmt.Errorf("unknown setting %q", key)
}

// ApplySettings applies stored settings. Bad values are skipped and
// reported together; unknown keys are ignored.
func (c *Config) ApplySettings(settings map[string]string) error {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if !known(k) {
			continue
		}
		if err := c.Set(k, settings[k]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyEnv applies MUDRA_<KEY> variables found through lookup, usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	for _, f := range fields {
		v, ok := lookup(EnvPrefix + strings.ToUpper(f.key))
		if !ok || v == "" {
			continue
		}
		if err := f.set(c, v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, strings.ToUpper(f.key), err))
		}
	}
	return errors.Join(errs...)
}

func known(key string) bool {
	for _, f := range fields {
		if f.key == key {
			return true
		}
	}
	return false
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	var errs []error
	if c.Particles <= 0 {
		errs = append(errs, fmt.Errorf("particles must be positive, got %d", c.Particles))
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		errs = append(errs, fmt.Errorf("alpha must be in (0,1), got %g", c.Alpha))
	}
	if c.ColorFactor <= 0 || c.ColorFactor > 1 {
		errs = append(errs, fmt.Errorf("color_factor must be in (0,1], got %g", c.ColorFactor))
	}
	if c.ShortHold <= 0 || c.LongHold < c.ShortHold {
		errs = append(errs, fmt.Errorf("holds must satisfy 0 < short <= long, got %d/%d", c.ShortHold, c.LongHold))
	}
	if s, err := scene.ParseState(c.Idle); err != nil {
		errs = append(errs, fmt.Errorf("idle: %w", err))
	} else if !s.Idle() {
		errs = append(errs, fmt.Errorf("idle must be planet or sphere, got %s", s))
	}
	return errors.Join(errs...)
}

// Scene converts the settings into the state machine configuration.
func (c Config) Scene() (scene.Config, error) {
	if err := c.Validate(); err != nil {
		return scene.Config{}, err
	}
	idle, _ := scene.ParseState(c.Idle)

	sc := scene.DefaultConfig()
	sc.Particles = c.Particles
	sc.Idle = idle
	sc.ShortHold = c.ShortHold
	sc.LongHold = c.LongHold
	sc.PointSize = c.PointSize
	sc.Motion.Alpha = c.Alpha
	sc.Motion.ColorFactor = c.ColorFactor
	if len(c.Phrases) > 0 {
		sc.Phrases = append([]string(nil), c.Phrases...)
	}
	return sc, nil
}

// DBPath returns the database file inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// SplitPhrases parses a "|"-separated phrase list, dropping blanks.
func SplitPhrases(v string) []string {
	var out []string
	for _, p := range strings.Split(v, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
