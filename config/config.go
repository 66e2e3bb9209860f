package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
)

/// DefaultFile is the configuration file read when none is given.
///
const DefaultFile = "chip8.toml"

/// DefaultKeys maps keyboard keys to the hex pad in the classic layout:
///
///	1 2 3 4      1 2 3 C
///	q w e r  ->  4 5 6 D
///	a s d f      7 8 9 E
///	z x c v      A 0 B F
///
const DefaultKeys = "x123qweasdzc4rfv"

/// Config holds the settings shared by the hosts.
///
type Config struct {
	/// CyclesPerSecond is how many instructions are executed per second.
	///
	CyclesPerSecond int `toml:"cycles_per_second"`

	/// Scale is the window pixel size of a single CHIP-8 pixel.
	///
	Scale int `toml:"scale"`

	/// Foreground and Background are #rrggbb colors for lit and unlit pixels.
	///
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`

	/// Keys holds the keyboard key for each pad key 0-F, in order.
	///
	Keys string `toml:"keys"`

	/// Seed for the random number generator, 0 seeds from the clock.
	///
	Seed int64 `toml:"seed"`
}

/// Default returns the configuration used when no file exists.
///
func Default() Config {
	return Config{
		CyclesPerSecond: 500,
		Scale:           10,
		Foreground:      "#111d2b",
		Background:      "#8f9185",
		Keys:            DefaultKeys,
	}
}

/// Load reads a TOML configuration file, filling in defaults for missing
/// settings. A file that doesn't exist yields the defaults.
///
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()

	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %q: %w", path, err)
	}

	meta, err := toml.Decode(string(contents), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("decoding config file %q: %w", path, err)
	}

	if keys := meta.Undecoded(); len(keys) > 0 {
		return cfg, fmt.Errorf("config file %q: unknown setting %q", path, keys[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %q: %w", path, err)
	}

	return cfg, nil
}

/// Write encodes the configuration as TOML.
///
func (c Config) Write(w io.Writer) error {
	enc := toml.NewEncoder(w)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

/// Save writes the configuration to a file.
///
func (c Config) Save(fs afero.Fs, path string) error {
	file, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file %q: %w", path, err)
	}
	defer file.Close()

	return c.Write(file)
}

/// Validate checks every setting.
///
func (c Config) Validate() error {
	if c.CyclesPerSecond <= 0 {
		return fmt.Errorf("cycles_per_second must be positive, got %d", c.CyclesPerSecond)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %d", c.Scale)
	}
	if _, err := ParseColor(c.Foreground); err != nil {
		return fmt.Errorf("foreground: %w", err)
	}
	if _, err := ParseColor(c.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}

	if n := utf8.RuneCountInString(c.Keys); n != 16 {
		return fmt.Errorf("keys must name 16 keys, got %d", n)
	}

	seen := make(map[rune]bool)
	for _, r := range strings.ToLower(c.Keys) {
		if seen[r] {
			return fmt.Errorf("keys: %q is mapped twice", r)
		}
		seen[r] = true
	}

	return nil
}

/// Colors returns the parsed foreground and background colors.
///
func (c Config) Colors() (fg, bg color.RGBA) {
	fg, _ = ParseColor(c.Foreground)
	bg, _ = ParseColor(c.Background)
	return fg, bg
}

/// Key returns the pad key a keyboard character is mapped to.
///
func (c Config) Key(r rune) (byte, bool) {
	r = unicode.ToLower(r)

	i := 0
	for _, k := range strings.ToLower(c.Keys) {
		if k == r {
			return byte(i), true
		}
		i++
	}
	return 0, false
}

/// ParseColor parses a #rrggbb color.
///
func ParseColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q, expected #rrggbb", s)
	}

	rgb, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xFF}, nil
}

/// CreateLogger creates a logger with appropriate settings.
///
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
