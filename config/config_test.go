package config

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/spf13/afero"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), DefaultFile)
	assert.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	contents := `
cycles_per_second = 700
foreground = "#ff8000"
seed = 42
`
	assert.NoError(t, afero.WriteFile(fs, "chip8.toml", []byte(contents), 0o644))

	cfg, err := Load(fs, "chip8.toml")
	assert.NoError(t, err)

	assert.Equal(t, 700, cfg.CyclesPerSecond)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "#ff8000", cfg.Foreground)

	// settings not in the file keep their defaults
	assert.Equal(t, 10, cfg.Scale)
	assert.Equal(t, DefaultKeys, cfg.Keys)

	fg, bg := cfg.Colors()
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0x80, B: 0x00, A: 0xFF}, fg)
	assert.Equal(t, color.RGBA{R: 0x8F, G: 0x91, B: 0x85, A: 0xFF}, bg)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		contains string
	}{
		{"malformed", "cycles_per_second = ", "decoding config file"},
		{"wrong type", `scale = "big"`, "decoding config file"},
		{"unknown setting", "speed = 10", `unknown setting "speed"`},
		{"zero speed", "cycles_per_second = 0", "cycles_per_second must be positive"},
		{"negative scale", "scale = -1", "scale must be positive"},
		{"bad color", `background = "green"`, "background: invalid color"},
		{"bad hex", `foreground = "#12345g"`, "foreground: invalid color"},
		{"short keys", `keys = "1234"`, "keys must name 16 keys, got 4"},
		{"duplicate keys", `keys = "1123qweasdzc4rfv"`, "mapped twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			assert.NoError(t, afero.WriteFile(fs, "chip8.toml", []byte(tt.contents), 0o644))

			_, err := Load(fs, "chip8.toml")
			assert.ErrorContains(t, err, tt.contains)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	fs := afero.NewMemMapFs()

	cfg := Default()
	cfg.Scale = 4
	cfg.Seed = 7

	assert.NoError(t, cfg.Save(fs, "out.toml"))

	loaded, err := Load(fs, "out.toml")
	assert.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer

	assert.NoError(t, Default().Write(&buf))
	assert.Contains(t, buf.String(), "cycles_per_second = 500")
	assert.Contains(t, buf.String(), `keys = "x123qweasdzc4rfv"`)
}

func TestKey(t *testing.T) {
	cfg := Default()

	tests := []struct {
		r   rune
		key byte
	}{
		{'x', 0x0},
		{'1', 0x1},
		{'Q', 0x4},
		{'z', 0xA},
		{'4', 0xC},
		{'v', 0xF},
	}

	for _, tt := range tests {
		key, ok := cfg.Key(tt.r)
		assert.True(t, ok)
		assert.Equal(t, tt.key, key)
	}

	_, ok := cfg.Key('p')
	assert.False(t, ok)
}

func TestCreateLogger(t *testing.T) {
	assert.NotNil(t, CreateLogger(false, false))
	assert.NotNil(t, CreateLogger(true, false))
	assert.NotNil(t, CreateLogger(false, true))
}
