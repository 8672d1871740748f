package toml_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/unspool"
	"github.com/fwojciec/unspool/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := toml.Load(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, unspool.DefaultConfig(), cfg)
	})

	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := toml.Load("")
		require.NoError(t, err)
		assert.Equal(t, unspool.DefaultConfig(), cfg)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
[reveal]
unit = "grapheme"
max_rate = 300

[scroll]
max_velocity = 90
self_tag_window = "200ms"
`)
		cfg, err := toml.Load(path)
		require.NoError(t, err)

		want := unspool.DefaultConfig()
		want.Reveal.Unit = unspool.RevealGrapheme
		want.Reveal.MaxRate = 300
		want.Scroll.MaxVelocity = 90
		want.Scroll.SelfTagWindow = 200 * time.Millisecond
		assert.Equal(t, want, cfg)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		path := writeConfig(t, "[scroll]\nmax_speed = 3\n")
		_, err := toml.Load(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, unspool.ErrValidation)
		assert.Contains(t, err.Error(), "max_speed")
	})

	t.Run("malformed duration reports position", func(t *testing.T) {
		path := writeConfig(t, "[scroll]\nframe_interval = \"soon\"\n")
		_, err := toml.Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path+":2:")
	})

	t.Run("syntax error", func(t *testing.T) {
		path := writeConfig(t, "[reveal\n")
		_, err := toml.Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		path := writeConfig(t, "[reveal]\nmin_rate = 0\n")
		_, err := toml.Load(path)
		assert.ErrorIs(t, err, unspool.ErrValidation)
	})
}

func TestLoad_Env(t *testing.T) {
	t.Run("overrides file values", func(t *testing.T) {
		t.Setenv(toml.EnvRevealUnit, "Grapheme")
		t.Setenv(toml.EnvMaxVelocity, "42.5")
		path := writeConfig(t, "[scroll]\nmax_velocity = 90\n")

		cfg, err := toml.Load(path)
		require.NoError(t, err)
		assert.Equal(t, unspool.RevealGrapheme, cfg.Reveal.Unit)
		assert.InDelta(t, 42.5, cfg.Scroll.MaxVelocity, 0)
	})

	t.Run("applies without a file", func(t *testing.T) {
		t.Setenv(toml.EnvMaxVelocity, "60")
		cfg, err := toml.Load("")
		require.NoError(t, err)
		assert.InDelta(t, 60, cfg.Scroll.MaxVelocity, 0)
	})

	t.Run("non-numeric velocity", func(t *testing.T) {
		t.Setenv(toml.EnvMaxVelocity, "fast")
		_, err := toml.Load("")
		assert.ErrorIs(t, err, unspool.ErrValidation)
	})

	t.Run("unknown unit", func(t *testing.T) {
		t.Setenv(toml.EnvRevealUnit, "sentence")
		_, err := toml.Load("")
		assert.ErrorIs(t, err, unspool.ErrValidation)
	})
}

func TestEncode(t *testing.T) {
	t.Parallel()

	cfg := unspool.DefaultConfig()
	cfg.Reveal.Unit = unspool.RevealGrapheme
	cfg.Scroll.FrameInterval = 33 * time.Millisecond
	b, err := toml.Encode(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(b), "frame_interval")
	assert.Contains(t, string(b), "33ms")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	got, err := toml.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
