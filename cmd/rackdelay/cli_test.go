package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	delay "github.com/tphakala/go-audio-delay"
	"github.com/tphakala/go-audio-delay/internal/logging"
)

func parse(t *testing.T, cfg fileConfig, args ...string) (*CLI, string) {
	t.Helper()
	var cli CLI
	parser, err := newParser(&cli, cfg)
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx.Command()
}

// existingFile returns the path of an empty file, for flags that must
// name one.
func existingFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func TestParseRenderDefaults(t *testing.T) {
	in := existingFile(t)
	cli, cmd := parse(t, defaultConfig(), "render", in, "out.wav")
	assert.Equal(t, "render <input> <output>", cmd)

	r := cli.Render
	assert.Equal(t, in, r.Input)
	assert.Equal(t, "out.wav", filepath.Base(r.Output))
	assert.InDelta(t, 0.25, r.Line.Delay, 1e-12)
	assert.InDelta(t, 0.35, r.Line.Feedback, 1e-12)
	assert.InDelta(t, 0.5, r.Line.Mix, 1e-12)
	assert.Equal(t, "stepped", r.Line.Mode)
	assert.Equal(t, delay.DefaultQuality, r.Line.Quality)
	assert.InDelta(t, 2.0, r.Tail, 1e-12)
	assert.Empty(t, r.Taps)
}

func TestParseFlagsOverrideConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Delay.Time = 1.5
	cfg.Delay.Mode = delay.ModeDirect

	cli, _ := parse(t, cfg, "render", "--feedback", "0.8", "--taps", "0.1,0.2", existingFile(t), "out.wav")
	assert.InDelta(t, 1.5, cli.Render.Line.Delay, 1e-12)
	assert.Equal(t, "direct", cli.Render.Line.Mode)
	assert.InDelta(t, 0.8, cli.Render.Line.Feedback, 1e-12)
	assert.Equal(t, []float64{0.1, 0.2}, cli.Render.Taps)
}

func TestParseRejectsUnknownMode(t *testing.T) {
	var cli CLI
	parser, err := newParser(&cli, defaultConfig())
	require.NoError(t, err)
	_, err = parser.Parse([]string{"render", "--mode", "sideways", existingFile(t), "out.wav"})
	assert.Error(t, err)
}

func TestParseLogFlag(t *testing.T) {
	t.Cleanup(func() { logging.DisableDebugModules(logging.ModuleMaskAll) })

	cli, _ := parse(t, defaultConfig(), "--log", "src,audio", "version")
	assert.Equal(t, logModMask(logging.ModSRC.Mask()|logging.ModAudio.Mask()), cli.Log)
	assert.True(t, logging.ModSRC.Enabled(logging.DebugLevel))
	assert.True(t, logging.ModAudio.Enabled(logging.DebugLevel))
	assert.False(t, logging.ModDelay.Enabled(logging.DebugLevel))
}

func TestParseLogModules(t *testing.T) {
	tests := []struct {
		name    string
		list    string
		want    logging.ModuleMask
		wantErr string
	}{
		{"single", "delay", logging.ModDelay.Mask(), ""},
		{"several", "delay, cli", logging.ModDelay.Mask() | logging.ModCLI.Mask(), ""},
		{"all", "all", logging.ModuleMaskAll, ""},
		{"no", "no", 0, ""},
		{"unknown", "delay,bogus", 0, "unknown log module bogus"},
		{"all and no", "all,no", 0, "cannot use 'all' and 'no' together"},
		{"no and module", "no,src", 0, "cannot combine 'no'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogModules(tt.list)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDelayFlagsConfig(t *testing.T) {
	f := delayFlags{Delay: 12, Feedback: 0.5, Mix: 0.25, Mode: "direct", Quality: 7}
	cfg, err := f.config(20)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, cfg.MaxDelay, 1e-12)
	assert.Equal(t, delay.ModeDirect, cfg.Mode)
	assert.Equal(t, 7, cfg.Quality)
	assert.InDelta(t, 0.25, cfg.Mix, 1e-12)

	f.Feedback = 2
	_, err = f.config(0)
	require.ErrorIs(t, err, delay.ErrInvalidConfig)

	f.Feedback, f.Quality = 0, 11
	_, err = f.config(0)
	require.ErrorIs(t, err, delay.ErrInvalidQuality)
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"render", "a.wav", "b.wav"}, ""},
		{[]string{"--config", "rack.toml", "play"}, "rack.toml"},
		{[]string{"play", "--config=other.toml"}, "other.toml"},
		{[]string{"play", "--config"}, ""},
		{[]string{"state", "decode", "--", "--config=x"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, configPath(tt.args), "%v", tt.args)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "rack.toml")
	const doc = `
[delay]
time = 0.5
mode = "direct"
quality = 9

[play]
driver = "oto"
engine_rate = 48000
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cfg.Delay.Time, 1e-12)
	assert.Equal(t, delay.ModeDirect, cfg.Delay.Mode)
	assert.Equal(t, 9, cfg.Delay.Quality)
	assert.Equal(t, "oto", cfg.Play.Driver)
	assert.Equal(t, 48000, cfg.Play.EngineRate)
	// untouched keys keep their defaults
	assert.InDelta(t, 0.35, cfg.Delay.Feedback, 1e-12)
	assert.Equal(t, defaultConfig().Play.BlockSize, cfg.Play.BlockSize)

	vars := cfg.vars()
	assert.Equal(t, "0.5", vars["delay_time"])
	assert.Equal(t, "direct", vars["delay_mode"])
	assert.Equal(t, "48000", vars["play_engine_rate"])
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("[delay]\nwobble = 1\n"), 0o644))
	_, err = loadConfig(unknown)
	assert.ErrorContains(t, err, "wobble")

	badMode := filepath.Join(dir, "mode.toml")
	require.NoError(t, os.WriteFile(badMode, []byte("[delay]\nmode = \"sideways\"\n"), 0o644))
	_, err = loadConfig(badMode)
	assert.ErrorContains(t, err, "sideways")
}
