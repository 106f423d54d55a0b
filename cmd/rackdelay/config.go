package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"

	delay "github.com/tphakala/go-audio-delay"
)

// fileConfig holds flag defaults read from a TOML file:
//
//	[delay]
//	time = 0.5
//	feedback = 0.3
//	mode = "direct"
//
//	[play]
//	driver = "oto"
//	engine_rate = 44100
type fileConfig struct {
	Delay  delayConfig  `toml:"delay"`
	Render renderConfig `toml:"render"`
	Play   playConfig   `toml:"play"`
}

type delayConfig struct {
	Time     float64    `toml:"time"`
	Feedback float64    `toml:"feedback"`
	Mix      float64    `toml:"mix"`
	Mode     delay.Mode `toml:"mode"`
	Quality  int        `toml:"quality"`
}

type renderConfig struct {
	Tail float64 `toml:"tail"`
}

type playConfig struct {
	Driver     string  `toml:"driver"`
	Device     int     `toml:"device"`
	SampleRate int     `toml:"sample_rate"`
	BlockSize  int     `toml:"block_size"`
	EngineRate int     `toml:"engine_rate"`
	Source     string  `toml:"source"`
	Frequency  float64 `toml:"frequency"`
	Seconds    float64 `toml:"seconds"`
}

func defaultConfig() fileConfig {
	return fileConfig{
		Delay: delayConfig{
			Time:     0.25,
			Feedback: 0.35,
			Mix:      0.5,
			Mode:     delay.ModeStepped,
			Quality:  delay.DefaultQuality,
		},
		Render: renderConfig{Tail: 2},
		Play: playConfig{
			Driver:     "null",
			SampleRate: delay.RateDAT,
			BlockSize:  256,
			EngineRate: delay.RateCD,
			Source:     "square",
			Frequency:  220,
			Seconds:    5,
		},
	}
}

// loadConfig returns the defaults overlaid with the file at path. An empty
// path returns the defaults.
func loadConfig(path string) (fileConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fileConfig{}, fmt.Errorf("%s: unknown keys %v", path, undecoded)
	}
	return cfg, nil
}

// configPath finds --config before the command line is parsed, so the file
// can provide flag defaults.
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// vars exposes the configuration as kong interpolation variables.
func (c fileConfig) vars() kong.Vars {
	return kong.Vars{
		"delay_time":       formatFloat(c.Delay.Time),
		"delay_feedback":   formatFloat(c.Delay.Feedback),
		"delay_mix":        formatFloat(c.Delay.Mix),
		"delay_mode":       c.Delay.Mode.String(),
		"delay_quality":    strconv.Itoa(c.Delay.Quality),
		"render_tail":      formatFloat(c.Render.Tail),
		"play_driver":      c.Play.Driver,
		"play_device":      strconv.Itoa(c.Play.Device),
		"play_sample_rate": strconv.Itoa(c.Play.SampleRate),
		"play_block_size":  strconv.Itoa(c.Play.BlockSize),
		"play_engine_rate": strconv.Itoa(c.Play.EngineRate),
		"play_source":      c.Play.Source,
		"play_frequency":   formatFloat(c.Play.Frequency),
		"play_seconds":     formatFloat(c.Play.Seconds),
	}
}
