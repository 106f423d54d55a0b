package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	delay "github.com/tphakala/go-audio-delay"
	"github.com/tphakala/go-audio-delay/internal/logging"
)

type (
	CLI struct {
		Render  Render  `cmd:"" help:"Run a delay line over a WAV file."`
		Play    Play    `cmd:"" help:"Run a delay line in real time through an audio driver."`
		Devices Devices `cmd:"" help:"List audio drivers and their devices."`
		Analyze Analyze `cmd:"" help:"Show converter kernel responses per quality level."`
		State   State   `cmd:"" help:"Encode or decode persisted delay state."`
		Version Version `cmd:"" help:"Show rackdelay version."`

		Config string     `help:"${config_help}" type:"path" placeholder:"FILE"`
		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
	}

	// delayFlags are shared by the commands that build delay lines.
	delayFlags struct {
		Delay    float64 `help:"Delay time in seconds." default:"${delay_time}"`
		Feedback float64 `help:"Share of the wet signal fed back, 0 to 1." default:"${delay_feedback}"`
		Mix      float64 `help:"Wet share of the output, 0 to 1." default:"${delay_mix}"`
		Mode     string  `help:"Drift correction: stepped or direct." enum:"stepped,direct" default:"${delay_mode}"`
		Quality  int     `help:"Converter quality, 0 to 10." default:"${delay_quality}"`
	}

	Version struct{}
)

// version is set by the linker.
var version = "devel"

func (Version) Run() error {
	fmt.Println("rackdelay", version)
	return nil
}

var helpVars = kong.Vars{
	"config_help": "Read flag defaults from a TOML file.",
	"log_help":    "Enable debug logging for specified modules.",
}

func parseArgs(args []string, cfg fileConfig) *kong.Context {
	parser, err := newParser(&CLI{}, cfg)
	if err != nil {
		fatalf("invalid command line definition: %v", err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	return ctx
}

// newParser builds the command line parser; flag defaults come from cfg.
func newParser(cli *CLI, cfg fileConfig) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("rackdelay"),
		kong.Description("Fractional delay lines with drift-correcting sample rate conversion."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		helpVars,
		cfg.vars())
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable debug logging.
    - all                    Enable all debug logs.
`
	var strs []string
	for _, m := range logging.ModuleNames() {
		strs = append(strs, "    - "+m)
	}
	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

// config builds a delay.Config from the flags. maxDelay widens the delay
// range when longer taps are requested.
func (f *delayFlags) config(maxDelay float64) (delay.Config, error) {
	mode, err := delay.ParseMode(f.Mode)
	if err != nil {
		return delay.Config{}, err
	}
	cfg := delay.DefaultConfig()
	cfg.MaxDelay = max(cfg.MaxDelay, f.Delay, maxDelay)
	cfg.Feedback = f.Feedback
	cfg.Mix = f.Mix
	cfg.Mode = mode
	cfg.Quality = f.Quality
	if err := cfg.Validate(); err != nil {
		return delay.Config{}, err
	}
	return cfg, nil
}

type logModMask logging.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask
// and enables debug logging for them.
//
// Implements kong.MapperValue interface.
func (lm *logModMask) Decode(ctx *kong.DecodeContext) error {
	var value string
	if err := ctx.Scan.PopValueInto("log", &value); err != nil {
		return err
	}
	mask, err := parseLogModules(value)
	if err != nil {
		return err
	}
	*lm = logModMask(mask)
	logging.DisableDebugModules(logging.ModuleMaskAll)
	logging.EnableDebugModules(mask)
	return nil
}

func parseLogModules(list string) (logging.ModuleMask, error) {
	nolog, allLogs := false, false
	var mask logging.ModuleMask
	for _, v := range strings.Split(list, ",") {
		switch v = strings.TrimSpace(v); v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := logging.ModuleByName(v)
			if !ok {
				return 0, fmt.Errorf("unknown log module %s", v)
			}
			mask |= mod.Mask()
		}
	}

	switch {
	case nolog && allLogs:
		return 0, fmt.Errorf("cannot use 'all' and 'no' together")
	case nolog && mask != 0:
		return 0, fmt.Errorf("cannot combine 'no' with other log modules")
	case nolog:
		return 0, nil
	case allLogs:
		return logging.ModuleMaskAll, nil
	}
	return mask, nil
}
