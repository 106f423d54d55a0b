// Command rackdelay runs delay lines over WAV files or in real time
// through an audio driver.
//
// Usage:
//
//	rackdelay render --delay 0.3 --feedback 0.4 --mix 0.5 in.wav out.wav
//	rackdelay render --taps 0.125,0.25,0.375 in.wav out.wav
//	rackdelay play --driver null --source square --seconds 5
//	rackdelay analyze --quality 4 --in-rate 48000 --out-rate 44100
//	rackdelay state encode --mode direct --quality 7
//
// Defaults for every flag can be set in a TOML file passed with --config.
package main

import (
	"fmt"
	"os"
)

func main() {
	cfg, err := loadConfig(configPath(os.Args[1:]))
	checkf(err, "failed to load configuration")

	ctx := parseArgs(os.Args[1:], cfg)
	checkf(ctx.Run(), "%s failed", ctx.Command())
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "rackdelay: "+format+"\n\t%s\n", append(args, err)...)
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "rackdelay: "+format+"\n", args...)
	os.Exit(1)
}
