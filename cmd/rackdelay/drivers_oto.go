//go:build oto

package main

import (
	"github.com/tphakala/go-audio-delay/audio"
	"github.com/tphakala/go-audio-delay/audio/otodrv"
)

func init() {
	driverFactories = append(driverFactories, func() audio.Driver { return otodrv.New() })
}
