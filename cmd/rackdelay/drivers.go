package main

import (
	"github.com/tphakala/go-audio-delay/audio"
	"github.com/tphakala/go-audio-delay/audio/nulldrv"
)

const nullOutputs = 2

// driverFactories holds the drivers built in besides the null driver.
var driverFactories []func() audio.Driver

// newRegistry registers every available driver. sink receives the null
// driver's output.
func newRegistry(sink func(output []float32, frames int)) (*audio.Registry, error) {
	drivers := []audio.Driver{nulldrv.New(nulldrv.Options{Outputs: nullOutputs, Sink: sink})}
	for _, newDriver := range driverFactories {
		drivers = append(drivers, newDriver())
	}
	return audio.NewRegistry(drivers...)
}
