package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/tphakala/go-audio-delay/audio"
)

type Devices struct {
	Driver string `help:"Only list devices of this driver."`
}

func (d *Devices) Run() error {
	reg, err := newRegistry(nil)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()
	return d.list(os.Stdout, reg)
}

func (d *Devices) list(out io.Writer, reg *audio.Registry) error {
	names := reg.Names()
	if d.Driver != "" {
		names = []string{d.Driver}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DRIVER\tID\tNAME\tIN\tOUT\tRATE")
	for _, name := range names {
		drv, err := reg.Driver(name)
		if err != nil {
			return err
		}
		devs, err := drv.Devices()
		if err != nil {
			return fmt.Errorf("list %s devices: %w", name, err)
		}
		for _, dev := range devs {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%g\n",
				name, dev.ID, dev.Name, dev.Inputs, dev.Outputs, dev.DefaultSampleRate)
		}
	}
	return w.Flush()
}
