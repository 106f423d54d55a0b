package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tphakala/go-audio-delay/internal/logging"
)

// Port owns at most one open device and the Bridge it feeds.
type Port struct {
	mu     sync.Mutex
	reg    *Registry
	bridge *Bridge
	dev    Device
	driver string
}

// NewPort creates a closed port that opens devices from reg.
func NewPort(reg *Registry, bridge *Bridge) *Port {
	return &Port{reg: reg, bridge: bridge}
}

// Open closes the current device, then opens device id of the named
// driver and starts it with the bridge as processor.
func (p *Port) Open(driver string, id int, cfg StreamConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.closeLocked(); err != nil {
		return err
	}
	d, err := p.reg.Driver(driver)
	if err != nil {
		return err
	}
	dev, err := d.Open(id, cfg)
	if err != nil {
		return fmt.Errorf("open %s device %d: %w", driver, id, err)
	}
	if err := p.bridge.Configure(dev); err != nil {
		return errors.Join(err, dev.Close())
	}
	if err := dev.Start(p.bridge); err != nil {
		p.bridge.Detach()
		return errors.Join(fmt.Errorf("start %s device %d: %w", driver, id, err), dev.Close())
	}

	p.dev, p.driver = dev, driver
	logging.ModAudio.WithFields(logging.Fields{
		"driver":  driver,
		"device":  dev.Info().Name,
		"rate":    dev.SampleRate(),
		"block":   dev.BlockSize(),
		"inputs":  dev.Inputs(),
		"outputs": dev.Outputs(),
	}).Infof("audio device opened")
	return nil
}

// Device returns the open device, or nil.
func (p *Port) Device() Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dev
}

// Bridge returns the bridge the port feeds.
func (p *Port) Bridge() *Bridge { return p.bridge }

// Close stops and closes the open device, if any.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Port) closeLocked() error {
	if p.dev == nil {
		return nil
	}
	dev := p.dev
	p.dev = nil
	err := errors.Join(dev.Stop(), dev.Close())
	p.bridge.Detach()
	logging.ModAudio.Debugf("%s device %q closed", p.driver, dev.Info().Name)
	return err
}
