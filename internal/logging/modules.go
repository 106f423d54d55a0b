// Package logging provides per-subsystem loggers over logrus. Warnings and
// errors are always emitted; debug and info output is enabled per module
// with a mask so the audio paths pay nothing when it is off.
package logging

import (
	"fmt"
	"strings"
	"sync/atomic"

	"gopkg.in/Sirupsen/logrus.v0"
)

type (
	Module     uint
	ModuleMask uint64
	Level      = logrus.Level
)

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

const ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF

const (
	ModDelay Module = iota + 1
	ModSRC
	ModAudio
	ModCLI

	endMods
)

var modNames = [endMods]string{"<error>", "delay", "src", "audio", "cli"}

var debugMask atomic.Uint64

// ModuleByName looks a module up by the name used in log output.
func ModuleByName(name string) (Module, bool) {
	for idx, s := range modNames {
		if idx > 0 && s == name {
			return Module(idx), true
		}
	}
	return 0, false
}

// ModuleNames returns every module name, for help texts.
func ModuleNames() []string {
	return append([]string(nil), modNames[1:]...)
}

// ParseModules turns a comma separated module list ("all" for every
// module) into a mask.
func ParseModules(list string) (ModuleMask, error) {
	var mask ModuleMask
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
		case name == "all":
			mask |= ModuleMaskAll
		default:
			m, ok := ModuleByName(name)
			if !ok {
				return 0, fmt.Errorf("unknown log module %q (have %s)", name, strings.Join(ModuleNames(), ", "))
			}
			mask |= m.Mask()
		}
	}
	return mask, nil
}

// EnableDebugModules turns on debug output for the modules in mask.
func EnableDebugModules(mask ModuleMask) {
	for {
		old := debugMask.Load()
		if debugMask.CompareAndSwap(old, old|uint64(mask)) {
			break
		}
	}
	if mask != 0 {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

// DisableDebugModules turns debug output off again.
func DisableDebugModules(mask ModuleMask) {
	for {
		old := debugMask.Load()
		if debugMask.CompareAndSwap(old, old&^uint64(mask)) {
			return
		}
	}
}

func (mod Module) Mask() ModuleMask { return 1 << ModuleMask(mod) }

func (mod Module) String() string {
	if mod >= endMods {
		return modNames[0]
	}
	return modNames[mod]
}

// Enabled reports whether messages at level are emitted for mod.
func (mod Module) Enabled(level Level) bool {
	return level <= WarnLevel || ModuleMask(debugMask.Load())&mod.Mask() != 0
}

func (mod Module) WithField(key string, value any) Entry {
	return Entry{mod: mod}.WithField(key, value)
}

func (mod Module) WithFields(fields Fields) Entry {
	return Entry{mod: mod}.WithFields(fields)
}

func (mod Module) Debugf(format string, args ...any) { Entry{mod: mod}.Debugf(format, args...) }
func (mod Module) Infof(format string, args ...any)  { Entry{mod: mod}.Infof(format, args...) }
func (mod Module) Warnf(format string, args ...any)  { Entry{mod: mod}.Warnf(format, args...) }
func (mod Module) Errorf(format string, args ...any) { Entry{mod: mod}.Errorf(format, args...) }
