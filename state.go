package delay

import (
	"fmt"

	"github.com/go-faster/jx"
)

// State is the persisted configuration of a delay module:
// {"mode": <int>, "quality": <int>}. Buffer contents and converter history
// are never persisted; a restored line starts silent.
type State struct {
	Mode    Mode
	Quality int
}

// DefaultState matches DefaultConfig.
func DefaultState() State {
	return State{Mode: ModeStepped, Quality: DefaultQuality}
}

// Validate checks that mode and quality are in range.
func (s State) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: mode %d", ErrInvalidState, int(s.Mode))
	}
	if s.Quality < QualityMin || s.Quality > QualityMax {
		return fmt.Errorf("%w: quality %d (must be %d..%d)", ErrInvalidState, s.Quality, QualityMin, QualityMax)
	}
	return nil
}

// Encode writes s to e.
func (s State) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("mode")
	e.Int(int(s.Mode))
	e.FieldStart("quality")
	e.Int(s.Quality)
	e.ObjEnd()
}

// Decode reads a state object from d. Missing keys keep their current
// value and unknown keys are skipped.
func (s *State) Decode(d *jx.Decoder) error {
	next := *s
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "mode":
			v, err := d.Int()
			if err != nil {
				return err
			}
			next.Mode = Mode(v)
		case "quality":
			v, err := d.Int()
			if err != nil {
				return err
			}
			next.Quality = v
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	s.Encode(&e)
	return e.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. Missing keys take their
// defaults.
func (s *State) UnmarshalJSON(data []byte) error {
	next := DefaultState()
	if err := next.Decode(jx.DecodeBytes(data)); err != nil {
		return err
	}
	*s = next
	return nil
}
