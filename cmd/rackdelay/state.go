package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-faster/jx"

	delay "github.com/tphakala/go-audio-delay"
)

type (
	State struct {
		Encode StateEncode `cmd:"" help:"Print the state JSON for a mode and quality."`
		Decode StateDecode `cmd:"" help:"Validate state JSON and print its fields."`
	}

	StateEncode struct {
		Mode    string `help:"Drift correction: stepped or direct." enum:"stepped,direct" default:"${delay_mode}"`
		Quality int    `help:"Converter quality, 0 to 10." default:"${delay_quality}"`
	}

	StateDecode struct {
		JSON string `arg:"" optional:"" help:"State JSON; read from stdin when omitted."`
	}
)

func (s *StateEncode) Run() error {
	out, err := s.encode()
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func (s *StateEncode) encode() (string, error) {
	mode, err := delay.ParseMode(s.Mode)
	if err != nil {
		return "", err
	}
	st := delay.State{Mode: mode, Quality: s.Quality}
	if err := st.Validate(); err != nil {
		return "", err
	}
	var e jx.Encoder
	st.Encode(&e)
	return e.String(), nil
}

func (s *StateDecode) Run() error {
	text := s.JSON
	if text == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		text = string(b)
	}
	st, err := decodeState(text)
	if err != nil {
		return err
	}
	fmt.Printf("mode=%s quality=%d\n", st.Mode, st.Quality)
	return nil
}

// decodeState parses state JSON. Missing keys take their defaults.
func decodeState(text string) (delay.State, error) {
	st := delay.DefaultState()
	if err := st.Decode(jx.DecodeStr(strings.TrimSpace(text))); err != nil {
		return delay.State{}, err
	}
	return st, nil
}
