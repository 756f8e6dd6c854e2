package main

import (
	"github.com/spf13/pflag"

	"github.com/bamsammich/pdd/internal/ui"
)

// statusFlag is a pflag.Value over ui.Mode.
type statusFlag struct {
	mode ui.Mode
}

var _ pflag.Value = (*statusFlag)(nil)

func (s *statusFlag) String() string { return s.mode.String() }
func (*statusFlag) Type() string     { return "mode" }

func (s *statusFlag) Set(val string) error {
	m, err := ui.ParseMode(val)
	if err != nil {
		return err
	}
	s.mode = m
	return nil
}
