package cmd

import (
	"fmt"
	"strconv"

	"github.com/spiffcs/prsync/internal/tui"
)

// tuiFlag is a pflag.Value for --tui. A bare --tui forces the display on,
// "auto" (the default) leaves the decision to terminal detection.
type tuiFlag struct {
	mode **bool
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{mode: &opts.TUI}
}

func (f *tuiFlag) String() string {
	if *f.mode == nil {
		return "auto"
	}
	return strconv.FormatBool(**f.mode)
}

func (f *tuiFlag) Set(s string) error {
	if s == "auto" {
		*f.mode = nil
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	*f.mode = &v
	return nil
}

func (f *tuiFlag) Type() string { return "bool" }

// IsBoolFlag lets --tui be passed without a value.
func (f *tuiFlag) IsBoolFlag() bool { return true }

// shouldUseTUI resolves the display mode. Verbose runs always log instead.
func shouldUseTUI(opts *Options) bool {
	switch {
	case opts.Verbosity > 0:
		return false
	case opts.TUI != nil:
		return *opts.TUI
	default:
		return tui.ShouldUseTUI()
	}
}
