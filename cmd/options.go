package cmd

// Options holds the shared command-line options for the prsync CLI.
// Empty string fields leave the configured value in place.
type Options struct {
	Verbosity int
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	Username string
	Output   string
	Cache    string
	Featured string
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// WithUsername overrides the account whose pull requests are mirrored.
func WithUsername(username string) Option {
	return func(o *Options) {
		o.Username = username
	}
}

// WithOutput overrides the artifact path.
func WithOutput(path string) Option {
	return func(o *Options) {
		o.Output = path
	}
}

// WithCache overrides the cache file path.
func WithCache(path string) Option {
	return func(o *Options) {
		o.Cache = path
	}
}

// WithFeatured overrides the featured config path.
func WithFeatured(path string) Option {
	return func(o *Options) {
		o.Featured = path
	}
}

// apply copies the non-empty overrides onto the loaded config values.
func (o *Options) apply(username, output, cache, featured *string) {
	for _, f := range []struct {
		dst *string
		src string
	}{
		{username, o.Username},
		{output, o.Output},
		{cache, o.Cache},
		{featured, o.Featured},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
}
