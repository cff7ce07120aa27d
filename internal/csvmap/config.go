package csvmap

import "github.com/rs/zerolog"

// Config holds the settings a Reader is built with. The zero value is not
// the default; use NewBuilder.
type Config struct {
	HasHeader bool
	// Separator overrides detection when non-empty.
	Separator string
}

// Builder collects Reader settings. Defaults: header present, separator
// auto-detected, logging disabled.
type Builder struct {
	cfg    Config
	logger zerolog.Logger
}

func NewBuilder() *Builder {
	return &Builder{
		cfg:    Config{HasHeader: true},
		logger: zerolog.Nop(),
	}
}

// WithHeader sets whether the first line of every source is skipped.
func (b *Builder) WithHeader(hasHeader bool) *Builder {
	b.cfg.HasHeader = hasHeader
	return b
}

// WithSeparator fixes the separator; "" restores auto-detection.
func (b *Builder) WithSeparator(sep string) *Builder {
	b.cfg.Separator = sep
	return b
}

func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build returns a Reader holding a copy of the current settings; later
// Builder calls do not affect it.
func (b *Builder) Build() *Reader {
	return &Reader{cfg: b.cfg, log: b.logger.With().Str("component", "csvmap").Logger()}
}
