package mdwrap

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// DefaultWidth is the line width used by the command line tool when neither a
// flag nor the terminal provides one.
const DefaultWidth = 70

// ErrInvalidWidth reports a non-positive wrap width.
var ErrInvalidWidth = errors.New("width must be a positive integer")

// Option configures a Wrapper.
type Option func(*wrapConfig)

type wrapConfig struct {
	firstIndent        string
	indent             string
	breakLongWords     bool
	breakOnHyphens     bool
	dropWhitespace     bool
	collapseWhitespace bool
	strictInput        bool
}

func defaultConfig() wrapConfig {
	return wrapConfig{
		breakLongWords:     true,
		breakOnHyphens:     true,
		dropWhitespace:     true,
		collapseWhitespace: true,
	}
}

// WithFirstLineIndent prefixes the first line with indent. The indent counts
// towards the first line's length.
func WithFirstLineIndent(indent string) Option {
	return func(cfg *wrapConfig) {
		cfg.firstIndent = indent
	}
}

// WithIndent prefixes every line started by a wrap break with indent and
// reduces the effective width by its length.
func WithIndent(indent string) Option {
	return func(cfg *wrapConfig) {
		cfg.indent = indent
	}
}

// WithBreakLongWords enables or disables slicing words longer than the
// effective width. Enabled by default.
func WithBreakLongWords(enabled bool) Option {
	return func(cfg *wrapConfig) {
		cfg.breakLongWords = enabled
	}
}

// WithBreakOnHyphens enables or disables ending text tokens after a run of
// hyphens. Enabled by default.
func WithBreakOnHyphens(enabled bool) Option {
	return func(cfg *wrapConfig) {
		cfg.breakOnHyphens = enabled
	}
}

// WithDropWhitespace enables or disables trimming leading whitespace from a
// line started by a break. Enabled by default.
func WithDropWhitespace(enabled bool) Option {
	return func(cfg *wrapConfig) {
		cfg.dropWhitespace = enabled
	}
}

// WithCollapseWhitespace enables or disables replacing every whitespace run,
// line breaks included, with a single space. Enabled by default.
func WithCollapseWhitespace(enabled bool) Option {
	return func(cfg *wrapConfig) {
		cfg.collapseWhitespace = enabled
	}
}

// WithStrictInput makes WrapReader fail on invalid UTF-8 or binary input.
func WithStrictInput(enabled bool) Option {
	return func(cfg *wrapConfig) {
		cfg.strictInput = enabled
	}
}

// Wrapper reflows text into lines of a maximum width. A Wrapper is immutable
// and safe for concurrent use; each Wrap call returns an independent sequence.
type Wrapper struct {
	width int
	cfg   wrapConfig
}

// New returns a Wrapper for the given width. It fails with ErrInvalidWidth
// when width is not positive.
func New(width int, opts ...Option) (*Wrapper, error) {
	if width <= 0 {
		return nil, fmt.Errorf("wrap: %w: %d", ErrInvalidWidth, width)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Wrapper{width: width, cfg: cfg}, nil
}

// Width returns the configured width.
func (w *Wrapper) Width() int {
	return w.width
}

// EffectiveWidth returns the character budget for a line: the configured
// width minus the length of the continuation indent. It may be zero or
// negative when the indent is at least as long as the width.
func (w *Wrapper) EffectiveWidth() int {
	return w.width - utf8.RuneCountInString(w.cfg.indent)
}

// Wrap returns the lines of src. The returned Lines owns src and closes it
// when drained or closed.
func (w *Wrapper) Wrap(src Source) *Lines {
	return newLines(w, newTokenizer(src, w.cfg.breakOnHyphens))
}

// WrapReader returns the lines of the UTF-8 text read from r.
func (w *Wrapper) WrapReader(r io.Reader) *Lines {
	return w.Wrap(NewReaderSource(r, WithValidation(w.cfg.strictInput)))
}

// WrapString wraps s and returns all lines.
func (w *Wrapper) WrapString(s string) []string {
	lines := w.Wrap(StringSource(s))
	defer lines.Close()
	var out []string
	for lines.Next() {
		out = append(out, lines.Line())
	}
	return out
}
