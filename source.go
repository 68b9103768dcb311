package mdwrap

import (
	"bufio"
	"io"
	"sync"
	"unicode/utf8"
)

var readerPool = sync.Pool{
	New: func() any {
		return bufio.NewReaderSize(nil, 4096)
	},
}

// Source is a pull-based character source. ReadRunes reads up to len(p)
// characters into p and returns the number read. Returning 0 with a nil error,
// or io.EOF, marks the end of the source.
type Source interface {
	ReadRunes(p []rune) (int, error)
}

type stringSource struct {
	s   string
	off int
}

// StringSource returns a Source reading the characters of s. Invalid UTF-8
// bytes are read as utf8.RuneError, one character per byte.
func StringSource(s string) Source {
	return &stringSource{s: s}
}

func (s *stringSource) ReadRunes(p []rune) (int, error) {
	if s.off >= len(s.s) {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) && s.off < len(s.s) {
		r, size := utf8.DecodeRuneInString(s.s[s.off:])
		p[n] = r
		n++
		s.off += size
	}
	return n, nil
}

// SourceOption configures a ReaderSource.
type SourceOption func(*ReaderSource)

// WithValidation makes the source fail with ErrInvalidUTF8 or ErrBinaryInput
// instead of passing such input through.
func WithValidation(enabled bool) SourceOption {
	return func(s *ReaderSource) {
		s.strict = enabled
	}
}

// ReaderSource decodes UTF-8 characters from an io.Reader.
type ReaderSource struct {
	r      io.Reader
	br     *bufio.Reader
	strict bool
	check  validator
	err    error
}

// NewReaderSource returns a Source decoding r. Close releases the internal
// buffer and closes r when it implements io.Closer.
func NewReaderSource(r io.Reader, opts ...SourceOption) *ReaderSource {
	br := readerPool.Get().(*bufio.Reader)
	br.Reset(r)
	s := &ReaderSource{r: r, br: br}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.check.reset()
	return s
}

// ReadRunes implements Source. Once at least one character has been read it
// returns instead of blocking on the underlying reader.
func (s *ReaderSource) ReadRunes(p []rune) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.br == nil {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		if n > 0 && !s.runeBuffered() {
			break
		}
		r, size, err := s.br.ReadRune()
		if err != nil {
			s.err = err
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if s.strict {
			if err := s.check.addRune(r, size); err != nil {
				s.err = err
				return n, err
			}
		}
		p[n] = r
		n++
	}
	return n, nil
}

func (s *ReaderSource) runeBuffered() bool {
	n := s.br.Buffered()
	if n == 0 {
		return false
	}
	if n >= utf8.UTFMax {
		return true
	}
	b, err := s.br.Peek(n)
	if err != nil {
		return false
	}
	return utf8.FullRune(b)
}

// Close releases the source. Further reads return io.EOF.
func (s *ReaderSource) Close() error {
	if s.br == nil {
		return nil
	}
	s.br.Reset(nil)
	readerPool.Put(s.br)
	s.br = nil
	if s.err == nil {
		s.err = io.EOF
	}
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
