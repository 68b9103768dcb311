package mdwrap

import (
	"io"
	"sync"
	"unicode"
)

var runePool = sync.Pool{
	New: func() any {
		buf := make([]rune, defaultBufferSize)
		return &buf
	},
}

type tokenizerState uint8

const (
	tokenizerStart tokenizerState = iota
	tokenizerText
	tokenizerSpace
	tokenizerFinished
)

// Tokenizer splits characters pulled from a Source into alternating Text and
// Space tokens. It buffers only as much of the source as the current token
// needs.
type Tokenizer struct {
	src            Source
	buf            []rune
	pos            int
	used           int
	eof            bool
	breakOnHyphens bool
	state          tokenizerState
	tok            Token
	err            error
}

// NewTokenizer returns a tokenizer reading from src. Only WithBreakOnHyphens
// affects tokenization; other options are ignored.
func NewTokenizer(src Source, opts ...Option) *Tokenizer {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return newTokenizer(src, cfg.breakOnHyphens)
}

func newTokenizer(src Source, breakOnHyphens bool) *Tokenizer {
	buf := *runePool.Get().(*[]rune)
	return &Tokenizer{
		src:            src,
		buf:            buf[:cap(buf)],
		breakOnHyphens: breakOnHyphens,
		state:          tokenizerStart,
	}
}

// Next advances to the next token. It returns false once the source is
// exhausted or has failed, and keeps returning false afterwards.
func (t *Tokenizer) Next() bool {
	if t.state == tokenizerFinished {
		return false
	}
	if shouldCompact(len(t.buf), t.pos) {
		t.used = compactRunes(t.buf, t.pos, t.used)
		t.pos = 0
	}
	if t.pos == t.used {
		n, err := t.refill(false)
		if err != nil {
			return t.fail(err)
		}
		if n == 0 {
			return t.fail(nil)
		}
	}
	start := t.pos
	kind := TokenText
	var err error
	if unicode.IsSpace(t.buf[t.pos]) {
		kind = TokenSpace
		t.state = tokenizerSpace
		err = t.scanRun(unicode.IsSpace)
	} else {
		t.state = tokenizerText
		err = t.scanText()
	}
	if err != nil {
		return t.fail(err)
	}
	t.tok = Token{Kind: kind, Text: string(t.buf[start:t.pos])}
	return true
}

// Token returns the current token. The zero Token is returned before the
// first call to Next and after Next has returned false.
func (t *Tokenizer) Token() Token {
	return t.tok
}

// Err returns the source error that stopped the tokenizer, if any.
func (t *Tokenizer) Err() error {
	return t.err
}

// Close releases the buffer and closes the source if it implements io.Closer.
func (t *Tokenizer) Close() error {
	t.state = tokenizerFinished
	t.tok = Token{}
	if t.buf != nil {
		buf := t.buf[:cap(t.buf)]
		runePool.Put(&buf)
		t.buf = nil
		t.pos = 0
		t.used = 0
	}
	src := t.src
	t.src = nil
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *Tokenizer) fail(err error) bool {
	t.state = tokenizerFinished
	t.tok = Token{}
	t.err = err
	return false
}

func (t *Tokenizer) scanText() error {
	for {
		if t.pos == t.used {
			n, err := t.refill(true)
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
		}
		r := t.buf[t.pos]
		if t.breakOnHyphens && isHyphen(r) {
			return t.scanRun(isHyphen)
		}
		if unicode.IsSpace(r) {
			return nil
		}
		t.pos++
	}
}

func (t *Tokenizer) scanRun(match func(rune) bool) error {
	for {
		if t.pos == t.used {
			n, err := t.refill(true)
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
		}
		if !match(t.buf[t.pos]) {
			return nil
		}
		t.pos++
	}
}

// refill reads more characters after t.used. In append mode the indices of
// buffered runes are preserved so an in-progress token stays addressable.
func (t *Tokenizer) refill(appendMode bool) (int, error) {
	if t.eof {
		return 0, nil
	}
	plan := planRefill(len(t.buf), t.pos, t.used, minRefill, appendMode)
	switch {
	case plan.capacity > len(t.buf):
		dst := make([]rune, plan.capacity)
		if plan.shift {
			t.used = copy(dst, t.buf[t.pos:t.used])
			t.pos = 0
		} else {
			copy(dst, t.buf[:t.used])
		}
		t.buf = dst
	case plan.shift:
		t.used = compactRunes(t.buf, t.pos, t.used)
		t.pos = 0
	}
	n, err := t.src.ReadRunes(t.buf[t.used:])
	if n < 0 {
		n = 0
	}
	t.used += n
	if err == io.EOF {
		t.eof = true
		return n, nil
	}
	if err != nil {
		return n, err
	}
	if n == 0 {
		t.eof = true
	}
	return n, nil
}

func isHyphen(r rune) bool {
	return r == '-'
}
