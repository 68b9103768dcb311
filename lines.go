package mdwrap

import (
	"unicode"
	"unicode/utf8"
)

type wrapState uint8

const (
	wrapPriming wrapState = iota
	wrapAccumulating
	wrapDraining
	wrapDone
)

// Lines is a lazy, single-pass sequence of wrapped lines. Lines are computed
// only as Next is called. The final line is always produced, even when empty.
type Lines struct {
	tok       *Tokenizer
	cfg       wrapConfig
	effective int
	indentLen int
	state     wrapState
	line      []byte
	lineLen   int
	queue     []string
	head      int
	cur       string
	err       error

	queueArr [4]string
}

func newLines(w *Wrapper, tok *Tokenizer) *Lines {
	l := &Lines{
		tok:       tok,
		cfg:       w.cfg,
		effective: w.EffectiveWidth(),
		indentLen: utf8.RuneCountInString(w.cfg.indent),
		state:     wrapPriming,
	}
	l.queue = l.queueArr[:0]
	return l
}

// Next advances to the next line. It returns false when the input is
// exhausted or the source failed; Err distinguishes the two.
func (l *Lines) Next() bool {
	for l.head == len(l.queue) {
		l.queue = l.queue[:0]
		l.head = 0
		switch l.state {
		case wrapPriming:
			if l.cfg.firstIndent != "" {
				l.line = append(l.line, l.cfg.firstIndent...)
				l.lineLen = utf8.RuneCountInString(l.cfg.firstIndent)
			}
			l.state = wrapAccumulating
		case wrapAccumulating:
			if !l.tok.Next() {
				if err := l.tok.Err(); err != nil {
					l.err = err
					l.finish()
					l.cur = ""
					return false
				}
				l.state = wrapDraining
				continue
			}
			l.consume(l.tok.Token())
		case wrapDraining:
			l.emit()
			l.finish()
		default:
			l.cur = ""
			return false
		}
	}
	l.cur = l.queue[l.head]
	l.queue[l.head] = ""
	l.head++
	return true
}

// Line returns the current line without any separator.
func (l *Lines) Line() string {
	return l.cur
}

// Err returns the error that ended the sequence early, if any.
func (l *Lines) Err() error {
	return l.err
}

// Close stops the sequence and releases the tokenizer and its source.
func (l *Lines) Close() error {
	if l.tok == nil {
		return nil
	}
	l.state = wrapDone
	l.queue = l.queue[:0]
	l.head = 0
	tok := l.tok
	l.tok = nil
	return tok.Close()
}

func (l *Lines) finish() {
	l.state = wrapDone
	if l.tok == nil {
		return
	}
	if err := l.tok.Close(); err != nil && l.err == nil {
		l.err = err
	}
	l.tok = nil
}

func (l *Lines) consume(tok Token) {
	text := tok.Text
	if text == "" {
		return
	}
	if l.cfg.collapseWhitespace && tok.Kind == TokenSpace {
		text = " "
	}
	for i := 0; ; i++ {
		seg, rest, more := cutLine(text)
		l.place(seg, i > 0)
		if !more {
			return
		}
		text = rest
	}
}

// place appends one newline-free segment, breaking the line first when the
// segment does not fit or follows an explicit line break.
func (l *Lines) place(seg string, forced bool) {
	n := utf8.RuneCountInString(seg)
	if l.cfg.breakLongWords && n > l.effective {
		if len(l.line) > 0 {
			l.emit()
		}
		step := l.effective
		if step < 1 {
			step = 1
		}
		for n > 0 && n > l.effective {
			cut := runeOffset(seg, step)
			l.queue = append(l.queue, seg[:cut])
			seg = seg[cut:]
			n -= step
			if n < 0 {
				n = 0
			}
		}
	}
	if forced || l.lineLen+n > l.effective {
		l.emit()
		if l.cfg.dropWhitespace {
			trimmed := trimLeadingSpace(seg)
			if len(trimmed) != len(seg) {
				seg = trimmed
				n = utf8.RuneCountInString(seg)
			}
		}
		if l.cfg.indent != "" {
			l.line = append(l.line, l.cfg.indent...)
			l.lineLen += l.indentLen
		}
	}
	l.line = append(l.line, seg...)
	l.lineLen += n
}

func (l *Lines) emit() {
	l.queue = append(l.queue, string(l.line))
	l.line = l.line[:0]
	l.lineLen = 0
}

func trimLeadingSpace(s string) string {
	for i, r := range s {
		if !unicode.IsSpace(r) {
			return s[i:]
		}
	}
	return ""
}
