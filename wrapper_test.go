package mdwrap

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func mustWrapper(t *testing.T, width int, opts ...Option) *Wrapper {
	t.Helper()
	w, err := New(width, opts...)
	if err != nil {
		t.Fatalf("new wrapper: %v", err)
	}
	return w
}

func assertLines(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("line count: want %d %q got %d %q", len(want), want, len(got), got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("line %d: want %q got %q (all: %q)", i+1, want[i], got[i], got)
		}
	}
}

func TestWrapScenarios(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		src   string
		width int
		opts  []Option
		want  []string
	}{
		{name: "space breaks line", src: "hello world", width: 5, want: []string{"hello", "world"}},
		{name: "long word sliced", src: "supercalifragilistic", width: 5, want: []string{"super", "calif", "ragil", "istic"}},
		{name: "blank line collapses", src: "a\n\nb", width: 10, want: []string{"a b"}},
		{name: "blank line kept", src: "a\n\nb", width: 10, opts: []Option{WithCollapseWhitespace(false)}, want: []string{"a", "", "b"}},
		{name: "crlf is one break", src: "a\r\nb", width: 10, opts: []Option{WithCollapseWhitespace(false)}, want: []string{"a", "b"}},
		{name: "inner spaces kept", src: "a  b", width: 10, opts: []Option{WithCollapseWhitespace(false)}, want: []string{"a  b"}},
		{name: "empty input", src: "", width: 5, want: []string{""}},
		{name: "trailing space stays", src: "alpha beta gamma", width: 6, want: []string{"alpha ", "beta ", "gamma"}},
		{name: "remainder slice", src: "abcdefg", width: 3, want: []string{"abc", "def", "g"}},
		{name: "flush before slicing", src: "ab abcdefgh", width: 3, want: []string{"ab ", "abc", "def", "gh"}},
		{name: "break after hyphen", src: "well-known fact", width: 6, want: []string{"well-", "known ", "fact"}},
		{name: "no hyphen breaks", src: "well-known fact", width: 6, opts: []Option{WithBreakOnHyphens(false)}, want: []string{"well-k", "nown ", "fact"}},
		{name: "long words kept", src: "abcdefgh ij", width: 4, opts: []Option{WithBreakLongWords(false)}, want: []string{"", "abcdefgh", "ij"}},
		{name: "whitespace kept at break", src: "aaa bbb", width: 3, opts: []Option{WithDropWhitespace(false)}, want: []string{"aaa", " ", "bbb"}},
		{name: "runes not bytes", src: "日本語テキスト", width: 3, want: []string{"日本語", "テキス", "ト"}},
		{name: "first indent", src: "one two three", width: 10, opts: []Option{WithFirstLineIndent("> ")}, want: []string{"> one two ", "three"}},
		{name: "continuation indent", src: "one two three", width: 10, opts: []Option{WithFirstLineIndent("> "), WithIndent("> ")}, want: []string{"> one ", "> two ", "> three"}},
		{name: "indent before slices", src: "ab abcdefgh", width: 3, opts: []Option{WithIndent("-")}, want: []string{"ab", "-", "ab", "cd", "ef", "gh"}},
		{name: "first indent wider than width", src: "ab cd", width: 4, opts: []Option{WithFirstLineIndent(">>>>>>")}, want: []string{">>>>>>", "ab ", "cd"}},
		{name: "first indent on empty input", src: "", width: 5, opts: []Option{WithFirstLineIndent("> ")}, want: []string{"> "}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assertLines(t, mustWrapper(t, tc.width, tc.opts...).WrapString(tc.src), tc.want...)
		})
	}
}

func TestNewRejectsNonPositiveWidth(t *testing.T) {
	t.Parallel()
	for _, width := range []int{0, -1} {
		w, err := New(width)
		if !errors.Is(err, ErrInvalidWidth) {
			t.Fatalf("width %d: expected ErrInvalidWidth, got %v", width, err)
		}
		if w != nil {
			t.Fatalf("width %d: expected nil wrapper", width)
		}
	}
}

func TestEffectiveWidth(t *testing.T) {
	t.Parallel()
	w := mustWrapper(t, 10, WithFirstLineIndent(">>>"), WithIndent("→ "))
	if w.Width() != 10 || w.EffectiveWidth() != 8 {
		t.Fatalf("unexpected widths %d/%d", w.Width(), w.EffectiveWidth())
	}
}

func TestWrapIndentLongerThanWidthTerminates(t *testing.T) {
	t.Parallel()
	w := mustWrapper(t, 3, WithIndent("     "))
	if w.EffectiveWidth() >= 0 {
		t.Fatalf("expected negative effective width, got %d", w.EffectiveWidth())
	}
	lines := w.WrapString("ab cd")
	if len(lines) == 0 {
		t.Fatalf("expected degraded output, got none")
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(strings.TrimSpace(line))
	}
	if b.String() != "abcd" {
		t.Fatalf("expected every character once, got %q", lines)
	}
}

const loremWords = "lorem ipsum dolor sit amet, consectetur adipiscing elit sed do eiusmod tempor"

func TestWrapWidthBound(t *testing.T) {
	t.Parallel()
	src := strings.Repeat(loremWords+"\n\n", 5)
	for width := 11; width <= 80; width++ {
		for _, indent := range []string{"", "  "} {
			w := mustWrapper(t, width+len(indent), WithIndent(indent), WithFirstLineIndent(indent))
			for i, line := range w.WrapString(src) {
				if n := utf8.RuneCountInString(line); n > width+len(indent) {
					t.Fatalf("width %d indent %q: line %d too long (%d): %q", width, indent, i+1, n, line)
				}
			}
		}
	}
}

func TestWrapForcedSliceBound(t *testing.T) {
	t.Parallel()
	word := strings.Repeat("x", 23)
	for width := 1; width <= 30; width++ {
		lines := mustWrapper(t, width).WrapString(word)
		for i, line := range lines {
			n := utf8.RuneCountInString(line)
			if n > width || (i < len(lines)-1 && n != width) || n == 0 {
				t.Fatalf("width %d: bad slice %d %q in %q", width, i, line, lines)
			}
		}
		if strings.Join(lines, "") != word {
			t.Fatalf("width %d: slices do not rebuild the word: %q", width, lines)
		}
	}
}

func TestWrapRoundTripWithoutDrop(t *testing.T) {
	t.Parallel()
	src := strings.Repeat(loremWords+" ", 3) + "end"
	for _, width := range []int{12, 20, 33, 70} {
		lines := mustWrapper(t, width, WithDropWhitespace(false)).WrapString(src)
		if got := strings.Join(lines, ""); got != src {
			t.Fatalf("width %d: round trip mismatch\nwant: %q\n got: %q", width, src, got)
		}
	}
}

func TestWrapCollapseIdempotent(t *testing.T) {
	t.Parallel()
	w := mustWrapper(t, 3)
	assertLines(t, w.WrapString("x  y \n\n z"), w.WrapString("x y z")...)
	messy := "alpha \t beta\n\n\ngamma   delta"
	clean := "alpha beta gamma delta"
	for _, width := range []int{4, 9, 15, 40} {
		w := mustWrapper(t, width)
		assertLines(t, w.WrapString(messy), w.WrapString(clean)...)
	}
}

func TestWrapFirstIndentPresence(t *testing.T) {
	t.Parallel()
	lines := mustWrapper(t, 10, WithFirstLineIndent("> ")).WrapString("one two three")
	if !strings.HasPrefix(lines[0], "> ") {
		t.Fatalf("expected first line indent, got %q", lines[0])
	}
	// A long first word is flushed with the indent alone.
	assertLines(t, mustWrapper(t, 4, WithFirstLineIndent("# ")).WrapString("abcdefghij"), "# ", "abcd", "efgh", "ij")
}

func TestLinesSourceError(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	src := newChunkSource("ab cd", 3)
	src.err = errBoom
	lines := mustWrapper(t, 10).Wrap(src)
	defer lines.Close()
	var got []string
	for lines.Next() {
		got = append(got, lines.Line())
	}
	if !errors.Is(lines.Err(), errBoom) {
		t.Fatalf("expected source error, got %v", lines.Err())
	}
	if len(got) != 0 {
		t.Fatalf("expected no lines before the failure, got %q", got)
	}
	if !src.closed {
		t.Fatalf("expected source to be closed after failure")
	}
	if lines.Next() {
		t.Fatalf("expected Next to stay false")
	}
}

func TestLinesLazyAndClose(t *testing.T) {
	t.Parallel()
	src := newChunkSource(strings.Repeat("word ", 1000), 4)
	lines := mustWrapper(t, 10).Wrap(src)
	if !lines.Next() {
		t.Fatalf("expected a line")
	}
	if lines.Line() != "word word " {
		t.Fatalf("unexpected first line %q", lines.Line())
	}
	if len(src.runes) == 0 {
		t.Fatalf("expected the source to be read lazily")
	}
	if err := lines.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !src.closed {
		t.Fatalf("expected Close to close the source")
	}
	if lines.Next() {
		t.Fatalf("expected no lines after Close")
	}
}

func TestWrapperConcurrentUse(t *testing.T) {
	t.Parallel()
	w := mustWrapper(t, 12, WithIndent("  "))
	want := w.WrapString(loremWords)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := w.WrapString(loremWords)
			if strings.Join(got, "\n") != strings.Join(want, "\n") {
				t.Errorf("concurrent wrap mismatch: %q", got)
			}
		}()
	}
	wg.Wait()
}

func TestWrapReaderMatchesWrapString(t *testing.T) {
	t.Parallel()
	src := strings.Repeat("Ünïcödé wörds and well-known hyphen-joined text\n", 40)
	w := mustWrapper(t, 17)
	lines := w.WrapReader(strings.NewReader(src))
	defer lines.Close()
	var got []string
	for lines.Next() {
		got = append(got, lines.Line())
	}
	if err := lines.Err(); err != nil {
		t.Fatalf("wrap reader: %v", err)
	}
	assertLines(t, got, w.WrapString(src)...)
}
