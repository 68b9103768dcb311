package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/reflow/padding"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/mdwrap"
	"pkt.systems/version"
)

const (
	defaultChunkSize = 3
	defaultDelay     = 20 * time.Millisecond
	description      = "Reflows plain text or Markdown into lines of a maximum width. " +
		"Whitespace runs are collapsed, words longer than the width are split, and " +
		"lines may carry a first-line and a continuation indent.\n\n" +
		"With --headers, a leading metadata block (front matter, or mail-style " +
		"\"Subject:\", \"To:\", \"CC:\" and \"BCC:\" lines) is removed from the text " +
		"and printed to stderr."
)

func init() {
	version.SetDefaultModule("pkt.systems/mdwrap")
}

type options struct {
	width          int
	firstIndent    string
	indent         string
	breakLongWords bool
	breakHyphens   bool
	dropWhitespace bool
	collapse       bool
	strict         bool
	crlf           bool
	fill           bool
	headers        bool
	simulate       bool
	simChunkSize   int
	simDelay       time.Duration
	outPath        string
	showVersion    bool
}

func main() {
	var opts options
	flags := pflag.NewFlagSet("mdwrap", pflag.ExitOnError)
	flags.IntVarP(&opts.width, "width", "w", 0, "Line width (0 uses the terminal width, at most 70)")
	flags.StringVarP(&opts.firstIndent, "first-indent", "f", "", "Prefix for the first line")
	flags.StringVarP(&opts.indent, "indent", "i", "", "Prefix for lines started by a wrap break")
	flags.BoolVar(&opts.breakLongWords, "break-long-words", true, "Split words longer than the width")
	flags.BoolVar(&opts.breakHyphens, "break-hyphens", true, "Allow breaks after hyphens")
	flags.BoolVar(&opts.dropWhitespace, "drop-whitespace", true, "Drop leading whitespace on wrapped lines")
	flags.BoolVar(&opts.collapse, "collapse-whitespace", true, "Collapse whitespace runs, line breaks included, to one space")
	flags.BoolVar(&opts.strict, "strict", false, "Fail on invalid UTF-8 or binary input")
	flags.BoolVar(&opts.crlf, "crlf", false, "Terminate lines with CRLF")
	flags.BoolVar(&opts.fill, "fill", false, "Pad every line with spaces to the width")
	flags.BoolVar(&opts.headers, "headers", false, "Strip a leading metadata block and print it to stderr")
	flags.BoolVar(&opts.simulate, "simulate", false, "Stream simulator (use default delay and chunk size)")
	flags.IntVar(&opts.simChunkSize, "simulate-chunk", defaultChunkSize, "Max bytes per stream chunk")
	flags.DurationVar(&opts.simDelay, "simulate-delay", defaultDelay, "Delay per stream chunk")
	flags.StringVarP(&opts.outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVar(&opts.showVersion, "version", false, "Print the version and exit")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, helpText(helpWidth()))
		fmt.Fprintf(os.Stderr, "\nUsage: mdwrap [flags] [inputs...]\n")
		fmt.Fprintln(os.Stderr, "\nIf no input is provided, text is read from stdin.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Fprintln(os.Stdout, version.Module(), version.Current())
		return
	}
	if opts.width < 0 {
		fmt.Fprintf(os.Stderr, "invalid --width %d: must not be negative\n", opts.width)
		os.Exit(2)
	}
	if opts.simulate && opts.simChunkSize <= 0 {
		fmt.Fprintf(os.Stderr, "invalid --simulate-chunk %d: must be > 0\n", opts.simChunkSize)
		os.Exit(2)
	}

	reader, err := openInputs(flags.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}

	var headers *mdwrap.HeaderReader
	if opts.headers {
		headers = mdwrap.NewHeaderReader(reader)
		reader = headers
	}

	writer, closeOut, err := resolveOutput(opts.outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open output: %v\n", err)
		os.Exit(1)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	if err := run(reader, writer, opts); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if headers != nil {
		hdr, err := headers.Headers()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		printHeaders(os.Stderr, hdr)
	}
}

func run(r io.Reader, w io.Writer, opts options) error {
	width := resolveWidth(opts.width)
	sep := "\n"
	if opts.crlf {
		sep = "\r\n"
	}
	if opts.fill {
		w = &padWriter{w: w, width: uint(width), sep: []byte(sep)}
	}
	wrapOpts := wrapOptions(opts)
	if opts.simulate {
		return mdwrap.StreamSimulate(mdwrap.StreamSimulateRequest{
			Reader:    r,
			Writer:    w,
			Width:     width,
			ChunkSize: opts.simChunkSize,
			Delay:     opts.simDelay,
			Separator: sep,
			Options:   wrapOpts,
		})
	}
	return mdwrap.Render(mdwrap.RenderRequest{
		Reader:    r,
		Writer:    w,
		Width:     width,
		Separator: sep,
		Options:   wrapOpts,
	})
}

func wrapOptions(opts options) []mdwrap.Option {
	return []mdwrap.Option{
		mdwrap.WithFirstLineIndent(opts.firstIndent),
		mdwrap.WithIndent(opts.indent),
		mdwrap.WithBreakLongWords(opts.breakLongWords),
		mdwrap.WithBreakOnHyphens(opts.breakHyphens),
		mdwrap.WithDropWhitespace(opts.dropWhitespace),
		mdwrap.WithCollapseWhitespace(opts.collapse),
		mdwrap.WithStrictInput(opts.strict),
	}
}

// helpText wraps the tool description, keeping its paragraph breaks.
func helpText(width int) string {
	w, err := mdwrap.New(width, mdwrap.WithCollapseWhitespace(false))
	if err != nil {
		return description
	}
	return strings.Join(w.WrapString(description), "\n")
}

func helpWidth() int {
	return resolveWidth(0)
}

func printHeaders(w io.Writer, hdr mdwrap.Headers) {
	if hdr.Format == "" {
		return
	}
	fields := []struct{ name, value string }{
		{"Subject", hdr.Subject},
		{"From", hdr.From},
		{"To", hdr.To},
		{"CC", hdr.CC},
		{"BCC", hdr.BCC},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(w, "%s: %s\n", f.name, f.value)
		}
	}
}

// resolveWidth returns width when set, otherwise one less than the terminal
// width capped at mdwrap.DefaultWidth.
func resolveWidth(width int) int {
	if width > 0 {
		return width
	}
	tw := terminalWidth(mdwrap.DefaultWidth + 1)
	if tw-1 < mdwrap.DefaultWidth && tw > 1 {
		return tw - 1
	}
	return mdwrap.DefaultWidth
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

// padWriter pads every sep-terminated line to width printable columns.
type padWriter struct {
	w     io.Writer
	width uint
	sep   []byte
	line  []byte
}

func (p *padWriter) Write(b []byte) (int, error) {
	p.line = append(p.line, b...)
	for {
		i := bytes.Index(p.line, p.sep)
		if i < 0 {
			return len(b), nil
		}
		if _, err := io.WriteString(p.w, padding.String(string(p.line[:i]), p.width)); err != nil {
			return 0, err
		}
		if _, err := p.w.Write(p.sep); err != nil {
			return 0, err
		}
		p.line = p.line[:copy(p.line, p.line[i+len(p.sep):])]
	}
}

type inputSource struct {
	name string
	open func() (io.ReadCloser, error)
}

// multiInputReader concatenates inputs, opening each one lazily.
type multiInputReader struct {
	sources []inputSource
	idx     int
	cur     io.ReadCloser
	closed  bool
}

func (m *multiInputReader) Read(p []byte) (int, error) {
	for {
		if m.closed {
			return 0, io.EOF
		}
		if m.cur == nil {
			if m.idx >= len(m.sources) {
				m.closed = true
				return 0, io.EOF
			}
			src := m.sources[m.idx]
			m.idx++
			rc, err := src.open()
			if err != nil {
				return 0, fmt.Errorf("open %s: %w", src.name, err)
			}
			m.cur = rc
		}
		n, err := m.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			_ = m.cur.Close()
			m.cur = nil
			continue
		}
		if err != nil {
			return 0, err
		}
	}
}

func (m *multiInputReader) Close() error {
	m.closed = true
	if m.cur != nil {
		err := m.cur.Close()
		m.cur = nil
		return err
	}
	return nil
}

func openInputs(args []string) (io.Reader, error) {
	if len(args) == 0 {
		return os.Stdin, nil
	}
	sources := make([]inputSource, 0, len(args))
	for _, raw := range args {
		src, err := makeInputSource(raw)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return &multiInputReader{sources: sources}, nil
}

func makeInputSource(raw string) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	if raw == "-" {
		return inputSource{name: "stdin", open: func() (io.ReadCloser, error) {
			return io.NopCloser(os.Stdin), nil
		}}, nil
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{name: raw, open: func() (io.ReadCloser, error) {
				return openURL(raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{name: path, open: func() (io.ReadCloser, error) {
				return os.Open(normalizePath(path))
			}}, nil
		}
	}
	return inputSource{name: raw, open: func() (io.ReadCloser, error) {
		return os.Open(normalizePath(raw))
	}}, nil
}

func openURL(raw string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, nil
}

func resolveOutput(path string) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}
