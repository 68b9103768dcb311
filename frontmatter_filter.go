package mdwrap

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxHeaderProbeBytes = 64 * 1024

// Headers is the metadata block found at the start of a document.
type Headers struct {
	Subject string
	To      string
	CC      string
	BCC     string
	From    string
	// Extra holds every other key, as written.
	Extra map[string]string
	// Format is "yaml", "toml", "json" or "mail"; empty when no block was found.
	Format string
	// Raw is the block without its delimiters.
	Raw string
}

// HeaderReader strips a leading metadata block from a text stream. Two forms
// are recognised: front matter delimited by "---", "+++" or ";;;" lines, and a
// run of mail-style "Key: value" lines starting with Subject, To, CC, BCC or
// From and ended by a blank line. Blank lines following the block are dropped.
type HeaderReader struct {
	r       io.Reader
	filter  headerFilter
	pending []byte
	err     error
	parsed  bool
	headers Headers
	hdrErr  error
	readBuf [4096]byte
}

// NewHeaderReader returns a reader yielding r without its metadata block.
func NewHeaderReader(r io.Reader) *HeaderReader {
	h := &HeaderReader{r: r}
	h.filter.reset()
	return h
}

func (h *HeaderReader) Read(p []byte) (int, error) {
	for len(h.pending) == 0 {
		if h.err != nil {
			return 0, h.err
		}
		n, err := h.r.Read(h.readBuf[:])
		if n > 0 {
			h.pending = h.filter.process(h.readBuf[:n])
		}
		if err != nil {
			if err == io.EOF && len(h.pending) == 0 {
				h.pending = h.filter.finish()
			}
			h.err = err
		}
	}
	n := copy(p, h.pending)
	h.pending = h.pending[n:]
	return n, nil
}

// Close closes the underlying reader when it implements io.Closer.
func (h *HeaderReader) Close() error {
	if c, ok := h.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Headers returns the parsed metadata block. The result is complete once Read
// has returned data or io.EOF; before that it is empty.
func (h *HeaderReader) Headers() (Headers, error) {
	if !h.filter.passthrough {
		return Headers{}, nil
	}
	if !h.parsed {
		h.headers, h.hdrErr = parseHeaders(h.filter.format, h.filter.meta)
		h.parsed = true
	}
	return h.headers, h.hdrErr
}

type headerFilter struct {
	passthrough bool
	skipBlank   bool
	format      string
	meta        []byte
	probe       []byte
	probeArr    [4096]byte
}

func (f *headerFilter) reset() {
	f.passthrough = false
	f.skipBlank = false
	f.format = ""
	f.meta = nil
	f.probe = f.probeArr[:0]
}

func (f *headerFilter) process(chunk []byte) []byte {
	if len(chunk) == 0 {
		return nil
	}
	if f.passthrough {
		return f.trimBlank(chunk)
	}
	f.probe = append(f.probe, chunk...)
	out, decided := f.decide(false)
	if !decided && len(f.probe) > maxHeaderProbeBytes {
		out = f.pass()
		decided = true
	}
	if decided {
		return f.trimBlank(out)
	}
	return nil
}

func (f *headerFilter) finish() []byte {
	if f.passthrough || len(f.probe) == 0 {
		return nil
	}
	out, _ := f.decide(true)
	return f.trimBlank(out)
}

// pass gives up on finding a block and releases the probe unchanged.
func (f *headerFilter) pass() []byte {
	out := f.probe
	f.passthrough = true
	f.probe = f.probe[:0]
	return out
}

// found records meta as the block and returns the body that follows it.
func (f *headerFilter) found(format string, meta []byte, bodyStart int) []byte {
	f.format = format
	f.meta = append([]byte(nil), meta...)
	f.skipBlank = true
	out := f.probe[bodyStart:]
	f.passthrough = true
	f.probe = f.probe[:0]
	return out
}

func (f *headerFilter) trimBlank(out []byte) []byte {
	if !f.skipBlank {
		return out
	}
	i := 0
	for i < len(out) && (out[i] == '\n' || out[i] == '\r') {
		i++
	}
	if i < len(out) {
		f.skipBlank = false
	}
	return out[i:]
}

func (f *headerFilter) decide(eof bool) ([]byte, bool) {
	openLine, openNext, ok := nextLine(f.probe, 0, eof)
	if !ok {
		return nil, false
	}
	if delim, format, isFrontMatter := parseOpeningFrontMatterDelimiter(openLine); isFrontMatter {
		return f.decideFrontMatter(delim, format, openNext, eof)
	}
	if isMailHeaderLine(trimBOM(openLine), true) {
		return f.decideMailHeaders(eof)
	}
	return f.pass(), true
}

func (f *headerFilter) decideFrontMatter(delim []byte, format string, openNext int, eof bool) ([]byte, bool) {
	secondLine, _, ok := nextLine(f.probe, openNext, eof)
	if !ok {
		return nil, false
	}
	if !frontMatterMetadataLikely(secondLine) {
		return f.pass(), true
	}
	closeStart, closeNext, found := findClosingFrontMatterDelimiter(f.probe, openNext, delim, eof)
	if !found {
		if eof {
			return f.pass(), true
		}
		return nil, false
	}
	return f.found(format, f.probe[openNext:closeStart], closeNext), true
}

func (f *headerFilter) decideMailHeaders(eof bool) ([]byte, bool) {
	idx := 0
	for {
		line, next, ok := nextLine(f.probe, idx, eof)
		if !ok {
			return nil, false
		}
		if len(bytes.TrimSpace(line)) == 0 {
			return f.found("mail", f.probe[:idx], next), true
		}
		if idx > 0 && !isMailHeaderLine(line, false) {
			return f.found("mail", f.probe[:idx], idx), true
		}
		if next == len(f.probe) && eof {
			return f.found("mail", f.probe, next), true
		}
		idx = next
	}
}

var mailHeaderKeys = []string{"subject", "to", "cc", "bcc", "from"}

// isMailHeaderLine reports whether line looks like "Key: value". The first
// line of a block must use one of the mail header keys.
func isMailHeaderLine(line []byte, first bool) bool {
	key, _, ok := bytes.Cut(line, []byte(":"))
	if !ok || len(key) == 0 {
		return false
	}
	for _, b := range key {
		isWord := b == '-' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
		if !isWord {
			return false
		}
	}
	if !first {
		return true
	}
	for _, k := range mailHeaderKeys {
		if strings.EqualFold(string(key), k) {
			return true
		}
	}
	return false
}

func nextLine(src []byte, start int, eof bool) ([]byte, int, bool) {
	if start > len(src) {
		return nil, 0, false
	}
	if start == len(src) {
		if eof {
			return src[start:], start, true
		}
		return nil, 0, false
	}
	i := bytes.IndexByte(src[start:], '\n')
	if i < 0 {
		if !eof {
			return nil, 0, false
		}
		return trimCR(src[start:]), len(src), true
	}
	lineEnd := start + i
	return trimCR(src[start:lineEnd]), lineEnd + 1, true
}

func parseOpeningFrontMatterDelimiter(line []byte) ([]byte, string, bool) {
	trimmed := bytes.TrimSpace(trimBOM(line))
	switch {
	case bytes.Equal(trimmed, []byte("---")):
		return []byte("---"), "yaml", true
	case bytes.Equal(trimmed, []byte("+++")):
		return []byte("+++"), "toml", true
	case bytes.Equal(trimmed, []byte(";;;")):
		return []byte(";;;"), "json", true
	default:
		return nil, "", false
	}
}

func frontMatterMetadataLikely(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return false
	}
	if bytes.HasPrefix(trimmed, []byte("{")) || bytes.HasPrefix(trimmed, []byte("[")) {
		return true
	}
	return bytes.Contains(trimmed, []byte(":")) || bytes.Contains(trimmed, []byte("="))
}

// findClosingFrontMatterDelimiter returns the offsets of the start of the
// closing delimiter line and of the line after it.
func findClosingFrontMatterDelimiter(src []byte, start int, delim []byte, eof bool) (int, int, bool) {
	for idx := start; idx <= len(src); {
		line, next, ok := nextLine(src, idx, eof)
		if !ok {
			return 0, 0, false
		}
		if bytes.Equal(bytes.TrimSpace(line), delim) {
			return idx, next, true
		}
		if next == idx {
			return 0, 0, false
		}
		idx = next
		if idx == len(src) && !eof {
			return 0, 0, false
		}
	}
	return 0, 0, false
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

func parseHeaders(format string, raw []byte) (Headers, error) {
	hdr := Headers{Format: format, Raw: string(raw)}
	fields := map[string]string{}
	switch format {
	case "":
		return hdr, nil
	case "mail":
		for _, line := range strings.Split(strings.TrimPrefix(hdr.Raw, "\ufeff"), "\n") {
			key, value, ok := strings.Cut(strings.TrimRight(line, "\r"), ":")
			if !ok {
				continue
			}
			fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	case "yaml", "json":
		var decoded map[string]any
		if err := yaml.Unmarshal(raw, &decoded); err != nil {
			return hdr, fmt.Errorf("headers: %s: %w", format, err)
		}
		for key, value := range decoded {
			fields[key] = headerValue(value)
		}
	default:
		return hdr, nil
	}
	for key, value := range fields {
		switch strings.ToLower(key) {
		case "subject":
			hdr.Subject = value
		case "to":
			hdr.To = value
		case "cc":
			hdr.CC = value
		case "bcc":
			hdr.BCC = value
		case "from":
			hdr.From = value
		default:
			if hdr.Extra == nil {
				hdr.Extra = map[string]string{}
			}
			hdr.Extra[key] = value
		}
	}
	return hdr, nil
}

func headerValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, headerValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
