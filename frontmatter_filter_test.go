package mdwrap

import (
	"io"
	"strings"
	"testing"
)

func readHeaders(t *testing.T, src string, chunk int) (string, Headers) {
	t.Helper()
	h := NewHeaderReader(&chunkReader{r: strings.NewReader(src), maxChunk: chunk})
	body, err := io.ReadAll(h)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	hdr, err := h.Headers()
	if err != nil {
		t.Fatalf("headers: %v", err)
	}
	return string(body), hdr
}

func TestHeaderReaderStripsMetadataBlock(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		src     string
		body    string
		format  string
		subject string
		to      string
		cc      string
		extra   map[string]string
	}{
		{
			name:    "yaml",
			src:     "---\ntitle: Post\nsubject: Hello\nto: [a@example.com, b@example.com]\n---\n\nBody text.\n",
			body:    "Body text.\n",
			format:  "yaml",
			subject: "Hello",
			to:      "a@example.com, b@example.com",
			extra:   map[string]string{"title": "Post"},
		},
		{
			name:   "toml",
			src:    "+++\ntitle = \"Post\"\n+++\nBody\n",
			body:   "Body\n",
			format: "toml",
		},
		{
			name:    "json",
			src:     ";;;\n{\"Subject\": \"Hi\", \"draft\": true}\n;;;\n\nBody\n",
			body:    "Body\n",
			format:  "json",
			subject: "Hi",
			extra:   map[string]string{"draft": "true"},
		},
		{
			name:    "mail",
			src:     "Subject: Meeting: agenda\nTo: team@example.com\nCC: boss@example.com\n\nHello all.\n",
			body:    "Hello all.\n",
			format:  "mail",
			subject: "Meeting: agenda",
			to:      "team@example.com",
			cc:      "boss@example.com",
		},
		{
			name:   "mail ended by text",
			src:    "To: a@example.com\nHello there\n",
			body:   "Hello there\n",
			format: "mail",
			to:     "a@example.com",
		},
		{
			name:    "crlf mail",
			src:     "Subject: Hi\r\nX-Tag: one\r\n\r\nBody\r\n",
			body:    "Body\r\n",
			format:  "mail",
			subject: "Hi",
			extra:   map[string]string{"X-Tag": "one"},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			for _, chunk := range []int{1, 3, 4096} {
				body, hdr := readHeaders(t, tc.src, chunk)
				if body != tc.body {
					t.Fatalf("chunk %d: body want %q got %q", chunk, tc.body, body)
				}
				if hdr.Format != tc.format || hdr.Subject != tc.subject || hdr.To != tc.to || hdr.CC != tc.cc {
					t.Fatalf("chunk %d: unexpected headers %+v", chunk, hdr)
				}
				for key, want := range tc.extra {
					if got := hdr.Extra[key]; got != want {
						t.Fatalf("chunk %d: extra %q want %q got %q", chunk, key, want, got)
					}
				}
			}
		})
	}
}

func TestHeaderReaderPassesOtherText(t *testing.T) {
	t.Parallel()
	for _, src := range []string{
		"Note: this line stays\nBody\n",
		"---\ntitle: Post\n\nBody\n",
		"---\n# Keep\n---\n\nTail\n",
		"Plain text only.",
		"",
	} {
		for _, chunk := range []int{1, 4096} {
			body, hdr := readHeaders(t, src, chunk)
			if body != src {
				t.Fatalf("chunk %d: want %q unchanged, got %q", chunk, src, body)
			}
			if hdr.Format != "" {
				t.Fatalf("chunk %d: unexpected header block in %q: %+v", chunk, src, hdr)
			}
		}
	}
}

func TestHeaderReaderOnlyChecksStart(t *testing.T) {
	t.Parallel()
	src := "---\ntitle: Skip\n---\n\nBody\n\n---\nkeep: yes\n---\n"
	body, hdr := readHeaders(t, src, 5)
	if strings.Contains(body, "title: Skip") || hdr.Extra["title"] != "Skip" {
		t.Fatalf("expected leading block to be stripped, body %q headers %+v", body, hdr)
	}
	if body != "Body\n\n---\nkeep: yes\n---\n" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestHeaderReaderInvalidYAML(t *testing.T) {
	t.Parallel()
	h := NewHeaderReader(strings.NewReader("---\ntitle: [unclosed\n---\nBody\n"))
	if _, err := io.ReadAll(h); err != nil {
		t.Fatalf("read body: %v", err)
	}
	hdr, err := h.Headers()
	if err == nil {
		t.Fatalf("expected yaml error")
	}
	if hdr.Format != "yaml" || !strings.Contains(hdr.Raw, "[unclosed") {
		t.Fatalf("expected raw block alongside the error, got %+v", hdr)
	}
}

func TestRenderAfterHeaderReader(t *testing.T) {
	t.Parallel()
	src := "Subject: Status\nTo: ops@example.com\n\nAll systems nominal today.\n"
	got := renderReader(t, NewHeaderReader(strings.NewReader(src)), 12)
	if want := "All systems \nnominal \ntoday. \n"; got != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, got)
	}
}
