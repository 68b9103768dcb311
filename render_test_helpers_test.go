package mdwrap

import (
	"bytes"
	"io"
	"testing"
)

func renderString(t *testing.T, src string, width int, opts ...Option) string {
	t.Helper()
	return renderReader(t, bytes.NewReader([]byte(src)), width, opts...)
}

func renderReader(t *testing.T, r io.Reader, width int, opts ...Option) string {
	t.Helper()
	var out bytes.Buffer
	if err := Render(RenderRequest{Reader: r, Writer: &out, Width: width, Options: opts}); err != nil {
		t.Fatalf("render: %v", err)
	}
	return out.String()
}
