package mdwrap

import (
	"fmt"
	"io"
)

// RenderRequest configures Render.
type RenderRequest struct {
	Reader io.Reader
	Writer io.Writer
	Width  int
	// Separator terminates every written line. Empty means "\n".
	Separator string
	Options   []Option
}

// Render wraps the text read from Reader and writes each line followed by
// Separator. Lines are written as soon as they are complete. Reader is closed
// when it implements io.Closer.
func Render(req RenderRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("render: reader is nil")
	}
	if req.Writer == nil {
		return fmt.Errorf("render: writer is nil")
	}
	w, err := New(req.Width, req.Options...)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	lines := w.WrapReader(req.Reader)
	if err := writeLines(req.Writer, lines, req.Separator); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func writeLines(w io.Writer, lines *Lines, sep string) error {
	defer func() { _ = lines.Close() }()
	if sep == "" {
		sep = "\n"
	}
	for lines.Next() {
		if _, err := io.WriteString(w, lines.Line()); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		if _, err := io.WriteString(w, sep); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
	if err := lines.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}
