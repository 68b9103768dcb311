package mdwrap

import (
	"fmt"
	"io"
	"time"
)

// StreamSimulateRequest configures StreamSimulate.
type StreamSimulateRequest struct {
	Reader    io.Reader
	Writer    io.Writer
	Width     int
	ChunkSize int
	Delay     time.Duration
	Separator string
	Options   []Option
}

// StreamSimulate feeds Reader to the wrapper at most ChunkSize bytes per read,
// sleeping Delay after each read. This is intended for observing how lines are
// produced as input trickles in.
func StreamSimulate(req StreamSimulateRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("stream simulate: Reader is nil")
	}
	if req.Writer == nil {
		return fmt.Errorf("stream simulate: Writer is nil")
	}
	if req.ChunkSize <= 0 {
		return fmt.Errorf("stream simulate: ChunkSize must be > 0")
	}
	w, err := New(req.Width, req.Options...)
	if err != nil {
		return fmt.Errorf("stream simulate: %w", err)
	}
	src := &chunkReader{r: req.Reader, delay: req.Delay, maxChunk: req.ChunkSize}
	if err := writeLines(req.Writer, w.WrapReader(src), req.Separator); err != nil {
		return fmt.Errorf("stream simulate: %w", err)
	}
	return nil
}

// chunkReader limits every read to maxChunk bytes and sleeps after reads that
// returned data.
type chunkReader struct {
	r        io.Reader
	delay    time.Duration
	maxChunk int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.maxChunk > 0 && len(p) > c.maxChunk {
		p = p[:c.maxChunk]
	}
	n, err := c.r.Read(p)
	if n > 0 && c.delay > 0 {
		time.Sleep(c.delay)
	}
	return n, err
}

func (c *chunkReader) Close() error {
	if closer, ok := c.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
