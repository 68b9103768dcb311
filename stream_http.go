package mdwrap

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// HTTPRenderRequest configures HTTPRender.
type HTTPRenderRequest struct {
	URL       string
	Client    *http.Client
	Writer    io.Writer
	Width     int
	Separator string
	Options   []Option
}

// HTTPRender fetches text over HTTP(S) and writes it wrapped. Responses with a
// non-text media type or a charset other than UTF-8 are rejected.
func HTTPRender(ctx context.Context, req HTTPRenderRequest) error {
	if req.URL == "" {
		return fmt.Errorf("stream http: URL is required")
	}
	if req.Writer == nil {
		return fmt.Errorf("stream http: writer is nil")
	}
	if _, err := New(req.Width, req.Options...); err != nil {
		return fmt.Errorf("stream http: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client := req.Client
	if client == nil {
		client = http.DefaultClient
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return fmt.Errorf("stream http: build request: %w", err)
	}
	switch httpReq.URL.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("stream http: unsupported scheme %q", httpReq.URL.Scheme)
	}
	httpReq.Header.Set("Accept", "text/plain, text/markdown;q=0.9, text/*;q=0.8")
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("stream http: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("stream http: status %s", resp.Status)
	}
	if err := checkTextContentType(resp.Header.Get("Content-Type")); err != nil {
		return fmt.Errorf("stream http: %w", err)
	}
	return Render(RenderRequest{
		Reader:    resp.Body,
		Writer:    req.Writer,
		Width:     req.Width,
		Separator: req.Separator,
		Options:   req.Options,
	})
}

// checkTextContentType accepts an empty content type, text/* media types and
// the UTF-8 compatible charsets.
func checkTextContentType(value string) error {
	if value == "" {
		return nil
	}
	mediaType, params, err := mime.ParseMediaType(value)
	if err != nil {
		return fmt.Errorf("content type %q: %w", value, err)
	}
	if !strings.HasPrefix(mediaType, "text/") {
		return fmt.Errorf("unsupported content type %q", mediaType)
	}
	switch strings.ToLower(params["charset"]) {
	case "", "utf-8", "utf8", "us-ascii":
		return nil
	default:
		return fmt.Errorf("unsupported charset %q", params["charset"])
	}
}
