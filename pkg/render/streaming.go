package render

import (
	"io"
	"net/http"
)

// StreamingRenderer writes a page in two flushes: the head, which names the
// client script, and then the body. The browser starts loading the script
// while the body is still being written.
type StreamingRenderer struct {
	*Renderer
	w io.Writer
}

// NewStreamingRenderer returns a renderer writing to w. Flushes are no-ops
// unless w is an http.Flusher.
func NewStreamingRenderer(w io.Writer, config RendererConfig) *StreamingRenderer {
	return &StreamingRenderer{Renderer: NewRenderer(config), w: w}
}

// RenderPage writes page, flushing after the head and at the end.
func (s *StreamingRenderer) RenderPage(page PageData) error {
	page = page.withDefaults()
	steps := []func(io.Writer, PageData) error{s.renderOpen, s.renderBody, s.renderClose}
	for i, step := range steps {
		if err := step(s.w, page); err != nil {
			return err
		}
		if i != 1 {
			s.flush()
		}
	}
	return nil
}

func (s *StreamingRenderer) flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}

// FlushableWriter is an io.Writer that counts Flush calls, for tests.
type FlushableWriter struct {
	io.Writer
	FlushCount int
}

func (w *FlushableWriter) Flush() {
	w.FlushCount++
}
