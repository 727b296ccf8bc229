package render

import (
	"fmt"
	"io"
)

// PageData contains everything needed to render the HTML shell of a session.
type PageData struct {
	// Title is the page title.
	Title string

	// Lang defaults to "en".
	Lang string

	// Body is rendered verbatim by Content. When nil, an empty mount point
	// with id MountID is written instead and the client fills it from the
	// first batch of host-op frames.
	Body Content

	// MountID defaults to "edom-root".
	MountID string

	// SessionID is passed to the client so it can attach to its engine.
	SessionID string

	// SocketPath defaults to "/ws".
	SocketPath string

	// ClientScript defaults to "/_edom/client.js".
	ClientScript string

	Meta        []MetaTag
	StyleSheets []string
	Scripts     []ScriptTag
}

// Content writes a page body.
type Content interface {
	WriteHTML(w io.Writer) error
}

// ContentFunc adapts a function to Content.
type ContentFunc func(w io.Writer) error

// WriteHTML calls f(w).
func (f ContentFunc) WriteHTML(w io.Writer) error { return f(w) }

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name    string
	Content string
	Charset string
}

// ScriptTag represents a script element.
type ScriptTag struct {
	Src    string
	Defer  bool
	Module bool
	Inline string
}

func (p PageData) withDefaults() PageData {
	if p.Lang == "" {
		p.Lang = "en"
	}
	if p.MountID == "" {
		p.MountID = "edom-root"
	}
	if p.SocketPath == "" {
		p.SocketPath = "/ws"
	}
	if p.ClientScript == "" {
		p.ClientScript = "/_edom/client.js"
	}
	return p
}

// RenderPage renders a complete HTML document to w.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	page = page.withDefaults()
	if err := r.renderOpen(w, page); err != nil {
		return err
	}
	if err := r.renderBody(w, page); err != nil {
		return err
	}
	return r.renderClose(w, page)
}

func (r *Renderer) renderOpen(w io.Writer, page PageData) error {
	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n", EscapeAttr(page.Lang)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "  <meta charset=\"utf-8\">\n"); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", EscapeText(page.Title)); err != nil {
			return err
		}
	}
	for _, meta := range page.Meta {
		if err := renderMetaTag(w, meta); err != nil {
			return err
		}
	}
	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, "  <link rel=\"stylesheet\" href=\"%s\">\n", EscapeAttr(href)); err != nil {
			return err
		}
	}
	for _, script := range page.Scripts {
		if err := renderScriptTag(w, script); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</head>\n<body>\n")
	return err
}

func (r *Renderer) renderBody(w io.Writer, page PageData) error {
	if page.Body != nil {
		if err := page.Body.WriteHTML(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}
	_, err := fmt.Fprintf(w, "<div id=\"%s\"></div>\n", EscapeAttr(page.MountID))
	return err
}

func (r *Renderer) renderClose(w io.Writer, page PageData) error {
	if _, err := fmt.Fprintf(w,
		"  <script>window.__EDOM__={session:\"%s\",socket:\"%s\",mount:\"%s\"};</script>\n",
		EscapeAttr(page.SessionID), EscapeAttr(page.SocketPath), EscapeAttr(page.MountID)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  <script src=\"%s\" defer></script>\n", EscapeAttr(page.ClientScript)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

func renderMetaTag(w io.Writer, meta MetaTag) error {
	if _, err := io.WriteString(w, "  <meta"); err != nil {
		return err
	}
	if meta.Charset != "" {
		fmt.Fprintf(w, ` charset="%s"`, EscapeAttr(meta.Charset))
	}
	if meta.Name != "" {
		fmt.Fprintf(w, ` name="%s"`, EscapeAttr(meta.Name))
	}
	if meta.Content != "" {
		fmt.Fprintf(w, ` content="%s"`, EscapeAttr(meta.Content))
	}
	_, err := io.WriteString(w, ">\n")
	return err
}

func renderScriptTag(w io.Writer, script ScriptTag) error {
	if _, err := io.WriteString(w, "  <script"); err != nil {
		return err
	}
	if script.Src != "" {
		fmt.Fprintf(w, ` src="%s"`, EscapeAttr(script.Src))
	}
	if script.Module {
		io.WriteString(w, ` type="module"`)
	}
	if script.Defer {
		io.WriteString(w, " defer")
	}
	io.WriteString(w, ">")
	io.WriteString(w, script.Inline)
	_, err := io.WriteString(w, "</script>\n")
	return err
}
