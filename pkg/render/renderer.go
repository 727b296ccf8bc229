package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/edom-dev/edom/pkg/vdom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables indented output. Whitespace text between block elements
	// changes the host child count, so pretty output is for humans only.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string

	// StampUIDs adds a data-uid attribute to every element that registered
	// an event, matching what DOM-like backends do on Listen.
	StampUIDs bool
}

// Renderer writes a virtual tree as static HTML. Hidden and not-rendered
// conditional regions produce no output.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// Element renders e with the default configuration.
func Element(e *vdom.Element) string {
	s, _ := NewRenderer(RendererConfig{}).RenderToString(e)
	return s
}

// RenderToString renders e and its rendered descendants to a string.
func (r *Renderer) RenderToString(e *vdom.Element) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, e); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams e to w.
func (r *Renderer) RenderToWriter(w io.Writer, e *vdom.Element) error {
	if e == nil {
		return nil
	}
	return r.renderElement(w, e, 0)
}

// RenderChildren renders the children of e without e's own tags.
func (r *Renderer) RenderChildren(w io.Writer, e *vdom.Element) error {
	if e == nil {
		return nil
	}
	return r.renderChildren(w, e, 0)
}

func (r *Renderer) renderElement(w io.Writer, e *vdom.Element, depth int) error {
	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := io.WriteString(w, "<"+e.Name); err != nil {
		return err
	}
	if err := r.renderAttributes(w, e); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if IsVoidElement(e.Name) {
		if r.config.Pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	block := r.config.Pretty && hasElementChildren(e) && !isInlineElement(e.Name)
	if block {
		io.WriteString(w, "\n")
	}
	if err := r.renderChildren(w, e, depth+1); err != nil {
		return err
	}
	if block {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "</%s>", e.Name); err != nil {
		return err
	}
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}
	return nil
}

func (r *Renderer) renderChildren(w io.Writer, e *vdom.Element, depth int) error {
	for _, child := range e.Children {
		switch child.Kind {
		case vdom.KindText:
			if _, err := io.WriteString(w, EscapeText(child.Text)); err != nil {
				return err
			}
		case vdom.KindElement:
			if err := r.renderElement(w, child.Elem, depth); err != nil {
				return err
			}
		case vdom.KindConditional:
			if child.State != vdom.Visible {
				continue
			}
			if err := r.renderElement(w, child.Elem, depth); err != nil {
				return err
			}
		case vdom.KindForEach:
			for _, k := range child.List {
				if err := r.renderElement(w, k.Elem, depth); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("render: unknown node kind %d", child.Kind)
		}
	}
	return nil
}

// renderAttributes writes attributes in recording order, which is the
// order the host received them.
func (r *Renderer) renderAttributes(w io.Writer, e *vdom.Element) error {
	for _, a := range e.Attrs {
		if IsBooleanAttr(a.Name) {
			if a.Value == "false" {
				continue
			}
			if a.Value == "" || a.Value == "true" {
				if _, err := io.WriteString(w, " "+a.Name); err != nil {
					return err
				}
				continue
			}
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, a.Name, EscapeAttr(a.Value)); err != nil {
			return err
		}
	}
	if r.config.StampUIDs && len(e.Events) > 0 {
		if _, err := io.WriteString(w, ` data-uid="`+strconv.FormatUint(e.UID, 10)+`"`); err != nil {
			return err
		}
	}
	return nil
}

func hasElementChildren(e *vdom.Element) bool {
	for _, child := range e.Children {
		if child.Kind != vdom.KindText {
			return true
		}
	}
	return false
}

func (r *Renderer) writeIndent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		io.WriteString(w, r.config.Indent)
	}
}
