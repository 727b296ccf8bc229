package edom

import (
	"strconv"
	"strings"

	"github.com/edom-dev/edom/pkg/host"
)

// =============================================================================
// Elements
// =============================================================================

func (c *Cursor) Div() *Cursor    { return c.Element("div") }
func (c *Cursor) Span() *Cursor   { return c.Element("span") }
func (c *Cursor) Ul() *Cursor     { return c.Element("ul") }
func (c *Cursor) Li() *Cursor     { return c.Element("li") }
func (c *Cursor) H1() *Cursor     { return c.Element("h1") }
func (c *Cursor) Form() *Cursor   { return c.Element("form") }
func (c *Cursor) Header() *Cursor { return c.Element("header") }
func (c *Cursor) Footer() *Cursor { return c.Element("footer") }
func (c *Cursor) Strong() *Cursor { return c.Element("strong") }
func (c *Cursor) Br() *Cursor     { return c.Element("br") }

// Button adds a button labelled text.
func (c *Cursor) Button(text string) *Cursor {
	return c.Element("button").Text(text)
}

// A adds a link.
func (c *Cursor) A(href, text string) *Cursor {
	return c.Element("a").Attr("href", href).Text(text)
}

// Label adds a label for the control with id forID.
func (c *Cursor) Label(forID, text string) *Cursor {
	return c.Element("label").Attr("for", forID).Text(text)
}

// SubmitButton adds an input of type submit.
func (c *Cursor) SubmitButton(text string) *Cursor {
	return c.Element("input").Attr("type", "submit").Attr("value", text)
}

// =============================================================================
// Attributes
// =============================================================================

func (c *Cursor) ID(id string) *Cursor            { return c.Attr("id", id) }
func (c *Cursor) Class(class string) *Cursor      { return c.Attr("class", class) }
func (c *Cursor) Style(style string) *Cursor      { return c.Attr("style", style) }
func (c *Cursor) Placeholder(text string) *Cursor { return c.Attr("placeholder", text) }

// Autofocus sets the autofocus attribute to "true" or "false".
func (c *Cursor) Autofocus(on bool) *Cursor {
	return c.Attr("autofocus", strconv.FormatBool(on))
}

// ClassName is a class name enabled by a condition.
type ClassName struct {
	Name    string
	Enabled bool
}

// Classes sets the class attribute to the enabled names joined by spaces.
// The attribute is always set, so toggling a name is a value change.
func (c *Cursor) Classes(names ...ClassName) *Cursor {
	var b strings.Builder
	for _, n := range names {
		if !n.Enabled {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(n.Name)
	}
	return c.Class(b.String())
}

// =============================================================================
// Events
// =============================================================================

// Click calls fn when the element is clicked.
func (c *Cursor) Click(fn func()) *Cursor {
	return c.On("click", func(host.Event) { fn() })
}

// Clicked reports whether this pass was started by a click on the element.
// The default action is prevented.
func (c *Cursor) Clicked() bool {
	return c.fired("click", true)
}

// DoubleClicked reports a "dblclick" on the element.
func (c *Cursor) DoubleClicked() bool {
	return c.fired("dblclick", false)
}

// Submitted reports a "submit" on the element. The default action is
// prevented so the page does not navigate.
func (c *Cursor) Submitted() bool {
	return c.fired("submit", true)
}

// Changed reports an "input" event on the element.
func (c *Cursor) Changed() bool {
	return c.fired("input", false)
}

func (c *Cursor) fired(name string, prevent bool) bool {
	ev, ok := c.Event(name)
	if ok && prevent && ev != nil {
		ev.PreventDefault()
	}
	return ok
}

// =============================================================================
// Inputs
// =============================================================================

// Inputs record the value attribute first and read the host value back on
// "input". After reading, the stored attribute is updated without a host
// write, because the host already shows what the user typed.

// TextInput binds a text input to *value.
func (c *Cursor) TextInput(value *string) *Cursor {
	in := c.Element("input")
	in.Attr("value", *value)
	if in.Changed() {
		*value = in.HostElement().Attribute("value")
		in.setStoredAttr(0, *value)
	}
	return in.Attr("type", "text")
}

// TextArea binds a textarea to *value.
func (c *Cursor) TextArea(value *string) *Cursor {
	in := c.Element("textarea")
	in.Attr("value", *value)
	if in.Changed() {
		*value = in.HostElement().Attribute("value")
		in.setStoredAttr(0, *value)
	}
	return in
}

// Checkbox binds a checkbox to *checked.
func (c *Cursor) Checkbox(checked *bool) *Cursor {
	in := c.Element("input")
	in.Attr("checked", strconv.FormatBool(*checked))
	if in.Changed() {
		*checked = in.HostElement().Attribute("checked") == "true"
		in.setStoredAttr(0, strconv.FormatBool(*checked))
	}
	return in.Attr("type", "checkbox")
}

// NumberInput binds a number input to *value. Input that does not parse as
// a number leaves *value unchanged.
func (c *Cursor) NumberInput(value *float64) *Cursor {
	return c.floatInput(value).Attr("type", "number")
}

// RangeInput binds a range slider to *value.
func (c *Cursor) RangeInput(value *float64, min, max float64) *Cursor {
	return c.floatInput(value).
		Attr("type", "range").
		Attr("min", formatFloat(min)).
		Attr("max", formatFloat(max))
}

func (c *Cursor) floatInput(value *float64) *Cursor {
	in := c.Element("input")
	in.Attr("value", formatFloat(*value))
	if in.Changed() {
		if f, err := strconv.ParseFloat(in.HostElement().Attribute("value"), 64); err == nil {
			*value = f
		}
		in.setStoredAttr(0, formatFloat(*value))
	}
	return in
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
