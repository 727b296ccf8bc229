package memdom

import (
	"errors"
	"testing"

	"github.com/edom-dev/edom/pkg/host"
)

func build(t *testing.T) (*Document, *Element, []*Element) {
	t.Helper()
	doc := NewDocument()
	root := doc.NewElement("ul")
	var items []*Element
	for _, s := range []string{"a", "b", "c"} {
		li := doc.NewElement("li")
		li.SetTextContent(s)
		root.AppendChild(li)
		items = append(items, li)
	}
	doc.ResetCounts()
	return doc, root, items
}

func TestTreeOperations(t *testing.T) {
	tests := []struct {
		name string
		op   func(root *Element, items []*Element, doc *Document)
		want string
	}{
		{
			name: "append moves",
			op:   func(root *Element, items []*Element, _ *Document) { root.AppendChild(items[0]) },
			want: "<ul><li>b</li><li>c</li><li>a</li></ul>",
		},
		{
			name: "prepend",
			op:   func(root *Element, items []*Element, _ *Document) { root.PrependChild(items[2]) },
			want: "<ul><li>c</li><li>a</li><li>b</li></ul>",
		},
		{
			name: "insert before",
			op:   func(root *Element, items []*Element, _ *Document) { root.InsertBefore(items[2], items[0]) },
			want: "<ul><li>c</li><li>a</li><li>b</li></ul>",
		},
		{
			name: "insert before nil appends",
			op:   func(root *Element, items []*Element, _ *Document) { root.InsertBefore(items[0], nil) },
			want: "<ul><li>b</li><li>c</li><li>a</li></ul>",
		},
		{
			name: "insert after",
			op:   func(root *Element, items []*Element, _ *Document) { root.InsertAfter(items[0], items[1]) },
			want: "<ul><li>b</li><li>a</li><li>c</li></ul>",
		},
		{
			name: "remove child",
			op:   func(root *Element, items []*Element, _ *Document) { root.RemoveChild(items[1]) },
			want: "<ul><li>a</li><li>c</li></ul>",
		},
		{
			name: "remove self",
			op:   func(_ *Element, items []*Element, _ *Document) { items[2].Remove() },
			want: "<ul><li>a</li><li>b</li></ul>",
		},
		{
			name: "set attribute",
			op: func(root *Element, _ []*Element, _ *Document) {
				root.SetAttribute("class", "x")
				root.SetAttribute("class", "y")
			},
			want: `<ul class="y"><li>a</li><li>b</li><li>c</li></ul>`,
		},
		{
			name: "text content replaces children",
			op:   func(root *Element, _ []*Element, _ *Document) { root.SetTextContent("empty") },
			want: "<ul>empty</ul>",
		},
		{
			name: "append and replace text",
			op: func(_ *Element, items []*Element, doc *Document) {
				old := doc.CreateText(" one")
				items[0].AppendText(old)
				items[0].ReplaceText(doc.CreateText(" two"), old)
			},
			want: "<ul><li>a two</li><li>b</li><li>c</li></ul>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, root, items := build(t)
			tt.op(root, items, doc)
			if got := root.OuterHTML(); got != tt.want {
				t.Errorf("OuterHTML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChildNode(t *testing.T) {
	_, root, items := build(t)
	if root.ChildNode(1) != host.Node(items[1]) {
		t.Errorf("ChildNode(1) is not the second item")
	}
	if root.ChildNode(3) != nil {
		t.Errorf("ChildNode past the end should be nil")
	}
	if root.ChildNode(-1) != nil {
		t.Errorf("ChildNode(-1) should be nil")
	}
	if items[1].Parent() != root {
		t.Errorf("parent not recorded")
	}
	root.RemoveChild(items[1])
	if items[1].Parent() != nil {
		t.Errorf("parent not cleared on removal")
	}
}

func TestDeepClone(t *testing.T) {
	doc, root, _ := build(t)
	root.SetAttribute("id", "list")
	next := doc.NextID()

	c := root.DeepClone().(*Element)
	if c.ID() != next {
		t.Errorf("clone id = %d, want %d", c.ID(), next)
	}
	if c.OuterHTML() != root.OuterHTML() {
		t.Errorf("clone %q differs from %q", c.OuterHTML(), root.OuterHTML())
	}
	if c.Parent() != nil {
		t.Errorf("clone should be detached")
	}
	// Pre-order ids: ul, li, text, li, text, li, text.
	if got := c.Children()[2].ChildNode(0).(*Text).ID(); got != next+6 {
		t.Errorf("last text id = %d, want %d", got, next+6)
	}
	c.SetAttribute("id", "copy")
	if root.Attribute("id") != "list" {
		t.Errorf("clone shares attributes with source")
	}
	if doc.Count(OpClone) != 1 {
		t.Errorf("Count(OpClone) = %d, want 1", doc.Count(OpClone))
	}
}

func TestProperties(t *testing.T) {
	doc := NewDocument()
	input := doc.NewElement("input")
	input.SetAttribute("type", "checkbox")
	input.SetAttribute("checked", "true")
	if !input.Checked() || input.Attribute("checked") != "true" {
		t.Errorf("checked property not set")
	}
	input.SetAttribute("value", "v")
	if input.Value() != "v" {
		t.Errorf("Value() = %q", input.Value())
	}
	before := doc.Mutations()
	input.SetProperty("value", "typed")
	if doc.Mutations() != before {
		t.Errorf("SetProperty recorded a mutation")
	}
	if got := input.OuterHTML(); got != `<input type="checkbox">` {
		t.Errorf("properties serialized: %q", got)
	}
}

func TestDeepCloneDropsProperties(t *testing.T) {
	doc := NewDocument()
	li := doc.NewElement("li")
	input := doc.NewElement("input")
	input.SetAttribute("type", "checkbox")
	input.SetAttribute("checked", "true")
	input.SetAttribute("value", "v")
	li.AppendChild(input)

	c := li.DeepClone().(*Element).Children()[0]
	if c.Checked() || c.Value() != "" {
		t.Errorf("clone kept properties: checked=%v value=%q", c.Checked(), c.Value())
	}
	if c.Attribute("type") != "checkbox" {
		t.Errorf("clone lost attribute type")
	}
}

func TestMutationObserver(t *testing.T) {
	doc := NewDocument()
	var seen []Mutation
	doc.Observe(func(m Mutation) { seen = append(seen, m) })

	div := doc.NewElement("div")
	span := doc.NewElement("span")
	div.AppendChild(span)
	div.SetAttribute("class", "c")

	want := []Op{OpCreateElement, OpCreateElement, OpAppendChild, OpSetAttribute}
	if len(seen) != len(want) {
		t.Fatalf("saw %d mutations, want %d", len(seen), len(want))
	}
	for i, op := range want {
		if seen[i].Op != op {
			t.Errorf("mutation %d = %s, want %s", i, seen[i].Op, op)
		}
	}
	if seen[2].Target != div.ID() || seen[2].Child != span.ID() {
		t.Errorf("append mutation = %+v", seen[2])
	}
	if doc.Mutations() != 4 || doc.Count(OpCreateElement) != 2 {
		t.Errorf("counters = %d total, %d creates", doc.Mutations(), doc.Count(OpCreateElement))
	}
}

func TestFire(t *testing.T) {
	doc := NewDocument()
	backend := NewBackend(doc)
	slot := &host.DispatchSlot{}
	handler := backend.NewEventHandler(slot)

	button := doc.NewElement("button")
	handler.Listen(button, 42, "click")
	if button.Attribute("data-uid") != "42" {
		t.Errorf("data-uid = %q", button.Attribute("data-uid"))
	}

	if err := button.Click(); !errors.Is(err, host.ErrNotInstalled) {
		t.Errorf("Click before install = %v, want ErrNotInstalled", err)
	}

	var gotUID uint64
	var gotName string
	slot.Install(func(uid uint64, name string, ev host.Event) error {
		gotUID, gotName = uid, name
		ev.PreventDefault()
		return nil
	})

	ev := NewEvent("click")
	if err := button.Fire("click", ev); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if gotUID != 42 || gotName != "click" {
		t.Errorf("dispatched (%d, %q)", gotUID, gotName)
	}
	if !ev.DefaultPrevented() {
		t.Errorf("PreventDefault not recorded")
	}
	if err := button.Fire("input", NewEvent("input")); !errors.Is(err, ErrNoListener) {
		t.Errorf("Fire without listener = %v", err)
	}
}

func TestQueries(t *testing.T) {
	_, root, items := build(t)
	items[1].SetAttribute("class", "danger")

	if got := root.TextContent(); got != "abc" {
		t.Errorf("TextContent() = %q", got)
	}
	if got := root.Find(ByAttr("class", "danger")); got != items[1] {
		t.Errorf("Find(ByAttr) = %v", got)
	}
	if got := root.Find(ByText("c")); got != items[2] {
		t.Errorf("Find(ByText) = %v", got)
	}
	if got := len(root.FindAll(ByTag("li"))); got != 3 {
		t.Errorf("FindAll(li) = %d", got)
	}
	if n, ok := root.doc.Lookup(items[0].ID()); !ok || n != host.Node(items[0]) {
		t.Errorf("Lookup failed")
	}
}

func TestRelease(t *testing.T) {
	doc, root, items := build(t)
	if doc.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", doc.Len())
	}

	var seen []Mutation
	doc.Observe(func(m Mutation) { seen = append(seen, m) })
	root.RemoveChild(items[1])
	doc.Release(items[1])
	if doc.Len() != 5 {
		t.Errorf("Len() = %d after release, want 5", doc.Len())
	}
	if _, ok := doc.Lookup(items[1].ID()); ok {
		t.Errorf("released element still found")
	}
	if last := seen[len(seen)-1]; last.Op != OpRelease || last.Target != items[1].ID() {
		t.Errorf("last mutation = %+v, want Release of #%d", last, items[1].ID())
	}

	old := items[0].ChildNodes()[0].(*Text)
	items[0].SetTextContent("")
	if _, ok := doc.Lookup(old.ID()); ok {
		t.Errorf("replaced text still found")
	}
	if doc.Len() != 5 || len(items[0].ChildNodes()) != 1 {
		t.Errorf("SetTextContent(\"\") should swap in one empty text node")
	}
}
