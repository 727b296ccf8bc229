package vtest

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/edom-dev/edom/pkg/edom"
	"github.com/edom-dev/edom/pkg/host/memdom"
	"github.com/edom-dev/edom/pkg/protocol"
	"github.com/edom-dev/edom/pkg/render"
)

// GoldenDir is where AssertGolden looks for trace fixtures, relative to
// the package under test.
const GoldenDir = "testdata/golden"

// Harness mounts an application on an in-memory document and records every
// host operation the engine applies after the mount point exists.
type Harness struct {
	tb     testing.TB
	Engine *edom.Engine
	Doc    *memdom.Document
	Root   *memdom.Element
	trace  []string
}

// Mount runs the create pass of fn under a div mount point. A failed mount
// fails the test.
func Mount(tb testing.TB, fn func(*edom.Cursor), opts ...edom.Option) *Harness {
	tb.Helper()
	h := &Harness{tb: tb, Doc: memdom.NewDocument()}
	h.Root = h.Doc.NewElement("div")
	h.Doc.Observe(func(m memdom.Mutation) {
		h.trace = append(h.trace, toHostOp(m).String())
	})
	eng, err := edom.Mount(memdom.NewBackend(h.Doc), h.Root, fn, opts...)
	if err != nil {
		tb.Fatalf("Mount: %v", err)
	}
	h.Engine = eng
	return h
}

func toHostOp(m memdom.Mutation) protocol.HostOp {
	return protocol.HostOp{
		Code:   protocol.OpCode(m.Op),
		Target: m.Target,
		Child:  m.Child,
		Ref:    m.Ref,
		Name:   m.Name,
		Value:  m.Value,
		UID:    m.UID,
	}
}

// HTML returns the host markup inside the mount point.
func (h *Harness) HTML() string {
	s := h.Root.OuterHTML()
	return strings.TrimSuffix(strings.TrimPrefix(s, "<div>"), "</div>")
}

// VirtualHTML renders the engine's virtual tree the way the host shows it.
func (h *Harness) VirtualHTML() string {
	var b strings.Builder
	render.NewRenderer(render.RendererConfig{StampUIDs: true}).RenderChildren(&b, h.Engine.Root())
	return b.String()
}

// Update runs one render pass without an event.
func (h *Harness) Update() {
	h.tb.Helper()
	if err := h.Engine.Update(); err != nil {
		h.tb.Fatalf("Update: %v", err)
	}
}

// Find returns the first element under the mount point matching fn. The
// test fails when nothing matches.
func (h *Harness) Find(fn func(*memdom.Element) bool) *memdom.Element {
	h.tb.Helper()
	el := h.Root.Find(fn)
	if el == nil {
		h.tb.Fatalf("no element matches in %s", truncate(h.HTML(), 200))
	}
	return el
}

// ByID finds the element whose id attribute is id.
func (h *Harness) ByID(id string) *memdom.Element {
	h.tb.Helper()
	return h.Find(memdom.ByAttr("id", id))
}

// Click clicks el and fails the test on a dispatch error.
func (h *Harness) Click(el *memdom.Element) {
	h.tb.Helper()
	if err := el.Click(); err != nil {
		h.tb.Fatalf("click on <%s>: %v", el.Tag(), err)
	}
}

// Input types value into el.
func (h *Harness) Input(el *memdom.Element, value string) {
	h.tb.Helper()
	if err := el.Input(value); err != nil {
		h.tb.Fatalf("input on <%s>: %v", el.Tag(), err)
	}
}

// Toggle flips a checkbox.
func (h *Harness) Toggle(el *memdom.Element) {
	h.tb.Helper()
	if err := el.Toggle(); err != nil {
		h.tb.Fatalf("toggle on <%s>: %v", el.Tag(), err)
	}
}

// Fire sends a bare event named name to el.
func (h *Harness) Fire(el *memdom.Element, name string) {
	h.tb.Helper()
	if err := el.Fire(name, memdom.NewEvent(name)); err != nil {
		h.tb.Fatalf("%s on <%s>: %v", name, el.Tag(), err)
	}
}

// Mark adds a "# label" line to the trace so a golden file shows which
// step produced the operations that follow.
func (h *Harness) Mark(label string) {
	h.trace = append(h.trace, "# "+label)
}

// Trace returns the recorded operations, one per line.
func (h *Harness) Trace() []string {
	return append([]string(nil), h.trace...)
}

// TraceString joins the trace with a trailing newline.
func (h *Harness) TraceString() string {
	if len(h.trace) == 0 {
		return ""
	}
	return strings.Join(h.trace, "\n") + "\n"
}

// ResetTrace drops the recorded operations and the document's counters.
func (h *Harness) ResetTrace() {
	h.trace = h.trace[:0]
	h.Doc.ResetCounts()
}

// ExpectHTML fails unless the host markup equals want.
func (h *Harness) ExpectHTML(want string) {
	h.tb.Helper()
	if got := h.HTML(); got != want {
		h.tb.Errorf("html mismatch\n got: %s\nwant: %s", got, want)
	}
}

// ExpectContains fails unless the host markup contains s.
func (h *Harness) ExpectContains(s string) {
	h.tb.Helper()
	if got := h.HTML(); !strings.Contains(got, s) {
		h.tb.Errorf("expected markup to contain %q, got: %s", s, truncate(got, 200))
	}
}

// ExpectNotContains fails if the host markup contains s.
func (h *Harness) ExpectNotContains(s string) {
	h.tb.Helper()
	if got := h.HTML(); strings.Contains(got, s) {
		h.tb.Errorf("expected markup not to contain %q, got: %s", s, truncate(got, 200))
	}
}

// ExpectMutations fails unless the document applied n mutations since the
// last ResetTrace.
func (h *Harness) ExpectMutations(n int) {
	h.tb.Helper()
	if got := h.Doc.Mutations(); got != n {
		h.tb.Errorf("mutations = %d, want %d\n%s", got, n, h.TraceString())
	}
}

// ExpectStable checks that one more pass touches nothing. The trace is
// reset.
func (h *Harness) ExpectStable() {
	h.tb.Helper()
	h.ResetTrace()
	h.Update()
	if n := h.Doc.Mutations(); n != 0 {
		h.tb.Fatalf("idempotent pass applied %d mutations:\n%s", n, h.TraceString())
	}
	h.ResetTrace()
}

// ExpectMirrored checks that the virtual tree renders to the host markup.
// Form controls keep value and checked as host properties, so trees with
// bound inputs do not mirror.
func (h *Harness) ExpectMirrored() {
	h.tb.Helper()
	if got, want := h.VirtualHTML(), h.HTML(); got != want {
		h.tb.Fatalf("virtual tree and host differ:\nvdom: %s\nhost: %s", got, want)
	}
}

// AssertGolden compares the trace with testdata/golden/<name>.golden.
// Run the tests with -update to rewrite the fixture.
func (h *Harness) AssertGolden(t *testing.T, name string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(h.TraceString()))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
