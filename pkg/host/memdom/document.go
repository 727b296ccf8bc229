package memdom

import (
	"log/slog"
	"strings"

	"github.com/edom-dev/edom/pkg/host"
)

// Document owns the node id counter, the mutation counters and the optional
// mutation observer.
type Document struct {
	nextID   uint64
	nodes    map[uint64]host.Node
	counts   map[Op]int
	total    int
	observer func(Mutation)
	logger   *slog.Logger
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		nodes:  make(map[uint64]host.Node),
		counts: make(map[Op]int),
		logger: slog.Default().With("component", "memdom"),
	}
}

// SetLogger sets the logger used by Log.
func (d *Document) SetLogger(l *slog.Logger) {
	d.logger = l
}

// Observe installs fn to receive every mutation. A nil fn removes it.
func (d *Document) Observe(fn func(Mutation)) {
	d.observer = fn
}

// CreateElement implements host.Document.
func (d *Document) CreateElement(name string) host.Element {
	return d.NewElement(name)
}

// NewElement is CreateElement returning the concrete type.
func (d *Document) NewElement(name string) *Element {
	e := d.newElement(name)
	d.emit(Mutation{Op: OpCreateElement, Target: e.id, Name: name})
	return e
}

// CreateText implements host.Document.
func (d *Document) CreateText(s string) host.Text {
	t := d.newText(s)
	d.emit(Mutation{Op: OpCreateText, Target: t.id, Value: s})
	return t
}

// Log implements host.Document.
func (d *Document) Log(msg string, detail ...string) {
	if len(detail) == 0 {
		d.logger.Debug(msg)
		return
	}
	d.logger.Debug(msg, "detail", strings.Join(detail, " "))
}

// Lookup returns the node with the given id.
func (d *Document) Lookup(id uint64) (host.Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Len returns the number of nodes the document can still look up.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Release implements host.Releaser. The nodes stay usable as values but
// Lookup no longer finds them.
func (d *Document) Release(el host.Element) {
	c := asChild(el)
	d.forget(c)
	d.emit(Mutation{Op: OpRelease, Target: c.base().id})
}

func (d *Document) forget(n child) {
	delete(d.nodes, n.base().id)
	if el, ok := n.(*Element); ok {
		for _, c := range el.children {
			d.forget(asChild(c))
		}
	}
}

// Count returns how many mutations of op have been applied.
func (d *Document) Count(op Op) int {
	return d.counts[op]
}

// Mutations returns the total number of mutations applied.
func (d *Document) Mutations() int {
	return d.total
}

// ResetCounts zeroes the mutation counters.
func (d *Document) ResetCounts() {
	d.counts = make(map[Op]int)
	d.total = 0
}

// NextID returns the id the next created node will receive.
func (d *Document) NextID() uint64 {
	return d.nextID + 1
}

func (d *Document) allocID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Document) newElement(name string) *Element {
	e := &Element{tag: name}
	e.doc = d
	e.id = d.allocID()
	d.nodes[e.id] = e
	return e
}

func (d *Document) newText(s string) *Text {
	t := &Text{data: s}
	t.doc = d
	t.id = d.allocID()
	d.nodes[t.id] = t
	return t
}

func (d *Document) emit(m Mutation) {
	d.counts[m.Op]++
	d.total++
	if d.observer != nil {
		d.observer(m)
	}
}
