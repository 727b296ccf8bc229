package remote

import (
	errs "github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/host"
	"github.com/edom-dev/edom/pkg/host/memdom"
	"github.com/edom-dev/edom/pkg/protocol"
)

// SendFunc delivers an event frame to the server.
type SendFunc func(*protocol.Event) error

// Mirror is the receiving end of a Backend: it applies ops frames to its
// own memdom document, reproducing the tree the engine built, and reports
// listener firings on that tree through send. It plays the part of the
// browser client in tests and tools.
type Mirror struct {
	doc     *memdom.Document
	handler host.EventHandler
	slot    *host.DispatchSlot
	send    SendFunc
	lastSeq uint64
	evSeq   uint64
}

// NewMirror returns an empty mirror. send may be nil when events are never
// fired on the mirror.
func NewMirror(send SendFunc) *Mirror {
	doc := memdom.NewDocument()
	m := &Mirror{
		doc:  doc,
		slot: host.NewDispatchSlot(),
		send: send,
	}
	m.handler = memdom.NewBackend(doc).NewEventHandler(m.slot)
	m.slot.Install(m.forward)
	return m
}

// Document returns the mirror document.
func (m *Mirror) Document() *memdom.Document {
	return m.doc
}

// Element returns the element with the given id, or nil.
func (m *Mirror) Element(id uint64) *memdom.Element {
	n, _ := m.doc.Lookup(id)
	el, _ := n.(*memdom.Element)
	return el
}

// LastSeq returns the sequence number of the last applied frame.
func (m *Mirror) LastSeq() uint64 {
	return m.lastSeq
}

// Apply applies one ops frame. Frames must arrive in sequence.
func (m *Mirror) Apply(of *protocol.OpsFrame) error {
	if of.Seq != m.lastSeq+1 {
		return errs.New("E140").WithDetailf("ops frame %d after %d", of.Seq, m.lastSeq)
	}
	for i := range of.Ops {
		if err := m.ApplyOp(&of.Ops[i]); err != nil {
			return err
		}
	}
	m.lastSeq = of.Seq
	return nil
}

// ApplyOp applies a single host operation.
func (m *Mirror) ApplyOp(op *protocol.HostOp) error {
	if !op.Code.Valid() {
		return errs.New("E141").WithDetailf("op code 0x%02x", uint8(op.Code))
	}
	switch op.Code {
	case protocol.OpCreateElement:
		if err := m.expectID(op.Target); err != nil {
			return err
		}
		m.doc.NewElement(op.Name)
		return nil
	case protocol.OpCreateText:
		if err := m.expectID(op.Target); err != nil {
			return err
		}
		m.doc.CreateText(op.Value)
		return nil
	}

	target, err := m.element(op.Target)
	if err != nil {
		return err
	}

	switch op.Code {
	case protocol.OpAppendChild:
		child, err := m.node(op.Child)
		if err != nil {
			return err
		}
		target.AppendChild(child)
	case protocol.OpPrependChild:
		child, err := m.node(op.Child)
		if err != nil {
			return err
		}
		target.PrependChild(child)
	case protocol.OpInsertBefore:
		child, err := m.node(op.Child)
		if err != nil {
			return err
		}
		var ref host.Node
		if op.Ref != 0 {
			if ref, err = m.childOf(target, op.Ref); err != nil {
				return err
			}
		}
		target.InsertBefore(child, ref)
	case protocol.OpInsertAfter:
		child, err := m.node(op.Child)
		if err != nil {
			return err
		}
		ref, err := m.childOf(target, op.Ref)
		if err != nil {
			return err
		}
		target.InsertAfter(child, ref)
	case protocol.OpRemoveChild:
		child, err := m.childOf(target, op.Child)
		if err != nil {
			return err
		}
		target.RemoveChild(child)
	case protocol.OpRemove:
		target.Remove()
	case protocol.OpSetAttribute:
		target.SetAttribute(op.Name, op.Value)
	case protocol.OpSetTextContent:
		if err := m.expectID(op.Child); err != nil {
			return err
		}
		target.SetTextContent(op.Value)
	case protocol.OpAppendText:
		t, err := m.text(op.Child)
		if err != nil {
			return err
		}
		target.AppendText(t)
	case protocol.OpReplaceText:
		nt, err := m.text(op.Child)
		if err != nil {
			return err
		}
		ot, err := m.childOf(target, op.Ref)
		if err != nil {
			return err
		}
		old, ok := ot.(host.Text)
		if !ok {
			return errs.New("E142").WithDetailf("node #%d is not a text node", op.Ref)
		}
		target.ReplaceText(nt, old)
	case protocol.OpClone:
		if err := m.expectID(op.Child); err != nil {
			return err
		}
		target.DeepClone()
	case protocol.OpListen:
		m.handler.Listen(target, op.UID, op.Name)
	case protocol.OpRelease:
		m.doc.Release(target)
	}
	return nil
}

// forward turns a listener firing on the mirror into an event frame.
func (m *Mirror) forward(uid uint64, name string, ev host.Event) error {
	if m.send == nil {
		return nil
	}
	var data map[string]any
	if me, ok := ev.(*memdom.Event); ok {
		data = me.Data
	}
	m.evSeq++
	return m.send(&protocol.Event{Seq: m.evSeq, UID: uid, Name: name, Data: data})
}

// expectID checks that the next node the mirror allocates gets id. Both
// ends allocate ids in the same order, so a mismatch means a lost or
// reordered frame.
func (m *Mirror) expectID(id uint64) error {
	if next := m.doc.NextID(); next != id {
		return errs.New("E142").WithDetailf("node #%d created out of order, expected #%d", id, next)
	}
	return nil
}

func (m *Mirror) node(id uint64) (host.Node, error) {
	n, ok := m.doc.Lookup(id)
	if !ok {
		return nil, errs.New("E142").WithDetailf("node #%d", id)
	}
	return n, nil
}

func (m *Mirror) element(id uint64) (*memdom.Element, error) {
	n, err := m.node(id)
	if err != nil {
		return nil, err
	}
	el, ok := n.(*memdom.Element)
	if !ok {
		return nil, errs.New("E142").WithDetailf("node #%d is not an element", id)
	}
	return el, nil
}

func (m *Mirror) text(id uint64) (host.Text, error) {
	n, err := m.node(id)
	if err != nil {
		return nil, err
	}
	t, ok := n.(host.Text)
	if !ok {
		return nil, errs.New("E142").WithDetailf("node #%d is not a text node", id)
	}
	return t, nil
}

// childOf resolves id and checks it is attached under parent. memdom
// panics on a foreign reference; a remote peer must not be able to cause
// that.
func (m *Mirror) childOf(parent *memdom.Element, id uint64) (host.Node, error) {
	n, err := m.node(id)
	if err != nil {
		return nil, err
	}
	if memdom.ParentOf(n) != parent {
		return nil, errs.New("E142").WithDetailf("node #%d is not a child of #%d", id, parent.ID())
	}
	return n, nil
}
