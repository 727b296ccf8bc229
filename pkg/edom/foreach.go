package edom

import (
	"iter"
	"slices"

	"github.com/edom-dev/edom/pkg/host"
	"github.com/edom-dev/edom/pkg/vdom"
)

// ForEach renders one tag element per item. Items are matched to the
// elements of the previous pass by key; keys must be unique within one call.
// fn describes the content of one item's element.
func ForEach[T any, K comparable](c *Cursor, items []T, key func(*T) K, tag string, fn func(*T, *Cursor)) {
	c.check()
	c.closeLast()
	if c.eng.create {
		createList(c, items, key, tag, fn)
	} else {
		updateList(c, items, key, tag, fn)
	}
}

// ForEachSeq is ForEach over a sequence.
func ForEachSeq[T any, K comparable](c *Cursor, seq iter.Seq[T], key func(*T) K, tag string, fn func(*T, *Cursor)) {
	ForEach(c, slices.Collect(seq), key, tag, fn)
}

func createList[T any, K comparable](c *Cursor, items []T, key func(*T) K, tag string, fn func(*T, *Cursor)) {
	node := vdom.NewForEach()
	c.el.Children = append(c.el.Children, node)
	c.childPos++

	parent := c.HostElement()
	seen := make(map[uint64]struct{}, len(items))
	var prev *vdom.Element
	for i := range items {
		k := vdom.HashKey(key(&items[i]))
		if _, dup := seen[k]; dup {
			vdom.Violate("E102", c.el, "key %v repeated at index %d", key(&items[i]), i)
		}
		seen[k] = struct{}{}

		el := newItem(c, &items[i], prev, tag, c.nextHostPos, fn)
		parent.AppendChild(el.Host.MustGet())
		node.List = append(node.List, vdom.Keyed{Key: k, Elem: el})
		prev = el
		c.nextHostPos++
	}
}

// updateList reconciles the region in place. v is the live list: v[:i] is
// final, and for every key in v[i:] position[key]+relpos is its index in v.
// Slots whose host node may be out of order are flagged in wrong and
// re-attached when reached. Attachment always goes right after the host
// node of v[i-1], or before the first host node of the region when i is 0.
func updateList[T any, K comparable](c *Cursor, items []T, key func(*T) K, tag string, fn func(*T, *Cursor)) {
	node := c.next(vdom.KindForEach)
	parent := c.HostElement()
	e := c.eng
	regionStart := c.nextHostPos

	v := node.List
	position := make(map[uint64]int, len(v))
	for i, k := range v {
		position[k.Key] = i
	}
	wrong := make(map[uint64]bool)
	seen := make(map[uint64]struct{}, len(items))
	relpos := 0

	attach := func(i int, h host.Element) {
		if i == 0 {
			ref := parent.ChildNode(regionStart)
			if ref == host.Node(h) {
				return
			}
			parent.InsertBefore(h, ref)
		} else {
			parent.InsertAfter(h, v[i-1].Elem.Host.MustGet())
		}
		e.stats.Attached++
	}

	i := 0
	for ; i < len(items); i++ {
		item := &items[i]
		k := vdom.HashKey(key(item))
		if _, dup := seen[k]; dup {
			vdom.Violate("E102", c.el, "key %v repeated at index %d", key(item), i)
		}
		seen[k] = struct{}{}

		pos, ok := position[k]
		if !ok {
			var prev *vdom.Element
			if i > 0 {
				prev = v[i-1].Elem
			}
			el := newItem(c, item, prev, tag, regionStart+i, fn)
			v = slices.Insert(v, i, vdom.Keyed{Key: k, Elem: el})
			relpos++
			attach(i, el.Host.MustGet())
			continue
		}

		abspos := pos + relpos
		if abspos < i {
			vdom.Violate("E102", c.el, "key %v already placed (slot %d, index %d)", key(item), abspos, i)
		}
		if abspos == i+1 {
			moved := v[i].Key
			wrong[moved] = true
			rotateLeft(v[i:])
			relpos--
			position[moved] = len(v) - 1 - relpos
		} else if abspos != i {
			wrong[k] = true
			wrong[v[i].Key] = true
			v[i], v[abspos] = v[abspos], v[i]
			position[v[i].Key] = i - relpos
			position[v[abspos].Key] = abspos - relpos
		}

		slot := v[i].Elem
		if slot.Name != tag {
			vdom.Violate("E105", slot, "list item is <%s>, expected <%s>", slot.Name, tag)
		}
		if wrong[k] {
			delete(wrong, k)
			attach(i, slot.Host.MustGet())
		}

		ic := c.child(slot, regionStart+i)
		fn(item, ic)
		ic.finish()
	}

	for j := len(v) - 1; j >= i; j-- {
		parent.RemoveChild(v[j].Elem.Host.MustGet())
		e.release(v[j].Elem)
		v[j] = vdom.Keyed{}
	}
	node.List = v[:i]
	c.nextHostPos = regionStart + i
}

func rotateLeft(s []vdom.Keyed) {
	if len(s) < 2 {
		return
	}
	first := s[0]
	copy(s, s[1:])
	s[len(s)-1] = first
}

// release hands a dropped item's host nodes back to a document that indexes
// them. Hidden conditionals hold nodes outside the item's host subtree, so
// the virtual tree is walked for those.
func (e *Engine) release(el *vdom.Element) {
	r, ok := e.doc.(host.Releaser)
	if !ok {
		return
	}
	if h, ok := el.Host.Get(); ok {
		r.Release(h)
	}
	releaseHidden(r, el)
}

func releaseHidden(r host.Releaser, el *vdom.Element) {
	for _, n := range el.Children {
		switch n.Kind {
		case vdom.KindElement:
			releaseHidden(r, n.Elem)
		case vdom.KindForEach:
			for _, k := range n.List {
				releaseHidden(r, k.Elem)
			}
		case vdom.KindConditional:
			if n.State == vdom.Hidden {
				if h, ok := n.Elem.Host.Get(); ok {
					r.Release(h)
				}
			}
			if n.State != vdom.NotRendered {
				releaseHidden(r, n.Elem)
			}
		}
	}
}
