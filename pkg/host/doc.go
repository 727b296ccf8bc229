// Package host defines the capability set a retained-UI backend implements
// so the edom engine can drive it.
//
// The engine never inspects host nodes beyond these interfaces. A backend may
// be a browser DOM binding, the in-memory tree in package memdom, the remote
// mirror in package remote, or the no-op backend in package noop.
//
// # Events
//
// The engine owns one DispatchSlot. Backends receive it through
// Backend.NewEventHandler and report fired listeners by calling
// DispatchSlot.Fire with the uid the listener was registered for:
//
//	func (h *handler) Listen(el host.Element, uid uint64, name string) {
//	    el.SetAttribute("data-uid", strconv.FormatUint(uid, 10))
//	    addListener(el, name, func(ev host.Event) {
//	        h.slot.Fire(uid, name, ev)
//	    })
//	}
package host
