package host

import (
	"errors"
	"sync"
)

// DispatchFunc reports a fired event for the element with the given uid.
type DispatchFunc func(uid uint64, name string, ev Event) error

// Dispatch errors.
var (
	ErrNotInstalled      = errors.New("host: dispatch function not installed")
	ErrReentrantDispatch = errors.New("host: dispatch invoked while already dispatching")
)

// DispatchSlot is the shared entry point backends call when a registered
// listener fires. It holds one DispatchFunc, installed by the engine after
// its first render pass.
type DispatchSlot struct {
	mu     sync.Mutex
	fn     DispatchFunc
	firing bool
}

// NewDispatchSlot returns an empty slot.
func NewDispatchSlot() *DispatchSlot {
	return &DispatchSlot{}
}

// Install replaces the slot's function.
func (s *DispatchSlot) Install(fn DispatchFunc) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

// Installed reports whether a function has been installed.
func (s *DispatchSlot) Installed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn != nil
}

// Fire invokes the installed function. A call made while another Fire is
// running returns ErrReentrantDispatch.
func (s *DispatchSlot) Fire(uid uint64, name string, ev Event) error {
	s.mu.Lock()
	if s.fn == nil {
		s.mu.Unlock()
		return ErrNotInstalled
	}
	if s.firing {
		s.mu.Unlock()
		return ErrReentrantDispatch
	}
	s.firing = true
	fn := s.fn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.firing = false
		s.mu.Unlock()
	}()
	return fn(uid, name, ev)
}
