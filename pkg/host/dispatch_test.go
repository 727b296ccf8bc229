package host

import (
	"errors"
	"testing"
)

func TestDispatchSlot_NotInstalled(t *testing.T) {
	s := NewDispatchSlot()
	if s.Installed() {
		t.Fatal("new slot reports installed")
	}
	if err := s.Fire(1, "click", nil); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Fire() error = %v, want ErrNotInstalled", err)
	}
}

func TestDispatchSlot_Fire(t *testing.T) {
	s := NewDispatchSlot()
	var gotUID uint64
	var gotName string
	s.Install(func(uid uint64, name string, ev Event) error {
		gotUID, gotName = uid, name
		return nil
	})

	if err := s.Fire(7, "input", nil); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if gotUID != 7 || gotName != "input" {
		t.Errorf("got (%d, %q), want (7, \"input\")", gotUID, gotName)
	}
}

func TestDispatchSlot_Reentrant(t *testing.T) {
	s := NewDispatchSlot()
	var inner error
	s.Install(func(uid uint64, name string, ev Event) error {
		if uid == 1 {
			inner = s.Fire(2, name, ev)
		}
		return nil
	})

	if err := s.Fire(1, "click", nil); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if !errors.Is(inner, ErrReentrantDispatch) {
		t.Errorf("nested Fire() error = %v, want ErrReentrantDispatch", inner)
	}

	// The slot is usable again once the outer call returned.
	if err := s.Fire(2, "click", nil); err != nil {
		t.Errorf("Fire() after nested call error = %v", err)
	}
}

func TestDispatchSlot_PropagatesError(t *testing.T) {
	s := NewDispatchSlot()
	want := errors.New("aborted")
	s.Install(func(uint64, string, Event) error { return want })
	if err := s.Fire(0, "click", nil); !errors.Is(err, want) {
		t.Errorf("Fire() error = %v, want %v", err, want)
	}
}
