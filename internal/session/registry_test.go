package session

import "testing"

type fakeTransport struct {
	id     string
	events []string
}

func (f *fakeTransport) ID() string { return f.id }
func (f *fakeTransport) Emit(event string, _ any) error {
	f.events = append(f.events, event)
	return nil
}

func TestRegisterLookup(t *testing.T) {
	reg := NewRegistry()
	tr := &fakeTransport{id: "conn-1"}
	reg.Register("user-1", Info{Name: "Amina", Role: "teacher"}, tr)

	s, ok := reg.Lookup("user-1")
	if !ok {
		t.Fatalf("expected session")
	}
	if s.Name != "Amina" || s.Role != "teacher" || s.Transport.ID() != "conn-1" {
		t.Fatalf("unexpected session fields")
	}

	if _, ok := reg.Lookup("user-404"); ok {
		t.Fatalf("expected miss for unknown user")
	}
}

func TestLastConnectWins(t *testing.T) {
	reg := NewRegistry()
	first := &fakeTransport{id: "conn-1"}
	second := &fakeTransport{id: "conn-2"}

	reg.Register("user-1", Info{}, first)
	reg.Register("user-1", Info{}, second)

	if reg.Len() != 1 {
		t.Fatalf("expected single session, got %d", reg.Len())
	}
	s, _ := reg.Lookup("user-1")
	if s.Transport.ID() != "conn-2" {
		t.Fatalf("expected newest transport to win")
	}

	// the replaced transport must not evict the newer session
	if _, ok := reg.UnregisterTransport("conn-1"); ok {
		t.Fatalf("stale transport should not return a session")
	}
	if _, ok := reg.Lookup("user-1"); !ok {
		t.Fatalf("newer session must survive stale disconnect")
	}
}

func TestUnregisterTransport(t *testing.T) {
	reg := NewRegistry()
	tr := &fakeTransport{id: "conn-1"}
	reg.Register("user-1", Info{}, tr)

	s, ok := reg.UnregisterTransport("conn-1")
	if !ok || s.UserID != "user-1" {
		t.Fatalf("expected removed session")
	}
	if _, ok := reg.Lookup("user-1"); ok {
		t.Fatalf("expected session gone after disconnect")
	}
	if _, ok := reg.UnregisterTransport("conn-1"); ok {
		t.Fatalf("second unregister should be a no-op")
	}
}
