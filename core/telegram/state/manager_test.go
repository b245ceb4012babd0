package state

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	store map[string]any
	user  *tele.User
}

func (f *fakeContext) Get(key string) any { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }
func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }
func (f *fakeContext) Sender() *tele.User { return f.user }
func (f *fakeContext) Chat() *tele.Chat { return &tele.Chat{ID: f.user.ID} }

func newContext(userID int64) *fakeContext {
	return &fakeContext{store: map[string]any{}, user: &tele.User{ID: userID}}
}

func TestManagerStateAndTemp(t *testing.T) {
	m := NewManager(time.Minute)
	if m.InProgress(1) {
		t.Fatal("fresh user must be idle")
	}
	m.SetState(1, "awaiting_birth_date")
	m.SetTemp(1, "first_date", "01.02.1990")

	if got := m.GetState(1); got != "awaiting_birth_date" {
		t.Fatalf("state = %q", got)
	}
	if v, ok := m.GetTempString(1, "first_date"); !ok || v != "01.02.1990" {
		t.Fatalf("temp = %q, %v", v, ok)
	}
	if _, ok := m.GetTempString(2, "first_date"); ok {
		t.Fatal("sessions must be per user")
	}

	m.Clear(1)
	if m.InProgress(1) || m.GetState(1) != StateIdle {
		t.Fatal("Clear must reset the session")
	}
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	m := NewManager(30 * time.Millisecond)
	m.SetState(1, "awaiting_feedback")
	time.Sleep(60 * time.Millisecond)
	if m.InProgress(1) {
		t.Fatal("session should expire after ttl")
	}
}

func TestManagerHandleDispatchesByState(t *testing.T) {
	m := NewManager(time.Minute)
	var called State
	m.Register("a", func(tele.Context) error { called = "a"; return nil })
	m.Register("b", func(tele.Context) error { called = "b"; return nil })

	m.SetState(5, "b")
	if err := m.Handle(newContext(5)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if called != "b" {
		t.Fatalf("called = %q, want b", called)
	}
}

func TestManagerHandleClearsOrphanState(t *testing.T) {
	m := NewManager(time.Minute)
	m.SetState(5, "unknown")
	if err := m.Handle(newContext(5)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if m.InProgress(5) {
		t.Fatal("orphan state must be cleared")
	}
}
