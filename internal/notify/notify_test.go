package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/m3rciful/numerobot/internal/messages"
	"github.com/m3rciful/numerobot/internal/storage"
)

type fixedPicker struct{ texts map[int]string }

func (p fixedPicker) Pick(_ context.Context, _ int64, number int, topic string) (string, bool) {
	if topic != TopicDaily {
		return "", false
	}
	text, ok := p.texts[number]
	return text, ok
}

type outbox struct {
	mu   sync.Mutex
	sent map[int64][]string
	fail map[int64]error
	ch   chan int64
}

func newOutbox() *outbox {
	return &outbox{sent: map[int64][]string{}, fail: map[int64]error{}, ch: make(chan int64, 16)}
}

func (o *outbox) send(_ context.Context, userID int64, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.fail[userID]; err != nil {
		return err
	}
	o.sent[userID] = append(o.sent[userID], text)
	select {
	case o.ch <- userID:
	default:
	}
	return nil
}

func (o *outbox) count(userID int64) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent[userID])
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func fixture(t *testing.T, subscribed ...int64) (*storage.Memory, *outbox, *clock, *Scheduler) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemory()
	for _, id := range []int64{1, 2, 3} {
		if err := store.UpsertUser(ctx, storage.User{TelegramID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range subscribed {
		if err := store.SetNotifications(ctx, id, true); err != nil {
			t.Fatal(err)
		}
	}
	catalog, err := messages.New("en")
	if err != nil {
		t.Fatal(err)
	}
	out := newOutbox()
	clk := &clock{now: time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)}
	s := New(store, fixedPicker{texts: map[int]string{1: "start something new"}}, catalog.For("en"), out.send, Options{
		Hour:     9,
		Location: time.UTC,
		Now:      clk.Now,
	})
	return store, out, clk, s
}

func TestTickSendsOncePerDay(t *testing.T) {
	_, out, clk, s := fixture(t, 1)
	ctx := context.Background()

	// 17.10.2026 reduces to 1.
	if n, err := s.Tick(ctx); err != nil || n != 1 {
		t.Fatalf("first tick = %d, %v", n, err)
	}
	msg := out.sent[1][0]
	for _, want := range []string{"Number of the day: 1", "start something new"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q misses %q", msg, want)
		}
	}

	clk.now = clk.now.Add(5 * time.Hour)
	if n, _ := s.Tick(ctx); n != 0 {
		t.Fatalf("second tick the same day sent %d", n)
	}

	// 18.10.2026 reduces to 2, which has no daily text.
	clk.now = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	if n, err := s.Tick(ctx); err != nil || n != 1 {
		t.Fatalf("next day tick = %d, %v", n, err)
	}
	msg = out.sent[1][1]
	if !strings.Contains(msg, "Number of the day: 2") || !strings.Contains(msg, "Trust your intuition") {
		t.Fatalf("fallback message = %q", msg)
	}
}

func TestTickWaitsForConfiguredTime(t *testing.T) {
	_, out, clk, s := fixture(t, 1)
	clk.now = time.Date(2026, 10, 17, 8, 59, 0, 0, time.UTC)
	if n, _ := s.Tick(context.Background()); n != 0 || out.count(1) != 0 {
		t.Fatalf("sent %d before 09:00", n)
	}
}

func TestTickSkipsDisabledUsers(t *testing.T) {
	store, out, _, s := fixture(t, 1, 3)
	ctx := context.Background()
	if err := store.SetNotifications(ctx, 3, false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	got := []int{out.count(1), out.count(2), out.count(3)}
	if diff := cmp.Diff([]int{1, 0, 0}, got); diff != "" {
		t.Fatalf("messages per user mismatch (-want +got):\n%s", diff)
	}
}

func TestTickRetriesFailedSends(t *testing.T) {
	_, out, _, s := fixture(t, 1, 2)
	ctx := context.Background()
	boom := errors.New("blocked by user")
	out.fail[2] = boom

	n, err := s.Tick(ctx)
	if n != 1 || !errors.Is(err, boom) {
		t.Fatalf("tick = %d, %v", n, err)
	}
	delete(out.fail, 2)
	if n, err := s.Tick(ctx); err != nil || n != 1 || out.count(2) != 1 {
		t.Fatalf("retry tick = %d, %v", n, err)
	}
}

func TestTickInLocation(t *testing.T) {
	_, out, clk, s := fixture(t, 1)
	s.opts.Location = time.FixedZone("UTC+3", 3*60*60)
	// 07:00 UTC is 10:00 in UTC+3.
	clk.now = time.Date(2026, 10, 17, 7, 0, 0, 0, time.UTC)
	if n, _ := s.Tick(context.Background()); n != 1 || out.count(1) != 1 {
		t.Fatalf("tick in UTC+3 sent %d", n)
	}
}

func TestStartStop(t *testing.T) {
	_, out, _, s := fixture(t, 1)
	s.opts.Interval = 10 * time.Millisecond
	s.Start(context.Background())
	s.Start(context.Background())

	select {
	case id := <-out.ch:
		if id != 1 {
			t.Fatalf("sent to %d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not send")
	}
	s.Stop()
	s.Stop()
	if got := out.count(1); got != 1 {
		t.Fatalf("messages = %d, want exactly one per day", got)
	}
}
