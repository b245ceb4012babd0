// Package notify sends the number of the day to users who subscribed to it.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/numerobot/core/logger"
	"github.com/m3rciful/numerobot/internal/messages"
	"github.com/m3rciful/numerobot/internal/numerology"
)

const component = "notify"

// TopicDaily is the text resource context of daily messages.
const TopicDaily = "daily"

// Store tracks who wants the daily message and who already got it.
type Store interface {
	DailyRecipients(ctx context.Context, day time.Time) ([]int64, error)
	MarkDailyNotificationSent(ctx context.Context, telegramID int64, day time.Time) error
}

// Picker chooses a text for a number.
type Picker interface {
	Pick(ctx context.Context, userID int64, number int, topic string) (string, bool)
}

// Messages renders catalog messages.
type Messages interface {
	Text(id string) string
	Format(id string, data map[string]any) string
}

// SendFunc delivers text to the private chat of userID.
type SendFunc func(ctx context.Context, userID int64, text string) error

// Options configure a Scheduler. Hour and Minute give the local time from
// which the day's message is due. Interval between checks defaults to one
// minute and Location to time.Local.
type Options struct {
	Hour     int
	Minute   int
	Interval time.Duration
	Location *time.Location
	Now      func() time.Time
}

// Scheduler periodically sends the number of the day. Each user gets at
// most one message per calendar day.
type Scheduler struct {
	store  Store
	picker Picker
	msgs   Messages
	send   SendFunc
	opts   Options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped Scheduler.
func New(store Store, picker Picker, msgs Messages, send SendFunc, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{store: store, picker: picker, msgs: msgs, send: send, opts: opts}
}

// Start runs the check loop until ctx is done or Stop is called. Starting a
// running Scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	logger.Info(ctx, component, "daily.start",
		slog.String("at", fmt.Sprintf("%02d:%02d", s.opts.Hour, s.opts.Minute)),
		slog.String("tz", s.opts.Location.String()),
		slog.Duration("interval", s.opts.Interval),
	)
}

// Stop ends the loop and waits for an in-flight check to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Warn(ctx, component, "daily.tick", slog.String("status", "fail"), slog.String("err", err.Error()))
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// due reports whether the day's message may go out at now, and which
// calendar day now belongs to.
func (s *Scheduler) due(now time.Time) (time.Time, bool) {
	now = now.In(s.opts.Location)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.opts.Location)
	at := day.Add(time.Duration(s.opts.Hour)*time.Hour + time.Duration(s.opts.Minute)*time.Minute)
	return day, !now.Before(at)
}

// Tick sends the number of the day to every subscriber that has not got it
// today and returns how many messages went out. Before the configured time
// it does nothing. Users whose message failed stay due for the next tick.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	day, ok := s.due(s.opts.Now())
	if !ok {
		return 0, nil
	}
	users, err := s.store.DailyRecipients(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("notify: recipients: %w", err)
	}
	if len(users) == 0 {
		return 0, nil
	}

	number := numerology.Daily(numerology.FromTime(day))
	var (
		sent int
		errs []error
	)
	for _, id := range users {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := s.notify(ctx, id, number, day); err != nil {
			logger.Warn(ctx, component, "daily.send",
				slog.String("status", "fail"),
				slog.Int64("user_id", id),
				slog.String("err", err.Error()),
			)
			errs = append(errs, err)
			continue
		}
		sent++
	}
	logger.Info(ctx, component, "daily.sent",
		slog.Int("number", number),
		slog.Int("count", sent),
		slog.Int("failed", len(errs)),
	)
	return sent, errors.Join(errs...)
}

func (s *Scheduler) notify(ctx context.Context, userID int64, number int, day time.Time) error {
	text, ok := s.picker.Pick(ctx, userID, number, TopicDaily)
	if !ok {
		text = s.msgs.Text(messages.DailyFallback)
	}
	msg := s.msgs.Format(messages.DailyNotification, map[string]any{
		"Number": number,
		"Text":   text,
	})
	if err := s.send(ctx, userID, msg); err != nil {
		return fmt.Errorf("send to %d: %w", userID, err)
	}
	if err := s.store.MarkDailyNotificationSent(ctx, userID, day); err != nil {
		return fmt.Errorf("mark %d: %w", userID, err)
	}
	return nil
}
