package storage

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps users and feedback in process memory. It backs the bot when
// no database is configured and is lost on restart.
type Memory struct {
	mu       sync.RWMutex
	users    map[int64]User
	feedback []Feedback
	now      func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{users: make(map[int64]User), now: time.Now}
}

// UpsertUser creates the user or refreshes its username and language.
func (m *Memory) UpsertUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	cur, ok := m.users[u.TelegramID]
	if !ok {
		cur = User{TelegramID: u.TelegramID, CreatedAt: now}
	}
	cur.Username = u.Username
	cur.Language = u.Language
	cur.UpdatedAt = now
	m.users[u.TelegramID] = cur
	return nil
}

// GetUserByTelegramID returns a copy of the stored user.
func (m *Memory) GetUserByTelegramID(_ context.Context, telegramID int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[telegramID]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// SetBirthDate stores the birth date and life path number of a user.
func (m *Memory) SetBirthDate(_ context.Context, telegramID int64, birthDate time.Time, lifePath int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok {
		return ErrNotFound
	}
	u.BirthDate = &birthDate
	u.LifePath = &lifePath
	u.UpdatedAt = m.now()
	m.users[telegramID] = u
	return nil
}

// AddFeedback stores a feedback message.
func (m *Memory) AddFeedback(_ context.Context, telegramID int64, kind FeedbackKind, body string) (Feedback, error) {
	if _, ok := ParseFeedbackKind(string(kind)); !ok {
		return Feedback{}, errInvalidKind(kind)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Feedback{}, errEmptyBody
	}
	fb := Feedback{ID: uuid.New(), TelegramID: telegramID, Kind: kind, Body: body, CreatedAt: m.now()}
	m.mu.Lock()
	m.feedback = append(m.feedback, fb)
	m.mu.Unlock()
	return fb, nil
}

// Stats counts users and feedback.
func (m *Memory) Stats(context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{Users: len(m.users), Feedback: len(m.feedback)}
	for _, u := range m.users {
		if u.BirthDate != nil {
			st.WithBirthDate++
		}
	}
	return st, nil
}

// RecentFeedback returns up to limit feedback messages, newest first.
func (m *Memory) RecentFeedback(_ context.Context, limit int) ([]Feedback, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Feedback, 0, min(limit, len(m.feedback)))
	for i := len(m.feedback) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.feedback[i])
	}
	return out, nil
}

// SetNotifications turns the daily number on or off for a user.
func (m *Memory) SetNotifications(_ context.Context, telegramID int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok {
		return ErrNotFound
	}
	u.NotificationsEnabled = enabled
	u.UpdatedAt = m.now()
	m.users[telegramID] = u
	return nil
}

// DailyRecipients lists users with notifications on that have not received
// the number of the day yet, ordered by id.
func (m *Memory) DailyRecipients(_ context.Context, day time.Time) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int64
	for id, u := range m.users {
		if u.NotificationsEnabled && (u.LastDailyNotification == nil || u.LastDailyNotification.Before(dayStart(day))) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// MarkDailyNotificationSent records that the user got the number of the day.
func (m *Memory) MarkDailyNotificationSent(_ context.Context, telegramID int64, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok {
		return nil
	}
	d := dayStart(day)
	u.LastDailyNotification = &d
	m.users[telegramID] = u
	return nil
}

// dayStart drops the clock of t, keeping its calendar day.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
