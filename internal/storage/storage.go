// Package storage persists users, shown texts and feedback in PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/numerobot/core/logger"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

var errEmptyBody = errors.New("empty feedback body")

func errInvalidKind(kind FeedbackKind) error {
	return fmt.Errorf("invalid feedback kind %q", kind)
}

// Store is the PostgreSQL backed repository.
type Store struct {
	db *sqlx.DB
}

// New wraps an open connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// User is a bot user. LastDailyNotification is the last day the number of
// the day was sent.
type User struct {
	TelegramID            int64      `db:"telegram_id"`
	Username              string     `db:"username"`
	Language              string     `db:"language"`
	BirthDate             *time.Time `db:"birth_date"`
	LifePath              *int       `db:"life_path"`
	NotificationsEnabled  bool       `db:"notifications_enabled"`
	LastDailyNotification *time.Time `db:"last_daily_notification"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

// HasBirthDate reports whether the user completed the life path flow.
func (u User) HasBirthDate() bool {
	return u.BirthDate != nil && u.LifePath != nil
}

func logQuery(ctx context.Context, op string, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.Warn(ctx, "store", "store.query", append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))...)
		return
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, "store", "store.query", append(attrs, slog.String("status", "ok"))...)
	}
}

// UpsertUser creates the user or refreshes its username and language.
func (s *Store) UpsertUser(ctx context.Context, u User) error {
	start := time.Now()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (telegram_id, username, language)
		VALUES (:telegram_id, :username, :language)
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username,
		    language = EXCLUDED.language,
		    updated_at = now()`, u)
	if err != nil {
		err = fmt.Errorf("upsert user %d: %w", u.TelegramID, err)
	}
	logQuery(ctx, "user.upsert", start, err)
	return err
}

// GetUserByTelegramID returns the user with the given Telegram id.
func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	start := time.Now()
	var u User
	err := s.db.GetContext(ctx, &u, `
		SELECT telegram_id, username, language, birth_date, life_path,
		       notifications_enabled, last_daily_notification, created_at, updated_at
		FROM users WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	} else if err != nil {
		err = fmt.Errorf("get user %d: %w", telegramID, err)
	}
	logQuery(ctx, "user.get", start, err)
	return u, err
}

// SetBirthDate stores the birth date and life path number of a user.
func (s *Store) SetBirthDate(ctx context.Context, telegramID int64, birthDate time.Time, lifePath int) error {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET birth_date = $2, life_path = $3, updated_at = now()
		WHERE telegram_id = $1`, telegramID, birthDate, lifePath)
	if err == nil {
		var n int64
		if n, err = res.RowsAffected(); err == nil && n == 0 {
			err = ErrNotFound
		}
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		err = fmt.Errorf("set birth date %d: %w", telegramID, err)
	}
	logQuery(ctx, "user.birth_date", start, err)
	return err
}

// SetNotifications turns the daily number on or off for a user.
func (s *Store) SetNotifications(ctx context.Context, telegramID int64, enabled bool) error {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET notifications_enabled = $2, updated_at = now()
		WHERE telegram_id = $1`, telegramID, enabled)
	if err == nil {
		var n int64
		if n, err = res.RowsAffected(); err == nil && n == 0 {
			err = ErrNotFound
		}
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		err = fmt.Errorf("set notifications %d: %w", telegramID, err)
	}
	logQuery(ctx, "user.notifications", start, err)
	return err
}

// DailyRecipients lists users with notifications on that have not received
// the number of the day yet.
func (s *Store) DailyRecipients(ctx context.Context, day time.Time) ([]int64, error) {
	start := time.Now()
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT telegram_id FROM users
		WHERE notifications_enabled
		  AND (last_daily_notification IS NULL OR last_daily_notification < $1::date)
		ORDER BY telegram_id`, day.Format(time.DateOnly))
	if err != nil {
		err = fmt.Errorf("daily recipients: %w", err)
	}
	logQuery(ctx, "user.daily_recipients", start, err)
	return ids, err
}

// MarkDailyNotificationSent records that the user got the number of the day.
func (s *Store) MarkDailyNotificationSent(ctx context.Context, telegramID int64, day time.Time) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_daily_notification = $2::date
		WHERE telegram_id = $1`, telegramID, day.Format(time.DateOnly))
	if err != nil {
		err = fmt.Errorf("mark daily notification %d: %w", telegramID, err)
	}
	logQuery(ctx, "user.daily_sent", start, err)
	return err
}

// TextHistory lists the texts already shown to a user, oldest first.
func (s *Store) TextHistory(ctx context.Context, telegramID int64) ([]string, error) {
	start := time.Now()
	var out []string
	err := s.db.SelectContext(ctx, &out, `
		SELECT text FROM text_history WHERE telegram_id = $1 ORDER BY shown_at, id`, telegramID)
	if err != nil {
		err = fmt.Errorf("text history %d: %w", telegramID, err)
	}
	logQuery(ctx, "history.list", start, err)
	return out, err
}

// AddTextHistory records that text was shown. Repeats are ignored.
func (s *Store) AddTextHistory(ctx context.Context, telegramID int64, text string) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO text_history (telegram_id, text) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, telegramID, text)
	if err != nil {
		err = fmt.Errorf("add text history %d: %w", telegramID, err)
	}
	logQuery(ctx, "history.add", start, err)
	return err
}

// ClearTextHistory forgets every text shown to a user.
func (s *Store) ClearTextHistory(ctx context.Context, telegramID int64) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `DELETE FROM text_history WHERE telegram_id = $1`, telegramID)
	if err != nil {
		err = fmt.Errorf("clear text history %d: %w", telegramID, err)
	}
	logQuery(ctx, "history.clear", start, err)
	return err
}

// FeedbackKind classifies a feedback message.
type FeedbackKind string

// Feedback kinds.
const (
	FeedbackReview     FeedbackKind = "review"
	FeedbackSuggestion FeedbackKind = "suggestion"
	FeedbackBug        FeedbackKind = "bug"
)

// ParseFeedbackKind validates a kind received from a button.
func ParseFeedbackKind(s string) (FeedbackKind, bool) {
	switch k := FeedbackKind(strings.ToLower(strings.TrimSpace(s))); k {
	case FeedbackReview, FeedbackSuggestion, FeedbackBug:
		return k, true
	}
	return "", false
}

// Feedback is one stored feedback message.
type Feedback struct {
	ID         uuid.UUID    `db:"id"`
	TelegramID int64        `db:"telegram_id"`
	Kind       FeedbackKind `db:"kind"`
	Body       string       `db:"body"`
	CreatedAt  time.Time    `db:"created_at"`
}

// AddFeedback stores a feedback message and returns it with its new id.
func (s *Store) AddFeedback(ctx context.Context, telegramID int64, kind FeedbackKind, body string) (Feedback, error) {
	if _, ok := ParseFeedbackKind(string(kind)); !ok {
		return Feedback{}, errInvalidKind(kind)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Feedback{}, errEmptyBody
	}
	start := time.Now()
	fb := Feedback{ID: uuid.New(), TelegramID: telegramID, Kind: kind, Body: body}
	err := s.db.GetContext(ctx, &fb.CreatedAt, `
		INSERT INTO feedback (id, telegram_id, kind, body) VALUES ($1, $2, $3, $4)
		RETURNING created_at`, fb.ID, fb.TelegramID, string(fb.Kind), fb.Body)
	if err != nil {
		err = fmt.Errorf("add feedback %d: %w", telegramID, err)
	}
	logQuery(ctx, "feedback.add", start, err)
	return fb, err
}

// RecentFeedback returns the newest feedback messages.
func (s *Store) RecentFeedback(ctx context.Context, limit int) ([]Feedback, error) {
	if limit <= 0 {
		limit = 10
	}
	start := time.Now()
	var out []Feedback
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, telegram_id, kind, body, created_at
		FROM feedback ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		err = fmt.Errorf("recent feedback: %w", err)
	}
	logQuery(ctx, "feedback.recent", start, err)
	return out, err
}

// Stats holds aggregate counters for the admin.
type Stats struct {
	Users         int `db:"users"`
	WithBirthDate int `db:"with_birth_date"`
	Feedback      int `db:"feedback"`
}

// Stats counts users and feedback.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	start := time.Now()
	var st Stats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			(SELECT count(*) FROM users) AS users,
			(SELECT count(*) FROM users WHERE birth_date IS NOT NULL) AS with_birth_date,
			(SELECT count(*) FROM feedback) AS feedback`)
	if err != nil {
		err = fmt.Errorf("stats: %w", err)
	}
	logQuery(ctx, "stats", start, err)
	return st, err
}
