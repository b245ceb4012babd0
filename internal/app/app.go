// Package app wires the numerology bot: configuration, storage, texts, menu
// and the Telegram handlers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/numerobot/core/bootstrap"
	"github.com/m3rciful/numerobot/core/cmd"
	"github.com/m3rciful/numerobot/core/logger"
	tg "github.com/m3rciful/numerobot/core/telegram"
	"github.com/m3rciful/numerobot/core/telegram/router"
	tgsender "github.com/m3rciful/numerobot/core/telegram/sender"
	"github.com/m3rciful/numerobot/core/telegram/state"
	"github.com/m3rciful/numerobot/internal/menu"
	"github.com/m3rciful/numerobot/internal/messages"
	"github.com/m3rciful/numerobot/internal/notify"
	"github.com/m3rciful/numerobot/internal/storage"
	"github.com/m3rciful/numerobot/internal/texts"
)

// Store is the persistence the handlers need.
type Store interface {
	UpsertUser(ctx context.Context, u storage.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (storage.User, error)
	SetBirthDate(ctx context.Context, telegramID int64, birthDate time.Time, lifePath int) error
	AddFeedback(ctx context.Context, telegramID int64, kind storage.FeedbackKind, body string) (storage.Feedback, error)
	RecentFeedback(ctx context.Context, limit int) ([]storage.Feedback, error)
	Stats(ctx context.Context) (storage.Stats, error)
	SetNotifications(ctx context.Context, telegramID int64, enabled bool) error
	DailyRecipients(ctx context.Context, day time.Time) ([]int64, error)
	MarkDailyNotificationSent(ctx context.Context, telegramID int64, day time.Time) error
}

// sender delivers messages outside of an update, such as the daily number.
type sender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// Deps are the collaborators of App. Nil fields get in-memory defaults.
type Deps struct {
	DB       *sqlx.DB
	Store    Store
	History  texts.History
	Texts    texts.Source
	Catalog  *messages.Catalog
	Sessions *state.Manager
}

// App is the bot application.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	store    Store
	sessions *state.Manager
	catalog  *messages.Catalog
	msgs     *messages.Localizer
	texts    texts.Source
	picker   *texts.Picker
	nav      *menu.Navigator
	registry *tg.Registry
	daily    *notify.Scheduler
	bot      sender
	now      func() time.Time
}

// New builds the application and registers its commands and callbacks.
func New(cfg *Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	a := &App{cfg: cfg, db: deps.DB, store: deps.Store, sessions: deps.Sessions, catalog: deps.Catalog, texts: deps.Texts, now: time.Now}

	if a.catalog == nil {
		catalog, err := messages.New(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("app: load messages: %w", err)
		}
		a.catalog = catalog
	}
	a.msgs = a.catalog.For(cfg.Locale)

	if a.sessions == nil {
		a.sessions = state.NewManager(cfg.Session.TTL)
	}
	if a.store == nil {
		a.store = storage.NewMemory()
	}
	history := deps.History
	if history == nil {
		history = texts.NewMemoryHistory(0)
	}
	if a.texts == nil {
		a.texts = texts.NewFileLoader(cfg.Texts.Path)
	}
	a.picker = texts.NewPicker(a.texts, history)
	a.nav = menu.NewNavigator(a.sessions, a.msgs)

	hour, minute, err := cfg.Notifications.Clock()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	loc, err := cfg.Notifications.Location()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.daily = notify.New(a.store, a.picker, a.msgs, a.sendDaily, notify.Options{
		Hour:     hour,
		Minute:   minute,
		Interval: cfg.Notifications.Interval,
		Location: loc,
		Now:      func() time.Time { return a.now() },
	})

	a.registry = tg.NewRegistry()
	if err := a.register(); err != nil {
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}
	return a, nil
}

// Bootstrap initializes logging and the database and builds the App.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:       cfg.CoreConfig(),
		Database:     cfg.Database,
		SkipDatabase: !cfg.DatabaseEnabled(),
	})
	if err != nil {
		return nil, err
	}

	deps := Deps{DB: res.DB}
	if res.Persistent() {
		st := storage.New(res.DB)
		deps.Store = st
		deps.History = st
	} else {
		logger.Warn(logger.Background(), "app", "storage.memory",
			slog.String("cause", "database.host is empty"),
		)
	}
	return New(cfg, deps)
}

// Registry exposes the command and callback registry.
func (a *App) Registry() *tg.Registry {
	return a.registry
}

// TelegramRunOptions describes how the runtime should serve this App.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	cmdOpts := router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: a.adminReject,
	}

	routes := router.CommandRoutes(a.registry, cmdOpts)
	routes = append(routes, router.TextRoutes(a.sessions, a.registry, router.TextOptions{
		Commands:    cmdOpts,
		UnknownText: a.unknownText,
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:            core,
		Registry:          a.registry,
		DispatcherOptions: tgsender.Options{},
		Middlewares:       tg.DefaultMiddlewares(core, a.rateLimited),
		Routes:            routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			// Warm the text cache so the first user does not pay for the read.
			res := a.texts.Get(ctx)
			logger.Info(ctx, "app", "texts.ready", slog.Int("count", res.Len()))
			if rt.Bot == nil {
				logger.Warn(ctx, "app", "daily.start", slog.String("status", "skip"), slog.String("cause", "no bot"))
				return nil
			}
			a.bot = rt.Bot
			a.daily.Start(ctx)
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			a.daily.Stop()
			if a.db == nil {
				return nil
			}
			if err := a.db.Close(); err != nil {
				return fmt.Errorf("app: close database: %w", err)
			}
			return nil
		},
	}, nil
}

// sendDaily messages the private chat of userID directly, so a failed send
// is reported back and retried on the next check.
func (a *App) sendDaily(_ context.Context, userID int64, text string) error {
	if a.bot == nil {
		return errors.New("app: bot is not running")
	}
	_, err := a.bot.Send(tele.ChatID(userID), text)
	return err
}

func (a *App) rateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: a.msgs.Text(messages.RateLimited)})
	}
	return nil
}
