package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/numerobot/core/logger"
	"github.com/m3rciful/numerobot/core/telegram/callbacks"
	"github.com/m3rciful/numerobot/core/telegram/format"
	tghelpers "github.com/m3rciful/numerobot/core/telegram/helpers"
	"github.com/m3rciful/numerobot/core/telegram/keyboard"
	"github.com/m3rciful/numerobot/core/telegram/state"
	"github.com/m3rciful/numerobot/internal/menu"
	"github.com/m3rciful/numerobot/internal/messages"
	"github.com/m3rciful/numerobot/internal/numerology"
	"github.com/m3rciful/numerobot/internal/storage"
)

// Conversation states.
const (
	StateAwaitingBirthDate state.State = "awaiting_birth_date"
	StateCompatFirst       state.State = "compat_first_date"
	StateCompatSecond      state.State = "compat_second_date"
	StateAwaitingFeedback  state.State = "awaiting_feedback"
)

// Callback keys handled outside the menu navigator. KeyNotifications carries
// "on" or "off".
const (
	KeyCancel        = "cancel"
	KeyCalcLifePath  = "calc_life_path"
	KeyFeedbackKind  = "feedback_kind"
	KeyNotifications = "notifications"
)

const (
	textContextLifePath = "life_path"
	tempCompatFirst     = "compat_first"
	tempFeedbackKind    = "feedback_kind"
	maxFeedbackRunes    = 2000
	recentFeedbackLimit = 5
)

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

func (a *App) text(id string) string {
	return a.msgs.Text(id)
}

func (a *App) cancelMarkup() *tele.ReplyMarkup {
	return keyboard.SingleCancelMarkup(a.text(messages.BtnCancel), KeyCancel)
}

func (a *App) inlineButton(labelID, action string) *tele.ReplyMarkup {
	return markup(menu.Keyboard{Rows: [][]menu.Button{{{Label: a.text(labelID), Action: action}}}})
}

// fail tells the user something went wrong and returns err for the router.
func (a *App) fail(c tele.Context, err error) error {
	_ = tghelpers.SendText(c, a.text(messages.ErrorGeneric))
	return err
}

func (a *App) rememberUser(ctx context.Context, c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	return a.store.UpsertUser(ctx, storage.User{
		TelegramID: u.ID,
		Username:   u.Username,
		Language:   u.LanguageCode,
	})
}

func (a *App) start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if err := a.rememberUser(ctx, c); err != nil {
		logger.Warn(ctx, "app", "user.upsert", slog.String("status", "fail"), slog.String("err", err.Error()))
	}
	a.sessions.Clear(senderID(c))
	return tghelpers.SendText(c, a.text(messages.Welcome), markup(menu.MainKeyboard(a.msgs)))
}

func (a *App) help(c tele.Context) error {
	return tghelpers.SendText(c, a.text(messages.Help))
}

// navigate returns a handler showing the screen reached by ev.
func (a *App) navigate(ev menu.Event) tele.HandlerFunc {
	return func(c tele.Context) error {
		return show(c, a.nav.Navigate(tghelpers.BuildContext(c), senderID(c), ev))
	}
}

func (a *App) cancel(c tele.Context) error {
	s := a.nav.Navigate(tghelpers.BuildContext(c), senderID(c), menu.EventMain)
	s.Header = a.text(messages.Cancelled)
	return show(c, s)
}

func (a *App) unknownText(c tele.Context) error {
	return tghelpers.SendText(c, a.text(messages.UnknownCommand))
}

func (a *App) unknownCallback(c tele.Context) error {
	logger.Info(tghelpers.BuildContext(c), "app", "callback.unknown",
		slog.String("status", "skip"),
		slog.String("cb_key", callbacks.CallbackKey(c)),
	)
	return c.Respond(&tele.CallbackResponse{Text: a.text(messages.UnknownCallback)})
}

func (a *App) adminReject(c tele.Context) error {
	return tghelpers.SendText(c, a.text(messages.AdminOnly))
}

// Life path.

func (a *App) lifePathStart(c tele.Context) error {
	uid := senderID(c)
	a.sessions.Clear(uid)
	a.sessions.SetState(uid, StateAwaitingBirthDate)
	return tghelpers.SendText(c, a.text(messages.LifePathPrompt), a.cancelMarkup())
}

func (a *App) lifePathInput(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	uid := senderID(c)
	date, err := numerology.ParseDate(c.Text())
	if err != nil {
		a.sessions.SetState(uid, StateAwaitingBirthDate)
		return tghelpers.SendText(c, a.text(messages.DateInvalid), a.cancelMarkup())
	}
	number := numerology.LifePath(date)

	if err := a.rememberUser(ctx, c); err != nil {
		a.sessions.Clear(uid)
		return a.fail(c, fmt.Errorf("life path: %w", err))
	}
	if err := a.store.SetBirthDate(ctx, uid, date.Time(), number); err != nil {
		a.sessions.Clear(uid)
		return a.fail(c, fmt.Errorf("life path: %w", err))
	}
	a.sessions.Clear(uid)

	body, ok := a.picker.Pick(ctx, uid, number, textContextLifePath)
	if !ok {
		body = a.text(messages.TextUnavailable)
	}
	logger.Info(ctx, "app", "life_path.calculated", slog.Int("number", number))
	return tghelpers.SendText(c,
		a.msgs.Format(messages.LifePathResult, map[string]any{"Number": number, "Text": body}),
		a.inlineButton(messages.BtnPremiumFull, menu.KeyPremiumFull),
	)
}

// Compatibility.

func (a *App) compatStart(c tele.Context) error {
	uid := senderID(c)
	a.sessions.Clear(uid)
	a.sessions.SetState(uid, StateCompatFirst)
	return tghelpers.SendText(c, a.text(messages.CompatPromptFirst), a.cancelMarkup())
}

func (a *App) compatFirstInput(c tele.Context) error {
	uid := senderID(c)
	date, err := numerology.ParseDate(c.Text())
	if err != nil {
		a.sessions.SetState(uid, StateCompatFirst)
		return tghelpers.SendText(c, a.text(messages.DateInvalid), a.cancelMarkup())
	}
	a.sessions.SetTemp(uid, tempCompatFirst, date.String())
	a.sessions.SetState(uid, StateCompatSecond)
	return tghelpers.SendText(c, a.text(messages.CompatPromptSecond), a.cancelMarkup())
}

func (a *App) compatSecondInput(c tele.Context) error {
	uid := senderID(c)
	second, err := numerology.ParseDate(c.Text())
	if err != nil {
		a.sessions.SetState(uid, StateCompatSecond)
		return tghelpers.SendText(c, a.text(messages.DateInvalid), a.cancelMarkup())
	}
	raw, _ := a.sessions.GetTempString(uid, tempCompatFirst)
	first, err := numerology.ParseDate(raw)
	if err != nil {
		// The first date is gone; start over.
		return a.compatStart(c)
	}
	a.sessions.Clear(uid)

	res := numerology.Compatible(first, second)
	logger.Info(tghelpers.BuildContext(c), "app", "compatibility.calculated",
		slog.Int("score", res.Score),
		slog.String("level", string(res.Level)),
	)
	return tghelpers.SendText(c,
		a.msgs.Format(messages.CompatResult, map[string]any{
			"First":  res.First,
			"Second": res.Second,
			"Score":  res.Score,
			"Level":  a.text(messages.LevelPrefix + string(res.Level)),
		}),
		a.inlineButton(messages.BtnPremiumCompatibility, menu.KeyPremiumCompatibility),
	)
}

// Profile.

func (a *App) profile(c tele.Context) error {
	text, rm, err := a.profileView(tghelpers.BuildContext(c), senderID(c))
	if err != nil {
		return a.fail(c, fmt.Errorf("profile: %w", err))
	}
	return tghelpers.SendText(c, text, rm)
}

func (a *App) profileView(ctx context.Context, uid int64) (string, *tele.ReplyMarkup, error) {
	user, err := tghelpers.CurrentUser[storage.User](ctx, a.store, uid)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", nil, err
	}
	status, toggle := messages.NotificationsStatusOff, notifyButton(a.text(messages.BtnNotificationsOn), true)
	if user.NotificationsEnabled {
		status, toggle = messages.NotificationsStatusOn, notifyButton(a.text(messages.BtnNotificationsOff), false)
	}

	if err != nil || !user.HasBirthDate() {
		calc := menu.Button{Label: a.text(messages.BtnCalculate), Action: KeyCalcLifePath}
		text := a.msgs.Format(messages.ProfileEmpty, map[string]any{"Notifications": a.text(status)})
		return text, markup(menu.Keyboard{Rows: [][]menu.Button{{calc}, {toggle}}}), nil
	}
	birth := numerology.FromTime(format.Deref(user.BirthDate, time.Time{}))
	text := a.msgs.Format(messages.ProfileText, map[string]any{
		"BirthDate":     birth.String(),
		"Number":        format.DerefInt(user.LifePath, 0),
		"Soul":          numerology.Soul(birth),
		"Today":         numerology.Daily(numerology.FromTime(a.now())),
		"Notifications": a.text(status),
	})
	recalc := menu.Button{Label: a.text(messages.BtnRecalculate), Action: KeyCalcLifePath}
	return text, markup(menu.Keyboard{Rows: [][]menu.Button{{recalc}, {toggle}}}), nil
}

func notifyButton(label string, enable bool) menu.Button {
	payload := "off"
	if enable {
		payload = "on"
	}
	return menu.Button{Label: label, Action: KeyNotifications + "|" + payload}
}

func (a *App) toggleNotifications(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	uid := senderID(c)
	enabled := callbacks.CallbackPayload(c) == "on"
	if err := a.rememberUser(ctx, c); err != nil {
		return a.fail(c, fmt.Errorf("notifications: %w", err))
	}
	if err := a.store.SetNotifications(ctx, uid, enabled); err != nil {
		return a.fail(c, fmt.Errorf("notifications: %w", err))
	}
	logger.Info(ctx, "app", "notifications.set", slog.Bool("enabled", enabled))

	note := messages.NotificationsOff
	if enabled {
		note = messages.NotificationsOn
	}
	text, rm, err := a.profileView(ctx, uid)
	if err != nil {
		return a.fail(c, fmt.Errorf("notifications: %w", err))
	}
	return tghelpers.EditOrSendText(c, a.text(note)+"\n\n"+text, rm)
}

// Feedback.

func (a *App) feedbackStart(c tele.Context) error {
	a.sessions.Clear(senderID(c))
	kind := func(labelID string, k storage.FeedbackKind) []menu.Button {
		return []menu.Button{{Label: a.text(labelID), Action: KeyFeedbackKind + "|" + string(k)}}
	}
	rm := markup(menu.Keyboard{Rows: [][]menu.Button{
		kind(messages.BtnFeedbackReview, storage.FeedbackReview),
		kind(messages.BtnFeedbackSuggestion, storage.FeedbackSuggestion),
		kind(messages.BtnFeedbackBug, storage.FeedbackBug),
		{{Label: a.text(messages.BtnCancel), Action: KeyCancel}},
	}})
	if c.Callback() != nil {
		return tghelpers.EditOrSendText(c, a.text(messages.FeedbackMenu), rm)
	}
	return tghelpers.SendText(c, a.text(messages.FeedbackMenu), rm)
}

func (a *App) feedbackKind(c tele.Context) error {
	kind, ok := storage.ParseFeedbackKind(callbacks.CallbackPayload(c))
	if !ok {
		return a.feedbackStart(c)
	}
	uid := senderID(c)
	a.sessions.SetTemp(uid, tempFeedbackKind, string(kind))
	a.sessions.SetState(uid, StateAwaitingFeedback)
	return tghelpers.EditOrSendText(c, a.text(messages.FeedbackPrompt), a.cancelMarkup())
}

func (a *App) feedbackInput(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	uid := senderID(c)
	body := strings.TrimSpace(logger.SanitizeLimit(c.Text(), maxFeedbackRunes))
	if body == "" {
		a.sessions.SetState(uid, StateAwaitingFeedback)
		return tghelpers.SendText(c, a.text(messages.FeedbackEmpty), a.cancelMarkup())
	}
	raw, _ := a.sessions.GetTempString(uid, tempFeedbackKind)
	kind, ok := storage.ParseFeedbackKind(raw)
	if !ok {
		return a.feedbackStart(c)
	}
	a.sessions.Clear(uid)

	if err := a.rememberUser(ctx, c); err != nil {
		logger.Warn(ctx, "app", "user.upsert", slog.String("status", "fail"), slog.String("err", err.Error()))
	}
	fb, err := a.store.AddFeedback(ctx, uid, kind, body)
	if err != nil {
		return a.fail(c, fmt.Errorf("feedback: %w", err))
	}
	logger.Info(ctx, "app", "feedback.saved",
		slog.String("feedback_id", fb.ID.String()),
		slog.String("kind", string(fb.Kind)),
	)
	return tghelpers.SendText(c, a.text(messages.FeedbackThanks), markup(menu.MainKeyboard(a.msgs)))
}

// Admin.

func (a *App) stats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	st, err := a.store.Stats(ctx)
	if err != nil {
		return a.fail(c, fmt.Errorf("stats: %w", err))
	}
	var b strings.Builder
	b.WriteString(a.msgs.Format(messages.StatsText, map[string]any{
		"Users":         st.Users,
		"WithBirthDate": st.WithBirthDate,
		"Feedback":      st.Feedback,
	}))
	recent, err := a.store.RecentFeedback(ctx, recentFeedbackLimit)
	if err != nil {
		return a.fail(c, fmt.Errorf("stats: %w", err))
	}
	if len(recent) > 0 {
		b.WriteString("\n")
	}
	for _, fb := range recent {
		fmt.Fprintf(&b, "\n%s %s: %s", fb.CreatedAt.UTC().Format("02.01 15:04"), fb.Kind, logger.SanitizeLimit(fb.Body, 80))
	}
	return tghelpers.SendText(c, b.String())
}
