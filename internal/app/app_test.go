package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/numerobot/core/telegram"
	"github.com/m3rciful/numerobot/core/telegram/state"
	"github.com/m3rciful/numerobot/internal/menu"
	"github.com/m3rciful/numerobot/internal/storage"
	"github.com/m3rciful/numerobot/internal/texts"
)

type sentMessage struct {
	text   string
	markup *tele.ReplyMarkup
}

type fakeContext struct {
	tele.Context
	text      string
	cb        *tele.Callback
	store     map[string]any
	sent      []sentMessage
	edits     []string
	editErr   error
	responses []*tele.CallbackResponse
}

func newFakeContext(text string) *fakeContext {
	return &fakeContext{text: text, store: map[string]any{}}
}

func newCallbackContext(unique, data string) *fakeContext {
	c := newFakeContext("")
	c.cb = &tele.Callback{Unique: unique, Data: data}
	return c
}

func markupOf(opts []any) *tele.ReplyMarkup {
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so.ReplyMarkup
		}
	}
	return nil
}

func (f *fakeContext) Get(key string) any { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }
func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }
func (f *fakeContext) Sender() *tele.User { return &tele.User{ID: 7, Username: "ann", LanguageCode: "en"} }
func (f *fakeContext) Chat() *tele.Chat { return &tele.Chat{ID: 7} }
func (f *fakeContext) Text() string { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Edit(what any, _ ...any) error {
	f.edits = append(f.edits, what.(string))
	return f.editErr
}
func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, sentMessage{text: what.(string), markup: markupOf(opts)})
	return nil
}
func (f *fakeContext) EditOrSend(what any, opts ...any) error {
	return f.Send(what, opts...)
}
func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	if len(resp) == 0 {
		f.responses = append(f.responses, nil)
	}
	return nil
}

func (f *fakeContext) lastText(t *testing.T) string {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("nothing sent")
	}
	return f.sent[len(f.sent)-1].text
}

type testApp struct {
	*App
	store *storage.Memory
	text  tele.HandlerFunc
	cb    tele.HandlerFunc
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	resource := fstest.MapFS{"numbers.json": {Data: []byte(`{
		"4": {"life_path": ["four-a", "four-b"]},
		"1": "one-text"
	}`)}}
	store := storage.NewMemory()
	cfg := &Config{Locale: "en", Session: SessionConfig{TTL: time.Minute}}
	cfg.Telegram.Token = "test"
	a, err := New(cfg, Deps{
		Store:   store,
		History: texts.NewMemoryHistory(time.Minute),
		Texts:   texts.NewLoader(resource, "numbers.json"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("TelegramRunOptions: %v", err)
	}
	ta := &testApp{App: a, store: store}
	for _, r := range opts.Routes {
		switch r.Endpoint {
		case tele.OnText:
			ta.text = r.Handler
		case tele.OnCallback:
			ta.cb = r.Handler
		}
	}
	if ta.text == nil || ta.cb == nil {
		t.Fatal("text and callback routes must be registered")
	}
	return ta
}

func (ta *testApp) say(t *testing.T, text string) *fakeContext {
	t.Helper()
	c := newFakeContext(text)
	if err := ta.text(c); err != nil {
		t.Fatalf("text %q: %v", text, err)
	}
	return c
}

func (ta *testApp) press(t *testing.T, unique, data string) *fakeContext {
	t.Helper()
	c := newCallbackContext(unique, data)
	if err := ta.cb(c); err != nil {
		t.Fatalf("callback %q: %v", unique, err)
	}
	return c
}

func TestRegistryWiring(t *testing.T) {
	ta := newTestApp(t)
	reg := ta.Registry()

	for text, want := range map[string]string{
		"🧮 Life Path number":        "/lifepath",
		"🧮 Рассчитать Число Судьбы": "/lifepath",
		"📊 My profile":              "/profile",
		"/stats@numerobot":          "/stats",
	} {
		if name, _, ok := reg.LookupCommand(text); !ok || name != want {
			t.Errorf("LookupCommand(%q) = %q, %v; want %q", text, name, ok, want)
		}
	}

	var visible []string
	for _, c := range reg.ListCommands(true) {
		visible = append(visible, c.Text)
	}
	want := []string{"feedback", "help", "lifepath", "menu", "premium_info", "start"}
	if diff := cmp.Diff(want, visible); diff != "" {
		t.Fatalf("visible commands mismatch (-want +got):\n%s", diff)
	}

	for _, ev := range menu.Events() {
		if _, ok := reg.GetCallback(ev.Key()); !ok {
			t.Errorf("no callback for %s", ev.Key())
		}
	}
}

func TestLifePathFlow(t *testing.T) {
	ta := newTestApp(t)

	c := ta.say(t, "🧮 Life Path number")
	if !strings.Contains(c.lastText(t), "DD.MM.YYYY") {
		t.Fatalf("prompt = %q", c.lastText(t))
	}
	if got := ta.sessions.GetState(7); got != StateAwaitingBirthDate {
		t.Fatalf("state = %q", got)
	}

	c = ta.say(t, "31.02.1990")
	if !strings.Contains(c.lastText(t), "Could not read the date") {
		t.Fatalf("invalid date reply = %q", c.lastText(t))
	}
	if got := ta.sessions.GetState(7); got != StateAwaitingBirthDate {
		t.Fatal("invalid input must keep the flow")
	}

	c = ta.say(t, "15.06.1990")
	reply := c.lastText(t)
	if !strings.Contains(reply, "Life Path number: 4") {
		t.Fatalf("result = %q", reply)
	}
	if !strings.Contains(reply, "four-a") && !strings.Contains(reply, "four-b") {
		t.Fatalf("result misses the number text: %q", reply)
	}
	if rm := c.sent[len(c.sent)-1].markup; rm == nil || rm.InlineKeyboard[0][0].Unique != menu.KeyPremiumFull {
		t.Fatalf("result must offer the premium reading: %+v", rm)
	}
	if ta.sessions.InProgress(7) {
		t.Fatal("flow must end after the result")
	}

	u, err := ta.store.GetUserByTelegramID(context.Background(), 7)
	if err != nil || !u.HasBirthDate() || *u.LifePath != 4 {
		t.Fatalf("stored user = %+v, %v", u, err)
	}
}

func TestLifePathTextsDoNotRepeat(t *testing.T) {
	ta := newTestApp(t)
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		ta.say(t, "/lifepath")
		c := ta.say(t, "15.06.1990")
		reply := c.lastText(t)
		seen[reply[strings.LastIndex(reply, "\n")+1:]] = true
	}
	if !seen["four-a"] || !seen["four-b"] {
		t.Fatalf("both texts must be shown before repeating: %v", seen)
	}
}

func TestMissingTextFallsBack(t *testing.T) {
	ta := newTestApp(t)
	ta.say(t, "/lifepath")
	c := ta.say(t, "01.01.2000") // also 4
	if strings.Contains(c.lastText(t), "no description") {
		t.Fatal("number 4 has texts")
	}
	ta.say(t, "/lifepath")
	c = ta.say(t, "02.01.2000") // 5
	if !strings.Contains(c.lastText(t), "There is no description") {
		t.Fatalf("reply = %q", c.lastText(t))
	}
	ta.say(t, "/lifepath")
	c = ta.say(t, "01.01.2006") // 1, plain text entry
	if !strings.Contains(c.lastText(t), "one-text") {
		t.Fatalf("reply = %q", c.lastText(t))
	}
}

func TestBackToMainClearsInput(t *testing.T) {
	ta := newTestApp(t)
	ta.say(t, "💑 Compatibility")
	ta.say(t, "15.06.1990")
	if got := ta.sessions.GetState(7); got != StateCompatSecond {
		t.Fatalf("state = %q", got)
	}

	c := ta.press(t, menu.KeyBackMain, "")
	if ta.sessions.InProgress(7) {
		t.Fatal("back to main must clear the flow")
	}
	if _, ok := ta.sessions.GetTemp(7, tempCompatFirst); ok {
		t.Fatal("back to main must drop temporary data")
	}
	if diff := cmp.Diff([]string{"🏠 Main menu"}, c.edits); diff != "" {
		t.Fatalf("header edit mismatch (-want +got):\n%s", diff)
	}
	last := c.sent[len(c.sent)-1]
	if last.text != "Choose what you want to know:" || last.markup == nil || len(last.markup.ReplyKeyboard) != 5 {
		t.Fatalf("main menu = %+v", last)
	}

	// The next date is no longer taken as input.
	c = ta.say(t, "01.01.2000")
	if !strings.Contains(c.lastText(t), "I don't know this command") {
		t.Fatalf("reply = %q", c.lastText(t))
	}
}

func TestMenuButtonsWinOverInput(t *testing.T) {
	ta := newTestApp(t)
	ta.say(t, "/lifepath")
	c := ta.say(t, "ℹ️ About")
	if !strings.HasPrefix(c.lastText(t), "ℹ️ About") {
		t.Fatalf("reply = %q", c.lastText(t))
	}
	if got := ta.sessions.GetState(7); got != StateAwaitingBirthDate {
		t.Fatal("only back to main resets the flow")
	}
}

func TestCompatibilityFlow(t *testing.T) {
	ta := newTestApp(t)
	ta.say(t, "/compatibility")
	ta.say(t, "15.06.1990")
	c := ta.say(t, "01.01.2000")
	reply := c.lastText(t)
	if !strings.Contains(reply, "Life Path numbers: 4 and 4") || !strings.Contains(reply, "Score: 9/9 (perfect)") {
		t.Fatalf("result = %q", reply)
	}
	if rm := c.sent[len(c.sent)-1].markup; rm == nil || rm.InlineKeyboard[0][0].Unique != menu.KeyPremiumCompatibility {
		t.Fatalf("result must offer the premium compatibility: %+v", rm)
	}
	if ta.sessions.InProgress(7) {
		t.Fatal("flow must end after the result")
	}
}

func TestProfile(t *testing.T) {
	ta := newTestApp(t)
	c := ta.say(t, "📊 My profile")
	if !strings.Contains(c.lastText(t), "No birth date yet") {
		t.Fatalf("empty profile = %q", c.lastText(t))
	}

	ta.press(t, KeyCalcLifePath, "")
	ta.say(t, "15.06.1990")
	ta.now = func() time.Time { return time.Date(2007, 1, 1, 12, 0, 0, 0, time.UTC) }
	c = ta.say(t, "/profile")
	for _, want := range []string{"Birth date: 15.06.1990", "Life Path number: 4", "Soul number: 6", "Number of the day: 2"} {
		if !strings.Contains(c.lastText(t), want) {
			t.Fatalf("profile = %q, want %q", c.lastText(t), want)
		}
	}
}

func TestFeedbackFlow(t *testing.T) {
	ta := newTestApp(t)
	c := ta.press(t, menu.KeyFeedback, "")
	rm := c.sent[len(c.sent)-1].markup
	if rm == nil || len(rm.InlineKeyboard) != 4 {
		t.Fatalf("feedback menu = %+v", rm)
	}

	ta.press(t, KeyFeedbackKind, "bug")
	if got := ta.sessions.GetState(7); got != StateAwaitingFeedback {
		t.Fatalf("state = %q", got)
	}

	c = ta.say(t, "\u200b")
	if !strings.Contains(c.lastText(t), "The message is empty") {
		t.Fatalf("empty reply = %q", c.lastText(t))
	}

	c = ta.say(t, strings.Repeat("x", 2500))
	if !strings.Contains(c.lastText(t), "Thank you") {
		t.Fatalf("reply = %q", c.lastText(t))
	}
	st, _ := ta.store.Stats(context.Background())
	if st.Feedback != 1 || st.Users != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if ta.sessions.InProgress(7) {
		t.Fatal("flow must end after saving")
	}
}

func TestPremiumScreens(t *testing.T) {
	ta := newTestApp(t)
	c := ta.press(t, menu.KeyPremiumFull, "")
	if !strings.Contains(c.lastText(t), "Full Life Path reading") {
		t.Fatalf("premium full = %q", c.lastText(t))
	}
	c = ta.press(t, menu.KeyPremiumCompatibility, "")
	if !strings.Contains(c.lastText(t), "Detailed compatibility") {
		t.Fatalf("premium compatibility = %q", c.lastText(t))
	}
	c = ta.press(t, menu.KeySubscribe, "")
	if !strings.Contains(c.lastText(t), "not available yet") {
		t.Fatalf("subscribe = %q", c.lastText(t))
	}
	if len(c.responses) != 1 || c.responses[0] != nil {
		t.Fatalf("known callbacks are answered silently: %+v", c.responses)
	}
}

func TestUnknownCallbackAndAdmin(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ta := newTestApp(t)
	c := ta.press(t, "diary", "")
	if len(c.responses) != 1 || c.responses[0] == nil || c.responses[0].Text != "This button is outdated" {
		t.Fatalf("responses = %+v", c.responses)
	}
	if !strings.Contains(buf.String(), "event=callback.unknown") || !strings.Contains(buf.String(), "cb_key=diary") {
		t.Fatalf("unknown callback not logged: %s", buf.String())
	}

	c = ta.say(t, "/stats")
	if !strings.Contains(c.lastText(t), "administrator only") {
		t.Fatalf("stats without admin = %q", c.lastText(t))
	}
}

func TestStatsForAdmin(t *testing.T) {
	ta := newTestApp(t)
	ta.cfg.Telegram.AdminID = 7
	opts, err := ta.TelegramRunOptions()
	if err != nil {
		t.Fatal(err)
	}
	var stats tele.HandlerFunc
	for _, r := range opts.Routes {
		if r.Endpoint == "/stats" {
			stats = r.Handler
		}
	}
	if stats == nil {
		t.Fatal("no /stats route")
	}
	ta.say(t, "/start")
	if _, err := ta.store.AddFeedback(context.Background(), 7, storage.FeedbackBug, "menu is slow"); err != nil {
		t.Fatal(err)
	}
	c := newFakeContext("/stats")
	if err := stats(c); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Users: 1", "Feedback: 1", "bug: menu is slow"} {
		if !strings.Contains(c.lastText(t), want) {
			t.Fatalf("stats = %q, want %q", c.lastText(t), want)
		}
	}
}

func TestOnStartWarmsTexts(t *testing.T) {
	loader := texts.NewLoader(fstest.MapFS{"n.json": {Data: []byte(`{"1":"one-text"}`)}}, "n.json")
	cfg := &Config{Locale: "ru"}
	a, err := New(cfg, Deps{Texts: loader, Sessions: state.NewManager(time.Minute)})
	if err != nil {
		t.Fatal(err)
	}
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatal(err)
	}
	if err := opts.OnStart(context.Background(), tg.Runtime{}); err != nil {
		t.Fatal(err)
	}
	if loader.Reads() != 1 {
		t.Fatalf("reads = %d", loader.Reads())
	}
	if text, ok := loader.Get(context.Background()).Lookup("1"); !ok || text != "one-text" {
		t.Fatalf("Lookup(1) = %q, %v", text, ok)
	}
	if err := opts.OnStop(context.Background(), tg.Runtime{}); err != nil {
		t.Fatal(err)
	}
}

type fakeBot struct {
	to    []string
	texts []string
	err   error
}

func (b *fakeBot) Send(to tele.Recipient, what any, _ ...any) (*tele.Message, error) {
	b.to = append(b.to, to.Recipient())
	b.texts = append(b.texts, what.(string))
	return &tele.Message{}, b.err
}

func TestDailyNotificationToggle(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	today := time.Date(2026, 10, 17, 12, 0, 0, 0, time.Local)
	ta.now = func() time.Time { return today }

	c := ta.press(t, KeyNotifications, "on")
	last := c.sent[len(c.sent)-1]
	if !strings.HasPrefix(last.text, "The number of the day will arrive every morning.") || !strings.Contains(last.text, "Daily message: on") {
		t.Fatalf("profile = %q", last.text)
	}
	if rm := last.markup; rm == nil || rm.InlineKeyboard[1][0].Unique != KeyNotifications || rm.InlineKeyboard[1][0].Data != "off" {
		t.Fatalf("toggle button = %+v", rm)
	}

	ids, err := ta.store.DailyRecipients(ctx, today)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{7}, ids); diff != "" {
		t.Fatalf("recipients mismatch (-want +got):\n%s", diff)
	}

	bot := &fakeBot{}
	ta.bot = bot
	if n, err := ta.daily.Tick(ctx); err != nil || n != 1 {
		t.Fatalf("Tick = %d, %v", n, err)
	}
	if diff := cmp.Diff([]string{"7"}, bot.to); diff != "" {
		t.Fatalf("recipients mismatch (-want +got):\n%s", diff)
	}
	for _, want := range []string{"Number of the day: 1", "one-text"} {
		if !strings.Contains(bot.texts[0], want) {
			t.Fatalf("daily message = %q, want %q", bot.texts[0], want)
		}
	}
	if n, _ := ta.daily.Tick(ctx); n != 0 {
		t.Fatalf("second Tick sent %d", n)
	}

	c = ta.press(t, KeyNotifications, "off")
	if !strings.Contains(c.lastText(t), "Daily message: off") {
		t.Fatalf("profile = %q", c.lastText(t))
	}
	if ids, _ := ta.store.DailyRecipients(ctx, today.AddDate(0, 0, 1)); len(ids) != 0 {
		t.Fatalf("recipients after off = %v", ids)
	}
}

func TestSendDailyWithoutBot(t *testing.T) {
	ta := newTestApp(t)
	if err := ta.sendDaily(context.Background(), 7, "hi"); err == nil {
		t.Fatal("expected error before the bot starts")
	}
}
