package router

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/numerobot/core/telegram"
	"github.com/m3rciful/numerobot/core/telegram/commands"
)

type fakeContext struct {
	tele.Context
	store     map[string]any
	text      string
	cb        *tele.Callback
	responses []*tele.CallbackResponse
}

func newContext(text string) *fakeContext {
	return &fakeContext{store: map[string]any{}, text: text}
}

func (f *fakeContext) Get(key string) any { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }
func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }
func (f *fakeContext) Sender() *tele.User { return &tele.User{ID: 5} }
func (f *fakeContext) Chat() *tele.Chat { return &tele.Chat{ID: 5} }
func (f *fakeContext) Text() string { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		resp = []*tele.CallbackResponse{{}}
	}
	f.responses = append(f.responses, resp[0])
	return nil
}

type fakeFSM struct {
	active  bool
	handled int
}

func (f *fakeFSM) InProgress(int64) bool { return f.active }
func (f *fakeFSM) Handle(tele.Context) error {
	f.handled++
	return nil
}

func textHandler(t *testing.T, routes []tg.Route) tele.HandlerFunc {
	t.Helper()
	if len(routes) != 1 || routes[0].Endpoint != tele.OnText {
		t.Fatalf("unexpected routes: %+v", routes)
	}
	return routes[0].Handler
}

func TestTextRoutesAliasBeatsConversation(t *testing.T) {
	reg := tg.NewRegistry()
	menuCalls := 0
	if err := reg.RegisterCommand("/menu", commands.Command{
		Description: "menu",
		Aliases:     []string{"🏠 Main menu"},
		Handler:     func(tele.Context) error { menuCalls++; return nil },
	}); err != nil {
		t.Fatal(err)
	}
	fsm := &fakeFSM{active: true}
	h := textHandler(t, TextRoutes(fsm, reg, TextOptions{}))

	if err := h(newContext("🏠 Main menu")); err != nil {
		t.Fatal(err)
	}
	if menuCalls != 1 || fsm.handled != 0 {
		t.Fatalf("menu = %d, fsm = %d; alias must win", menuCalls, fsm.handled)
	}

	if err := h(newContext("01.01.1990")); err != nil {
		t.Fatal(err)
	}
	if fsm.handled != 1 {
		t.Fatalf("plain text should go to the conversation, fsm = %d", fsm.handled)
	}
}

func TestTextRoutesFallback(t *testing.T) {
	reg := tg.NewRegistry()
	unknown := 0
	h := textHandler(t, TextRoutes(&fakeFSM{}, reg, TextOptions{
		UnknownText: func(tele.Context) error { unknown++; return nil },
	}))
	_ = h(newContext("what?"))
	if unknown != 1 {
		t.Fatalf("unknown = %d", unknown)
	}

	fb := 0
	reg.SetTextFallback(func(tele.Context) error { fb++; return nil })
	_ = h(newContext("what?"))
	if fb != 1 || unknown != 1 {
		t.Fatalf("registry fallback should take precedence: fb = %d, unknown = %d", fb, unknown)
	}
}

func TestTextRoutesAdminAliasIsGuarded(t *testing.T) {
	reg := tg.NewRegistry()
	ran := false
	_ = reg.RegisterCommand("/stats", commands.Command{
		Description: "stats",
		AdminOnly:   true,
		Aliases:     []string{"Stats"},
		Handler:     func(tele.Context) error { ran = true; return nil },
	})
	rejected := false
	h := textHandler(t, TextRoutes(nil, reg, TextOptions{Commands: CommandRouteOptions{
		AdminID:       99,
		OnAdminReject: func(tele.Context) error { rejected = true; return nil },
	}}))
	_ = h(newContext("Stats"))
	if ran || !rejected {
		t.Fatalf("ran = %v, rejected = %v", ran, rejected)
	}
}

func TestCallbackRoute(t *testing.T) {
	reg := tg.NewRegistry()
	hits := 0
	_ = reg.RegisterCallback("back_main", func(tele.Context) error { hits++; return nil })
	route := CallbackRoute(reg, CallbackOptions{})

	c := newContext("")
	c.cb = &tele.Callback{Unique: "back_main"}
	if err := route.Handler(c); err != nil {
		t.Fatal(err)
	}
	if hits != 1 || len(c.responses) != 1 {
		t.Fatalf("hits = %d, responses = %d", hits, len(c.responses))
	}

	missing := newContext("")
	missing.cb = &tele.Callback{Data: "\fnope|1"}
	notFound := 0
	route = CallbackRoute(reg, CallbackOptions{NotFound: func(c tele.Context) error {
		notFound++
		return c.Respond(&tele.CallbackResponse{Text: "unsupported"})
	}})
	if err := route.Handler(missing); err != nil {
		t.Fatal(err)
	}
	if notFound != 1 || len(missing.responses) != 1 || missing.responses[0].Text != "unsupported" {
		t.Fatalf("not found = %d, responses = %+v", notFound, missing.responses)
	}
}

func TestCommandRoutes(t *testing.T) {
	reg := tg.NewRegistry()
	_ = reg.RegisterCommand("/start", commands.Command{Description: "start", Handler: func(tele.Context) error { return nil }})
	_ = reg.RegisterCommand("/help", commands.Command{Description: "help", Handler: func(tele.Context) error { return errors.New("x") }})
	routes := CommandRoutes(reg, CommandRouteOptions{})
	if len(routes) != 2 {
		t.Fatalf("routes = %d", len(routes))
	}
	for _, r := range routes {
		err := r.Handler(newContext(r.Endpoint.(string)))
		if (r.Endpoint == "/help") != (err != nil) {
			t.Fatalf("%v: err = %v", r.Endpoint, err)
		}
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string { return "rate limited" }

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(codedErr{}); got != "RATE_LIMITED" {
		t.Fatalf("code = %q", got)
	}
	if got := deriveErrorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("code = %q", got)
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	for in, want := range map[string]string{"/Start": "start", "": "unknown", "feedback bug": "feedback_bug"} {
		if got := normalizeHandlerName(in); got != want {
			t.Errorf("normalizeHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}
