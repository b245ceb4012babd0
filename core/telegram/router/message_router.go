package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/numerobot/core/telegram"
)

// FSM is the part of the conversation state store the text router needs.
type FSM interface {
	InProgress(userID int64) bool
	Handle(c tele.Context) error
}

// TextOptions controls text routing.
type TextOptions struct {
	Commands    CommandRouteOptions
	UnknownText tele.HandlerFunc
}

// TextRoutes routes plain text. Registered commands and their aliases (menu
// button labels) win over an in-progress conversation, so menu buttons keep
// working mid-input; otherwise text goes to the conversation, then to the
// fallbacks.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		if reg != nil {
			if name, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return opts.Commands.wrap(name, cmd)(c)
			}
		}

		if user := c.Sender(); fsm != nil && user != nil && fsm.InProgress(user.ID) {
			return handleWithSummary(c, "fsm", func() error { return fsm.Handle(c) })
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", func() error { return fb(c) })
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", func() error { return opts.UnknownText(c) })
		}
		logSkipped(c, "unknown_text")
		return nil
	}
	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}
