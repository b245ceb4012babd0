package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/numerobot/core/telegram"
	"github.com/m3rciful/numerobot/core/telegram/callbacks"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute routes inline button presses through the registry by unique
// key. Known callbacks are acknowledged before the handler runs; the
// not-found fallback answers the query itself.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(cb)
		name := "callback." + normalizeHandlerName(key)
		keyAttr := slog.String("cb_key", key)

		if h, ok := reg.GetCallback(key); ok {
			_ = c.Respond()
			return handleWithSummary(c, name, func() error { return h(c) }, keyAttr)
		}

		fallback := opts.NotFound
		if fallback == nil {
			fallback = reg.CallbackNotFound()
		}
		return handleWithSummary(c, "callback.not_found", func() error {
			if fallback == nil {
				return c.Respond()
			}
			return fallback(c)
		}, keyAttr)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
