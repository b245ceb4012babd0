package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/numerobot/core/logger"
	"github.com/m3rciful/numerobot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
// A nil dispatcher makes helpers send synchronously.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

func options(markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if len(markup) > 0 && markup[0] != nil {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}

// SendText sends plain text to the current chat with an optional keyboard.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := options(markup)
	return sendAsync(c, "send.text", func() error {
		return c.Send(text, opts)
	})
}

// EditText replaces the text and inline keyboard of the callback message.
func EditText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Edit(text, options(markup))
}

// EditOrSendText edits the callback message, or sends a new one when there is
// nothing to edit.
func EditOrSendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.EditOrSend(text, options(markup))
}
