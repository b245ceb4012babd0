package app

import (
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/numerobot/core/logger"
	tghelpers "github.com/m3rciful/numerobot/core/telegram/helpers"
	"github.com/m3rciful/numerobot/core/telegram/keyboard"
	"github.com/m3rciful/numerobot/internal/menu"
)

// markup converts a keyboard descriptor to telebot markup.
func markup(kb menu.Keyboard) *tele.ReplyMarkup {
	if len(kb.Rows) == 0 {
		return nil
	}
	if kb.Reply {
		rows := make([][]string, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			labels := make([]string, 0, len(row))
			for _, b := range row {
				labels = append(labels, b.Label)
			}
			rows = append(rows, labels)
		}
		return keyboard.ReplyButtons(rows...)
	}
	rows := make([][]keyboard.InlineBtn, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			unique, data := splitAction(b.Action)
			btns = append(btns, keyboard.InlineBtn{Text: b.Label, Unique: unique, Data: data})
		}
		rows = append(rows, btns)
	}
	return keyboard.InlineButtonsRows(rows...)
}

// splitAction separates "unique|payload" actions.
func splitAction(action string) (string, string) {
	unique, data, _ := strings.Cut(action, "|")
	return unique, data
}

// show renders a screen. Inline screens replace the pressed message; reply
// keyboards can only come with a new message, so the pressed message is
// rewritten to the screen header first.
func show(c tele.Context, s menu.Screen) error {
	rm := markup(s.Keyboard)
	if c.Callback() == nil {
		return tghelpers.SendText(c, s.Text, rm)
	}
	if !s.Keyboard.Reply {
		return tghelpers.EditOrSendText(c, s.Text, rm)
	}
	if s.Header != "" {
		if err := tghelpers.EditText(c, s.Header); err != nil {
			logger.Debug(tghelpers.BuildContext(c), "app", "screen.header",
				slog.String("status", "fail"),
				slog.String("screen", s.State.String()),
				slog.String("err", err.Error()),
			)
		}
	}
	return tghelpers.SendText(c, s.Text, rm)
}
