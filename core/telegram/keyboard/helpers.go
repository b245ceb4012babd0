// Package keyboard builds telebot reply and inline markups.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes one inline button: its label, callback unique key and payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// ReplyButtons builds a resized reply keyboard from rows of labels.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, markup.Data(b.Text, b.Unique, b.Data))
		}
		inline = append(inline, markup.Row(buttons...))
	}
	markup.Inline(inline...)
	return markup
}

// SingleCancelMarkup creates an inline keyboard with one button for action.
func SingleCancelMarkup(label, action string) *tele.ReplyMarkup {
	return InlineButtonsRows([]InlineBtn{{Text: label, Unique: action}})
}
