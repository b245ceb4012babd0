// Package commands describes slash commands exposed by the bot.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a bot command with its handler and menu metadata. Aliases are
// extra texts routed to the same handler, e.g. reply keyboard labels.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
