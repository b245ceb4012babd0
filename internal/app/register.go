package app

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/numerobot/core/telegram/commands"
	"github.com/m3rciful/numerobot/internal/menu"
	"github.com/m3rciful/numerobot/internal/messages"
)

// register fills the registry and the conversation handlers.
func (a *App) register() error {
	cmd := func(descID string, h tele.HandlerFunc, aliasIDs ...string) commands.Command {
		c := commands.Command{Handler: h, Description: a.text(descID)}
		for _, id := range aliasIDs {
			c.Aliases = append(c.Aliases, a.catalog.Variants(id)...)
		}
		return c
	}
	hidden := func(c commands.Command) commands.Command {
		c.Hidden = true
		return c
	}
	admin := func(c commands.Command) commands.Command {
		c.AdminOnly = true
		return c
	}

	var errs []error
	for name, c := range map[string]commands.Command{
		"/start":         cmd(messages.CmdStart, a.start),
		"/menu":          cmd(messages.CmdMenu, a.navigate(menu.EventMain), messages.BtnBackMain),
		"/help":          cmd(messages.CmdHelp, a.help),
		"/lifepath":      cmd(messages.CmdLifePath, a.lifePathStart, messages.BtnLifePath),
		"/compatibility": hidden(cmd(messages.CmdCompat, a.compatStart, messages.BtnCompatibility)),
		"/profile":       hidden(cmd(messages.CmdProfile, a.profile, messages.BtnProfile)),
		"/about":         hidden(cmd(messages.CmdAbout, a.navigate(menu.EventAbout), messages.BtnAbout)),
		"/premium_info":  cmd(messages.CmdPremiumInfo, a.navigate(menu.EventPremiumInfo)),
		"/feedback":      cmd(messages.CmdFeedback, a.feedbackStart, messages.BtnFeedback),
		"/stats":         admin(cmd(messages.CmdStats, a.stats)),
	} {
		errs = append(errs, a.registry.RegisterCommand(name, c))
	}

	for _, ev := range menu.Events() {
		errs = append(errs, a.registry.RegisterCallback(ev.Key(), a.navigate(ev)))
	}
	errs = append(errs,
		a.registry.RegisterCallback(menu.KeyFeedback, a.feedbackStart),
		a.registry.RegisterCallback(KeyFeedbackKind, a.feedbackKind),
		a.registry.RegisterCallback(KeyCalcLifePath, a.lifePathStart),
		a.registry.RegisterCallback(KeyNotifications, a.toggleNotifications),
		a.registry.RegisterCallback(KeyCancel, a.cancel),
	)
	a.registry.SetCallbackNotFound(a.unknownCallback)

	a.sessions.Register(StateAwaitingBirthDate, a.lifePathInput)
	a.sessions.Register(StateCompatFirst, a.compatFirstInput)
	a.sessions.Register(StateCompatSecond, a.compatSecondInput)
	a.sessions.Register(StateAwaitingFeedback, a.feedbackInput)

	return errors.Join(errs...)
}
