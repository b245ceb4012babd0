package router

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/numerobot/core/logger"
	tg "github.com/m3rciful/numerobot/core/telegram"
	"github.com/m3rciful/numerobot/core/telegram/commands"
	"github.com/m3rciful/numerobot/core/telegram/middleware"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

func (o CommandRouteOptions) wrap(name string, def commands.Command) tele.HandlerFunc {
	h := def.Handler
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
			AdminID:  o.AdminID,
			OnReject: o.OnAdminReject,
		})(h)
	}
	handlerName := normalizeHandlerName(name)
	return func(c tele.Context) error {
		return handleWithSummary(c, handlerName, func() error { return h(c) })
	}
}

// CommandRoutes returns one route per registered slash command.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		routes = append(routes, tg.Route{Endpoint: name, Handler: opts.wrap(name, def)})
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "complete",
		slog.Int("count", len(cmds)),
		slog.Int("entries", len(reg.ListCallbacks())),
	)
	return routes
}
