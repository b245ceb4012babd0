package middleware

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/numerobot/core/config"
	"github.com/m3rciful/numerobot/core/logger"
	tghelpers "github.com/m3rciful/numerobot/core/telegram/helpers"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds (see coreconfig.Update*) that bypass the limit.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// UpdateKind classifies an update for rate limit exclusions.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	case upd.Query != nil:
		return coreconfig.UpdateInlineQuery
	}
	return "other"
}

// RateLimitMiddleware drops updates arriving from the same user faster than
// one per Interval.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	lastSeen := cache.New(opts.Interval, time.Minute)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}
			if err := lastSeen.Add(strconv.FormatInt(user.ID, 10), struct{}{}, opts.Interval); err != nil {
				logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit")
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
