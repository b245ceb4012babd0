package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/numerobot/core/config"
)

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll})
	lp, ok := p.(*tele.LongPoller)
	if !ok || lp.Timeout != 10*time.Second {
		t.Fatalf("unexpected poller %#v", p)
	}

	p = BuildPoller(PollerOptions{
		RunMode: coreconfig.RunModeWebhook,
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example/hook"},
	})
	wh, ok := p.(*tele.Webhook)
	if !ok || wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://bot.example/hook" {
		t.Fatalf("unexpected webhook %#v", p)
	}
}

func TestDefaultMiddlewares(t *testing.T) {
	names := func(mws []Middleware) []string {
		out := make([]string, 0, len(mws))
		for _, mw := range mws {
			out = append(out, mw.Name)
		}
		return out
	}
	got := names(DefaultMiddlewares(&coreconfig.Config{}, nil))
	if len(got) != 3 || got[0] != "recover" {
		t.Fatalf("without rate limit: %v", got)
	}
	got = names(DefaultMiddlewares(&coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 300}}, nil))
	if len(got) != 4 || got[1] != "rate_limit" {
		t.Fatalf("with rate limit: %v", got)
	}
}
