package app

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/m3rciful/numerobot/internal/menu"
)

func TestShowLogsFailedHeaderEdit(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	c := newCallbackContext(menu.KeyBackMain, "")
	c.editErr = errors.New("message is not modified")
	screen := menu.Screen{
		State:  menu.MainMenu,
		Header: "header",
		Text:   "body",
		Keyboard: menu.Keyboard{Reply: true, Rows: [][]menu.Button{
			{{Label: "one"}},
		}},
	}
	if err := show(c, screen); err != nil {
		t.Fatalf("show: %v", err)
	}
	if got := c.lastText(t); got != "body" {
		t.Fatalf("sent = %q, want body after a failed header edit", got)
	}
	out := buf.String()
	for _, want := range []string{"event=screen.header", "screen=main", "message is not modified"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log %q misses %q", out, want)
		}
	}
}
