package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesEnvOverYAML(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: from-file
  run_mode: polling
rate_limit:
  interval_ms: 500
  exclude_updates: [" Callback ", ""]
`)
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if diff := cmp.Diff([]string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates); diff != "" {
		t.Fatalf("exclude updates mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "missing token",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "webhook without url",
			cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"},
				Webhook: WebhookConfig{Listen: "0.0.0.0", Port: 8443}},
			wantErr: true,
		},
		{
			name: "webhook complete",
			cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "WEBHOOK"},
				Webhook: WebhookConfig{URL: "https://bot.example", Listen: "0.0.0.0", Port: 8443}},
		},
		{
			name:    "unknown run mode",
			cfg:     Config{Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}},
			wantErr: true,
		},
		{
			name:    "negative poll timeout",
			cfg:     Config{Telegram: TelegramConfig{Token: "t", LongPollTimeoutSeconds: -1}},
			wantErr: true,
		},
		{
			name: "bad exclusion",
			cfg: Config{Telegram: TelegramConfig{Token: "t"},
				RateLimit: RateLimitConfig{ExcludeUpdates: []string{"edited_message"}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Normalize(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeMissingFile(t *testing.T) {
	var cfg Config
	if err := Decode(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}
