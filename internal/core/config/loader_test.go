package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
logging:
  level: debug
services:
  - name: completion
    kind: completion
    env_prefix: OPENAI_API_KEY
    base_url: https://api.openai.com
    cooldown: 1m
    max_attempts: 3
    base_delay: 500ms
    rate_limit: 5
  - name: mailer
    kind: email
    env_prefix: RESEND_API_KEY
    cooldown: 5m
    max_attempts: 2
    base_delay: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Services) != 2 {
		t.Fatalf("Services = %d, want 2", len(cfg.Services))
	}

	ai := cfg.Services[0]
	if ai.Cooldown.Std() != time.Minute {
		t.Errorf("completion cooldown = %v, want 1m", ai.Cooldown.Std())
	}
	if ai.RateLimit != 5 {
		t.Errorf("completion rate_limit = %v, want 5", ai.RateLimit)
	}
	if ai.Timeout.Std() != 30*time.Second {
		t.Errorf("completion timeout default = %v, want 30s", ai.Timeout.Std())
	}

	mail := cfg.Services[1]
	if mail.BaseDelay.Std() != 2*time.Second {
		t.Errorf("mailer base_delay = %v, want 2s", mail.BaseDelay.Std())
	}
	if mail.MaxAttempts != 2 {
		t.Errorf("mailer max_attempts = %d, want 2", mail.MaxAttempts)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
services:
  - name: completion
    kind: completion
    env_prefix: OPENAI_API_KEY
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	svc := cfg.Services[0]
	if svc.Cooldown.Std() != 60*time.Second {
		t.Errorf("default cooldown = %v, want 60s", svc.Cooldown.Std())
	}
	if svc.MaxAttempts != 3 {
		t.Errorf("default max_attempts = %d, want 3", svc.MaxAttempts)
	}
	if svc.BaseDelay.Std() != 500*time.Millisecond {
		t.Errorf("default base_delay = %v, want 500ms", svc.BaseDelay.Std())
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("KEYPOOL_TEST_URL", "https://gateway.internal")
	path := writeConfig(t, `
services:
  - name: completion
    kind: completion
    env_prefix: OPENAI_API_KEY
    base_url: ${KEYPOOL_TEST_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Services[0].BaseURL != "https://gateway.internal" {
		t.Errorf("BaseURL = %q, env not expanded", cfg.Services[0].BaseURL)
	}
}

func TestLoadRejectsBadService(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown kind", "services:\n  - name: x\n    kind: fax\n    env_prefix: X\n"},
		{"missing prefix", "services:\n  - name: x\n    kind: email\n"},
		{"missing name", "services:\n  - kind: email\n    env_prefix: X\n"},
		{"bad duration", "services:\n  - name: x\n    kind: email\n    env_prefix: X\n    cooldown: never\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestCollectCredentials(t *testing.T) {
	t.Setenv("KPTEST_API_KEY", "sk-primary")
	t.Setenv("KPTEST_API_KEY_2", "sk-second")
	t.Setenv("KPTEST_API_KEY_3", "sk-third")
	// Gap at _4; _5 must not be picked up.
	t.Setenv("KPTEST_API_KEY_5", "sk-orphan")

	got := CollectCredentials("KPTEST_API_KEY")
	want := []string{"sk-primary", "sk-second", "sk-third"}
	if len(got) != len(want) {
		t.Fatalf("CollectCredentials() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("credential[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCollectCredentialsEmpty(t *testing.T) {
	if got := CollectCredentials("KPTEST_MISSING_KEY"); len(got) != 0 {
		t.Errorf("CollectCredentials() = %v, want empty", got)
	}
}

func TestCollectCredentialsNumberedOnly(t *testing.T) {
	t.Setenv("KPTEST_NUM_KEY_2", "sk-two")
	got := CollectCredentials("KPTEST_NUM_KEY")
	if len(got) != 1 || got[0] != "sk-two" {
		t.Errorf("CollectCredentials() = %v, want [sk-two]", got)
	}
}
