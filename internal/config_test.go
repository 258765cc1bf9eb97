package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/questlog/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestQuestsConfig_ActiveLimitBounds(t *testing.T) {
	for _, n := range []int{0, 51, -1} {
		cfg := QuestsConfig{ActiveLimit: n}
		if err := cfg.Validate(); err == nil {
			t.Errorf("active_limit %d should fail", n)
		}
	}
	cfg := QuestsConfig{ActiveLimit: 50}
	if err := cfg.Validate(); err != nil {
		t.Errorf("active_limit 50 should pass: %v", err)
	}
}

func TestJournalConfig_Debounce(t *testing.T) {
	cfg := JournalConfig{Debounce: 2 * time.Minute}
	if err := cfg.Validate(); err == nil {
		t.Error("debounce over a minute should fail")
	}
	cfg.Debounce = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero debounce should pass: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("QUESTLOG_TEST_TOKEN", "s3cret")
	yaml := `
app:
  log_level: debug
  http:
    port: 9090
journal:
  path: /tmp/journal
  debounce: 250ms
sqlite:
  path: /tmp/q.db
quests:
  active_limit: 3
auth:
  mode: token
  token: ${QUESTLOG_TEST_TOKEN}
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
	if cfg.Journal.Debounce != 250*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Journal.Debounce)
	}
	if cfg.Quests.ActiveLimit != 3 || cfg.App.HTTP.Port != 9090 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Auth.Token != "s3cret" || !cfg.Auth.AuthEnabled() {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.App.LogFile.MaxBackups != 3 {
		t.Errorf("unset log_file defaults lost: %+v", cfg.App.LogFile)
	}
}
