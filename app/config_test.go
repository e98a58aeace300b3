package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := cfg.Server.Addr(); got != "127.0.0.1:8080" {
		t.Fatalf("addr = %q", got)
	}
	if cfg.Logger.Level != "info" || cfg.Logger.Format != "json" {
		t.Fatalf("logger = %+v", cfg.Logger)
	}
	if cfg.Settings != nil {
		t.Fatalf("settings = %v, want nil", cfg.Settings)
	}
}

func TestParseConfig_Settings(t *testing.T) {
	doc := []byte(`
server:
  host: 0.0.0.0
  port: 9000
settings:
  keycloak_settings:
    url: https://sso.example.com
    realm: myrealm
`)
	cfg, err := ParseConfig(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := cfg.Server.Addr(); got != "0.0.0.0:9000" {
		t.Fatalf("addr = %q", got)
	}
	ks, ok := cfg.Settings["keycloak_settings"].(map[string]any)
	if !ok {
		t.Fatalf("keycloak_settings = %#v", cfg.Settings["keycloak_settings"])
	}
	if ks["realm"] != "myrealm" {
		t.Fatalf("realm = %v", ks["realm"])
	}
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9443")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := ParseConfig([]byte("server:\n  port: 1234\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.Port != 9443 {
		t.Fatalf("port = %d, want env override", cfg.Server.Port)
	}
	if cfg.Logger.Level != "debug" || cfg.Logger.Format != "text" {
		t.Fatalf("logger = %+v", cfg.Logger)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"yaml":   "server: [",
		"level":  "logger:\n  level: loud\n",
		"format": "logger:\n  format: xml\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(t.TempDir() + "/nope.yaml"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoggerConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := LoggerConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d records, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec["msg"] != "shown" || rec["k"] != "v" {
		t.Fatalf("record = %v", rec)
	}
}

func TestNewContext_NilConfig(t *testing.T) {
	if _, err := NewContext(nil); err == nil {
		t.Fatalf("expected error")
	}
}
