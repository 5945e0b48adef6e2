package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() failed: %v", err)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctfarena.yaml")
	data := `
addr: ":9000"
tick_interval: 50ms
default_players: 2
log:
  level: info
ws:
  send_buffer: 8
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, "")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q, expected :9000", cfg.Addr)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("TickInterval = %s, expected 50ms", cfg.TickInterval)
	}
	if cfg.DefaultPlayers != 2 {
		t.Errorf("DefaultPlayers = %d, expected 2", cfg.DefaultPlayers)
	}
	if cfg.Log.Level != "info" || cfg.WS.SendBuffer != 8 {
		t.Errorf("nested fields not loaded: %+v %+v", cfg.Log, cfg.WS)
	}
	// 未出现在文件里的字段保持默认值
	if cfg.WS.PongWait != 60*time.Second {
		t.Errorf("PongWait = %s, expected default 60s", cfg.WS.PongWait)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("CTF_DEFAULT_PLAYERS=2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CTF_ADDR", ":7777")
	t.Setenv("CTF_TICK_INTERVAL", "100ms")
	t.Setenv("CTF_CORS_ORIGINS", "http://a.example, http://b.example")
	t.Cleanup(func() { os.Unsetenv("CTF_DEFAULT_PLAYERS") })

	cfg, err := LoadConfig(filepath.Join(dir, "missing-ok.yaml"), envFile)
	if err == nil {
		t.Fatal("LoadConfig() with missing explicit file should fail")
	}

	cfg, err = LoadConfig("", envFile)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Addr != ":7777" || cfg.TickInterval != 100*time.Millisecond {
		t.Errorf("env overrides not applied: addr=%q tick=%s", cfg.Addr, cfg.TickInterval)
	}
	if cfg.DefaultPlayers != 2 {
		t.Errorf("DefaultPlayers = %d, expected 2 from .env", cfg.DefaultPlayers)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadConfigMissingEnvFileIsIgnored(t *testing.T) {
	if _, err := LoadConfig("", filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("tick_interval: 0s\ndefault_players: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(path, "")
	if err == nil {
		t.Fatal("LoadConfig() accepted invalid config")
	}
	for _, want := range []string{"tick_interval", "default_players"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("CTF_TICK_INTERVAL", "soon")
	if _, err := LoadConfig("", ""); err == nil {
		t.Fatal("LoadConfig() accepted CTF_TICK_INTERVAL=soon")
	}
}
