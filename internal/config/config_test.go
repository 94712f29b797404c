package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"bot_token": "file-token",
		"api_base": "https://api.example.com/",
		"initial_operator_ids": [11, 22],
		"refresh_minutes": 2
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OUMG_BOT_TOKEN", "env-token")
	t.Setenv("OUMG_DATA_DIR", dir)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BotToken != "env-token" {
		t.Fatalf("env should override file, got %q", cfg.BotToken)
	}
	if cfg.APIBase != "https://api.example.com" {
		t.Fatalf("api base should be trimmed, got %q", cfg.APIBase)
	}
	if len(cfg.InitialOperatorIDs) != 2 || cfg.InitialOperatorIDs[1] != 22 {
		t.Fatalf("operator ids: %v", cfg.InitialOperatorIDs)
	}
	if cfg.RefreshMinutes != 2 {
		t.Fatalf("refresh minutes: %d", cfg.RefreshMinutes)
	}
	if cfg.FallbackPriceMYR != DefaultFallbackPrice {
		t.Fatalf("fallback default: %v", cfg.FallbackPriceMYR)
	}
}

func TestLoadMissingToken(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OUMG_BOT_TOKEN", "")
	t.Setenv("OUMG_DATA_DIR", dir)
	if _, err := Load(filepath.Join(dir, "absent.json")); err == nil {
		t.Fatal("expected an error for missing bot token")
	}
}

func TestParseIDList(t *testing.T) {
	got := parseIDList(" 1, 2,x, 3 ,")
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("parseIDList: %v", got)
	}
}
