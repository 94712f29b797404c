package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultFallbackPrice is the MYR/gram price the console assumes when the
// backend has no usable snapshot at all. Matches the web console's constant.
const DefaultFallbackPrice = 500

type Config struct {
	BotToken string `json:"bot_token"`
	DataDir  string `json:"data_dir"`

	// Console backend base URL, e.g. http://localhost:4000.
	APIBase string `json:"api_base"`

	// Telegram user ids allowed to operate the console. Copied into DB on
	// first boot; later managed through the bot itself.
	InitialOperatorIDs []int64 `json:"initial_operator_ids,omitempty"`

	// Optional whitelisted wallet the daemon itself uses for admin-scope
	// polling (redemption watch). Without it only public endpoints are polled.
	ServiceWallet string `json:"service_wallet,omitempty"`

	// Price refresh cadence and alerting.
	RefreshMinutes    int     `json:"refresh_minutes,omitempty"`
	AlertThresholdBps int64   `json:"alert_threshold_bps,omitempty"`

	// Price shown when no snapshot field is usable. 0 means DefaultFallbackPrice.
	FallbackPriceMYR float64 `json:"fallback_price_myr,omitempty"`

	// If true, the bot logs Telegram API traffic.
	Debug bool `json:"debug,omitempty"`
}

func DefaultDataDir() string {
	if v := os.Getenv("OUMG_DATA_DIR"); v != "" {
		return v
	}
	return "/var/lib/oumg-console"
}

func DefaultConfigPath() string {
	if v := os.Getenv("OUMG_CONFIG"); v != "" {
		return v
	}
	return "/etc/oumg-console/config.json"
}

func Load(path string) (Config, error) {
	// A .env in the working directory is honored first so the env overrides
	// below see it; a missing file is fine.
	_ = godotenv.Load()

	if path == "" {
		path = DefaultConfigPath()
	}

	var cfg Config
	// 1) Try file
	if b, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid config json: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	// 2) Env fallback / override
	if v := os.Getenv("OUMG_BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("OUMG_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("OUMG_API_BASE"); v != "" {
		cfg.APIBase = v
	}
	if v := os.Getenv("OUMG_SERVICE_WALLET"); v != "" {
		cfg.ServiceWallet = v
	}
	if v := os.Getenv("OUMG_REFRESH_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RefreshMinutes = n
		}
	}
	if v := os.Getenv("OUMG_ALERT_THRESHOLD_BPS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.AlertThresholdBps = n
		}
	}
	if v := os.Getenv("OUMG_DEBUG"); v != "" {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	if v := os.Getenv("OUMG_INITIAL_OPERATORS"); v != "" && len(cfg.InitialOperatorIDs) == 0 {
		cfg.InitialOperatorIDs = parseIDList(v)
	}

	// Defaults
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	cfg.DataDir = filepath.Clean(cfg.DataDir)
	if cfg.APIBase == "" {
		cfg.APIBase = "http://localhost:4000"
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	if cfg.RefreshMinutes <= 0 {
		cfg.RefreshMinutes = 5
	}
	if cfg.FallbackPriceMYR <= 0 {
		cfg.FallbackPriceMYR = DefaultFallbackPrice
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("missing bot_token (set in %s or OUMG_BOT_TOKEN env)", path)
	}
	return cfg, nil
}

func parseIDList(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err == nil {
			out = append(out, id)
		}
	}
	return out
}
