package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// envTokens are the optional settlement assets whose type tags come from the
// environment. Symbol and decimals are fixed per asset.
var envTokens = []struct {
	key string
	domain.Token
}{
	{"SUIMARKET_TOKEN_WBTC", domain.Token{Symbol: "wBTC", Decimals: 8}},
	{"SUIMARKET_TOKEN_WETH", domain.Token{Symbol: "wETH", Decimals: 8}},
	{"SUIMARKET_TOKEN_USDC", domain.Token{Symbol: "USDC", Decimals: 6}},
	{"SUIMARKET_TOKEN_WSOL", domain.Token{Symbol: "wSOL", Decimals: 9}},
}

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SUIMARKET_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned
// Config has NOT been validated; the caller should invoke Config.Validate()
// after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SUIMARKET_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject ids and secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Network ──
	setStr(&cfg.Network.Name, "SUIMARKET_NETWORK")
	setStr(&cfg.Network.RPCURL, "SUIMARKET_RPC_URL")
	setDuration(&cfg.Network.Timeout, "SUIMARKET_RPC_TIMEOUT")

	// ── Protocol ──
	setStr(&cfg.Protocol.PackageID, "SUIMARKET_PACKAGE_ID")
	setStr(&cfg.Protocol.RegistryID, "SUIMARKET_REGISTRY_ID")
	setStr(&cfg.Protocol.ConfigID, "SUIMARKET_CONFIG_ID")
	setStr(&cfg.Protocol.ClockID, "SUIMARKET_CLOCK_ID")
	setStr(&cfg.Protocol.AdminCapID, "SUIMARKET_ADMIN_CAP_ID")

	// ── Tokens ──
	for _, t := range envTokens {
		if v := strings.TrimSpace(os.Getenv(t.key)); v != "" {
			tok := t.Token
			tok.Type = v
			cfg.Tokens = append(cfg.Tokens, tok)
		}
	}

	// ── Cache ──
	setStr(&cfg.Cache.Backend, "SUIMARKET_CACHE_BACKEND")
	setDuration(&cfg.Cache.Freshness, "SUIMARKET_CACHE_FRESHNESS")
	setDuration(&cfg.Cache.TTL, "SUIMARKET_CACHE_TTL")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SUIMARKET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SUIMARKET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SUIMARKET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SUIMARKET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SUIMARKET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SUIMARKET_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.Prefix, "SUIMARKET_REDIS_PREFIX")

	// ── Signer ──
	setStr(&cfg.Signer.URL, "SUIMARKET_SIGNER_URL")
	setStr(&cfg.Signer.KeyID, "SUIMARKET_SIGNER_KEY_ID")
	setStr(&cfg.Signer.Secret, "SUIMARKET_SIGNER_SECRET")
	setStr(&cfg.Signer.SecretFile, "SUIMARKET_SIGNER_SECRET_FILE")
	setStr(&cfg.Signer.SecretPassword, "SUIMARKET_SIGNER_SECRET_PASSWORD")
	setDuration(&cfg.Signer.Timeout, "SUIMARKET_SIGNER_TIMEOUT")

	// ── Server ──
	setInt(&cfg.Server.Port, "SUIMARKET_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SUIMARKET_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SUIMARKET_SERVER_API_KEY")
	setInt(&cfg.Server.ExecuteLimit, "SUIMARKET_SERVER_EXECUTE_LIMIT")
	setDuration(&cfg.Server.ExecuteWindow, "SUIMARKET_SERVER_EXECUTE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SUIMARKET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SUIMARKET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SUIMARKET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Levels, "SUIMARKET_NOTIFY_LEVELS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "SUIMARKET_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
