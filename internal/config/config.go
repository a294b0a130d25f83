// Package config defines the top-level configuration of the market client
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/platform/sui"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SUIMARKET_* environment variables.
type Config struct {
	Network  NetworkConfig  `toml:"network"`
	Protocol ProtocolConfig `toml:"protocol"`
	Tokens   []domain.Token `toml:"tokens"`
	Cache    CacheConfig    `toml:"cache"`
	Redis    RedisConfig    `toml:"redis"`
	Signer   SignerConfig   `toml:"signer"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	LogLevel string         `toml:"log_level"`
}

// NetworkConfig selects the ledger network and the full node to read from.
type NetworkConfig struct {
	Name    string   `toml:"name"`
	RPCURL  string   `toml:"rpc_url"`
	Timeout duration `toml:"timeout"`
}

// Chain is the wallet chain identifier of the network, e.g. "sui:testnet".
func (n NetworkConfig) Chain() string { return "sui:" + n.Name }

// ProtocolConfig holds the deployed protocol's object ids.
type ProtocolConfig struct {
	PackageID  string `toml:"package_id"`
	RegistryID string `toml:"registry_id"`
	ConfigID   string `toml:"config_id"`
	ClockID    string `toml:"clock_id"`
	// AdminCapID is optional; without it finalize is unavailable.
	AdminCapID string `toml:"admin_cap_id"`
}

// CacheConfig selects the query cache backend.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Freshness duration `toml:"freshness"`
	TTL       duration `toml:"ttl"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	Prefix     string `toml:"prefix"`
}

// SignerConfig points at the external signing bridge. The HMAC secret is
// read from Secret, or from SecretFile sealed with SecretPassword.
type SignerConfig struct {
	URL            string   `toml:"url"`
	KeyID          string   `toml:"key_id"`
	Secret         string   `toml:"secret"`
	SecretFile     string   `toml:"secret_file"`
	SecretPassword string   `toml:"secret_password"`
	Timeout        duration `toml:"timeout"`
}

// Enabled reports whether a signer bridge is configured.
func (s SignerConfig) Enabled() bool { return s.URL != "" }

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port          int      `toml:"port"`
	CORSOrigins   []string `toml:"cors_origins"`
	APIKey        string   `toml:"api_key"`
	ExecuteLimit  int      `toml:"execute_limit"`
	ExecuteWindow duration `toml:"execute_window"`
}

// NotifyConfig holds operator alert channels. Levels filters which notice
// levels reach them; empty means errors only.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Levels            []string `toml:"levels"`
}

// Defaults returns a Config for the public testnet with in-memory caching.
// Protocol ids have no default.
func Defaults() Config {
	return Config{
		Network: NetworkConfig{
			Name:    "testnet",
			RPCURL:  "https://fullnode.testnet.sui.io:443",
			Timeout: duration{15 * time.Second},
		},
		Protocol: ProtocolConfig{
			ClockID: "0x6",
		},
		Cache: CacheConfig{
			Backend:   "memory",
			Freshness: duration{10 * time.Second},
			TTL:       duration{10 * time.Minute},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			Prefix:     "suimarket:",
		},
		Signer: SignerConfig{
			Timeout: duration{30 * time.Second},
		},
		Server: ServerConfig{
			Port:          8080,
			ExecuteLimit:  10,
			ExecuteWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Levels: []string{"error"},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validNetworks = map[string]bool{
	"mainnet":  true,
	"testnet":  true,
	"devnet":   true,
	"localnet": true,
}

// Validate checks Config for invalid or missing values and returns one error
// describing every problem found. It wraps domain.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Network
	if !validNetworks[c.Network.Name] {
		errs = append(errs, fmt.Sprintf("network: unknown name %q (valid: mainnet, testnet, devnet, localnet)", c.Network.Name))
	}
	if c.Network.RPCURL == "" {
		errs = append(errs, "network: rpc_url must not be empty")
	}

	// Protocol
	ids := []struct {
		name, value string
		required    bool
	}{
		{"package_id", c.Protocol.PackageID, true},
		{"registry_id", c.Protocol.RegistryID, true},
		{"config_id", c.Protocol.ConfigID, true},
		{"clock_id", c.Protocol.ClockID, true},
		{"admin_cap_id", c.Protocol.AdminCapID, false},
	}
	for _, id := range ids {
		switch {
		case id.value == "" && id.required:
			errs = append(errs, "protocol: "+id.name+" must be set")
		case id.value != "" && !sui.IsAddress(id.value):
			errs = append(errs, fmt.Sprintf("protocol: %s %q is not a hex object id", id.name, id.value))
		}
	}

	// Tokens
	for i, t := range c.Tokens {
		if _, err := sui.ParseTypeTag(t.Type); err != nil {
			errs = append(errs, fmt.Sprintf("tokens[%d]: type %q: %v", i, t.Type, err))
		}
		if t.Decimals < 0 || t.Decimals > 38 {
			errs = append(errs, fmt.Sprintf("tokens[%d]: decimals must be 0-38, got %d", i, t.Decimals))
		}
	}

	// Cache
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty for the redis cache backend")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: memory, redis)", c.Cache.Backend))
	}
	if c.Cache.Freshness.Duration <= 0 {
		errs = append(errs, "cache: freshness must be > 0")
	}

	// Signer
	if c.Signer.Enabled() {
		if c.Signer.KeyID == "" {
			errs = append(errs, "signer: key_id is required when url is set")
		}
		if c.Signer.Secret == "" && c.Signer.SecretFile == "" {
			errs = append(errs, "signer: either secret or secret_file must be set when url is set")
		}
		if c.Signer.SecretFile != "" && c.Signer.SecretPassword == "" {
			errs = append(errs, "signer: secret_password is required when secret_file is set")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ExecuteLimit < 0 {
		errs = append(errs, "server: execute_limit must be >= 0")
	}
	if c.Server.ExecuteLimit > 0 && c.Server.ExecuteWindow.Duration <= 0 {
		errs = append(errs, "server: execute_window must be > 0 when execute_limit is set")
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	for _, l := range c.Notify.Levels {
		if l != "success" && l != "error" {
			errs = append(errs, fmt.Sprintf("notify: unknown level %q (valid: success, error)", l))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: validation failed:\n  - %s", domain.ErrConfiguration, strings.Join(errs, "\n  - "))
	}
	return nil
}
