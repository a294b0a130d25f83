package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebikillmachin/SUI/internal/domain"
)

const sample = `
log_level = "debug"

[network]
name = "testnet"
rpc_url = "http://127.0.0.1:9000"
timeout = "5s"

[protocol]
package_id = "0xfeed"
registry_id = "0xbeef"
config_id = "0xc0"

[[tokens]]
type = "0xdead::usdc::USDC"
symbol = "USDC"
decimals = 6

[cache]
backend = "redis"
freshness = "3s"

[signer]
url = "http://127.0.0.1:7000"
key_id = "ops"
secret = "s3cret"

[server]
port = 9090
api_key = "k"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suimarket.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesFileOnDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sui:testnet", cfg.Network.Chain())
	assert.Equal(t, 5*time.Second, cfg.Network.Timeout.Duration)
	assert.Equal(t, "0x6", cfg.Protocol.ClockID, "clock defaults to the system clock object")
	assert.Empty(t, cfg.Protocol.AdminCapID)
	assert.Equal(t, []domain.Token{{Type: "0xdead::usdc::USDC", Symbol: "USDC", Decimals: 6}}, cfg.Tokens)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 3*time.Second, cfg.Cache.Freshness.Duration)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL.Duration)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Signer.Enabled())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.ExecuteLimit)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SUIMARKET_PACKAGE_ID", "0xabc")
	t.Setenv("SUIMARKET_ADMIN_CAP_ID", "0xca9")
	t.Setenv("SUIMARKET_TOKEN_WBTC", "0x1::wbtc::WBTC")
	t.Setenv("SUIMARKET_TOKEN_WSOL", "0x2::wsol::WSOL")
	t.Setenv("SUIMARKET_CACHE_FRESHNESS", "750ms")
	t.Setenv("SUIMARKET_SERVER_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SUIMARKET_SERVER_PORT", "not-a-number")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "0xabc", cfg.Protocol.PackageID)
	assert.Equal(t, "0xca9", cfg.Protocol.AdminCapID)
	require.Len(t, cfg.Tokens, 3)
	assert.Equal(t, domain.Token{Type: "0x1::wbtc::WBTC", Symbol: "wBTC", Decimals: 8}, cfg.Tokens[1])
	assert.Equal(t, domain.Token{Type: "0x2::wsol::WSOL", Symbol: "wSOL", Decimals: 9}, cfg.Tokens[2])
	assert.Equal(t, 750*time.Millisecond, cfg.Cache.Freshness.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 9090, cfg.Server.Port, "unparsable values are ignored")
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Protocol.ConfigID = "not-hex"
	cfg.Cache.Backend = "disk"
	cfg.Signer.URL = "http://signer"
	cfg.Notify.TelegramToken = "t"
	cfg.Tokens = []domain.Token{{Type: "usdc", Decimals: 6}}

	err := cfg.Validate()
	require.ErrorIs(t, err, domain.ErrConfiguration)
	for _, want := range []string{
		"log_level",
		"package_id must be set",
		"registry_id must be set",
		`config_id "not-hex"`,
		"tokens[0]",
		`unknown backend "disk"`,
		"key_id is required",
		"telegram_chat_id",
	} {
		assert.Contains(t, err.Error(), want)
	}
	assert.NotContains(t, err.Error(), "admin_cap_id", "the admin cap is optional")
}

func TestRedactedConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	cfg.Notify.DiscordWebhookURL = "https://discord.example/hook"

	red := RedactedConfig(cfg)
	assert.Equal(t, "***", red.Signer.Secret)
	assert.Equal(t, "***", red.Server.APIKey)
	assert.Equal(t, "***", red.Notify.DiscordWebhookURL)
	assert.Empty(t, red.Redis.Password, "empty secrets stay empty")
	assert.Equal(t, "s3cret", cfg.Signer.Secret)

	red.Tokens[0].Symbol = "X"
	assert.Equal(t, "USDC", cfg.Tokens[0].Symbol)
}
