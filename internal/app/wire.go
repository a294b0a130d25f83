package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sebikillmachin/SUI/internal/cache/memory"
	"github.com/sebikillmachin/SUI/internal/cache/redis"
	"github.com/sebikillmachin/SUI/internal/coin"
	"github.com/sebikillmachin/SUI/internal/config"
	"github.com/sebikillmachin/SUI/internal/crypto"
	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/notify"
	"github.com/sebikillmachin/SUI/internal/platform/sui"
	"github.com/sebikillmachin/SUI/internal/projection"
	"github.com/sebikillmachin/SUI/internal/service"
	"github.com/sebikillmachin/SUI/internal/txbuilder"
)

// Dependencies bundles everything the commands need. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Node     *sui.Client
	Registry *coin.Registry
	Builder  *txbuilder.Builder

	// Caches
	Cache       domain.QueryCache
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager

	// Services
	Markets    *service.MarketService
	Portfolios *service.PortfolioService
	Intents    *service.IntentService
	// Actions is nil when no signer bridge is configured.
	Actions *service.ActionService

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Full node ---
	node, err := sui.Dial(ctx, cfg.Network.RPCURL, cfg.Network.Timeout.Duration)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: sui node: %w", err)
	}
	closers = append(closers, node.Close)
	deps.Node = node

	deps.Registry = coin.NewRegistry(cfg.Tokens)
	deps.Builder = txbuilder.New(txbuilder.ProtocolIDs{
		PackageID:  cfg.Protocol.PackageID,
		ConfigID:   cfg.Protocol.ConfigID,
		ClockID:    cfg.Protocol.ClockID,
		AdminCapID: cfg.Protocol.AdminCapID,
	})

	// --- Cache backend ---
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			Prefix:     cfg.Redis.Prefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cache = redis.NewQueryCache(redisClient, cfg.Cache.TTL.Duration)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
	default:
		deps.Cache = memory.NewQueryCache().WithRetention(cfg.Cache.TTL.Duration)
		deps.SignalBus = memory.NewSignalBus()
		deps.RateLimiter = memory.NewRateLimiter()
		deps.LockManager = memory.NewLockManager()
	}

	// --- Projection and query services ---
	assets := make([]string, 0, len(deps.Registry.Tokens()))
	for _, t := range deps.Registry.Tokens() {
		assets = append(assets, t.Type)
	}
	freshness := cfg.Cache.Freshness.Duration
	deps.Markets = service.NewMarketService(
		projection.NewMarketProjector(node, logger),
		deps.Cache, cfg.Protocol.RegistryID, freshness, logger,
	)
	deps.Portfolios = service.NewPortfolioService(
		projection.NewPortfolioReconciler(node, cfg.Protocol.PackageID, assets, logger),
		deps.Cache, freshness, logger,
	)
	deps.Intents = service.NewIntentService(deps.Builder, deps.Markets, deps.Registry)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(deps.SignalBus, senders, cfg.Notify.Levels, logger)

	// --- Signer bridge (submission only) ---
	if cfg.Signer.Enabled() {
		secret, err := crypto.LoadSecret(crypto.SecretSource{
			Raw:      cfg.Signer.Secret,
			Path:     cfg.Signer.SecretFile,
			Password: cfg.Signer.SecretPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer secret: %w", err)
		}
		signer, err := crypto.NewBridgeSigner(cfg.Signer.URL,
			&crypto.HMACAuth{KeyID: cfg.Signer.KeyID, Secret: secret},
			cfg.Signer.Timeout.Duration)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
		deps.Actions = service.NewActionService(
			signer, node, deps.Cache, deps.SignalBus, deps.Notifier,
			cfg.Network.Chain(), logger,
		).WithLocks(deps.LockManager, cfg.Signer.Timeout.Duration+cfg.Network.Timeout.Duration)
	} else {
		logger.InfoContext(ctx, "wire: no signer configured, submission disabled")
	}

	return deps, cleanup, nil
}
