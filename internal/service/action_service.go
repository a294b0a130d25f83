package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sebikillmachin/SUI/internal/domain"
	"github.com/sebikillmachin/SUI/internal/notify"
	"github.com/sebikillmachin/SUI/internal/platform/sui"
	"github.com/sebikillmachin/SUI/internal/txbuilder"
)

// Signer signs a built transaction for a target chain.
type Signer interface {
	Sign(ctx context.Context, tx *txbuilder.Transaction, chain string) (sui.SignedTransaction, error)
}

// Submitter executes signed transactions.
type Submitter interface {
	ExecuteTransactionBlock(ctx context.Context, signed sui.SignedTransaction, opts sui.ExecuteOptions, requestType string) (sui.TransactionBlockResponse, error)
}

// ChainReader reports the chain a node serves.
type ChainReader interface {
	GetChainIdentifier(ctx context.Context) (string, error)
}

// NoticePublisher delivers notices.
type NoticePublisher interface {
	Notify(ctx context.Context, n notify.Notice) error
}

// Submission is the outcome of a successful Execute.
type Submission struct {
	ID     string        `json:"id"`
	Digest string        `json:"digest"`
	Events int           `json:"events"`
	Notice notify.Notice `json:"notice"`
}

// ActionService submits built transactions: sign, execute with effects and
// events, inspect the effects, then invalidate the market list and the
// actor's portfolio. It never retries.
type ActionService struct {
	signer        Signer
	submitter     Submitter
	cache         domain.QueryCache
	bus           domain.SignalBus
	notices       NoticePublisher
	expectedChain string
	networkOK     atomic.Bool
	locks         domain.LockManager
	lockTTL       time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// NewActionService creates an ActionService for expectedChain (for example
// "sui:testnet"). Submission stays enabled until VerifyNetwork says
// otherwise.
func NewActionService(
	signer Signer,
	submitter Submitter,
	cache domain.QueryCache,
	bus domain.SignalBus,
	notices NoticePublisher,
	expectedChain string,
	logger *slog.Logger,
) *ActionService {
	s := &ActionService{
		signer:        signer,
		submitter:     submitter,
		cache:         cache,
		bus:           bus,
		notices:       notices,
		expectedChain: expectedChain,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "action_service")),
	}
	s.networkOK.Store(true)
	return s
}

// WithLocks serialises submissions per owner: a second Execute for the same
// owner fails with domain.ErrLockHeld until the first finishes or ttl passes.
func (s *ActionService) WithLocks(locks domain.LockManager, ttl time.Duration) *ActionService {
	s.locks, s.lockTTL = locks, ttl
	return s
}

// ExpectedChain returns the chain submissions are signed for.
func (s *ActionService) ExpectedChain() string { return s.expectedChain }

// SubmissionEnabled reports whether the last network check passed.
func (s *ActionService) SubmissionEnabled() bool { return s.networkOK.Load() }

// VerifyNetwork compares the node's chain identifier with the expected
// chain. A mismatch disables submission; reads keep working. Networks
// without a well-known identifier are accepted.
func (s *ActionService) VerifyNetwork(ctx context.Context, node ChainReader) error {
	network := strings.TrimPrefix(s.expectedChain, "sui:")
	want, known := sui.ChainIdentifier(network)
	got, err := node.GetChainIdentifier(ctx)
	if err != nil {
		return fmt.Errorf("action_service: verify network: %w", err)
	}
	if known && got != want {
		s.networkOK.Store(false)
		s.logger.ErrorContext(ctx, "action_service: node serves a different chain, submission disabled",
			slog.String("expected", s.expectedChain),
			slog.String("chain_id", got),
		)
		return fmt.Errorf("action_service: node chain %s is not %s: %w", got, s.expectedChain, domain.ErrWrongNetwork)
	}
	s.networkOK.Store(true)
	return nil
}

// Execute signs and submits tx on behalf of owner. chain is the chain the
// caller believes it is on; empty means the expected chain.
//
// On success the market list and owner's portfolio are invalidated. On
// failure a notice is published and the error is returned: the wallet
// parse quirk becomes a *SubmissionError with a retry hint, anything else is
// returned unchanged.
func (s *ActionService) Execute(ctx context.Context, owner, chain string, tx *txbuilder.Transaction) (Submission, error) {
	if owner != "" {
		owner = normalizeID(owner)
	}
	id := uuid.NewString()
	logger := s.logger.With(slog.String("submission_id", id), slog.String("owner", owner))
	if chain == "" {
		chain = s.expectedChain
	}

	if !s.networkOK.Load() || chain != s.expectedChain {
		err := fmt.Errorf("action_service: submit on %s, expected %s: %w", chain, s.expectedChain, domain.ErrWrongNetwork)
		return Submission{}, s.fail(ctx, logger, owner, "", err)
	}

	if owner != "" {
		tx.Sender = owner
		if s.locks != nil {
			unlock, err := s.locks.Acquire(ctx, "submit:"+tx.Sender, s.lockTTL)
			if err != nil {
				err = fmt.Errorf("action_service: a submission for %s is in flight: %w", owner, err)
				return Submission{}, s.fail(ctx, logger, owner, "", err)
			}
			defer unlock()
		}
	}
	signed, err := s.signer.Sign(ctx, tx, chain)
	if err != nil {
		return Submission{}, s.fail(ctx, logger, owner, "", err)
	}
	digest, err := sui.DigestOf(signed.TxBytes)
	if err != nil {
		logger.WarnContext(ctx, "action_service: cannot compute local digest", slog.String("error", err.Error()))
	}

	resp, err := s.submitter.ExecuteTransactionBlock(ctx, signed,
		sui.ExecuteOptions{ShowEffects: true, ShowEvents: true}, sui.WaitForLocalExecution)
	if err != nil {
		return Submission{}, s.fail(ctx, logger, owner, digest, err)
	}
	if resp.Digest != "" {
		digest = resp.Digest
	}
	if resp.Effects != nil && resp.Effects.Status.Status != sui.StatusSuccess {
		err := &SubmissionError{
			Hint: "Transaction failed: " + resp.Effects.Status.Error,
			Err:  fmt.Errorf("action_service: %s: %s: %w", digest, resp.Effects.Status.Error, domain.ErrSubmission),
		}
		return Submission{}, s.fail(ctx, logger, owner, digest, err)
	}

	s.invalidate(ctx, logger, owner)

	notice := notify.NewNotice(notify.LevelSuccess, "Transaction submitted", "", s.now())
	notice.Owner, notice.Digest = owner, digest
	s.publish(ctx, logger, notice)

	logger.InfoContext(ctx, "action_service: transaction executed",
		slog.String("digest", digest),
		slog.Int("events", len(resp.Events)),
	)
	return Submission{ID: id, Digest: digest, Events: len(resp.Events), Notice: notice}, nil
}

// fail classifies err, publishes an error notice and returns the classified
// error.
func (s *ActionService) fail(ctx context.Context, logger *slog.Logger, owner, digest string, err error) error {
	err = classifySubmission(err)
	logger.WarnContext(ctx, "action_service: submission failed",
		slog.String("digest", digest),
		slog.String("error", err.Error()),
	)
	notice := notify.NewNotice(notify.LevelError, "Transaction failed", UserMessage(err), s.now())
	notice.Owner, notice.Digest = owner, digest
	s.publish(ctx, logger, notice)
	return err
}

func (s *ActionService) publish(ctx context.Context, logger *slog.Logger, n notify.Notice) {
	if s.notices == nil {
		return
	}
	if err := s.notices.Notify(ctx, n); err != nil {
		logger.WarnContext(ctx, "action_service: notice delivery failed", slog.String("error", err.Error()))
	}
}

// invalidate drops every cached market list and owner's portfolio, then
// announces it on the bus. Failures are logged; the transaction has landed
// either way and the freshness window bounds staleness.
func (s *ActionService) invalidate(ctx context.Context, logger *slog.Logger, owner string) {
	keys := []domain.CacheKey{{Kind: domain.KindMarkets}}
	if err := s.cache.InvalidateKind(ctx, domain.KindMarkets); err != nil {
		logger.WarnContext(ctx, "action_service: invalidate markets failed", slog.String("error", err.Error()))
	}
	if owner != "" {
		key := PortfolioKey(owner)
		keys = append(keys, key)
		if err := s.cache.Invalidate(ctx, key); err != nil {
			logger.WarnContext(ctx, "action_service: invalidate portfolio failed",
				slog.String("key", key.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.bus == nil {
		return
	}
	payload, _ := json.Marshal(domain.InvalidationEvent{Keys: keys, Reason: "transaction"})
	if err := s.bus.Publish(ctx, domain.ChannelInvalidate, payload); err != nil {
		logger.WarnContext(ctx, "action_service: publish invalidation failed", slog.String("error", err.Error()))
	}
}
