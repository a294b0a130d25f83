// Package notify turns submission outcomes into notices. Every notice is
// published on the signal bus for connected clients; operator channels
// (Discord, Telegram) receive the levels they are configured for.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// Sender is an operator alert channel.
type Sender interface {
	Send(ctx context.Context, n Notice) error
	// Name returns a human-readable identifier (e.g. "discord").
	Name() string
}

// Notifier publishes notices to the bus and forwards selected levels to
// operator senders.
type Notifier struct {
	bus     domain.SignalBus
	senders []Sender
	levels  map[Level]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. Only notices whose level appears in levels
// reach the senders; an empty list forwards errors only.
func NewNotifier(bus domain.SignalBus, senders []Sender, levels []string, logger *slog.Logger) *Notifier {
	allowed := make(map[Level]bool, len(levels))
	for _, l := range levels {
		allowed[Level(strings.TrimSpace(l))] = true
	}
	if len(allowed) == 0 {
		allowed[LevelError] = true
	}
	return &Notifier{
		bus:     bus,
		senders: senders,
		levels:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify publishes n on the notice channel and dispatches it to operator
// senders. Delivery failures are logged and returned combined; the bus
// publish is attempted regardless of sender failures.
func (n *Notifier) Notify(ctx context.Context, notice Notice) error {
	var errs []string

	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("notify: marshal notice: %w", err)
	}
	if n.bus != nil {
		if err := n.bus.Publish(ctx, domain.ChannelNotice, payload); err != nil {
			n.logger.WarnContext(ctx, "notifier: publish failed", slog.String("error", err.Error()))
			errs = append(errs, fmt.Sprintf("bus: %v", err))
		}
	}

	if n.levels[notice.Level] {
		for _, s := range n.senders {
			if err := s.Send(ctx, notice); err != nil {
				n.logger.ErrorContext(ctx, "notifier: sender failed",
					slog.String("sender", s.Name()),
					slog.String("error", err.Error()),
				)
				errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
				continue
			}
			n.logger.DebugContext(ctx, "notifier: notice sent",
				slog.String("sender", s.Name()),
				slog.String("notice_id", notice.ID),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d delivery failure(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
