package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/cardmint/cardmint/internal/observability"
)

// ExpiryMarker transitions past-expiry cards to EXPIRED.
// Satisfied by the cards repository.
type ExpiryMarker interface {
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)
}

// ExpirySweeper handles scheduled card expiry sweeps.
type ExpirySweeper struct {
	cards   ExpiryMarker
	metrics *observability.Metrics
	log     *slog.Logger
}

// NewExpirySweeper constructs the expiry sweep handler.
func NewExpirySweeper(cards ExpiryMarker, metrics *observability.Metrics, log *slog.Logger) *ExpirySweeper {
	return &ExpirySweeper{cards: cards, metrics: metrics, log: log}
}

// Handle marks every active or blocked card whose expiry date has passed.
func (s *ExpirySweeper) Handle(ctx context.Context, task *asynq.Task) error {
	done := s.metrics.TrackJob(TaskCardExpirySweep)
	return done(s.run(ctx, task))
}

func (s *ExpirySweeper) run(ctx context.Context, task *asynq.Task) error {
	var payload ExpirySweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: decode expiry sweep payload: %w", err)
		}
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	expired, err := s.cards.MarkExpired(ctx, asOf)
	if err != nil {
		return fmt.Errorf("jobs: expiry sweep: %w", err)
	}
	s.log.Info("card expiry sweep finished",
		slog.Time("as_of", asOf),
		slog.Int64("expired", expired),
	)
	return nil
}
