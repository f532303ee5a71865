package worker

import (
	"context"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

//go:generate mockgen -source=sweeper.go -destination=../mocks/worker/mock.go -package=mocks
type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically deletes documents whose time to live has passed.
type Sweeper struct {
	store    expiredPurger
	interval time.Duration
}

func NewSweeper(store expiredPurger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Sweeper{store: store, interval: interval}
}

// Run sweeps once per interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, strategy retry.Strategy) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	zlog.Logger.Info().Dur("interval", s.interval).Msg("sweeper started")

	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx, strategy)
		}
	}
}

// Sweep runs a single purge and returns the number of removed documents.
func (s *Sweeper) Sweep(ctx context.Context, strategy retry.Strategy) int64 {
	var purged int64

	err := retry.Do(func() error {
		n, err := s.store.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		purged = n
		return nil
	}, strategy)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to purge expired documents")
		return 0
	}

	if purged > 0 {
		zlog.Logger.Info().Int64("purged", purged).Msg("expired documents purged")
	}

	return purged
}
