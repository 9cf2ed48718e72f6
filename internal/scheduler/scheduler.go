package scheduler

import (
	"context"
	"time"

	"github.com/phuslu/log"
)

type Task func(ctx context.Context) error

// Every runs task immediately, then on each tick, until ctx is cancelled.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	go func() {
		if err := task(ctx); err != nil {
			log.Error().Str("task", name).Err(err).Msg("scheduled task failed")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := task(ctx); err != nil {
				log.Error().Str("task", name).Err(err).Msg("scheduled task failed")
			}
		}
	}
}
