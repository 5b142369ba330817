package database

import (
	"context"
	"fmt"
	"time"

	"github.com/insightboard/insightboard/pkg/logger"
)

// withRetry calls connect up to attempts times, sleeping delay between
// failures. The last error is returned when every attempt fails.
func withRetry(ctx context.Context, name string, attempts int, delay time.Duration, connect func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = connect(ctx); err == nil {
			return nil
		}
		logger.Warnf("attempt %d/%d: failed to connect to %s: %v", attempt, attempts, name, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s unreachable after %d attempts: %w", name, attempts, err)
}
