// Package connect waits for a storage backend to become reachable at startup.
package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/videostream/internal/logger"
)

// PingFunc checks a backend once. It must honour ctx.
type PingFunc func(ctx context.Context) error

// Options defines the retry policy.
type Options struct {
	Timeout       time.Duration // total time allowed for attempts (ex: 30s)
	RetryInterval time.Duration // initial wait between attempts, doubles each time (ex: 2s)
	MaxWait       time.Duration // cap on the wait between attempts (ex: 10s)
	PingTimeout   time.Duration // deadline for a single attempt (ex: 5s)
	WarnThreshold int           // attempts logged at warn level before switching to error
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	switch {
	case o.Timeout <= 0:
		return fmt.Errorf("connect timeout must be > 0, got %v", o.Timeout)
	case o.RetryInterval <= 0:
		return fmt.Errorf("retry interval must be > 0, got %v", o.RetryInterval)
	case o.MaxWait <= 0:
		return fmt.Errorf("max wait must be > 0, got %v", o.MaxWait)
	case o.PingTimeout <= 0:
		return fmt.Errorf("ping timeout must be > 0, got %v", o.PingTimeout)
	case o.WarnThreshold < 0:
		return fmt.Errorf("warn threshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

// WaitFor calls ping until it succeeds, backing off exponentially between
// attempts. It gives up once opts.Timeout has elapsed or ctx is done and
// returns the last ping error wrapped.
func WaitFor(ctx context.Context, target string, ping PingFunc, opts Options, log logger.Logger) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	log = log.With(logger.String("target", target))
	log.Info("waiting for storage", logger.Duration("timeout", opts.Timeout))

	start := time.Now()
	wait := opts.RetryInterval

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("storage reachable after retry",
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("storage reachable")
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("storage unavailable, giving up",
				logger.Int("attempts", attempt),
				logger.Duration("timeout", opts.Timeout),
				logger.Error(err))
			return fmt.Errorf("%s unavailable after %d attempts (timeout: %v): %w",
				target, attempt, opts.Timeout, err)
		case <-timer.C:
		}

		logRetry(log, attempt, timeLeft(ctx), wait, opts.WarnThreshold, err)

		wait *= 2
		if wait > opts.MaxWait {
			wait = opts.MaxWait
		}
	}
}

func logRetry(log logger.Logger, attempt int, remaining, waited time.Duration, warnThreshold int, err error) {
	switch {
	case remaining < 10*time.Second:
		log.Error("storage still down, timeout approaching",
			logger.Int("attempt", attempt),
			logger.Duration("remaining", remaining),
			logger.Duration("waited", waited),
			logger.Error(err))
	case attempt <= warnThreshold:
		log.Warn("storage not reachable, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("waited", waited),
			logger.Error(err))
	default:
		log.Error("storage still unavailable",
			logger.Int("attempt", attempt),
			logger.Duration("waited", waited),
			logger.Error(err))
	}
}

func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
