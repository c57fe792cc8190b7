package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/tranquilhq/tranquil-api/config"
	"github.com/tranquilhq/tranquil-api/internal/observability/statsd"
	"github.com/tranquilhq/tranquil-api/internal/ports"
)

// SessionReaperServiceOptions groups dependencies for SessionReaperService.
type SessionReaperServiceOptions struct {
	Sessions ports.SessionStore  // Required: session store to sweep
	Config   config.ReaperConfig // Required: reaper configuration
	Logger   *slog.Logger        // Optional: structured logger
	Metrics  statsd.Sink         // Optional: metrics sink (StatsD-compatible)
	Clock    func() time.Time    // Optional: defaults to time.Now
}

// SessionReaperService periodically reclaims expired session records. It
// exists for stores without native expiry; lookups already filter expired
// rows, so the sweep is about storage hygiene, not correctness.
type SessionReaperService struct {
	sessions ports.SessionStore
	config   config.ReaperConfig
	logger   *slog.Logger
	metrics  statsd.Sink
	clock    func() time.Time
}

// NewSessionReaperService constructs a new SessionReaperService.
func NewSessionReaperService(opts SessionReaperServiceOptions) (*SessionReaperService, error) {
	if opts.Sessions == nil {
		return nil, errors.New("SessionStore is required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "session_reaper")
	}

	return &SessionReaperService{
		sessions: opts.Sessions,
		config:   opts.Config,
		logger:   logger,
		metrics:  opts.Metrics,
		clock:    clock,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *SessionReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting session reaper",
			"interval", s.config.Interval, "batch_size", s.config.BatchSize)
	}

	// Jitter prevents a thundering herd when multiple instances start together.
	s.waitWithJitter(ctx)
	if ctx.Err() != nil {
		return nil
	}

	// Sweep immediately after jitter, then on the interval.
	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "session reaper stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

// Sweep deletes expired sessions in batches until the store reports no
// more, returning the total removed.
func (s *SessionReaperService) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.clock()
	var total int64
	for {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}

		n, err := s.sessions.DeleteExpired(ctx, cutoff, s.config.BatchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
}

func (s *SessionReaperService) sweepAndLog(ctx context.Context) {
	start := time.Now()
	removed, err := s.Sweep(ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		s.metrics.Count("reaper.sessions_deleted", removed, map[string]string{"result": result})
		s.metrics.Timing("reaper.sweep_duration", elapsed, nil)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "session sweep failed",
				"error", err, "removed", removed, "elapsed", elapsed)
		}
		// Keep running; the next tick retries.
		return
	}

	if s.logger != nil && removed > 0 {
		s.logger.InfoContext(ctx, "reclaimed expired sessions",
			"removed", removed, "elapsed", elapsed)
	}
}

// waitWithJitter delays up to 10% of the interval before the first sweep.
func (s *SessionReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup.
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}
