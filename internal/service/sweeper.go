package service

import (
	"context"
	"time"

	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
)

// Sweeper periodically removes expired refresh records.
type Sweeper struct {
	sessions *SessionManager
	interval time.Duration
	log      logging.Logger
}

func NewSweeper(sessions *SessionManager, interval time.Duration, log logging.Logger) *Sweeper {
	if log == nil {
		log = logging.Discard()
	}
	return &Sweeper{sessions: sessions, interval: interval, log: log}
}

// Run sweeps every interval until ctx is done. A zero interval disables it.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	n, err := s.sessions.SweepExpired(ctx)
	if err != nil {
		s.log.Error(ctx, "session sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info(ctx, "expired sessions removed", "count", n)
	}
}
