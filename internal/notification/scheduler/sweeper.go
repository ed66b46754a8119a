package scheduler

import (
	"context"
	"time"

	"pwa-push-backend/pkg/logger"
)

// Pruner removes tokens the gateway no longer accepts
type Pruner interface {
	PruneDeadTokens(ctx context.Context) (int, error)
}

// TokenSweeper periodically prunes dead device tokens
type TokenSweeper struct {
	pruner   Pruner
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
}

// NewTokenSweeper creates a new sweeper; an interval of zero disables it
func NewTokenSweeper(pruner Pruner, interval time.Duration) *TokenSweeper {
	return &TokenSweeper{
		pruner:   pruner,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

var log = logger.For("sweeper")

// Start begins the sweep loop in the background
func (s *TokenSweeper) Start() {
	if s.interval <= 0 {
		log.Info("Token sweeper disabled")
		close(s.done)
		return
	}

	log.WithField("interval", s.interval.String()).Info("Starting token sweeper")

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				log.Info("Token sweeper stopped")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight sweep to finish
func (s *TokenSweeper) Stop() {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	<-s.done
}

func (s *TokenSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	removed, err := s.pruner.PruneDeadTokens(ctx)
	if err != nil {
		log.WithError(err).Error("Token sweep failed")
		return
	}
	if removed > 0 {
		log.WithField("removed", removed).Info("Deactivated dead tokens")
	}
}
