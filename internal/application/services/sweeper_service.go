package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

// SweeperService periodically deletes expired ephemeral rows (one-time
// codes and sessions) from the shared database. It is operational
// housekeeping only; the admission decision path never waits on it.
type SweeperService struct {
	repo     ports.EphemeralRepository
	interval time.Duration
	timeout  time.Duration
	logger   *logrus.Logger
	stop     chan struct{}
	done     chan struct{}
}

// SweeperConfig groups configuration parameters for the sweeper.
type SweeperConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

func NewSweeperService(repo ports.EphemeralRepository, cfg *SweeperConfig, logger *logrus.Logger) *SweeperService {
	// Apply defaults
	interval := time.Hour
	timeout := 30 * time.Second
	if cfg != nil {
		if cfg.Interval > 0 {
			interval = cfg.Interval
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}
	return &SweeperService{
		repo:     repo,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (s *SweeperService) Start() {
	go s.run()
}

// Stop ends the sweep loop and waits for an in-flight sweep to finish.
func (s *SweeperService) Stop() {
	close(s.stop)
	<-s.done
}

func (s *SweeperService) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *SweeperService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	now := time.Now()

	codes, err := s.repo.DeleteExpiredCodes(ctx, now)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to cleanup expired one-time codes")
		}
	}

	sessions, err := s.repo.DeleteExpiredSessions(ctx, now)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to cleanup expired sessions")
		}
	}

	if s.logger != nil && (codes > 0 || sessions > 0) {
		s.logger.WithFields(logrus.Fields{"one_time_codes": codes, "sessions": sessions}).Info("swept expired ephemeral rows")
	}
}
