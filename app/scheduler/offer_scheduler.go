// Package scheduler
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/repository"
	"github.com/AlexPupki/gtsv-pricing/utils"
)

// OfferScheduler periodically advances offer lifecycles: planned offers whose
// validity window has opened become active, and active or paused offers whose
// window has closed become expired.
type OfferScheduler struct {
	offerRepo repository.OfferRepository
	auditRepo repository.AuditLogRepository
	logger    *log.Logger
	interval  time.Duration

	db *gorm.DB

	logFile *os.File
}

func NewOfferScheduler(
	offerRepo repository.OfferRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
	interval time.Duration,
) *OfferScheduler {
	if interval <= 0 {
		interval = time.Minute
	}

	s := &OfferScheduler{
		offerRepo: offerRepo,
		auditRepo: auditRepo,
		db:        db,
		interval:  interval,
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *OfferScheduler) initSchedulerLogger() error {
	// Prefer relative data/ then fallback to /data for containerized environments
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "scheduler.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create scheduler log file in any candidate directory")
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *OfferScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				if s.logFile != nil {
					s.logFile.Close()
				}
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *OfferScheduler) runOnce(ctx context.Context) {
	now := utils.UTCNow()

	s.activateDue(ctx, now)
	s.expireDue(ctx, now)
}

func (s *OfferScheduler) activateDue(ctx context.Context, now time.Time) {
	due, err := s.offerRepo.ListDueForActivation(ctx, now)
	if err != nil {
		s.logger.Printf("scheduler: list offers due for activation failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	s.logger.Printf("scheduler: %d offers due for activation", len(due))

	for _, offer := range due {
		if err := s.transition(ctx, offer, models.OfferStatusActive); err != nil {
			s.logger.Printf("scheduler: activate offer id=%d failed: %v", offer.ID, err)
			continue
		}
		s.logger.Printf("scheduler: offer id=%d uuid=%s activated", offer.ID, offer.UUID)
	}
}

func (s *OfferScheduler) expireDue(ctx context.Context, now time.Time) {
	due, err := s.offerRepo.ListDueForExpiry(ctx, now)
	if err != nil {
		s.logger.Printf("scheduler: list offers due for expiry failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	s.logger.Printf("scheduler: %d offers due for expiry", len(due))

	for _, offer := range due {
		if err := s.transition(ctx, offer, models.OfferStatusExpired); err != nil {
			s.logger.Printf("scheduler: expire offer id=%d failed: %v", offer.ID, err)
			continue
		}
		s.logger.Printf("scheduler: offer id=%d uuid=%s expired", offer.ID, offer.UUID)
	}
}

// transition moves one offer to the target status and records an audit row in
// the same transaction. The repository query that selected the offer may race
// an admin mutation, so the status guard runs again inside the transaction.
func (s *OfferScheduler) transition(ctx context.Context, offer *models.Offer, target models.OfferStatus) error {
	return repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		current, err := s.offerRepo.ByUUID(txCtx, offer.UUID.String())
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("offer %s no longer exists", offer.UUID)
		}
		if !current.CanTransitionTo(target) {
			return fmt.Errorf("offer %s cannot move from %s to %s", offer.UUID, current.Status, target)
		}

		if err := s.offerRepo.UpdateStatus(txCtx, current.ID, target); err != nil {
			return err
		}

		metadata, _ := json.Marshal(map[string]any{
			"offer_uuid": current.UUID,
			"from":       current.Status.String(),
			"to":         target.String(),
			"source":     "scheduler",
		})
		description := fmt.Sprintf("offer %s moved to %s by scheduler", current.UUID, target)
		return s.auditRepo.Save(txCtx, &models.AuditLog{
			Action:      models.AuditActionOfferStatusChanged,
			Description: &description,
			Metadata:    metadata,
			Success:     utils.ToPtr(true),
		})
	})
}
