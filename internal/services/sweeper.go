package services

import (
	"context"
	"log"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
	"github.com/shadowshield/ShadowShield/internal/store"
	"github.com/shadowshield/ShadowShield/internal/utils"
)

// SweeperService drives time-based self-destruction: files whose policy
// deadline has passed are destroyed with reason Expired. Presentations
// against an expired policy already read Expired synchronously; the
// sweeper makes the destruction itself proactive.
type SweeperService struct {
	store     store.FileStore
	destroyer *DestructionService
	interval  time.Duration
	pool      *utils.WorkerPool
	now       func() time.Time
}

func NewSweeperService(st store.FileStore, destroyer *DestructionService, interval time.Duration, workers int) *SweeperService {
	if workers < 1 {
		workers = 4
	}
	return &SweeperService{
		store:     st,
		destroyer: destroyer,
		interval:  interval,
		pool:      utils.NewWorkerPool(workers),
		now:       time.Now,
	}
}

// Run loops until the context is cancelled.
func (s *SweeperService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.pool.Close()
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce destroys every file past its deadline and returns how many
// were picked up. Destruction runs on the worker pool, off the caller's
// path; Destroy itself is idempotent so overlapping sweeps are harmless.
func (s *SweeperService) SweepOnce(ctx context.Context) int {
	files, err := s.store.ListExpiredFiles(ctx, s.now())
	if err != nil {
		log.Printf("expiry sweep failed: %v", err)
		return 0
	}
	for _, file := range files {
		fileID := file.ID
		s.pool.AddTask(func() {
			if err := s.destroyer.Destroy(ctx, fileID, models.ReasonExpired); err != nil {
				log.Printf("failed to destroy expired file %s: %v", fileID.Hex(), err)
			}
		})
	}
	s.pool.Wait()
	return len(files)
}
