package services

import (
	"context"

	"github.com/shadowshield/ShadowShield/internal/models"
	"github.com/shadowshield/ShadowShield/internal/store"
)

// DashboardStats are the counters the security dashboard renders.
type DashboardStats struct {
	ProtectedFiles    int64 `json:"protected_files"`
	DestroyedFiles    int64 `json:"destroyed_files"`
	IntrusionAttempts int64 `json:"intrusion_attempts"`
	TotalEvents       int64 `json:"total_events"`
}

// StatsService aggregates dashboard counters from the store.
type StatsService struct {
	store store.Store
}

func NewStatsService(st store.Store) *StatsService {
	return &StatsService{store: st}
}

func (s *StatsService) Snapshot(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	var err error

	if stats.ProtectedFiles, err = s.store.CountFiles(ctx, false); err != nil {
		return stats, err
	}
	if stats.DestroyedFiles, err = s.store.CountFiles(ctx, true); err != nil {
		return stats, err
	}
	if stats.IntrusionAttempts, err = s.store.CountEvents(ctx, models.SeverityWarning, models.SeverityCritical); err != nil {
		return stats, err
	}
	if stats.TotalEvents, err = s.store.CountEvents(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}
