package analytics

import (
	"context"
	"fmt"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository"
)

// Service exposes read-only rollups for the admin surface.
// Everything is computed over the activity log: legacy derived columns are
// gone and nothing here writes
type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

func (s *Service) ProgramStats(ctx context.Context) ([]models.ProgramStats, error) {
	stats, err := s.storage.Analytics().ProgramStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("program stats: %w", err)
	}

	return stats, nil
}
