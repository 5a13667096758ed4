package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/codegrade/codegrade-api/internal/models"
	"github.com/codegrade/codegrade-api/internal/repository"
)

// SeedService loads the judge reference data. Idempotent: existing rows are
// left untouched, so it runs on every boot.
type SeedService interface {
	Run(ctx context.Context) error
}

type seedService struct {
	languages repository.LanguageRepository
	statuses  repository.StatusRepository
	logger    zerolog.Logger
}

// NewSeedService builds the reference-data seeder.
func NewSeedService(languages repository.LanguageRepository, statuses repository.StatusRepository, logger zerolog.Logger) SeedService {
	return &seedService{
		languages: languages,
		statuses:  statuses,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) Run(ctx context.Context) error {
	if err := s.statuses.UpsertBatch(ctx, models.SeedStatuses()); err != nil {
		return err
	}
	if err := s.languages.UpsertBatch(ctx, models.SeedLanguages()); err != nil {
		return err
	}

	s.logger.Info().Msg("reference data seeded")
	return nil
}
