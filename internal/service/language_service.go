package service

import (
	"context"

	"github.com/codegrade/codegrade-api/internal/dto"
	"github.com/codegrade/codegrade-api/internal/repository"
)

// LanguageService lists the judge languages available for problems.
type LanguageService interface {
	List(ctx context.Context) ([]dto.LanguageResponse, error)
}

type languageService struct {
	languages repository.LanguageRepository
}

// NewLanguageService builds the language catalogue service.
func NewLanguageService(languages repository.LanguageRepository) LanguageService {
	return &languageService{languages: languages}
}

func (s *languageService) List(ctx context.Context) ([]dto.LanguageResponse, error) {
	languages, err := s.languages.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.LanguageResponse, 0, len(languages))
	for _, language := range languages {
		responses = append(responses, dto.NewLanguageResponse(language))
	}
	return responses, nil
}
