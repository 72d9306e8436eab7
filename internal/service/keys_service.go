package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/repository"
	"github.com/bloomworks/florapost/pkg/utils"
)

type ApiKeyService interface {
	Create(ctx context.Context, label string) (string, error)
	List(ctx context.Context) ([]*models.ApiKey, error)
	Validate(ctx context.Context, apiKey string) (bool, error)
	RemoveAPIKey(ctx context.Context, keyID int64) error
}

type apiKeyService struct {
	k repository.ApiKeyRepository
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		k: k,
	}
}

func (s *apiKeyService) Create(ctx context.Context, label string) (string, error) {

	keys, err := s.k.List(ctx)
	if err != nil {
		return "", err
	}

	if len(keys) > 4 {
		err = errors.New("Only 5 API Keys can be created.")
		slog.Info(err.Error())
		return "", err
	}

	key, err := utils.GenerateRandomKey(16)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("Error generating API key")
	}

	apiKey := &models.ApiKey{
		Label:  label,
		ApiKey: key,
	}

	_, err = s.k.Create(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("Error saving API key")
	}

	return key, nil
}

func (s *apiKeyService) Validate(ctx context.Context, apiKey string) (bool, error) {
	if apiKey == "" {
		return false, nil
	}

	exists, err := s.k.Exists(ctx, apiKey)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (s *apiKeyService) List(ctx context.Context) ([]*models.ApiKey, error) {
	apiKeys, err := s.k.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("Error getting API keys")
	}
	return apiKeys, nil
}

func (s *apiKeyService) RemoveAPIKey(ctx context.Context, keyID int64) error {
	var err error

	if keyID == 0 {
		err = errors.New("KeyID is not valid")
		slog.Info(err.Error())
		return err
	}

	err = s.k.Remove(ctx, keyID)
	if err != nil {
		return err
	}
	return nil
}
