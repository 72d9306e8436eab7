package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/repository"
)

// PublisherService routes a post to the right platform integration. Publish
// never returns an error: any failure is folded into the result so one
// platform cannot take the others down with it.
type PublisherService interface {
	Publish(ctx context.Context, platform models.Platform, post *models.FlowerPost) *models.PublishResult
}

type publisherService struct {
	ar        repository.AccountRepository
	naver     NaverService
	instagram InstagramService
	youtube   YoutubeService
}

func NewPublisherService(
	ar repository.AccountRepository,
	naver NaverService,
	instagram InstagramService,
	youtube YoutubeService) PublisherService {
	return &publisherService{
		ar:        ar,
		naver:     naver,
		instagram: instagram,
		youtube:   youtube,
	}
}

func (s *publisherService) Publish(ctx context.Context, platform models.Platform, post *models.FlowerPost) (result *models.PublishResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("publishing to %s panicked: %v", platform, r))
			result = &models.PublishResult{
				Success:  false,
				Platform: platform,
				Error:    fmt.Sprintf("publish panic: %v", r),
			}
		}
	}()

	result, err := s.publish(ctx, platform, post)
	if err != nil {
		slog.Info(fmt.Sprintf("publishing to %s failed: %s", platform, err.Error()))
		return &models.PublishResult{
			Success:  false,
			Platform: platform,
			Error:    err.Error(),
		}
	}

	slog.Info(fmt.Sprintf("publishing to %s finished: success=%t", platform, result.Success))
	return result
}

func (s *publisherService) publish(ctx context.Context, platform models.Platform, post *models.FlowerPost) (*models.PublishResult, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: unsupported platform: %s", models.ErrPublishing, platform)
	}

	account, err := s.ar.GetByPlatform(ctx, platform)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, platform)
	}

	switch platform {
	case models.PlatformNaver:
		return s.naver.HandleNaverPost(ctx, post, account)
	case models.PlatformInstagram:
		return s.instagram.HandleInstagramPost(ctx, post, account)
	default:
		return s.youtube.HandleYoutubePost(ctx, post, account)
	}
}
