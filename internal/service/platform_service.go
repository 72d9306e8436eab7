package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	config "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/repository"
	"github.com/bloomworks/florapost/pkg/utils"
)

type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, state string) string
	List(ctx context.Context) ([]*models.PlatformAccount, error)
	Disconnect(ctx context.Context, platform string) error
}

type platformService struct {
	cfg       config.Config
	ar        repository.AccountRepository
	naver     NaverService
	instagram InstagramService
	youtube   YoutubeService
}

func NewPlatformService(cfg config.Config, ar repository.AccountRepository, naver NaverService, instagram InstagramService, youtube YoutubeService) PlatformService {
	return &platformService{
		cfg:       cfg,
		ar:        ar,
		naver:     naver,
		instagram: instagram,
		youtube:   youtube,
	}
}

// GetAuthURL returns the consent screen URL for the platform, or an empty
// string for a platform nobody publishes to.
func (s *platformService) GetAuthURL(ctx context.Context, platform, state string) string {
	switch models.Platform(platform) {
	case models.PlatformNaver:
		return s.naver.AuthURL(state)
	case models.PlatformInstagram:
		return s.instagram.AuthURL(state)
	case models.PlatformYoutube:
		return s.youtube.AuthURL(state)
	default:
		return ""
	}
}

func (s *platformService) List(ctx context.Context) ([]*models.PlatformAccount, error) {
	accounts, err := s.ar.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("Error getting connected accounts")
	}

	return accounts, nil
}

func (s *platformService) Disconnect(ctx context.Context, platform string) error {
	var err error

	p := models.Platform(platform)
	if !p.Valid() {
		err = errors.New("Platform is not valid")
		slog.Info(err.Error())
		return err
	}

	accountInfo, err := s.ar.GetByPlatform(ctx, p)
	if err != nil {
		return fmt.Errorf("Unable to get account info")
	}
	if accountInfo == nil {
		err = fmt.Errorf("%w: %s", models.ErrAccountNotFound, p)
		slog.Info(err.Error())
		return err
	}

	decryptedAccessToken, err := utils.Decrypt(accountInfo.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	switch accountInfo.Platform {
	case models.PlatformYoutube:
		err = revokeGoogleAccess(decryptedAccessToken)
		if err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("Unable to revoke access")
		}
	}

	err = s.ar.Remove(ctx, p)
	if err != nil {
		return fmt.Errorf("Error removing account info")
	}

	return nil
}
