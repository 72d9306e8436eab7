package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/repository"
	"github.com/bloomworks/florapost/internal/service"
)

type TokenRefreshJob struct {
	ar repository.AccountRepository
	nv service.NaverService
	ig service.InstagramService
	yt service.YoutubeService
}

func NewTokenRefreshJob(
	ar repository.AccountRepository,
	nv service.NaverService,
	ig service.InstagramService,
	yt service.YoutubeService) *TokenRefreshJob {
	return &TokenRefreshJob{
		ar: ar,
		nv: nv,
		ig: ig,
		yt: yt,
	}
}

// RefreshTokens renews access tokens that expire within the next half hour,
// plus any that already lapsed.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	accounts, err := c.ar.ListExpiring(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, acc := range accounts {
		switch acc.Platform {
		case models.PlatformNaver:
			if err := c.nv.RefreshNaverToken(ctx, acc.RefreshToken); err != nil {
				slog.Info("Unable to refresh tokens for Naver")
			}
		case models.PlatformInstagram:
			if err := c.ig.RefreshInstagramToken(ctx, acc.RefreshToken); err != nil {
				slog.Info("Unable to refresh tokens for Instagram")
			}
		case models.PlatformYoutube:
			if err := c.yt.RefreshYoutubeToken(ctx, acc.RefreshToken); err != nil {
				slog.Info("Unable to refresh tokens for YouTube")
			}
		}
	}
}
