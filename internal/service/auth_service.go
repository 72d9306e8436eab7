package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	config "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/pkg/utils"
)

const sessionDuration = 7 * 24 * time.Hour

type AuthService interface {
	Login(ctx context.Context, adminKey string) (string, error)
}

type authService struct {
	cfg config.Config
}

func NewAuthService(cfg config.Config) AuthService {
	return &authService{
		cfg: cfg,
	}
}

// Login trades the admin key for a session token.
func (s *authService) Login(ctx context.Context, adminKey string) (string, error) {
	var err error

	if adminKey == "" {
		err = errors.New("admin key is empty")
		slog.Info(err.Error())
		return "", err
	}

	if s.cfg.AdminKey == "" {
		err = errors.New("admin key is not configured")
		slog.Info(err.Error())
		return "", err
	}

	if subtle.ConstantTimeCompare([]byte(adminKey), []byte(s.cfg.AdminKey)) != 1 {
		err = errors.New("admin key is not valid")
		slog.Info(err.Error())
		return "", err
	}

	token, err := utils.GenerateToken(s.cfg.SecretKey, sessionDuration)
	if err != nil {
		return "", err
	}

	return token, nil
}
