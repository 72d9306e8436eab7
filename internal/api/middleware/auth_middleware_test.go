package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/pkg/utils"
)

type stubKeyService struct {
	valid bool
	err   error
}

func (s *stubKeyService) Create(ctx context.Context, label string) (string, error) { return "", nil }
func (s *stubKeyService) List(ctx context.Context) ([]*models.ApiKey, error)       { return nil, nil }
func (s *stubKeyService) RemoveAPIKey(ctx context.Context, keyID int64) error      { return nil }

func (s *stubKeyService) Validate(ctx context.Context, apiKey string) (bool, error) {
	return s.valid, s.err
}

func testConfig() config.Config {
	return config.Config{
		SecretKey:  "test-secret-key",
		CookieName: "florapost_session",
	}
}

func newTestApp(keys *stubKeyService) *fiber.App {
	m := NewAuthMiddleware(testConfig(), keys)

	app := fiber.New()
	app.Use(m.AuthMiddleware())
	app.Get("/protected", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAuthMiddlewareNoCredentials(t *testing.T) {
	app := newTestApp(&stubKeyService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareValidAPIKey(t *testing.T) {
	app := newTestApp(&stubKeyService{valid: true})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected?api_key=abc123", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareInvalidAPIKey(t *testing.T) {
	app := newTestApp(&stubKeyService{valid: false})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected?api_key=wrong", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareValidCookie(t *testing.T) {
	app := newTestApp(&stubKeyService{})

	token, err := utils.GenerateToken(testConfig().SecretKey, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: testConfig().CookieName, Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	app := newTestApp(&stubKeyService{})

	token, err := utils.GenerateToken(testConfig().SecretKey, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareBadBearerToken(t *testing.T) {
	app := newTestApp(&stubKeyService{})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareExpiredCookie(t *testing.T) {
	app := newTestApp(&stubKeyService{})

	token, err := utils.GenerateToken(testConfig().SecretKey, -time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: testConfig().CookieName, Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareTamperedCookie(t *testing.T) {
	app := newTestApp(&stubKeyService{})

	token, err := utils.GenerateToken("some-other-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: testConfig().CookieName, Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
