package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	config "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/service"
	"github.com/bloomworks/florapost/pkg/utils"
)

const connectStateDuration = 10 * time.Minute

type PlatformHandler struct {
	ps  service.PlatformService
	nv  service.NaverService
	ig  service.InstagramService
	yt  service.YoutubeService
	cfg config.Config
}

func NewPlatformHandler(ps service.PlatformService, nv service.NaverService, ig service.InstagramService, yt service.YoutubeService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:  ps,
		nv:  nv,
		ig:  ig,
		yt:  yt,
		cfg: cfg,
	}
}

// AddPlatformAccount sends the operator to the platform's consent screen.
// The state parameter is a short-lived signed token checked on callback.
func (h *PlatformHandler) AddPlatformAccount(c *fiber.Ctx) error {
	state, err := utils.GenerateToken(h.cfg.SecretKey, connectStateDuration)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to start account connection",
		})
	}

	authURL := h.ps.GetAuthURL(c.Context(), c.Params("platform"), state)
	if authURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown platform",
		})
	}

	return c.Redirect(authURL)
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	platform := c.Params("platform")

	_, err := utils.ValidateToken(h.cfg.SecretKey, state)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate request",
		})
	}

	switch platform {
	case "naver":
		err = h.nv.NaverCallback(c.Context(), code, state)
	case "instagram":
		err = h.ig.InstagramCallback(c.Context(), code)
	case "youtube":
		err = h.yt.YoutubeCallback(c.Context(), code)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown platform",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	redirectURL := fmt.Sprintf("%s/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListPlatformAccounts(c *fiber.Ctx) error {
	accountList, err := h.ps.List(c.Context())
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch connected accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *PlatformHandler) DisconnectPlatformAccount(c *fiber.Ctx) error {
	platform := c.Query("platform")

	err := h.ps.Disconnect(c.Context(), platform)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Account not connected",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to disconnect account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
