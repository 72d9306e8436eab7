package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/queue"
	"github.com/bloomworks/florapost/internal/service"
	"github.com/bloomworks/florapost/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	AsynqClient *asynq.Client
}

func NewPostHandler(service service.PostService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, AsynqClient: asynqClient}
}

// CreatePost accepts the multipart submission, stores the pending post and
// schedules its pipeline run. The response returns immediately; callers poll
// the post by id to follow progress.
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	title := c.FormValue("title")
	description := c.FormValue("description")
	platforms := c.FormValue("platforms")
	scheduleTime := c.FormValue("schedule_time")

	files := form.File["images"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No images selected",
		})
	}

	postID, delay, err := h.s.CreatePost(c.Context(), &transfer.PostCreation{
		Title:        title,
		Description:  description,
		Platforms:    platforms,
		ScheduleTime: scheduleTime},
		files)

	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	taskID, err := queue.EnqueuePost(h.AsynqClient, queue.ProcessPostPayload{PostID: postID}, delay)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post scheduled successfully",
		"post_id": postID,
		"task_id": taskID,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	postID := c.Query("id")

	if postID != "" {
		post, err := h.s.PostInfo(c.Context(), postID)
		if err != nil {
			if errors.Is(err, models.ErrPostNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "Post not found",
				})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get post",
			})
		}

		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	postID := c.Query("id")

	err := h.s.Remove(c.Context(), postID)
	if err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Post not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
