package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	cfg "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/repository"
	"github.com/bloomworks/florapost/internal/transfer"
)

type PostService interface {
	CreatePost(ctx context.Context, pc *transfer.PostCreation, files []*multipart.FileHeader) (string, time.Duration, error)
	List(ctx context.Context) ([]*models.FlowerPost, error)
	PostInfo(ctx context.Context, postID string) (*models.FlowerPost, error)
	Remove(ctx context.Context, postID string) error
}

type postService struct {
	config  cfg.Config
	pr      repository.PostRepository
	storage StorageService
}

func NewPostService(c cfg.Config, pr repository.PostRepository, storage StorageService) PostService {
	return &postService{
		config:  c,
		pr:      pr,
		storage: storage,
	}
}

// CreatePost validates the submission, stores the photographs and creates the
// pending post. The returned delay says how long until the post should be
// picked up for processing.
func (s *postService) CreatePost(ctx context.Context, pc *transfer.PostCreation, files []*multipart.FileHeader) (string, time.Duration, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return "", 0, err
	}

	var platforms []models.Platform
	if err := json.Unmarshal([]byte(pc.Platforms), &platforms); err != nil {
		err = fmt.Errorf("invalid platforms format: %w", err)
		slog.Error(err.Error())
		return "", 0, err
	}
	if len(platforms) == 0 {
		err := errors.New("no platforms selected")
		slog.Error(err.Error())
		return "", 0, err
	}

	// Requested platforms are a set. A duplicate entry would publish twice.
	seen := make(map[models.Platform]struct{}, len(platforms))
	unique := make([]models.Platform, 0, len(platforms))
	for _, platform := range platforms {
		if !platform.Valid() {
			err := fmt.Errorf("unsupported platform: %s", platform)
			slog.Error(err.Error())
			return "", 0, err
		}
		if _, ok := seen[platform]; ok {
			continue
		}
		seen[platform] = struct{}{}
		unique = append(unique, platform)
	}
	platforms = unique

	scheduleTime := time.Now()
	if pc.ScheduleTime != "" {
		parsed, err := time.Parse("2006-01-02T15:04", pc.ScheduleTime)
		if err != nil {
			err = fmt.Errorf("invalid schedule time format: %w", err)
			slog.Error(err.Error())
			return "", 0, err
		}
		scheduleTime = parsed
	}

	if len(files) == 0 {
		err := errors.New("no images provided for the post")
		slog.Error(err.Error())
		return "", 0, err
	}

	postID := uuid.NewString()

	imageURLs, err := s.processFiles(ctx, postID, files)
	if err != nil {
		return "", 0, fmt.Errorf("error processing images: %w", err)
	}

	now := time.Now()
	post := models.FlowerPost{
		ID:             postID,
		Title:          pc.Title,
		Description:    pc.Description,
		ImageURLs:      imageURLs,
		Platforms:      platforms,
		ScheduleTime:   scheduleTime,
		Status:         models.PostStatusPending,
		PublishResults: []models.PublishResult{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.pr.Create(ctx, &post); err != nil {
		return "", 0, fmt.Errorf("error creating post: %w", err)
	}

	delay := time.Until(scheduleTime)
	if delay < 0 {
		delay = 0
	}

	return postID, delay, nil
}

func (s *postService) processFiles(ctx context.Context, postID string, files []*multipart.FileHeader) ([]string, error) {
	allowedTypes := map[string]struct{}{
		"jpg": {}, "png": {}, "webp": {},
	}

	imageURLs := make([]string, 0, len(files))

	for _, file := range files {
		if s.config.MaxUploadSize > 0 && file.Size > s.config.MaxUploadSize {
			return nil, fmt.Errorf("file %s exceeds the upload limit", file.Filename)
		}

		fileContent, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening file: %w", err)
		}
		defer fileContent.Close()

		fileBytes, err := io.ReadAll(fileContent)
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return nil, fmt.Errorf("unsupported file type: %w", err)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		name, err := gonanoid.New()
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		key := fmt.Sprintf("posts/%s/%s.%s", postID, name, fileType.Extension)
		imageURL, err := s.storage.Upload(ctx, key, fileBytes, fileType.MIME.Value)
		if err != nil {
			return nil, fmt.Errorf("error uploading file: %w", err)
		}

		imageURLs = append(imageURLs, imageURL)
	}

	return imageURLs, nil
}

func (s *postService) List(ctx context.Context) ([]*models.FlowerPost, error) {
	posts, err := s.pr.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID string) (*models.FlowerPost, error) {
	if postID == "" {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	if post == nil {
		return nil, models.ErrPostNotFound
	}

	return post, nil
}

func (s *postService) Remove(ctx context.Context, postID string) error {
	if postID == "" {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return models.ErrPostNotFound
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}

	return nil
}
