package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	cfg "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/models"
)

type VideoService interface {
	CreateShortsVideo(ctx context.Context, postID string, imageURLs []string, flowerData *models.FlowerData) (string, error)
}

type videoService struct {
	config  cfg.Config
	storage StorageService
	hc      *http.Client
}

func NewVideoService(c cfg.Config, storage StorageService) VideoService {
	return &videoService{
		config:  c,
		storage: storage,
		hc:      &http.Client{Timeout: 60 * time.Second},
	}
}

// CreateShortsVideo renders a 9:16 slideshow from the post images with ffmpeg,
// overlays the flower name on the first clip and the flower meaning on the
// last one, then uploads the result and returns its public URL.
func (s *videoService) CreateShortsVideo(ctx context.Context, postID string, imageURLs []string, flowerData *models.FlowerData) (string, error) {
	if len(imageURLs) == 0 {
		return "", fmt.Errorf("%w: no images to render", models.ErrRender)
	}

	tmpDir, err := os.MkdirTemp("", "shorts-")
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("%w: %v", models.ErrRender, err)
	}
	defer os.RemoveAll(tmpDir)

	imagePaths, err := s.downloadImages(ctx, tmpDir, imageURLs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrRender, err)
	}

	duration := s.config.ShortsDuration
	if duration <= 0 {
		duration = 15
	}
	clipDuration := float64(duration) / float64(len(imagePaths))

	listPath := filepath.Join(tmpDir, "concat.txt")
	if err := writeConcatList(listPath, imagePaths, clipDuration); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("%w: %v", models.ErrRender, err)
	}

	outputPath := filepath.Join(tmpDir, "shorts_video.mp4")
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vf", s.buildFilter(flowerData, clipDuration, float64(duration), len(imagePaths)),
		"-c:v", "libx264",
		"-preset", "medium",
		"-t", fmt.Sprintf("%d", duration),
		outputPath,
	}

	cmd := exec.CommandContext(ctx, s.config.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Info(stderr.String())
		return "", fmt.Errorf("%w: ffmpeg: %v", models.ErrRender, err)
	}

	videoData, err := os.ReadFile(outputPath)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("%w: %v", models.ErrRender, err)
	}

	key := fmt.Sprintf("posts/%s/shorts_video.mp4", postID)
	videoURL, err := s.storage.Upload(ctx, key, videoData, "video/mp4")
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrRender, err)
	}

	slog.Info(fmt.Sprintf("shorts video rendered: %s", videoURL))
	return videoURL, nil
}

func (s *videoService) downloadImages(ctx context.Context, dir string, imageURLs []string) ([]string, error) {
	paths := make([]string, 0, len(imageURLs))

	for i, imageURL := range imageURLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		resp, err := s.hc.Do(req)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d fetching image", resp.StatusCode)
		}

		path := filepath.Join(dir, fmt.Sprintf("img_%03d.jpg", i))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// buildFilter scales every frame into a centered 1080x1920 crop and draws the
// two text overlays. The name shows during the first clip, the meaning during
// the last one when there is more than one image.
func (s *videoService) buildFilter(flowerData *models.FlowerData, clipDuration, total float64, imageCount int) string {
	filters := []string{
		"scale=1080:1920:force_original_aspect_ratio=increase",
		"crop=1080:1920",
		"setsar=1",
		"fps=30",
		"format=yuv420p",
	}

	name := fmt.Sprintf("%s | %s", flowerData.FlowerType.Korean, flowerData.FlowerType.English)
	filters = append(filters, fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=70:x=(w-text_w)/2:y=h-260:enable='lt(t,%.2f)'",
		escapeDrawtext(name), clipDuration,
	))

	if imageCount > 1 {
		meaning := fmt.Sprintf("꽃말: %s", flowerData.Meaning)
		filters = append(filters, fmt.Sprintf(
			"drawtext=text='%s':fontcolor=white:fontsize=60:x=(w-text_w)/2:y=(h-text_h)/2:enable='gte(t,%.2f)'",
			escapeDrawtext(meaning), total-clipDuration,
		))
	}

	return strings.Join(filters, ",")
}

func writeConcatList(path string, imagePaths []string, clipDuration float64) error {
	var sb strings.Builder
	for _, p := range imagePaths {
		sb.WriteString(fmt.Sprintf("file '%s'\n", p))
		sb.WriteString(fmt.Sprintf("duration %.2f\n", clipDuration))
	}
	// Concat demuxer needs the last file repeated for the final duration.
	sb.WriteString(fmt.Sprintf("file '%s'\n", imagePaths[len(imagePaths)-1]))

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func escapeDrawtext(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(text)
}
