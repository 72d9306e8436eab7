package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/repository"
	"github.com/bloomworks/florapost/internal/service"
)

// Outcome is what one pipeline run reports back to its caller. Success
// means the run reached a terminal state cleanly; per-platform success
// lives in Results.
type Outcome struct {
	Success bool                   `json:"success"`
	PostID  string                 `json:"post_id"`
	Results []models.PublishResult `json:"results,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

type Pipeline struct {
	pr        repository.PostRepository
	analyzer  service.AnalyzerService
	content   service.ContentService
	video     service.VideoService
	publisher service.PublisherService
}

func New(
	pr repository.PostRepository,
	analyzer service.AnalyzerService,
	content service.ContentService,
	video service.VideoService,
	publisher service.PublisherService) *Pipeline {
	return &Pipeline{
		pr:        pr,
		analyzer:  analyzer,
		content:   content,
		video:     video,
		publisher: publisher,
	}
}

// Process runs one post through analysis, content generation and publishing.
//
// Platforms are processed strictly in the order they were requested, and a
// failure inside one platform's stage never stops the remaining platforms:
// it becomes a failed entry in the post's publish results and the loop moves
// on. Only an analysis failure or a persistence failure takes the whole post
// down. Re-invoking Process on a finished post runs everything again from
// analysis; earlier publish results stay where they are.
func (p *Pipeline) Process(ctx context.Context, postID string) (outcome *Outcome, err error) {
	post, err := p.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error loading post: %w", err)
	}
	if post == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrPostNotFound, postID)
	}

	// A run that dies past this point must still leave the post marked
	// failed with the triggering message.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
		if err != nil {
			p.markFailed(ctx, post, err.Error())
		}
	}()

	post.SetStatus(models.PostStatusProcessing)
	if err = p.pr.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRepository, err)
	}

	if aerr := p.analyze(ctx, post); aerr != nil {
		if errors.Is(aerr, models.ErrRepository) {
			return nil, aerr
		}
		slog.Info(aerr.Error())
		post.SetFailed(aerr.Error())
		if err = p.pr.Update(ctx, post); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrRepository, err)
		}
		return &Outcome{Success: false, PostID: postID, Error: aerr.Error()}, nil
	}

	results := make([]models.PublishResult, 0, len(post.Platforms))
	for _, platform := range post.Platforms {
		result, perr := p.processPlatform(ctx, post, platform)
		if perr != nil {
			return nil, perr
		}
		results = append(results, *result)
	}

	post.SetStatus(models.PostStatusCompleted)
	if err = p.pr.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRepository, err)
	}

	slog.Info(fmt.Sprintf("content generation and publishing finished: %s", postID))
	return &Outcome{Success: true, PostID: postID, Results: results}, nil
}

// analyze runs the vision step against the first image and persists the
// attributes before any content generation starts. The first image is the
// analysis subject on purpose; there is no smarter selection. A failed
// analysis never clears attributes from an earlier run.
func (p *Pipeline) analyze(ctx context.Context, post *models.FlowerPost) error {
	if len(post.ImageURLs) == 0 {
		return fmt.Errorf("%w: post has no images", models.ErrAnalysis)
	}

	flowerData, err := p.analyzer.AnalyzeFlowerImage(ctx, post.ImageURLs[0])
	if err != nil {
		return err
	}

	post.FlowerData = flowerData
	if err := p.save(ctx, post); err != nil {
		return err
	}

	return nil
}

// processPlatform runs one platform's generation and publish stage. Errors
// from generation, rendering or publishing are folded into a failed publish
// result; only persistence errors come back as an error and abort the run.
func (p *Pipeline) processPlatform(ctx context.Context, post *models.FlowerPost, platform models.Platform) (*models.PublishResult, error) {
	slog.Info(fmt.Sprintf("processing %s for post %s", platform, post.ID))

	if gerr := p.generateArtifacts(ctx, post, platform); gerr != nil {
		if errors.Is(gerr, models.ErrRepository) {
			return nil, gerr
		}

		slog.Info(gerr.Error())
		result := models.PublishResult{
			Success:  false,
			Platform: platform,
			Error:    gerr.Error(),
		}
		if perr := p.record(ctx, post, result); perr != nil {
			return nil, perr
		}
		return &result, nil
	}

	result := p.publisher.Publish(ctx, platform, post)
	if perr := p.record(ctx, post, *result); perr != nil {
		return nil, perr
	}

	return result, nil
}

// generateArtifacts produces the content a platform's publish call needs and
// persists each artifact as soon as it exists, so a crash later in the run
// does not lose finished work.
func (p *Pipeline) generateArtifacts(ctx context.Context, post *models.FlowerPost, platform models.Platform) error {
	switch platform {
	case models.PlatformNaver:
		content, err := p.content.GenerateBlogPost(ctx, post.FlowerData)
		if err != nil {
			return err
		}
		post.BlogContent = content
		if err := p.save(ctx, post); err != nil {
			return err
		}

	case models.PlatformInstagram:
		caption, err := p.content.GenerateInstagramCaption(ctx, post.FlowerData)
		if err != nil {
			return err
		}
		tags, err := p.content.GenerateTags(ctx, post.FlowerData)
		if err != nil {
			return err
		}
		post.InstagramCaption = caption
		post.InstagramTags = tags
		if err := p.save(ctx, post); err != nil {
			return err
		}

	case models.PlatformYoutube:
		videoURL, err := p.video.CreateShortsVideo(ctx, post.ID, post.ImageURLs, post.FlowerData)
		if err != nil {
			return err
		}
		post.VideoURL = videoURL
		if err := p.save(ctx, post); err != nil {
			return err
		}

		// The upload borrows the tag list generated for instagram when
		// that stage already ran; otherwise generate one here.
		if len(post.InstagramTags) == 0 {
			tags, err := p.content.GenerateTags(ctx, post.FlowerData)
			if err != nil {
				return err
			}
			post.InstagramTags = tags
			if err := p.save(ctx, post); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *Pipeline) record(ctx context.Context, post *models.FlowerPost, result models.PublishResult) error {
	post.AddPublishResult(result)
	return p.save(ctx, post)
}

func (p *Pipeline) save(ctx context.Context, post *models.FlowerPost) error {
	post.UpdatedAt = time.Now()
	if err := p.pr.Update(ctx, post); err != nil {
		return fmt.Errorf("%w: %v", models.ErrRepository, err)
	}
	return nil
}

func (p *Pipeline) markFailed(ctx context.Context, post *models.FlowerPost, message string) {
	post.SetFailed(message)
	if uerr := p.pr.Update(ctx, post); uerr != nil {
		slog.Error(fmt.Sprintf("unable to persist failed status for post %s: %v", post.ID, uerr))
	}
}
