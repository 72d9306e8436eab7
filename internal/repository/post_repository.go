package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bloomworks/florapost/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.FlowerPost) error
	GetByID(ctx context.Context, id string) (*models.FlowerPost, error)
	List(ctx context.Context) ([]*models.FlowerPost, error)
	ListStuckPending(ctx context.Context, cutoff time.Time) ([]*models.FlowerPost, error)
	Update(ctx context.Context, post *models.FlowerPost) error
	Remove(ctx context.Context, id string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, title, description, image_urls, platforms, schedule_time, status, error_message, flower_data, blog_content, instagram_caption, instagram_tags, video_url, publish_results, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, post *models.FlowerPost) error {
	query := `
		INSERT INTO flower_posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	enc, err := encodePost(post)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Description,
		enc.imageURLs,
		enc.platforms,
		post.ScheduleTime,
		post.Status,
		post.ErrorMessage,
		enc.flowerData,
		post.BlogContent,
		post.InstagramCaption,
		enc.instagramTags,
		post.VideoURL,
		enc.publishResults,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.FlowerPost, error) {
	query := `SELECT ` + postColumns + ` FROM flower_posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.FlowerPost, error) {
	query := `SELECT ` + postColumns + ` FROM flower_posts ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.FlowerPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) ListStuckPending(ctx context.Context, cutoff time.Time) ([]*models.FlowerPost, error) {
	query := `SELECT ` + postColumns + ` FROM flower_posts WHERE status = $1 AND schedule_time < $2`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPending, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.FlowerPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.FlowerPost) error {
	query := `
		UPDATE flower_posts
		SET title = $2,
			description = $3,
			image_urls = $4,
			platforms = $5,
			schedule_time = $6,
			status = $7,
			error_message = $8,
			flower_data = $9,
			blog_content = $10,
			instagram_caption = $11,
			instagram_tags = $12,
			video_url = $13,
			publish_results = $14,
			updated_at = $15
		WHERE id = $1
	`

	enc, err := encodePost(post)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	result, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Description,
		enc.imageURLs,
		enc.platforms,
		post.ScheduleTime,
		post.Status,
		post.ErrorMessage,
		enc.flowerData,
		post.BlogContent,
		post.InstagramCaption,
		enc.instagramTags,
		post.VideoURL,
		enc.publishResults,
		post.UpdatedAt,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return models.ErrPostNotFound
	}

	return nil
}

func (r *postRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM flower_posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// encodedPost carries the JSONB column values for one post row.
type encodedPost struct {
	imageURLs      []byte
	platforms      []byte
	flowerData     []byte
	instagramTags  []byte
	publishResults []byte
}

func encodePost(post *models.FlowerPost) (*encodedPost, error) {
	var enc encodedPost
	var err error

	if enc.imageURLs, err = json.Marshal(post.ImageURLs); err != nil {
		return nil, err
	}
	if enc.platforms, err = json.Marshal(post.Platforms); err != nil {
		return nil, err
	}
	if post.FlowerData != nil {
		if enc.flowerData, err = json.Marshal(post.FlowerData); err != nil {
			return nil, err
		}
	}
	if enc.instagramTags, err = json.Marshal(post.InstagramTags); err != nil {
		return nil, err
	}
	if enc.publishResults, err = json.Marshal(post.PublishResults); err != nil {
		return nil, err
	}

	return &enc, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*models.FlowerPost, error) {
	var post models.FlowerPost
	var imageURLs, platforms, flowerData, instagramTags, publishResults []byte

	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Description,
		&imageURLs,
		&platforms,
		&post.ScheduleTime,
		&post.Status,
		&post.ErrorMessage,
		&flowerData,
		&post.BlogContent,
		&post.InstagramCaption,
		&instagramTags,
		&post.VideoURL,
		&publishResults,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(imageURLs) > 0 {
		if err := json.Unmarshal(imageURLs, &post.ImageURLs); err != nil {
			return nil, err
		}
	}
	if len(platforms) > 0 {
		if err := json.Unmarshal(platforms, &post.Platforms); err != nil {
			return nil, err
		}
	}
	if len(flowerData) > 0 {
		if err := json.Unmarshal(flowerData, &post.FlowerData); err != nil {
			return nil, err
		}
	}
	if len(instagramTags) > 0 {
		if err := json.Unmarshal(instagramTags, &post.InstagramTags); err != nil {
			return nil, err
		}
	}
	if len(publishResults) > 0 {
		if err := json.Unmarshal(publishResults, &post.PublishResults); err != nil {
			return nil, err
		}
	}

	return &post, nil
}
