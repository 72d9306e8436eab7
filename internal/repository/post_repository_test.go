package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomworks/florapost/internal/models"
)

var postRows = []string{
	"id", "title", "description", "image_urls", "platforms", "schedule_time",
	"status", "error_message", "flower_data", "blog_content", "instagram_caption",
	"instagram_tags", "video_url", "publish_results", "created_at", "updated_at",
}

func TestPostRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(postRows).AddRow(
		"0b2e6bb1-7a0f-4f3e-8c2f-1f9a33a5d001",
		"장미 - 사랑과 열정",
		"정원에서 찍은 장미",
		[]byte(`["https://media.example.com/posts/1/a.jpg"]`),
		[]byte(`["naver","instagram"]`),
		now,
		models.PostStatusCompleted,
		"",
		[]byte(`{"flower_type":{"korean":"장미","english":"Rose","scientific":"Rosa"},"colors":["red"],"seasonal":"spring","meaning":"love","care_tips":"water daily","decoration_ideas":"vase","gift_occasions":["anniversary"]}`),
		"<h1>장미</h1>",
		"붉은 장미 한 송이",
		[]byte(`["#장미","#rose"]`),
		"",
		[]byte(`[{"success":true,"platform":"naver","url":"https://blog.naver.com/x/1"}]`),
		now,
		now,
	)

	mock.ExpectQuery("SELECT (.+) FROM flower_posts WHERE id =").
		WithArgs("0b2e6bb1-7a0f-4f3e-8c2f-1f9a33a5d001").
		WillReturnRows(rows)

	r := NewPostRepository(db)
	post, err := r.GetByID(context.Background(), "0b2e6bb1-7a0f-4f3e-8c2f-1f9a33a5d001")
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Equal(t, "장미 - 사랑과 열정", post.Title)
	assert.Equal(t, []string{"https://media.example.com/posts/1/a.jpg"}, post.ImageURLs)
	assert.Equal(t, []models.Platform{models.PlatformNaver, models.PlatformInstagram}, post.Platforms)
	require.NotNil(t, post.FlowerData)
	assert.Equal(t, "장미", post.FlowerData.FlowerType.Korean)
	assert.Equal(t, "Rose", post.FlowerData.FlowerType.English)
	require.Len(t, post.PublishResults, 1)
	assert.True(t, post.PublishResults[0].Success)
	assert.Equal(t, models.PlatformNaver, post.PublishResults[0].Platform)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM flower_posts WHERE id =").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(postRows))

	r := NewPostRepository(db)
	post, err := r.GetByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, post)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO flower_posts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	post := &models.FlowerPost{
		ID:           "a14d9f70-0000-4000-8000-000000000001",
		Title:        "튤립",
		ImageURLs:    []string{"https://media.example.com/posts/2/a.jpg"},
		Platforms:    []models.Platform{models.PlatformYoutube},
		ScheduleTime: time.Now(),
		Status:       models.PostStatusPending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	r := NewPostRepository(db)
	err = r.Create(context.Background(), post)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE flower_posts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	post := &models.FlowerPost{
		ID:        "a14d9f70-0000-4000-8000-000000000001",
		Status:    models.PostStatusProcessing,
		UpdatedAt: time.Now(),
	}

	r := NewPostRepository(db)
	err = r.Update(context.Background(), post)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE flower_posts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	post := &models.FlowerPost{
		ID:        "unknown",
		Status:    models.PostStatusFailed,
		UpdatedAt: time.Now(),
	}

	r := NewPostRepository(db)
	err = r.Update(context.Background(), post)
	assert.ErrorIs(t, err, models.ErrPostNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepositoryListStuckPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(postRows).AddRow(
		"b14d9f70-0000-4000-8000-000000000002",
		"",
		"",
		[]byte(`["https://media.example.com/posts/3/a.jpg"]`),
		[]byte(`["naver"]`),
		now.Add(-time.Hour),
		models.PostStatusPending,
		"",
		nil,
		"",
		"",
		[]byte(`[]`),
		"",
		[]byte(`[]`),
		now.Add(-time.Hour),
		now.Add(-time.Hour),
	)

	cutoff := now.Add(-10 * time.Minute)
	mock.ExpectQuery("SELECT (.+) FROM flower_posts WHERE status =").
		WithArgs(models.PostStatusPending, cutoff).
		WillReturnRows(rows)

	r := NewPostRepository(db)
	posts, err := r.ListStuckPending(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, models.PostStatusPending, posts[0].Status)
	assert.Nil(t, posts[0].FlowerData)

	assert.NoError(t, mock.ExpectationsWereMet())
}
