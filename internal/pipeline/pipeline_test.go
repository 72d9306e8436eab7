package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomworks/florapost/internal/models"
)

type stubStore struct {
	post     *models.FlowerPost
	getErr   error
	failOn   int // 1-based update call that fails, 0 disables
	updates  int
	statuses []string
}

func (s *stubStore) Create(ctx context.Context, post *models.FlowerPost) error { return nil }

func (s *stubStore) GetByID(ctx context.Context, id string) (*models.FlowerPost, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.post == nil || s.post.ID != id {
		return nil, nil
	}
	return s.post, nil
}

func (s *stubStore) List(ctx context.Context) ([]*models.FlowerPost, error) { return nil, nil }

func (s *stubStore) ListStuckPending(ctx context.Context, cutoff time.Time) ([]*models.FlowerPost, error) {
	return nil, nil
}

func (s *stubStore) Update(ctx context.Context, post *models.FlowerPost) error {
	s.updates++
	if s.failOn != 0 && s.updates == s.failOn {
		return errors.New("connection reset by peer")
	}
	s.statuses = append(s.statuses, post.Status)
	return nil
}

func (s *stubStore) Remove(ctx context.Context, id string) error { return nil }

type stubAnalyzer struct {
	data  *models.FlowerData
	err   error
	calls int
}

func (a *stubAnalyzer) AnalyzeFlowerImage(ctx context.Context, imageURL string) (*models.FlowerData, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.data, nil
}

type stubContent struct {
	blog         string
	caption      string
	tags         []string
	blogErr      error
	captionErr   error
	tagsErr      error
	panicBlog    bool
	blogCalls    int
	captionCalls int
	tagsCalls    int
}

func (c *stubContent) GenerateBlogPost(ctx context.Context, fd *models.FlowerData) (string, error) {
	c.blogCalls++
	if c.panicBlog {
		panic("template exploded")
	}
	if c.blogErr != nil {
		return "", c.blogErr
	}
	return c.blog, nil
}

func (c *stubContent) GenerateInstagramCaption(ctx context.Context, fd *models.FlowerData) (string, error) {
	c.captionCalls++
	if c.captionErr != nil {
		return "", c.captionErr
	}
	return c.caption, nil
}

func (c *stubContent) GenerateTags(ctx context.Context, fd *models.FlowerData) ([]string, error) {
	c.tagsCalls++
	if c.tagsErr != nil {
		return nil, c.tagsErr
	}
	return c.tags, nil
}

type stubVideo struct {
	url   string
	err   error
	calls int
}

func (v *stubVideo) CreateShortsVideo(ctx context.Context, postID string, imageURLs []string, fd *models.FlowerData) (string, error) {
	v.calls++
	if v.err != nil {
		return "", v.err
	}
	return v.url, nil
}

type stubPublisher struct {
	results map[models.Platform]*models.PublishResult
	calls   []models.Platform
}

func (p *stubPublisher) Publish(ctx context.Context, platform models.Platform, post *models.FlowerPost) *models.PublishResult {
	p.calls = append(p.calls, platform)
	if r, ok := p.results[platform]; ok {
		return r
	}
	return &models.PublishResult{
		Success:  true,
		Platform: platform,
		URL:      "https://example.com/" + string(platform),
	}
}

type testPipeline struct {
	store     *stubStore
	analyzer  *stubAnalyzer
	content   *stubContent
	video     *stubVideo
	publisher *stubPublisher
	pipe      *Pipeline
}

func newTestPipeline(post *models.FlowerPost) *testPipeline {
	tp := &testPipeline{
		store: &stubStore{post: post},
		analyzer: &stubAnalyzer{
			data: &models.FlowerData{
				FlowerType: models.FlowerType{Korean: "장미", English: "Rose", Scientific: "Rosa"},
				Colors:     []string{"빨강"},
				Meaning:    "사랑과 열정",
			},
		},
		content: &stubContent{
			blog:    "장미 이야기",
			caption: "오늘의 장미",
			tags:    []string{"#꽃", "#장미"},
		},
		video:     &stubVideo{url: "https://cdn.example.com/posts/p1/shorts_video.mp4"},
		publisher: &stubPublisher{results: map[models.Platform]*models.PublishResult{}},
	}
	tp.pipe = New(tp.store, tp.analyzer, tp.content, tp.video, tp.publisher)
	return tp
}

func newTestPost(platforms ...models.Platform) *models.FlowerPost {
	return &models.FlowerPost{
		ID:        "p1",
		ImageURLs: []string{"https://cdn.example.com/posts/p1/a.jpg"},
		Platforms: platforms,
		Status:    models.PostStatusPending,
	}
}

func TestProcessCompletedRun(t *testing.T) {
	post := newTestPost(models.PlatformNaver)
	tp := newTestPipeline(post)

	outcome, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.True(t, outcome.Success)
	assert.Equal(t, "p1", outcome.PostID)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, models.PlatformNaver, outcome.Results[0].Platform)
	assert.True(t, outcome.Results[0].Success)

	assert.Equal(t, models.PostStatusCompleted, post.Status)
	require.NotNil(t, post.FlowerData)
	assert.Equal(t, "장미", post.FlowerData.FlowerType.Korean)
	assert.Equal(t, "장미 이야기", post.BlogContent)
	require.Len(t, post.PublishResults, 1)

	// processing, analysis, blog content, publish result, completed
	assert.Equal(t, 5, tp.store.updates)
	assert.Equal(t, models.PostStatusCompleted, tp.store.statuses[len(tp.store.statuses)-1])
}

func TestProcessAnalysisFailureSkipsAllPlatforms(t *testing.T) {
	post := newTestPost(models.PlatformNaver, models.PlatformInstagram)
	tp := newTestPipeline(post)
	tp.analyzer.err = errors.New("vision model unavailable")

	outcome, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "vision model unavailable")

	assert.Equal(t, models.PostStatusFailed, post.Status)
	assert.Contains(t, post.ErrorMessage, "vision model unavailable")
	assert.Empty(t, post.PublishResults)
	assert.Empty(t, post.BlogContent)
	assert.Zero(t, tp.content.blogCalls)
	assert.Empty(t, tp.publisher.calls)
}

func TestProcessAnalysisFailureKeepsPriorAttributes(t *testing.T) {
	post := newTestPost(models.PlatformNaver)
	post.FlowerData = &models.FlowerData{FlowerType: models.FlowerType{Korean: "튤립"}}
	tp := newTestPipeline(post)
	tp.analyzer.err = errors.New("vision model unavailable")

	_, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)

	require.NotNil(t, post.FlowerData)
	assert.Equal(t, "튤립", post.FlowerData.FlowerType.Korean)
}

func TestProcessNotFound(t *testing.T) {
	tp := newTestPipeline(nil)

	outcome, err := tp.pipe.Process(context.Background(), "missing")
	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, models.ErrPostNotFound)
	assert.Zero(t, tp.store.updates)
}

func TestProcessPlatformOrderMatchesRequestOrder(t *testing.T) {
	post := newTestPost(models.PlatformYoutube, models.PlatformNaver)
	tp := newTestPipeline(post)

	outcome, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)

	require.Len(t, outcome.Results, 2)
	assert.Equal(t, models.PlatformYoutube, outcome.Results[0].Platform)
	assert.Equal(t, models.PlatformNaver, outcome.Results[1].Platform)
	assert.Equal(t, []models.Platform{models.PlatformYoutube, models.PlatformNaver}, tp.publisher.calls)
}

func TestProcessPublishFailureDoesNotBlockNextPlatform(t *testing.T) {
	post := newTestPost(models.PlatformInstagram, models.PlatformNaver)
	tp := newTestPipeline(post)
	tp.publisher.results[models.PlatformInstagram] = &models.PublishResult{
		Success:  false,
		Platform: models.PlatformInstagram,
		Error:    "media upload rejected",
	}

	outcome, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	require.Len(t, post.PublishResults, 2)
	assert.False(t, post.PublishResults[0].Success)
	assert.Equal(t, "media upload rejected", post.PublishResults[0].Error)
	assert.True(t, post.PublishResults[1].Success)
	assert.Equal(t, models.PlatformNaver, post.PublishResults[1].Platform)
	assert.Equal(t, models.PostStatusCompleted, post.Status)
}

func TestProcessGenerationFailureDoesNotBlockNextPlatform(t *testing.T) {
	post := newTestPost(models.PlatformNaver, models.PlatformInstagram)
	tp := newTestPipeline(post)
	tp.content.blogErr = errors.New("generation quota exhausted")

	outcome, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	require.Len(t, post.PublishResults, 2)

	naverResult := post.PublishResults[0]
	assert.Equal(t, models.PlatformNaver, naverResult.Platform)
	assert.False(t, naverResult.Success)
	assert.Contains(t, naverResult.Error, "generation quota exhausted")

	instagramResult := post.PublishResults[1]
	assert.Equal(t, models.PlatformInstagram, instagramResult.Platform)
	assert.True(t, instagramResult.Success)

	// naver was never published, instagram was
	assert.Equal(t, []models.Platform{models.PlatformInstagram}, tp.publisher.calls)
	assert.Equal(t, models.PostStatusCompleted, post.Status)
}

func TestProcessYoutubeReusesInstagramTags(t *testing.T) {
	post := newTestPost(models.PlatformInstagram, models.PlatformYoutube)
	tp := newTestPipeline(post)

	_, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, tp.content.tagsCalls)
	assert.Equal(t, 1, tp.video.calls)
	assert.Equal(t, []string{"#꽃", "#장미"}, post.InstagramTags)
	assert.Equal(t, "https://cdn.example.com/posts/p1/shorts_video.mp4", post.VideoURL)
}

func TestProcessYoutubeAloneGeneratesTags(t *testing.T) {
	post := newTestPost(models.PlatformYoutube)
	tp := newTestPipeline(post)

	_, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, tp.content.tagsCalls)
	assert.Zero(t, tp.content.captionCalls)
	assert.NotEmpty(t, post.InstagramTags)
}

func TestProcessRenderFailureIsolated(t *testing.T) {
	post := newTestPost(models.PlatformYoutube, models.PlatformNaver)
	tp := newTestPipeline(post)
	tp.video.err = errors.New("ffmpeg exited with status 1")

	outcome, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	require.Len(t, post.PublishResults, 2)
	assert.False(t, post.PublishResults[0].Success)
	assert.Contains(t, post.PublishResults[0].Error, "ffmpeg")
	assert.True(t, post.PublishResults[1].Success)
}

func TestProcessPersistenceFailureIsFatal(t *testing.T) {
	post := newTestPost(models.PlatformNaver)
	tp := newTestPipeline(post)
	tp.store.failOn = 3 // the blog content write

	outcome, err := tp.pipe.Process(context.Background(), "p1")
	assert.Nil(t, outcome)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRepository)

	// the cleanup write still went through
	assert.Equal(t, models.PostStatusFailed, post.Status)
	assert.Contains(t, post.ErrorMessage, "connection reset")
	assert.Equal(t, models.PostStatusFailed, tp.store.statuses[len(tp.store.statuses)-1])
	assert.Empty(t, tp.publisher.calls)
}

func TestProcessPanicBecomesFailedPost(t *testing.T) {
	post := newTestPost(models.PlatformNaver)
	tp := newTestPipeline(post)
	tp.content.panicBlog = true

	outcome, err := tp.pipe.Process(context.Background(), "p1")
	assert.Nil(t, outcome)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline panic")

	assert.Equal(t, models.PostStatusFailed, post.Status)
	assert.Contains(t, post.ErrorMessage, "template exploded")
}

func TestProcessRerunAppendsResults(t *testing.T) {
	post := newTestPost(models.PlatformNaver)
	post.Status = models.PostStatusCompleted
	post.PublishResults = []models.PublishResult{
		{Success: true, Platform: models.PlatformNaver, URL: "https://blog.naver.com/old/1"},
	}
	tp := newTestPipeline(post)

	outcome, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, tp.analyzer.calls)
	require.Len(t, post.PublishResults, 2)
	assert.Equal(t, "https://blog.naver.com/old/1", post.PublishResults[0].URL)
	assert.Equal(t, models.PostStatusCompleted, post.Status)
}

func TestProcessPostWithoutImagesFails(t *testing.T) {
	post := newTestPost(models.PlatformNaver)
	post.ImageURLs = nil
	tp := newTestPipeline(post)

	outcome, err := tp.pipe.Process(context.Background(), "p1")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, models.PostStatusFailed, post.Status)
	assert.Zero(t, tp.analyzer.calls)
	assert.Empty(t, post.PublishResults)
}
