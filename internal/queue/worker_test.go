package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomworks/florapost/internal/models"
	"github.com/bloomworks/florapost/internal/pipeline"
)

type stubProcessor struct {
	outcome *pipeline.Outcome
	err     error
	postIDs []string
}

func (p *stubProcessor) Process(ctx context.Context, postID string) (*pipeline.Outcome, error) {
	p.postIDs = append(p.postIDs, postID)
	if p.err != nil {
		return nil, p.err
	}
	return p.outcome, nil
}

func TestHandleProcessPostTask(t *testing.T) {
	proc := &stubProcessor{outcome: &pipeline.Outcome{Success: true, PostID: "p1"}}
	q := NewQueue(proc)

	task := asynq.NewTask(TaskTypeProcessPost, []byte(`{"post_id":"p1"}`))
	err := q.HandleProcessPostTask(context.Background(), task)

	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, proc.postIDs)
}

func TestHandleProcessPostTaskBadPayload(t *testing.T) {
	proc := &stubProcessor{}
	q := NewQueue(proc)

	task := asynq.NewTask(TaskTypeProcessPost, []byte(`not json`))
	err := q.HandleProcessPostTask(context.Background(), task)

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, proc.postIDs)
}

func TestHandleProcessPostTaskMissingPostDropped(t *testing.T) {
	proc := &stubProcessor{err: models.ErrPostNotFound}
	q := NewQueue(proc)

	task := asynq.NewTask(TaskTypeProcessPost, []byte(`{"post_id":"gone"}`))
	err := q.HandleProcessPostTask(context.Background(), task)

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleProcessPostTaskInfrastructureErrorRetried(t *testing.T) {
	proc := &stubProcessor{err: errors.New("redis connection refused")}
	q := NewQueue(proc)

	task := asynq.NewTask(TaskTypeProcessPost, []byte(`{"post_id":"p1"}`))
	err := q.HandleProcessPostTask(context.Background(), task)

	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleProcessPostTaskFailedOutcomeIsTerminal(t *testing.T) {
	proc := &stubProcessor{outcome: &pipeline.Outcome{
		Success: false,
		PostID:  "p1",
		Error:   "analysis failed",
	}}
	q := NewQueue(proc)

	task := asynq.NewTask(TaskTypeProcessPost, []byte(`{"post_id":"p1"}`))
	err := q.HandleProcessPostTask(context.Background(), task)

	assert.NoError(t, err)
}
