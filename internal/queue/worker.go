package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/bloomworks/florapost/internal/models"
)

// HandleProcessPostTask runs the content pipeline for one post. A missing
// post is dropped instead of retried; pipeline-internal failures already end
// in a terminal post status, so only infrastructure errors are returned for
// the queue to retry.
func (q *Queue) HandleProcessPostTask(ctx context.Context, task *asynq.Task) error {
	var payload ProcessPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unable to decode task payload: %v: %w", err, asynq.SkipRetry)
	}

	outcome, err := q.proc.Process(ctx, payload.PostID)
	if err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			log.Printf("Post %s no longer exists, dropping task", payload.PostID)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if !outcome.Success {
		log.Printf("Pipeline finished with failure for post %s: %s", payload.PostID, outcome.Error)
	}

	return nil
}
