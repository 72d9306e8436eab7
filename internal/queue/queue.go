package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

const maxRetry = 3

// EnqueuePost schedules one pipeline run for the post, delayed until its
// schedule time. Returns the queue's task id.
func EnqueuePost(asynqClient *asynq.Client, payload ProcessPostPayload, delay time.Duration) (string, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(TaskTypeProcessPost, taskPayload)

	info, err := asynqClient.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(maxRetry))
	if err != nil {
		return "", err
	}

	log.Printf("Task scheduled: %+v", payload)
	return info.ID, nil
}
