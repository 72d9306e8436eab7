package queue

import (
	"context"

	"github.com/bloomworks/florapost/internal/pipeline"
)

const TaskTypeProcessPost = "process:flower_post"

type ProcessPostPayload struct {
	PostID string `json:"post_id"`
}

// Processor is the pipeline entry point the worker drives.
type Processor interface {
	Process(ctx context.Context, postID string) (*pipeline.Outcome, error)
}

type Queue struct {
	proc Processor
}

func NewQueue(proc Processor) *Queue {
	return &Queue{
		proc: proc,
	}
}
