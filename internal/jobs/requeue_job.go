package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bloomworks/florapost/internal/queue"
	"github.com/bloomworks/florapost/internal/repository"
)

// How long past its schedule time a pending post may sit before it counts
// as stuck. Wide enough that a normally delayed task is never double-queued.
const requeueGracePeriod = 10 * time.Minute

type RequeueJob struct {
	pr          repository.PostRepository
	asynqClient *asynq.Client
}

func NewRequeueJob(pr repository.PostRepository, asynqClient *asynq.Client) *RequeueJob {
	return &RequeueJob{
		pr:          pr,
		asynqClient: asynqClient,
	}
}

// RequeueStuckPosts re-enqueues pending posts whose schedule time passed
// long ago, recovering work whose queue task was lost. Reprocessing always
// restarts from analysis, so enqueuing again is safe.
func (c *RequeueJob) RequeueStuckPosts() {
	ctx := context.Background()

	cutoff := time.Now().Add(-requeueGracePeriod)

	posts, err := c.pr.ListStuckPending(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range posts {
		payload := queue.ProcessPostPayload{PostID: post.ID}
		if _, err := queue.EnqueuePost(c.asynqClient, payload, 0); err != nil {
			slog.Info(err.Error())
			continue
		}
		slog.Info("Requeued stuck post: " + post.ID)
	}
}
