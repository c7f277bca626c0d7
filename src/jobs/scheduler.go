package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"formulate-backend/src/logger"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultQueue = "default"

// Enqueuer is the part of *asynq.Client the jobs package uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskDeleter is the part of *asynq.Inspector the jobs package uses.
type TaskDeleter interface {
	DeleteTask(queue, id string) error
}

// Scheduler turns form publish and expiry dates into delayed asynq tasks.
type Scheduler struct {
	client    Enqueuer
	inspector TaskDeleter
}

func NewScheduler(client Enqueuer, inspector TaskDeleter) *Scheduler {
	return &Scheduler{client: client, inspector: inspector}
}

func (s *Scheduler) SchedulePublish(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	task, err := NewPublishFormTask(id.Hex())
	if err != nil {
		return err
	}
	return s.enqueueAt(ctx, PublishTaskID(id.Hex()), task, at)
}

func (s *Scheduler) ScheduleClose(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	task, err := NewCloseFormTask(id.Hex())
	if err != nil {
		return err
	}
	return s.enqueueAt(ctx, CloseTaskID(id.Hex()), task, at)
}

// Cancel drops both pending tasks of the form, if any.
func (s *Scheduler) Cancel(_ context.Context, id primitive.ObjectID) {
	s.deleteTask(PublishTaskID(id.Hex()))
	s.deleteTask(CloseTaskID(id.Hex()))
}

func (s *Scheduler) enqueueAt(ctx context.Context, taskID string, task *asynq.Task, at time.Time) error {
	s.deleteTask(taskID)
	if _, err := s.client.EnqueueContext(ctx, task, asynq.ProcessAt(at), asynq.TaskID(taskID)); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskID, err)
	}
	logger.WithFields(logger.Fields{"task": taskID, "runAt": at.Format(time.RFC3339)}).Info("task scheduled")
	return nil
}

func (s *Scheduler) deleteTask(taskID string) {
	err := s.inspector.DeleteTask(defaultQueue, taskID)
	switch {
	case err == nil:
		logger.WithField("task", taskID).Debug("deleted previous task")
	case errors.Is(err, asynq.ErrTaskNotFound), errors.Is(err, asynq.ErrQueueNotFound):
	default:
		logger.WithError(err).WithField("task", taskID).Warn("could not delete previous task")
	}
}
