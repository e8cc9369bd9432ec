package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-taskboard/internal/mail"
	"collaborative-taskboard/internal/repository"
	"collaborative-taskboard/internal/tasks"
)

// Worker runs the asynq server that delivers emails and sweeps stale
// presence records.
type Worker struct {
	server   *asynq.Server
	mailer   mail.Mailer
	presence repository.PresenceRepository
}

// New creates a Worker bound to the given Redis address.
func New(redisAddr, redisPassword string, redisDB int, mailer mail.Mailer, presence repository.PresenceRepository) *Worker {
	if mailer == nil {
		panic("Mailer cannot be nil for Worker")
	}
	if presence == nil {
		panic("PresenceRepository cannot be nil for Worker")
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword, DB: redisDB},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logrus.WithError(err).WithField("task_type", task.Type()).Error("Task processing failed")
			}),
		},
	)

	return &Worker{server: server, mailer: mailer, presence: presence}
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeEmailDelivery, w.handleEmailDelivery)
	mux.HandleFunc(tasks.TypePresenceSweep, w.handlePresenceSweep)
	return w.server.Start(mux)
}

// Shutdown stops the worker, waiting for in-flight tasks.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleEmailDelivery(ctx context.Context, task *asynq.Task) error {
	var payload tasks.EmailDeliveryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// A payload nobody can decode will never succeed, skip retries.
		return fmt.Errorf("unmarshal email payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.mailer.Send(ctx, payload.To, payload.Subject, payload.HTML); err != nil {
		return fmt.Errorf("send email to %s: %w", payload.To, err)
	}
	logrus.WithField("to", payload.To).Info("Email delivered")
	return nil
}

func (w *Worker) handlePresenceSweep(ctx context.Context, task *asynq.Task) error {
	removed, err := w.presence.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("presence sweep: %w", err)
	}
	if removed > 0 {
		logrus.WithField("removed", removed).Info("Swept stale presence records")
	}
	return nil
}
