package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborative-taskboard/internal/repository"
	"collaborative-taskboard/internal/tasks"
)

type capturingMailer struct {
	to      string
	subject string
	html    string
	err     error
}

func (m *capturingMailer) Send(_ context.Context, to, subject, html string) error {
	m.to, m.subject, m.html = to, subject, html
	return m.err
}

type stubPresence struct {
	removed int
	err     error
}

func (stubPresence) SetOnline(context.Context, string, string, string)             {}
func (stubPresence) SetOffline(context.Context, string, string)                    {}
func (stubPresence) GetBoardUsers(context.Context, string) []repository.PresenceUser { return nil }
func (stubPresence) GetOnlineUsers(context.Context) []repository.OnlineUser        { return nil }
func (s stubPresence) Sweep(context.Context) (int, error)                          { return s.removed, s.err }

func newTestWorker(mailer *capturingMailer, presence stubPresence) *Worker {
	return New("127.0.0.1:6379", "", 0, mailer, presence)
}

func TestHandleEmailDelivery(t *testing.T) {
	mailer := &capturingMailer{}
	w := newTestWorker(mailer, stubPresence{})

	task, err := tasks.NewEmailDeliveryTask("bob@example.com", "Hello", "<p>body</p>")
	require.NoError(t, err)

	require.NoError(t, w.handleEmailDelivery(context.Background(), task))
	assert.Equal(t, "bob@example.com", mailer.to)
	assert.Equal(t, "Hello", mailer.subject)
	assert.Equal(t, "<p>body</p>", mailer.html)
}

func TestHandleEmailDeliveryCorruptPayloadSkipsRetry(t *testing.T) {
	w := newTestWorker(&capturingMailer{}, stubPresence{})

	err := w.handleEmailDelivery(context.Background(), asynq.NewTask(tasks.TypeEmailDelivery, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleEmailDeliverySendFailureRetries(t *testing.T) {
	mailer := &capturingMailer{err: errors.New("relay down")}
	w := newTestWorker(mailer, stubPresence{})

	task, err := tasks.NewEmailDeliveryTask("bob@example.com", "Hello", "<p>body</p>")
	require.NoError(t, err)

	err = w.handleEmailDelivery(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandlePresenceSweep(t *testing.T) {
	w := newTestWorker(&capturingMailer{}, stubPresence{removed: 3})
	assert.NoError(t, w.handlePresenceSweep(context.Background(), tasks.NewPresenceSweepTask()))

	w = newTestWorker(&capturingMailer{}, stubPresence{err: errors.New("redis gone")})
	assert.Error(t, w.handlePresenceSweep(context.Background(), tasks.NewPresenceSweepTask()))
}
