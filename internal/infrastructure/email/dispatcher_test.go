package email

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/authbase/backend/internal/application/account"
	"github.com/authbase/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingSender captures delivered requests
type recordingSender struct {
	mu   sync.Mutex
	sent []account.MailRequest
}

func (s *recordingSender) Send(_ context.Context, req account.MailRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, req)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcher_DeliversEnqueuedMail(t *testing.T) {
	sender := &recordingSender{}
	dispatcher := NewDispatcher(config.MailConfig{QueueSize: 8, Workers: 2}, sender, zap.NewNop())

	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	req := account.MailRequest{
		Kind:  account.MailKindVerification,
		AppID: uuid.New(),
		To:    "user@example.com",
		Token: "tok-123",
	}
	require.NoError(t, dispatcher.Enqueue(context.Background(), req))

	assert.Eventually(t, func() bool {
		return sender.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDispatcher_FullQueueIsReported(t *testing.T) {
	sender := &recordingSender{}
	dispatcher := NewDispatcher(config.MailConfig{QueueSize: 1, Workers: 1}, sender, zap.NewNop())
	// Not started, so nothing drains the queue.

	req := account.MailRequest{Kind: account.MailKindPasswordReset, AppID: uuid.New()}
	require.NoError(t, dispatcher.Enqueue(context.Background(), req))

	err := dispatcher.Enqueue(context.Background(), req)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestDispatcher_StopWaitsForWorkers(t *testing.T) {
	sender := &recordingSender{}
	dispatcher := NewDispatcher(config.MailConfig{QueueSize: 8, Workers: 2}, sender, zap.NewNop())

	dispatcher.Start(context.Background())
	dispatcher.Stop()

	// Stop again is a no-op.
	dispatcher.Stop()
}

func TestLogSender_NeverFails(t *testing.T) {
	sender := NewLogSender(zap.NewNop())
	err := sender.Send(context.Background(), account.MailRequest{
		Kind: account.MailKindVerification,
		To:   "user@example.com",
	})
	assert.NoError(t, err)
}
