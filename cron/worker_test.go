package cron

import (
	"context"
	"errors"
	"testing"

	"barberly/models"
	"barberly/services/notification"
	"barberly/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDeliverer struct {
	calls int
	err   error
}

func (s *stubDeliverer) Deliver(ctx context.Context, p models.NotificationPayload) error {
	s.calls++
	return s.err
}

func newTask(t *testing.T, key string) *asynq.Task {
	task, _, err := tasks.NewNotificationTask(models.NotificationPayload{
		RecipientID:   "cust-1",
		RecipientRole: models.RecipientCustomer,
		TemplateKey:   key,
		Fields:        map[string]string{},
	})
	require.NoError(t, err)
	return task
}

func TestHandleNotificationTask(t *testing.T) {
	ctx := context.Background()

	ok := &stubDeliverer{}
	require.NoError(t, handleNotificationTask(ok, zap.NewNop())(ctx, newTask(t, "booking.confirmed")))
	assert.Equal(t, 1, ok.calls)

	noToken := &stubDeliverer{err: notification.ErrNoDeviceToken}
	assert.NoError(t, handleNotificationTask(noToken, zap.NewNop())(ctx, newTask(t, "booking.confirmed")))

	transient := &stubDeliverer{err: errors.New("fcm unavailable")}
	err := handleNotificationTask(transient, zap.NewNop())(ctx, newTask(t, "booking.confirmed"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	unknown := &stubDeliverer{}
	err = handleNotificationTask(unknown, zap.NewNop())(ctx, newTask(t, "booking.nope"))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, unknown.calls)

	bad := asynq.NewTask(tasks.TypeNotificationDeliver, []byte("{"))
	err = handleNotificationTask(ok, zap.NewNop())(ctx, bad)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
