package notification

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	mocks "github.com/aliskhannn/notification-api/internal/mocks/service/notification"
	"github.com/aliskhannn/notification-api/internal/model"
	"github.com/aliskhannn/notification-api/internal/rabbitmq/queue"
	"github.com/aliskhannn/notification-api/internal/repository/document"
	"github.com/aliskhannn/notification-api/internal/schedule"
	"github.com/aliskhannn/notification-api/internal/store/docstore"
	"github.com/aliskhannn/notification-api/internal/store/docstore/memory"
)

const testQueue = "ScheduleQueue"

var (
	t1 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 = t1.Add(time.Hour)
	t3 = t2.Add(time.Hour)
)

func sms(id, target string, at time.Time) *model.SmsNotification {
	return &model.SmsNotification{
		Base:    model.Base{ID: id, ScheduleDate: at},
		Message: "hello",
		Target:  target,
	}
}

func newMemoryService(t *testing.T) (*Service, *schedule.Queue[model.Notification]) {
	t.Helper()

	repo := document.NewRepository[model.Notification](memory.New(), model.DefaultCodec, "notification",
		document.WithImmutablePaths("/requestId", "/"+model.DiscriminatorField))
	q := schedule.NewQueue[model.Notification](schedule.NewMemorySortedSet(), model.DefaultCodec)

	return NewService(repo, q, nil, Options{QueueName: testQueue, Workers: 4}), q
}

func TestService_IntakeEmptyBatch(t *testing.T) {
	ctx := context.Background()
	svc, q := newMemoryService(t)

	_, err := svc.Intake(ctx, retry.Strategy{Attempts: 1}, []model.Notification{sms("", "+1", t1)})
	require.NoError(t, err)

	for name, batch := range map[string][]model.Notification{"null": nil, "empty": {}} {
		t.Run(name, func(t *testing.T) {
			status, err := svc.Intake(ctx, retry.Strategy{Attempts: 1}, batch)
			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, status)

			count, err := q.Count(ctx, testQueue)
			require.NoError(t, err)
			assert.EqualValues(t, 1, count)
		})
	}
}

func TestService_IntakeMixedBatch(t *testing.T) {
	ctx := context.Background()
	svc, q := newMemoryService(t)

	email := &model.EmailNotification{Base: model.Base{ScheduleDate: t3}, To: "a@example.com"}
	push := &model.PushNotification{Base: model.Base{ScheduleDate: t1}, Message: "ping", Target: "device-1"}
	text := sms("", "+1", t2)

	status, err := svc.Intake(ctx, retry.Strategy{Attempts: 1}, []model.Notification{email, text, push})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	count, err := q.Count(ctx, testQueue)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	ids := map[string]bool{email.GetID(): true, text.GetID(): true, push.GetID(): true}
	assert.Len(t, ids, 3)
	assert.NotContains(t, ids, "")

	pending, err := svc.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	assert.IsType(t, &model.PushNotification{}, pending[0].Payload)
	assert.IsType(t, &model.SmsNotification{}, pending[1].Payload)
	assert.IsType(t, &model.EmailNotification{}, pending[2].Payload)
	assert.Equal(t, []string{push.GetID(), text.GetID(), email.GetID()},
		[]string{pending[0].ID, pending[1].ID, pending[2].ID})

	stored, err := svc.Get(ctx, push.GetID(), push.Common().RequestID)
	require.NoError(t, err)
	assert.Equal(t, push, stored)
}

func TestService_IntakeStagesBatch(t *testing.T) {
	ctx := context.Background()
	svc, q := newMemoryService(t)

	batch := []model.Notification{
		sms("client-3", "+3", t3),
		sms("client-1", "+1", t1),
		sms("client-2", "+2", t2),
	}

	status, err := svc.Intake(ctx, retry.Strategy{Attempts: 1}, batch)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	requestID := batch[0].Common().RequestID
	require.NotEmpty(t, requestID)

	ids := map[string]bool{}
	for _, n := range batch {
		assert.Equal(t, requestID, n.Common().RequestID)
		assert.NotContains(t, n.GetID(), "client-")
		ids[n.GetID()] = true
	}
	assert.Len(t, ids, 3)

	count, err := q.Count(ctx, testQueue)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	pending, err := svc.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	var targets []string
	for _, e := range pending {
		targets = append(targets, e.Payload.(*model.SmsNotification).Target)
	}
	assert.Equal(t, []string{"+1", "+2", "+3"}, targets)

	stored, err := svc.Get(ctx, batch[1].GetID(), requestID)
	require.NoError(t, err)
	assert.Equal(t, batch[1], stored)
}

func TestService_IntakePartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMockdocumentRepository(ctrl)
	queueMock := mocks.NewMockscheduleQueue(ctrl)

	svc := NewService(repoMock, queueMock, nil, Options{QueueName: testQueue, Workers: 2})

	batch := []model.Notification{sms("", "+1", t1), sms("", "+2", t2), sms("", "+3", t3)}

	repoMock.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n model.Notification, pk string) (model.Notification, error) {
			if n.(*model.SmsNotification).Target == "+2" {
				return nil, errors.New("store unavailable")
			}
			return n, nil
		}).Times(3)
	queueMock.EXPECT().Add(gomock.Any(), testQueue, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	status, err := svc.Intake(context.Background(), retry.Strategy{Attempts: 1}, batch)
	assert.Equal(t, http.StatusInternalServerError, status)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 3, batchErr.Total)
	assert.Equal(t, 1, batchErr.Failed)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, 1, stageErr.Index)
	assert.Equal(t, "document", stageErr.Stage)
	assert.Equal(t, batch[1].GetID(), stageErr.ID)
	assert.ErrorContains(t, err, "store unavailable")
}

func TestService_IntakeRetriesQueueAdd(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMockdocumentRepository(ctrl)
	queueMock := mocks.NewMockscheduleQueue(ctrl)
	pubMock := mocks.NewMockstagingPublisher(ctrl)

	svc := NewService(repoMock, queueMock, pubMock, Options{QueueName: testQueue})

	n := sms("", "+1", t1)
	strategy := retry.Strategy{Attempts: 3, Delay: time.Millisecond, Backoff: 1}
	wantScore, err := schedule.ScoreOf(t1, schedule.DefaultResolution)
	require.NoError(t, err)

	repoMock.EXPECT().Create(gomock.Any(), n, gomock.Any()).Return(n, nil)
	gomock.InOrder(
		queueMock.EXPECT().Add(gomock.Any(), testQueue, gomock.Any(), n, wantScore).Return(errors.New("timeout")),
		queueMock.EXPECT().Add(gomock.Any(), testQueue, gomock.Any(), n, wantScore).Return(nil),
	)
	pubMock.EXPECT().Publish(gomock.Any(), strategy).
		DoAndReturn(func(msg queue.StagedMessage, _ retry.Strategy) error {
			assert.Equal(t, n.GetID(), msg.ID)
			assert.Equal(t, "SmsNotification", msg.Type)
			assert.Equal(t, "sms", msg.Channel)
			assert.Equal(t, wantScore, msg.Score)
			return errors.New("broker down")
		})

	// A failed announcement does not fail intake.
	status, err := svc.Intake(context.Background(), strategy, []model.Notification{n})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestService_IntakeScoreOutOfRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repoMock := mocks.NewMockdocumentRepository(ctrl)
	queueMock := mocks.NewMockscheduleQueue(ctrl)

	// Nanosecond ticks put present-day dates beyond exact float64 range.
	svc := NewService(repoMock, queueMock, nil, Options{QueueName: testQueue, Resolution: time.Nanosecond})

	status, err := svc.Intake(context.Background(), retry.Strategy{}, []model.Notification{sms("", "+1", t1)})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.ErrorIs(t, err, schedule.ErrScoreOutOfRange)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "score", stageErr.Stage)
}

func TestService_GetNotFound(t *testing.T) {
	svc, _ := newMemoryService(t)

	_, err := svc.Get(context.Background(), "missing", "r1")
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestService_PatchReschedules(t *testing.T) {
	ctx := context.Background()
	svc, q := newMemoryService(t)

	batch := []model.Notification{sms("", "+1", t2), sms("", "+2", t3)}
	_, err := svc.Intake(ctx, retry.Strategy{Attempts: 1}, batch)
	require.NoError(t, err)

	late := batch[1]
	patched, err := svc.Patch(ctx, retry.Strategy{Attempts: 1}, late.GetID(), late.Common().RequestID, []document.PatchOperation{
		document.Set("/scheduleDate", docstore.String(t1.Format(time.RFC3339Nano))),
		document.Set("/message", docstore.String("earlier")),
	})
	require.NoError(t, err)
	assert.True(t, patched.Common().ScheduleDate.Equal(t1))

	count, err := q.Count(ctx, testQueue)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	pending, err := svc.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, late.GetID(), pending[0].ID)
	assert.Equal(t, "earlier", pending[0].Payload.(*model.SmsNotification).Message)
}

func TestService_PatchMissingPath(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)

	n := sms("", "+1", t1)
	_, err := svc.Intake(ctx, retry.Strategy{Attempts: 1}, []model.Notification{n})
	require.NoError(t, err)

	_, err = svc.Patch(ctx, retry.Strategy{}, n.GetID(), n.Common().RequestID, []document.PatchOperation{
		{Op: document.PatchReplace, Path: "/importance", Value: docstore.String("high")},
	})
	assert.ErrorIs(t, err, docstore.ErrPathNotFound)
}

func TestService_PatchRejectsImmutablePaths(t *testing.T) {
	ctx := context.Background()
	svc, q := newMemoryService(t)

	n := sms("", "+1", t1)
	_, err := svc.Intake(ctx, retry.Strategy{Attempts: 1}, []model.Notification{n})
	require.NoError(t, err)

	tests := []struct {
		name string
		op   document.PatchOperation
	}{
		{name: "id", op: document.Set("/id", docstore.String("hijacked"))},
		{name: "request id", op: document.Set("/requestId", docstore.String("other"))},
		{name: "notification type", op: document.Set("/notificationType", docstore.String("Bogus"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Patch(ctx, retry.Strategy{Attempts: 1}, n.GetID(), n.Common().RequestID, []document.PatchOperation{tt.op})
			assert.ErrorIs(t, err, document.ErrInvalidArgument)

			count, err := q.Count(ctx, testQueue)
			require.NoError(t, err)
			assert.EqualValues(t, 1, count)
		})
	}

	stored, err := svc.Get(ctx, n.GetID(), n.Common().RequestID)
	require.NoError(t, err)
	assert.Equal(t, n, stored)

	require.NoError(t, svc.Delete(ctx, n.GetID(), n.Common().RequestID))
	count, err := q.Count(ctx, testQueue)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_DeleteUnschedules(t *testing.T) {
	ctx := context.Background()
	svc, q := newMemoryService(t)

	batch := []model.Notification{sms("", "+1", t1), sms("", "+2", t2)}
	_, err := svc.Intake(ctx, retry.Strategy{Attempts: 1}, batch)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, batch[0].GetID(), batch[0].Common().RequestID))

	count, err := q.Count(ctx, testQueue)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	err = svc.Delete(ctx, batch[0].GetID(), batch[0].Common().RequestID)
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestService_DropRequest(t *testing.T) {
	ctx := context.Background()
	svc, q := newMemoryService(t)

	first := []model.Notification{sms("", "+1", t1), sms("", "+2", t2)}
	second := []model.Notification{sms("", "+3", t3)}
	_, err := svc.Intake(ctx, retry.Strategy{Attempts: 1}, first)
	require.NoError(t, err)
	_, err = svc.Intake(ctx, retry.Strategy{Attempts: 1}, second)
	require.NoError(t, err)

	dropped, err := svc.DropRequest(ctx, first[0].Common().RequestID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, dropped)

	pending, err := svc.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second[0].GetID(), pending[0].ID)

	_, err = svc.DropRequest(ctx, first[0].Common().RequestID)
	assert.ErrorIs(t, err, document.ErrNotFound)

	count, err := q.Count(ctx, testQueue)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestService_IntakeConcurrentBatches(t *testing.T) {
	ctx := context.Background()
	svc, q := newMemoryService(t)

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			at := t1.Add(time.Duration(i) * time.Minute)
			_, err := svc.Intake(ctx, retry.Strategy{Attempts: 1}, []model.Notification{sms("", "+1", at), sms("", "+2", at)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := q.Count(ctx, testQueue)
	require.NoError(t, err)
	assert.EqualValues(t, 8, count)
}
