package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/notification-api/internal/model"
	"github.com/aliskhannn/notification-api/internal/rabbitmq/queue"
	"github.com/aliskhannn/notification-api/internal/repository/document"
	"github.com/aliskhannn/notification-api/internal/schedule"
	"github.com/aliskhannn/notification-api/internal/store/docstore"
)

//go:generate mockgen -source=service.go -destination=../../mocks/service/notification/mock.go -package=mocks

type documentRepository interface {
	Create(ctx context.Context, n model.Notification, partitionKey string) (model.Notification, error)
	GetByID(ctx context.Context, id, partitionKey string) (model.Notification, bool, error)
	Patch(ctx context.Context, id, partitionKey string, ops ...document.PatchOperation) (model.Notification, error)
	Delete(ctx context.Context, id, partitionKey string) error
	DropPartition(ctx context.Context, partitionKey string) (int64, error)
	Queryable(predicates ...docstore.Filter) *document.Queryable[model.Notification]
}

type scheduleQueue interface {
	Add(ctx context.Context, queue, memberID string, payload model.Notification, score float64) error
	RangeByRank(ctx context.Context, queue string, start, stop int64, ascending bool) ([]schedule.Entry[model.Notification], error)
	Remove(ctx context.Context, queue string, payload model.Notification) (bool, error)
}

type stagingPublisher interface {
	Publish(msg queue.StagedMessage, strategy retry.Strategy) error
}

// DefaultPendingLimit is used by Pending when no positive limit is given.
const DefaultPendingLimit = 50

// Options configures a Service.
type Options struct {
	QueueName  string
	Resolution time.Duration
	Workers    int
}

// Service stages notifications in the document store and the schedule queue.
type Service struct {
	repo       documentRepository
	queue      scheduleQueue
	publisher  stagingPublisher // optional
	queueName  string
	resolution time.Duration
	workers    int
}

// NewService creates a Service. publisher may be nil.
func NewService(repo documentRepository, q scheduleQueue, publisher stagingPublisher, opts Options) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Resolution <= 0 {
		opts.Resolution = schedule.DefaultResolution
	}

	return &Service{
		repo:       repo,
		queue:      q,
		publisher:  publisher,
		queueName:  opts.QueueName,
		resolution: opts.Resolution,
		workers:    opts.Workers,
	}
}

// BatchError reports the items of a batch that could not be staged. Items
// not listed stay staged.
type BatchError struct {
	Total  int
	Failed int
	Errs   []error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("staged %d of %d notifications: %v", e.Total-e.Failed, e.Total, errors.Join(e.Errs...))
}

func (e *BatchError) Unwrap() []error { return e.Errs }

// StageError is the failure of one batch item at one step.
type StageError struct {
	Index int
	ID    string
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("item %d (%s) failed at %s: %v", e.Index, e.ID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Intake stores every notification of the batch under a fresh request id and
// adds it to the schedule queue. Caller supplied ids are replaced. Items are
// staged concurrently and independently; the first failure does not stop the
// others. It returns the HTTP status describing the outcome.
func (s *Service) Intake(ctx context.Context, strategy retry.Strategy, batch []model.Notification) (int, error) {
	if len(batch) == 0 {
		return http.StatusOK, nil
	}

	if strategy.Attempts < 1 {
		strategy.Attempts = 1
	}

	requestID := uuid.NewString()
	for _, n := range batch {
		if n == nil {
			continue
		}
		b := n.Common()
		b.ID = uuid.NewString()
		b.RequestID = requestID
	}

	errs := make([]error, len(batch))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, n := range batch {
		g.Go(func() error {
			errs[i] = s.stage(ctx, strategy, i, n)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}

	if len(failed) > 0 {
		zlog.Logger.Error().
			Str("request_id", requestID).
			Int("failed", len(failed)).
			Int("total", len(batch)).
			Msg("batch partially staged")

		return http.StatusInternalServerError, &BatchError{Total: len(batch), Failed: len(failed), Errs: failed}
	}

	zlog.Logger.Info().Str("request_id", requestID).Int("count", len(batch)).Msg("batch staged")

	return http.StatusOK, nil
}

func (s *Service) stage(ctx context.Context, strategy retry.Strategy, index int, n model.Notification) error {
	if n == nil {
		failedTotal.WithLabelValues("decode").Inc()
		return &StageError{Index: index, Stage: "decode", Err: errors.New("nil notification")}
	}

	b := n.Common()
	fail := func(stage string, err error) error {
		failedTotal.WithLabelValues(stage).Inc()
		zlog.Logger.Error().Err(err).Str("id", b.ID).Str("stage", stage).Msg("failed to stage notification")

		return &StageError{Index: index, ID: b.ID, Stage: stage, Err: err}
	}

	score, err := schedule.ScoreOf(b.ScheduleDate, s.resolution)
	if err != nil {
		return fail("score", err)
	}

	// Not retried: a retry after an ambiguous failure would report a conflict.
	if _, err := s.repo.Create(ctx, n, b.RequestID); err != nil {
		return fail("document", err)
	}

	err = retry.Do(func() error {
		return s.queue.Add(ctx, s.queueName, b.ID, n, score)
	}, strategy)
	if err != nil {
		return fail("queue", err)
	}

	stagedTotal.WithLabelValues(n.Channel()).Inc()
	s.announce(strategy, n, score)

	return nil
}

func (s *Service) announce(strategy retry.Strategy, n model.Notification, score float64) {
	if s.publisher == nil {
		return
	}

	b := n.Common()
	tag, _ := model.DefaultCodec.TagOf(n)
	msg := queue.StagedMessage{
		ID:           b.ID,
		RequestID:    b.RequestID,
		Type:         string(tag),
		Channel:      n.Channel(),
		ScheduleDate: b.ScheduleDate,
		Score:        score,
		Queue:        s.queueName,
	}

	if err := s.publisher.Publish(msg, strategy); err != nil {
		zlog.Logger.Error().Err(err).Str("id", b.ID).Msg("failed to publish staged notification")
	}
}

// Get returns a stored notification or a *document.NotFoundError.
func (s *Service) Get(ctx context.Context, id, requestID string) (model.Notification, error) {
	n, found, err := s.repo.GetByID(ctx, id, requestID)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if !found {
		return nil, &document.NotFoundError{Entity: "notification", ID: id, PartitionKey: requestID}
	}

	return n, nil
}

// Patch updates a stored notification and moves its queue entry to the
// patched payload and schedule date.
func (s *Service) Patch(
	ctx context.Context, strategy retry.Strategy, id, requestID string, ops []document.PatchOperation,
) (model.Notification, error) {
	n, err := s.repo.Patch(ctx, id, requestID, ops...)
	if err != nil {
		return nil, fmt.Errorf("patch notification: %w", err)
	}

	if strategy.Attempts < 1 {
		strategy.Attempts = 1
	}

	score, err := schedule.ScoreOf(n.Common().ScheduleDate, s.resolution)
	if err != nil {
		return nil, fmt.Errorf("reschedule notification %s: %w", id, err)
	}

	err = retry.Do(func() error {
		return s.queue.Add(ctx, s.queueName, n.GetID(), n, score)
	}, strategy)
	if err != nil {
		return nil, fmt.Errorf("reschedule notification %s: %w", id, err)
	}

	return n, nil
}

// Delete removes a notification from the store and the schedule queue.
func (s *Service) Delete(ctx context.Context, id, requestID string) error {
	n, err := s.Get(ctx, id, requestID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, requestID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}

	s.unschedule(ctx, n)

	return nil
}

// DropRequest removes every notification of a batch request.
func (s *Service) DropRequest(ctx context.Context, requestID string) (int64, error) {
	var pending []model.Notification
	for n, err := range s.repo.Queryable().InPartition(requestID).All(ctx) {
		if err != nil {
			return 0, fmt.Errorf("list request %s: %w", requestID, err)
		}
		pending = append(pending, n)
	}

	dropped, err := s.repo.DropPartition(ctx, requestID)
	if err != nil {
		return 0, fmt.Errorf("drop request: %w", err)
	}

	for _, n := range pending {
		s.unschedule(ctx, n)
	}

	return dropped, nil
}

func (s *Service) unschedule(ctx context.Context, n model.Notification) {
	removed, err := s.queue.Remove(ctx, s.queueName, n)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", n.GetID()).Msg("failed to remove notification from schedule")
		return
	}
	if !removed {
		zlog.Logger.Warn().Str("id", n.GetID()).Msg("notification was not scheduled")
	}
}

// Pending returns the earliest scheduled notifications.
func (s *Service) Pending(ctx context.Context, limit int) ([]schedule.Entry[model.Notification], error) {
	if limit <= 0 {
		limit = DefaultPendingLimit
	}

	entries, err := s.queue.RangeByRank(ctx, s.queueName, 0, int64(limit-1), true)
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}

	return entries, nil
}
