package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-api/internal/api/respond"
	"github.com/aliskhannn/notification-api/internal/config"
	"github.com/aliskhannn/notification-api/internal/model"
	"github.com/aliskhannn/notification-api/internal/repository/document"
	"github.com/aliskhannn/notification-api/internal/schedule"
	notifsvc "github.com/aliskhannn/notification-api/internal/service/notification"
)

// notificationService defines the interface that the Handler depends on.
//
//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/notification/mock.go -package=mocks
type notificationService interface {
	Intake(ctx context.Context, strategy retry.Strategy, batch []model.Notification) (int, error)
	Get(ctx context.Context, id, requestID string) (model.Notification, error)
	Patch(ctx context.Context, strategy retry.Strategy, id, requestID string, ops []document.PatchOperation) (model.Notification, error)
	Delete(ctx context.Context, id, requestID string) error
	DropRequest(ctx context.Context, requestID string) (int64, error)
	Pending(ctx context.Context, limit int) ([]schedule.Entry[model.Notification], error)
}

// Handler serves the notification intake API.
type Handler struct {
	service   notificationService
	validator *validator.Validate
	codec     *model.Codec
	cfg       *config.Config
}

// NewHandler creates a new Handler instance.
//
// Parameters:
//   - s: implementation of notificationService
//   - v: validator instance for patch operations
//   - codec: notification codec used for request and response bodies
//   - cfg: configuration instance
func NewHandler(
	s notificationService,
	v *validator.Validate,
	codec *model.Codec,
	cfg *config.Config,
) *Handler {
	return &Handler{service: s, validator: v, codec: codec, cfg: cfg}
}

// PendingEntry is one element of the schedule listing.
type PendingEntry struct {
	ID           string          `json:"id"`
	Score        float64         `json:"score"`
	Notification json.RawMessage `json:"notification"`
}

// Create handles POST requests carrying a single notification.
func (h *Handler) Create(c *ginext.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to read request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	n, err := h.codec.Unmarshal(body)
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to decode notification")
		respond.Fail(c.Writer, http.StatusBadRequest, err)
		return
	}

	h.intake(c, []model.Notification{n})
}

// Batch handles POST requests carrying a JSON array of notifications.
func (h *Handler) Batch(c *ginext.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to read request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	batch, err := h.codec.UnmarshalBatch(body)
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to decode notification batch")
		respond.Fail(c.Writer, http.StatusBadRequest, err)
		return
	}

	h.intake(c, batch)
}

func (h *Handler) intake(c *ginext.Context, batch []model.Notification) {
	status, err := h.service.Intake(c.Request.Context(), h.cfg.Retry, batch)
	if err != nil {
		var batchErr *notifsvc.BatchError
		if errors.As(err, &batchErr) {
			respond.Fail(c.Writer, status, fmt.Errorf("staged %d of %d notifications", batchErr.Total-batchErr.Failed, batchErr.Total))
			return
		}

		zlog.Logger.Error().Err(err).Msg("failed to stage notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, status)
}

// Get returns one stored notification.
func (h *Handler) Get(c *ginext.Context) {
	id, requestID, ok := h.address(c)
	if !ok {
		return
	}

	n, err := h.service.Get(c.Request.Context(), id, requestID)
	if err != nil {
		h.fail(c, err, "failed to get notification")
		return
	}

	h.writeNotification(c, n)
}

// Patch applies a list of patch operations to a stored notification.
func (h *Handler) Patch(c *ginext.Context) {
	id, requestID, ok := h.address(c)
	if !ok {
		return
	}

	var ops []document.PatchOperation
	if err := json.NewDecoder(c.Request.Body).Decode(&ops); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to decode patch operations")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	for i, op := range ops {
		if err := h.validator.Struct(op); err != nil {
			respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("operation %d: validation error: %s", i, err.Error()))
			return
		}
	}

	n, err := h.service.Patch(c.Request.Context(), h.cfg.Retry, id, requestID, ops)
	if err != nil {
		h.fail(c, err, "failed to patch notification")
		return
	}

	h.writeNotification(c, n)
}

// Delete removes a notification and its schedule entry.
func (h *Handler) Delete(c *ginext.Context) {
	id, requestID, ok := h.address(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, requestID); err != nil {
		h.fail(c, err, "failed to delete notification")
		return
	}

	respond.OK(c.Writer, "notification deleted")
}

// DropRequest removes every notification of one batch request.
func (h *Handler) DropRequest(c *ginext.Context) {
	requestID := c.Param("requestId")
	if requestID == "" {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing request id"))
		return
	}

	dropped, err := h.service.DropRequest(c.Request.Context(), requestID)
	if err != nil {
		h.fail(c, err, "failed to drop request")
		return
	}

	respond.OK(c.Writer, dropped)
}

// Pending lists the head of the schedule queue.
func (h *Handler) Pending(c *ginext.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid limit"))
			return
		}
		limit = v
	}

	entries, err := h.service.Pending(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err, "failed to list pending notifications")
		return
	}

	out := make([]PendingEntry, 0, len(entries))
	for _, e := range entries {
		data, err := h.codec.Marshal(e.Payload)
		if err != nil {
			h.fail(c, err, "failed to encode notification")
			return
		}
		out = append(out, PendingEntry{ID: e.ID, Score: e.Score, Notification: data})
	}

	respond.OK(c.Writer, out)
}

func (h *Handler) address(c *ginext.Context) (id, requestID string, ok bool) {
	id = c.Param("id")
	requestID = c.Query("requestId")

	if id == "" || requestID == "" {
		zlog.Logger.Warn().Str("id", id).Str("request_id", requestID).Msg("missing notification address")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("id and requestId are required"))
		return "", "", false
	}

	return id, requestID, true
}

func (h *Handler) writeNotification(c *ginext.Context, n model.Notification) {
	data, err := h.codec.Marshal(n)
	if err != nil {
		h.fail(c, err, "failed to encode notification")
		return
	}

	respond.OK(c.Writer, json.RawMessage(data))
}

func (h *Handler) fail(c *ginext.Context, err error, msg string) {
	status := respond.Status(err)
	if status >= http.StatusInternalServerError {
		zlog.Logger.Error().Err(err).Msg(msg)
		respond.Fail(c.Writer, status, fmt.Errorf("internal server error"))
		return
	}

	zlog.Logger.Warn().Err(err).Msg(msg)
	respond.Fail(c.Writer, status, err)
}
