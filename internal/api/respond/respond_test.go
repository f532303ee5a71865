package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aliskhannn/notification-api/internal/model"
	"github.com/aliskhannn/notification-api/internal/repository/document"
	"github.com/aliskhannn/notification-api/internal/store/docstore"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"decode", &model.DecodeError{Type: "Fax", Reason: "unknown notification type"}, http.StatusBadRequest},
		{"argument", &document.ArgumentError{Index: 2, Reason: "bad path"}, http.StatusBadRequest},
		{"missing patch path", fmt.Errorf("patch notification: %w", docstore.ErrPathNotFound), http.StatusBadRequest},
		{"not found", &document.NotFoundError{Entity: "notification", ID: "n1"}, http.StatusNotFound},
		{"conflict", fmt.Errorf("wrapped: %w", &document.ConflictError{Entity: "notification", ID: "n1"}), http.StatusConflict},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestEnvelopes(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, http.StatusOK)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":200}`, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	w = httptest.NewRecorder()
	Fail(w, http.StatusNotFound, errors.New("notification not found"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"notification not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	Created(w, "n1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"result":"n1"}`, w.Body.String())
}
