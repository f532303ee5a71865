// Package respond writes JSON envelopes for HTTP handlers.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-api/internal/model"
	"github.com/aliskhannn/notification-api/internal/repository/document"
	"github.com/aliskhannn/notification-api/internal/store/docstore"
)

type success struct {
	Result any `json:"result"`
}

type failure struct {
	Error string `json:"error"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to encode response")
	}
}

// OK writes {"result": data} with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, success{Result: data})
}

// Created writes {"result": data} with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, success{Result: data})
}

// Fail writes {"error": err} with the given status.
func Fail(w http.ResponseWriter, status int, err error) {
	JSON(w, status, failure{Error: err.Error()})
}

// Status maps a service error to an HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, model.ErrDecode),
		errors.Is(err, document.ErrInvalidArgument),
		errors.Is(err, docstore.ErrPathNotFound):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
