package document

import (
	"errors"
	"fmt"
)

var (
	ErrConflict        = errors.New("document already exists")
	ErrNotFound        = errors.New("document not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ConflictError is returned when creating a document whose id is taken.
type ConflictError struct {
	Entity string
	ID     string
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with id %s already exists", e.Entity, e.ID)
}

func (e *ConflictError) Unwrap() error { return e.Err }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError is returned by mutations addressing a missing document or partition.
type NotFoundError struct {
	Entity       string
	ID           string
	PartitionKey string
	Err          error
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("no %s in partition %s", e.Entity, e.PartitionKey)
	}

	return fmt.Sprintf("%s with id %s not found in partition %s", e.Entity, e.ID, e.PartitionKey)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ArgumentError rejects a malformed request before any store call.
type ArgumentError struct {
	Index  int // position of the offending patch operation, -1 when not applicable
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Index < 0 {
		return "invalid argument: " + e.Reason
	}

	return fmt.Sprintf("invalid patch operation %d: %s", e.Index, e.Reason)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
