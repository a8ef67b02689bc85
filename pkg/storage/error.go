package storage

import "fmt"

// NotFoundError is returned when a submission doesn't exist in the store.
type NotFoundError struct {
	ID int
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("submission not found: %d", e.ID)
}

// ConflictError is returned when a review is applied to a submission that
// was already reviewed.
type ConflictError struct {
	ID int
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("submission already reviewed: %d", e.ID)
}
