package vault

import "errors"

var (
	// ErrNotFound is returned when a link id is not in the current view.
	ErrNotFound = errors.New("link not found")

	// ErrDeleteFailed is returned when the store refused a delete.
	ErrDeleteFailed = errors.New("failed to delete link")

	// ErrReorderWhileFiltered is returned when a reorder is attempted on a
	// filtered view, where displayed positions are not collection positions.
	ErrReorderWhileFiltered = errors.New("reordering is disabled while a search filter is active")
)
