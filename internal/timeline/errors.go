package timeline

import "errors"

var (
	// ErrNotFound is returned when no item with the requested id exists.
	ErrNotFound = errors.New("timeline item not found")

	// ErrInvalidItem is returned when an item fails field validation. The
	// model is left unchanged.
	ErrInvalidItem = errors.New("invalid timeline item")

	// ErrInvalidRange is returned when a move, trim, or cut would produce an
	// empty or inverted interval.
	ErrInvalidRange = errors.New("invalid time range")
)
