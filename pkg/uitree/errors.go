package uitree

import "errors"

var (
	// ErrMalformedBounds is returned when a bounds attribute holds fewer than four integers.
	ErrMalformedBounds = errors.New("malformed bounds")

	// ErrMalformedPath is returned when an expression is not a structural path.
	ErrMalformedPath = errors.New("malformed path expression")

	// ErrNoHierarchy is returned when a snapshot contains no root element.
	ErrNoHierarchy = errors.New("invalid snapshot: no root element found")
)
