package ferrobus

import "errors"

var (
	// ErrNoPointsFound means a location could not be snapped to the street
	// network (the graph is empty or has no nearby node).
	ErrNoPointsFound = errors.New("no nearby street nodes found for snapping")

	// ErrInvalidData covers malformed build configuration and inputs.
	ErrInvalidData = errors.New("invalid data")
)
