package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTarget is returned when a nearest-neighbor search has no
	// candidate with valid coordinates.
	ErrEmptyTarget = errors.New("target set has no stations with coordinates")

	// ErrEmptySource is returned when a nearest-neighbor pass is given no
	// query stations.
	ErrEmptySource = errors.New("source set is empty")

	// ErrMissingCoordinates is returned when a query station has NaN coordinates.
	ErrMissingCoordinates = errors.New("station has missing coordinates")

	// ErrDuplicateKey is returned by a strict identifier join when the right
	// side repeats a join key.
	ErrDuplicateKey = errors.New("duplicate join key")

	// ErrUnsupportedFormat is returned for catalog files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
)

// MatchError describes a failed matching operation for one station.
type MatchError struct {
	Op        string // "nearest", "join", "link"
	StationID string
	Err       error
}

func (e *MatchError) Error() string {
	if e.StationID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.StationID, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }
