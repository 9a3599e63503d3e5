// Package segerr defines the error kinds shared by the segmentation packages.
//
// Errors are returned wrapped with context (github.com/pkg/errors); callers
// classify them with errors.Is against the sentinels below.
package segerr

import "github.com/pkg/errors"

var (
	// ErrInvalidDimensions reports a zero-sized image, a buffer whose length
	// does not match its dimensions, or a label outside the declared region
	// count.
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrInvalidParameter reports a numeric parameter for which the
	// computation is undefined (non-positive kernel size, negative distance
	// cutoff, non-finite weights).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownStage reports a workspace stage index outside the known set.
	ErrUnknownStage = errors.New("unknown stage")
)

// Dimensions wraps ErrInvalidDimensions with a formatted message.
func Dimensions(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidDimensions, format, args...)
}

// Parameter wraps ErrInvalidParameter with a formatted message.
func Parameter(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidParameter, format, args...)
}
