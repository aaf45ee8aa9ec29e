package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every missing-entity error.
	ErrNotFound = errors.New("not found")

	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrReviewNotFound  = fmt.Errorf("review %w", ErrNotFound)

	// ErrBadRequest marks wire input that could not be decoded.
	ErrBadRequest = errors.New("bad request")
)
