package catalog

import (
	"fmt"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

const (
	IDSchemeNanoID = "nanoid"
	IDSchemeUUID   = "uuid"

	nanoIDLength = 21
)

// IDGenerator returns a new URL-safe identifier on every call.
type IDGenerator func() string

func NewNanoIDGenerator() (IDGenerator, error) {
	gen, err := nanoid.Standard(nanoIDLength)
	if err != nil {
		return nil, err
	}
	return IDGenerator(gen), nil
}

func NewUUIDGenerator() IDGenerator {
	return uuid.NewString
}

func NewIDGenerator(scheme string) (IDGenerator, error) {
	switch scheme {
	case "", IDSchemeNanoID:
		return NewNanoIDGenerator()
	case IDSchemeUUID:
		return NewUUIDGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}
