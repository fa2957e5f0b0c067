package pipeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IdentitySource hands out Run Identities. Every call must return a value
// no other run in the same work directory uses.
type IdentitySource interface {
	NewRunID() (string, error)
}

// UUIDIdentity returns time-ordered UUIDv7 identities. They sort by
// creation time like a timestamp but stay unique within the same instant.
type UUIDIdentity struct{}

func (UUIDIdentity) NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate run id: %w", err)
	}
	return id.String(), nil
}

// SequenceIdentity returns Prefix0001, Prefix0002, ... and is meant for tests.
type SequenceIdentity struct {
	Prefix string

	mu sync.Mutex
	n  int
}

func (s *SequenceIdentity) NewRunID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%04d", s.Prefix, s.n), nil
}
