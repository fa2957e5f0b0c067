package pipeline

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDIdentityUnique(t *testing.T) {
	seen := make(map[string]bool)
	var src UUIDIdentity
	for i := 0; i < 1000; i++ {
		id, err := src.NewRunID()
		if err != nil {
			t.Fatalf("NewRunID() unexpected error: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate run id %s", id)
		}
		seen[id] = true

		parsed, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("run id %q is not a UUID: %v", id, err)
		}
		if parsed.Version() != 7 {
			t.Errorf("Expected a time-ordered v7 UUID, got version %d", parsed.Version())
		}
	}
}

func TestSequenceIdentity(t *testing.T) {
	src := &SequenceIdentity{Prefix: "test"}
	for _, want := range []string{"test0001", "test0002", "test0003"} {
		got, err := src.NewRunID()
		if err != nil {
			t.Fatalf("NewRunID() unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("NewRunID() = %q, want %q", got, want)
		}
	}
}
