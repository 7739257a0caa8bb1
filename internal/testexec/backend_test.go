package testexec

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/testgenie/testgenie/internal/zephyr"
)

func TestDisabledBackendNeverErrors(t *testing.T) {
	t.Parallel()

	backend := NewBackend(nil, zap.NewNop())
	if backend.Enabled() {
		t.Fatal("expected backend without a client to report disabled")
	}

	result, err := backend.TestStatus(context.Background(), "10001", "PROJ-1")
	if err != nil {
		t.Fatalf("expected no error from disabled backend, got %v", err)
	}
	if result.Status != zephyr.StatusUnknown {
		t.Fatalf("expected unknown status, got %q", result.Status)
	}
	if len(result.Attempted) != 0 {
		t.Fatalf("expected no attempted endpoints, got %v", result.Attempted)
	}

	steps, err := backend.TestSteps(context.Background(), "10001")
	if err != nil {
		t.Fatalf("expected no error from disabled backend, got %v", err)
	}
	if len(steps) != 0 {
		t.Fatalf("expected no steps, got %v", steps)
	}

	statuses, err := backend.ExecutionStatuses(context.Background())
	if err != nil {
		t.Fatalf("expected no error from disabled backend, got %v", err)
	}
	if len(statuses) != 0 {
		t.Fatalf("expected no statuses, got %v", statuses)
	}
}
