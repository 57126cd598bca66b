package types

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, ok := RunID(ctx); ok {
		t.Fatalf("expected no run id on empty context")
	}

	ctx = WithTraceID(ctx, "t1")
	if got, ok := TraceID(ctx); !ok || got != "t1" {
		t.Fatalf("TraceID mismatch: %v %v", got, ok)
	}

	ctx = WithRequestID(ctx, "req-1")
	if got, ok := RequestID(ctx); !ok || got != "req-1" {
		t.Fatalf("RequestID mismatch: %v %v", got, ok)
	}

	ctx = WithRunID(ctx, "run")
	if got, ok := RunID(ctx); !ok || got != "run" {
		t.Fatalf("RunID mismatch: %v %v", got, ok)
	}

	ctx = WithWorkflowID(ctx, "gtm-workflow-1")
	if got, ok := WorkflowID(ctx); !ok || got != "gtm-workflow-1" {
		t.Fatalf("WorkflowID mismatch: %v %v", got, ok)
	}

	ctx = WithSubject(ctx, "user-1")
	if got, ok := Subject(ctx); !ok || got != "user-1" {
		t.Fatalf("Subject mismatch: %v %v", got, ok)
	}

	ctx = WithRunID(ctx, "")
	if _, ok := RunID(ctx); ok {
		t.Fatalf("empty run id must report missing")
	}
}
