package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := Wrap(CodeDependency, cause, "ledger write failed")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsThroughChain(t *testing.T) {
	typed := New(CodeNotFound, "purchase entry missing")
	wrapped := fmt.Errorf("settle redemption: %w", typed)

	got := As(wrapped)
	if got == nil {
		t.Fatal("expected typed error through fmt wrap")
	}
	if got.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", got.Code())
	}
}

func TestMetadataFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOT_A_REAL_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(New(CodeValidation, "bad amount")) {
		t.Fatal("validation errors must not be retried")
	}
	if !IsRetryable(New(CodeDependency, "db unavailable")) {
		t.Fatal("dependency errors are retryable")
	}
	if !IsRetryable(stdErrors.New("raw infra error")) {
		t.Fatal("untyped errors are treated as transient")
	}
	if IsRetryable(nil) {
		t.Fatal("nil is not retryable")
	}
}
