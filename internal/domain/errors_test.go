package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSourceErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := fmt.Errorf("fetching: %w", &SourceError{Source: "sheet", Err: inner})

	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatal("errors.As failed to find SourceError")
	}
	if !errors.Is(err, inner) {
		t.Fatal("errors.Is failed to reach the wrapped cause")
	}
	if !strings.Contains(srcErr.Error(), "sheet") {
		t.Fatalf("message = %q", srcErr.Error())
	}
}

func TestSchemaErrorNamesColumn(t *testing.T) {
	err := &SchemaError{Column: ColEscalationDate}
	if !strings.Contains(err.Error(), `"Escalation Date"`) {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestInsufficientDataErrorCounts(t *testing.T) {
	err := &InsufficientDataError{Analysis: "forecast", Need: 4, Got: 2}
	msg := err.Error()
	if !strings.Contains(msg, "4") || !strings.Contains(msg, "2") {
		t.Fatalf("message = %q", msg)
	}
}
