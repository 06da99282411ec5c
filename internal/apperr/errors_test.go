package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"eventure/internal/apperr"
)

func TestNewNotFound(t *testing.T) {
	err := apperr.NewNotFound("Activity not found")

	if err.Error() != "Activity not found" {
		t.Errorf("expected 'Activity not found', got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap, got %v", err.Unwrap())
	}
}

func TestNewBadRequestWrap(t *testing.T) {
	inner := fmt.Errorf("parse failed")
	err := apperr.NewBadRequestWrap("invalid date", inner)

	if err.Error() != "invalid date: parse failed" {
		t.Errorf("expected 'invalid date: parse failed', got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestNotFound_SurvivesFmtWrapping(t *testing.T) {
	original := apperr.NewNotFound("no such serial")

	wrapped := fmt.Errorf("toggle like: %w", original)
	doubleWrapped := fmt.Errorf("handler: %w", wrapped)

	var nf *apperr.NotFoundError
	if !errors.As(doubleWrapped, &nf) {
		t.Fatal("errors.As should find NotFoundError through double wrapping")
	}
	if nf.Message != "no such serial" {
		t.Errorf("expected 'no such serial', got %q", nf.Message)
	}
}

func TestTypedErrors_NotFoundForPlainErrors(t *testing.T) {
	plain := fmt.Errorf("database connection failed")
	wrapped := fmt.Errorf("storage error: %w", plain)

	var nf *apperr.NotFoundError
	if errors.As(wrapped, &nf) {
		t.Fatal("errors.As should NOT find NotFoundError in plain error chain")
	}
	var br *apperr.BadRequestError
	if errors.As(wrapped, &br) {
		t.Fatal("errors.As should NOT find BadRequestError in plain error chain")
	}
}
