package errs

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Invalid("unknown command %q", "frob"), "InvalidCommand"},
		{Reference("atom %d", 12), "InvalidReference"},
		{Missing("charge"), "MissingProperty"},
		{fmt.Errorf("build: %w", ErrDegenerateCell), "DegenerateCell"},
		{ErrEmptyConfiguration, "EmptyConfiguration"},
		{IO("open", "x.xyz", os.ErrNotExist), "IOFailure"},
		{fmt.Errorf("label: %w", ErrExpression), "ExpressionError"},
		{errors.New("other"), "Error"},
	}

	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestIOErrorKeepsCause(t *testing.T) {
	err := IO("read", "/tmp/missing", os.ErrNotExist)
	if !errors.Is(err, ErrIOFailure) {
		t.Error("expected ErrIOFailure")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("expected wrapped cause to be visible")
	}
	if got := err.Error(); got != "read /tmp/missing: file does not exist" {
		t.Errorf("unexpected message %q", got)
	}
	if IO("read", "x", nil) != nil {
		t.Error("expected nil for nil cause")
	}
}
