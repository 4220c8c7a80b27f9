package cli

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mark3labs/swagger2api/internal/naming"
)

func TestUnknownFlag_ShowsHelpAndUsageError(t *testing.T) {
	t.Parallel()
	for _, args := range [][]string{
		{"generate", "--unknown-flag"},
		{"init", "--no-such"},
		{"version", "--short"},
	} {
		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(args)

		err := root.Execute()
		if err == nil {
			t.Fatalf("%v: expected error for unknown flag", args)
		}
		if !errors.Is(err, ErrUsage) {
			t.Fatalf("%v: expected usage error, got %T: %v", args, err, err)
		}
		if !strings.Contains(err.Error(), "unknown flag") || !strings.Contains(err.Error(), "Usage:") {
			t.Fatalf("%v: unexpected error text: %v", args, err)
		}
	}
}

func TestUsageError_HintKeepsCause(t *testing.T) {
	t.Parallel()
	err := withHint("naming: boom", "add --dict entries.", naming.ErrNoTranslator)
	if !errors.Is(err, ErrUsage) || !errors.Is(err, naming.ErrNoTranslator) {
		t.Fatalf("hinted error lost its identity: %v", err)
	}
	if got, want := err.Error(), "naming: boom\nHint: add --dict entries."; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
