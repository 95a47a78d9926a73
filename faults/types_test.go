package faults

import (
	"errors"
	"strings"
	"testing"
)

func TestIsCategory(t *testing.T) {
	t.Parallel()

	err := NewTypedError(ValidationError, "invalid input", nil)
	if !IsCategory(err, ValidationError) {
		t.Fatalf("expected validation category match")
	}
	if IsCategory(err, NotFoundError) {
		t.Fatalf("expected not-found category mismatch")
	}

	wrapped := errors.New("wrap: " + err.Error())
	if IsCategory(wrapped, ValidationError) {
		t.Fatalf("plain wrapped string error must not match typed category")
	}

	joined := errors.Join(err, errors.New("other"))
	if !IsCategory(joined, ValidationError) {
		t.Fatalf("expected category match through errors.Join")
	}
}

func TestCategory(t *testing.T) {
	t.Parallel()

	if got := Category(NewTypedError(ReadError, "bad snapshot", nil)); got != ReadError {
		t.Fatalf("expected ReadError, got %q", got)
	}
	if got := Category(errors.New("plain")); got != "" {
		t.Fatalf("expected empty category for plain error, got %q", got)
	}
}

func TestNewCommandErrorCarriesFailure(t *testing.T) {
	t.Parallel()

	err := NewCommandError(
		"/backstores/fileio/disk0",
		[]string{"backstores/fileio", "create", "disk0", "file_or_dev=/srv/disk 0.img"},
		"No such file\n",
		errors.New("exit status 1"),
	)
	if !IsCategory(err, CommandError) {
		t.Fatalf("expected CommandError category")
	}

	var failure *CommandFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected CommandFailure in chain")
	}
	if failure.ResourcePath != "/backstores/fileio/disk0" {
		t.Fatalf("unexpected resource path %q", failure.ResourcePath)
	}

	message := err.Error()
	for _, fragment := range []string{
		"command failed for /backstores/fileio/disk0",
		`"file_or_dev=/srv/disk 0.img"`,
		"exit status 1",
		"(output: No such file)",
	} {
		if !strings.Contains(message, fragment) {
			t.Fatalf("expected %q in error message %q", fragment, message)
		}
	}
}
