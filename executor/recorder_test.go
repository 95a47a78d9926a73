package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecorderKeepsInvocationsInOrder(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder(Func(func(_ context.Context, args []string) (string, error) {
		if args[0] == "bad" {
			return "boom", errors.New("exit status 1")
		}
		return "ok", nil
	}))

	if _, err := recorder.Run(context.Background(), []string{"/iscsi/", "create", "wwn1"}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	mark := recorder.Mark()
	if _, err := recorder.Run(context.Background(), []string{"bad"}); err == nil {
		t.Fatal("expected error from inner executor")
	}

	want := []Invocation{{Args: []string{"bad"}, Output: "boom", Failed: true}}
	if diff := cmp.Diff(want, recorder.Since(mark)); diff != "" {
		t.Fatalf("unexpected invocations since mark (-want +got):\n%s", diff)
	}
	if got := len(recorder.Invocations()); got != 2 {
		t.Fatalf("expected 2 invocations, got %d", got)
	}
	if recorder.Since(recorder.Mark()) != nil {
		t.Fatal("expected no invocations after latest mark")
	}
}

func TestRecorderCopiesArguments(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder(Func(func(context.Context, []string) (string, error) { return "", nil }))
	args := []string{"saveconfig", "savefile=/etc/target/saveconfig.json"}
	_, _ = recorder.Run(context.Background(), args)
	args[0] = "mutated"

	if got := recorder.Invocations()[0].Args[0]; got != "saveconfig" {
		t.Fatalf("expected recorded args to be copied, got %q", got)
	}
}
