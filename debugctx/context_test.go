package debugctx

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestPrintfRequiresEnabledAndWriter(t *testing.T) {
	t.Parallel()

	buffer := &bytes.Buffer{}
	ctx := WithWriter(context.Background(), buffer)

	Printf(ctx, "hidden %d", 1)
	if buffer.Len() != 0 {
		t.Fatalf("expected no output while disabled, got %q", buffer.String())
	}

	Printf(WithEnabled(ctx, true), "shown %d", 2)
	if got := buffer.String(); got != "debug: shown 2\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestLoggerVerbosity(t *testing.T) {
	t.Parallel()

	quiet := &bytes.Buffer{}
	ctx := WithLogger(context.Background(), NewLogger(quiet, false))
	Logger(ctx).V(1).Info("cache miss", "kind", "lun")
	if quiet.Len() != 0 {
		t.Fatalf("expected V(1) suppressed without verbose, got %q", quiet.String())
	}
	Logger(ctx).Info("run started")
	if !strings.Contains(quiet.String(), `"msg"="run started"`) {
		t.Fatalf("expected info record, got %q", quiet.String())
	}

	verbose := &bytes.Buffer{}
	ctx = WithLogger(context.Background(), NewLogger(verbose, true))
	Logger(ctx).V(1).Info("cache miss", "kind", "lun")
	output := verbose.String()
	if !strings.HasPrefix(output, "debug: ") || !strings.Contains(output, `"kind"="lun"`) {
		t.Fatalf("unexpected verbose output %q", output)
	}
}

func TestLoggerFallsBackToDebugSwitch(t *testing.T) {
	t.Parallel()

	buffer := &bytes.Buffer{}
	ctx := WithWriter(WithEnabled(context.Background(), true), buffer)
	Logger(ctx).V(1).Info("fallback")
	if !strings.Contains(buffer.String(), "fallback") {
		t.Fatalf("expected fallback logger output, got %q", buffer.String())
	}

	Logger(context.Background()).Info("discarded")
}
