package debugctx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

type enabledKey struct{}
type writerKey struct{}

func WithEnabled(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, enabledKey{}, enabled)
}

func Enabled(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	enabled, _ := ctx.Value(enabledKey{}).(bool)
	return enabled
}

func WithWriter(ctx context.Context, writer io.Writer) context.Context {
	if writer == nil {
		return ctx
	}

	return context.WithValue(ctx, writerKey{}, writer)
}

func Writer(ctx context.Context) io.Writer {
	if ctx == nil {
		return nil
	}

	writer, _ := ctx.Value(writerKey{}).(io.Writer)
	return writer
}

// NewLogger returns a logger writing "debug: " prefixed lines to writer.
// V(1) records are only emitted when verbose is set.
func NewLogger(writer io.Writer, verbose bool) logr.Logger {
	if writer == nil {
		return logr.Discard()
	}

	verbosity := 0
	if verbose {
		verbosity = 1
	}

	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(writer, "debug: %s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintf(writer, "debug: %s\n", args)
	}, funcr.Options{Verbosity: verbosity})
}

func WithLogger(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// Logger returns the logger attached to ctx. Without one, it builds a logger
// from the debug switch and writer, or discards when debugging is off.
func Logger(ctx context.Context) logr.Logger {
	if ctx == nil {
		return logr.Discard()
	}
	if logger, err := logr.FromContext(ctx); err == nil {
		return logger
	}
	if !Enabled(ctx) {
		return logr.Discard()
	}
	return NewLogger(Writer(ctx), true)
}

func Printf(ctx context.Context, format string, args ...any) {
	if !Enabled(ctx) {
		return
	}

	writer := Writer(ctx)
	if writer == nil {
		return
	}

	message := strings.TrimSpace(fmt.Sprintf(format, args...))
	if message == "" {
		return
	}

	_, _ = fmt.Fprintf(writer, "debug: %s\n", message)
}
