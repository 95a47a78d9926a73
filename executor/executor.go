package executor

import "context"

// Executor runs one targetcli invocation and returns its combined output.
type Executor interface {
	Run(ctx context.Context, args []string) (string, error)
}

// VersionReporter is implemented by executors that can report the version of
// the underlying tool.
type VersionReporter interface {
	Version(ctx context.Context) (string, error)
}

type Func func(ctx context.Context, args []string) (string, error)

func (f Func) Run(ctx context.Context, args []string) (string, error) {
	return f(ctx, args)
}

// VersionChecker is implemented by executors that enforce a minimum version
// of the underlying tool.
type VersionChecker interface {
	CheckVersion(ctx context.Context) error
}
