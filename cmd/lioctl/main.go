package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/core"
	"github.com/crmarques/lioctl/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	opts := core.BootstrapConfig{}
	err := cli.Execute(ctx, cli.Dependencies{
		Contexts:  core.NewContextService(opts),
		Bootstrap: bootstrapServices(opts),
	})
	stop()
	if err != nil {
		os.Exit(exitCodeForError(err))
	}
}

// bootstrapServices builds the runtime services only for commands that
// reach live state, so config and version work without a valid context.
func bootstrapServices(opts core.BootstrapConfig) cli.Bootstrapper {
	return func(ctx context.Context, selection config.ContextSelection) (cli.Services, error) {
		lioctlContext, err := core.NewLioctlContext(ctx, opts, selection)
		if err != nil {
			return cli.Services{}, err
		}
		return cli.Services{
			Context:      lioctlContext.Context,
			Executor:     lioctlContext.Executor,
			Snapshots:    lioctlContext.Snapshots,
			Orchestrator: lioctlContext.Orchestrator,
			Manifests:    lioctlContext.Manifests,
			Archive:      lioctlContext.Archive,
		}, nil
	}
}

func exitCodeForError(err error) int {
	return cli.ExitCodeForError(err)
}
