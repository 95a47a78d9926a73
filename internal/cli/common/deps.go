package common

import (
	"context"

	"github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/orchestrator"
	"github.com/crmarques/lioctl/repository"
	"github.com/crmarques/lioctl/snapshot"
	"github.com/spf13/cobra"
)

// Services are the components of one resolved context. Manifests and Archive
// are nil when the context does not configure them.
type Services struct {
	Context      config.Context
	Executor     executor.Executor
	Snapshots    snapshot.Source
	Orchestrator orchestrator.Runner
	Manifests    repository.ManifestStore
	Archive      repository.SnapshotArchive
}

// Bootstrapper builds the services for a context selection.
type Bootstrapper func(ctx context.Context, selection config.ContextSelection) (Services, error)

type CommandDependencies struct {
	Contexts  config.ContextService
	Bootstrap Bootstrapper
}

func RequireContexts(deps CommandDependencies) (config.ContextService, error) {
	if deps.Contexts == nil {
		return nil, ValidationError("context service is not configured", nil)
	}
	return deps.Contexts, nil
}

// ResolveServices bootstraps the context selected by the global flags.
// overrides are applied on top of the --set values.
func ResolveServices(command *cobra.Command, deps CommandDependencies, globalFlags *GlobalFlags, overrides map[string]string) (Services, error) {
	if deps.Bootstrap == nil {
		return Services{}, ValidationError("context bootstrap is not configured", nil)
	}
	selection, err := ContextSelection(globalFlags, overrides)
	if err != nil {
		return Services{}, err
	}
	return deps.Bootstrap(command.Context(), selection)
}

func RequireOrchestrator(services Services) (orchestrator.Runner, error) {
	if services.Orchestrator == nil {
		return nil, ValidationError("orchestrator is not configured", nil)
	}
	return services.Orchestrator, nil
}

func RequireSnapshots(services Services) (snapshot.Source, error) {
	if services.Snapshots == nil {
		return nil, ValidationError("snapshot source is not configured", nil)
	}
	return services.Snapshots, nil
}

func RequireManifests(services Services) (repository.ManifestStore, error) {
	if services.Manifests == nil {
		return nil, ValidationError("manifest directory is not configured: set manifests.dir or pass --manifests", nil)
	}
	return services.Manifests, nil
}

func RequireArchive(services Services) (repository.SnapshotArchive, error) {
	if services.Archive == nil {
		return nil, ValidationError("snapshot archive is not configured: set archive.git.base-dir", nil)
	}
	return services.Archive, nil
}
