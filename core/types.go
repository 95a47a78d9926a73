package core

import (
	"github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/orchestrator"
	"github.com/crmarques/lioctl/reconciler"
	"github.com/crmarques/lioctl/repository"
	"github.com/crmarques/lioctl/snapshot"
)

// LioctlContext is everything a command needs for one resolved context.
type LioctlContext struct {
	Contexts     config.ContextService
	Context      config.Context
	Executor     executor.Executor
	Recorder     *executor.Recorder
	Snapshots    snapshot.Source
	Engine       *reconciler.Engine
	Orchestrator orchestrator.Runner
	// Manifests and Archive are nil when the context does not configure them.
	Manifests repository.ManifestStore
	Archive   repository.SnapshotArchive
}

type BootstrapConfig struct {
	ContextCatalogPath string
	// Executor replaces the targetcli binary when set.
	Executor executor.Executor
}
