package core

import (
	"strings"

	"github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/metrics"
	targetcliexec "github.com/crmarques/lioctl/internal/providers/executor/targetcli"
	fsstore "github.com/crmarques/lioctl/internal/providers/repository/fsstore"
	gitarchive "github.com/crmarques/lioctl/internal/providers/repository/git"
	"github.com/crmarques/lioctl/internal/providers/snapshot/savefile"
	"github.com/crmarques/lioctl/orchestrator"
	"github.com/crmarques/lioctl/reconciler"
)

func buildLioctlContext(resolvedContext config.Context, override executor.Executor) (LioctlContext, error) {
	exec := override
	if exec == nil {
		targetcli, err := targetcliexec.New(resolvedContext.Targetcli.Binary, resolvedContext.Targetcli.MinVersion)
		if err != nil {
			return LioctlContext{}, err
		}
		exec = targetcli
	}

	savefilePath := resolvedContext.Targetcli.Savefile
	if strings.TrimSpace(savefilePath) == "" {
		return LioctlContext{}, faults.NewTypedError(faults.ValidationError, "targetcli savefile must not be empty", nil)
	}

	recorder := executor.NewRecorder(exec)
	source := savefile.NewSource(recorder, savefilePath)
	engine := reconciler.NewEngine(source, recorder)

	defaultOrchestrator := &orchestrator.DefaultOrchestrator{
		Engine:       engine,
		SnapshotPath: savefilePath,
	}

	lioctlContext := LioctlContext{
		Context:      resolvedContext,
		Executor:     exec,
		Recorder:     recorder,
		Snapshots:    source,
		Engine:       engine,
		Orchestrator: defaultOrchestrator,
	}

	if dir := strings.TrimSpace(resolvedContext.Manifests.Dir); dir != "" {
		lioctlContext.Manifests = fsstore.NewManifestStore(dir)
	}

	if resolvedContext.Archive != nil {
		if resolvedContext.Archive.Git == nil {
			return LioctlContext{}, faults.NewTypedError(faults.InternalError, "archive provider is invalid", nil)
		}
		archive := gitarchive.NewSnapshotArchive(*resolvedContext.Archive.Git)
		defaultOrchestrator.Archive = archive
		lioctlContext.Archive = archive
	}

	if resolvedContext.Metrics != nil {
		defaultOrchestrator.Metrics = metrics.New()
		defaultOrchestrator.MetricsTextfile = resolvedContext.Metrics.Textfile
	}

	return lioctlContext, nil
}
