package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/crmarques/lioctl/debugctx"
	"github.com/crmarques/lioctl/metrics"
	"github.com/crmarques/lioctl/reconciler"
	"github.com/crmarques/lioctl/repository"
	"github.com/crmarques/lioctl/resource"
	"github.com/google/uuid"
)

var _ Runner = (*DefaultOrchestrator)(nil)

type DefaultOrchestrator struct {
	Engine Engine
	// Archive and Metrics are optional.
	Archive         repository.SnapshotArchive
	SnapshotPath    string
	Metrics         *metrics.RunMetrics
	MetricsTextfile string

	now      func() time.Time
	newRunID func() string
}

func (o *DefaultOrchestrator) Run(ctx context.Context, desired []resource.Desired, options RunOptions) (Report, error) {
	if o == nil || o.Engine == nil {
		return Report{}, internalError("orchestrator engine is not configured")
	}

	ordered, err := Order(desired)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		RunID:     o.runID(),
		DryRun:    options.DryRun,
		StartedAt: o.clock(),
		Resources: make([]ResourceReport, 0, len(ordered)),
	}
	logger := debugctx.Logger(ctx).WithValues("run_id", report.RunID)
	logger.V(1).Info("run started", "resources", len(ordered), "dry_run", options.DryRun)
	o.Engine.Reset()

	recreated := map[string]bool{}
	stopped := false
	for _, item := range ordered {
		if stopped || ctx.Err() != nil {
			report.add(skippedReport(item))
			continue
		}

		if lun, ok := item.Object.(resource.Lun); ok && recreated[lun.StorageObject] {
			o.Engine.Refresh(resource.KindLun)
		}

		var result reconciler.Result
		var runErr error
		if options.DryRun {
			result, runErr = o.Engine.Plan(ctx, item)
		} else {
			result, runErr = o.Engine.Reconcile(ctx, item)
		}
		if item.Kind() == resource.KindBackstore && result.Action == reconciler.ActionRecreate {
			recreated[item.Path()] = true
		}

		entry := newResourceReport(item, result, runErr)
		report.add(entry)
		logger.V(1).Info("resource evaluated", "kind", string(entry.Kind), "path", entry.Path, "action", string(entry.Action), "status", string(entry.Status))
		if runErr != nil {
			logger.Error(runErr, "resource failed", "kind", string(entry.Kind), "path", entry.Path)
			if options.StopOnError {
				stopped = true
			}
		}
	}
	report.FinishedAt = o.clock()

	if !options.DryRun {
		o.archive(ctx, &report)
		o.recordMetrics(ctx, &report)
	}

	logger.V(1).Info(
		"run finished",
		"changed", report.Summary.Changed,
		"failed", report.Summary.Failed,
		"skipped", report.Summary.Skipped,
	)
	return report, nil
}

func (o *DefaultOrchestrator) archive(ctx context.Context, report *Report) {
	if o.Archive == nil || o.SnapshotPath == "" || !report.Mutated() {
		return
	}

	message := fmt.Sprintf(
		"apply %s\n\nchanged=%d failed=%d skipped=%d",
		report.RunID,
		report.Summary.Changed,
		report.Summary.Failed,
		report.Summary.Skipped,
	)
	committed, err := o.Archive.Commit(ctx, o.SnapshotPath, message)
	if err != nil {
		report.Warnings = append(report.Warnings, "snapshot archive failed: "+err.Error())
		return
	}
	report.Archived = committed
}

func (o *DefaultOrchestrator) recordMetrics(ctx context.Context, report *Report) {
	if o.Metrics == nil {
		return
	}

	for _, item := range report.Resources {
		action := string(item.Action)
		if action == "" {
			action = string(reconciler.ActionNoop)
		}
		outcome := metrics.OutcomeSuccess
		switch item.Status {
		case StatusFailed:
			outcome = metrics.OutcomeFailed
		case StatusSkipped:
			outcome = metrics.OutcomeSkipped
		}
		o.Metrics.ObserveResource(string(item.Kind), action, outcome)
		for _, invocation := range item.Commands {
			o.Metrics.ObserveCommand(invocation.Failed)
		}
	}
	o.Metrics.ObserveRun(report.FinishedAt, report.FinishedAt.Sub(report.StartedAt), report.Summary.Failed == 0 && report.Summary.Skipped == 0)

	if o.MetricsTextfile == "" {
		return
	}
	if err := o.Metrics.WriteTextfile(o.MetricsTextfile); err != nil {
		report.Warnings = append(report.Warnings, "metrics textfile failed: "+err.Error())
		return
	}
	debugctx.Logger(ctx).V(1).Info("wrote metrics textfile", "path", o.MetricsTextfile)
}

func (o *DefaultOrchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

func (o *DefaultOrchestrator) runID() string {
	if o.newRunID != nil {
		return o.newRunID()
	}
	return uuid.NewString()
}
