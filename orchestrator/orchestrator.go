package orchestrator

import (
	"context"

	"github.com/crmarques/lioctl/reconciler"
	"github.com/crmarques/lioctl/resource"
)

// Engine converges single resources. reconciler.Engine implements it.
type Engine interface {
	Reconcile(ctx context.Context, desired resource.Desired) (reconciler.Result, error)
	Plan(ctx context.Context, desired resource.Desired) (reconciler.Result, error)
	Refresh(kind resource.Kind)
	Reset()
}

var _ Engine = (*reconciler.Engine)(nil)

type RunOptions struct {
	DryRun      bool
	StopOnError bool
}

// Runner converges a declared resource set.
type Runner interface {
	Run(ctx context.Context, desired []resource.Desired, options RunOptions) (Report, error)
}
