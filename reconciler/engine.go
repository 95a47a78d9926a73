package reconciler

import (
	"context"
	"fmt"

	"github.com/crmarques/lioctl/debugctx"
	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/resource"
	"github.com/crmarques/lioctl/snapshot"
)

// Result is the outcome of converging one declared resource.
type Result struct {
	Kind     resource.Kind
	Path     string
	Ensure   resource.Ensure
	Action   Action
	Changes  []resource.FieldChange
	Commands []executor.Invocation
	// Observed is the instance re-read after the flush, nil when absent.
	Observed resource.Object
	DryRun   bool
}

// Engine converges declared resources against live state. One Engine holds
// the cache of one run and must be used sequentially.
type Engine struct {
	source    snapshot.Source
	recorder  *executor.Recorder
	providers map[resource.Kind]Provider
	cache     *Cache
}

// NewEngine builds an engine. recorder must be the executor source persists
// through so that persist calls are reported with each resource.
func NewEngine(source snapshot.Source, recorder *executor.Recorder) *Engine {
	engine := &Engine{
		source:    source,
		recorder:  recorder,
		providers: DefaultProviders(),
	}
	engine.cache = NewCache(engine.loadKind)
	return engine
}

// WithProvider replaces the provider of kind.
func (e *Engine) WithProvider(kind resource.Kind, provider Provider) *Engine {
	e.providers[kind] = provider
	return e
}

func (e *Engine) Cache() *Cache {
	return e.cache
}

// Refresh drops the cached instances of kind so the next existence check
// reads live state.
func (e *Engine) Refresh(kind resource.Kind) {
	e.cache.Invalidate(kind)
}

// Reset drops every cached kind. Runs start from a reset cache.
func (e *Engine) Reset() {
	e.cache.InvalidateAll()
}

// Observe returns every current instance of kind.
func (e *Engine) Observe(ctx context.Context, kind resource.Kind) (resource.InstanceMap, error) {
	provider, err := e.provider(kind)
	if err != nil {
		return nil, err
	}
	return e.instances(ctx, kind, provider)
}

// Reconcile converges desired and reports what was done.
func (e *Engine) Reconcile(ctx context.Context, desired resource.Desired) (Result, error) {
	return e.converge(ctx, desired, false)
}

// Plan computes the commands Reconcile would issue without running them.
func (e *Engine) Plan(ctx context.Context, desired resource.Desired) (Result, error) {
	return e.converge(ctx, desired, true)
}

func (e *Engine) converge(ctx context.Context, desired resource.Desired, dryRun bool) (Result, error) {
	if desired.Object == nil {
		return Result{}, faults.NewTypedError(faults.ValidationError, "resource object is required", nil)
	}

	result := Result{
		Kind:   desired.Kind(),
		Path:   desired.Path(),
		Ensure: desired.Ensure,
		DryRun: dryRun,
	}
	if err := desired.Validate(); err != nil {
		return result, err
	}

	provider, err := e.provider(result.Kind)
	if err != nil {
		return result, err
	}

	instances, err := e.instances(ctx, result.Kind, provider)
	if err != nil {
		return result, err
	}
	observed := instances[result.Path]

	change := planChange(provider, desired, observed)
	result.Action = change.Action
	result.Changes = change.Diff
	result.Observed = project(provider, desired.Object, observed)

	logger := debugctx.Logger(ctx).WithValues("kind", string(result.Kind), "path", result.Path)
	logger.V(1).Info("planned change", "action", string(change.Action), "changes", len(change.Diff), "dry_run", dryRun)

	if !change.Action.Mutating() {
		return result, nil
	}

	mark := 0
	var exec executor.Executor
	if e.recorder != nil {
		mark = e.recorder.Mark()
		exec = e.recorder
	}
	session := newSession(exec, e.cache, result.Path, dryRun)
	flushErr := provider.Flush(ctx, session, change)

	if dryRun {
		result.Commands = session.Planned()
		return result, flushErr
	}

	// Persist even after a partial flush so the savefile matches live state.
	if session.Mutated() {
		if err := e.source.Persist(ctx); err != nil && flushErr == nil {
			flushErr = err
		}
	}
	if e.recorder != nil {
		result.Commands = e.recorder.Since(mark)
	}
	if flushErr != nil {
		logger.Error(flushErr, "flush failed", "action", string(change.Action))
		return result, flushErr
	}

	current, err := e.reread(ctx, provider, result.Path)
	if err != nil {
		return result, err
	}
	e.cache.Put(result.Kind, result.Path, current)
	result.Observed = project(provider, desired.Object, current)
	logger.V(1).Info("converged", "action", string(change.Action), "commands", len(result.Commands))
	return result, nil
}

func planChange(provider Provider, desired resource.Desired, observed resource.Object) Change {
	change := Change{Desired: desired, Observed: observed, Action: ActionNoop}

	switch {
	case desired.Ensure == resource.EnsureAbsent && observed == nil:
	case desired.Ensure == resource.EnsureAbsent:
		change.Action = ActionDelete
	case observed == nil:
		change.Action = ActionCreate
		change.Diff = resource.Diff(desired.Object, nil)
	default:
		change.Diff = resource.Diff(desired.Object, observed)
		if len(change.Diff) == 0 {
			break
		}
		change.Action = ActionUpdate
		if recreator, ok := provider.(Recreator); ok && recreator.RequiresRecreate(change.Diff) {
			change.Action = ActionRecreate
		}
	}
	return change
}

func project(provider Provider, desired resource.Object, observed resource.Object) resource.Object {
	if observed == nil {
		return nil
	}
	if projector, ok := provider.(ObservedProjector); ok {
		return projector.ProjectObserved(desired, observed)
	}
	return observed
}

func (e *Engine) provider(kind resource.Kind) (Provider, error) {
	provider, ok := e.providers[kind]
	if !ok || provider == nil {
		return nil, faults.NewTypedError(faults.InternalError, fmt.Sprintf("no provider registered for kind %q", kind), nil)
	}
	return provider, nil
}

func (e *Engine) instances(ctx context.Context, kind resource.Kind, provider Provider) (resource.InstanceMap, error) {
	if bypasser, ok := provider.(CacheBypasser); ok && bypasser.BypassCache() {
		snap, err := e.source.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		return provider.ReadAll(snap), nil
	}
	return e.cache.GetOrLoad(ctx, kind)
}

func (e *Engine) loadKind(ctx context.Context, kind resource.Kind) (resource.InstanceMap, error) {
	provider, err := e.provider(kind)
	if err != nil {
		return nil, err
	}
	snap, err := e.source.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return provider.ReadAll(snap), nil
}

// reread parses the savefile persisted after the flush.
func (e *Engine) reread(ctx context.Context, provider Provider, path string) (resource.Object, error) {
	snap, err := e.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return provider.ReadAll(snap)[path], nil
}
