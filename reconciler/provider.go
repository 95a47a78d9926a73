package reconciler

import (
	"context"
	"slices"

	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/resource"
	"github.com/crmarques/lioctl/snapshot"
)

type Action string

const (
	ActionNoop     Action = "noop"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionRecreate Action = "recreate"
	ActionDelete   Action = "delete"
)

// Mutating reports whether the action issues commands.
func (a Action) Mutating() bool {
	return a != ActionNoop && a != ""
}

// Destructive reports whether the action removes a live object.
func (a Action) Destructive() bool {
	return a == ActionDelete || a == ActionRecreate
}

// Change is the delta the engine hands to a provider. Observed is nil when
// the instance does not currently exist.
type Change struct {
	Desired  resource.Desired
	Observed resource.Object
	Action   Action
	Diff     []resource.FieldChange
}

// Provider is the per-kind part of convergence.
type Provider interface {
	ReadAll(snap snapshot.Snapshot) resource.InstanceMap
	Flush(ctx context.Context, session *Session, change Change) error
}

// CacheBypasser is implemented by providers whose reads are always taken
// from a fresh snapshot.
type CacheBypasser interface {
	BypassCache() bool
}

// Recreator is implemented by providers that cannot change some attributes
// in place.
type Recreator interface {
	RequiresRecreate(diff []resource.FieldChange) bool
}

// ObservedProjector narrows an observed instance to what desired manages.
type ObservedProjector interface {
	ProjectObserved(desired resource.Object, observed resource.Object) resource.Object
}

// Session carries command execution and cache invalidation for one flush.
type Session struct {
	exec   executor.Executor
	cache  *Cache
	path   string
	dryRun bool

	planned   []executor.Invocation
	succeeded int
}

func newSession(exec executor.Executor, cache *Cache, path string, dryRun bool) *Session {
	return &Session{exec: exec, cache: cache, path: path, dryRun: dryRun}
}

// Run executes one targetcli invocation. In dry-run mode the invocation is
// only recorded.
func (s *Session) Run(ctx context.Context, args ...string) error {
	if s.dryRun {
		s.planned = append(s.planned, executor.Invocation{Args: slices.Clone(args)})
		return nil
	}
	if s.exec == nil {
		return faults.NewTypedError(faults.InternalError, "command executor is not configured", nil)
	}

	output, err := s.exec.Run(ctx, args)
	if err != nil {
		// Typed errors such as a failed version gate keep their category.
		if faults.Category(err) != "" {
			return err
		}
		return faults.NewCommandError(s.path, args, output, err)
	}
	s.succeeded++
	return nil
}

func (s *Session) Invalidate(kinds ...resource.Kind) {
	if s.dryRun || s.cache == nil {
		return
	}
	for _, kind := range kinds {
		s.cache.Invalidate(kind)
	}
}

func (s *Session) InvalidateAll() {
	if s.dryRun || s.cache == nil {
		return
	}
	s.cache.InvalidateAll()
}

// Path is the identity of the resource being flushed.
func (s *Session) Path() string {
	return s.path
}

// Mutated reports whether at least one command succeeded.
func (s *Session) Mutated() bool {
	return s.succeeded > 0
}

// Planned returns the invocations recorded in dry-run mode.
func (s *Session) Planned() []executor.Invocation {
	return slices.Clone(s.planned)
}
