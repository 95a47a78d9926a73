package executor

import (
	"context"
	"slices"
	"sync"
)

// Invocation is one recorded command.
type Invocation struct {
	Args   []string `json:"args" yaml:"args"`
	Output string   `json:"output,omitempty" yaml:"output,omitempty"`
	Failed bool     `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Recorder wraps an Executor and keeps every invocation in order.
type Recorder struct {
	inner Executor

	mu          sync.Mutex
	invocations []Invocation
}

var _ Executor = (*Recorder)(nil)

func NewRecorder(inner Executor) *Recorder {
	return &Recorder{inner: inner}
}

func (r *Recorder) Run(ctx context.Context, args []string) (string, error) {
	output, err := r.inner.Run(ctx, args)

	r.mu.Lock()
	r.invocations = append(r.invocations, Invocation{
		Args:   slices.Clone(args),
		Output: output,
		Failed: err != nil,
	})
	r.mu.Unlock()

	return output, err
}

// Mark returns a position usable with Since.
func (r *Recorder) Mark() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.invocations)
}

func (r *Recorder) Since(mark int) []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mark < 0 || mark >= len(r.invocations) {
		return nil
	}
	return slices.Clone(r.invocations[mark:])
}

func (r *Recorder) Invocations() []Invocation {
	return r.Since(0)
}

// Inner returns the wrapped executor.
func (r *Recorder) Inner() Executor {
	return r.inner
}
