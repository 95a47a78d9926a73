package config

import "context"

// ContextService manages the context catalog behind `lioctl config`.
type ContextService interface {
	List(ctx context.Context) ([]Context, error)
	GetCurrent(ctx context.Context) (Context, error)
	SetCurrent(ctx context.Context, name string) error

	// Create adds cfg and makes it current when the catalog had none.
	Create(ctx context.Context, cfg Context) error
	// Delete removes name. Deleting the current context selects the first
	// remaining one.
	Delete(ctx context.Context, name string) error

	// ResolveContext returns the named context, or the current one when
	// selection.Name is empty, with selection.Overrides applied.
	ResolveContext(ctx context.Context, selection ContextSelection) (Context, error)
	Validate(ctx context.Context, cfg Context) error
}
