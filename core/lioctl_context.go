package core

import (
	"context"

	"github.com/crmarques/lioctl/config"
	configfile "github.com/crmarques/lioctl/internal/providers/config/file"
)

func NewContextService(opts BootstrapConfig) config.ContextService {
	return configfile.NewFileContextService(opts.ContextCatalogPath)
}

func NewLioctlContext(ctx context.Context, opts BootstrapConfig, selection config.ContextSelection) (LioctlContext, error) {
	contextService := NewContextService(opts)
	resolvedContext, err := contextService.ResolveContext(ctx, selection)
	if err != nil {
		return LioctlContext{}, err
	}

	lioctlContext, err := buildLioctlContext(resolvedContext, opts.Executor)
	if err != nil {
		return LioctlContext{}, err
	}
	lioctlContext.Contexts = contextService
	return lioctlContext, nil
}
