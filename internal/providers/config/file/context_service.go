package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/internal/providers/shared/fsutil"
)

var _ config.ContextService = (*FileContextService)(nil)

// FileContextService keeps contexts in a yaml catalog. An empty or missing
// catalog reads as the single built-in "default" context, which targets the
// stock /etc/target/saveconfig.json.
type FileContextService struct {
	contextCatalogPath string
}

func NewFileContextService(path string) *FileContextService {
	return &FileContextService{contextCatalogPath: path}
}

func (s *FileContextService) Create(_ context.Context, cfg config.Context) error {
	cfg = normalizeConfig(cfg)
	if err := validateConfig(cfg); err != nil {
		return err
	}

	return s.update(func(catalog *config.ContextCatalog) error {
		if indexOf(catalog.Contexts, cfg.Name) >= 0 {
			return faults.NewTypedError(faults.ConflictError, fmt.Sprintf("context %q already exists", cfg.Name), nil)
		}
		catalog.Contexts = append(catalog.Contexts, cfg)
		if catalog.CurrentCtx == "" {
			catalog.CurrentCtx = cfg.Name
		}
		return nil
	})
}

func (s *FileContextService) Delete(_ context.Context, name string) error {
	return s.update(func(catalog *config.ContextCatalog) error {
		idx := indexOf(catalog.Contexts, name)
		if idx < 0 {
			return contextNotFound(name, catalog.Contexts)
		}
		catalog.Contexts = slices.Delete(catalog.Contexts, idx, idx+1)

		if catalog.CurrentCtx == name {
			catalog.CurrentCtx = ""
			if len(catalog.Contexts) > 0 {
				catalog.CurrentCtx = catalog.Contexts[0].Name
			}
		}
		return nil
	})
}

func (s *FileContextService) SetCurrent(_ context.Context, name string) error {
	return s.update(func(catalog *config.ContextCatalog) error {
		if indexOf(catalog.Contexts, name) < 0 {
			return contextNotFound(name, catalog.Contexts)
		}
		catalog.CurrentCtx = name
		return nil
	})
}

func (s *FileContextService) List(_ context.Context) ([]config.Context, error) {
	catalog, err := s.effectiveCatalog()
	if err != nil {
		return nil, err
	}
	return slices.Clone(catalog.Contexts), nil
}

func (s *FileContextService) GetCurrent(_ context.Context) (config.Context, error) {
	catalog, err := s.effectiveCatalog()
	if err != nil {
		return config.Context{}, err
	}

	idx := indexOf(catalog.Contexts, catalog.CurrentCtx)
	if idx < 0 {
		return config.Context{}, notFoundError(fmt.Sprintf("current context %q not found", catalog.CurrentCtx))
	}
	return catalog.Contexts[idx], nil
}

// ResolveContext applies overrides before defaults, so --set
// targetcli.savefile= falls back to the stock savefile rather than leaving
// it empty.
func (s *FileContextService) ResolveContext(_ context.Context, selection config.ContextSelection) (config.Context, error) {
	catalog, err := s.effectiveCatalog()
	if err != nil {
		return config.Context{}, err
	}

	name := selection.Name
	if name == "" {
		name = catalog.CurrentCtx
	}
	idx := indexOf(catalog.Contexts, name)
	if idx < 0 {
		return config.Context{}, contextNotFound(name, catalog.Contexts)
	}

	resolved, err := applyOverrides(normalizeConfig(catalog.Contexts[idx]), selection.Overrides)
	if err != nil {
		return config.Context{}, err
	}
	resolved = applyConfigDefaults(resolved)
	if err := validateConfig(resolved); err != nil {
		return config.Context{}, err
	}
	return resolved, nil
}

func (s *FileContextService) Validate(_ context.Context, cfg config.Context) error {
	return validateConfig(normalizeConfig(cfg))
}

func (s *FileContextService) effectiveCatalog() (config.ContextCatalog, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return config.ContextCatalog{}, err
	}
	if len(catalog.Contexts) == 0 {
		return config.ContextCatalog{
			Contexts:   []config.Context{config.DefaultContext()},
			CurrentCtx: config.DefaultContextName,
		}, nil
	}
	return catalog, nil
}

// update loads the stored catalog, applies mutate and writes the result back
// atomically. Nothing is written when mutate fails.
func (s *FileContextService) update(mutate func(*config.ContextCatalog) error) error {
	catalog, err := s.loadCatalog()
	if err != nil {
		return err
	}
	if err := mutate(&catalog); err != nil {
		return err
	}
	return s.saveCatalog(catalog)
}

func (s *FileContextService) saveCatalog(catalog config.ContextCatalog) error {
	compacted := config.ContextCatalog{
		Contexts:   make([]config.Context, len(catalog.Contexts)),
		CurrentCtx: catalog.CurrentCtx,
	}
	for idx, item := range catalog.Contexts {
		compacted.Contexts[idx] = compactConfigForPersistence(item)
	}
	if err := validateCatalog(compacted); err != nil {
		return err
	}

	path, err := resolveCatalogPath(s.contextCatalogPath)
	if err != nil {
		return err
	}
	encoded, err := encodeCatalog(compacted)
	if err != nil {
		return internalError("failed to encode context catalog", err)
	}
	if err := fsutil.WriteFileAtomic(path, encoded, 0o600); err != nil {
		return internalError("failed to write context catalog", err)
	}
	return nil
}

func (s *FileContextService) loadCatalog() (config.ContextCatalog, error) {
	path, err := resolveCatalogPath(s.contextCatalogPath)
	if err != nil {
		return config.ContextCatalog{}, err
	}

	catalog, err := decodeCatalogFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.ContextCatalog{}, nil
	}
	if err != nil {
		return config.ContextCatalog{}, err
	}
	if err := validateCatalog(catalog); err != nil {
		return config.ContextCatalog{}, err
	}
	return catalog, nil
}

func indexOf(contexts []config.Context, name string) int {
	return slices.IndexFunc(contexts, func(item config.Context) bool { return item.Name == name })
}

func contextNotFound(name string, known []config.Context) error {
	names := make([]string, 0, len(known))
	for _, item := range known {
		names = append(names, item.Name)
	}
	message := fmt.Sprintf("context %q not found", name)
	if len(names) > 0 {
		message += " (known: " + strings.Join(names, ", ") + ")"
	}
	return notFoundError(message)
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string) error {
	return faults.NewTypedError(faults.NotFoundError, message, nil)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
