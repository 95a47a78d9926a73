package file

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/crmarques/lioctl/config"
)

func validateCatalog(contextCatalog config.ContextCatalog) error {
	if len(contextCatalog.Contexts) == 0 {
		if contextCatalog.CurrentCtx != "" {
			return validationError("current-ctx must be empty when contexts list is empty", nil)
		}
		return nil
	}

	seen := map[string]struct{}{}
	for _, item := range contextCatalog.Contexts {
		if item.Name == "" {
			return validationError("context name must not be empty", nil)
		}
		if _, exists := seen[item.Name]; exists {
			return validationError(fmt.Sprintf("duplicate context name %q", item.Name), nil)
		}
		seen[item.Name] = struct{}{}

		if err := validateConfig(item); err != nil {
			return err
		}
	}

	if contextCatalog.CurrentCtx == "" {
		return validationError("current-ctx must be set when contexts are defined", nil)
	}

	if _, exists := seen[contextCatalog.CurrentCtx]; !exists {
		return validationError(fmt.Sprintf("current-ctx %q does not match any context", contextCatalog.CurrentCtx), nil)
	}

	return nil
}

func validateConfig(cfg config.Context) error {
	cfg = normalizeConfig(cfg)

	if cfg.Name == "" {
		return validationError("context name must not be empty", nil)
	}

	if err := validateTargetcli(cfg.Targetcli); err != nil {
		return err
	}

	if cfg.Archive != nil {
		if cfg.Archive.Git == nil {
			return validationError("archive must define git", nil)
		}
		if cfg.Archive.Git.BaseDir == "" {
			return validationError("archive.git.base-dir is required", nil)
		}
	}

	if cfg.Metrics != nil {
		if cfg.Metrics.Textfile == "" {
			return validationError("metrics.textfile is required", nil)
		}
		if filepath.Ext(cfg.Metrics.Textfile) != ".prom" {
			return validationError("metrics.textfile must use the .prom extension", nil)
		}
	}

	return nil
}

func validateTargetcli(targetcli config.Targetcli) error {
	if targetcli.Savefile != "" && !filepath.IsAbs(targetcli.Savefile) {
		return validationError("targetcli.savefile must be an absolute path", nil)
	}
	if targetcli.MinVersion != "" {
		if _, err := semver.NewVersion(targetcli.MinVersion); err != nil {
			return validationError(fmt.Sprintf("targetcli.min-version %q is not a valid version", targetcli.MinVersion), err)
		}
	}
	return nil
}

func normalizeConfig(cfg config.Context) config.Context {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Targetcli.Binary = strings.TrimSpace(cfg.Targetcli.Binary)
	cfg.Targetcli.Savefile = strings.TrimSpace(cfg.Targetcli.Savefile)
	cfg.Targetcli.MinVersion = strings.TrimSpace(cfg.Targetcli.MinVersion)
	cfg.Manifests.Dir = strings.TrimSpace(cfg.Manifests.Dir)
	return cfg
}

func applyConfigDefaults(cfg config.Context) config.Context {
	cfg = normalizeConfig(cfg)
	if cfg.Targetcli.Binary == "" {
		cfg.Targetcli.Binary = config.DefaultTargetcliBinary
	}
	if cfg.Targetcli.Savefile == "" {
		cfg.Targetcli.Savefile = config.DefaultSavefile
	}
	return cfg
}

func compactConfigForPersistence(cfg config.Context) config.Context {
	if cfg.Targetcli.Binary == config.DefaultTargetcliBinary {
		cfg.Targetcli.Binary = ""
	}
	if filepath.Clean(cfg.Targetcli.Savefile) == config.DefaultSavefile {
		cfg.Targetcli.Savefile = ""
	}
	return cfg
}

func applyOverrides(cfg config.Context, overrides map[string]string) (config.Context, error) {
	for _, key := range sortedOverrideKeys(overrides) {
		value := strings.TrimSpace(overrides[key])
		switch key {
		case config.OverrideTargetcliBinary:
			cfg.Targetcli.Binary = value
		case config.OverrideTargetcliSavefile:
			cfg.Targetcli.Savefile = value
		case config.OverrideManifestsDir:
			cfg.Manifests.Dir = value
		case config.OverrideArchiveGitBaseDir:
			if cfg.Archive == nil {
				cfg.Archive = &config.Archive{}
			}
			if cfg.Archive.Git == nil {
				cfg.Archive.Git = &config.GitArchive{}
			}
			cfg.Archive.Git.BaseDir = value
		case config.OverrideMetricsTextfile:
			if cfg.Metrics == nil {
				cfg.Metrics = &config.Metrics{}
			}
			cfg.Metrics.Textfile = value
		default:
			return config.Context{}, unknownOverrideError(key)
		}
	}

	return cfg, nil
}

func sortedOverrideKeys(overrides map[string]string) []string {
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
