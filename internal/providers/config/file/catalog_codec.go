package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/yamlutil"
	"go.yaml.in/yaml/v3"
)

var overrideKeys = []string{
	config.OverrideArchiveGitBaseDir,
	config.OverrideManifestsDir,
	config.OverrideMetricsTextfile,
	config.OverrideTargetcliBinary,
	config.OverrideTargetcliSavefile,
}

func decodeCatalogFile(path string) (config.ContextCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.ContextCatalog{}, err
	}
	return decodeCatalogFrom(data, path)
}

// decodeCatalog reads a single yaml document. Unknown keys are rejected.
func decodeCatalog(data []byte) (config.ContextCatalog, error) {
	return decodeCatalogFrom(data, "yaml")
}

func decodeCatalogFrom(data []byte, source string) (config.ContextCatalog, error) {
	var contextCatalog config.ContextCatalog
	if len(bytes.TrimSpace(data)) == 0 {
		return contextCatalog, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&contextCatalog); err != nil {
		return config.ContextCatalog{}, validationError("invalid context catalog "+source, err)
	}
	return contextCatalog, nil
}

func encodeCatalog(contextCatalog config.ContextCatalog) ([]byte, error) {
	return yamlutil.MarshalWithIndent(contextCatalog, 2)
}

func resolveCatalogPath(explicitPath string) (string, error) {
	return resolveCatalogPathFrom(explicitPath, config.SystemContextCatalogPath)
}

// resolveCatalogPathFrom picks, in order: explicitPath, $LIOCTL_CONTEXTS_FILE,
// the user catalog, then systemPath. systemPath only wins when it exists and
// the user catalog does not, so writes land in the user catalog on a fresh
// host.
func resolveCatalogPathFrom(explicitPath string, systemPath string) (string, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv(config.ContextFileEnvVar)
	}
	if path != "" {
		return expandCatalogPath(path)
	}

	userPath, err := expandCatalogPath(config.DefaultContextCatalogPath)
	if err != nil {
		return "", err
	}
	if fileExists(userPath) || systemPath == "" || !fileExists(systemPath) {
		return userPath, nil
	}
	return filepath.Clean(systemPath), nil
}

// expandCatalogPath expands a leading ~ and anchors relative paths at the
// home directory.
func expandCatalogPath(path string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", internalError("failed to resolve user home directory", err)
	}

	if path == "~" {
		path = homeDir
	} else if rest, ok := strings.CutPrefix(path, "~/"); ok {
		path = filepath.Join(homeDir, rest)
	}

	cleanPath := filepath.Clean(path)
	if cleanPath == "." {
		return "", validationError("context catalog path is invalid", errors.New("resolved to current directory"))
	}
	if !filepath.IsAbs(cleanPath) {
		cleanPath = filepath.Join(homeDir, cleanPath)
	}
	return cleanPath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func unknownOverrideError(key string) error {
	return validationError(
		fmt.Sprintf("unknown override key %q: use one of %s", key, strings.Join(overrideKeys, ", ")),
		nil,
	)
}
