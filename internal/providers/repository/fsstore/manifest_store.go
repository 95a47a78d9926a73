package fsstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/crmarques/lioctl/debugctx"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/internal/providers/shared/fsutil"
	"github.com/crmarques/lioctl/repository"
	"github.com/crmarques/lioctl/resource"
	"github.com/crmarques/lioctl/yamlutil"
	"go.yaml.in/yaml/v3"
)

var _ repository.ManifestStore = (*ManifestStore)(nil)

// ManifestStore reads every *.yaml and *.yml document below a directory.
// Hidden files and directories are skipped.
type ManifestStore struct {
	baseDir string
}

func NewManifestStore(baseDir string) *ManifestStore {
	return &ManifestStore{baseDir: filepath.Clean(baseDir)}
}

func (s *ManifestStore) BaseDir() string {
	return s.baseDir
}

func (s *ManifestStore) Files(_ context.Context) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(s.baseDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != s.baseDir && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, internalError("failed to list manifest directory", err)
	}
	return files, nil
}

func (s *ManifestStore) Load(ctx context.Context) (resource.Manifest, error) {
	files, err := s.Files(ctx)
	if err != nil {
		return resource.Manifest{}, err
	}

	var merged resource.Manifest
	for _, file := range files {
		manifest, err := decodeManifestFile(file)
		if err != nil {
			return resource.Manifest{}, err
		}
		merged.Append(manifest)
	}

	debugctx.Logger(ctx).V(1).Info(
		"loaded manifests",
		"dir", s.baseDir,
		"files", len(files),
		"targets", len(merged.Targets),
		"backstores", len(merged.Backstores),
		"portal_groups", len(merged.PortalGroups),
		"luns", len(merged.Luns),
	)
	return merged, nil
}

func (s *ManifestStore) Save(_ context.Context, name string, manifest resource.Manifest) (string, error) {
	targetPath, err := s.manifestFilePath(name)
	if err != nil {
		return "", err
	}

	encoded, err := EncodeManifest(manifest)
	if err != nil {
		return "", internalError("failed to encode manifest", err)
	}

	if err := fsutil.WriteFileAtomic(targetPath, encoded, 0o644); err != nil {
		return "", internalError("failed to write manifest file", err)
	}
	return targetPath, nil
}

func (s *ManifestStore) check() error {
	if s.baseDir == "" || s.baseDir == "." {
		return validationError("manifest directory must not be empty", nil)
	}
	info, err := os.Stat(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notFoundError(fmt.Sprintf("manifest directory %q does not exist", s.baseDir))
		}
		return internalError("failed to inspect manifest directory", err)
	}
	if !info.IsDir() {
		return validationError(fmt.Sprintf("manifest path %q is not a directory", s.baseDir), nil)
	}
	return nil
}

func (s *ManifestStore) manifestFilePath(name string) (string, error) {
	if s.baseDir == "" || s.baseDir == "." {
		return "", validationError("manifest directory must not be empty", nil)
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.ContainsAny(trimmed, `/\`) || strings.HasPrefix(trimmed, ".") {
		return "", validationError(fmt.Sprintf("manifest name %q must be a plain file name", name), nil)
	}
	if !isManifestFile(trimmed) {
		trimmed += ".yaml"
	}

	filePath, err := fsutil.ContainedPath(s.baseDir, trimmed)
	if err != nil {
		return "", validationError("manifest path escapes manifest directory", err)
	}
	return filePath, nil
}

// DecodeManifest parses a possibly multi-document YAML stream. Unknown keys
// are rejected.
func DecodeManifest(data []byte) (resource.Manifest, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var merged resource.Manifest
	for {
		var document resource.Manifest
		if err := decoder.Decode(&document); err != nil {
			if errors.Is(err, io.EOF) {
				return merged, nil
			}
			return resource.Manifest{}, err
		}
		merged.Append(document)
	}
}

func EncodeManifest(manifest resource.Manifest) ([]byte, error) {
	return yamlutil.MarshalWithIndent(manifest, 2)
}

func decodeManifestFile(path string) (resource.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return resource.Manifest{}, faults.NewTypedError(faults.ReadError, fmt.Sprintf("failed to read manifest %q", path), err)
	}
	manifest, err := DecodeManifest(data)
	if err != nil {
		return resource.Manifest{}, validationError(fmt.Sprintf("invalid manifest %q", path), err)
	}
	return manifest, nil
}

func isManifestFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
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
