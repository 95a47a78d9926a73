package savefile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/crmarques/lioctl/debugctx"
	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/snapshot"
)

var _ snapshot.Source = (*Source)(nil)

// Source reads the targetcli saveconfig document at a fixed path.
type Source struct {
	exec executor.Executor
	path string
}

func NewSource(exec executor.Executor, path string) *Source {
	return &Source{exec: exec, path: path}
}

func (s *Source) Path() string {
	return s.path
}

func (s *Source) Persist(ctx context.Context) error {
	args := PersistArgs(s.path)
	output, err := s.exec.Run(ctx, args)
	if err != nil {
		if faults.Category(err) != "" {
			return err
		}
		return faults.NewCommandError(s.path, args, output, err)
	}
	return nil
}

func (s *Source) Refresh(ctx context.Context) (snapshot.Snapshot, error) {
	if err := s.Persist(ctx); err != nil {
		return snapshot.Snapshot{}, err
	}
	return s.Load(ctx)
}

func (s *Source) Load(ctx context.Context) (snapshot.Snapshot, error) {
	snap, err := Load(s.path)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	debugctx.Logger(ctx).V(1).Info(
		"loaded snapshot",
		"path", s.path,
		"targets", len(snap.Targets),
		"storage_objects", len(snap.StorageObjects),
	)
	return snap, nil
}

// PersistArgs is the targetcli invocation that writes live state to path.
func PersistArgs(path string) []string {
	return []string{"saveconfig", "savefile=" + path}
}

// Load parses the saveconfig document at path. A missing file is an empty
// configuration.
func Load(path string) (snapshot.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snapshot.Snapshot{}, nil
		}
		return snapshot.Snapshot{}, faults.NewTypedError(faults.ReadError, fmt.Sprintf("failed to read savefile %q", path), err)
	}
	return Decode(data)
}

func Decode(data []byte) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot.Snapshot{}, faults.NewTypedError(faults.ReadError, "failed to parse savefile", err)
	}
	return snap, nil
}

func Encode(snap snapshot.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to encode snapshot", err)
	}
	return append(data, '\n'), nil
}
