package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/debugctx"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/repository"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

var _ repository.SnapshotArchive = (*SnapshotArchive)(nil)

// ArchivedFileName is the name of the snapshot inside the archive worktree.
const ArchivedFileName = "saveconfig.json"

// SnapshotArchive commits persisted snapshots to a local git repository.
type SnapshotArchive struct {
	baseDir  string
	autoInit bool
	now      func() time.Time
}

func NewSnapshotArchive(archiveConfig config.GitArchive) *SnapshotArchive {
	return &SnapshotArchive{
		baseDir:  archiveConfig.BaseDir,
		autoInit: archiveConfig.AutoInitEnabled(),
		now:      time.Now,
	}
}

func (a *SnapshotArchive) Init(_ context.Context) error {
	if strings.TrimSpace(a.baseDir) == "" {
		return validationError("archive base directory must not be empty", nil)
	}
	if err := os.MkdirAll(a.baseDir, 0o755); err != nil {
		return internalError("failed to create archive directory", err)
	}

	if _, err := gogit.PlainOpen(a.baseDir); err != nil {
		if !errors.Is(err, gogit.ErrRepositoryNotExists) {
			return internalError("failed to open archive repository", err)
		}
		if _, err := gogit.PlainInit(a.baseDir, false); err != nil {
			return internalError("failed to initialize archive repository", err)
		}
	}
	return nil
}

func (a *SnapshotArchive) Commit(ctx context.Context, snapshotPath string, message string) (bool, error) {
	repo, err := a.openRepositoryForOperation(ctx)
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, notFoundError(fmt.Sprintf("snapshot %q does not exist", snapshotPath))
		}
		return false, faults.NewTypedError(faults.ReadError, fmt.Sprintf("failed to read snapshot %q", snapshotPath), err)
	}
	if err := os.WriteFile(filepath.Join(a.baseDir, ArchivedFileName), data, 0o600); err != nil {
		return false, internalError("failed to write archived snapshot", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, internalError("failed to open git worktree", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, internalError("failed to inspect git worktree status", err)
	}
	if status.IsClean() {
		return false, nil
	}

	if _, err := worktree.Add(ArchivedFileName); err != nil {
		return false, internalError("failed to stage archived snapshot", err)
	}

	commitMessage := strings.TrimSpace(message)
	if commitMessage == "" {
		commitMessage = "lioctl: archive snapshot"
	}

	hash, err := worktree.Commit(commitMessage, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "lioctl",
			Email: "lioctl@local",
			When:  a.now(),
		},
	})
	if err != nil {
		return false, internalError("failed to commit archived snapshot", err)
	}

	debugctx.Logger(ctx).V(1).Info("archived snapshot", "dir", a.baseDir, "commit", hash.String())
	return true, nil
}

func (a *SnapshotArchive) History(ctx context.Context, filter repository.HistoryFilter) ([]repository.HistoryEntry, error) {
	repo, err := a.openRepositoryForOperation(ctx)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&gogit.LogOptions{
		Order: gogit.LogOrderCommitterTime,
		Since: filter.Since,
		Until: filter.Until,
	})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []repository.HistoryEntry{}, nil
		}
		return nil, internalError("failed to read git history", err)
	}
	defer iter.Close()

	entries := make([]repository.HistoryEntry, 0, max(filter.MaxCount, 0))
	grepFilter := strings.ToLower(strings.TrimSpace(filter.Grep))

	for {
		commit, nextErr := iter.Next()
		if nextErr != nil {
			if errors.Is(nextErr, io.EOF) || errors.Is(nextErr, storer.ErrStop) {
				break
			}
			return nil, internalError("failed to iterate git history", nextErr)
		}

		entry := historyEntryFromCommit(commit)
		if grepFilter != "" && !strings.Contains(strings.ToLower(entry.Subject+"\n"+entry.Body), grepFilter) {
			continue
		}

		entries = append(entries, entry)
		if filter.MaxCount > 0 && len(entries) >= filter.MaxCount {
			break
		}
	}

	return slices.Clip(entries), nil
}

func historyEntryFromCommit(commit *object.Commit) repository.HistoryEntry {
	message := strings.ReplaceAll(commit.Message, "\r\n", "\n")
	subject, body, _ := strings.Cut(message, "\n")

	return repository.HistoryEntry{
		Hash:    commit.Hash.String(),
		Author:  strings.TrimSpace(commit.Author.Name),
		Email:   strings.TrimSpace(commit.Author.Email),
		Date:    commit.Author.When,
		Subject: strings.TrimSpace(subject),
		Body:    strings.TrimSpace(body),
	}
}

func (a *SnapshotArchive) openRepositoryForOperation(ctx context.Context) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(a.baseDir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, internalError("failed to open archive repository", err)
	}

	if !a.autoInit {
		return nil, notFoundError("archive repository is not initialized and archive.git.auto-init is false")
	}

	if initErr := a.Init(ctx); initErr != nil {
		return nil, initErr
	}

	repo, err = gogit.PlainOpen(a.baseDir)
	if err != nil {
		return nil, internalError("failed to open archive repository after initialization", err)
	}
	return repo, nil
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
