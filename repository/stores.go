package repository

import (
	"context"

	"github.com/crmarques/lioctl/resource"
)

// ManifestStore reads and writes declared resource manifests.
type ManifestStore interface {
	// Load merges every manifest document of the store.
	Load(ctx context.Context) (resource.Manifest, error)
	// Save writes one manifest document under name, replacing it.
	Save(ctx context.Context, name string, manifest resource.Manifest) (string, error)
	// Files lists the manifest documents Load reads, in load order.
	Files(ctx context.Context) ([]string, error)
}

// SnapshotArchive keeps a versioned record of persisted snapshots.
type SnapshotArchive interface {
	Init(ctx context.Context) error
	// Commit records the snapshot file content. It reports false when the
	// archived copy is already identical.
	Commit(ctx context.Context, snapshotPath string, message string) (bool, error)
	History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error)
}
