package resource

import (
	"strings"
	"testing"

	"github.com/crmarques/lioctl/faults"
	"github.com/google/go-cmp/cmp"
)

func intPtr(value int) *int {
	return &value
}

func TestManifestResourcesFillFieldsFromName(t *testing.T) {
	t.Parallel()

	manifest := Manifest{
		Targets: []TargetEntry{{Name: "/iscsi/wwn1"}},
		Backstores: []BackstoreEntry{{
			Name: "/backstores/fileio/disk0",
			Dev:  "/srv/disk0.img",
			Size: "1G",
		}},
		PortalGroups: []PortalGroupEntry{{
			Name:       "/iscsi/wwn1/tpg1",
			Attributes: map[string]string{"authentication": "0"},
		}},
		Luns: []LunEntry{
			{Name: "/iscsi/wwn1/tpg1/luns/lun0", StorageObject: "/backstores/fileio/disk0"},
			{Ensure: "absent", Fabric: "iscsi", Target: "wwn1", Tag: intPtr(1), Index: intPtr(1)},
		},
	}

	desired, err := manifest.Resources()
	if err != nil {
		t.Fatalf("Resources returned error: %v", err)
	}

	size := int64(1 << 30)
	want := []Desired{
		{Ensure: EnsurePresent, Object: Target{Fabric: "iscsi", WWN: "wwn1"}},
		{Ensure: EnsurePresent, Object: Backstore{Type: BackstoreFileIO, Name: "disk0", Dev: "/srv/disk0.img", Size: &size}},
		{Ensure: EnsurePresent, Object: PortalGroup{Fabric: "iscsi", Target: "wwn1", Tag: 1, Attributes: map[string]string{"authentication": "0"}}},
		{Ensure: EnsurePresent, Object: Lun{Fabric: "iscsi", Target: "wwn1", Tag: 1, Index: 0, StorageObject: "/backstores/fileio/disk0"}},
		{Ensure: EnsureAbsent, Object: Lun{Fabric: "iscsi", Target: "wwn1", Tag: 1, Index: 1}},
	}
	if diff := cmp.Diff(want, desired); diff != "" {
		t.Fatalf("unexpected resources (-want +got):\n%s", diff)
	}
}

func TestManifestResourcesRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest Manifest
		message  string
	}{
		{
			name:     "name_conflicts_with_field",
			manifest: Manifest{Targets: []TargetEntry{{Name: "/iscsi/wwn1", WWN: "wwn2"}}},
			message:  `wwn "wwn2" does not match name ("wwn1")`,
		},
		{
			name:     "tag_conflicts_with_name",
			manifest: Manifest{PortalGroups: []PortalGroupEntry{{Name: "/iscsi/wwn1/tpg1", Tag: intPtr(2)}}},
			message:  "tag 2 does not match name (1)",
		},
		{
			name:     "missing_tag",
			manifest: Manifest{PortalGroups: []PortalGroupEntry{{Fabric: "iscsi", Target: "wwn1"}}},
			message:  "portal_group tag is required",
		},
		{
			name:     "missing_index",
			manifest: Manifest{Luns: []LunEntry{{Fabric: "iscsi", Target: "wwn1", Tag: intPtr(1), StorageObject: "/backstores/fileio/disk0"}}},
			message:  "lun index is required",
		},
		{
			name:     "bad_size",
			manifest: Manifest{Backstores: []BackstoreEntry{{Name: "/backstores/ramdisk/rd0", Size: "lots"}}},
			message:  `size "lots"`,
		},
		{
			name:     "bad_ensure",
			manifest: Manifest{Targets: []TargetEntry{{Name: "/iscsi/wwn1", Ensure: "latest"}}},
			message:  "ensure must be present or absent",
		},
		{
			name:     "malformed_name",
			manifest: Manifest{Luns: []LunEntry{{Name: "/iscsi/wwn1/tpg1/lun0"}}},
			message:  "malformed lun path",
		},
		{
			name: "duplicate_identity",
			manifest: Manifest{Targets: []TargetEntry{
				{Name: "/iscsi/wwn1"},
				{Fabric: "iscsi", WWN: "wwn1", Ensure: "absent"},
			}},
			message: `duplicate target "/iscsi/wwn1"`,
		},
		{
			name:     "entry_index_reported",
			manifest: Manifest{Backstores: []BackstoreEntry{{Name: "/backstores/block/sdb"}}},
			message:  "backstore entry 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.manifest.Resources()
			if err == nil || !strings.Contains(err.Error(), tt.message) {
				t.Fatalf("expected error containing %q, got %v", tt.message, err)
			}
			if !faults.IsCategory(err, faults.ValidationError) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestManifestFromObjectsRoundTrip(t *testing.T) {
	t.Parallel()

	size := int64(4096)
	writeBack := true
	objects := []Object{
		Target{Fabric: "iscsi", WWN: "wwn1"},
		Backstore{Type: BackstoreFileIO, Name: "disk0", Dev: "/srv/disk0.img", Size: &size, WriteBack: &writeBack},
		PortalGroup{Fabric: "iscsi", Target: "wwn1", Tag: 1, Attributes: map[string]string{"authentication": "0"}},
		Lun{Fabric: "iscsi", Target: "wwn1", Tag: 1, Index: 3, StorageObject: "/backstores/fileio/disk0"},
	}

	desired, err := ManifestFromObjects(objects).Resources()
	if err != nil {
		t.Fatalf("Resources returned error: %v", err)
	}
	if len(desired) != len(objects) {
		t.Fatalf("expected %d resources, got %d", len(objects), len(desired))
	}
	for idx, item := range desired {
		if item.Ensure != EnsurePresent {
			t.Fatalf("expected present ensure, got %q", item.Ensure)
		}
		if diff := cmp.Diff(objects[idx], item.Object); diff != "" {
			t.Fatalf("object %d mismatch (-want +got):\n%s", idx, diff)
		}
	}
}

func TestManifestAppend(t *testing.T) {
	t.Parallel()

	first := Manifest{Targets: []TargetEntry{{Name: "/iscsi/wwn1"}}}
	first.Append(Manifest{Targets: []TargetEntry{{Name: "/iscsi/wwn2"}}, Luns: []LunEntry{{Name: "/iscsi/wwn2/tpg1/luns/lun0"}}})
	if len(first.Targets) != 2 || len(first.Luns) != 1 {
		t.Fatalf("unexpected merged manifest %#v", first)
	}
}
