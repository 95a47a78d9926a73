package resource

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/crmarques/lioctl/faults"
)

// Manifest is the declarative document format. Entries may carry an identity
// path in Name; explicit fields take precedence only when they agree with it.
type Manifest struct {
	Targets      []TargetEntry      `yaml:"targets,omitempty" json:"targets,omitempty"`
	Backstores   []BackstoreEntry   `yaml:"backstores,omitempty" json:"backstores,omitempty"`
	PortalGroups []PortalGroupEntry `yaml:"portal_groups,omitempty" json:"portal_groups,omitempty"`
	Luns         []LunEntry         `yaml:"luns,omitempty" json:"luns,omitempty"`
}

type TargetEntry struct {
	Ensure string `yaml:"ensure,omitempty" json:"ensure,omitempty"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Fabric string `yaml:"fabric,omitempty" json:"fabric,omitempty"`
	WWN    string `yaml:"wwn,omitempty" json:"wwn,omitempty"`
}

type BackstoreEntry struct {
	Ensure     string `yaml:"ensure,omitempty" json:"ensure,omitempty"`
	Name       string `yaml:"name,omitempty" json:"name,omitempty"`
	Type       string `yaml:"type,omitempty" json:"type,omitempty"`
	ObjectName string `yaml:"object_name,omitempty" json:"object_name,omitempty"`
	Dev        string `yaml:"dev,omitempty" json:"dev,omitempty"`
	Size       string `yaml:"size,omitempty" json:"size,omitempty"`
	WriteBack  *bool  `yaml:"write_back,omitempty" json:"write_back,omitempty"`
	Sparse     *bool  `yaml:"sparse,omitempty" json:"sparse,omitempty"`
	WWN        string `yaml:"wwn,omitempty" json:"wwn,omitempty"`
}

type PortalGroupEntry struct {
	Ensure     string            `yaml:"ensure,omitempty" json:"ensure,omitempty"`
	Name       string            `yaml:"name,omitempty" json:"name,omitempty"`
	Fabric     string            `yaml:"fabric,omitempty" json:"fabric,omitempty"`
	Target     string            `yaml:"target,omitempty" json:"target,omitempty"`
	Tag        *int              `yaml:"tag,omitempty" json:"tag,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

type LunEntry struct {
	Ensure        string `yaml:"ensure,omitempty" json:"ensure,omitempty"`
	Name          string `yaml:"name,omitempty" json:"name,omitempty"`
	Fabric        string `yaml:"fabric,omitempty" json:"fabric,omitempty"`
	Target        string `yaml:"target,omitempty" json:"target,omitempty"`
	Tag           *int   `yaml:"tag,omitempty" json:"tag,omitempty"`
	Index         *int   `yaml:"index,omitempty" json:"index,omitempty"`
	StorageObject string `yaml:"storage_object,omitempty" json:"storage_object,omitempty"`
}

// Append adds other's entries after m's.
func (m *Manifest) Append(other Manifest) {
	m.Targets = append(m.Targets, other.Targets...)
	m.Backstores = append(m.Backstores, other.Backstores...)
	m.PortalGroups = append(m.PortalGroups, other.PortalGroups...)
	m.Luns = append(m.Luns, other.Luns...)
}

// Resources converts and validates every entry. Each declared identity may
// appear only once.
func (m Manifest) Resources() ([]Desired, error) {
	desired := make([]Desired, 0, len(m.Targets)+len(m.Backstores)+len(m.PortalGroups)+len(m.Luns))
	seen := map[string]struct{}{}

	add := func(kind Kind, idx int, item Desired, err error) error {
		if err != nil {
			return entryError(kind, idx, err)
		}
		if err := item.Validate(); err != nil {
			return entryError(kind, idx, err)
		}
		key := string(kind) + ":" + item.Path()
		if _, exists := seen[key]; exists {
			return validationError(fmt.Sprintf("duplicate %s %q", kind, item.Path()), nil)
		}
		seen[key] = struct{}{}
		desired = append(desired, item)
		return nil
	}

	for idx, entry := range m.Targets {
		item, err := entry.Desired()
		if err := add(KindTarget, idx, item, err); err != nil {
			return nil, err
		}
	}
	for idx, entry := range m.Backstores {
		item, err := entry.Desired()
		if err := add(KindBackstore, idx, item, err); err != nil {
			return nil, err
		}
	}
	for idx, entry := range m.PortalGroups {
		item, err := entry.Desired()
		if err := add(KindPortalGroup, idx, item, err); err != nil {
			return nil, err
		}
	}
	for idx, entry := range m.Luns {
		item, err := entry.Desired()
		if err := add(KindLun, idx, item, err); err != nil {
			return nil, err
		}
	}

	return desired, nil
}

func (e TargetEntry) Desired() (Desired, error) {
	ensure, err := ParseEnsure(e.Ensure)
	if err != nil {
		return Desired{}, err
	}

	target := Target{Fabric: e.Fabric, WWN: e.WWN}
	if e.Name != "" {
		parsed, err := ParseTargetPath(e.Name)
		if err != nil {
			return Desired{}, err
		}
		if target.Fabric, err = mergeString("fabric", target.Fabric, parsed.Fabric); err != nil {
			return Desired{}, err
		}
		if target.WWN, err = mergeString("wwn", target.WWN, parsed.WWN); err != nil {
			return Desired{}, err
		}
	}

	return Desired{Ensure: ensure, Object: target}, nil
}

func (e BackstoreEntry) Desired() (Desired, error) {
	ensure, err := ParseEnsure(e.Ensure)
	if err != nil {
		return Desired{}, err
	}

	backstore := Backstore{
		Type:      BackstoreType(e.Type),
		Name:      e.ObjectName,
		Dev:       e.Dev,
		WriteBack: e.WriteBack,
		Sparse:    e.Sparse,
		WWN:       e.WWN,
	}
	if e.Name != "" {
		parsed, err := ParseBackstorePath(e.Name)
		if err != nil {
			return Desired{}, err
		}
		typeName, err := mergeString("type", string(backstore.Type), string(parsed.Type))
		if err != nil {
			return Desired{}, err
		}
		backstore.Type = BackstoreType(typeName)
		if backstore.Name, err = mergeString("object_name", backstore.Name, parsed.Name); err != nil {
			return Desired{}, err
		}
	}
	if e.Size != "" {
		size, err := ParseSize(e.Size)
		if err != nil {
			return Desired{}, err
		}
		backstore.Size = &size
	}

	return Desired{Ensure: ensure, Object: backstore}, nil
}

func (e PortalGroupEntry) Desired() (Desired, error) {
	ensure, err := ParseEnsure(e.Ensure)
	if err != nil {
		return Desired{}, err
	}

	group := PortalGroup{Fabric: e.Fabric, Target: e.Target, Attributes: maps.Clone(e.Attributes)}
	tagSet := e.Tag != nil
	if tagSet {
		group.Tag = *e.Tag
	}
	if e.Name != "" {
		parsed, err := ParsePortalGroupPath(e.Name)
		if err != nil {
			return Desired{}, err
		}
		if group.Fabric, err = mergeString("fabric", group.Fabric, parsed.Fabric); err != nil {
			return Desired{}, err
		}
		if group.Target, err = mergeString("target", group.Target, parsed.Target); err != nil {
			return Desired{}, err
		}
		if group.Tag, err = mergeInt("tag", e.Tag, parsed.Tag); err != nil {
			return Desired{}, err
		}
		tagSet = true
	}
	if !tagSet {
		return Desired{}, validationError("portal_group tag is required", nil)
	}

	return Desired{Ensure: ensure, Object: group}, nil
}

func (e LunEntry) Desired() (Desired, error) {
	ensure, err := ParseEnsure(e.Ensure)
	if err != nil {
		return Desired{}, err
	}

	lun := Lun{Fabric: e.Fabric, Target: e.Target, StorageObject: e.StorageObject}
	tagSet, indexSet := e.Tag != nil, e.Index != nil
	if tagSet {
		lun.Tag = *e.Tag
	}
	if indexSet {
		lun.Index = *e.Index
	}
	if e.Name != "" {
		parsed, err := ParseLunPath(e.Name)
		if err != nil {
			return Desired{}, err
		}
		if lun.Fabric, err = mergeString("fabric", lun.Fabric, parsed.Fabric); err != nil {
			return Desired{}, err
		}
		if lun.Target, err = mergeString("target", lun.Target, parsed.Target); err != nil {
			return Desired{}, err
		}
		if lun.Tag, err = mergeInt("tag", e.Tag, parsed.Tag); err != nil {
			return Desired{}, err
		}
		if lun.Index, err = mergeInt("index", e.Index, parsed.Index); err != nil {
			return Desired{}, err
		}
		tagSet, indexSet = true, true
	}
	if !tagSet {
		return Desired{}, validationError("lun tag is required", nil)
	}
	if !indexSet {
		return Desired{}, validationError("lun index is required", nil)
	}

	return Desired{Ensure: ensure, Object: lun}, nil
}

// ManifestFromObjects renders observed instances as present manifest entries.
func ManifestFromObjects(objects []Object) Manifest {
	var manifest Manifest
	for _, obj := range objects {
		switch typed := obj.(type) {
		case Target:
			manifest.Targets = append(manifest.Targets, TargetEntry{
				Name:   typed.Path(),
				Fabric: typed.Fabric,
				WWN:    typed.WWN,
			})
		case Backstore:
			typed = typed.Declarable()
			entry := BackstoreEntry{
				Name:       typed.Path(),
				Type:       string(typed.Type),
				ObjectName: typed.Name,
				Dev:        typed.Dev,
				WriteBack:  typed.WriteBack,
				WWN:        typed.WWN,
			}
			if typed.Size != nil {
				entry.Size = strconv.FormatInt(*typed.Size, 10)
			}
			manifest.Backstores = append(manifest.Backstores, entry)
		case PortalGroup:
			tag := typed.Tag
			manifest.PortalGroups = append(manifest.PortalGroups, PortalGroupEntry{
				Name:       typed.Path(),
				Fabric:     typed.Fabric,
				Target:     typed.Target,
				Tag:        &tag,
				Attributes: maps.Clone(typed.Attributes),
			})
		case Lun:
			tag, index := typed.Tag, typed.Index
			manifest.Luns = append(manifest.Luns, LunEntry{
				Name:          typed.Path(),
				Fabric:        typed.Fabric,
				Target:        typed.Target,
				Tag:           &tag,
				Index:         &index,
				StorageObject: typed.StorageObject,
			})
		}
	}
	return manifest
}

func mergeString(field string, explicit string, parsed string) (string, error) {
	if explicit == "" {
		return parsed, nil
	}
	if explicit != parsed {
		return "", validationError(fmt.Sprintf("%s %q does not match name (%q)", field, explicit, parsed), nil)
	}
	return explicit, nil
}

func mergeInt(field string, explicit *int, parsed int) (int, error) {
	if explicit == nil {
		return parsed, nil
	}
	if *explicit != parsed {
		return 0, validationError(fmt.Sprintf("%s %d does not match name (%d)", field, *explicit, parsed), nil)
	}
	return parsed, nil
}

func entryError(kind Kind, idx int, err error) error {
	category := faults.Category(err)
	if category == "" {
		category = faults.ValidationError
	}
	return faults.NewTypedError(category, fmt.Sprintf("%s entry %d", kind, idx), err)
}
