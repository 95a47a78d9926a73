package resource

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

var (
	_ Object = Target{}
	_ Object = Backstore{}
	_ Object = PortalGroup{}
	_ Object = Lun{}
)

const AttributeFieldPrefix = "attributes."

type Target struct {
	Fabric string
	WWN    string
}

func (t Target) Kind() Kind   { return KindTarget }
func (t Target) Path() string { return TargetPath(t.Fabric, t.WWN) }

func (t Target) Fields() []Field {
	return []Field{
		{Name: "fabric", Value: t.Fabric},
		{Name: "wwn", Value: t.WWN},
	}
}

func (t Target) Validate() error {
	if err := requireSegment(KindTarget, "fabric", t.Fabric); err != nil {
		return err
	}
	if t.Fabric == "backstores" {
		return validationError("target fabric must not be \"backstores\"", nil)
	}
	return requireSegment(KindTarget, "wwn", t.WWN)
}

// Backstore is a storage object. Size is in bytes. Sparse only applies at
// creation time and is never reported back by the snapshot.
type Backstore struct {
	Type      BackstoreType
	Name      string
	Dev       string
	Size      *int64
	WriteBack *bool
	Sparse    *bool
	WWN       string
}

func (b Backstore) Kind() Kind   { return KindBackstore }
func (b Backstore) Path() string { return BackstorePath(b.Type, b.Name) }

func (b Backstore) Fields() []Field {
	fields := []Field{
		{Name: "type", Value: string(b.Type)},
		{Name: "object_name", Value: b.Name},
	}
	if b.Dev != "" {
		fields = append(fields, Field{Name: "dev", Value: b.Dev})
	}
	if b.Size != nil {
		fields = append(fields, Field{Name: "size", Value: strconv.FormatInt(*b.Size, 10)})
	}
	if b.WriteBack != nil {
		fields = append(fields, Field{Name: "write_back", Value: strconv.FormatBool(*b.WriteBack)})
	}
	if b.WWN != "" {
		fields = append(fields, Field{Name: "wwn", Value: b.WWN})
	}
	return fields
}

func (b Backstore) Validate() error {
	if err := b.validateIdentity(); err != nil {
		return err
	}

	if b.Dev != "" {
		if err := requireBackstoreType("dev", b.Type, BackstoreBlock, BackstoreFileIO, BackstorePSCSI); err != nil {
			return err
		}
	}
	if b.Size != nil {
		if err := requireBackstoreType("size", b.Type, BackstoreFileIO, BackstoreRamdisk); err != nil {
			return err
		}
		if *b.Size <= 0 {
			return validationError("backstore size must be positive", nil)
		}
	}
	if b.WriteBack != nil {
		if err := requireBackstoreType("write_back", b.Type, BackstoreFileIO); err != nil {
			return err
		}
	}
	if b.Sparse != nil {
		if err := requireBackstoreType("sparse", b.Type, BackstoreFileIO); err != nil {
			return err
		}
	}
	if b.WWN != "" {
		if err := requireBackstoreType("wwn", b.Type, BackstoreBlock, BackstoreFileIO, BackstoreRamdisk); err != nil {
			return err
		}
	}

	switch b.Type {
	case BackstoreFileIO, BackstoreBlock, BackstorePSCSI:
		if b.Dev == "" {
			return validationError(fmt.Sprintf("backstore dev is required when type=%q", b.Type), nil)
		}
	case BackstoreRamdisk:
		if b.Size == nil {
			return validationError(fmt.Sprintf("backstore size is required when type=%q", b.Type), nil)
		}
	}
	return nil
}

// Declarable drops the parameters a manifest may not set for this type.
// saveconfig reports some of them anyway, such as write_back on block and
// wwn on pscsi storage objects.
func (b Backstore) Declarable() Backstore {
	if !slices.Contains([]BackstoreType{BackstoreBlock, BackstoreFileIO, BackstorePSCSI}, b.Type) {
		b.Dev = ""
	}
	if !slices.Contains([]BackstoreType{BackstoreFileIO, BackstoreRamdisk}, b.Type) {
		b.Size = nil
	}
	if b.Type != BackstoreFileIO {
		b.WriteBack = nil
		b.Sparse = nil
	}
	if !slices.Contains([]BackstoreType{BackstoreBlock, BackstoreFileIO, BackstoreRamdisk}, b.Type) {
		b.WWN = ""
	}
	return b
}

func (b Backstore) validateIdentity() error {
	if b.Type == "" {
		return validationError("backstore type is required", nil)
	}
	if !b.Type.Valid() {
		return validationError(fmt.Sprintf("backstore type must be one of block, fileio, pscsi, ramdisk, got %q", b.Type), nil)
	}
	return requireSegment(KindBackstore, "object_name", b.Name)
}

type PortalGroup struct {
	Fabric     string
	Target     string
	Tag        int
	Attributes map[string]string
}

func (p PortalGroup) Kind() Kind   { return KindPortalGroup }
func (p PortalGroup) Path() string { return PortalGroupPath(p.Fabric, p.Target, p.Tag) }

func (p PortalGroup) TargetPath() string {
	return TargetPath(p.Fabric, p.Target)
}

// Fields emits one field per attribute key so that comparison is per key.
func (p PortalGroup) Fields() []Field {
	fields := []Field{
		{Name: "fabric", Value: p.Fabric},
		{Name: "target", Value: p.Target},
		{Name: "tag", Value: strconv.Itoa(p.Tag)},
	}
	for _, key := range slices.Sorted(maps.Keys(p.Attributes)) {
		fields = append(fields, Field{Name: AttributeFieldPrefix + key, Value: p.Attributes[key]})
	}
	return fields
}

func (p PortalGroup) Validate() error {
	if err := requireSegment(KindPortalGroup, "fabric", p.Fabric); err != nil {
		return err
	}
	if err := requireSegment(KindPortalGroup, "target", p.Target); err != nil {
		return err
	}
	if p.Tag < 0 {
		return validationError(fmt.Sprintf("portal_group tag must be a non-negative integer, got %d", p.Tag), nil)
	}
	for key, value := range p.Attributes {
		if strings.TrimSpace(key) == "" || strings.ContainsAny(key, "= \t") {
			return validationError(fmt.Sprintf("portal_group attribute key %q is invalid", key), nil)
		}
		if strings.ContainsAny(value, " \t\n") {
			return validationError(fmt.Sprintf("portal_group attribute %q value must not contain whitespace", key), nil)
		}
	}
	return nil
}

// WithAttributesFrom keeps only the attribute keys declared on desired.
func (p PortalGroup) WithAttributesFrom(desired PortalGroup) PortalGroup {
	if desired.Attributes == nil {
		p.Attributes = nil
		return p
	}
	filtered := make(map[string]string, len(desired.Attributes))
	for key := range desired.Attributes {
		if value, ok := p.Attributes[key]; ok {
			filtered[key] = value
		}
	}
	p.Attributes = filtered
	return p
}

type Lun struct {
	Fabric        string
	Target        string
	Tag           int
	Index         int
	StorageObject string
}

func (l Lun) Kind() Kind   { return KindLun }
func (l Lun) Path() string { return LunPath(l.Fabric, l.Target, l.Tag, l.Index) }

func (l Lun) TargetPath() string {
	return TargetPath(l.Fabric, l.Target)
}

func (l Lun) PortalGroupPath() string {
	return PortalGroupPath(l.Fabric, l.Target, l.Tag)
}

func (l Lun) Fields() []Field {
	fields := []Field{
		{Name: "fabric", Value: l.Fabric},
		{Name: "target", Value: l.Target},
		{Name: "tag", Value: strconv.Itoa(l.Tag)},
		{Name: "index", Value: strconv.Itoa(l.Index)},
	}
	if l.StorageObject != "" {
		fields = append(fields, Field{Name: "storage_object", Value: l.StorageObject})
	}
	return fields
}

func (l Lun) Validate() error {
	if err := l.validateIdentity(); err != nil {
		return err
	}
	if l.StorageObject == "" {
		return validationError("lun storage_object is required", nil)
	}
	if _, err := ParseBackstorePath(l.StorageObject); err != nil {
		return validationError(fmt.Sprintf("lun storage_object %q must be a backstore path", l.StorageObject), err)
	}
	return nil
}

func (l Lun) validateIdentity() error {
	if err := requireSegment(KindLun, "fabric", l.Fabric); err != nil {
		return err
	}
	if err := requireSegment(KindLun, "target", l.Target); err != nil {
		return err
	}
	if l.Tag < 0 {
		return validationError(fmt.Sprintf("lun tag must be a non-negative integer, got %d", l.Tag), nil)
	}
	if l.Index < 0 {
		return validationError(fmt.Sprintf("lun index must be a non-negative integer, got %d", l.Index), nil)
	}
	return nil
}

func requireSegment(kind Kind, name string, value string) error {
	if strings.TrimSpace(value) == "" {
		return validationError(fmt.Sprintf("%s %s is required", kind, name), nil)
	}
	if strings.Contains(value, "/") {
		return validationError(fmt.Sprintf("%s %s must not contain \"/\", got %q", kind, name, value), nil)
	}
	if value != strings.TrimSpace(value) {
		return validationError(fmt.Sprintf("%s %s must not have surrounding whitespace", kind, name), nil)
	}
	return nil
}

func requireBackstoreType(param string, actual BackstoreType, allowed ...BackstoreType) error {
	if slices.Contains(allowed, actual) {
		return nil
	}
	names := make([]string, 0, len(allowed))
	for _, item := range allowed {
		names = append(names, string(item))
	}
	return validationError(
		fmt.Sprintf("backstore %s is only valid when type is one of %s, got %q", param, strings.Join(names, ", "), actual),
		nil,
	)
}
