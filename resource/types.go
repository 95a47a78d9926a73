package resource

import "fmt"

type Kind string

const (
	KindTarget      Kind = "target"
	KindBackstore   Kind = "backstore"
	KindPortalGroup Kind = "portal_group"
	KindLun         Kind = "lun"
)

// Kinds returns every kind in creation order.
func Kinds() []Kind {
	return []Kind{KindTarget, KindBackstore, KindPortalGroup, KindLun}
}

// Rank is the position of kind in creation order, or -1 when unknown.
func (k Kind) Rank() int {
	for idx, item := range Kinds() {
		if item == k {
			return idx
		}
	}
	return -1
}

func ParseKind(value string) (Kind, error) {
	kind := Kind(value)
	if kind.Rank() < 0 {
		return "", validationError(fmt.Sprintf("unknown resource kind %q", value), nil)
	}
	return kind, nil
}

type Ensure string

const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

func ParseEnsure(value string) (Ensure, error) {
	switch Ensure(value) {
	case "":
		return EnsurePresent, nil
	case EnsurePresent, EnsureAbsent:
		return Ensure(value), nil
	default:
		return "", validationError(fmt.Sprintf("ensure must be present or absent, got %q", value), nil)
	}
}

// Object is one instance of a resource kind. Path is derived from the
// identity fields and round-trips through the kind's parse function.
type Object interface {
	Kind() Kind
	Path() string
	// Fields lists the declared, comparable attributes. Unset optional
	// attributes are omitted so they stay unmanaged.
	Fields() []Field
	Validate() error
}

type Field struct {
	Name  string
	Value string
}

// Desired is a declared resource with its wanted existence.
type Desired struct {
	Ensure Ensure
	Object Object
}

func (d Desired) Kind() Kind {
	return d.Object.Kind()
}

func (d Desired) Path() string {
	return d.Object.Path()
}

type identityValidator interface {
	validateIdentity() error
}

// Validate checks the object. Absent resources only need identity fields.
func (d Desired) Validate() error {
	if d.Object == nil {
		return validationError("resource object is required", nil)
	}
	if _, err := ParseEnsure(string(d.Ensure)); err != nil {
		return err
	}
	if d.Ensure == EnsureAbsent {
		if validator, ok := d.Object.(identityValidator); ok {
			return validator.validateIdentity()
		}
	}
	return d.Object.Validate()
}

// InstanceMap maps identity paths to observed instances of one kind.
type InstanceMap map[string]Object

type BackstoreType string

const (
	BackstoreBlock   BackstoreType = "block"
	BackstoreFileIO  BackstoreType = "fileio"
	BackstorePSCSI   BackstoreType = "pscsi"
	BackstoreRamdisk BackstoreType = "ramdisk"
)

func (t BackstoreType) Valid() bool {
	switch t {
	case BackstoreBlock, BackstoreFileIO, BackstorePSCSI, BackstoreRamdisk:
		return true
	default:
		return false
	}
}
