package resource

type Dependency struct {
	Kind Kind
	Path string
}

// Dependencies returns the instances obj must be reconciled after when both
// are present.
func Dependencies(obj Object) []Dependency {
	switch typed := obj.(type) {
	case PortalGroup:
		return []Dependency{{Kind: KindTarget, Path: typed.TargetPath()}}
	case Lun:
		deps := []Dependency{
			{Kind: KindTarget, Path: typed.TargetPath()},
			{Kind: KindPortalGroup, Path: typed.PortalGroupPath()},
		}
		if typed.StorageObject != "" {
			deps = append(deps, Dependency{Kind: KindBackstore, Path: typed.StorageObject})
		}
		return deps
	default:
		return nil
	}
}
