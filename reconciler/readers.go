package reconciler

import (
	"maps"
	"slices"

	"github.com/crmarques/lioctl/resource"
	"github.com/crmarques/lioctl/snapshot"
)

func ReadTargets(snap snapshot.Snapshot) resource.InstanceMap {
	instances := resource.InstanceMap{}
	for _, target := range snap.Targets {
		obj := resource.Target{Fabric: target.Fabric, WWN: target.WWN}
		instances[obj.Path()] = obj
	}
	return instances
}

func ReadBackstores(snap snapshot.Snapshot) resource.InstanceMap {
	instances := resource.InstanceMap{}
	for _, storageObject := range snap.StorageObjects {
		obj := resource.Backstore{
			Type:      resource.BackstoreType(storageObject.Plugin),
			Name:      storageObject.Name,
			Dev:       storageObject.Dev,
			Size:      storageObject.Size,
			WriteBack: storageObject.WriteBack,
			WWN:       storageObject.WWN,
		}
		instances[obj.Path()] = obj
	}
	return instances
}

func ReadPortalGroups(snap snapshot.Snapshot) resource.InstanceMap {
	instances := resource.InstanceMap{}
	for _, target := range snap.Targets {
		for _, tpg := range target.TPGs {
			obj := resource.PortalGroup{
				Fabric:     target.Fabric,
				Target:     target.WWN,
				Tag:        tpg.Tag,
				Attributes: tpg.AttributeStrings(),
			}
			instances[obj.Path()] = obj
		}
	}
	return instances
}

func ReadLuns(snap snapshot.Snapshot) resource.InstanceMap {
	instances := resource.InstanceMap{}
	for _, target := range snap.Targets {
		for _, tpg := range target.TPGs {
			for _, lun := range tpg.Luns {
				obj := resource.Lun{
					Fabric:        target.Fabric,
					Target:        target.WWN,
					Tag:           tpg.Tag,
					Index:         lun.Index,
					StorageObject: lun.StorageObject,
				}
				instances[obj.Path()] = obj
			}
		}
	}
	return instances
}

// ReadObjects lists every instance of the snapshot, ordered by kind and then
// by path.
func ReadObjects(snap snapshot.Snapshot) []resource.Object {
	readers := []func(snapshot.Snapshot) resource.InstanceMap{ReadTargets, ReadBackstores, ReadPortalGroups, ReadLuns}

	var objects []resource.Object
	for _, read := range readers {
		instances := read(snap)
		for _, path := range slices.Sorted(maps.Keys(instances)) {
			objects = append(objects, instances[path])
		}
	}
	return objects
}
