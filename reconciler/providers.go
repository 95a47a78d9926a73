package reconciler

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/resource"
	"github.com/crmarques/lioctl/snapshot"
)

var (
	_ Provider          = TargetProvider{}
	_ Provider          = BackstoreProvider{}
	_ Provider          = PortalGroupProvider{}
	_ Provider          = LunProvider{}
	_ Recreator         = BackstoreProvider{}
	_ Recreator         = LunProvider{}
	_ CacheBypasser     = PortalGroupProvider{}
	_ ObservedProjector = PortalGroupProvider{}
)

// DefaultProviders returns the provider of every kind.
func DefaultProviders() map[resource.Kind]Provider {
	return map[resource.Kind]Provider{
		resource.KindTarget:      TargetProvider{},
		resource.KindBackstore:   BackstoreProvider{},
		resource.KindPortalGroup: PortalGroupProvider{},
		resource.KindLun:         LunProvider{},
	}
}

type TargetProvider struct{}

func (TargetProvider) ReadAll(snap snapshot.Snapshot) resource.InstanceMap {
	return ReadTargets(snap)
}

func (TargetProvider) Flush(ctx context.Context, session *Session, change Change) error {
	target, ok := change.Desired.Object.(resource.Target)
	if !ok {
		return unexpectedObject(change)
	}

	node := "/" + target.Fabric + "/"
	switch change.Action {
	case ActionCreate:
		if err := session.Run(ctx, node, "create", target.WWN); err != nil {
			return err
		}
		// targetcli adds a default portal group to new targets.
		session.Invalidate(resource.KindPortalGroup)
		return nil
	case ActionDelete:
		if err := session.Run(ctx, node, "delete", target.WWN); err != nil {
			return err
		}
		session.Invalidate(resource.KindPortalGroup, resource.KindLun)
		return nil
	default:
		return unsupportedAction(change)
	}
}

type BackstoreProvider struct{}

func (BackstoreProvider) ReadAll(snap snapshot.Snapshot) resource.InstanceMap {
	return ReadBackstores(snap)
}

// RequiresRecreate is true for any managed attribute change.
func (BackstoreProvider) RequiresRecreate(diff []resource.FieldChange) bool {
	return len(diff) > 0
}

func (BackstoreProvider) Flush(ctx context.Context, session *Session, change Change) error {
	backstore, ok := change.Desired.Object.(resource.Backstore)
	if !ok {
		return unexpectedObject(change)
	}

	switch change.Action {
	case ActionCreate:
		return createBackstore(ctx, session, backstore)
	case ActionDelete:
		return deleteBackstore(ctx, session, backstore)
	case ActionRecreate:
		if err := deleteBackstore(ctx, session, backstore); err != nil {
			return err
		}
		return createBackstore(ctx, session, backstore)
	default:
		return unsupportedAction(change)
	}
}

func backstoreNode(backstore resource.Backstore) string {
	return "backstores/" + string(backstore.Type)
}

func createBackstore(ctx context.Context, session *Session, backstore resource.Backstore) error {
	args := []string{backstoreNode(backstore), "create", backstore.Name}
	args = append(args, BackstoreCreateParams(backstore)...)
	return session.Run(ctx, args...)
}

// deleteBackstore drops every cached kind since luns referencing the
// storage object disappear with it.
func deleteBackstore(ctx context.Context, session *Session, backstore resource.Backstore) error {
	if err := session.Run(ctx, backstoreNode(backstore), "delete", backstore.Name); err != nil {
		return err
	}
	session.InvalidateAll()
	return nil
}

// BackstoreCreateParams returns the type specific key=value parameters of a
// backstore create call.
func BackstoreCreateParams(backstore resource.Backstore) []string {
	var params []string
	switch backstore.Type {
	case resource.BackstoreFileIO:
		params = append(params, "file_or_dev="+backstore.Dev)
		if backstore.Size != nil {
			params = append(params, "size="+strconv.FormatInt(*backstore.Size, 10))
		}
		if backstore.WriteBack != nil {
			params = append(params, "write_back="+strconv.FormatBool(*backstore.WriteBack))
		}
		if backstore.Sparse != nil {
			params = append(params, "sparse="+strconv.FormatBool(*backstore.Sparse))
		}
	case resource.BackstoreBlock, resource.BackstorePSCSI:
		params = append(params, "dev="+backstore.Dev)
	case resource.BackstoreRamdisk:
		if backstore.Size != nil {
			params = append(params, "size="+strconv.FormatInt(*backstore.Size, 10))
		}
	}
	if backstore.WWN != "" && backstore.Type != resource.BackstorePSCSI {
		params = append(params, "wwn="+backstore.WWN)
	}
	return params
}

// PortalGroupProvider never reads from the shared cache: creating a target
// creates tpg1 behind the cache's back.
type PortalGroupProvider struct{}

func (PortalGroupProvider) ReadAll(snap snapshot.Snapshot) resource.InstanceMap {
	return ReadPortalGroups(snap)
}

func (PortalGroupProvider) BypassCache() bool {
	return true
}

func (PortalGroupProvider) ProjectObserved(desired resource.Object, observed resource.Object) resource.Object {
	wanted, ok := desired.(resource.PortalGroup)
	if !ok {
		return observed
	}
	group, ok := observed.(resource.PortalGroup)
	if !ok {
		return observed
	}
	return group.WithAttributesFrom(wanted)
}

func (PortalGroupProvider) Flush(ctx context.Context, session *Session, change Change) error {
	group, ok := change.Desired.Object.(resource.PortalGroup)
	if !ok {
		return unexpectedObject(change)
	}

	targetNode := group.TargetPath() + "/"
	tag := strconv.Itoa(group.Tag)
	switch change.Action {
	case ActionCreate:
		if err := session.Run(ctx, targetNode, "create", tag); err != nil {
			return err
		}
		return setAttributes(ctx, session, group, slices.Sorted(maps.Keys(group.Attributes)))
	case ActionUpdate:
		keys := resource.ChangedAttributes(change.Diff)
		slices.Sort(keys)
		return setAttributes(ctx, session, group, keys)
	case ActionDelete:
		if err := session.Run(ctx, targetNode, "delete", tag); err != nil {
			return err
		}
		session.Invalidate(resource.KindLun)
		return nil
	default:
		return unsupportedAction(change)
	}
}

// setAttributes issues one call per key. Calls that already succeeded stay
// applied when a later one fails.
func setAttributes(ctx context.Context, session *Session, group resource.PortalGroup, keys []string) error {
	node := group.Path() + "/"
	for _, key := range keys {
		if err := session.Run(ctx, node, "set", "attribute", key+"="+group.Attributes[key]); err != nil {
			return err
		}
	}
	return nil
}

type LunProvider struct{}

func (LunProvider) ReadAll(snap snapshot.Snapshot) resource.InstanceMap {
	return ReadLuns(snap)
}

// RequiresRecreate is true when the mapped storage object changes.
func (LunProvider) RequiresRecreate(diff []resource.FieldChange) bool {
	return len(diff) > 0
}

func (LunProvider) Flush(ctx context.Context, session *Session, change Change) error {
	lun, ok := change.Desired.Object.(resource.Lun)
	if !ok {
		return unexpectedObject(change)
	}

	switch change.Action {
	case ActionCreate:
		return createLun(ctx, session, lun)
	case ActionDelete:
		return deleteLun(ctx, session, lun)
	case ActionRecreate:
		if err := deleteLun(ctx, session, lun); err != nil {
			return err
		}
		return createLun(ctx, session, lun)
	default:
		return unsupportedAction(change)
	}
}

func lunsNode(lun resource.Lun) string {
	return lun.PortalGroupPath() + "/luns/"
}

func createLun(ctx context.Context, session *Session, lun resource.Lun) error {
	return session.Run(ctx, lunsNode(lun), "create", lun.StorageObject, "lun="+strconv.Itoa(lun.Index))
}

func deleteLun(ctx context.Context, session *Session, lun resource.Lun) error {
	return session.Run(ctx, lunsNode(lun), "delete", strconv.Itoa(lun.Index))
}

func unexpectedObject(change Change) error {
	return faults.NewTypedError(
		faults.InternalError,
		fmt.Sprintf("unexpected object %T for %s", change.Desired.Object, change.Desired.Kind()),
		nil,
	)
}

func unsupportedAction(change Change) error {
	return faults.NewTypedError(
		faults.InternalError,
		fmt.Sprintf("%s does not support action %q", change.Desired.Kind(), change.Action),
		nil,
	)
}
