package testkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/snapshot"
)

var _ executor.Executor = (*Targetcli)(nil)

// Targetcli is an in-memory stand-in for the targetcli shell. It applies the
// create, delete and set commands lioctl issues, including the implicit side
// effects of the real tool, and writes a saveconfig document on saveconfig.
type Targetcli struct {
	mu    sync.Mutex
	state snapshot.Snapshot
	calls [][]string

	// FailOn makes Run fail when it returns a non-empty output.
	FailOn func(args []string) string
	// Version is reported by "version"; defaults to 2.1.53.
	Version string
}

func NewTargetcli() *Targetcli {
	return &Targetcli{}
}

// Seed replaces the live state.
func (t *Targetcli) Seed(state snapshot.Snapshot) *Targetcli {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = cloneSnapshot(state)
	return t
}

// State returns a copy of the live state.
func (t *Targetcli) State() snapshot.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneSnapshot(t.state)
}

// Calls returns every invocation received, including failed ones.
func (t *Targetcli) Calls() [][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	calls := make([][]string, 0, len(t.calls))
	for _, call := range t.calls {
		calls = append(calls, slices.Clone(call))
	}
	return calls
}

// MutatingCalls returns the invocations that are neither saveconfig nor
// version.
func (t *Targetcli) MutatingCalls() [][]string {
	var calls [][]string
	for _, call := range t.Calls() {
		if len(call) > 0 && (call[0] == "saveconfig" || call[0] == "version") {
			continue
		}
		calls = append(calls, call)
	}
	return calls
}

func (t *Targetcli) Run(_ context.Context, args []string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls = append(t.calls, slices.Clone(args))
	if t.FailOn != nil {
		if output := t.FailOn(args); output != "" {
			return output, errors.New("exit status 1")
		}
	}
	if len(args) == 0 {
		return "", nil
	}

	var err error
	switch {
	case args[0] == "version":
		version := t.Version
		if version == "" {
			version = "2.1.53"
		}
		return "targetcli version " + version, nil
	case args[0] == "saveconfig":
		err = t.saveconfig(args[1:])
	case strings.HasPrefix(args[0], "backstores/"):
		err = t.backstore(strings.TrimPrefix(args[0], "backstores/"), args[1:])
	default:
		err = t.node(args[0], args[1:])
	}
	if err != nil {
		return err.Error(), errors.New("exit status 1")
	}
	return "", nil
}

func (t *Targetcli) saveconfig(args []string) error {
	path := ""
	for _, arg := range args {
		if value, ok := strings.CutPrefix(arg, "savefile="); ok {
			path = value
		}
	}
	if path == "" {
		return errors.New("savefile is required")
	}
	data, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func (t *Targetcli) backstore(plugin string, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("backstores/%s: missing arguments", plugin)
	}
	name := args[1]
	idx := slices.IndexFunc(t.state.StorageObjects, func(item snapshot.StorageObject) bool {
		return item.Plugin == plugin && item.Name == name
	})

	switch args[0] {
	case "create":
		if idx >= 0 {
			return fmt.Errorf("storage object %s/%s exists", plugin, name)
		}
		object := snapshot.StorageObject{Plugin: plugin, Name: name}
		for _, param := range args[2:] {
			key, value, _ := strings.Cut(param, "=")
			switch key {
			case "file_or_dev", "dev":
				object.Dev = value
			case "size":
				size, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid size %q", value)
				}
				object.Size = &size
			case "write_back":
				writeBack := value == "true"
				object.WriteBack = &writeBack
			case "wwn":
				object.WWN = value
			case "sparse":
			default:
				return fmt.Errorf("unknown parameter %q", key)
			}
		}
		if plugin == "fileio" && object.WriteBack == nil {
			writeBack := true
			object.WriteBack = &writeBack
		}
		t.state.StorageObjects = append(t.state.StorageObjects, object)
		return nil
	case "delete":
		if idx < 0 {
			return fmt.Errorf("no storage object named %s", name)
		}
		t.state.StorageObjects = slices.Delete(t.state.StorageObjects, idx, idx+1)
		path := "/backstores/" + plugin + "/" + name
		for targetIdx := range t.state.Targets {
			for tpgIdx := range t.state.Targets[targetIdx].TPGs {
				tpg := &t.state.Targets[targetIdx].TPGs[tpgIdx]
				tpg.Luns = slices.DeleteFunc(tpg.Luns, func(lun snapshot.Lun) bool {
					return lun.StorageObject == path
				})
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (t *Targetcli) node(node string, args []string) error {
	segments := strings.Split(strings.Trim(node, "/"), "/")
	if len(args) == 0 {
		return fmt.Errorf("%s: missing command", node)
	}

	switch len(segments) {
	case 1:
		return t.fabricCommand(segments[0], args)
	case 2:
		return t.targetCommand(segments[0], segments[1], args)
	case 3:
		return t.tpgCommand(segments[0], segments[1], segments[2], args)
	case 4:
		if segments[3] != "luns" {
			break
		}
		return t.lunsCommand(segments[0], segments[1], segments[2], args)
	}
	return fmt.Errorf("no such path %s", node)
}

func (t *Targetcli) fabricCommand(fabric string, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("/%s: missing arguments", fabric)
	}
	wwn := args[1]
	idx := t.targetIndex(fabric, wwn)

	switch args[0] {
	case "create":
		if idx >= 0 {
			return fmt.Errorf("target %s exists", wwn)
		}
		t.state.Targets = append(t.state.Targets, snapshot.Target{
			Fabric: fabric,
			WWN:    wwn,
			TPGs:   []snapshot.TPG{{Tag: 1, Attributes: defaultTPGAttributes()}},
		})
		return nil
	case "delete":
		if idx < 0 {
			return fmt.Errorf("no such target %s", wwn)
		}
		t.state.Targets = slices.Delete(t.state.Targets, idx, idx+1)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (t *Targetcli) targetCommand(fabric string, wwn string, args []string) error {
	idx := t.targetIndex(fabric, wwn)
	if idx < 0 {
		return fmt.Errorf("no such path /%s/%s", fabric, wwn)
	}
	if len(args) < 2 {
		return fmt.Errorf("/%s/%s: missing arguments", fabric, wwn)
	}
	tag, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid tag %q", args[1])
	}
	target := &t.state.Targets[idx]
	tpgIdx := slices.IndexFunc(target.TPGs, func(tpg snapshot.TPG) bool { return tpg.Tag == tag })

	switch args[0] {
	case "create":
		if tpgIdx >= 0 {
			return fmt.Errorf("tpg%d exists", tag)
		}
		target.TPGs = append(target.TPGs, snapshot.TPG{Tag: tag, Attributes: defaultTPGAttributes()})
		return nil
	case "delete":
		if tpgIdx < 0 {
			return fmt.Errorf("no such tpg%d", tag)
		}
		target.TPGs = slices.Delete(target.TPGs, tpgIdx, tpgIdx+1)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (t *Targetcli) tpgCommand(fabric string, wwn string, tpgName string, args []string) error {
	tpg, err := t.lookupTPG(fabric, wwn, tpgName)
	if err != nil {
		return err
	}
	if len(args) != 3 || args[0] != "set" || args[1] != "attribute" {
		return fmt.Errorf("unsupported tpg command %q", strings.Join(args, " "))
	}
	key, value, ok := strings.Cut(args[2], "=")
	if !ok {
		return fmt.Errorf("invalid attribute %q", args[2])
	}
	if tpg.Attributes == nil {
		tpg.Attributes = map[string]snapshot.Value{}
	}
	tpg.Attributes[key] = snapshot.Value(value)
	return nil
}

func (t *Targetcli) lunsCommand(fabric string, wwn string, tpgName string, args []string) error {
	tpg, err := t.lookupTPG(fabric, wwn, tpgName)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errors.New("luns: missing arguments")
	}

	switch args[0] {
	case "create":
		storageObject := args[1]
		if !t.storageObjectExists(storageObject) {
			return fmt.Errorf("storage object %s does not exist", storageObject)
		}
		index := len(tpg.Luns)
		for _, param := range args[2:] {
			if value, ok := strings.CutPrefix(param, "lun="); ok {
				parsed, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("invalid lun %q", value)
				}
				index = parsed
			}
		}
		if slices.ContainsFunc(tpg.Luns, func(lun snapshot.Lun) bool { return lun.Index == index }) {
			return fmt.Errorf("lun%d exists", index)
		}
		tpg.Luns = append(tpg.Luns, snapshot.Lun{Index: index, StorageObject: storageObject})
		return nil
	case "delete":
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid lun %q", args[1])
		}
		lunIdx := slices.IndexFunc(tpg.Luns, func(lun snapshot.Lun) bool { return lun.Index == index })
		if lunIdx < 0 {
			return fmt.Errorf("no such lun%d", index)
		}
		tpg.Luns = slices.Delete(tpg.Luns, lunIdx, lunIdx+1)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (t *Targetcli) lookupTPG(fabric string, wwn string, tpgName string) (*snapshot.TPG, error) {
	idx := t.targetIndex(fabric, wwn)
	if idx < 0 {
		return nil, fmt.Errorf("no such path /%s/%s", fabric, wwn)
	}
	tag, err := strconv.Atoi(strings.TrimPrefix(tpgName, "tpg"))
	if err != nil || !strings.HasPrefix(tpgName, "tpg") {
		return nil, fmt.Errorf("no such path /%s/%s/%s", fabric, wwn, tpgName)
	}
	target := &t.state.Targets[idx]
	for tpgIdx := range target.TPGs {
		if target.TPGs[tpgIdx].Tag == tag {
			return &target.TPGs[tpgIdx], nil
		}
	}
	return nil, fmt.Errorf("no such path /%s/%s/%s", fabric, wwn, tpgName)
}

func (t *Targetcli) targetIndex(fabric string, wwn string) int {
	return slices.IndexFunc(t.state.Targets, func(target snapshot.Target) bool {
		return target.Fabric == fabric && target.WWN == wwn
	})
}

func (t *Targetcli) storageObjectExists(path string) bool {
	return slices.ContainsFunc(t.state.StorageObjects, func(object snapshot.StorageObject) bool {
		return "/backstores/"+object.Plugin+"/"+object.Name == path
	})
}

func defaultTPGAttributes() map[string]snapshot.Value {
	return map[string]snapshot.Value{
		"authentication":      "1",
		"generate_node_acls":  "0",
		"default_cmdsn_depth": "64",
	}
}

func cloneSnapshot(in snapshot.Snapshot) snapshot.Snapshot {
	data, err := json.Marshal(in)
	if err != nil {
		return snapshot.Snapshot{}
	}
	var out snapshot.Snapshot
	if err := json.Unmarshal(data, &out); err != nil {
		return snapshot.Snapshot{}
	}
	return out
}
