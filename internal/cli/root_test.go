package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/core"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/internal/cli/testkit"
	targetclikit "github.com/crmarques/lioctl/internal/testkit"
	"github.com/crmarques/lioctl/orchestrator"
	"github.com/crmarques/lioctl/repository"
	"github.com/crmarques/lioctl/snapshot"
)

const testWWN = "iqn.2003-01.org.example:lab"

type cliFixture struct {
	dir          string
	catalogPath  string
	manifestDir  string
	savefilePath string
	fake         *targetclikit.Targetcli
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	dir := t.TempDir()
	fixture := &cliFixture{
		dir:          dir,
		catalogPath:  filepath.Join(dir, "contexts.yaml"),
		manifestDir:  filepath.Join(dir, "manifests"),
		savefilePath: filepath.Join(dir, "saveconfig.json"),
		fake:         targetclikit.NewTargetcli(),
	}
	if err := os.MkdirAll(fixture.manifestDir, 0o755); err != nil {
		t.Fatalf("failed to create manifest dir: %v", err)
	}

	catalog := `
contexts:
  - name: lab
    targetcli:
      savefile: ` + fixture.savefilePath + `
    manifests:
      dir: ` + fixture.manifestDir + `
    archive:
      git:
        base-dir: ` + filepath.Join(dir, "archive") + `
  - name: spare
current-ctx: lab
`
	if err := os.WriteFile(fixture.catalogPath, []byte(catalog), 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return fixture
}

func (f *cliFixture) writeManifest(t *testing.T, name string, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.manifestDir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

func (f *cliFixture) dependencies() Dependencies {
	return Dependencies{
		Contexts: core.NewContextService(core.BootstrapConfig{ContextCatalogPath: f.catalogPath}),
		Bootstrap: func(ctx context.Context, selection config.ContextSelection) (Services, error) {
			lioctlContext, err := core.NewLioctlContext(
				ctx,
				core.BootstrapConfig{ContextCatalogPath: f.catalogPath, Executor: f.fake},
				selection,
			)
			if err != nil {
				return Services{}, err
			}
			return Services{
				Context:      lioctlContext.Context,
				Executor:     lioctlContext.Executor,
				Snapshots:    lioctlContext.Snapshots,
				Orchestrator: lioctlContext.Orchestrator,
				Manifests:    lioctlContext.Manifests,
				Archive:      lioctlContext.Archive,
			}, nil
		},
	}
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return testkit.ExecuteCommandForTest(NewRootCommand(f.dependencies()), "", args...)
}

func (f *cliFixture) mutatingCalls() []string {
	calls := make([]string, 0)
	for _, call := range f.fake.MutatingCalls() {
		calls = append(calls, strings.Join(call, " "))
	}
	return calls
}

const labManifest = `
targets:
  - name: /iscsi/` + testWWN + `
backstores:
  - name: /backstores/fileio/disk0
    dev: /srv/disk0.img
    size: 1G
luns:
  - name: /iscsi/` + testWWN + `/tpg1/luns/lun0
    storage_object: /backstores/fileio/disk0
`

func decodeReport(t *testing.T, output string) orchestrator.Report {
	t.Helper()
	var report orchestrator.Report
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("output is not a json report: %v\n%s", err, output)
	}
	return report
}

func TestApplyConvergesAndIsIdempotent(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)
	fixture.writeManifest(t, "lab.yaml", labManifest)

	output, err := fixture.run(t, "apply", "--output", "json")
	if err != nil {
		t.Fatalf("apply returned error: %v\n%s", err, output)
	}
	report := decodeReport(t, output)
	if report.Summary.Changed != 3 || report.Summary.Failed != 0 {
		t.Fatalf("expected three changed resources, got %#v", report.Summary)
	}
	if !report.Archived {
		t.Fatalf("expected the run to be archived, got %#v", report)
	}

	state := fixture.fake.State()
	if len(state.Targets) != 1 || len(state.StorageObjects) != 1 {
		t.Fatalf("expected target and backstore in live state, got %#v", state)
	}
	if luns := state.Targets[0].TPGs[0].Luns; len(luns) != 1 || luns[0].StorageObject != "/backstores/fileio/disk0" {
		t.Fatalf("expected lun0 to map disk0, got %#v", luns)
	}

	callsAfterFirst := len(fixture.mutatingCalls())
	output, err = fixture.run(t, "apply", "--output", "json")
	if err != nil {
		t.Fatalf("second apply returned error: %v\n%s", err, output)
	}
	report = decodeReport(t, output)
	if report.Summary.Unchanged != 3 || report.Summary.Changed != 0 {
		t.Fatalf("expected converged second run, got %#v", report.Summary)
	}
	if got := len(fixture.mutatingCalls()); got != callsAfterFirst {
		t.Fatalf("expected no mutating calls on second run, got %v", fixture.mutatingCalls()[callsAfterFirst:])
	}

	history, err := fixture.run(t, "snapshot", "history", "--output", "json")
	if err != nil {
		t.Fatalf("snapshot history returned error: %v", err)
	}
	var entries []repository.HistoryEntry
	if err := json.Unmarshal([]byte(history), &entries); err != nil {
		t.Fatalf("history output is not json: %v\n%s", err, history)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Subject, "apply ") {
		t.Fatalf("expected a single archived apply, got %#v", entries)
	}
}

func TestApplyRequiresConfirmationForDestructiveChanges(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)
	fixture.fake.Seed(snapshot.Snapshot{
		Targets: []snapshot.Target{{Fabric: "iscsi", WWN: testWWN, TPGs: []snapshot.TPG{{Tag: 1}}}},
	})
	fixture.writeManifest(t, "lab.yaml", `
targets:
  - name: /iscsi/`+testWWN+`
    ensure: absent
`)

	streams, err := testkit.Run(NewRootCommand(fixture.dependencies()), "", "apply")
	if !faults.IsCategory(err, faults.ValidationError) || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error naming --yes, got %v", err)
	}
	if !strings.Contains(streams.Stderr, "delete /iscsi/"+testWWN) {
		t.Fatalf("expected the destructive change to be listed on stderr, got %q", streams.Stderr)
	}
	if calls := fixture.mutatingCalls(); len(calls) != 0 {
		t.Fatalf("expected no mutating calls without confirmation, got %v", calls)
	}

	output, err := fixture.run(t, "apply", "--yes")
	if err != nil {
		t.Fatalf("apply --yes returned error: %v\n%s", err, output)
	}
	if !strings.Contains(output, "changed") || !strings.Contains(output, "delete") {
		t.Fatalf("expected text report with a delete, got %q", output)
	}
	if targets := fixture.fake.State().Targets; len(targets) != 0 {
		t.Fatalf("expected target to be deleted, got %#v", targets)
	}
}

func TestPlanPrintsCommandsWithoutMutating(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)
	fixture.writeManifest(t, "lab.yaml", labManifest)

	output, err := fixture.run(t, "plan")
	if err != nil {
		t.Fatalf("plan returned error: %v\n%s", err, output)
	}
	for _, want := range []string{
		"$ targetcli /iscsi/ create " + testWWN,
		"$ targetcli backstores/fileio create disk0 file_or_dev=/srv/disk0.img size=1073741824",
		"planned=3",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected plan output to contain %q, got:\n%s", want, output)
		}
	}
	if calls := fixture.mutatingCalls(); len(calls) != 0 {
		t.Fatalf("expected plan to run no mutating commands, got %v", calls)
	}
}

func TestApplyManifestsFlagOverridesContext(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)
	other := filepath.Join(fixture.dir, "other")
	if err := os.MkdirAll(other, 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(other, "one.yaml"), []byte("targets:\n  - name: /iscsi/wwn-other\n"), 0o600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	output, err := fixture.run(t, "plan", "--manifests", other, "--output", "json")
	if err != nil {
		t.Fatalf("plan returned error: %v\n%s", err, output)
	}
	report := decodeReport(t, output)
	if len(report.Resources) != 1 || report.Resources[0].Path != "/iscsi/wwn-other" {
		t.Fatalf("expected manifests from --manifests, got %#v", report.Resources)
	}
}

func TestSnapshotShowAppliesJQ(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)
	size := int64(4096)
	fixture.fake.Seed(snapshot.Snapshot{
		Targets: []snapshot.Target{{
			Fabric: "iscsi",
			WWN:    testWWN,
			TPGs:   []snapshot.TPG{{Tag: 1, Luns: []snapshot.Lun{{Index: 0, StorageObject: "/backstores/ramdisk/rd0"}}}},
		}},
		StorageObjects: []snapshot.StorageObject{{Plugin: "ramdisk", Name: "rd0", Size: &size}},
	})

	output, err := fixture.run(t, "snapshot", "show", "--refresh", "--jq", ".targets[].wwn")
	if err != nil {
		t.Fatalf("snapshot show returned error: %v", err)
	}
	if strings.TrimSpace(output) != testWWN {
		t.Fatalf("expected raw wwn, got %q", output)
	}

	output, err = fixture.run(t, "snapshot", "show", "--jq", ".targets[].tpgs[].luns[] | storage_object(.storage_object) | .size", "--output", "json")
	if err != nil {
		t.Fatalf("snapshot show returned error: %v", err)
	}
	if strings.TrimSpace(output) != "4096" {
		t.Fatalf("expected resolved storage object size, got %q", output)
	}

	if _, err := fixture.run(t, "snapshot", "show", "--jq", ".targets["); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected invalid jq to be a validation error, got %v", err)
	}
}

func TestSnapshotExportAndSave(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)
	fixture.fake.Seed(snapshot.Snapshot{
		Targets:        []snapshot.Target{{Fabric: "iscsi", WWN: testWWN, TPGs: []snapshot.TPG{{Tag: 1}}}},
		StorageObjects: []snapshot.StorageObject{{Plugin: "block", Name: "sdb", Dev: "/dev/sdb"}},
	})

	output, err := fixture.run(t, "snapshot", "export", "--refresh")
	if err != nil {
		t.Fatalf("snapshot export returned error: %v", err)
	}
	for _, want := range []string{"targets:", "name: /iscsi/" + testWWN, "name: /backstores/block/sdb", "portal_groups:"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected export to contain %q, got:\n%s", want, output)
		}
	}

	if _, err := fixture.run(t, "snapshot", "export", "--output", "json"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected json output to be rejected for export, got %v", err)
	}

	output, err = fixture.run(t, "snapshot", "export", "--save", "live")
	if err != nil {
		t.Fatalf("snapshot export --save returned error: %v", err)
	}
	savedPath := filepath.Join(fixture.manifestDir, "live.yaml")
	if strings.TrimSpace(output) != savedPath {
		t.Fatalf("expected saved path %q, got %q", savedPath, output)
	}

	before := len(fixture.mutatingCalls())
	output, err = fixture.run(t, "apply", "--output", "json")
	if err != nil {
		t.Fatalf("apply of exported manifest returned error: %v\n%s", err, output)
	}
	if report := decodeReport(t, output); report.Summary.Changed != 0 {
		t.Fatalf("expected exported manifest to be converged, got %#v", report.Summary)
	}
	if got := len(fixture.mutatingCalls()); got != before {
		t.Fatalf("expected no mutating calls, got %v", fixture.mutatingCalls()[before:])
	}
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)

	output, err := fixture.run(t, "config", "list")
	if err != nil {
		t.Fatalf("config list returned error: %v", err)
	}
	if strings.Fields(output)[0] != "lab" || !slices.Contains(strings.Fields(output), "spare") {
		t.Fatalf("unexpected context list %q", output)
	}

	if _, err := fixture.run(t, "config", "use", "spare"); err != nil {
		t.Fatalf("config use returned error: %v", err)
	}
	output, err = fixture.run(t, "config", "current")
	if err != nil {
		t.Fatalf("config current returned error: %v", err)
	}
	if strings.TrimSpace(output) != "spare" {
		t.Fatalf("expected spare to be current, got %q", output)
	}

	output, err = fixture.run(t, "config", "resolve", "--context", "lab", "--set", "targetcli.binary=/opt/targetcli")
	if err != nil {
		t.Fatalf("config resolve returned error: %v", err)
	}
	if !strings.Contains(output, "binary: /opt/targetcli") {
		t.Fatalf("expected override in resolved context, got:\n%s", output)
	}

	if _, err := fixture.run(t, "config", "resolve", "--set", "unknown.key=1"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected unknown override to be rejected, got %v", err)
	}
	if _, err := fixture.run(t, "config", "use", "missing"); !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected unknown context to be not found, got %v", err)
	}
}

func TestConfigAddAndDelete(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)
	edge := "name: edge\ntargetcli:\n  binary: /usr/local/bin/targetcli\n"

	if _, err := testkit.Run(NewRootCommand(fixture.dependencies()), edge, "config", "add"); err != nil {
		t.Fatalf("config add returned error: %v", err)
	}
	output, err := fixture.run(t, "config", "list")
	if err != nil {
		t.Fatalf("config list returned error: %v", err)
	}
	if !slices.Contains(strings.Fields(output), "edge") {
		t.Fatalf("expected edge to be listed, got %q", output)
	}
	if _, err := testkit.Run(NewRootCommand(fixture.dependencies()), edge, "config", "add"); !faults.IsCategory(err, faults.ConflictError) {
		t.Fatalf("expected duplicate context to conflict, got %v", err)
	}
	if _, err := testkit.Run(NewRootCommand(fixture.dependencies()), "name: bad\nbogus: 1\n", "config", "add"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected unknown key to be rejected, got %v", err)
	}

	if _, err := fixture.run(t, "config", "delete", "edge"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected delete without --yes to require confirmation, got %v", err)
	}
	if _, err := fixture.run(t, "config", "delete", "edge", "--yes"); err != nil {
		t.Fatalf("config delete returned error: %v", err)
	}
	output, err = fixture.run(t, "config", "list")
	if err != nil {
		t.Fatalf("config list returned error: %v", err)
	}
	if slices.Contains(strings.Fields(output), "edge") {
		t.Fatalf("expected edge to be removed, got %q", output)
	}
	if _, err := fixture.run(t, "config", "delete", "edge", "--yes"); !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected deleting a missing context to be not found, got %v", err)
	}
}

func TestCheckReportsTargetcliAndSavefile(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)
	output, err := fixture.run(t, "check")
	if err != nil {
		t.Fatalf("check returned error: %v\n%s", err, output)
	}
	for _, want := range []string{"targetcli    ok       targetcli version 2.1.53", "savefile     ok", "manifests    ok"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected check output to contain %q, got:\n%s", want, output)
		}
	}

	output, err = fixture.run(t, "check", "--set", "targetcli.savefile=/nonexistent-lioctl-dir/saveconfig.json")
	if !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected missing savefile directory to fail, got %v", err)
	}
	if !strings.Contains(output, "savefile     failed") {
		t.Fatalf("expected failed savefile line, got:\n%s", output)
	}
}

func TestRootRejectsInvalidOutputFormat(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)
	if _, err := fixture.run(t, "plan", "--output", "xml"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected invalid output format error, got %v", err)
	}
}

func TestRootTypesUsageErrors(t *testing.T) {
	t.Parallel()

	fixture := newCLIFixture(t)
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing positional", args: []string{"config", "use"}, want: "usage: lioctl config use <name>"},
		{name: "extra positional", args: []string{"plan", "lab.yaml"}, want: "usage: lioctl plan"},
		{name: "unknown flag", args: []string{"apply", "--force"}, want: "unknown flag: --force"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := fixture.run(t, tc.args...)
			if !faults.IsCategory(err, faults.ValidationError) || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected validation error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRootRegistersCommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(Dependencies{})
	registered := testkit.CommandPaths(root)
	for _, want := range []string{
		"apply",
		"plan",
		"snapshot show",
		"snapshot export",
		"snapshot history",
		"config list",
		"config current",
		"config use",
		"config show",
		"config resolve",
		"config validate",
		"config add",
		"config delete",
		"check",
		"version",
	} {
		if !slices.Contains(registered, want) {
			t.Fatalf("expected command %q to be registered; got %v", want, registered)
		}
	}
}
