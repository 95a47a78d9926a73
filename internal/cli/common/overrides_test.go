package common

import (
	"strings"
	"testing"

	"github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/faults"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

func TestContextSelectionMergesOverrides(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		flags   *GlobalFlags
		extra   map[string]string
		want    config.ContextSelection
		wantErr bool
	}{
		{name: "nil flags", want: config.ContextSelection{}},
		{
			name:  "name and set",
			flags: &GlobalFlags{Context: " lab ", Set: []string{"targetcli.binary=/usr/bin/targetcli", "manifests.dir=/a"}},
			want: config.ContextSelection{Name: "lab", Overrides: map[string]string{
				config.OverrideTargetcliBinary: "/usr/bin/targetcli",
				config.OverrideManifestsDir:    "/a",
			}},
		},
		{
			name:  "extra wins over set",
			flags: &GlobalFlags{Set: []string{"manifests.dir=/a"}},
			extra: map[string]string{config.OverrideManifestsDir: "/b"},
			want:  config.ContextSelection{Overrides: map[string]string{config.OverrideManifestsDir: "/b"}},
		},
		{name: "missing equals", flags: &GlobalFlags{Set: []string{"manifests.dir"}}, wantErr: true},
		{name: "empty key", flags: &GlobalFlags{Set: []string{"=value"}}, wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := ContextSelection(testCase.flags, testCase.extra)
			if testCase.wantErr {
				if !faults.IsCategory(err, faults.ValidationError) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ContextSelection returned error: %v", err)
			}
			if diff := cmp.Diff(testCase.want, got); diff != "" {
				t.Fatalf("unexpected selection (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfirmRequiresYesWithoutTerminal(t *testing.T) {
	t.Parallel()

	command := &cobra.Command{}
	command.SetIn(strings.NewReader("y\n"))

	if err := Confirm(command, "delete resources?", true); err != nil {
		t.Fatalf("expected --yes to skip confirmation, got %v", err)
	}
	err := Confirm(command, "delete resources?", false)
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected error naming --yes, got %v", err)
	}
}
