package config

import (
	"strings"
	"testing"

	configdomain "github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/internal/cli/common"
	"github.com/google/go-cmp/cmp"
)

func TestDecodeContextDocument(t *testing.T) {
	t.Parallel()

	want := configdomain.Context{
		Name:        "lab",
		Targetcli:   configdomain.Targetcli{Savefile: "/etc/target/saveconfig.json", MinVersion: "2.1.53"},
		Archive:     &configdomain.Archive{Git: &configdomain.GitArchive{BaseDir: "/var/lib/lioctl/archive"}},
		StopOnError: true,
	}

	testCases := []struct {
		name    string
		format  string
		data    string
		wantErr string
	}{
		{
			name:   "yaml",
			format: common.OutputYAML,
			data:   "name: lab\ntargetcli:\n  savefile: /etc/target/saveconfig.json\n  min-version: 2.1.53\narchive:\n  git:\n    base-dir: /var/lib/lioctl/archive\nstop-on-error: true\n",
		},
		{
			name:   "json_uses_catalog_keys",
			format: common.OutputJSON,
			data:   `{"name":"lab","targetcli":{"savefile":"/etc/target/saveconfig.json","min-version":"2.1.53"},"archive":{"git":{"base-dir":"/var/lib/lioctl/archive"}},"stop-on-error":true}`,
		},
		{name: "yaml_unknown_key", format: common.OutputYAML, data: "name: lab\nsavefile: /tmp/x\n", wantErr: "invalid yaml context document"},
		{name: "json_unknown_key", format: common.OutputJSON, data: `{"name":"lab","StopOnError":true}`, wantErr: "invalid json context document"},
		{name: "yaml_two_documents", format: common.OutputYAML, data: "name: lab\n---\nname: spare\n", wantErr: "single context"},
		{name: "json_two_values", format: common.OutputJSON, data: `{"name":"lab"} {"name":"spare"}`, wantErr: "single context"},
		{name: "unknown_format", format: "toml", data: "name = 'lab'", wantErr: "use json or yaml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := decodeContextDocument([]byte(tc.data), tc.format)
			if tc.wantErr != "" {
				if !faults.IsCategory(err, faults.ValidationError) || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected validation error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeContextDocument returned error: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("unexpected context (-want +got):\n%s", diff)
			}
		})
	}
}
