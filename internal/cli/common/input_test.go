package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crmarques/lioctl/faults"
	"github.com/spf13/cobra"
)

const labContextDocument = "name: lab\ntargetcli:\n  savefile: /etc/target/saveconfig.json\n"

func newCommandWithStdin(input string) *cobra.Command {
	command := &cobra.Command{}
	command.SetIn(strings.NewReader(input))
	return command
}

func writePayload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "context.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	return path
}

func TestReadContextDocument(t *testing.T) {
	t.Parallel()

	oversized := strings.Repeat("#", maxContextDocumentBytes+1)
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	testCases := []struct {
		name         string
		stdin        string
		payload      func(t *testing.T) string
		want         string
		wantCategory faults.ErrorCategory
		wantMessage  string
	}{
		{name: "stdin_without_payload", stdin: labContextDocument, want: labContextDocument},
		{name: "stdin_dash", stdin: labContextDocument, payload: func(*testing.T) string { return stdinPayload }, want: labContextDocument},
		{
			name:    "file",
			stdin:   "ignored",
			payload: func(t *testing.T) string { return writePayload(t, labContextDocument) },
			want:    labContextDocument,
		},
		{name: "blank_stdin", stdin: "  \n", wantCategory: faults.ValidationError, wantMessage: MissingContextMessage},
		{
			name:         "blank_file",
			payload:      func(t *testing.T) string { return writePayload(t, "\n\n") },
			wantCategory: faults.ValidationError,
			wantMessage:  "is empty",
		},
		{name: "oversized_stdin", stdin: oversized, wantCategory: faults.ValidationError, wantMessage: "exceeds 64 KiB"},
		{
			name:         "oversized_file",
			payload:      func(t *testing.T) string { return writePayload(t, oversized) },
			wantCategory: faults.ValidationError,
			wantMessage:  "exceeds 64 KiB",
		},
		{
			name:         "missing_file",
			payload:      func(*testing.T) string { return missing },
			wantCategory: faults.NotFoundError,
			wantMessage:  "does not exist",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			flags := InputFlags{Format: OutputYAML}
			if tc.payload != nil {
				flags.Payload = tc.payload(t)
			}

			data, err := ReadContextDocument(newCommandWithStdin(tc.stdin), flags)
			if tc.wantCategory != "" {
				if !faults.IsCategory(err, tc.wantCategory) {
					t.Fatalf("expected %s, got %v", tc.wantCategory, err)
				}
				if !strings.Contains(err.Error(), tc.wantMessage) {
					t.Fatalf("expected error to contain %q, got %q", tc.wantMessage, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadContextDocument returned error: %v", err)
			}
			if string(data) != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, string(data))
			}
		})
	}
}
