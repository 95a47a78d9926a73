package testkit

import (
	"bytes"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

// Output holds what one command run wrote. Reports go to Stdout, prompts and
// execution status to Stderr.
type Output struct {
	Stdout string
	Stderr string
}

// Cobra writes flag annotations while building help and completions, so
// parallel tests take turns.
var runMu sync.Mutex

func ExecuteCommandForTest(command *cobra.Command, stdin string, args ...string) (string, error) {
	output, err := Run(command, stdin, args...)
	return output.Stdout, err
}

func Run(command *cobra.Command, stdin string, args ...string) (Output, error) {
	runMu.Lock()
	defer runMu.Unlock()

	var stdout, stderr bytes.Buffer
	command.SetOut(&stdout)
	command.SetErr(&stderr)
	command.SetIn(strings.NewReader(stdin))
	command.SetArgs(args)

	err := command.Execute()
	return Output{Stdout: stdout.String(), Stderr: stderr.String()}, err
}

// CommandPaths lists every user facing subcommand of root as space separated
// paths such as "snapshot export", sorted.
func CommandPaths(root *cobra.Command) []string {
	var paths []string
	var walk func(command *cobra.Command, prefix string)
	walk = func(command *cobra.Command, prefix string) {
		for _, child := range command.Commands() {
			if child.Name() == "help" || strings.HasPrefix(child.Name(), "__") {
				continue
			}
			path := strings.TrimSpace(prefix + " " + child.Name())
			paths = append(paths, path)
			walk(child, path)
		}
	}
	walk(root, "")
	slices.Sort(paths)
	return paths
}
