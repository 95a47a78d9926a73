package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/internal/cli/commandmeta"
	"github.com/crmarques/lioctl/internal/cli/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Services and Bootstrapper are re-exported so cmd/lioctl can wire core
// without importing CLI internals.
type (
	Services     = common.Services
	Bootstrapper = common.Bootstrapper
)

type Dependencies struct {
	Contexts config.ContextService
	// Bootstrap builds the services of the selected context. It runs only
	// for commands that touch targets, manifests or the archive.
	Bootstrap Bootstrapper
}

func (d Dependencies) commandDependencies() common.CommandDependencies {
	return common.CommandDependencies{
		Contexts:  d.Contexts,
		Bootstrap: d.Bootstrap,
	}
}

func Execute(ctx context.Context, deps Dependencies) error {
	root := NewRootCommand(deps)
	command, err := root.ExecuteContextC(ctx)
	reportExecution(root.ErrOrStderr(), command, err)
	return err
}

// exitCodes are documented in the lioctl help text; 1 covers internal and
// untyped failures.
var exitCodes = map[faults.ErrorCategory]int{
	faults.ValidationError: 2,
	faults.NotFoundError:   3,
	faults.ReadError:       4,
	faults.ConflictError:   5,
	faults.CommandError:    6,
}

func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) {
		return 1
	}
	if code, ok := exitCodes[typedErr.Category]; ok {
		return code
	}
	return 1
}

// reportExecution writes the trailing [OK]/[ERROR] line for apply and
// config use, and the bare error for every other command. It reads
// --no-status and --no-color from the flags cobra already parsed.
func reportExecution(w io.Writer, command *cobra.Command, err error) {
	if !emitsStatus(command) {
		if err != nil {
			_, _ = fmt.Fprintln(w, strings.TrimSpace(err.Error()))
		}
		return
	}

	color := colorEnabled(w, command)
	if err != nil {
		_, _ = fmt.Fprintf(w, "%s command execution failed: %s.\n", statusLabel("ERROR", color), strings.TrimSpace(err.Error()))
		return
	}
	_, _ = fmt.Fprintf(w, "%s command executed successfully.\n", statusLabel("OK", color))
}

func emitsStatus(command *cobra.Command) bool {
	if command == nil || flagSet(command.Flags(), "no-status") || flagSet(command.Flags(), "help") {
		return false
	}
	return commandmeta.EmitsExecutionStatusPath(command.CommandPath())
}

func colorEnabled(w io.Writer, command *cobra.Command) bool {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" || flagSet(command.Flags(), "no-color") {
		return false
	}
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return false
	}
	termName := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	return termName != "" && termName != "dumb"
}

func statusLabel(status string, color bool) string {
	label := "[" + status + "]"
	if !color {
		return label
	}
	switch status {
	case "OK":
		return "\x1b[1;32m" + label + "\x1b[0m"
	case "ERROR":
		return "\x1b[1;31m" + label + "\x1b[0m"
	default:
		return label
	}
}

// flagSet reports whether the bool flag name was parsed as true. Unknown
// names read as false.
func flagSet(flags *pflag.FlagSet, name string) bool {
	value, err := flags.GetBool(name)
	return err == nil && value
}
