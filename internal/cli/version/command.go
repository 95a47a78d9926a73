package version

import (
	"fmt"
	"io"

	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/internal/cli/common"
	"github.com/spf13/cobra"
)

// Set through -ldflags at release time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

type info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	Targetcli string `json:"targetcli,omitempty" yaml:"targetcli,omitempty"`
}

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var withTargetcli bool

	command := &cobra.Command{
		Use:   "version",
		Short: "Print the lioctl version and optionally the targetcli one",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			value := info{Version: Version, Commit: Commit, BuildDate: BuildDate}
			if withTargetcli {
				reported, err := targetcliVersion(command, deps, globalFlags)
				if err != nil {
					return err
				}
				value.Targetcli = reported
			}

			return common.WriteOutput(command, globalFlags.Output, value, func(w io.Writer, item info) error {
				if _, err := fmt.Fprintf(w, "lioctl %s (%s) %s\n", item.Version, item.Commit, item.BuildDate); err != nil {
					return err
				}
				if item.Targetcli == "" {
					return nil
				}
				_, err := fmt.Fprintf(w, "targetcli %s\n", item.Targetcli)
				return err
			})
		},
	}

	command.Flags().BoolVar(&withTargetcli, "targetcli", false, "also report the targetcli version of the selected context")
	return command
}

func targetcliVersion(command *cobra.Command, deps common.CommandDependencies, globalFlags *common.GlobalFlags) (string, error) {
	services, err := common.ResolveServices(command, deps, globalFlags, nil)
	if err != nil {
		return "", err
	}
	reporter, ok := services.Executor.(executor.VersionReporter)
	if !ok {
		return "", common.ValidationError("the configured executor does not report a targetcli version", nil)
	}
	return reporter.Version(command.Context())
}
