package apply

import (
	"fmt"
	"io"
	"strings"

	"github.com/crmarques/lioctl/internal/cli/common"
	"github.com/crmarques/lioctl/orchestrator"
	"github.com/crmarques/lioctl/resource"
	"github.com/spf13/cobra"
)

func NewApplyCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var manifestsDir string
	var assumeYes bool
	var dryRun bool
	var stopOnError bool

	command := &cobra.Command{
		Use:   "apply",
		Short: "Converge live targets to the manifests",
		Example: strings.Join([]string{
			"  lioctl apply",
			"  lioctl apply --manifests /etc/lioctl/manifests --yes",
			"  lioctl apply --dry-run --output json",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			services, desired, err := loadDesired(command, deps, globalFlags, manifestsDir)
			if err != nil {
				return err
			}
			runner, err := common.RequireOrchestrator(services)
			if err != nil {
				return err
			}

			options := orchestrator.RunOptions{
				DryRun:      dryRun,
				StopOnError: stopOnError || services.Context.StopOnError,
			}
			if !dryRun && !assumeYes {
				if err := confirmDestructive(command, runner, desired, options); err != nil {
					return err
				}
			}

			report, err := runner.Run(command.Context(), desired, options)
			if err != nil {
				return err
			}
			if err := writeReport(command, globalFlags, report); err != nil {
				return err
			}
			return report.Err()
		},
	}

	common.BindManifestsFlag(command, &manifestsDir)
	command.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask before deleting or recreating resources")
	command.Flags().BoolVar(&dryRun, "dry-run", false, "print planned commands without running them")
	command.Flags().BoolVar(&stopOnError, "stop-on-error", false, "skip remaining resources after the first failure")
	return command
}

func NewPlanCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var manifestsDir string

	command := &cobra.Command{
		Use:   "plan",
		Short: "Show the commands apply would run",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			services, desired, err := loadDesired(command, deps, globalFlags, manifestsDir)
			if err != nil {
				return err
			}
			runner, err := common.RequireOrchestrator(services)
			if err != nil {
				return err
			}

			report, err := runner.Run(command.Context(), desired, orchestrator.RunOptions{DryRun: true})
			if err != nil {
				return err
			}
			if err := writeReport(command, globalFlags, report); err != nil {
				return err
			}
			return report.Err()
		},
	}

	common.BindManifestsFlag(command, &manifestsDir)
	return command
}

func loadDesired(
	command *cobra.Command,
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	manifestsDir string,
) (common.Services, []resource.Desired, error) {
	services, err := common.ResolveServices(command, deps, globalFlags, common.ManifestOverrides(manifestsDir))
	if err != nil {
		return common.Services{}, nil, err
	}
	manifests, err := common.RequireManifests(services)
	if err != nil {
		return common.Services{}, nil, err
	}

	manifest, err := manifests.Load(command.Context())
	if err != nil {
		return common.Services{}, nil, err
	}
	desired, err := manifest.Resources()
	if err != nil {
		return common.Services{}, nil, err
	}
	return services, desired, nil
}

func confirmDestructive(
	command *cobra.Command,
	runner orchestrator.Runner,
	desired []resource.Desired,
	options orchestrator.RunOptions,
) error {
	options.DryRun = true
	plan, err := runner.Run(command.Context(), desired, options)
	if err != nil {
		return err
	}

	var destructive []orchestrator.ResourceReport
	for _, item := range plan.Resources {
		if item.Action.Destructive() {
			destructive = append(destructive, item)
		}
	}
	if len(destructive) == 0 {
		return nil
	}

	stderr := command.ErrOrStderr()
	_, _ = fmt.Fprintln(stderr, "The following resources will be deleted or recreated:")
	for _, item := range destructive {
		_, _ = fmt.Fprintf(stderr, "  %s %s\n", item.Action, item.Path)
	}
	return common.Confirm(command, fmt.Sprintf("Apply %d destructive change(s)?", len(destructive)), false)
}

func writeReport(command *cobra.Command, globalFlags *common.GlobalFlags, report orchestrator.Report) error {
	showCommands := report.DryRun || common.IsVerbose(globalFlags)
	return common.WriteOutput(command, globalFlags.Output, report, func(w io.Writer, value orchestrator.Report) error {
		return renderReport(w, value, showCommands)
	})
}

func renderReport(w io.Writer, report orchestrator.Report, showCommands bool) error {
	for _, item := range report.Resources {
		action := string(item.Action)
		if action == "" {
			action = "-"
		}
		if _, err := fmt.Fprintf(w, "%-9s %-8s %s\n", item.Status, action, item.Path); err != nil {
			return err
		}
		for _, change := range item.Changes {
			observed := change.Observed
			if change.Missing {
				observed = "<unset>"
			}
			if _, err := fmt.Fprintf(w, "    ~ %s: %s -> %s\n", change.Name, observed, change.Desired); err != nil {
				return err
			}
		}
		if showCommands {
			for _, invocation := range item.Commands {
				if _, err := fmt.Fprintf(w, "    $ targetcli %s\n", strings.Join(invocation.Args, " ")); err != nil {
					return err
				}
			}
		}
		if item.Error != "" {
			if _, err := fmt.Fprintf(w, "    error: %s\n", item.Error); err != nil {
				return err
			}
		}
	}

	summary := report.Summary
	if _, err := fmt.Fprintf(
		w,
		"total=%d unchanged=%d changed=%d planned=%d failed=%d skipped=%d\n",
		summary.Total,
		summary.Unchanged,
		summary.Changed,
		summary.Planned,
		summary.Failed,
		summary.Skipped,
	); err != nil {
		return err
	}
	for _, warning := range report.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
			return err
		}
	}
	return nil
}
