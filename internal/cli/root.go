package cli

import (
	"context"
	"strings"

	"github.com/crmarques/lioctl/debugctx"
	applycmd "github.com/crmarques/lioctl/internal/cli/apply"
	"github.com/crmarques/lioctl/internal/cli/check"
	"github.com/crmarques/lioctl/internal/cli/common"
	"github.com/crmarques/lioctl/internal/cli/config"
	snapshotcmd "github.com/crmarques/lioctl/internal/cli/snapshot"
	"github.com/crmarques/lioctl/internal/cli/version"
	"github.com/spf13/cobra"
)

const rootLong = `lioctl converges the LIO SCSI target configuration of this host to the
targets, backstores, portal groups and LUNs declared in yaml manifests,
driving targetcli and keeping its savefile in step.

Exit codes:
  0  success
  1  internal error
  2  invalid input, flags or configuration (includes an old targetcli)
  3  context, manifest directory or file not found
  4  savefile or manifest unreadable
  5  conflicting declarations or catalog entries
  6  a targetcli command failed`

func NewRootCommand(deps Dependencies) *cobra.Command {
	commandDeps := deps.commandDependencies()
	var globalFlags common.GlobalFlags

	root := &cobra.Command{
		Use:   "lioctl",
		Short: "Converge LIO SCSI targets to declared state",
		Long:  rootLong,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, _ []string) error {
			if err := common.ValidateOutputFormat(command.CommandPath(), globalFlags.Output); err != nil {
				return err
			}

			commandContext := command.Context()
			if commandContext == nil {
				commandContext = context.Background()
			}
			commandContext = debugctx.WithEnabled(commandContext, globalFlags.Debug)
			commandContext = debugctx.WithWriter(commandContext, command.ErrOrStderr())
			command.SetContext(commandContext)

			debugctx.Printf(
				command.Context(),
				"root flags context=%q output=%q verbose=%t no_status=%t no_color=%t set=%q command=%q",
				globalFlags.Context,
				globalFlags.Output,
				globalFlags.Verbose,
				globalFlags.NoStatus,
				globalFlags.NoColor,
				globalFlags.Set,
				command.CommandPath(),
			)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	common.BindGlobalFlags(root, &globalFlags)
	registerContextFlagCompletion(root, commandDeps)

	root.AddGroup(
		&cobra.Group{ID: "basic", Title: "Basic Commands:"},
		&cobra.Group{ID: "other", Title: "Other Commands:"},
	)
	for _, command := range []*cobra.Command{
		applycmd.NewApplyCommand(commandDeps, &globalFlags),
		applycmd.NewPlanCommand(commandDeps, &globalFlags),
		snapshotcmd.NewCommand(commandDeps, &globalFlags),
		check.NewCommand(commandDeps, &globalFlags),
	} {
		command.GroupID = "basic"
		root.AddCommand(command)
	}
	for _, command := range []*cobra.Command{
		config.NewCommand(commandDeps, &globalFlags),
		version.NewCommand(commandDeps, &globalFlags),
	} {
		command.GroupID = "other"
		root.AddCommand(command)
	}
	root.SetCompletionCommandGroupID("other")

	root.SetFlagErrorFunc(func(command *cobra.Command, err error) error {
		return usageError(command, err)
	})
	typeArgErrors(root)
	return root
}

func registerContextFlagCompletion(root *cobra.Command, deps common.CommandDependencies) {
	_ = root.RegisterFlagCompletionFunc("context", func(command *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		if deps.Contexts == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		items, err := deps.Contexts.List(command.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			names = append(names, item.Name)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

// typeArgErrors turns positional argument errors into ValidationErrors
// carrying the usage line, like flag errors, so both exit with 2.
func typeArgErrors(command *cobra.Command) {
	if validate := command.Args; validate != nil {
		command.Args = func(command *cobra.Command, args []string) error {
			if err := validate(command, args); err != nil {
				return usageError(command, err)
			}
			return nil
		}
	}

	for _, child := range command.Commands() {
		typeArgErrors(child)
	}
}

func usageError(command *cobra.Command, err error) error {
	return common.ValidationError(
		strings.TrimSpace(err.Error())+"\nusage: "+command.UseLine(),
		nil,
	)
}
