package config

import (
	"fmt"
	"io"
	"strings"

	configdomain "github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/internal/cli/common"
	"github.com/spf13/cobra"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Manage contexts",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newListCommand(deps, globalFlags),
		newCurrentCommand(deps, globalFlags),
		newUseCommand(deps),
		newShowCommand(deps, globalFlags),
		newResolveCommand(deps, globalFlags),
		newValidateCommand(deps),
		newAddCommand(deps),
		newDeleteCommand(deps),
	)

	return command
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contexts",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			contexts, err := common.RequireContexts(deps)
			if err != nil {
				return err
			}
			items, err := contexts.List(command.Context())
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags.Output, items, func(w io.Writer, value []configdomain.Context) error {
				for _, item := range value {
					if _, writeErr := fmt.Fprintln(w, item.Name); writeErr != nil {
						return writeErr
					}
				}
				return nil
			})
		},
	}
}

func newCurrentCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Get current context",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			contexts, err := common.RequireContexts(deps)
			if err != nil {
				return err
			}
			current, err := contexts.GetCurrent(command.Context())
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags.Output, current, func(w io.Writer, value configdomain.Context) error {
				_, writeErr := fmt.Fprintln(w, value.Name)
				return writeErr
			})
		},
	}
}

func newUseCommand(deps common.CommandDependencies) *cobra.Command {
	command := &cobra.Command{
		Use:   "use <name>",
		Short: "Set current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			contexts, err := common.RequireContexts(deps)
			if err != nil {
				return err
			}
			return contexts.SetCurrent(command.Context(), strings.TrimSpace(args[0]))
		},
	}
	command.ValidArgsFunction = completeContextNames(deps)
	return command
}

func newAddCommand(deps common.CommandDependencies) *cobra.Command {
	var input common.InputFlags

	command := &cobra.Command{
		Use:   "add",
		Short: "Add a context to the catalog",
		Example: strings.Join([]string{
			"  lioctl config add --payload lab.yaml",
			"  printf 'name: lab\\nmanifests:\\n  dir: /etc/lioctl/manifests\\n' | lioctl config add",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			contexts, err := common.RequireContexts(deps)
			if err != nil {
				return err
			}
			cfg, err := decodeContextStrict(command, input)
			if err != nil {
				return err
			}
			return contexts.Create(command.Context(), cfg)
		},
	}

	common.BindInputFlags(command, &input)
	return command
}

func newDeleteCommand(deps common.CommandDependencies) *cobra.Command {
	var yes bool

	command := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a context from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			contexts, err := common.RequireContexts(deps)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if err := common.Confirm(command, fmt.Sprintf("Delete context %q?", name), yes); err != nil {
				return err
			}
			return contexts.Delete(command.Context(), name)
		},
	}

	command.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	command.ValidArgsFunction = completeContextNames(deps)
	return command
}

func completeContextNames(deps common.CommandDependencies) cobra.CompletionFunc {
	return func(command *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 || deps.Contexts == nil {
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
	}
}

func newShowCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the context selected by --context, or the current one",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			contexts, err := common.RequireContexts(deps)
			if err != nil {
				return err
			}

			shown, err := contexts.ResolveContext(command.Context(), configdomain.ContextSelection{Name: strings.TrimSpace(globalFlags.Context)})
			if err != nil {
				return err
			}
			return common.WriteOutput(command, common.OutputYAML, shown, nil)
		},
	}
}

func newResolveCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Resolve active context with overrides",
		Example: strings.Join([]string{
			"  lioctl config resolve",
			"  lioctl config resolve --context lab",
			"  lioctl config resolve --set targetcli.savefile=/tmp/saveconfig.json",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			contexts, err := common.RequireContexts(deps)
			if err != nil {
				return err
			}
			selection, err := common.ContextSelection(globalFlags, nil)
			if err != nil {
				return err
			}

			resolved, err := contexts.ResolveContext(command.Context(), selection)
			if err != nil {
				return err
			}

			format := globalFlags.Output
			if format == common.OutputAuto {
				format = common.OutputYAML
			}
			return common.WriteOutput(command, format, resolved, func(w io.Writer, value configdomain.Context) error {
				_, writeErr := fmt.Fprintln(w, value.Name)
				return writeErr
			})
		},
	}
}

func newValidateCommand(deps common.CommandDependencies) *cobra.Command {
	var input common.InputFlags

	command := &cobra.Command{
		Use:   "validate",
		Short: "Validate a context from input",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			contexts, err := common.RequireContexts(deps)
			if err != nil {
				return err
			}
			cfg, err := decodeContextStrict(command, input)
			if err != nil {
				return err
			}
			return contexts.Validate(command.Context(), cfg)
		},
	}

	common.BindInputFlags(command, &input)
	return command
}
