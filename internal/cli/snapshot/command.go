package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/crmarques/lioctl/internal/cli/common"
	"github.com/crmarques/lioctl/reconciler"
	"github.com/crmarques/lioctl/repository"
	"github.com/crmarques/lioctl/resource"
	snapshotdomain "github.com/crmarques/lioctl/snapshot"
	"github.com/spf13/cobra"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect the live target configuration",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newShowCommand(deps, globalFlags),
		newExportCommand(deps, globalFlags),
		newHistoryCommand(deps, globalFlags),
	)
	return command
}

func newShowCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var expression string
	var refresh bool

	command := &cobra.Command{
		Use:   "show",
		Short: "Print the saveconfig snapshot",
		Example: strings.Join([]string{
			"  lioctl snapshot show --refresh",
			"  lioctl snapshot show --jq '.targets[].wwn'",
			"  lioctl snapshot show --jq '.targets[].tpgs[].luns[] | storage_object(.storage_object)'",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			snap, err := readSnapshot(command, deps, globalFlags, refresh)
			if err != nil {
				return err
			}
			payload, err := genericSnapshot(snap)
			if err != nil {
				return err
			}
			result, err := evaluateJQ(command.Context(), payload, expression)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags.Output, result, renderJSONText)
		},
	}

	command.Flags().StringVar(&expression, "jq", "", "jq expression applied to the snapshot")
	command.Flags().BoolVar(&refresh, "refresh", false, "run saveconfig before reading the savefile")
	return command
}

func newExportCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var refresh bool
	var saveName string

	command := &cobra.Command{
		Use:   "export",
		Short: "Print live state as a manifest",
		Example: strings.Join([]string{
			"  lioctl snapshot export > live.yaml",
			"  lioctl snapshot export --refresh --save imported",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			services, err := common.ResolveServices(command, deps, globalFlags, nil)
			if err != nil {
				return err
			}
			snap, err := loadSnapshot(command, services, refresh)
			if err != nil {
				return err
			}
			manifest := resource.ManifestFromObjects(reconciler.ReadObjects(snap))

			if saveName != "" {
				manifests, err := common.RequireManifests(services)
				if err != nil {
					return err
				}
				path, err := manifests.Save(command.Context(), saveName, manifest)
				if err != nil {
					return err
				}
				return common.WriteSavedPath(command, path)
			}

			format := globalFlags.Output
			if format == common.OutputAuto || format == common.OutputText {
				format = common.OutputYAML
			}
			return common.WriteOutput(command, format, manifest, nil)
		},
	}

	command.Flags().BoolVar(&refresh, "refresh", false, "run saveconfig before reading the savefile")
	command.Flags().StringVar(&saveName, "save", "", "write the manifest into the manifest directory under this name")
	return command
}

func newHistoryCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var maxCount int
	var grep string

	command := &cobra.Command{
		Use:   "history",
		Short: "List archived snapshots",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			if maxCount < 0 {
				return common.ValidationError("flag --max-count must be >= 0", nil)
			}
			services, err := common.ResolveServices(command, deps, globalFlags, nil)
			if err != nil {
				return err
			}
			archive, err := common.RequireArchive(services)
			if err != nil {
				return err
			}

			entries, err := archive.History(command.Context(), repository.HistoryFilter{MaxCount: maxCount, Grep: grep})
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []repository.HistoryEntry{}
			}
			return common.WriteOutput(command, globalFlags.Output, entries, func(w io.Writer, value []repository.HistoryEntry) error {
				for _, entry := range value {
					hash := entry.Hash
					if len(hash) > 12 {
						hash = hash[:12]
					}
					if _, err := fmt.Fprintf(w, "%s %s %s\n", hash, entry.Date.UTC().Format(time.RFC3339), entry.Subject); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	command.Flags().IntVar(&maxCount, "max-count", 0, "limit the number of entries (0 means no limit)")
	command.Flags().StringVar(&grep, "grep", "", "only list entries whose message contains this text")
	return command
}

func readSnapshot(
	command *cobra.Command,
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	refresh bool,
) (snapshotdomain.Snapshot, error) {
	services, err := common.ResolveServices(command, deps, globalFlags, nil)
	if err != nil {
		return snapshotdomain.Snapshot{}, err
	}
	return loadSnapshot(command, services, refresh)
}

func loadSnapshot(command *cobra.Command, services common.Services, refresh bool) (snapshotdomain.Snapshot, error) {
	source, err := common.RequireSnapshots(services)
	if err != nil {
		return snapshotdomain.Snapshot{}, err
	}
	if refresh {
		return source.Refresh(command.Context())
	}
	return source.Load(command.Context())
}

func renderJSONText(w io.Writer, value any) error {
	if text, ok := value.(string); ok {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}
