package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/internal/cli/common"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	statusOK      = "ok"
	statusFailed  = "failed"
	statusSkipped = "skipped"
)

type result struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`

	err error
}

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify targetcli, its version and the savefile location",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			services, err := common.ResolveServices(command, deps, globalFlags, nil)
			if err != nil {
				return err
			}

			results := runChecks(command.Context(), services)
			if err := common.WriteOutput(command, globalFlags.Output, results, renderResults); err != nil {
				return err
			}

			var errs []error
			for _, item := range results {
				if item.err != nil {
					errs = append(errs, item.err)
				}
			}
			return errors.Join(errs...)
		},
	}
}

func runChecks(ctx context.Context, services common.Services) []result {
	checks := []func() result{
		func() result { return checkTargetcli(ctx, services.Executor) },
		func() result {
			return checkMinVersion(ctx, services.Executor, services.Context.Targetcli.MinVersion)
		},
		func() result { return checkSavefileDir(services.Context.Targetcli.Savefile) },
		func() result { return checkManifests(ctx, services) },
	}

	results := make([]result, len(checks))
	var group errgroup.Group
	for idx, check := range checks {
		group.Go(func() error {
			results[idx] = check()
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func checkTargetcli(ctx context.Context, exec executor.Executor) result {
	item := result{Name: "targetcli"}
	if exec == nil {
		return failed(item, faults.NewTypedError(faults.InternalError, "executor is not configured", nil))
	}

	if reporter, ok := exec.(executor.VersionReporter); ok {
		version, err := reporter.Version(ctx)
		if err != nil {
			return failed(item, err)
		}
		item.Status = statusOK
		item.Detail = "version " + version
		return item
	}

	output, err := exec.Run(ctx, []string{"version"})
	if err != nil {
		return failed(item, faults.NewCommandError("", []string{"version"}, output, err))
	}
	item.Status = statusOK
	item.Detail = strings.TrimSpace(output)
	return item
}

func checkMinVersion(ctx context.Context, exec executor.Executor, minVersion string) result {
	item := result{Name: "min-version"}
	checker, ok := exec.(executor.VersionChecker)
	if strings.TrimSpace(minVersion) == "" || !ok {
		item.Status = statusSkipped
		item.Detail = "no minimum version configured"
		return item
	}
	if err := checker.CheckVersion(ctx); err != nil {
		return failed(item, err)
	}
	item.Status = statusOK
	item.Detail = ">= " + minVersion
	return item
}

func checkSavefileDir(savefile string) result {
	item := result{Name: "savefile"}
	dir := filepath.Dir(savefile)
	info, err := os.Stat(dir)
	if err != nil {
		return failed(item, faults.NewTypedError(faults.NotFoundError, fmt.Sprintf("savefile directory %q is not accessible", dir), err))
	}
	if !info.IsDir() {
		return failed(item, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("savefile parent %q is not a directory", dir), nil))
	}
	item.Status = statusOK
	item.Detail = savefile
	return item
}

func checkManifests(ctx context.Context, services common.Services) result {
	item := result{Name: "manifests"}
	if services.Manifests == nil {
		item.Status = statusSkipped
		item.Detail = "no manifest directory configured"
		return item
	}
	files, err := services.Manifests.Files(ctx)
	if err != nil {
		return failed(item, err)
	}
	item.Status = statusOK
	item.Detail = fmt.Sprintf("%d file(s) in %s", len(files), services.Context.Manifests.Dir)
	return item
}

func failed(item result, err error) result {
	item.Status = statusFailed
	item.Detail = err.Error()
	item.err = err
	return item
}

func renderResults(w io.Writer, results []result) error {
	for _, item := range results {
		if _, err := fmt.Fprintf(w, "%-12s %-8s %s\n", item.Name, item.Status, item.Detail); err != nil {
			return err
		}
	}
	return nil
}
