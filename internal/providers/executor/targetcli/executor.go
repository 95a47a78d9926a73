package targetcli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/crmarques/lioctl/debugctx"
	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/faults"
)

var _ executor.Executor = (*Executor)(nil)
var _ executor.VersionReporter = (*Executor)(nil)
var _ executor.VersionChecker = (*Executor)(nil)

// targetcli-fb reports versions such as "2.1.53" or "2.1.fb49".
var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(?:fb)?(\d+))?`)

type Executor struct {
	binary     string
	minVersion *semver.Version
	versionOK  bool
}

func New(binary string, minVersion string) (*Executor, error) {
	if strings.TrimSpace(binary) == "" {
		return nil, faults.NewTypedError(faults.ValidationError, "targetcli binary must not be empty", nil)
	}

	e := &Executor{binary: binary}
	if strings.TrimSpace(minVersion) != "" {
		parsed, err := semver.NewVersion(minVersion)
		if err != nil {
			return nil, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("invalid targetcli min-version %q", minVersion), err)
		}
		e.minVersion = parsed
	}
	return e, nil
}

func (e *Executor) Binary() string {
	return e.binary
}

// Run executes targetcli with args. The version gate is checked once before
// the first command.
func (e *Executor) Run(ctx context.Context, args []string) (string, error) {
	if err := e.ensureVersion(ctx); err != nil {
		return "", err
	}
	return e.run(ctx, args)
}

func (e *Executor) Version(ctx context.Context) (string, error) {
	output, err := e.run(ctx, []string{"version"})
	if err != nil {
		return "", faults.NewCommandError("", append([]string{e.binary}, "version"), output, err)
	}
	version, err := ParseVersion(output)
	if err != nil {
		return "", err
	}
	return version.String(), nil
}

// CheckVersion fails with a ValidationError when the installed targetcli is
// older than the configured minimum.
func (e *Executor) CheckVersion(ctx context.Context) error {
	if e.minVersion == nil {
		return nil
	}

	reported, err := e.Version(ctx)
	if err != nil {
		return err
	}
	installed, err := semver.NewVersion(reported)
	if err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to parse targetcli version", err)
	}
	if installed.LessThan(e.minVersion) {
		return faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("targetcli %s is older than required %s", installed, e.minVersion),
			nil,
		)
	}
	return nil
}

func (e *Executor) ensureVersion(ctx context.Context) error {
	if e.versionOK {
		return nil
	}
	if err := e.CheckVersion(ctx); err != nil {
		return err
	}
	e.versionOK = true
	return nil
}

func (e *Executor) run(ctx context.Context, args []string) (string, error) {
	logger := debugctx.Logger(ctx)
	logger.V(1).Info("running targetcli", "binary", e.binary, "args", args)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return string(output), fmt.Errorf("targetcli binary %q not found: %w", e.binary, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return string(output), ctxErr
		}
		logger.V(1).Info("targetcli failed", "args", args, "error", err.Error())
		return string(output), err
	}
	return string(output), nil
}

func ParseVersion(output string) (*semver.Version, error) {
	match := versionPattern.FindStringSubmatch(output)
	if match == nil {
		return nil, faults.NewTypedError(faults.ReadError, fmt.Sprintf("no version found in targetcli output %q", strings.TrimSpace(output)), nil)
	}
	patch := match[3]
	if patch == "" {
		patch = "0"
	}
	version, err := semver.NewVersion(match[1] + "." + match[2] + "." + patch)
	if err != nil {
		return nil, faults.NewTypedError(faults.ReadError, "failed to parse targetcli version", err)
	}
	return version, nil
}
