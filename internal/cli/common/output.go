package common

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/crmarques/lioctl/internal/cli/commandmeta"
	"github.com/crmarques/lioctl/yamlutil"
	"github.com/spf13/cobra"
)

const (
	OutputAuto = "auto"
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// ValidateOutputFormat checks --output for the command at commandPath.
// Commands that print manifests or context entries only speak yaml, since
// that is the format lioctl reads them back in.
func ValidateOutputFormat(commandPath string, format string) error {
	switch format {
	case OutputAuto, OutputText, OutputYAML:
		return nil
	case OutputJSON:
	default:
		return ValidationError(fmt.Sprintf("invalid output format %q: use auto, text, json, or yaml", format), nil)
	}

	if commandmeta.OutputPolicyForPath(commandPath) == commandmeta.OutputPolicyYAMLDefaultTextOrYAML {
		return ValidationError(
			fmt.Sprintf("%s prints yaml that lioctl reads back; use --output yaml, text, or auto", strings.TrimSpace(commandPath)),
			nil,
		)
	}
	return nil
}

// WriteOutput renders value in format. auto and text use renderText, or
// fmt.Println when renderText is nil. A nil value, such as a jq result of
// null, prints nothing.
func WriteOutput[T any](command *cobra.Command, format string, value T, renderText func(io.Writer, T) error) error {
	if any(value) == nil {
		return nil
	}

	out := command.OutOrStdout()
	switch format {
	case OutputAuto, OutputText:
		if renderText != nil {
			return renderText(out, value)
		}
		_, err := fmt.Fprintln(out, value)
		return err
	case OutputJSON:
		encoded, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(encoded))
		return err
	case OutputYAML:
		encoded, err := yamlutil.MarshalWithIndent(value, 2)
		if err != nil {
			return err
		}
		_, err = out.Write(encoded)
		return err
	default:
		return ValidationError(fmt.Sprintf("invalid output format %q: use auto, text, json, or yaml", format), nil)
	}
}

// WriteSavedPath prints the path of a file lioctl just wrote.
func WriteSavedPath(command *cobra.Command, path string) error {
	_, err := fmt.Fprintln(command.OutOrStdout(), path)
	return err
}
