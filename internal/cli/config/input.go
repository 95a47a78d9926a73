package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	configdomain "github.com/crmarques/lioctl/config"
	"github.com/crmarques/lioctl/internal/cli/common"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

func decodeContextStrict(command *cobra.Command, flags common.InputFlags) (configdomain.Context, error) {
	data, err := common.ReadContextDocument(command, flags)
	if err != nil {
		return configdomain.Context{}, err
	}
	return decodeContextDocument(data, flags.Format)
}

// decodeContextDocument decodes exactly one context entry. Keys use the
// catalog spelling (stop-on-error, base-dir) in both formats and unknown keys
// are rejected.
func decodeContextDocument(data []byte, format string) (configdomain.Context, error) {
	var cfg configdomain.Context

	switch format {
	case common.OutputJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return configdomain.Context{}, common.ValidationError("invalid json context document", err)
		}
		if decoder.More() {
			return configdomain.Context{}, common.ValidationError("json context document must hold a single context", nil)
		}
	case "", common.OutputYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return configdomain.Context{}, common.ValidationError("invalid yaml context document", err)
		}
		var next yaml.Node
		if err := decoder.Decode(&next); !errors.Is(err, io.EOF) {
			return configdomain.Context{}, common.ValidationError("yaml context document must hold a single context", err)
		}
	default:
		return configdomain.Context{}, common.ValidationError("invalid input format: use json or yaml", nil)
	}

	return cfg, nil
}
