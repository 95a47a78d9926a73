package yamlutil

import (
	"bytes"

	"go.yaml.in/yaml/v3"
)

// MarshalWithIndent encodes v as a single YAML document using indent spaces
// per nesting level.
func MarshalWithIndent(v any, indent int) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(indent)
	if err := encoder.Encode(v); err != nil {
		_ = encoder.Close()
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
