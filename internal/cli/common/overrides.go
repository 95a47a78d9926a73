package common

import (
	"fmt"
	"maps"
	"strings"

	"github.com/crmarques/lioctl/config"
)

// ParseOverrides turns repeated key=value flags into a map. A later value for
// the same key wins.
func ParseOverrides(values []string) (map[string]string, error) {
	overrides := make(map[string]string, len(values))
	for _, raw := range values {
		key, value, found := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, ValidationError(fmt.Sprintf("invalid override %q: expected key=value", raw), nil)
		}
		overrides[key] = strings.TrimSpace(value)
	}
	return overrides, nil
}

func ContextSelection(globalFlags *GlobalFlags, extra map[string]string) (config.ContextSelection, error) {
	selection := config.ContextSelection{}
	var setValues []string
	if globalFlags != nil {
		selection.Name = strings.TrimSpace(globalFlags.Context)
		setValues = globalFlags.Set
	}

	overrides, err := ParseOverrides(setValues)
	if err != nil {
		return config.ContextSelection{}, err
	}
	maps.Copy(overrides, extra)
	if len(overrides) > 0 {
		selection.Overrides = overrides
	}
	return selection, nil
}
