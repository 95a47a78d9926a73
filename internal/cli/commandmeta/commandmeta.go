package commandmeta

import "strings"

type OutputPolicy uint8

const (
	OutputPolicyStructured OutputPolicy = iota
	OutputPolicyYAMLDefaultTextOrYAML
)

// EmitsExecutionStatusPath reports whether a command prints the trailing
// [OK]/[ERROR] line.
func EmitsExecutionStatusPath(path string) bool {
	switch strings.TrimSpace(path) {
	case "lioctl apply",
		"lioctl config use":
		return true
	default:
		return false
	}
}

func OutputPolicyForPath(path string) OutputPolicy {
	switch strings.TrimSpace(path) {
	case "lioctl config show",
		"lioctl snapshot export":
		return OutputPolicyYAMLDefaultTextOrYAML
	default:
		return OutputPolicyStructured
	}
}
