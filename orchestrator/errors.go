package orchestrator

import "github.com/crmarques/lioctl/faults"

func internalError(message string) error {
	return faults.NewTypedError(faults.InternalError, message, nil)
}
