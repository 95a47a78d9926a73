package common

import (
	"errors"
	"fmt"
	"os"

	"github.com/crmarques/lioctl/faults"
)

func ValidationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

// openError maps a failed os.Open of a user supplied file to NotFoundError
// or ReadError.
func openError(what string, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return faults.NewTypedError(faults.NotFoundError, fmt.Sprintf("%s %q does not exist", what, path), err)
	}
	return faults.NewTypedError(faults.ReadError, fmt.Sprintf("failed to open %s %q", what, path), err)
}
