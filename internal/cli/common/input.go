package common

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/crmarques/lioctl/faults"
	"github.com/spf13/cobra"
)

const (
	stdinPayload = "-"
	// One context entry is a handful of keys.
	maxContextDocumentBytes = 64 << 10

	MissingContextMessage = "context document is required: pass --payload <path|-> or pipe it on stdin"
)

// ReadContextDocument returns the context document named by --payload. With
// no --payload, or "-", it reads stdin unless stdin is a terminal.
func ReadContextDocument(command *cobra.Command, flags InputFlags) ([]byte, error) {
	source := "stdin"
	reader := command.InOrStdin()

	if flags.Payload != "" && flags.Payload != stdinPayload {
		file, err := os.Open(flags.Payload)
		if err != nil {
			return nil, openError("context document", flags.Payload, err)
		}
		defer file.Close()
		reader, source = file, flags.Payload
	} else if file, ok := fileFromReader(reader); ok {
		if info, err := file.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return nil, ValidationError(MissingContextMessage, nil)
		}
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxContextDocumentBytes+1))
	if err != nil {
		return nil, faults.NewTypedError(faults.ReadError, "failed to read context document from "+source, err)
	}
	if len(data) > maxContextDocumentBytes {
		return nil, ValidationError(
			fmt.Sprintf("context document from %s exceeds %d KiB", source, maxContextDocumentBytes>>10),
			nil,
		)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if source == "stdin" {
			return nil, ValidationError(MissingContextMessage, nil)
		}
		return nil, ValidationError(fmt.Sprintf("context document %q is empty", source), nil)
	}
	return data, nil
}
