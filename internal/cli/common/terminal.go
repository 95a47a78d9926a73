package common

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func IsInteractiveTerminal(command *cobra.Command) bool {
	in, ok := fileFromReader(command.InOrStdin())
	if !ok {
		return false
	}
	out, ok := fileFromWriter(command.OutOrStdout())
	if !ok {
		return false
	}

	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}

func fileFromReader(reader io.Reader) (*os.File, bool) {
	file, ok := reader.(*os.File)
	return file, ok && file != nil
}

func fileFromWriter(writer io.Writer) (*os.File, bool) {
	file, ok := writer.(*os.File)
	return file, ok && file != nil
}
