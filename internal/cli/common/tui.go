package common

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func PromptConfirm(command *cobra.Command, prompt string, defaultYes bool) (bool, error) {
	if !IsInteractiveTerminal(command) {
		return false, ValidationError("interactive terminal is required", nil)
	}

	value := defaultYes
	field := huh.NewConfirm().
		Title(normalizePrompt(prompt)).
		Value(&value)

	if err := runInteractiveField(command, field); err != nil {
		return false, err
	}
	return value, nil
}

// Confirm asks for confirmation unless assumeYes is set. Without an
// interactive terminal it fails and names the flag to pass.
func Confirm(command *cobra.Command, prompt string, assumeYes bool) error {
	if assumeYes {
		return nil
	}
	if !IsInteractiveTerminal(command) {
		return ValidationError("confirmation required: rerun with --yes", nil)
	}

	confirmed, err := PromptConfirm(command, prompt, false)
	if err != nil {
		return err
	}
	if !confirmed {
		return ValidationError("aborted by user", nil)
	}
	return nil
}

func runInteractiveField(command *cobra.Command, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(command.InOrStdin()).
		WithOutput(command.OutOrStdout()).
		WithShowHelp(false)

	err := form.Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ValidationError("interactive prompt interrupted", nil)
	}
	return err
}

func normalizePrompt(prompt string) string {
	title := strings.TrimSpace(prompt)
	title = strings.TrimSuffix(title, ":")
	if title == "" {
		return "Input"
	}
	return title
}
