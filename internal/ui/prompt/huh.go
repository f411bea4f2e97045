package prompt

import (
	"context"

	"github.com/charmbracelet/huh"
)

// Huh renders prompts as interactive huh forms.
type Huh struct{}

func (h *Huh) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	answer := defaultYes
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&answer),
		),
	).RunWithContext(ctx)
	if err != nil {
		return false, err
	}
	return answer, nil
}

func (h *Huh) Input(ctx context.Context, title, placeholder string) (string, error) {
	var value string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder(placeholder).
				Value(&value),
		),
	).RunWithContext(ctx)
	if err != nil {
		return "", err
	}
	return value, nil
}
