package ui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// NovelVerse palette: ink blue headings, sage for success, parchment grey notes
var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "24", Dark: "75"}).
			Underline(true).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "238", Dark: "250"}).
			Width(24)

	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "108"})

	noteStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("244"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))
)

// Confirm asks a yes/no question and returns the answer. Defaults to no.
func Confirm(title, description string) (bool, error) {
	var ok bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// PrintTitle prints a section heading.
func PrintTitle(title string) {
	fmt.Println(headingStyle.Render(title))
}

// PrintField prints one aligned label/value line.
func PrintField(label string, value any) {
	fmt.Println(fieldLine(label, value))
}

func fieldLine(label string, value any) string {
	return "  " + labelStyle.Render(label+":") + fmt.Sprint(value)
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Println(doneStyle.Render(msg))
}

// PrintHint prints a dimmed note.
func PrintHint(msg string) {
	fmt.Println(noteStyle.Render(msg))
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Println(failStyle.Render("Error: " + msg))
}
