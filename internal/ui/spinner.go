package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type spinnerModel struct {
	spinner  spinner.Model
	quitting bool
	message  string
}

func newSpinnerModel(message string) spinnerModel {
	return spinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		message: message,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.spinner.View() + " " + m.message
}

// RunSpinner shows a spinner with the message until done is closed.
func RunSpinner(message string, done <-chan struct{}) {
	p := tea.NewProgram(newSpinnerModel(message))
	go func() {
		<-done
		p.Quit()
	}()
	_, _ = p.Run()
}
