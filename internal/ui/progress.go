package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type progressMsg struct {
	percentage float64
	index      int
}

type packageNameMsg string

var (
	quitMessage         = tea.Sequence(tea.ShowCursor, tea.Quit)
	currentPkgNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("211"))
	progressFrameStyle  = lipgloss.NewStyle().Margin(1, 2)
)

type progressModel struct {
	progress    progress.Model
	total       int
	packageName string
	index       int
	done        bool
	width       int
	height      int
}

func newProgressModel(total int) progressModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return progressModel{
		progress: p,
		total:    total,
		width:    40,
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case progressMsg:
		m.index = msg.index

		if msg.percentage >= 1.0 {
			m.done = true
			return m, quitMessage
		}

		return m, m.progress.SetPercent(msg.percentage)

	case packageNameMsg:
		m.packageName = string(msg)

	case progress.FrameMsg:
		newModel, cmd := m.progress.Update(msg)
		if newModel, ok := newModel.(progress.Model); ok {
			m.progress = newModel
		}
		return m, cmd
	}

	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	var s strings.Builder
	w := lipgloss.Width(fmt.Sprintf("%d", m.total))

	if m.packageName != "" {
		s.WriteString(fmt.Sprintf("Fetching: %s\n", currentPkgNameStyle.Render(m.packageName)))
	}

	pad := strings.Repeat(" ", 2)
	pkgCount := fmt.Sprintf(" %*d/%*d", w, m.index, w, m.total)
	s.WriteString(pad + m.progress.View() + pkgCount + "\n")

	return progressFrameStyle.Render(s.String())
}

// ProgressProgram drives the progress bar while the fetch workers run.
type ProgressProgram struct {
	program *tea.Program
	done    chan struct{}
}

// ShowProgressBar starts the progress bar in its own goroutine. The returned
// handle feeds it updates and waits for it to finish.
func ShowProgressBar(total int) *ProgressProgram {
	p := &ProgressProgram{
		program: tea.NewProgram(newProgressModel(total)),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()

	return p
}

// SendPackageName shows which package is currently being resolved.
func (p *ProgressProgram) SendPackageName(name string) {
	p.program.Send(packageNameMsg(name))
}

// SendProgress advances the bar. A percentage of 1.0 ends the program.
func (p *ProgressProgram) SendProgress(percentage float64, index int) {
	p.program.Send(progressMsg{percentage: percentage, index: index})
}

// Wait blocks until the bar has rendered its final frame and quit.
func (p *ProgressProgram) Wait() {
	<-p.done
}
