package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/devbump/bumpall/internal/constants"
	"github.com/devbump/bumpall/internal/dependency"
	"github.com/devbump/bumpall/internal/semver"
	"github.com/devbump/bumpall/internal/styles"
)

type selectorModel struct {
	dependencies              dependency.Dependencies
	selected                  map[int]struct{}
	showVersionsForDependency *dependency.Dependency
	quitting                  bool
	done                      bool
	dependencyTable           table.Model
	versionsTable             table.Model
}

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("#63B0B8"))

func (m selectorModel) Init() tea.Cmd {
	return nil
}

func (m selectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.dependencyTable.Focused() {
				m.dependencyTable.Blur()
			} else {
				m.dependencyTable.Focus()
			}
		case "ctrl+a":
			if m.dependencyTable.Focused() {
				for i := range m.dependencies {
					m.selected[i] = struct{}{}
				}
			}
		case "ctrl+u":
			if m.dependencyTable.Focused() {
				for i := range m.dependencies {
					delete(m.selected, i)
				}
			}
		case "ctrl+d":
			if m.dependencyTable.Focused() {
				for i, dep := range m.dependencies {
					if dep.Env == constants.DevDependencies {
						m.selected[i] = struct{}{}
					}
				}
			}
		case "ctrl+p":
			if m.dependencyTable.Focused() {
				for i, dep := range m.dependencies {
					if dep.Env == constants.Dependencies {
						m.selected[i] = struct{}{}
					}
				}
			}
		case "q", "ctrl+c":
			m.quitting = true
			m.selected = make(map[int]struct{})
			return m, tea.Sequence(
				tea.ClearScreen,
				tea.Quit,
			)
		case "enter":
			if m.showVersionsForDependency != nil {
				return m, nil
			}

			m.done = true
			return m, tea.Sequence(
				tea.ClearScreen,
				tea.Quit,
			)
		case "right", "l":
			if m.dependencyTable.Focused() {
				cursor := m.dependencyTable.Cursor()
				m.showVersionsForDependency = m.dependencies[cursor]

				var rows []table.Row
				for _, v := range m.showVersionsForDependency.Versions {
					rows = append(rows, table.Row{m.showVersionsForDependency.PackageName, v})
				}
				m.versionsTable.SetRows(rows)

				m.versionsTable.Focus()
				m.dependencyTable.Blur()
			}
			return m, nil

		case "left", "h":
			if m.versionsTable.Focused() {
				m.showVersionsForDependency = nil
				m.dependencyTable.Focus()
				m.versionsTable.Blur()
			}
			return m, nil

		case " ":
			if m.showVersionsForDependency != nil {
				cursorDep := m.dependencyTable.Cursor()
				cursor := m.versionsTable.Cursor()

				picked := semver.NewSemver(m.showVersionsForDependency.Versions[cursor])
				picked.SetPrefix(m.dependencies[cursorDep].CurrentVersion.Prefix())
				m.dependencies[cursorDep].NextVersion = picked

				m.showVersionsForDependency = nil
				m.dependencyTable.Focus()
				m.versionsTable.Blur()

				return m, nil
			}
			if m.dependencyTable.Focused() {
				cursor := m.dependencyTable.Cursor()
				if _, ok := m.selected[cursor]; ok {
					delete(m.selected, cursor)
				} else {
					m.selected[cursor] = struct{}{}
				}
			}
			return m, nil
		}
	}

	if m.versionsTable.Focused() {
		m.versionsTable, cmd = m.versionsTable.Update(msg)
	} else {
		m.dependencyTable, cmd = m.dependencyTable.Update(msg)
	}

	return m, cmd
}

func (m selectorModel) View() string {
	if m.quitting || m.done {
		return ""
	}

	var s strings.Builder

	if m.showVersionsForDependency != nil {
		s.WriteString(baseStyle.Render(m.versionsTable.View()) + "\n\n")
		s.WriteString(lipgloss.NewStyle().MarginLeft(2).Render("←/h: back • ↑/↓: navigate • space: pick version\n"))
		return s.String()
	}

	var rows []table.Row
	for i, dep := range m.dependencies {
		var selected string
		if _, ok := m.selected[i]; ok {
			selected = "✔"
		} else {
			selected = " "
		}

		next := ""
		if dep.NextVersion != nil {
			next = styles.LevelStyle(dep.UpgradeLevel()).Render(dep.NextVersion.String())
		}

		rows = append(rows, table.Row{
			selected,
			dep.PackageName,
			dep.CurrentVersion.StringWithPrefix(),
			next,
			dep.UpgradeLevel().String(),
			dep.Env.ToEnv(),
		})
	}

	m.dependencyTable.SetRows(rows)

	s.WriteString(baseStyle.Render(m.dependencyTable.View()) + "\n\n")
	s.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(
		"↑/↓: navigate • space: select • enter: confirm • →/l: versions • ctrl+a: all • ctrl+p: prod only • ctrl+d: dev only • ctrl+u: none • q: quit\n",
	))

	return s.String()
}

// SelectDependencies shows the interactive table and marks the picked
// dependencies with HaveToUpdate. Quitting with q or ctrl+c aborts the run.
func SelectDependencies(deps dependency.Dependencies) (dependency.Dependencies, error) {
	dependencyTableColumns := []table.Column{
		{Title: "", Width: 2},
		{Title: "Dependency", Width: 30},
		{Title: "Current", Width: 14},
		{Title: "New", Width: 14},
		{Title: "Upgrade", Width: 10},
		{Title: "Section", Width: 18},
	}

	versionsTableColumns := []table.Column{
		{Title: "Dependency", Width: 30},
		{Title: "Version", Width: 15},
	}

	dependencyTable := table.New(
		table.WithColumns(dependencyTableColumns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	versionsTable := table.New(
		table.WithColumns(versionsTableColumns),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	defaultTableStyles := table.DefaultStyles()
	defaultTableStyles.Header = defaultTableStyles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#63B0B8")).
		BorderBottom(true).
		Bold(true)
	defaultTableStyles.Selected = defaultTableStyles.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Background(lipgloss.Color("#FF75B7")).
		Bold(true)
	dependencyTable.SetStyles(defaultTableStyles)
	versionsTable.SetStyles(defaultTableStyles)

	initialModel := selectorModel{
		dependencies:    deps,
		selected:        make(map[int]struct{}),
		dependencyTable: dependencyTable,
		versionsTable:   versionsTable,
	}

	p := tea.NewProgram(initialModel)
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("error running selection: %w", err)
	}

	m := finalModel.(selectorModel)
	if m.quitting {
		return nil, fmt.Errorf("selection cancelled by user")
	}

	for i := range m.selected {
		deps[i].HaveToUpdate = true
	}

	return deps, nil
}
