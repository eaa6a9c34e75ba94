package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	reportHeaderStyle = lipgloss.NewStyle().Bold(true)
	reportFooterStyle = lipgloss.NewStyle().Faint(true)
	reportErrStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
)

// reportViewModel is a scrollable read-only viewer over the report rows.
type reportViewModel struct {
	data       reportData
	scrollY    int
	termWidth  int
	termHeight int
}

func runReportViewer(data reportData) error {
	_, err := tea.NewProgram(reportViewModel{data: data}, tea.WithAltScreen()).Run()
	return err
}

func (m reportViewModel) Init() tea.Cmd { return nil }

// visibleRows is the number of data rows that fit between header and footer.
func (m reportViewModel) visibleRows() int {
	rows := m.termHeight - 4
	if rows < 1 {
		return 1
	}
	return rows
}

func (m reportViewModel) maxScroll() int {
	max := len(m.data.Rows) - m.visibleRows()
	if max < 0 {
		return 0
	}
	return max
}

func (m reportViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.scrollY > 0 {
				m.scrollY--
			}
		case "down", "j":
			if m.scrollY < m.maxScroll() {
				m.scrollY++
			}
		case "pgup":
			m.scrollY -= m.visibleRows()
			if m.scrollY < 0 {
				m.scrollY = 0
			}
		case "pgdown":
			m.scrollY += m.visibleRows()
			if m.scrollY > m.maxScroll() {
				m.scrollY = m.maxScroll()
			}
		case "home", "g":
			m.scrollY = 0
		case "end", "G":
			m.scrollY = m.maxScroll()
		}
	}
	return m, nil
}

func (m reportViewModel) View() string {
	var b strings.Builder

	header := fmt.Sprintf("Date resolutions (reference %s)", m.data.ReferenceDate.Format("2006-01-02"))
	b.WriteString(reportHeaderStyle.Render(header))
	b.WriteString("\n\n")

	end := m.scrollY + m.visibleRows()
	if end > len(m.data.Rows) {
		end = len(m.data.Rows)
	}
	for _, row := range m.data.Rows[m.scrollY:end] {
		outcome := row.Resolution
		if row.Err != "" {
			outcome = reportErrStyle.Render("error: " + row.Err)
		}
		b.WriteString(fmt.Sprintf("%-*s  %s\n", reportQueryColWidth, truncateQuery(row.Query), outcome))
	}

	footer := fmt.Sprintf("%d/%d  ↑/↓ scroll  q quit", end, len(m.data.Rows))
	b.WriteString("\n")
	b.WriteString(reportFooterStyle.Render(footer))
	return b.String()
}
