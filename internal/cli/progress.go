package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/textlens/internal/client"
	"github.com/raphaelgruber/textlens/internal/service"
)

const pollInterval = time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the batch status
type tickMsg time.Time

// batchUpdateMsg carries the updated batch snapshot
type batchUpdateMsg struct {
	snap *service.BatchSnapshot
	err  error
}

// progressModel is the bubbletea model for batch progress.
type progressModel struct {
	client   *client.Client
	batchID  string
	snap     *service.BatchSnapshot
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model.
func newProgressModel(c *client.Client, batchID string) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		client:   c,
		batchID:  batchID,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchBatch(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.fetchBatch()

	case batchUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch batch status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.snap = msg.snap
		if m.snap.Status == service.BatchStatusCompleted {
			m.done = true
			return m, tea.Quit
		}

		// Keep polling while the batch is processing.
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if m.snap == nil {
		return "Loading batch status...\n"
	}

	processed := m.snap.SuccessCount + m.snap.FailureCount
	var pct float64
	if m.snap.Total > 0 {
		pct = float64(processed) / float64(m.snap.Total)
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.snap.Status))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d texts", processed, m.snap.Total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nBatch %s continues in background.\nUse 'textlens batch status %s' to check progress.\n",
			m.batchID, m.batchID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Watch failed: %s\n", m.err))
	}

	if m.snap != nil {
		var output string
		output += m.theme.completedStyle().Render("✓ Completed") + "\n\n"
		output += fmt.Sprintf("  Texts analyzed: %d\n", m.snap.SuccessCount)
		if m.snap.FailureCount > 0 {
			output += m.theme.errorStyle().Render(fmt.Sprintf("\nFailures (%d):\n", m.snap.FailureCount))
			for _, failure := range m.snap.Failed {
				output += fmt.Sprintf("  • %s\n", failure)
			}
		}
		return output
	}

	return m.theme.completedStyle().Render("✓ Completed\n")
}

// fetchBatch fetches the current batch status from the server.
// Runs in a separate goroutine (command) to avoid blocking Update().
func (m progressModel) fetchBatch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		snap, err := m.client.BatchStatus(ctx, m.batchID)
		return batchUpdateMsg{snap: snap, err: err}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunBatchProgress runs the interactive progress UI for a batch.
// Returns nil on completion or Ctrl+C (background).
func RunBatchProgress(c *client.Client, batchID string) error {
	model := newProgressModel(c, batchID)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
		if m.snap != nil {
			// Print the summary after the UI exits so it stays in the
			// scrollback.
			printBatch(m.snap)
		}
	}

	return nil
}
