// Package tui renders a live progress view of a discovery run, shown when
// stdout is a TTY and --no-tui is not passed (SPEC_FULL.md §4.1). Modeled
// on the teacher's services/code_buddy/tui bubbletea program: a single
// read-only Model driven by snapshots published from the engine's
// goroutine, never touching engine-owned state directly.
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/opencover/hyfd/pkg/logging"
)

// Snapshot is one point-in-time view of the discovery loop; cmd/hyfd
// sends one after every iteration, from engine.Hooks.OnIteration.
type Snapshot struct {
	Iteration           int
	Phase               string
	EfficiencyQueueLen  int
	BestEfficiency      float64
	EfficiencyThreshold float64
	EfficiencyLimit     float64
	FDCount             int
	NonFDTrieSize       int
	ValidationLevel     int
	Done                bool
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Faint(true)
)

type snapshotMsg Snapshot
type closedMsg struct{}

// Model is the bubbletea program's state.
type Model struct {
	spinner  spinner.Model
	progress progress.Model
	updates  <-chan Snapshot
	snap     Snapshot
	quitting bool
}

// NewModel builds a Model reading snapshots off updates until it's closed.
func NewModel(updates <-chan Snapshot) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	p := progress.New(progress.WithDefaultGradient())
	return Model{spinner: s, progress: p, updates: updates}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.updates))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
	case snapshotMsg:
		m.snap = Snapshot(msg)
		if m.snap.Done {
			m.quitting = true
			return m, tea.Quit
		}
		return m, waitForSnapshot(m.updates)
	case closedMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return fmt.Sprintf("discovery finished after %d iterations, %d FDs found\n", m.snap.Iteration, m.snap.FDCount)
	}

	ratio := 0.0
	if m.snap.EfficiencyThreshold > 0 {
		ratio = 1 - (m.snap.BestEfficiency-m.snap.EfficiencyLimit)/(m.snap.EfficiencyThreshold-m.snap.EfficiencyLimit)
	}
	ratio = clamp01(ratio)

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(headerStyle.Render(fmt.Sprintf("hyfd — iteration %d (%s)", m.snap.Iteration, m.snap.Phase)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("efficiency queue "))
	fmt.Fprintf(&b, "%d  ", m.snap.EfficiencyQueueLen)
	b.WriteString(m.progress.ViewAs(ratio))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d    %s %d    %s %d\n",
		labelStyle.Render("fds"), m.snap.FDCount,
		labelStyle.Render("non-fds"), m.snap.NonFDTrieSize,
		labelStyle.Render("level"), m.snap.ValidationLevel)
	return b.String()
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func waitForSnapshot(updates <-chan Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// IsTTY reports whether stdout is attached to a terminal, the condition
// under which Run shows the interactive program instead of falling back
// to plain log lines.
func IsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// Run drives either the interactive bubbletea program or a plain-log
// fallback, depending on whether stdout is a TTY. It returns once updates
// is closed or the user quits.
func Run(updates <-chan Snapshot, noTUI bool, logger *logging.Logger) error {
	if noTUI || !IsTTY() {
		return runPlain(updates, logger)
	}
	p := tea.NewProgram(NewModel(updates))
	_, err := p.Run()
	return err
}

func runPlain(updates <-chan Snapshot, logger *logging.Logger) error {
	for snap := range updates {
		logger.Info("progress",
			"iteration", snap.Iteration,
			"phase", snap.Phase,
			"efficiency_queue", snap.EfficiencyQueueLen,
			"fds_found", snap.FDCount,
			"non_fds", snap.NonFDTrieSize,
			"validation_level", snap.ValidationLevel,
		)
		if snap.Done {
			break
		}
	}
	return nil
}
