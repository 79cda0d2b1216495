package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencover/hyfd/pkg/logging"
)

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 1.0, clamp01(2))
	assert.Equal(t, 0.5, clamp01(0.5))
}

func TestModel_UpdateOnSnapshotQuitsWhenDone(t *testing.T) {
	m := NewModel(nil)
	next, cmd := m.Update(snapshotMsg(Snapshot{Iteration: 3, FDCount: 2, Done: true}))
	nm := next.(Model)
	assert.True(t, nm.quitting)
	assert.NotNil(t, cmd)
}

func TestModel_ViewRendersFinishedSummary(t *testing.T) {
	m := NewModel(nil)
	m.quitting = true
	m.snap = Snapshot{Iteration: 5, FDCount: 7}
	view := m.View()
	assert.Contains(t, view, "5 iterations")
	assert.Contains(t, view, "7 FDs")
}

func TestRunPlain_LogsUntilDoneAndReturns(t *testing.T) {
	updates := make(chan Snapshot, 2)
	updates <- Snapshot{Iteration: 1, Phase: "sample"}
	updates <- Snapshot{Iteration: 2, Phase: "validate", Done: true}
	close(updates)

	logger := logging.New(logging.Config{Mute: true})
	require.NoError(t, runPlain(updates, logger))
}

func TestWaitForSnapshot_ClosedChannelReturnsClosedMsg(t *testing.T) {
	updates := make(chan Snapshot)
	close(updates)
	cmd := waitForSnapshot(updates)
	msg := cmd()
	_, ok := msg.(closedMsg)
	assert.True(t, ok)
}

var _ tea.Model = Model{}
