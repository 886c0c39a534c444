package sweeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestManager() *Manager {
	s := NewSweeper(&fakeIndex{}, &fakeProvider{}, DefaultGraceWindow)
	return NewManager(s)
}

func TestManagerStartStop(t *testing.T) {
	m := newTestManager()

	assert.False(t, m.IsRunning())

	m.Start()
	assert.True(t, m.IsRunning())

	// Starting twice is a no-op.
	m.Start()
	assert.True(t, m.IsRunning())

	m.Stop()
	assert.False(t, m.IsRunning())

	// Stopping twice is a no-op.
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestManagerRestart(t *testing.T) {
	m := newTestManager()

	m.Start()
	m.Stop()

	m.Start()
	assert.True(t, m.IsRunning())
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestNewManagerInterval(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL_MINUTES", "15")
	m := newTestManager()
	assert.Equal(t, 15*time.Minute, m.interval)

	t.Setenv("SWEEP_INTERVAL_MINUTES", "not-a-number")
	m = newTestManager()
	assert.Equal(t, 5*time.Minute, m.interval)
}
