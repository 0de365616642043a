package idle

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the monitor deterministically.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers in order. Callbacks run
// without the clock lock held so they can arm new timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.stopped = true
		c.now = next.at
		c.mu.Unlock()

		next.fn()
	}
}

// recordingReporter captures reported sessions.
type recordingReporter struct {
	mu       sync.Mutex
	sessions []Session
	err      error
}

func (r *recordingReporter) Report(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *recordingReporter) all() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Session, len(r.sessions))
	copy(out, r.sessions)
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func testConfig() Config {
	return Config{
		IdleAfter: 60 * time.Minute,
		WarnAfter: 5 * time.Minute,
		Countdown: 10 * time.Minute,
	}
}

func TestMonitor_ActiveToIdleAfterExactlyIdleAfter(t *testing.T) {
	clock := newFakeClock()
	m := NewMonitor("w1", testConfig(), clock, nil, Callbacks{})
	m.Start()

	clock.Advance(59 * time.Minute)
	assert.Equal(t, StateActive, m.State())

	clock.Advance(1 * time.Minute)
	assert.Equal(t, StateIdle, m.State())
}

func TestMonitor_InputResetsElapsedTime(t *testing.T) {
	clock := newFakeClock()
	m := NewMonitor("w1", testConfig(), clock, nil, Callbacks{})
	m.Start()

	clock.Advance(59 * time.Minute)
	m.Input()
	clock.Advance(59 * time.Minute)
	assert.Equal(t, StateActive, m.State())

	clock.Advance(1 * time.Minute)
	assert.Equal(t, StateIdle, m.State())
}

func TestMonitor_IdleToWarningToAutoLogout(t *testing.T) {
	clock := newFakeClock()
	reporter := &recordingReporter{}
	logouts := 0
	m := NewMonitor("w1", testConfig(), clock, reporter, Callbacks{
		OnLogout: func() { logouts++ },
	})
	m.Start()

	clock.Advance(60 * time.Minute)
	assert.Equal(t, StateIdle, m.State())

	clock.Advance(5 * time.Minute)
	assert.Equal(t, StateWarning, m.State())
	assert.Equal(t, 600, m.Remaining())

	// Run the countdown to zero, plus slack that must not fire anything else.
	clock.Advance(10 * time.Minute)
	clock.Advance(30 * time.Minute)
	m.waitReports()

	assert.Equal(t, StateLoggedOut, m.State())
	assert.Equal(t, 1, logouts)

	sessions := reporter.all()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].AutoLogout)
	assert.True(t, sessions[0].WasWarned)
	assert.Equal(t, "auto_logout", sessions[0].Reason)
	assert.Equal(t, 75*time.Minute, sessions[0].EndTime.Sub(sessions[0].StartTime))
}

func TestMonitor_InputDuringWarningReportsActivityResumed(t *testing.T) {
	clock := newFakeClock()
	reporter := &recordingReporter{}
	m := NewMonitor("w1", testConfig(), clock, reporter, Callbacks{})
	m.Start()

	clock.Advance(66 * time.Minute) // idle at 60, warning at 65
	require.Equal(t, StateWarning, m.State())

	m.Input()
	m.waitReports()

	assert.Equal(t, StateActive, m.State())
	sessions := reporter.all()
	require.Len(t, sessions, 1)
	assert.Equal(t, "activity_resumed", sessions[0].Reason)
	assert.True(t, sessions[0].WasWarned)
	assert.False(t, sessions[0].AutoLogout)
	assert.Equal(t, 66*time.Minute, sessions[0].EndTime.Sub(sessions[0].StartTime))

	// The countdown timer must be dead: no logout later.
	clock.Advance(2 * time.Hour)
	assert.NotEqual(t, StateLoggedOut, m.State())
}

func TestMonitor_ConfirmWorkingRestartsIdleTimer(t *testing.T) {
	clock := newFakeClock()
	reporter := &recordingReporter{}
	m := NewMonitor("w1", testConfig(), clock, reporter, Callbacks{})
	m.Start()

	clock.Advance(65 * time.Minute)
	require.Equal(t, StateWarning, m.State())

	m.ConfirmWorking()
	m.waitReports()

	assert.Equal(t, StateActive, m.State())
	sessions := reporter.all()
	require.Len(t, sessions, 1)
	assert.Equal(t, "user_confirmed_working", sessions[0].Reason)
	assert.True(t, sessions[0].WasWarned)

	// Idle timer restarted from the confirmation.
	clock.Advance(60 * time.Minute)
	assert.Equal(t, StateIdle, m.State())
}

func TestMonitor_TakeBreakStopsTimersUntilNextInput(t *testing.T) {
	clock := newFakeClock()
	reporter := &recordingReporter{}
	m := NewMonitor("w1", testConfig(), clock, reporter, Callbacks{})
	m.Start()

	clock.Advance(61 * time.Minute)
	require.Equal(t, StateIdle, m.State())

	m.TakeBreak()
	m.waitReports()
	assert.Equal(t, StateBreak, m.State())

	sessions := reporter.all()
	require.Len(t, sessions, 1)
	assert.Equal(t, "intentional_break", sessions[0].Reason)

	// Unlike a normal reset, nothing fires while on break.
	clock.Advance(5 * time.Hour)
	assert.Equal(t, StateBreak, m.State())

	// Next input restarts the idle timer without another report.
	m.Input()
	assert.Equal(t, StateActive, m.State())
	m.waitReports()
	assert.Len(t, reporter.all(), 1)

	clock.Advance(60 * time.Minute)
	assert.Equal(t, StateIdle, m.State())
}

func TestMonitor_CountdownTicksEverySecond(t *testing.T) {
	clock := newFakeClock()
	var ticks []int
	m := NewMonitor("w1", testConfig(), clock, nil, Callbacks{
		OnCountdownTick: func(remaining int) { ticks = append(ticks, remaining) },
	})
	m.Start()

	clock.Advance(65 * time.Minute)
	require.Equal(t, StateWarning, m.State())

	clock.Advance(3 * time.Second)
	assert.Equal(t, []int{599, 598, 597}, ticks)
	assert.Equal(t, 597, m.Remaining())
}

func TestMonitor_ReporterFailureNeverBlocksTransitions(t *testing.T) {
	clock := newFakeClock()
	reporter := &recordingReporter{err: context.DeadlineExceeded}
	m := NewMonitor("w1", testConfig(), clock, reporter, Callbacks{})
	m.Start()

	clock.Advance(61 * time.Minute)
	m.Input()
	m.waitReports()

	// Report failed, state machine moved on regardless.
	assert.Equal(t, StateActive, m.State())
}

func TestMonitor_StopCancelsPendingTimers(t *testing.T) {
	clock := newFakeClock()
	m := NewMonitor("w1", testConfig(), clock, nil, Callbacks{})
	m.Start()
	m.Stop()

	clock.Advance(24 * time.Hour)
	assert.Equal(t, StateActive, m.State())
}
