package idle

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State of the inactivity machine.
type State string

const (
	StateActive    State = "active"
	StateIdle      State = "idle"
	StateWarning   State = "warning"
	StateBreak     State = "break"
	StateLoggedOut State = "logged_out"
)

// Session is a completed inactivity interval handed to the Reporter.
type Session struct {
	WorkerID   string
	StartTime  time.Time
	EndTime    time.Time
	Reason     string
	WasWarned  bool
	AutoLogout bool
}

// Reporter delivers completed sessions to the aggregator. Calls are
// fire-and-forget: errors are logged, never retried, and never influence
// the state machine.
type Reporter interface {
	Report(ctx context.Context, session Session) error
}

// Config holds the inactivity thresholds.
type Config struct {
	IdleAfter time.Duration // no input for this long: Active -> Idle
	WarnAfter time.Duration // further inactivity: Idle -> Warning
	Countdown time.Duration // Warning countdown until AutoLogout
}

// Callbacks are optional host hooks. They run with the monitor's internal
// lock held and must not call back into the monitor.
type Callbacks struct {
	OnStateChange   func(State)
	OnCountdownTick func(remainingSeconds int)
	OnLogout        func()
}

// Session reasons reported to the aggregator.
const (
	reasonActivityResumed = "activity_resumed"
	reasonConfirmed       = "user_confirmed_working"
	reasonBreak           = "intentional_break"
	reasonAutoLogout      = "auto_logout"
)

// Monitor is the cooperative inactivity state machine:
// Active -> Idle -> Warning -> [AutoLogout | Active], with an explicit Break
// state that keeps every timer disarmed until the next input event. All
// transitions stop the pending timer and bump a generation counter first, so
// a callback from a cancelled timer can never fire into a newer state.
type Monitor struct {
	cfg      Config
	clock    Clock
	reporter Reporter
	cb       Callbacks
	workerID string

	mu           sync.Mutex
	state        State
	gen          uint64
	timer        Timer
	lastActivity time.Time
	remaining    int // countdown seconds left while in Warning

	reports sync.WaitGroup
}

func NewMonitor(workerID string, cfg Config, clock Clock, reporter Reporter, cb Callbacks) *Monitor {
	if clock == nil {
		clock = NewRealClock()
	}
	return &Monitor{
		cfg:      cfg,
		clock:    clock,
		reporter: reporter,
		cb:       cb,
		workerID: workerID,
		state:    StateActive,
	}
}

// Start arms the idle timer. The monitor begins in Active.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = m.clock.Now()
	m.armLocked(m.cfg.IdleAfter, m.onIdleTimeout)
}

// Stop tears the machine down. No timer fires after Stop returns.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.stopTimerLocked()
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Remaining returns the countdown seconds left; zero outside Warning.
func (m *Monitor) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateWarning {
		return 0
	}
	return m.remaining
}

// Input is a qualifying user input event. In Idle or Warning it reports the
// elapsed interval and returns to Active; in Break it rearms the idle timer
// without reporting; in Active it just resets the elapsed time.
func (m *Monitor) Input() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	switch m.state {
	case StateActive:
		m.lastActivity = now
		m.armLocked(m.cfg.IdleAfter, m.onIdleTimeout)
	case StateIdle, StateWarning:
		m.reportLocked(now, reasonActivityResumed, m.state == StateWarning, false)
		m.toActiveLocked(now)
	case StateBreak:
		// The break interval was already reported when it began.
		m.toActiveLocked(now)
	case StateLoggedOut:
		// Terminal; the host re-creates the monitor after a new login.
	}
}

// ConfirmWorking is the "I'm still here" action on the warning dialog.
func (m *Monitor) ConfirmWorking() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle && m.state != StateWarning {
		return
	}
	now := m.clock.Now()
	m.reportLocked(now, reasonConfirmed, true, false)
	m.toActiveLocked(now)
}

// TakeBreak reports the elapsed interval as an intentional break and stops
// the timer entirely; nothing is armed again until the next Input.
func (m *Monitor) TakeBreak() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateLoggedOut || m.state == StateBreak {
		return
	}
	now := m.clock.Now()
	m.reportLocked(now, reasonBreak, m.state == StateWarning, false)
	m.gen++
	m.stopTimerLocked()
	m.lastActivity = now
	m.setStateLocked(StateBreak)
}

func (m *Monitor) onIdleTimeout(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.state != StateActive {
		return
	}
	m.setStateLocked(StateIdle)
	m.armLocked(m.cfg.WarnAfter, m.onWarnTimeout)
}

func (m *Monitor) onWarnTimeout(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.state != StateIdle {
		return
	}
	m.setStateLocked(StateWarning)
	m.remaining = int(m.cfg.Countdown / time.Second)
	m.armLocked(time.Second, m.onCountdownTick)
}

func (m *Monitor) onCountdownTick(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.state != StateWarning {
		return
	}

	m.remaining--
	if m.cb.OnCountdownTick != nil {
		m.cb.OnCountdownTick(m.remaining)
	}

	if m.remaining > 0 {
		m.armLocked(time.Second, m.onCountdownTick)
		return
	}

	// Countdown exhausted: exactly one auto-logout.
	now := m.clock.Now()
	m.reportLocked(now, reasonAutoLogout, true, true)
	m.gen++
	m.stopTimerLocked()
	m.setStateLocked(StateLoggedOut)
	if m.cb.OnLogout != nil {
		m.cb.OnLogout()
	}
}

// toActiveLocked returns to Active and restarts the idle timer.
func (m *Monitor) toActiveLocked(now time.Time) {
	m.lastActivity = now
	m.remaining = 0
	m.setStateLocked(StateActive)
	m.armLocked(m.cfg.IdleAfter, m.onIdleTimeout)
}

func (m *Monitor) setStateLocked(s State) {
	m.state = s
	if m.cb.OnStateChange != nil {
		m.cb.OnStateChange(s)
	}
}

// armLocked replaces the pending timer. The generation captured here lets
// the callback detect it was superseded.
func (m *Monitor) armLocked(d time.Duration, fn func(gen uint64)) {
	m.gen++
	m.stopTimerLocked()
	gen := m.gen
	m.timer = m.clock.AfterFunc(d, func() { fn(gen) })
}

func (m *Monitor) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// reportLocked ships the elapsed inactivity interval on a goroutine. A
// failure is logged and dropped; the state machine never waits on it.
func (m *Monitor) reportLocked(end time.Time, reason string, wasWarned, autoLogout bool) {
	if m.reporter == nil {
		return
	}
	session := Session{
		WorkerID:   m.workerID,
		StartTime:  m.lastActivity,
		EndTime:    end,
		Reason:     reason,
		WasWarned:  wasWarned,
		AutoLogout: autoLogout,
	}
	m.reports.Add(1)
	go func() {
		defer m.reports.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.reporter.Report(ctx, session); err != nil {
			slog.Error("idle session report dropped",
				"worker_id", session.WorkerID,
				"reason", session.Reason,
				"error", err)
		}
	}()
}

// waitReports blocks until in-flight reports finish. Test helper.
func (m *Monitor) waitReports() {
	m.reports.Wait()
}
