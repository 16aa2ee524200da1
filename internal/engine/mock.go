package engine

import (
	"context"
	"sync"
	"time"

	"drivesync/internal/catalog"
)

// Mock is a test double for Engine.
type Mock struct {
	mu sync.Mutex

	status   Status
	position time.Duration
	duration time.Duration
	active   *catalog.Track

	setupCount int
	calls      []string

	setupErr  error
	playErr   error
	pauseErr  error
	resumeErr error
	seekErr   error
	failOnce  bool

	subs subscribers
}

// NewMock creates a new mock engine for testing.
func NewMock() *Mock {
	return &Mock{status: StatusNone}
}

// scriptedErr consumes a scripted error slot, clearing it when FailOnce is set.
func (m *Mock) scriptedErr(slot *error) error {
	err := *slot
	if err != nil && m.failOnce {
		*slot = nil
	}
	return err
}

func (m *Mock) Setup(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "setup")
	if err := m.scriptedErr(&m.setupErr); err != nil {
		return err
	}
	m.setupCount++
	return nil
}

func (m *Mock) LoadAndPlay(_ context.Context, track catalog.Track) error {
	m.mu.Lock()
	m.calls = append(m.calls, "play:"+track.ID)
	if err := m.scriptedErr(&m.playErr); err != nil {
		m.mu.Unlock()
		return err
	}
	prevTrack := m.active
	prev := m.status
	t := track
	m.active = &t
	m.status = StatusPlaying
	m.position = 0
	m.mu.Unlock()

	m.subs.broadcastTrack(TrackChange{Previous: prevTrack, Current: &t})
	m.subs.broadcastStatus(StatusChange{Previous: prev, Current: StatusPlaying})
	return nil
}

func (m *Mock) Pause(_ context.Context) error {
	m.mu.Lock()
	m.calls = append(m.calls, "pause")
	if err := m.scriptedErr(&m.pauseErr); err != nil {
		m.mu.Unlock()
		return err
	}
	changed := m.status == StatusPlaying
	prev := m.status
	if changed {
		m.status = StatusPaused
	}
	m.mu.Unlock()

	if changed {
		m.subs.broadcastStatus(StatusChange{Previous: prev, Current: StatusPaused})
	}
	return nil
}

func (m *Mock) Resume(_ context.Context) error {
	m.mu.Lock()
	m.calls = append(m.calls, "resume")
	if err := m.scriptedErr(&m.resumeErr); err != nil {
		m.mu.Unlock()
		return err
	}
	changed := m.status == StatusPaused
	prev := m.status
	if changed {
		m.status = StatusPlaying
	}
	m.mu.Unlock()

	if changed {
		m.subs.broadcastStatus(StatusChange{Previous: prev, Current: StatusPlaying})
	}
	return nil
}

func (m *Mock) Stop(_ context.Context) error {
	m.mu.Lock()
	m.calls = append(m.calls, "stop")
	prevTrack := m.active
	prev := m.status
	m.active = nil
	m.position = 0
	m.status = StatusStopped
	m.mu.Unlock()

	if prevTrack != nil {
		m.subs.broadcastTrack(TrackChange{Previous: prevTrack, Current: nil})
	}
	if prev != StatusStopped {
		m.subs.broadcastStatus(StatusChange{Previous: prev, Current: StatusStopped})
	}
	return nil
}

func (m *Mock) Seek(_ context.Context, pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "seek:"+pos.String())
	if err := m.scriptedErr(&m.seekErr); err != nil {
		return err
	}
	m.position = pos
	return nil
}

func (m *Mock) State() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Mock) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Progress{Position: m.position, Duration: m.duration}
}

func (m *Mock) ActiveTrack() *catalog.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	t := *m.active
	return &t
}

func (m *Mock) Subscribe() *Subscription {
	return m.subs.add()
}

func (m *Mock) Unsubscribe(sub *Subscription) {
	m.subs.remove(sub)
}

func (m *Mock) Close() error {
	m.subs.closeAll()
	return nil
}

// Test helpers

// SetActive loads a track without emitting events, to model playback that
// started before the subsystem under test attached.
func (m *Mock) SetActive(track catalog.Track, status Status, pos, dur time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := track
	m.active = &t
	m.status = status
	m.position = pos
	m.duration = dur
}

func (m *Mock) SetSetupError(err error)  { m.mu.Lock(); m.setupErr = err; m.mu.Unlock() }
func (m *Mock) SetPlayError(err error)   { m.mu.Lock(); m.playErr = err; m.mu.Unlock() }
func (m *Mock) SetPauseError(err error)  { m.mu.Lock(); m.pauseErr = err; m.mu.Unlock() }
func (m *Mock) SetResumeError(err error) { m.mu.Lock(); m.resumeErr = err; m.mu.Unlock() }
func (m *Mock) SetSeekError(err error)   { m.mu.Lock(); m.seekErr = err; m.mu.Unlock() }

// FailOnce makes scripted errors clear after their first use, so the retry
// path can be exercised.
func (m *Mock) FailOnce() { m.mu.Lock(); m.failOnce = true; m.mu.Unlock() }

// Calls returns the recorded operation log.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// ResetCalls clears the recorded operation log.
func (m *Mock) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// SetupCount returns how many Setup calls succeeded.
func (m *Mock) SetupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setupCount
}

// EmitProgress broadcasts a progress event and records the position.
func (m *Mock) EmitProgress(pos, dur time.Duration) {
	m.mu.Lock()
	m.position = pos
	m.duration = dur
	m.mu.Unlock()
	m.subs.broadcastProgress(ProgressChange{Position: pos, Duration: dur})
}

// EmitError broadcasts an engine error event.
func (m *Mock) EmitError(op string, err error) {
	m.subs.broadcastError(ErrorEvent{Operation: op, Err: err})
}

// Verify Mock implements Engine at compile time.
var _ Engine = (*Mock)(nil)
