// Package session implements the SessionManager (component I, §4.4 of the
// spec): the per-universe play/interrupt/resume state machine. A single
// mutex guards the state map, grounded on the single-mutex, map-of-per-key
// state pattern in
// _examples/arung-agamani-denpa-radio/internal/auth/auth.go's rateLimiter
// (one mutex, one map, O(1) per-key operations under the lock).
package session

import (
	"sync"

	"github.com/chirpworks/creature-core/internal/playback"
)

// State is the derived per-universe state exposed to callers (§4.4).
type State int

const (
	StateNone State = iota
	StateActive
	StateInterrupted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateInterrupted:
		return "interrupted"
	case StateStopped:
		return "stopped"
	default:
		return "none"
	}
}

// universeState is the raw state §3 describes; State is derived from it.
type universeState struct {
	currentSession       *playback.Session
	isPlaylist           bool
	isInterrupted        bool
	shouldResumePlaylist bool
	isStopped            bool
	playlistID           string
}

func (u *universeState) derive() State {
	switch {
	case u == nil:
		return StateNone
	case u.isStopped:
		return StateStopped
	case u.isInterrupted:
		return StateInterrupted
	case u.isPlaylist:
		return StateActive
	default:
		return StateNone
	}
}

// Manager is the SessionManager: a single mutex guarding a
// universe_id -> universeState map. It implements playback.SessionClearer.
type Manager struct {
	mu     sync.Mutex
	states map[uint32]*universeState
}

// NewManager returns an empty SessionManager.
func NewManager() *Manager {
	return &Manager{states: make(map[uint32]*universeState)}
}

// GetState returns the derived state for universeID.
func (m *Manager) GetState(universeID uint32) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[universeID].derive()
}

// RegisterSession cancels any existing non-cancelled session on universeID
// and replaces it. If isPlaylist is true, the universe's is_playlist flag
// is set; otherwise the existing flag is preserved, so a one-shot animation
// played inside a playlist does not demote it (§4.4).
func (m *Manager) RegisterSession(universeID uint32, sess *playback.Session, isPlaylist bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[universeID]
	if !ok {
		st = &universeState{}
		m.states[universeID] = st
	}
	if st.currentSession != nil && !st.currentSession.Cancelled() {
		st.currentSession.Cancel()
	}
	st.currentSession = sess
	if isPlaylist {
		st.isPlaylist = true
	}
}

// Interrupt cancels the current session on universeID and registers a
// one-shot interrupt session, without demoting playlist bookkeeping. If the
// universe was running a playlist, is_interrupted is set and
// should_resume_playlist records the caller's intent (§4.4).
func (m *Manager) Interrupt(universeID uint32, interruptSession *playback.Session, shouldResume bool) *playback.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[universeID]
	if !ok {
		st = &universeState{}
		m.states[universeID] = st
	}
	if st.currentSession != nil && !st.currentSession.Cancelled() {
		st.currentSession.Cancel()
	}
	if st.isPlaylist {
		st.isInterrupted = true
		st.shouldResumePlaylist = shouldResume
	}
	st.currentSession = interruptSession
	return interruptSession
}

// ResumePlaylist clears the interrupted flags for universeID and reports
// whether the universe was actually in Interrupted state.
func (m *Manager) ResumePlaylist(universeID uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[universeID]
	if !ok || !st.isInterrupted {
		return false
	}
	st.isInterrupted = false
	st.shouldResumePlaylist = false
	return true
}

// StopPlaylist cancels the current session and marks universeID stopped,
// clearing any interrupt flags (§4.4).
func (m *Manager) StopPlaylist(universeID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[universeID]
	if !ok {
		st = &universeState{}
		m.states[universeID] = st
	}
	if st.currentSession != nil && !st.currentSession.Cancelled() {
		st.currentSession.Cancel()
	}
	st.isStopped = true
	st.isInterrupted = false
	st.shouldResumePlaylist = false
}

// StartPlaylist resets universeID to fresh is_playlist state, clearing any
// prior stopped/interrupted/current-session bookkeeping (§4.4).
func (m *Manager) StartPlaylist(universeID uint32, playlistID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[universeID] = &universeState{isPlaylist: true, playlistID: playlistID}
}

// CancelUniverse cancels the current session (if any) and removes all
// state for universeID.
func (m *Manager) CancelUniverse(universeID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[universeID]; ok && st.currentSession != nil {
		st.currentSession.Cancel()
	}
	delete(m.states, universeID)
}

// ClearCurrentSession nulls current_session while preserving playlist
// state, but only when current_session still is ended — identity-checked
// because s.end() (called just before this, by the terminal PlaybackRunner
// dispatch) may have synchronously run an OnEnd hook that already replaced
// current_session with a new, live session (e.g. a playlist advancing to
// its next animation via RegisterSession). Without this check, the stale
// runner's trailing clear would null that brand-new session's pointer,
// leaving SessionManager unable to cancel it on the next Interrupt/
// RegisterSession/StopPlaylist call — two runners would then write the same
// universe at once (violates P5). Implements playback.SessionClearer.
func (m *Manager) ClearCurrentSession(universeID uint32, ended *playback.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[universeID]; ok && st.currentSession == ended {
		st.currentSession = nil
	}
}

// ShouldResumePlaylist reports whether a prior Interrupt call for
// universeID was made with shouldResume=true and the universe is still
// Interrupted. playlistctl.Controller does not consult it: resuming happens
// only when its Resume method is called.
func (m *Manager) ShouldResumePlaylist(universeID uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[universeID]
	return ok && st.isInterrupted && st.shouldResumePlaylist
}

// PlaylistID returns the playlist id bound to universeID, if any.
func (m *Manager) PlaylistID(universeID uint32) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[universeID]
	if !ok {
		return "", false
	}
	return st.playlistID, st.isPlaylist
}
