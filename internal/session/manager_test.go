package session

import (
	"testing"

	"github.com/chirpworks/creature-core/internal/playback"
	"github.com/stretchr/testify/require"
)

func newSession(id string) *playback.Session {
	return playback.NewSession(id, 1, 0, 10, nil, playback.Lifecycle{})
}

func TestNoneStateForUnknownUniverse(t *testing.T) {
	m := NewManager()
	require.Equal(t, StateNone, m.GetState(1))
}

func TestStartPlaylistEntersActive(t *testing.T) {
	m := NewManager()
	m.StartPlaylist(1, "pl-1")
	require.Equal(t, StateActive, m.GetState(1))
	id, isPlaylist := m.PlaylistID(1)
	require.True(t, isPlaylist)
	require.Equal(t, "pl-1", id)
}

func TestRegisterSessionCancelsPrevious(t *testing.T) {
	m := NewManager()
	m.StartPlaylist(1, "pl-1")

	first := newSession("first")
	m.RegisterSession(1, first, true)
	require.False(t, first.Cancelled())

	second := newSession("second")
	m.RegisterSession(1, second, true)
	require.True(t, first.Cancelled())
	require.False(t, second.Cancelled())
}

func TestRegisterSessionPreservesPlaylistFlagWhenNotPlaylist(t *testing.T) {
	m := NewManager()
	m.StartPlaylist(1, "pl-1")
	require.Equal(t, StateActive, m.GetState(1))

	oneShot := newSession("oneshot")
	m.RegisterSession(1, oneShot, false)

	// A one-shot animation inside a playlist must not demote is_playlist.
	require.Equal(t, StateActive, m.GetState(1))
}

func TestInterruptEntersInterruptedAndResumeReturnsToActive(t *testing.T) {
	m := NewManager()
	m.StartPlaylist(1, "pl-1")
	playlistSession := newSession("playlist-anim")
	m.RegisterSession(1, playlistSession, true)

	interrupt := newSession("interrupt-anim")
	returned := m.Interrupt(1, interrupt, true)
	require.Same(t, interrupt, returned)
	require.True(t, playlistSession.Cancelled())
	require.Equal(t, StateInterrupted, m.GetState(1))
	require.True(t, m.ShouldResumePlaylist(1))

	resumed := m.ResumePlaylist(1)
	require.True(t, resumed)
	require.Equal(t, StateActive, m.GetState(1))
	require.False(t, m.ShouldResumePlaylist(1))
}

func TestResumePlaylistFalseWhenNotInterrupted(t *testing.T) {
	m := NewManager()
	m.StartPlaylist(1, "pl-1")
	require.False(t, m.ResumePlaylist(1))
}

func TestInterruptOnNonPlaylistDoesNotSetInterruptedFlag(t *testing.T) {
	m := NewManager()
	oneShot := newSession("oneshot")
	m.RegisterSession(1, oneShot, false)

	interrupt := newSession("interrupt")
	m.Interrupt(1, interrupt, true)

	// Non-playlist universes have nothing to resume, so interrupt must not
	// fabricate an Interrupted state.
	require.Equal(t, StateNone, m.GetState(1))
}

func TestStopPlaylistEntersStoppedAndCancelsSession(t *testing.T) {
	m := NewManager()
	m.StartPlaylist(1, "pl-1")
	sess := newSession("anim")
	m.RegisterSession(1, sess, true)

	m.StopPlaylist(1)
	require.True(t, sess.Cancelled())
	require.Equal(t, StateStopped, m.GetState(1))
}

func TestCancelUniverseRemovesAllState(t *testing.T) {
	m := NewManager()
	m.StartPlaylist(1, "pl-1")
	sess := newSession("anim")
	m.RegisterSession(1, sess, true)

	m.CancelUniverse(1)
	require.True(t, sess.Cancelled())
	require.Equal(t, StateNone, m.GetState(1))
}

func TestClearCurrentSessionPreservesPlaylistState(t *testing.T) {
	m := NewManager()
	m.StartPlaylist(1, "pl-1")
	sess := newSession("anim")
	m.RegisterSession(1, sess, true)

	m.ClearCurrentSession(1, sess)
	require.Equal(t, StateActive, m.GetState(1))
	id, isPlaylist := m.PlaylistID(1)
	require.True(t, isPlaylist)
	require.Equal(t, "pl-1", id)
}

func TestClearCurrentSessionIgnoresStaleSession(t *testing.T) {
	m := NewManager()
	m.StartPlaylist(1, "pl-1")

	stale := newSession("stale")
	m.RegisterSession(1, stale, true)

	fresh := newSession("fresh")
	m.RegisterSession(1, fresh, true)

	// A terminal Runner for the already-replaced "stale" session must not be
	// able to null out "fresh", which is now the live current_session (the
	// bug this regression covers: an unconditional clear would erase fresh's
	// pointer out from under the still-running session).
	m.ClearCurrentSession(1, stale)

	interrupt := newSession("interrupt")
	returned := m.Interrupt(1, interrupt, true)
	require.Same(t, interrupt, returned)
	require.True(t, fresh.Cancelled(), "fresh must still be cancellable after the stale clear")
}
