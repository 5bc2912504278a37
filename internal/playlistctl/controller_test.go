package playlistctl

import (
	"context"
	"testing"
	"time"

	"github.com/chirpworks/creature-core/internal/clock"
	"github.com/chirpworks/creature-core/internal/eventloop"
	"github.com/chirpworks/creature-core/internal/playback"
	"github.com/chirpworks/creature-core/internal/session"
	"github.com/stretchr/testify/require"
)

func newTestLoop() *eventloop.Loop {
	return eventloop.New(clock.New(time.Now(), 20*time.Millisecond), nil)
}

// capturingLoader records every loaded animation id and keeps the most
// recently built session, so tests can simulate that session reaching its
// last frame by invoking its own OnEnd hook directly.
func capturingLoader(loaded *[]string, lastSession **playback.Session) AnimationLoader {
	return func(animationID string, universeID uint32, startFrame clock.Frame) (*playback.Session, error) {
		*loaded = append(*loaded, animationID)
		s := playback.NewSession(animationID, universeID, startFrame, 1, nil, playback.Lifecycle{})
		*lastSession = s
		return s, nil
	}
}

func TestPlayOnEmptyPlaylistDoesNothing(t *testing.T) {
	m := session.NewManager()
	loop := newTestLoop()
	var loaded []string
	var last *playback.Session
	c := New(m, loop, "pl-empty", 1, nil, capturingLoader(&loaded, &last), nil, 0)

	c.Play()

	require.Empty(t, loaded)
	require.Equal(t, session.StateActive, m.GetState(1))
}

func TestPlayAdvancesThroughPlaylistAndLoops(t *testing.T) {
	m := session.NewManager()
	loop := newTestLoop()
	var loaded []string
	var last *playback.Session
	c := New(m, loop, "pl-1", 1, []string{"a", "b"}, capturingLoader(&loaded, &last), nil, 0)

	c.Play()
	require.Equal(t, []string{"a"}, loaded)

	// Simulate the Runner reaching its last frame for "a".
	last.Lifecycle.OnEnd(playback.EndCompleted)
	require.Equal(t, []string{"a", "b"}, loaded)

	last.Lifecycle.OnEnd(playback.EndCompleted)
	require.Equal(t, []string{"a", "b", "a"}, loaded, "playlist must loop back to the start")
}

func TestInterruptedCompletionDoesNotAdvance(t *testing.T) {
	m := session.NewManager()
	loop := newTestLoop()
	var loaded []string
	var last *playback.Session
	c := New(m, loop, "pl-1", 1, []string{"a", "b"}, capturingLoader(&loaded, &last), nil, 0)

	c.Play()
	require.Equal(t, []string{"a"}, loaded)

	interrupt := playback.NewSession("shout", 1, loop.NextFrame(), 1, nil, playback.Lifecycle{})
	m.Interrupt(1, interrupt, true)
	require.Equal(t, session.StateInterrupted, m.GetState(1))

	// Even if the (now-cancelled) playlist session's runner still fires
	// on_end(completed) on its last buffered tick, the controller must not
	// advance while the universe is Interrupted.
	last.Lifecycle.OnEnd(playback.EndCompleted)
	require.Equal(t, []string{"a"}, loaded)

	c.Resume()
	require.Equal(t, []string{"a", "b"}, loaded)
	require.Equal(t, session.StateActive, m.GetState(1))
}

// sessionRecordingLoader is like capturingLoader but keeps every session it
// builds (not just the latest), so a test can assert on an *earlier*
// session after the playlist has advanced past it.
func sessionRecordingLoader(loaded *[]string, sessions *[]*playback.Session) AnimationLoader {
	return func(animationID string, universeID uint32, startFrame clock.Frame) (*playback.Session, error) {
		*loaded = append(*loaded, animationID)
		s := playback.NewSession(animationID, universeID, startFrame, 1, nil, playback.Lifecycle{})
		*sessions = append(*sessions, s)
		return s, nil
	}
}

// TestRunnerTrailingClearDoesNotEraseAdvancedSession drives the real
// scheduled Runner (not a manually-invoked OnEnd) through the event loop so
// its step-6 trailing ClearCurrentSession call actually runs after
// on_end(completed) has already synchronously advanced the playlist to the
// next animation. Regression for the stale-clear bug: an identity-unaware
// ClearCurrentSession would null the new animation's current_session,
// making it silently uncancellable.
func TestRunnerTrailingClearDoesNotEraseAdvancedSession(t *testing.T) {
	m := session.NewManager()
	loop := newTestLoop()
	var loaded []string
	var sessions []*playback.Session
	c := New(m, loop, "pl-1", 1, []string{"a", "b"}, sessionRecordingLoader(&loaded, &sessions), nil, 0)

	c.Play()
	require.Equal(t, []string{"a"}, loaded)

	startFrame := loop.NextFrame()
	loop.Schedule(startFrame, &playback.Runner{Session: sessions[0], NextFrame: startFrame, Clearer: m})

	// Long enough for frame 1 (a's runner) at 20ms, but stops before frame 2
	// at 40ms, where b's own one-frame runner would complete and loop back to a.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	loop.Run(ctx)

	require.Equal(t, []string{"a", "b"}, loaded, "the real runner's on_end must have advanced to b")

	b := sessions[1]
	require.False(t, b.Cancelled(), "b must still be the live, cancellable current_session")

	interrupt := playback.NewSession("shout", 1, loop.NextFrame(), 1, nil, playback.Lifecycle{})
	m.Interrupt(1, interrupt, true)
	require.True(t, b.Cancelled(), "interrupting the universe must cancel b, proving current_session still points at it")
}

func TestScheduleIndexAddsConfiguredDelayToStartFrame(t *testing.T) {
	m := session.NewManager()
	loop := newTestLoop()
	var loaded []string
	var last *playback.Session
	var gotStart clock.Frame
	load := func(animationID string, universeID uint32, startFrame clock.Frame) (*playback.Session, error) {
		loaded = append(loaded, animationID)
		gotStart = startFrame
		s := playback.NewSession(animationID, universeID, startFrame, 1, nil, playback.Lifecycle{})
		last = s
		return s, nil
	}
	c := New(m, loop, "pl-1", 1, []string{"a"}, load, nil, 5)

	want := loop.NextFrame() + 5
	c.Play()

	require.Equal(t, []string{"a"}, loaded)
	require.Equal(t, want, gotStart, "scheduler.animation_delay_ms converted to ticks must be added to start_frame")
	require.Equal(t, want, last.StartFrame)
}

func TestStoppedCompletionTerminatesController(t *testing.T) {
	m := session.NewManager()
	loop := newTestLoop()
	var loaded []string
	var last *playback.Session
	c := New(m, loop, "pl-1", 1, []string{"a", "b"}, capturingLoader(&loaded, &last), nil, 0)

	c.Play()
	c.Stop()
	last.Lifecycle.OnEnd(playback.EndCompleted)

	require.Equal(t, []string{"a"}, loaded, "a stopped controller must not schedule further animations")
}
