// Package playlistctl implements the PlaylistController (component J,
// §4.8 of the spec): play → schedule-first-animation → on-completion
// advance-and-reschedule, looping at the end of the list, pausing while a
// universe is Interrupted, and terminating once Stopped.
package playlistctl

import (
	"log/slog"

	"github.com/chirpworks/creature-core/internal/clock"
	"github.com/chirpworks/creature-core/internal/eventloop"
	"github.com/chirpworks/creature-core/internal/playback"
	"github.com/chirpworks/creature-core/internal/session"
)

// AnimationLoader resolves an animation id to a playback.Session ready to
// schedule, starting at startFrame.
type AnimationLoader func(animationID string, universeID uint32, startFrame clock.Frame) (*playback.Session, error)

// Controller holds {playlist_id, universe, index} and drives the
// schedule/advance loop.
type Controller struct {
	PlaylistID   string
	UniverseID   uint32
	AnimationIDs []string

	manager     *session.Manager
	loop        *eventloop.Loop
	load        AnimationLoader
	log         *slog.Logger
	delayFrames clock.Frame

	index int
}

// New builds a Controller. animationIDs must be non-nil but may be empty
// (an empty playlist terminates immediately with no session, §4.8).
// delayFrames is scheduler.animation_delay_ms (§6) converted to ticks and
// added to every scheduled start_frame to absorb client clock skew.
func New(manager *session.Manager, loop *eventloop.Loop, playlistID string, universeID uint32, animationIDs []string, load AnimationLoader, log *slog.Logger, delayFrames clock.Frame) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		PlaylistID:   playlistID,
		UniverseID:   universeID,
		AnimationIDs: animationIDs,
		manager:      manager,
		loop:         loop,
		load:         load,
		log:          log,
		delayFrames:  delayFrames,
	}
}

// Play starts the playlist: start_playlist on the SessionManager, then
// schedules the first animation.
func (c *Controller) Play() {
	c.manager.StartPlaylist(c.UniverseID, c.PlaylistID)
	if len(c.AnimationIDs) == 0 {
		c.log.Info("playlist is empty, nothing to play", "playlist", c.PlaylistID, "universe", c.UniverseID)
		return
	}
	c.index = 0
	c.scheduleIndex(c.index)
}

// scheduleIndex loads AnimationIDs[i] and registers+schedules it as a
// playlist session whose on_end(completed) advances the controller.
func (c *Controller) scheduleIndex(i int) {
	startFrame := c.loop.NextFrame() + c.delayFrames
	sess, err := c.load(c.AnimationIDs[i], c.UniverseID, startFrame)
	if err != nil {
		c.log.Warn("playlist failed to load animation, skipping", "playlist", c.PlaylistID, "animation", c.AnimationIDs[i], "error", err)
		c.advanceAndSchedule()
		return
	}

	sess.Lifecycle.OnEnd = c.onAnimationEnd(sess.Lifecycle.OnEnd)
	c.manager.RegisterSession(c.UniverseID, sess, true)
	c.loop.Schedule(startFrame, &playback.Runner{Session: sess, NextFrame: startFrame, Clearer: c.manager, Log: c.log})
}

// onAnimationEnd wraps any caller-supplied OnEnd so the playlist only
// advances when the animation ran to completion on an Active universe
// (§4.8: a completion while Interrupted defers the advance until
// resume_playlist; a completion while Stopped terminates the controller).
func (c *Controller) onAnimationEnd(inner func(playback.EndReason)) func(playback.EndReason) {
	return func(reason playback.EndReason) {
		if inner != nil {
			inner(reason)
		}
		if reason != playback.EndCompleted {
			return
		}
		switch c.manager.GetState(c.UniverseID) {
		case session.StateActive:
			c.advanceAndSchedule()
		case session.StateStopped:
			// Controller terminates; nothing more to schedule.
		case session.StateInterrupted:
			// Advance is deferred until Resume is called.
		}
	}
}

// advanceAndSchedule moves to the next animation, wrapping at the end of
// the list (playlists loop), and schedules it.
func (c *Controller) advanceAndSchedule() {
	c.index = (c.index + 1) % len(c.AnimationIDs)
	c.scheduleIndex(c.index)
}

// Resume is called after an interrupt ends to transition the universe back
// to Active and continue the playlist. Because the interrupted animation's
// own on_end fired with reason cancelled (not completed), the controller's
// own advance hook never ran for it, so Resume advances the index itself
// before scheduling the next animation — the interrupted animation is not
// restarted (see DESIGN.md's resolution of the spec's "restart or skip"
// open question).
func (c *Controller) Resume() {
	if !c.manager.ResumePlaylist(c.UniverseID) {
		return
	}
	c.advanceAndSchedule()
}

// Stop stops the playlist via the SessionManager; the controller's own
// advance hook checks for StateStopped and will not reschedule further.
func (c *Controller) Stop() {
	c.manager.StopPlaylist(c.UniverseID)
}

// CurrentIndex returns the index of the animation most recently scheduled.
func (c *Controller) CurrentIndex() int { return c.index }
