// creature-core is the process entrypoint: it wires the clock, event loop,
// universe registry, DMX and RTP transports, session manager, and ingress
// into one running tick loop, mirroring the teacher's main.go shape
// (structured logging, config load, signal-driven graceful shutdown).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chirpworks/creature-core/internal/clock"
	"github.com/chirpworks/creature-core/internal/config"
	"github.com/chirpworks/creature-core/internal/dmxtransport"
	"github.com/chirpworks/creature-core/internal/eventloop"
	"github.com/chirpworks/creature-core/internal/ingress"
	"github.com/chirpworks/creature-core/internal/playback"
	"github.com/chirpworks/creature-core/internal/rtptransport"
	"github.com/chirpworks/creature-core/internal/session"
	"github.com/chirpworks/creature-core/internal/universe"
)

// App bundles every wired component the external API/WebSocket layer
// (out of scope, §1) drives: Directory.Register and Animations.Register
// populate the catalogue, playlistctl.New(app.Manager, app.Loop, ...,
// app.Load, nil, app.AnimationDelayFrames).Play() starts playlists, and
// app.Ingress.Submit handles live per-frame fragments. Run blocks until ctx
// is cancelled.
type App struct {
	Loop                 *eventloop.Loop
	Manager              *session.Manager
	Directory            *directory
	Animations           *animationStore
	Load                 func(animationID string, universeID uint32, startFrame clock.Frame) (*playback.Session, error)
	Ingress              *ingress.Ingress
	Log                  *slog.Logger
	AnimationDelayFrames clock.Frame

	dmx *dmxtransport.Sender
	rtp *rtptransport.Sender
}

// Run drives the event loop until ctx is cancelled, then releases the
// transport sockets.
func (a *App) Run(ctx context.Context) {
	a.Loop.Run(ctx)
	a.dmx.Close()
	if a.rtp != nil {
		a.rtp.Close()
	}
}

func buildApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	sender, err := dmxtransport.NewSender("creature-core", cfg.CID, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("dmx sender ready", "cid", sender.CID())

	var rtpSender *rtptransport.Sender
	if cfg.Audio.Mode != config.AudioModeNone {
		rtpSender, err = rtptransport.NewSender("239.1.0.1:6970")
		if err != nil {
			sender.Close()
			return nil, err
		}
	}

	registry := universe.NewRegistry()
	clk := clock.New(time.Now(), time.Duration(cfg.TickPeriodMs)*time.Millisecond)
	loop := eventloop.New(clk, logger)

	loop.RegisterFlushHook(func(frame clock.Frame) {
		for _, u := range registry.All() {
			if !u.EverTouched() {
				continue
			}
			slots, _ := u.Merge()
			if err := sender.Send(u.ID, slots); err != nil {
				logger.Warn("dmx send failed", "universe", u.ID, "frame", frame, "error", err)
			}
		}
	})

	manager := session.NewManager()
	dir := newDirectory()
	store := newAnimationStore()
	load := newAnimationLoader(store, dir, registry, rtpSender, cfg, logger)
	ing := ingress.New(dir, registry, loop, logger)

	// scheduler.animation_delay_ms (§6) is configured in wall-clock
	// milliseconds but playlistctl.Controller schedules in ticks, so convert
	// once here using the same tick period the loop itself runs at.
	delayFrames := clock.Frame(cfg.Scheduler.AnimationDelayMs) / clock.Frame(cfg.TickPeriodMs)

	return &App{
		Loop:                 loop,
		Manager:              manager,
		Directory:            dir,
		Animations:           store,
		Load:                 load,
		Ingress:              ing,
		Log:                  logger,
		AnimationDelayFrames: delayFrames,
		dmx:                  sender,
		rtp:                  rtpSender,
	}, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	configPath := os.Getenv("CREATURE_CORE_CONFIG")
	loader, err := config.New(configPath, "CREATURE_CORE")
	if err != nil {
		logger.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	cfg, err := loader.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting creature-core",
		"tick_period_ms", cfg.TickPeriodMs,
		"network_interface", cfg.NetworkInterface,
		"audio_mode", cfg.Audio.Mode,
	)

	app, err := buildApp(cfg, logger)
	if err != nil {
		logger.Error("failed to wire application", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	app.Run(ctx)
	logger.Info("creature-core stopped")
}
