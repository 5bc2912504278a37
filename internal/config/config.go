// Package config loads the process configuration (§6 of the spec): tick
// period, network interface, CID override, audio transport mode, and the
// scheduler's client-clock-skew delay.
package config

import "fmt"

// AudioMode selects how channel audio is delivered.
type AudioMode string

const (
	AudioModeRTPUnicast   AudioMode = "rtp_unicast"
	AudioModeRTPMulticast AudioMode = "rtp_multicast"
	AudioModeNone         AudioMode = "none"
)

// AudioConfig groups the audio.* configuration keys.
type AudioConfig struct {
	Mode AudioMode `koanf:"mode"`
	// FragmentPackets is loaded but not yet consumed: see DESIGN.md's
	// internal/config entry for why.
	FragmentPackets bool   `koanf:"fragment_packets"`
	SoundDirectory  string `koanf:"sound_directory"`
	SampleRate      int    `koanf:"sample_rate"`
}

// SchedulerConfig groups the scheduler.* configuration keys.
type SchedulerConfig struct {
	// AnimationDelayMs is added to every scheduled animation's start_frame
	// (after converting ms to ticks) to absorb client clock skew; see
	// cmd/creature-core/main.go's buildApp and internal/playlistctl.
	AnimationDelayMs int `koanf:"animation_delay_ms"`
}

// Config is the full process configuration, unmarshaled from YAML and/or
// environment variables by Load.
type Config struct {
	TickPeriodMs     int `koanf:"tick_period_ms"`
	NetworkInterface int `koanf:"network_interface"`
	// CID overrides the process-stable E1.31 root-layer CID dmxtransport
	// generates at startup; empty or unparseable falls back to random.
	CID       string          `koanf:"cid"`
	Audio     AudioConfig     `koanf:"audio"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

// Default returns the built-in defaults (§6), applied before any file or
// environment overrides are loaded.
func Default() Config {
	return Config{
		TickPeriodMs:     20,
		NetworkInterface: 0,
		CID:              "",
		Audio: AudioConfig{
			Mode:            AudioModeRTPMulticast,
			FragmentPackets: false,
			SoundDirectory:  "./sounds",
			SampleRate:      48000,
		},
		Scheduler: SchedulerConfig{
			AnimationDelayMs: 0,
		},
	}
}

// Validate checks the invariants Load cannot express through struct tags
// alone: positive tick period, a recognized audio mode, and the fixed RTP
// sample rate.
func (c Config) Validate() error {
	if c.TickPeriodMs <= 0 {
		return fmt.Errorf("config: tick_period_ms must be positive, got %d", c.TickPeriodMs)
	}
	switch c.Audio.Mode {
	case AudioModeRTPUnicast, AudioModeRTPMulticast, AudioModeNone:
	default:
		return fmt.Errorf("config: audio.mode %q is not one of rtp_unicast, rtp_multicast, none", c.Audio.Mode)
	}
	if c.Audio.Mode != AudioModeNone && c.Audio.SampleRate != 48000 {
		return fmt.Errorf("config: audio.sample_rate must be 48000 for RTP, got %d", c.Audio.SampleRate)
	}
	if c.Scheduler.AnimationDelayMs < 0 {
		return fmt.Errorf("config: scheduler.animation_delay_ms must be >= 0, got %d", c.Scheduler.AnimationDelayMs)
	}
	return nil
}
