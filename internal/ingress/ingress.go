// Package ingress implements the stream ingress (component K, §4.7/§4.8 of
// the spec): accepts live per-frame fragments from operator consoles,
// resolves each fragment's creature to a (universe, channel_offset) pair,
// and schedules a one-shot DMXEvent at the event loop's next frame.
package ingress

import (
	"fmt"
	"log/slog"

	"github.com/chirpworks/creature-core/internal/eventloop"
	"github.com/chirpworks/creature-core/internal/model"
)

// UniverseWriter resolves a universe id to its DMXWriter, so Ingress does
// not need to import internal/universe's concrete Registry.
type UniverseWriter interface {
	Writer(universeID uint32) eventloop.DMXWriter
}

// Ingress is the entry point for live streaming fragments.
type Ingress struct {
	directory model.CreatureDirectory
	universes UniverseWriter
	loop      *eventloop.Loop
	log       *slog.Logger
}

// New builds an Ingress that resolves fragments via directory and
// schedules DMXEvents on loop.
func New(directory model.CreatureDirectory, universes UniverseWriter, loop *eventloop.Loop, log *slog.Logger) *Ingress {
	if log == nil {
		log = slog.Default()
	}
	return &Ingress{directory: directory, universes: universes, loop: loop, log: log}
}

// Submit resolves fragment.CreatureID to its (universe, channel_offset)
// and schedules a DMXEvent at the loop's next frame. Fragments are applied
// at the next tick only; they never accumulate across ticks (§3).
func (i *Ingress) Submit(fragment model.StreamFragment) error {
	universeID, channelOffset, err := i.directory.Resolve(fragment.CreatureID)
	if err != nil {
		return fmt.Errorf("ingress: resolve creature %q: %w", fragment.CreatureID, err)
	}

	writer := i.universes.Writer(universeID)
	if writer == nil {
		return fmt.Errorf("ingress: no universe writer for universe %d", universeID)
	}

	frame := i.loop.NextFrame()
	i.loop.Schedule(frame, eventloop.DMXEvent{
		Target:        writer,
		ChannelOffset: channelOffset,
		Data:          fragment.Data,
	})
	return nil
}
