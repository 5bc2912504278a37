package main

import (
	"sync"

	"github.com/chirpworks/creature-core/internal/coreerr"
	"github.com/chirpworks/creature-core/internal/model"
)

// creatureBinding is where one creature's channel lives: which universe and
// channel offset it answers to for animation/stream writes, and which RTP
// endpoint (if any) carries its audio channel.
type creatureBinding struct {
	universeID    uint32
	channelOffset int
	audioChannel  int
	audioAddr     string
}

// directory is an in-memory CreatureDirectory. Persistence across restarts
// is explicitly out of scope (spec.md §1); a production deployment fills
// this from the external document store before the event loop starts.
type directory struct {
	mu       sync.RWMutex
	bindings map[string]creatureBinding
}

func newDirectory() *directory {
	return &directory{bindings: make(map[string]creatureBinding)}
}

func (d *directory) Register(creatureID string, b creatureBinding) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings[creatureID] = b
}

// Resolve implements model.CreatureDirectory.
func (d *directory) Resolve(creatureID string) (uint32, int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.bindings[creatureID]
	if !ok {
		return 0, 0, coreerr.NotFound("creature %q is not bound to any universe", creatureID)
	}
	return b.universeID, b.channelOffset, nil
}

func (d *directory) lookup(creatureID string) (creatureBinding, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.bindings[creatureID]
	return b, ok
}

var _ model.CreatureDirectory = (*directory)(nil)

// animationStore is an in-memory Animation catalogue, keyed by id. Like
// directory, this is wiring glue, not a persistence layer: a production
// deployment populates it from the document store before Play is called.
type animationStore struct {
	mu         sync.RWMutex
	animations map[string]*model.Animation
}

func newAnimationStore() *animationStore {
	return &animationStore{animations: make(map[string]*model.Animation)}
}

func (s *animationStore) Register(a *model.Animation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animations[a.ID] = a
	return nil
}

func (s *animationStore) get(id string) (*model.Animation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.animations[id]
	if !ok {
		return nil, coreerr.NotFound("animation %q not found", id)
	}
	return a, nil
}
