package eventloop

// DMXWriter is the subset of universe.Universe the DMXEvent needs, kept as
// an interface so this package does not import internal/universe's
// concrete Registry.
type DMXWriter interface {
	WriteStream(channelOffset int, data []byte) error
}

// DMXEvent is a one-shot write_stream injected by the stream ingress
// (component K, §4.7 of the spec). It always lands on the next tick after
// the fragment arrived, and write_stream's priority over write_animation
// means it visibly overrides whatever animation is running without
// cancelling it.
type DMXEvent struct {
	Target        DMXWriter
	ChannelOffset int
	Data          []byte
}

// Dispatch performs the one-shot write_stream.
func (e DMXEvent) Dispatch(loop *Loop) {
	if err := e.Target.WriteStream(e.ChannelOffset, e.Data); err != nil {
		loop.log.Warn("dmx stream event failed", "channel_offset", e.ChannelOffset, "error", err)
	}
}

// CacheKind distinguishes the caches an external API layer can invalidate.
type CacheKind string

const (
	CacheKindAnimation CacheKind = "animation"
	CacheKindPlaylist  CacheKind = "playlist"
	CacheKindSound     CacheKind = "sound"
)

// CacheInvalidate broadcasts to the external API layer that a cache of the
// given kind should be dropped (§4.7 of the spec). The core itself holds no
// such cache; this event exists purely to hand the notification to the
// Listener callback carried in the event itself.
type CacheInvalidate struct {
	Kind     CacheKind
	Listener func(kind CacheKind)
}

// Dispatch invokes the listener, if any.
func (e CacheInvalidate) Dispatch(loop *Loop) {
	if e.Listener != nil {
		e.Listener(e.Kind)
	}
}

// StatusLight is an external side effect (e.g. a physical indicator LED)
// driven by playback state transitions (§4.7 of the spec).
type StatusLight struct {
	Which string
	On    bool
	Set   func(which string, on bool)
}

// Dispatch invokes the side-effect callback, if any.
func (e StatusLight) Dispatch(loop *Loop) {
	if e.Set != nil {
		e.Set(e.Which, e.On)
	}
}

