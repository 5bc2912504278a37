package eventloop

import (
	"testing"
	"time"

	"github.com/chirpworks/creature-core/internal/clock"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	calls []struct {
		offset int
		data   []byte
	}
}

func (f *fakeWriter) WriteStream(channelOffset int, data []byte) error {
	f.calls = append(f.calls, struct {
		offset int
		data   []byte
	}{channelOffset, data})
	return nil
}

func TestDMXEventWritesStream(t *testing.T) {
	loop := New(clock.New(time.Now(), time.Millisecond), nil)
	w := &fakeWriter{}
	ev := DMXEvent{Target: w, ChannelOffset: 5, Data: []byte{0x01, 0x02}}

	ev.Dispatch(loop)

	require.Len(t, w.calls, 1)
	require.Equal(t, 5, w.calls[0].offset)
	require.Equal(t, []byte{0x01, 0x02}, w.calls[0].data)
}

func TestCacheInvalidateNotifiesListener(t *testing.T) {
	loop := New(clock.New(time.Now(), time.Millisecond), nil)
	var got CacheKind
	ev := CacheInvalidate{Kind: CacheKindAnimation, Listener: func(k CacheKind) { got = k }}

	ev.Dispatch(loop)
	require.Equal(t, CacheKindAnimation, got)
}

func TestStatusLightInvokesSetter(t *testing.T) {
	loop := New(clock.New(time.Now(), time.Millisecond), nil)
	var gotWhich string
	var gotOn bool
	ev := StatusLight{Which: "playing", On: true, Set: func(which string, on bool) {
		gotWhich, gotOn = which, on
	}}

	ev.Dispatch(loop)
	require.Equal(t, "playing", gotWhich)
	require.True(t, gotOn)
}
