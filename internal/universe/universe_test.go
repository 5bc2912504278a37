package universe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeOmitsStartCodeSoIndexZeroIsSlotOne(t *testing.T) {
	u := New(7)
	require.NoError(t, u.WriteAnimation(1, []byte{0x10, 0x20}))

	slots, touched := u.Merge()
	require.True(t, touched)
	require.Equal(t, byte(0x10), slots[0]) // slots[0] here is DMX slot 1
	require.Equal(t, byte(0x20), slots[1])
}

func TestAnimationWritesAreSticky(t *testing.T) {
	u := New(1)
	require.NoError(t, u.WriteAnimation(10, []byte{0xAA}))
	slots, _ := u.Merge()
	require.Equal(t, byte(0xAA), slots[9])

	// Second tick: no writes at all, the value must persist.
	slots, touched := u.Merge()
	require.False(t, touched)
	require.Equal(t, byte(0xAA), slots[9])
}

func TestStreamWritesAreEphemeral(t *testing.T) {
	u := New(1)
	require.NoError(t, u.WriteAnimation(5, []byte{0x10}))
	u.Merge()

	require.NoError(t, u.WriteAnimation(5, []byte{0x10}))
	require.NoError(t, u.WriteStream(5, []byte{0xFF}))
	slots, _ := u.Merge()
	require.Equal(t, byte(0xFF), slots[4])

	// Next tick, stream doesn't re-fire; animation's sticky value shows again.
	require.NoError(t, u.WriteAnimation(5, []byte{0x10}))
	slots, _ = u.Merge()
	require.Equal(t, byte(0x10), slots[4])
}

func TestMergePriorityInterruptBeatsStreamBeatsAnimation(t *testing.T) {
	u := New(1)
	require.NoError(t, u.WriteAnimation(1, []byte{0x01}))
	require.NoError(t, u.WriteStream(1, []byte{0x02}))
	require.NoError(t, u.WriteInterrupt(1, []byte{0x03}))

	slots, _ := u.Merge()
	require.Equal(t, byte(0x03), slots[0])
}

func TestMergeNonOverlappingWritesAllSurvive(t *testing.T) {
	u := New(1)
	require.NoError(t, u.WriteAnimation(1, []byte{0x01}))
	require.NoError(t, u.WriteStream(2, []byte{0x02}))
	require.NoError(t, u.WriteInterrupt(3, []byte{0x03}))

	slots, _ := u.Merge()
	require.Equal(t, byte(0x01), slots[0])
	require.Equal(t, byte(0x02), slots[1])
	require.Equal(t, byte(0x03), slots[2])
}

func TestWriteRejectsSlotZero(t *testing.T) {
	u := New(1)
	err := u.WriteAnimation(0, []byte{0x01})
	require.Error(t, err)
}

func TestWriteRejectsCrossingSlot513(t *testing.T) {
	u := New(1)
	err := u.WriteAnimation(512, []byte{0x01, 0x02})
	require.Error(t, err)
}

func TestEverTouchedGatesKeepalive(t *testing.T) {
	u := New(9)
	require.False(t, u.EverTouched())
	u.MarkTouched()
	require.True(t, u.EverTouched())
}

func TestRegistrySingletonPerID(t *testing.T) {
	r := NewRegistry()
	a := r.Get(3)
	b := r.Get(3)
	require.Same(t, a, b)
	require.Len(t, r.All(), 1)
}
