package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingChannelDropsOldest(t *testing.T) {
	rc := NewRingChannel[int](3)

	for i := 0; i < 5; i++ {
		rc.Send(i)
	}
	assert.Equal(t, 3, rc.Len())
	assert.Equal(t, 3, rc.Cap())
	assert.Equal(t, int64(5), rc.Written())
	assert.Equal(t, int64(2), rc.Overwritten())

	for _, want := range []int{2, 3, 4} {
		v, ok := rc.TryReceive()
		assert.True(t, ok)
		assert.Equal(t, want, v)
	}
	_, ok := rc.TryReceive()
	assert.False(t, ok)
}

func TestRingChannelSendReportsDrop(t *testing.T) {
	rc := NewRingChannel[string](1)

	assert.False(t, rc.Send("a"))
	assert.True(t, rc.Send("b"))
	rc.Close()

	var got []string
	for v := range rc.C() {
		got = append(got, v)
	}
	assert.Equal(t, []string{"b"}, got)
}

func TestRingChannelZeroCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { NewRingChannel[int](0) })
}
