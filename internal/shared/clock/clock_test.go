package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func TestManual_AfterFunc(t *testing.T) {
	t.Run("fires once when due", func(t *testing.T) {
		c := NewManual(epoch)
		var fired int
		c.AfterFunc(5*time.Second, func() { fired++ })

		c.Advance(4 * time.Second)
		assert.Equal(t, 0, fired)

		c.Advance(time.Second)
		assert.Equal(t, 1, fired)

		c.Advance(time.Hour)
		assert.Equal(t, 1, fired)
		assert.Equal(t, 0, c.Pending())
	})

	t.Run("never fires inline", func(t *testing.T) {
		c := NewManual(epoch)
		var fired bool
		c.AfterFunc(-time.Second, func() { fired = true })

		assert.False(t, fired)
		c.Advance(0)
		assert.True(t, fired)
	})

	t.Run("stop prevents firing", func(t *testing.T) {
		c := NewManual(epoch)
		var fired bool
		timer := c.AfterFunc(time.Second, func() { fired = true })

		assert.True(t, timer.Stop())
		assert.False(t, timer.Stop())
		c.Advance(time.Minute)
		assert.False(t, fired)
	})

	t.Run("stop after fire reports false", func(t *testing.T) {
		c := NewManual(epoch)
		timer := c.AfterFunc(time.Second, func() {})
		c.Advance(time.Second)

		assert.False(t, timer.Stop())
	})

	t.Run("fires in expiry order", func(t *testing.T) {
		c := NewManual(epoch)
		var order []string
		c.AfterFunc(3*time.Second, func() { order = append(order, "c") })
		c.AfterFunc(time.Second, func() { order = append(order, "a") })
		c.AfterFunc(2*time.Second, func() { order = append(order, "b") })

		c.Advance(10 * time.Second)

		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("callbacks may arm new timers", func(t *testing.T) {
		c := NewManual(epoch)
		var fired []time.Time
		c.AfterFunc(time.Second, func() {
			fired = append(fired, c.Now())
			c.AfterFunc(0, func() { fired = append(fired, c.Now()) })
		})

		c.Advance(time.Second)

		require.Len(t, fired, 2)
		assert.Equal(t, epoch.Add(time.Second), fired[1])
	})
}

func TestManual_Set(t *testing.T) {
	c := NewManual(epoch)
	c.Set(epoch.Add(-time.Hour))
	assert.Equal(t, epoch, c.Now())

	c.Set(epoch.Add(time.Hour))
	assert.Equal(t, epoch.Add(time.Hour), c.Now())
}

func TestSystem_AfterFunc(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{})
	System{}.AfterFunc(-time.Second, func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback did not fire")
	}
	assert.Equal(t, int32(1), fired.Load())
}
