package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/signalctl/clock"
	"github.com/tsinghua-fib-lab/signalctl/utils/config"
)

func TestClock(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 2, Total: 3, Interval: 5})
	assert.Equal(t, int32(2), c.InternalStep)
	assert.InDelta(t, 10, c.T, 1e-9)
	assert.False(t, c.Done())

	c.Tick()
	c.Tick()
	c.Tick()
	assert.True(t, c.Done())
	assert.InDelta(t, 25, c.T, 1e-9)

	c.Init()
	assert.Equal(t, int32(2), c.InternalStep)
	assert.False(t, c.Done())
}

func TestClockString(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 0, Total: 1000, Interval: 5})
	for i := 0; i < 745; i++ {
		c.Tick()
	}
	// 745×5s = 3725s
	assert.Equal(t, "01:02:05", c.String())
	h, m, s := c.GetHourMinuteSecond()
	assert.Equal(t, 1, h)
	assert.Equal(t, 2, m)
	assert.InDelta(t, 5, s, 1e-9)
}
