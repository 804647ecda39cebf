package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/clock"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"
)

func TestClock(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 10, Total: 3, Interval: .5})
	assert.Equal(t, 5., c.T)
	assert.False(t, c.Done())

	c.Advance(.5)
	c.Advance(.25)
	assert.Equal(t, int32(12), c.InternalStep)
	assert.Equal(t, 5.75, c.T)
	c.Advance(.5)
	assert.True(t, c.Done())

	c.Init()
	assert.Equal(t, int32(10), c.InternalStep)
	assert.Equal(t, 5., c.T)
}

func TestClockString(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 3723, Total: 1, Interval: 1})
	assert.Equal(t, "01:02:03", c.String())
	h, m, s := c.GetHourMinuteSecond()
	assert.Equal(t, 1, h)
	assert.Equal(t, 2, m)
	assert.Equal(t, 3., s)
}
