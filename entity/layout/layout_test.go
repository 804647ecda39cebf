package layout_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/layout"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"
)

func newLayout(convention string) *layout.Layout {
	return layout.New(config.Layout{RoadWidth: 8, LaneWidth: 2, RoadLength: 20, LaneConvention: convention})
}

func TestZonesRightHand(t *testing.T) {
	l := newLayout(config.RightHand)
	assert.Len(t, l.Zones(), 12)
	assert.Len(t, l.ZonesOf(layout.ZoneStart), 4)
	assert.Len(t, l.ZonesOf(layout.ZoneGoal), 4)
	assert.Len(t, l.ZonesOf(layout.ZoneCorner), 4)

	// 从南侧驶入，向北（-Z）行驶，车道在东侧
	z, err := l.Zone("start_south")
	require.NoError(t, err)
	assert.True(t, z.Position.ApproxEqual(mgl64.Vec3{1, 0, 24}))
	assert.True(t, z.Directions[0].ApproxEqual(mgl64.Vec3{0, 0, -1}))

	// 向北驶离，车道同样在东侧
	z, err = l.Zone("goal_north")
	require.NoError(t, err)
	assert.True(t, z.Position.ApproxEqual(mgl64.Vec3{1, 0, -24}))

	// 东南转角管辖从南侧驶入的车辆
	z, err = l.Zone("corner_se")
	require.NoError(t, err)
	assert.True(t, z.Position.ApproxEqual(mgl64.Vec3{5, 0, 5}))
	assert.True(t, z.Directions[0].ApproxEqual(mgl64.Vec3{0, 0, -1}))

	_, err = l.Zone("corner_middle")
	assert.ErrorIs(t, err, layout.ErrUnknownZone)
}

func TestZonesLeftHand(t *testing.T) {
	l := newLayout(config.LeftHand)
	z, err := l.Zone("start_south")
	require.NoError(t, err)
	assert.True(t, z.Position.ApproxEqual(mgl64.Vec3{-1, 0, 24}))

	z, err = l.Zone("corner_sw")
	require.NoError(t, err)
	assert.True(t, z.Directions[0].ApproxEqual(mgl64.Vec3{0, 0, -1}))
}

func TestInside(t *testing.T) {
	l := newLayout(config.RightHand)
	assert.True(t, l.Inside(mgl64.Vec3{4, 3, -4}))
	assert.False(t, l.Inside(mgl64.Vec3{4.01, 0, 0}))
	assert.InDelta(t, 5., l.DistanceToCenter(mgl64.Vec3{3, 9, 4}), 1e-9)
}
