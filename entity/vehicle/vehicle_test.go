package vehicle_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/task"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"
)

const dt = .25

var (
	// 南侧驶入车道上的指定停车位置，向北行驶
	southStop = mgl64.Vec3{1, 0, 6}
	north     = mgl64.Vec3{0, 0, -1}
	northGoal = mgl64.Vec3{1, 0, -24}
)

func newTask(t *testing.T, mutate func(c *config.Config)) *task.Context {
	c := config.Config{
		Control: config.Control{Step: config.ControlStep{Total: 10000, Interval: dt}, Seed: 7},
	}
	if mutate != nil {
		mutate(&c)
	}
	ctx, err := task.NewContext("test", c)
	require.NoError(t, err)
	return ctx
}

func addVehicle(t *testing.T, ctx *task.Context, start, direction, goal mgl64.Vec3) *vehicle.Vehicle {
	id, err := ctx.CreateVehicle(task.VehicleRequest{Start: &start, Direction: &direction, Goal: &goal})
	require.NoError(t, err)
	return ctx.Vehicles().Get(id)
}

func addControl(t *testing.T, ctx *task.Context, kind entity.ObjectKind, zone string) int32 {
	id, err := ctx.CreateControl(kind, nil, task.ControlOptions{ZoneID: zone})
	require.NoError(t, err)
	return id
}

func TestStopPosition(t *testing.T) {
	ctx := newTask(t, nil)
	v := addVehicle(t, ctx, mgl64.Vec3{1, 0, 24}, north, northGoal)
	assert.Equal(t, southStop, v.StopPosition())
	assert.Equal(t, entity.StateIdle, v.State())
	assert.Len(t, v.Path(), 3)
}

func TestRedLight(t *testing.T) {
	offset := 5.5
	ctx := newTask(t, func(c *config.Config) { c.Light.FixedOffset = &offset })
	light := addControl(t, ctx, entity.KindLight, "corner_se")
	v := addVehicle(t, ctx, southStop, north, northGoal)
	ctx.Play()

	for i := 1; i <= 17; i++ {
		require.True(t, ctx.Tick(dt))
		require.Equal(t, entity.PhaseRed, ctx.Controls().Get(light).Phase(), "tick %d", i)
		assert.Equal(t, entity.StateStopped, v.State(), "tick %d", i)
		assert.Equal(t, southStop, v.Position(), "tick %d", i)
		assert.Equal(t, entity.ObjectRef{Kind: entity.KindLight, ID: light}, v.YieldingTo())
	}
	// 相位变化的同一步恢复行驶
	ctx.Tick(dt)
	assert.Equal(t, entity.PhaseGreen, ctx.Controls().Get(light).Phase())
	assert.Equal(t, entity.StateMoving, v.State())
	assert.InDelta(t, 4.75, v.Position().Z(), 1e-9)
	assert.False(t, v.YieldingTo().Valid())
}

func TestLightRemovedWhileStopped(t *testing.T) {
	offset := 6.
	ctx := newTask(t, func(c *config.Config) { c.Light.FixedOffset = &offset })
	light := addControl(t, ctx, entity.KindLight, "corner_se")
	v := addVehicle(t, ctx, southStop, north, northGoal)
	ctx.Play()
	ctx.Tick(dt)
	require.Equal(t, entity.StateStopped, v.State())

	require.NoError(t, ctx.RemoveObject(light))
	ctx.Tick(dt)
	assert.Equal(t, entity.StateMoving, v.State())
}

func TestStopSign(t *testing.T) {
	ctx := newTask(t, func(c *config.Config) { c.Vehicle.StopSignDuration = 2 })
	sign := addControl(t, ctx, entity.KindSign, "corner_se")
	v := addVehicle(t, ctx, southStop, north, northGoal)
	ctx.Play()

	resumed := 0
	prev := v.State()
	for i := 1; v.State() != entity.StateFinished; i++ {
		require.Less(t, i, 200)
		ctx.Tick(dt)
		switch {
		case i == 1:
			assert.Equal(t, entity.StateStopping, v.State())
			assert.Equal(t, 2., v.StopTimer())
			assert.Equal(t, entity.ObjectRef{Kind: entity.KindSign, ID: sign}, v.YieldingTo())
		case i < 9:
			assert.Equal(t, entity.StateStopping, v.State(), "tick %d", i)
			assert.Equal(t, southStop, v.Position())
			assert.Empty(t, v.SatisfiedSigns())
		case i == 9:
			assert.Equal(t, entity.StateMoving, v.State())
			assert.Equal(t, []int32{sign}, v.SatisfiedSigns())
		}
		if prev == entity.StateStopping && v.State() == entity.StateMoving {
			resumed++
		}
		prev = v.State()
	}
	assert.Equal(t, 1, resumed)
	assert.Equal(t, []int32{sign}, v.SatisfiedSigns())
}

func TestSatisfiedSignNotRepeated(t *testing.T) {
	ctx := newTask(t, nil)
	sign := addControl(t, ctx, entity.KindSign, "corner_se")
	v := addVehicle(t, ctx, southStop, north, northGoal)
	ctx.Play()
	for v.State() != entity.StateMoving || len(v.SatisfiedSigns()) == 0 {
		require.True(t, ctx.Tick(dt))
	}
	require.Equal(t, []int32{sign}, v.SatisfiedSigns())

	// 回到停车位置，不再为同一个停车标志停车
	v.Teleport(southStop, 0)
	ctx.Tick(dt)
	assert.Equal(t, entity.StateMoving, v.State())
	assert.Less(t, v.Position().Z(), southStop.Z())
}

func TestFinished(t *testing.T) {
	ctx := newTask(t, nil)
	v := addVehicle(t, ctx, mgl64.Vec3{1, 0, 24}, north, northGoal)
	ctx.Play()
	for i := 0; v.State() != entity.StateFinished; i++ {
		require.Less(t, i, 100)
		ctx.Tick(dt)
		assert.LessOrEqual(t, v.SegmentIndex(), len(v.Path()))
	}
	assert.Equal(t, len(v.Path()), v.SegmentIndex())
	assert.Equal(t, northGoal, v.Position())

	heading := v.Heading()
	for i := 0; i < 10; i++ {
		ctx.Tick(dt)
	}
	assert.Equal(t, entity.StateFinished, v.State())
	assert.Equal(t, northGoal, v.Position())
	assert.Equal(t, heading, v.Heading())
}

func TestTurnHeadings(t *testing.T) {
	ctx := newTask(t, nil)
	// 由南向东右转
	v := addVehicle(t, ctx, mgl64.Vec3{1, 0, 24}, north, mgl64.Vec3{24, 0, 1})
	require.True(t, v.Route().IsRightTurn())
	ctx.Play()
	for i := 0; v.State() != entity.StateFinished; i++ {
		require.Less(t, i, 200)
		ctx.Tick(dt)
		assert.InDelta(t, 1, v.Heading().Len(), 1e-9)
	}
	assert.InDelta(t, 1, v.Heading().X(), 1e-9)
}

// fourWay 四个方向各一辆车，lightZone处为信号灯，其余转角为停车标志
func fourWay(t *testing.T, goals [4]string, lightZone string, mutate func(c *config.Config)) (*task.Context, []*vehicle.Vehicle) {
	ctx := newTask(t, mutate)
	for _, zone := range []string{"corner_ne", "corner_nw", "corner_se", "corner_sw"} {
		addControl(t, ctx, lo.Ternary(zone == lightZone, entity.KindLight, entity.KindSign), zone)
	}
	for i, arm := range []string{"north", "east", "south", "west"} {
		start, err := ctx.Layout().Zone("start_" + arm)
		require.NoError(t, err)
		goal, err := ctx.Layout().Zone("goal_" + goals[i])
		require.NoError(t, err)
		addVehicle(t, ctx, start.Position, start.Directions[0], goal.Position)
	}
	return ctx, ctx.Vehicles().Vehicles()
}

func TestFourWayStopNoDeadlock(t *testing.T) {
	// 依次为北、东、南、西侧车辆的目标方向
	cases := map[string][4]string{
		"straight": {"south", "west", "north", "east"},
		"left":     {"east", "south", "west", "north"},
		"right":    {"west", "north", "east", "south"},
		"mixed1":   {"south", "south", "west", "south"},
		"mixed2":   {"east", "west", "east", "north"},
		"mixed3":   {"west", "north", "north", "east"},
		"mixed4":   {"east", "north", "west", "south"},
	}
	for name, goals := range cases {
		for seed := uint64(1); seed <= 8; seed++ {
			for _, step := range []float64{.05, .1, .25} {
				ctx, vs := fourWay(t, goals, "", func(c *config.Config) { c.Control.Seed = seed })
				ctx.Play()
				elapsed := 0.
				for lo.SomeBy(vs, func(v *vehicle.Vehicle) bool { return v.State() != entity.StateFinished }) {
					require.Less(t, elapsed, 60., "%s with seed=%d dt=%v", name, seed, step)
					ctx.Tick(step)
					elapsed += step
				}
			}
		}
	}
}

// closestPass 运行直到两车均到达终点，返回任一车位于路口内时两车的最小距离
func closestPass(t *testing.T, ctx *task.Context, a, b *vehicle.Vehicle, step float64) float64 {
	ctx.Play()
	closest := math.Inf(1)
	for elapsed := 0.; a.State() != entity.StateFinished || b.State() != entity.StateFinished; elapsed += step {
		require.Less(t, elapsed, 60.)
		ctx.Tick(step)
		if ctx.Layout().Inside(a.Position()) || ctx.Layout().Inside(b.Position()) {
			closest = math.Min(closest, a.Position().Sub(b.Position()).Len())
		}
	}
	return closest
}

func allSigns(t *testing.T, ctx *task.Context) {
	for _, zone := range []string{"corner_ne", "corner_nw", "corner_se", "corner_sw"} {
		addControl(t, ctx, entity.KindSign, zone)
	}
}

// 东侧左转车已停在停车位置，西侧直行车稍后到达对向停车位置，两车先后完成停车后不能在路口中心相遇
func TestLeftTurnWaitsForOncomingAtSign(t *testing.T) {
	for seed := uint64(1); seed <= 3; seed++ {
		for _, step := range []float64{.05, .1, .25} {
			for _, lag := range []float64{0, 1, 2, 3} {
				ctx := newTask(t, func(c *config.Config) { c.Control.Seed = seed })
				allSigns(t, ctx)
				left := addVehicle(t, ctx, mgl64.Vec3{6, 0, -1}, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{-1, 0, 24})
				through := addVehicle(t, ctx, mgl64.Vec3{-6 - lag, 0, 1}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{24, 0, 1})
				assert.GreaterOrEqual(t, closestPass(t, ctx, left, through, step), 2.,
					"seed=%d dt=%v lag=%v", seed, step, lag)
			}
		}
	}
}

// 加大预测窗口后，南侧左转车与西侧直行车在停车标志处先后出发也保持间距
func TestWideLookaheadKeepsSeparation(t *testing.T) {
	for seed := uint64(1); seed <= 3; seed++ {
		for _, step := range []float64{.05, .1, .25} {
			for lag := 0.; lag <= 5; lag++ {
				ctx := newTask(t, func(c *config.Config) {
					c.Control.Seed = seed
					c.Vehicle.SelfLookahead = 10
					c.Vehicle.OtherLookahead = 11
				})
				allSigns(t, ctx)
				left := addVehicle(t, ctx, mgl64.Vec3{1, 0, 6 + lag}, north, mgl64.Vec3{-24, 0, -1})
				through := addVehicle(t, ctx, mgl64.Vec3{-6, 0, 1}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{24, 0, 1})
				assert.Greater(t, closestPass(t, ctx, left, through, step), 1.5,
					"seed=%d dt=%v lag=%v", seed, step, lag)
			}
		}
	}
}

func TestResetReproduces(t *testing.T) {
	offset := 2.
	ctx, vs := fourWay(t, [4]string{"east", "west", "north", "south"}, "corner_se", func(c *config.Config) { c.Light.FixedOffset = &offset })
	paths := lo.Map(vs, func(v *vehicle.Vehicle, _ int) *mgl64.Vec3 { return &v.Path()[0] })

	run := func() [][]entity.ObjectState {
		ctx.Play()
		var frames [][]entity.ObjectState
		for i := 0; i < 160; i++ {
			ctx.Tick(.1)
			frames = append(frames, ctx.Frame())
		}
		return frames
	}
	first := run()

	ctx.Reset()
	assert.Equal(t, task.StatusStopped, ctx.Status())
	for i, v := range vs {
		assert.Equal(t, entity.StateIdle, v.State())
		assert.Equal(t, 0, v.SegmentIndex())
		assert.Empty(t, v.SatisfiedSigns())
		assert.Zero(t, v.StopTimer())
		assert.Same(t, paths[i], &v.Path()[0], "path is reused")
	}
	assert.Equal(t, first, run())
}
