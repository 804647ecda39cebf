package control_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/clock"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/control"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/layout"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"
)

type fakeContext struct {
	rc     *config.RuntimeConfig
	layout *layout.Layout
}

func newFakeContext(t *testing.T, offset *float64) *fakeContext {
	c := config.Config{Control: config.Control{Step: config.ControlStep{Total: 100, Interval: .25}, Seed: 42}}
	c.Light.FixedOffset = offset
	rc, err := config.NewRuntimeConfig(c)
	require.NoError(t, err)
	return &fakeContext{rc: rc, layout: layout.New(rc.Layout)}
}

func (f *fakeContext) Clock() *clock.Clock                    { return nil }
func (f *fakeContext) RuntimeConfig() *config.RuntimeConfig   { return f.rc }
func (f *fakeContext) Layout() *layout.Layout                 { return f.layout }
func (f *fakeContext) ControlManager() entity.IControlManager { return nil }
func (f *fakeContext) VehicleManager() entity.IVehicleManager { return nil }

func TestPhaseAt(t *testing.T) {
	cases := map[float64]entity.LightPhase{
		0:     entity.PhaseGreen,
		4.49:  entity.PhaseGreen,
		4.5:   entity.PhaseYellow,
		5.49:  entity.PhaseYellow,
		5.5:   entity.PhaseRed,
		9.99:  entity.PhaseRed,
		10:    entity.PhaseGreen,
		25.2:  entity.PhaseYellow,
		-0.25: entity.PhaseRed,
	}
	for tt, want := range cases {
		assert.Equal(t, want, control.PhaseAt(tt, 10), "t=%v", tt)
	}
}

func TestLightCycle(t *testing.T) {
	offset := 5.5
	m := control.NewManager(newFakeContext(t, &offset))
	l := m.Add(1, entity.KindLight, mgl64.Vec3{5, 0, 5}, nil)
	assert.Equal(t, entity.PhaseRed, l.Phase())

	for i := 0; i < 17; i++ {
		m.Update(.25)
		assert.Equal(t, entity.PhaseRed, l.Phase())
	}
	m.Update(.25)
	assert.Equal(t, entity.PhaseGreen, l.Phase())
	assert.InDelta(t, 10., l.CycleTimer(), 1e-9)

	m.Reset()
	assert.Equal(t, 5.5, l.CycleTimer())
	assert.Equal(t, entity.PhaseRed, l.Phase())
}

func TestLightRandomOffset(t *testing.T) {
	a := control.NewManager(newFakeContext(t, nil)).Add(3, entity.KindLight, mgl64.Vec3{}, nil)
	b := control.NewManager(newFakeContext(t, nil)).Add(3, entity.KindLight, mgl64.Vec3{}, nil)
	assert.Equal(t, a.CycleTimer(), b.CycleTimer())
	assert.GreaterOrEqual(t, a.CycleTimer(), 0.)
	assert.Less(t, a.CycleTimer(), 10.)
	assert.Equal(t, control.PhaseAt(a.CycleTimer(), 10), a.Phase())

	m := control.NewManager(newFakeContext(t, nil))
	c := m.Add(3, entity.KindLight, mgl64.Vec3{}, nil)
	m.Update(1)
	m.Reset()
	assert.GreaterOrEqual(t, c.CycleTimer(), 0.)
	assert.Less(t, c.CycleTimer(), 10.)
	assert.Equal(t, control.PhaseAt(c.CycleTimer(), 10), c.Phase())
}

func TestSign(t *testing.T) {
	m := control.NewManager(newFakeContext(t, nil))
	s := m.Add(7, entity.KindSign, mgl64.Vec3{5, 0, 5}, nil)
	m.Update(3)
	m.Reset()
	assert.Equal(t, entity.PhaseNone, s.Phase())
	assert.Equal(t, entity.ObjectRef{Kind: entity.KindSign, ID: 7}, s.Ref())
}

func TestGoverns(t *testing.T) {
	ctx := newFakeContext(t, nil)
	m := control.NewManager(ctx)
	north := mgl64.Vec3{0, 0, -1}
	west := mgl64.Vec3{-1, 0, 0}

	// 无放置区域：按与入口点的距离判定
	s := m.Add(1, entity.KindSign, mgl64.Vec3{5, 0, 5}, nil)
	assert.True(t, s.Governs(north, mgl64.Vec3{1, 0, 4}))
	assert.False(t, s.Governs(west, mgl64.Vec3{4, 0, -1}))
	assert.False(t, s.Governs(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{-1, 0, -4}))

	// 放置区域：按区域记录的方向判定
	zone, err := ctx.layout.Zone("corner_se")
	require.NoError(t, err)
	z := m.Add(2, entity.KindSign, zone.Position, &zone)
	assert.True(t, z.Governs(north, mgl64.Vec3{100, 0, 100}))
	assert.False(t, z.Governs(west, mgl64.Vec3{4, 0, -1}))
	assert.Equal(t, "corner_se", z.ZoneID())
	assert.Equal(t, north, z.Heading())
}

func TestManager(t *testing.T) {
	m := control.NewManager(newFakeContext(t, nil))
	m.Add(5, entity.KindSign, mgl64.Vec3{}, nil)
	m.Add(2, entity.KindLight, mgl64.Vec3{}, nil)
	m.Add(9, entity.KindSign, mgl64.Vec3{}, nil)
	ids := []int32{}
	for _, c := range m.Controls() {
		ids = append(ids, c.ID())
	}
	assert.Equal(t, []int32{5, 2, 9}, ids)

	assert.True(t, m.Remove(2))
	assert.False(t, m.Remove(2))
	_, err := m.GetOrError(2)
	assert.Error(t, err)
	assert.Panics(t, func() { m.Get(2) })
	assert.Panics(t, func() { m.Add(5, entity.KindSign, mgl64.Vec3{}, nil) })
	assert.Panics(t, func() { m.Add(6, entity.KindVehicle, mgl64.Vec3{}, nil) })

	m.RemoveAll()
	assert.Equal(t, 0, m.Len())
}
