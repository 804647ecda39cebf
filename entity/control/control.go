package control

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/layout"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/planar"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/randengine"
)

// 放置区域方向与车辆朝向的匹配阈值（点积）
const zoneDirectionDot = .9

// Timing 信号灯配时
type Timing struct {
	Cycle       float64 // 周期长度（秒）
	GreenRatio  float64 // 绿灯比例
	YellowRatio float64 // 黄灯比例，其余为红灯
}

// PhaseAt 计算给定计时下的信号灯相位
// 功能：相位仅由 t mod Cycle 决定
// 算法说明：[0, G)为绿灯，[G, G+Y)为黄灯，其余为红灯，G与Y分别为绿灯与黄灯时长
func (tm Timing) PhaseAt(t float64) entity.LightPhase {
	m := math.Mod(t, tm.Cycle)
	if m < 0 {
		m += tm.Cycle
	}
	green := tm.GreenRatio * tm.Cycle
	switch {
	case m < green:
		return entity.PhaseGreen
	case m < green+tm.YellowRatio*tm.Cycle:
		return entity.PhaseYellow
	default:
		return entity.PhaseRed
	}
}

// PhaseAt 以默认比例（绿45%、黄10%、红45%）计算相位
func PhaseAt(t, cycle float64) entity.LightPhase {
	return Timing{Cycle: cycle, GreenRatio: .45, YellowRatio: .10}.PhaseAt(t)
}

// lightRuntime 信号灯运行时数据
type lightRuntime struct {
	CycleTimer float64           // 累计计时（含初始相位偏移）
	Phase      entity.LightPhase // 当前相位
}

// Control 交通控制（信号灯或停车标志）
// 功能：维护信号灯的周期计时与相位；停车标志无内部状态
// 说明：仅由时钟推进（信号灯）或重置修改
type Control struct {
	ctx entity.ITaskContext

	id       int32
	kind     entity.ObjectKind
	position mgl64.Vec3
	zone     *layout.Zone // 所在放置区域，记录管辖的驶入方向

	timing      Timing
	fixedOffset *float64
	generator   *randengine.Engine

	runtime lightRuntime
}

// newControl 创建交通控制
// 功能：初始化交通控制，信号灯按配置选取初始相位偏移
// 参数：ctx-任务上下文，id-对象ID，kind-信号灯或停车标志，position-位置，zone-放置区域（可选）
func newControl(ctx entity.ITaskContext, id int32, kind entity.ObjectKind, position mgl64.Vec3, zone *layout.Zone) *Control {
	rc := ctx.RuntimeConfig()
	c := &Control{
		ctx:      ctx,
		id:       id,
		kind:     kind,
		position: position,
		zone:     zone,
	}
	if kind == entity.KindLight {
		c.timing = Timing{Cycle: rc.Light.Cycle, GreenRatio: rc.Light.GreenRatio, YellowRatio: rc.Light.YellowRatio}
		c.fixedOffset = rc.Light.FixedOffset
		c.generator = randengine.New(rc.C.Seed + uint64(id))
		c.restart()
	}
	return c
}

func (c *Control) ID() int32 {
	return c.id
}

func (c *Control) Kind() entity.ObjectKind {
	return c.kind
}

func (c *Control) Ref() entity.ObjectRef {
	return entity.ObjectRef{Kind: c.kind, ID: c.id}
}

func (c *Control) Position() mgl64.Vec3 {
	return c.position
}

func (c *Control) Heading() mgl64.Vec3 {
	if c.zone == nil || len(c.zone.Directions) == 0 {
		return mgl64.Vec3{}
	}
	return c.zone.Directions[0]
}

func (c *Control) ZoneID() string {
	if c.zone == nil {
		return ""
	}
	return c.zone.ID
}

// Phase 获取信号灯当前相位，停车标志返回PhaseNone
func (c *Control) Phase() entity.LightPhase {
	if c.kind != entity.KindLight {
		return entity.PhaseNone
	}
	return c.runtime.Phase
}

// CycleTimer 获取信号灯累计计时
func (c *Control) CycleTimer() float64 {
	return c.runtime.CycleTimer
}

func (c *Control) String() string {
	return fmt.Sprintf("Control{id=%d, kind=%v, zone=%q, phase=%v}", c.id, c.kind, c.ZoneID(), c.Phase())
}

// Governs 判断是否管辖给定驶入方向的车辆
// 功能：确定车辆在入口点前是否需要服从本交通控制
// 参数：heading-车辆驶入方向，entry-车辆路口入口点
// 算法说明：
// 1. 有放置区域时，区域记录的任一方向与heading点积大于0.9即管辖
// 2. 无放置区域时，按位置判定：与入口点的水平距离小于路口半宽加半个车道宽即管辖
func (c *Control) Governs(heading, entry mgl64.Vec3) bool {
	if c.zone != nil {
		h := planar.Flat(heading)
		return lo.SomeBy(c.zone.Directions, func(d mgl64.Vec3) bool {
			return d.Dot(h) > zoneDirectionDot
		})
	}
	l := c.ctx.Layout()
	return planar.Distance(c.position, entry) < l.HalfWidth()+l.LaneWidth()/2
}

// update 推进信号灯计时并重新计算相位
func (c *Control) update(dt float64) {
	if c.kind != entity.KindLight {
		return
	}
	c.runtime.CycleTimer += dt
	phase := c.timing.PhaseAt(c.runtime.CycleTimer)
	if phase != c.runtime.Phase {
		log.Debugf("light %d: %v -> %v at cycle timer %.3f", c.id, c.runtime.Phase, phase, c.runtime.CycleTimer)
	}
	c.runtime.Phase = phase
}

// reset 重新选取初始相位偏移并立即计算相位，停车标志无操作
func (c *Control) reset() {
	if c.kind != entity.KindLight {
		return
	}
	c.restart()
}

func (c *Control) restart() {
	offset := lo.TernaryF(c.fixedOffset != nil,
		func() float64 { return *c.fixedOffset },
		func() float64 { return c.generator.Uniform(0, c.timing.Cycle) },
	)
	c.runtime = lightRuntime{CycleTimer: offset, Phase: c.timing.PhaseAt(offset)}
}
