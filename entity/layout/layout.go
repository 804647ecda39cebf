// 单个十字路口的几何布局与放置区域
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/planar"
)

var ErrUnknownZone = errors.New("unknown placement zone")

// ZoneKind 放置区域类型
type ZoneKind int32

const (
	ZoneStart  ZoneKind = iota + 1 // 驶入车道起点，车辆起点
	ZoneGoal                       // 驶出车道终点，车辆终点
	ZoneCorner                     // 路口转角，信号灯与停车标志
)

func (k ZoneKind) String() string {
	switch k {
	case ZoneStart:
		return "start"
	case ZoneGoal:
		return "goal"
	case ZoneCorner:
		return "corner"
	default:
		return "unspecified"
	}
}

// Zone 放置区域
// 功能：记录车辆端点或交通控制可以放置的固定位置
// 说明：Directions对于起点为行驶方向，对于终点为驶离路口的方向，
// 对于转角为其管辖的驶入方向（车辆朝向）
type Zone struct {
	ID         string
	Kind       ZoneKind
	Position   mgl64.Vec3
	Directions []mgl64.Vec3
}

// 四个路臂，按北东南西的顺序，北为-Z方向
var arms = []struct {
	name string
	dir  mgl64.Vec3
}{
	{"north", mgl64.Vec3{0, 0, -1}},
	{"east", mgl64.Vec3{1, 0, 0}},
	{"south", mgl64.Vec3{0, 0, 1}},
	{"west", mgl64.Vec3{-1, 0, 0}},
}

// Layout 路口布局
// 功能：提供路口尺寸、车道侧向偏移与全部放置区域
// 说明：创建后只读
type Layout struct {
	cfg   config.Layout
	zones []Zone
	index map[string]int
}

// New 根据配置创建路口布局
// 功能：生成4个驶入车道起点、4个驶出车道终点与4个转角区域
// 参数：cfg-路口几何配置（已填充默认值）
// 返回：路口布局
// 算法说明：
// 1. 对每个路臂方向d，驶入方向为h=-d，起点位于路臂末端，并按通行规则偏向h的行驶侧半个车道
// 2. 终点位于同一路臂末端，偏向d的行驶侧半个车道
// 3. 转角位于驶入车道行驶侧、路口边界外1个单位处，管辖该驶入方向
func New(cfg config.Layout) *Layout {
	l := &Layout{cfg: cfg, index: make(map[string]int)}
	armEnd := cfg.ArmEnd()
	cornerOffset := cfg.HalfWidth() + 1
	for _, arm := range arms {
		h := arm.dir.Mul(-1)
		l.add(Zone{
			ID:         "start_" + arm.name,
			Kind:       ZoneStart,
			Position:   arm.dir.Mul(armEnd).Add(l.LaneOffset(h)),
			Directions: []mgl64.Vec3{h},
		})
		l.add(Zone{
			ID:         "goal_" + arm.name,
			Kind:       ZoneGoal,
			Position:   arm.dir.Mul(armEnd).Add(l.LaneOffset(arm.dir)),
			Directions: []mgl64.Vec3{arm.dir},
		})
	}
	for _, arm := range arms {
		h := arm.dir.Mul(-1)
		pos := arm.dir.Add(l.Side(h)).Mul(cornerOffset)
		l.add(Zone{
			ID:         "corner_" + cornerName(pos),
			Kind:       ZoneCorner,
			Position:   pos,
			Directions: []mgl64.Vec3{h},
		})
	}
	return l
}

func (l *Layout) add(z Zone) {
	l.index[z.ID] = len(l.zones)
	l.zones = append(l.zones, z)
}

func cornerName(p mgl64.Vec3) string {
	ns := lo.Ternary(p.Z() < 0, "n", "s")
	ew := lo.Ternary(p.X() > 0, "e", "w")
	return ns + ew
}

// Config 获取路口几何配置
func (l *Layout) Config() config.Layout {
	return l.cfg
}

// HalfWidth 路口半宽
func (l *Layout) HalfWidth() float64 {
	return l.cfg.HalfWidth()
}

// LaneWidth 车道宽度
func (l *Layout) LaneWidth() float64 {
	return l.cfg.LaneWidth
}

// Side 行驶侧单位向量
// 功能：返回朝向heading行驶时车道所在一侧的水平单位向量
// 说明：靠右行驶为heading的右侧，靠左行驶为左侧
func (l *Layout) Side(heading mgl64.Vec3) mgl64.Vec3 {
	r := planar.RightOf(heading)
	if l.cfg.LaneConvention == config.LeftHand {
		return r.Mul(-1)
	}
	return r
}

// LaneOffset 车道中心相对道路中线的偏移向量
func (l *Layout) LaneOffset(heading mgl64.Vec3) mgl64.Vec3 {
	return l.Side(heading).Mul(l.cfg.LaneWidth / 2)
}

// Zones 获取全部放置区域
func (l *Layout) Zones() []Zone {
	return l.zones
}

// Zone 根据ID获取放置区域
func (l *Layout) Zone(id string) (Zone, error) {
	if i, ok := l.index[id]; ok {
		return l.zones[i], nil
	}
	return Zone{}, fmt.Errorf("%w: %q", ErrUnknownZone, id)
}

// ZonesOf 获取指定类型的放置区域
func (l *Layout) ZonesOf(kind ZoneKind) []Zone {
	return lo.Filter(l.zones, func(z Zone, _ int) bool { return z.Kind == kind })
}

// Inside 判断点是否位于路口中心区域内（含边界）
func (l *Layout) Inside(p mgl64.Vec3) bool {
	half := l.HalfWidth()
	return math.Abs(p.X()) <= half && math.Abs(p.Z()) <= half
}

// DistanceToCenter 点到路口中心的水平距离
func (l *Layout) DistanceToCenter(p mgl64.Vec3) float64 {
	return planar.Flat(p).Len()
}
