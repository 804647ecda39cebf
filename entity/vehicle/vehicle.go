package vehicle

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/vehicle/arbiter"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/vehicle/route"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/randengine"
)

// Vehicle 车辆
// 功能：沿创建时生成的路径穿越路口，服从交通控制并与其他车辆协商路权
// 说明：路径创建后不可修改，重置时复用
type Vehicle struct {
	ctx entity.ITaskContext

	id            int32
	startPosition mgl64.Vec3
	startHeading  mgl64.Vec3
	route         *route.Route
	stopPosition  mgl64.Vec3 // 指定停车位置

	speed     float64
	cfg       config.Vehicle
	params    arbiter.Params
	generator *randengine.Engine // 让行延长的随机扰动

	snapshot, runtime runtime
}

// newVehicle 创建车辆
// 功能：生成路线并初始化为未出发状态
// 参数：ctx-任务上下文，id-对象ID，start-起点，heading-起始朝向，goal-终点
// 返回：车辆，几何参数非法时返回错误
func newVehicle(ctx entity.ITaskContext, id int32, start, heading, goal mgl64.Vec3) (*Vehicle, error) {
	rc := ctx.RuntimeConfig()
	l := ctx.Layout()
	r, err := route.Build(start, heading, goal, route.Geometry{
		HalfWidth: l.HalfWidth(),
		LaneWidth: l.LaneWidth(),
		Segments:  rc.Vehicle.PathSegments,
	})
	if err != nil {
		return nil, err
	}
	v := &Vehicle{
		ctx:           ctx,
		id:            id,
		startPosition: start,
		startHeading:  r.Heading,
		route:         r,
		stopPosition:  r.StopPosition(rc.Vehicle.Length/2 + rc.Vehicle.StopMargin),
		speed:         rc.Vehicle.Speed,
		cfg:           rc.Vehicle,
		params:        arbiter.NewParams(rc),
		generator:     randengine.New(rc.C.Seed + uint64(id)),
	}
	v.reset()
	return v, nil
}

func (v *Vehicle) ID() int32 {
	return v.id
}

func (v *Vehicle) Ref() entity.ObjectRef {
	return entity.ObjectRef{Kind: entity.KindVehicle, ID: v.id}
}

func (v *Vehicle) State() entity.VehicleState {
	return v.runtime.State
}

func (v *Vehicle) Position() mgl64.Vec3 {
	return v.runtime.Position
}

func (v *Vehicle) Heading() mgl64.Vec3 {
	return v.runtime.Heading
}

func (v *Vehicle) SegmentIndex() int {
	return v.runtime.SegmentIndex
}

func (v *Vehicle) StopTimer() float64 {
	return v.runtime.StopTimer
}

func (v *Vehicle) YieldingTo() entity.ObjectRef {
	return v.runtime.YieldingTo
}

// SatisfiedSigns 已经停过车的停车标志ID（副本）
func (v *Vehicle) SatisfiedSigns() []int32 {
	return v.runtime.clone().SatisfiedSigns
}

// Path 路径点序列
func (v *Vehicle) Path() []mgl64.Vec3 {
	return v.route.Waypoints
}

// Route 路线
func (v *Vehicle) Route() *route.Route {
	return v.route
}

// StopPosition 指定停车位置
func (v *Vehicle) StopPosition() mgl64.Vec3 {
	return v.stopPosition
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{id=%d, turn=%v, state=%v, seg=%d/%d}",
		v.id, v.route.Turn, v.runtime.State, v.runtime.SegmentIndex, len(v.route.Waypoints))
}

// view 根据运行时数据生成视图
func (v *Vehicle) view(rt runtime) entity.VehicleView {
	return entity.VehicleView{
		ID:             v.id,
		State:          rt.State,
		Position:       rt.Position,
		Heading:        rt.Heading,
		Speed:          v.speed,
		SegmentIndex:   rt.SegmentIndex,
		Path:           v.route.Waypoints,
		Entry:          v.route.EntryAt,
		StopPosition:   v.stopPosition,
		ApproachDir:    v.route.Heading,
		IsLeftTurn:     v.route.IsLeftTurn(),
		IsRightTurn:    v.route.IsRightTurn(),
		StopTimer:      rt.StopTimer,
		YieldingTo:     rt.YieldingTo,
		SatisfiedSigns: rt.SatisfiedSigns,
	}
}

// View 本步开始时的快照视图
func (v *Vehicle) View() entity.VehicleView {
	return v.view(v.snapshot)
}

// liveView 当前运行时视图，仅供自身决策使用
func (v *Vehicle) liveView() entity.VehicleView {
	return v.view(v.runtime)
}

// prepare 准备阶段，写入snapshot
func (v *Vehicle) prepare() {
	v.snapshot = v.runtime.clone()
}

// activate 未出发的车辆开始行驶
func (v *Vehicle) activate() bool {
	if v.runtime.State != entity.StateIdle {
		return false
	}
	v.runtime.State = entity.StateMoving
	log.Debugf("vehicle %d: idle -> moving", v.id)
	return true
}

// reset 恢复到起点
// 功能：位置与朝向恢复为起点，状态置为未出发，清除停车状态与已停过的停车标志，随机源恢复初始种子
func (v *Vehicle) reset() {
	v.runtime = runtime{
		State:    entity.StateIdle,
		Position: v.startPosition,
		Heading:  v.startHeading,
	}
	v.snapshot = v.runtime.clone()
	v.generator.Reseed()
}
