package entity

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// ObjectKind 仿真对象类型
type ObjectKind int32

const (
	KindUnspecified ObjectKind = iota
	KindLight                  // 信号灯
	KindSign                   // 停车标志
	KindVehicle                // 车辆
)

func (k ObjectKind) String() string {
	switch k {
	case KindLight:
		return "light"
	case KindSign:
		return "sign"
	case KindVehicle:
		return "vehicle"
	default:
		return "unspecified"
	}
}

// IsControl 是否为交通控制（信号灯或停车标志）
func (k ObjectKind) IsControl() bool {
	return k == KindLight || k == KindSign
}

// ObjectRef 对象引用
// 功能：以类型标签+ID引用一个仿真对象，替代直接持有对象指针
// 说明：零值表示空引用
type ObjectRef struct {
	Kind ObjectKind
	ID   int32
}

// Valid 是否为非空引用
func (r ObjectRef) Valid() bool {
	return r.Kind != KindUnspecified
}

func (r ObjectRef) String() string {
	if !r.Valid() {
		return "none"
	}
	return fmt.Sprintf("%v#%d", r.Kind, r.ID)
}

// LightPhase 信号灯相位
type LightPhase int32

const (
	PhaseNone LightPhase = iota // 非信号灯
	PhaseGreen
	PhaseYellow
	PhaseRed
)

func (p LightPhase) String() string {
	switch p {
	case PhaseGreen:
		return "green"
	case PhaseYellow:
		return "yellow"
	case PhaseRed:
		return "red"
	default:
		return "none"
	}
}

// VehicleState 车辆状态
type VehicleState int32

const (
	StateIdle     VehicleState = iota // 未出发
	StateMoving                       // 行驶
	StateStopping                     // 计时停车（停车标志、让行）
	StateStopped                      // 红灯停车，无计时
	StateFinished                     // 到达终点
)

func (s VehicleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMoving:
		return "moving"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("VehicleState(%d)", int32(s))
	}
}

// VehicleView 车辆只读视图
// 功能：车辆在本步开始时的状态快照，供其他车辆仲裁时读取
// 说明：Path在车辆创建后不再修改，可在视图间共享
type VehicleView struct {
	ID             int32
	State          VehicleState
	Position       mgl64.Vec3
	Heading        mgl64.Vec3
	Speed          float64
	SegmentIndex   int
	Path           []mgl64.Vec3
	Entry          mgl64.Vec3 // 路口入口点
	StopPosition   mgl64.Vec3 // 指定停车位置
	ApproachDir    mgl64.Vec3 // 驶入方向（轴向单位向量）
	IsLeftTurn     bool
	IsRightTurn    bool
	StopTimer      float64
	YieldingTo     ObjectRef
	SatisfiedSigns []int32
}

// Straight 是否直行
func (v VehicleView) Straight() bool {
	return !v.IsLeftTurn && !v.IsRightTurn
}

// HasSatisfied 是否已经在指定停车标志处停过车
func (v VehicleView) HasSatisfied(signID int32) bool {
	return lo.Contains(v.SatisfiedSigns, signID)
}

// ObjectState 仿真对象输出状态
// 功能：每步输出给渲染端的对象位置、朝向与状态
// 说明：State为车辆状态或信号灯相位，停车标志为"sign"
type ObjectState struct {
	Ref      ObjectRef
	Position mgl64.Vec3
	Heading  mgl64.Vec3
	State    string
}

func (s ObjectState) String() string {
	return fmt.Sprintf("%v@(%.2f,%.2f,%.2f):%s", s.Ref, s.Position.X(), s.Position.Y(), s.Position.Z(), s.State)
}
