package entity

import "github.com/go-gl/mathgl/mgl64"

// entity/control/control.go的依赖倒置
type IControl interface {
	ID() int32            // 获取ID
	Kind() ObjectKind     // 信号灯或停车标志
	Ref() ObjectRef       // 获取对象引用
	Position() mgl64.Vec3 // 获取位置
	Heading() mgl64.Vec3  // 获取朝向（管辖的驶入方向，无放置区域时为零向量）
	Phase() LightPhase    // 获取信号灯相位，停车标志为PhaseNone
	ZoneID() string       // 所在放置区域ID，可能为空
	String() string

	// 判断是否管辖以heading方向、在entry处进入路口的车辆
	Governs(heading, entry mgl64.Vec3) bool
}

// entity/control/manager.go的依赖倒置
type IControlManager interface {
	Get(id int32) IControl                 // 根据ID获取交通控制，不存在时panic
	GetOrError(id int32) (IControl, error) // 根据ID获取交通控制
	Controls() []IControl                  // 按创建顺序获取全部交通控制
	Has(id int32) bool                     // 是否存在
}

// entity/vehicle/manager.go的依赖倒置
type IVehicleManager interface {
	Views() []VehicleView // 按创建顺序获取全部车辆的快照视图
	Has(id int32) bool    // 是否存在
	Len() int             // 车辆数
}
