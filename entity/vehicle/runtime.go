package vehicle

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
)

// runtime 车辆运行时数据结构
// 功能：记录车辆在模拟过程中的所有可变状态
// 说明：该数据结构复制到snapshot时需深拷贝SatisfiedSigns
type runtime struct {
	State        entity.VehicleState
	Position     mgl64.Vec3
	Heading      mgl64.Vec3
	SegmentIndex int // 当前目标路径点下标，等于路径长度时已到达终点

	StopTimer  float64          // 停车剩余时间（秒），仅Stopping使用
	HasTarget  bool             // 停车期间是否锁定在指定停车位置
	Target     mgl64.Vec3       // 指定停车位置
	YieldingTo entity.ObjectRef // 当前要求本车停车的对象（交通控制或车辆）
	Extensions int              // 停车到期后连续延长的次数

	SatisfiedSigns []int32 // 已经停过车的停车标志
}

func (rt runtime) clone() runtime {
	rt.SatisfiedSigns = slices.Clone(rt.SatisfiedSigns)
	return rt
}

// clearStop 清除停车相关状态
func (rt *runtime) clearStop() {
	rt.StopTimer = 0
	rt.HasTarget = false
	rt.Target = mgl64.Vec3{}
	rt.YieldingTo = entity.ObjectRef{}
	rt.Extensions = 0
}
