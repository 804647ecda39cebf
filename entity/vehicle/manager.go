package vehicle

import (
	"fmt"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
)

// VehicleManager 车辆管理器
// 功能：按创建顺序管理所有车辆，负责每步的快照与并行更新
type VehicleManager struct {
	ctx entity.ITaskContext

	data *orderedmap.OrderedMap[int32, *Vehicle]

	vehicles []*Vehicle           // 按创建顺序排列，增删车辆时刷新
	views    []entity.VehicleView // 本步开始时的全部车辆快照
}

// NewManager 创建车辆管理器实例
func NewManager(ctx entity.ITaskContext) *VehicleManager {
	return &VehicleManager{
		ctx:  ctx,
		data: orderedmap.NewOrderedMap[int32, *Vehicle](),
	}
}

// Add 添加车辆
// 功能：生成路线并创建车辆，新车辆处于未出发状态
// 参数：id-对象ID（由任务统一分配），start-起点，heading-起始朝向，goal-终点
// 返回：新创建的车辆，几何参数非法时返回错误且不创建车辆
// 说明：ID重复属于调用方错误，直接panic
func (m *VehicleManager) Add(id int32, start, heading, goal mgl64.Vec3) (*Vehicle, error) {
	if _, ok := m.data.Get(id); ok {
		log.Panicf("vehicle ID %v already exists!", id)
	}
	v, err := newVehicle(m.ctx, id, start, heading, goal)
	if err != nil {
		return nil, err
	}
	m.data.Set(id, v)
	m.refresh()
	log.Debugf("add %v", v)
	return v, nil
}

// Remove 移除车辆，返回是否存在
func (m *VehicleManager) Remove(id int32) bool {
	ok := m.data.Delete(id)
	if ok {
		m.refresh()
	}
	return ok
}

// RemoveAll 移除全部车辆
func (m *VehicleManager) RemoveAll() {
	m.data = orderedmap.NewOrderedMap[int32, *Vehicle]()
	m.refresh()
}

// Get 根据ID获取车辆
// 功能：通过ID查找对应的车辆，如果不存在则panic
func (m *VehicleManager) Get(id int32) *Vehicle {
	if v, ok := m.data.Get(id); !ok {
		log.Panicf("no id %d in vehicle data", id)
		return nil
	} else {
		return v
	}
}

// GetOrError 根据ID获取车辆（带错误处理）
func (m *VehicleManager) GetOrError(id int32) (*Vehicle, error) {
	if v, ok := m.data.Get(id); !ok {
		return nil, fmt.Errorf("no id %d in vehicle data", id)
	} else {
		return v, nil
	}
}

// Has 是否存在
func (m *VehicleManager) Has(id int32) bool {
	_, ok := m.data.Get(id)
	return ok
}

// Len 车辆数
func (m *VehicleManager) Len() int {
	return m.data.Len()
}

// Vehicles 按创建顺序获取全部车辆
func (m *VehicleManager) Vehicles() []*Vehicle {
	return m.vehicles
}

// Views 按创建顺序获取全部车辆本步开始时的快照视图
func (m *VehicleManager) Views() []entity.VehicleView {
	return m.views
}

// Activate 未出发的车辆全部开始行驶
// 返回：本次开始行驶的车辆数
func (m *VehicleManager) Activate() int {
	return lo.CountBy(m.vehicles, func(v *Vehicle) bool { return v.activate() })
}

// Prepare 准备阶段：snapshot更新
// 说明：所有车辆的快照在任何车辆更新之前生成，本步内所有仲裁都基于同一份快照
func (m *VehicleManager) Prepare() {
	parallel.GoFor(m.vehicles, func(v *Vehicle) { v.prepare() })
	m.views = lo.Map(m.vehicles, func(v *Vehicle, _ int) entity.VehicleView { return v.View() })
}

// Update 更新阶段
// 说明：车辆只修改自身runtime，可以并行更新
func (m *VehicleManager) Update(dt float64) {
	controls := m.ctx.ControlManager().Controls()
	parallel.GoFor(m.vehicles, func(v *Vehicle) { v.update(dt, m.views, controls) })
}

// Reset 全部车辆恢复到起点
func (m *VehicleManager) Reset() {
	for _, v := range m.vehicles {
		v.reset()
	}
	m.views = lo.Map(m.vehicles, func(v *Vehicle, _ int) entity.VehicleView { return v.View() })
}

func (m *VehicleManager) refresh() {
	m.vehicles = make([]*Vehicle, 0, m.data.Len())
	for el := m.data.Front(); el != nil; el = el.Next() {
		m.vehicles = append(m.vehicles, el.Value)
	}
	m.views = lo.Map(m.vehicles, func(v *Vehicle, _ int) entity.VehicleView { return v.View() })
}
