package control

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/layout"
)

// ControlManager 交通控制管理器
// 功能：按创建顺序管理所有信号灯与停车标志，每步先于车辆推进
type ControlManager struct {
	ctx entity.ITaskContext

	data *orderedmap.OrderedMap[int32, *Control]
}

// NewManager 创建交通控制管理器实例
func NewManager(ctx entity.ITaskContext) *ControlManager {
	return &ControlManager{
		ctx:  ctx,
		data: orderedmap.NewOrderedMap[int32, *Control](),
	}
}

// Add 添加交通控制
// 功能：创建新的信号灯或停车标志
// 参数：id-对象ID（由任务统一分配），kind-类型，position-位置，zone-放置区域（可选）
// 返回：新创建的交通控制
// 说明：ID重复或类型非法属于调用方错误，直接panic
func (m *ControlManager) Add(id int32, kind entity.ObjectKind, position mgl64.Vec3, zone *layout.Zone) *Control {
	if !kind.IsControl() {
		log.Panicf("control %d: invalid kind %v", id, kind)
	}
	if _, ok := m.data.Get(id); ok {
		log.Panicf("control ID %v already exists!", id)
	}
	c := newControl(m.ctx, id, kind, position, zone)
	m.data.Set(id, c)
	log.Debugf("add %v", c)
	return c
}

// Remove 移除交通控制，返回是否存在
func (m *ControlManager) Remove(id int32) bool {
	return m.data.Delete(id)
}

// RemoveAll 移除全部交通控制
func (m *ControlManager) RemoveAll() {
	m.data = orderedmap.NewOrderedMap[int32, *Control]()
}

// Get 根据ID获取交通控制
// 功能：通过ID查找对应的交通控制，如果不存在则panic
func (m *ControlManager) Get(id int32) entity.IControl {
	if c, ok := m.data.Get(id); !ok {
		log.Panicf("no id %d in control data", id)
		return nil
	} else {
		return c
	}
}

// GetOrError 根据ID获取交通控制（带错误处理）
// 功能：通过ID查找对应的交通控制，如果不存在则返回错误
func (m *ControlManager) GetOrError(id int32) (entity.IControl, error) {
	if c, ok := m.data.Get(id); !ok {
		return nil, fmt.Errorf("no id %d in control data", id)
	} else {
		return c, nil
	}
}

// Has 是否存在
func (m *ControlManager) Has(id int32) bool {
	_, ok := m.data.Get(id)
	return ok
}

// Len 交通控制数量
func (m *ControlManager) Len() int {
	return m.data.Len()
}

// Controls 按创建顺序获取全部交通控制
func (m *ControlManager) Controls() []entity.IControl {
	res := make([]entity.IControl, 0, m.data.Len())
	for el := m.data.Front(); el != nil; el = el.Next() {
		res = append(res, el.Value)
	}
	return res
}

// Update 更新阶段，推进所有信号灯
func (m *ControlManager) Update(dt float64) {
	for el := m.data.Front(); el != nil; el = el.Next() {
		el.Value.update(dt)
	}
}

// Reset 重置所有交通控制
func (m *ControlManager) Reset() {
	for el := m.data.Front(); el != nil; el = el.Next() {
		el.Value.reset()
	}
}
