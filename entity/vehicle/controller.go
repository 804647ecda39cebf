package vehicle

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/vehicle/arbiter"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/planar"
)

const (
	timerEpsilon  = 1e-6 // 计时小于该值视为到期
	maxExtensions = 8    // 随机延长上限随连续延长次数增长，增长到该次数为止
)

// update 更新阶段，执行车辆状态机
// 功能：根据当前状态处理停车计时、红灯等待与行驶
// 参数：dt-时间步长，views-全部车辆本步开始时的快照，controls-全部交通控制
// 算法说明：
// 1. Idle与Finished不做任何处理
// 2. Stopped：所等待的信号灯不再是红灯时恢复行驶，并在本步继续行驶
// 3. Stopping：计时递减，到期后依次检查优先通行车辆与（停车标志处的）右侧车辆，
// 任一需要让行则延长计时，否则恢复行驶并在本步继续行驶
// 4. Moving：先检查停车与让行，均不需要时沿路径前进speed*dt
// 说明：只修改自身runtime，其他车辆只通过快照读取，因此车辆之间的更新顺序不影响结果
func (v *Vehicle) update(dt float64, views []entity.VehicleView, controls []entity.IControl) {
	switch v.runtime.State {
	case entity.StateIdle, entity.StateFinished:
		return
	case entity.StateStopped:
		if !v.resumeFromLight() {
			return
		}
	case entity.StateStopping:
		if !v.countdown(dt, views, controls) {
			return
		}
	}
	if v.checkStop(dt, views, controls) {
		return
	}
	v.advance(v.speed * dt)
}

// resumeFromLight 红灯等待，返回是否恢复行驶
// 说明：没有记录信号灯或信号灯已被移除时记录警告并强制恢复行驶
func (v *Vehicle) resumeFromLight() bool {
	rt := &v.runtime
	ref := rt.YieldingTo
	if ref.Kind != entity.KindLight {
		log.Warnf("vehicle %d: stopped without a light (yielding to %v), force moving", v.id, ref)
		v.resume()
		return true
	}
	light, err := v.ctx.ControlManager().GetOrError(ref.ID)
	if err != nil {
		log.Warnf("vehicle %d: stopped at removed light %d, force moving", v.id, ref.ID)
		v.resume()
		return true
	}
	if light.Phase() == entity.PhaseRed {
		return false
	}
	log.Debugf("vehicle %d: light %d turned %v, stopped -> moving", v.id, ref.ID, light.Phase())
	v.resume()
	return true
}

// countdown 停车计时，返回是否恢复行驶
func (v *Vehicle) countdown(dt float64, views []entity.VehicleView, controls []entity.IControl) bool {
	rt := &v.runtime
	rt.StopTimer = max(0, rt.StopTimer-dt)
	if rt.HasTarget {
		rt.Position = rt.Target
	}
	if rt.StopTimer > timerEpsilon {
		return false
	}
	self := v.liveView()
	if id, ok := arbiter.MustYieldToPrivileged(self, views, controls, v.params); ok {
		v.extend(entity.ObjectRef{Kind: entity.KindVehicle, ID: id})
		return false
	}
	if rt.YieldingTo.Kind == entity.KindSign {
		if ids := arbiter.CarsWithRightOfWay(self, views, v.params.WithTick(dt), arbiter.AfterStop); len(ids) > 0 {
			v.extend(entity.ObjectRef{Kind: entity.KindVehicle, ID: ids[0]})
			return false
		}
		if !lo.Contains(rt.SatisfiedSigns, rt.YieldingTo.ID) {
			rt.SatisfiedSigns = append(rt.SatisfiedSigns, rt.YieldingTo.ID)
		}
	}
	log.Debugf("vehicle %d: stop for %v expired, stopping -> moving", v.id, rt.YieldingTo)
	v.resume()
	return true
}

// extend 停车到期但仍需让行，延长计时
// 说明：延长时长为固定部分加随机扰动，扰动上限随连续延长次数增长，
// 使同时到期、互相等待的车辆逐渐错开
func (v *Vehicle) extend(blocker entity.ObjectRef) {
	rt := &v.runtime
	rt.Extensions = min(rt.Extensions+1, maxExtensions)
	rt.StopTimer = v.cfg.YieldBuffer + v.generator.Jitter(v.cfg.YieldJitter*float64(rt.Extensions))
	log.Debugf("vehicle %d: yield to %v, extend stop by %.3f (waiting for %v)", v.id, blocker, rt.StopTimer, rt.YieldingTo)
}

// resume 恢复行驶
func (v *Vehicle) resume() {
	v.runtime.clearStop()
	v.runtime.State = entity.StateMoving
}

// checkStop 行驶前的停车与让行检查，返回是否转入停车
// 算法说明：
// 1. 本步将到达指定停车位置时：管辖本车且未停过的停车标志转入Stopping，红灯转入Stopped，均锁定在停车位置
// 2. 左转车让行对向直行车：转入Stopping，短暂停车，原地等待
// 3. 驶近但尚未进入路口时，右侧有驶向路口的车辆则让行：转入Stopping，原地等待
func (v *Vehicle) checkStop(dt float64, views []entity.VehicleView, controls []entity.IControl) bool {
	rt := &v.runtime
	self := v.liveView()
	if c, _, ok := arbiter.UpcomingControl(self, controls, v.speed*dt, v.params); ok {
		switch c.Kind() {
		case entity.KindSign:
			v.stopAt(entity.StateStopping, c.Ref(), v.cfg.StopSignDuration)
		case entity.KindLight:
			v.stopAt(entity.StateStopped, c.Ref(), 0)
		}
		log.Debugf("vehicle %d: %v ahead, moving -> %v", v.id, c, rt.State)
		return true
	}
	if id, ok := arbiter.MustYieldToOncoming(self, views, v.params); ok {
		v.hold(entity.ObjectRef{Kind: entity.KindVehicle, ID: id}, v.cfg.LeftTurnYield)
		return true
	}
	l := v.ctx.Layout()
	approaching := rt.SegmentIndex == 0 &&
		!l.Inside(rt.Position) &&
		l.DistanceToCenter(rt.Position) < l.HalfWidth()+v.cfg.Length
	if approaching {
		if ids := arbiter.CarsWithRightOfWay(self, views, v.params, arbiter.Approach); len(ids) > 0 {
			v.hold(
				entity.ObjectRef{Kind: entity.KindVehicle, ID: ids[0]},
				v.cfg.StopSignDuration*.5+v.cfg.YieldBuffer+v.generator.Jitter(v.cfg.YieldJitter),
			)
			return true
		}
	}
	return false
}

// stopAt 在指定停车位置停车
func (v *Vehicle) stopAt(state entity.VehicleState, ref entity.ObjectRef, timer float64) {
	rt := &v.runtime
	rt.State = state
	rt.StopTimer = timer
	rt.Position = v.stopPosition
	rt.HasTarget = true
	rt.Target = v.stopPosition
	rt.YieldingTo = ref
	rt.Extensions = 0
}

// hold 原地让行
func (v *Vehicle) hold(ref entity.ObjectRef, timer float64) {
	rt := &v.runtime
	rt.State = entity.StateStopping
	rt.StopTimer = timer
	rt.HasTarget = false
	rt.YieldingTo = ref
	rt.Extensions = 0
	log.Debugf("vehicle %d: yield to %v at %v for %.3f", v.id, ref, planar.Flat(rt.Position), timer)
}
