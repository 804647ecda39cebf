package task

import (
	"flag"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
)

const (
	SelfName = "crossroad" // 本程序的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// Tick 推进一步
// 功能：非运行状态下不做任何处理；否则按固定顺序推进时钟、交通控制与车辆
// 参数：dt-本步经过的时间（秒）
// 返回：是否推进
func (ctx *Context) Tick(dt float64) bool {
	if ctx.status != StatusRunning || !(dt > 0) {
		return false
	}
	ctx.prepare(dt)
	ctx.update(dt)
	return true
}

// prepare 准备阶段，每步执行一次
// 功能：在每个仿真步骤开始时进行准备工作
// 算法说明：
// 1. 更新时钟：增加内部步数并累加时间
// 2. 推进全部交通控制，信号灯相位变化在本步内对所有车辆可见
// 3. 生成全部车辆的快照，本步内所有车辆的仲裁均基于该快照
// 4. 按心跳间隔输出快照中各状态的车辆数
func (ctx *Context) prepare(dt float64) {
	ctx.clock.Advance(dt)
	log.Debugf("step %d: t=%.3f", ctx.clock.InternalStep, ctx.clock.T)
	ctx.controlManager.Update(dt)
	ctx.vehicleManager.Prepare()
	ctx.heartbeat()
}

// update 更新阶段，每步执行一次
// 功能：全部车辆根据快照执行状态机
func (ctx *Context) update(dt float64) {
	ctx.vehicleManager.Update(dt)
}

// heartbeat 心跳日志：定期输出时间与各状态车辆数，间隔不大于0时关闭
func (ctx *Context) heartbeat() {
	interval := int32(*heartBeatInterval)
	if interval <= 0 || ctx.clock.InternalStep%interval != 0 {
		return
	}
	hour, minute, second := ctx.clock.GetHourMinuteSecond()
	counts := lo.CountValuesBy(ctx.VehicleManager().Views(), func(v entity.VehicleView) entity.VehicleState {
		return v.State
	})
	log.Infof(
		"STEP: %d(%d:%d:%.2f) vehicles: moving=%d stopping=%d stopped=%d finished=%d",
		ctx.clock.InternalStep,
		hour, minute, second,
		counts[entity.StateMoving], counts[entity.StateStopping], counts[entity.StateStopped], counts[entity.StateFinished],
	)
	for _, s := range ctx.Frame() {
		log.Debugf("  %v", s)
	}
}

// Run 运行
// 功能：按场景初始化后开始仿真，以配置的步长推进到结束步或收到关闭指令
func (ctx *Context) Run() {
	// 初始化
	ctx.Init()
	ctx.Play()
	for !ctx.clock.Done() && !ctx.closed.Load() {
		if !ctx.Tick(ctx.clock.DT) {
			break
		}
	}
	log.Infof("engine complete at %v", ctx.clock)
	for _, s := range ctx.Frame() {
		log.Infof("  %v", s)
	}
}
