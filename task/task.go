package task

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/clock"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/control"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/layout"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/input"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/planar"
)

var (
	ErrMissingStart     = errors.New("vehicle start position is missing")
	ErrMissingDirection = errors.New("vehicle start direction is missing")
	ErrMissingGoal      = errors.New("vehicle goal position is missing")
	ErrMissingPosition  = errors.New("control position is missing")
	ErrBadPosition      = errors.New("control position is NaN or infinite")
	ErrUnknownKind      = errors.New("unknown object kind")
	ErrDuplicateID      = errors.New("object id already exists")
	ErrNoObject         = errors.New("no such object")
)

// Status 仿真运行状态
type Status int32

const (
	StatusStopped Status = iota // 未开始或已重置
	StatusRunning
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态，替代全局变量
// 说明：管理时钟、路口布局、交通控制与车辆，并提供对象创建、删除与播放控制接口；
// 所有接口应在同一个驱动协程中调用
type Context struct {
	// 任务名
	job string
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock
	// 运行时配置
	runtimeConfig *config.RuntimeConfig
	// 路口布局
	layout *layout.Layout

	// 交通控制管理器
	controlManager *control.ControlManager
	// 车辆管理器
	vehicleManager *vehicle.VehicleManager

	// 下一个可分配的对象ID，车辆与交通控制共用
	nextID int32
	// 运行状态
	status Status

	// 用于初始化的输入
	initRes *input.Input
}

// NewContext 创建新的仿真任务上下文
// 功能：初始化仿真系统的所有组件和配置
// 参数：job-任务名称，c-配置对象
// 返回：初始化完成的Context实例，配置非法时返回错误
// 算法说明：
// 1. 填充默认值并校验配置
// 2. 初始化时钟与路口布局
// 3. 加载场景输入（失败时panic）
// 4. 创建交通控制与车辆管理器
func NewContext(job string, c config.Config) (*Context, error) {
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		return nil, err
	}
	ctx := &Context{
		job:           job,
		runtimeConfig: rc,
		nextID:        1,
		status:        StatusStopped,
	}
	ctx.clock = clock.New(c.Control.Step)
	ctx.layout = layout.New(rc.Layout)

	// 加载场景中的对象创建请求
	ctx.initRes = input.Init(c)

	ctx.controlManager = control.NewManager(ctx)
	ctx.vehicleManager = vehicle.NewManager(ctx)
	return ctx, nil
}

func (ctx *Context) Job() string {
	return ctx.job
}

func (ctx *Context) GetInput() *input.Input {
	return ctx.initRes
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Layout() *layout.Layout {
	return ctx.layout
}

func (ctx *Context) ControlManager() entity.IControlManager {
	return ctx.controlManager
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

// Vehicles 获取车辆管理器
func (ctx *Context) Vehicles() *vehicle.VehicleManager {
	return ctx.vehicleManager
}

// Controls 获取交通控制管理器
func (ctx *Context) Controls() *control.ControlManager {
	return ctx.controlManager
}

func (ctx *Context) Status() Status {
	return ctx.status
}

// Init 初始化
// 功能：重置时钟并按场景输入创建对象
// 说明：场景中非法的创建请求被逐个拒绝并记录警告，不影响其他对象
func (ctx *Context) Init() {
	ctx.clock.Init()
	if ctx.initRes == nil || ctx.initRes.Scenario == nil {
		return
	}
	if err := ctx.Load(ctx.initRes.Scenario); err != nil {
		log.Warnf("scenario partially loaded: %v", err)
	}
	log.Infof("Control: %v", ctx.controlManager.Len())
	log.Infof("Vehicle: %v", ctx.vehicleManager.Len())
}

// VehicleRequest 车辆创建请求
// 说明：ID为0时自动分配
type VehicleRequest struct {
	ID        int32
	Start     *mgl64.Vec3
	Direction *mgl64.Vec3
	Goal      *mgl64.Vec3
}

// CreateVehicle 创建车辆
// 功能：校验请求、生成路线并创建未出发的车辆
// 参数：req-创建请求
// 返回：新车辆ID；请求缺少数据或几何参数非法时返回错误，不创建任何对象
func (ctx *Context) CreateVehicle(req VehicleRequest) (int32, error) {
	id, err := ctx.createVehicle(req)
	if err != nil {
		log.Warnf("reject vehicle request: %v", err)
		return 0, err
	}
	return id, nil
}

func (ctx *Context) createVehicle(req VehicleRequest) (int32, error) {
	switch {
	case req.Start == nil:
		return 0, ErrMissingStart
	case req.Direction == nil:
		return 0, ErrMissingDirection
	case req.Goal == nil:
		return 0, ErrMissingGoal
	}
	id, err := ctx.allocate(req.ID)
	if err != nil {
		return 0, err
	}
	if _, err := ctx.vehicleManager.Add(id, *req.Start, *req.Direction, *req.Goal); err != nil {
		return 0, fmt.Errorf("vehicle %d: %w", id, err)
	}
	ctx.commit(id)
	return id, nil
}

// ControlOptions 交通控制创建选项
type ControlOptions struct {
	ID     int32  // 为0时自动分配
	ZoneID string // 转角放置区域，设置后交通控制位于区域位置并管辖区域记录的驶入方向
}

// CreateControl 创建交通控制
// 功能：在指定位置或转角放置区域创建信号灯或停车标志
// 参数：kind-类型，position-位置（设置了放置区域时可为空），opts-创建选项
// 返回：新交通控制ID；类型非法、缺少位置或放置区域不是转角时返回错误
func (ctx *Context) CreateControl(kind entity.ObjectKind, position *mgl64.Vec3, opts ControlOptions) (int32, error) {
	id, err := ctx.createControl(kind, position, opts)
	if err != nil {
		log.Warnf("reject %v request: %v", kind, err)
		return 0, err
	}
	return id, nil
}

func (ctx *Context) createControl(kind entity.ObjectKind, position *mgl64.Vec3, opts ControlOptions) (int32, error) {
	if !kind.IsControl() {
		return 0, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	var zone *layout.Zone
	if opts.ZoneID != "" {
		z, err := ctx.zone(opts.ZoneID, layout.ZoneCorner)
		if err != nil {
			return 0, err
		}
		zone = &z
		position = &z.Position
	}
	if position == nil {
		return 0, ErrMissingPosition
	}
	if !planar.Finite(*position) {
		return 0, fmt.Errorf("%w: %v", ErrBadPosition, *position)
	}
	id, err := ctx.allocate(opts.ID)
	if err != nil {
		return 0, err
	}
	ctx.controlManager.Add(id, kind, *position, zone)
	ctx.commit(id)
	return id, nil
}

// zone 获取指定类型的放置区域
func (ctx *Context) zone(id string, kind layout.ZoneKind) (layout.Zone, error) {
	z, err := ctx.layout.Zone(id)
	if err != nil {
		return layout.Zone{}, err
	}
	if z.Kind != kind {
		return layout.Zone{}, fmt.Errorf("%w: %q is a %v zone, want %v", layout.ErrUnknownZone, id, z.Kind, kind)
	}
	return z, nil
}

// allocate 选取对象ID，尚未提交
func (ctx *Context) allocate(id int32) (int32, error) {
	if id == 0 {
		return ctx.nextID, nil
	}
	if id < 0 {
		return 0, fmt.Errorf("invalid object id %d", id)
	}
	if ctx.vehicleManager.Has(id) || ctx.controlManager.Has(id) {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	return id, nil
}

// commit 对象创建成功后推进ID计数
func (ctx *Context) commit(id int32) {
	ctx.nextID = max(ctx.nextID, id+1)
}

// RemoveObject 移除车辆或交通控制
// 说明：被移除信号灯前等待的车辆在下一步记录警告并恢复行驶
func (ctx *Context) RemoveObject(id int32) error {
	if ctx.vehicleManager.Remove(id) || ctx.controlManager.Remove(id) {
		log.Debugf("remove object %d", id)
		return nil
	}
	return fmt.Errorf("%w: %d", ErrNoObject, id)
}

// RemoveAll 移除全部车辆与交通控制
func (ctx *Context) RemoveAll() {
	ctx.vehicleManager.RemoveAll()
	ctx.controlManager.RemoveAll()
	log.Debug("remove all objects")
}

// Play 开始或继续仿真
// 功能：进入运行状态，并使所有未出发的车辆开始行驶；停车中的车辆不受影响
func (ctx *Context) Play() {
	n := ctx.vehicleManager.Activate()
	log.Infof("play: %v -> %v, %d vehicles start moving", ctx.status, StatusRunning, n)
	ctx.status = StatusRunning
}

// Pause 暂停仿真，只停止推进时间
func (ctx *Context) Pause() {
	if ctx.status != StatusRunning {
		return
	}
	ctx.status = StatusPaused
	log.Infof("pause at %v", ctx.clock)
}

// Reset 重置仿真
// 功能：时钟回到起始步，全部车辆与交通控制恢复初始状态，已放置的对象保留
func (ctx *Context) Reset() {
	ctx.clock.Init()
	ctx.controlManager.Reset()
	ctx.vehicleManager.Reset()
	ctx.status = StatusStopped
	log.Info("reset")
}

// Frame 输出当前全部对象的位置、朝向与状态，按对象ID排序
func (ctx *Context) Frame() []entity.ObjectState {
	res := make([]entity.ObjectState, 0, ctx.controlManager.Len()+ctx.vehicleManager.Len())
	for _, c := range ctx.controlManager.Controls() {
		res = append(res, entity.ObjectState{
			Ref:      c.Ref(),
			Position: c.Position(),
			Heading:  c.Heading(),
			State:    lo.Ternary(c.Kind() == entity.KindLight, c.Phase().String(), "sign"),
		})
	}
	for _, v := range ctx.vehicleManager.Vehicles() {
		res = append(res, entity.ObjectState{
			Ref:      v.Ref(),
			Position: v.Position(),
			Heading:  v.Heading(),
			State:    v.State().String(),
		})
	}
	slices.SortFunc(res, func(a, b entity.ObjectState) int { return int(a.Ref.ID - b.Ref.ID) })
	return res
}

// Load 按场景创建对象
// 功能：依次处理场景中的创建请求，支持坐标与放置区域两种写法
// 返回：全部被拒绝请求的错误，其余对象照常创建
func (ctx *Context) Load(s *input.Scenario) error {
	var errs []error
	for i, obj := range s.Objects {
		if err := ctx.loadObject(obj); err != nil {
			errs = append(errs, fmt.Errorf("object #%d (%v): %w", i, obj, err))
		}
	}
	return errors.Join(errs...)
}

func (ctx *Context) loadObject(obj input.ObjectSpec) error {
	position, err := obj.Position.Vec3()
	if err != nil {
		return err
	}
	switch obj.Type {
	case input.TypeLight, input.TypeSign:
		kind := lo.Ternary(obj.Type == input.TypeLight, entity.KindLight, entity.KindSign)
		_, err := ctx.CreateControl(kind, position, ControlOptions{ID: obj.ID, ZoneID: obj.Zone})
		return err
	case input.TypeCar:
		req := VehicleRequest{ID: obj.ID, Start: position}
		if req.Direction, err = obj.Direction.Vec3(); err != nil {
			return err
		}
		if req.Goal, err = obj.Goal.Vec3(); err != nil {
			return err
		}
		if obj.Zone != "" {
			z, err := ctx.zone(obj.Zone, layout.ZoneStart)
			if err != nil {
				return err
			}
			req.Start = &z.Position
			req.Direction = &z.Directions[0]
		}
		if obj.GoalZone != "" {
			z, err := ctx.zone(obj.GoalZone, layout.ZoneGoal)
			if err != nil {
				return err
			}
			req.Goal = &z.Position
		}
		_, err := ctx.CreateVehicle(req)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, obj.Type)
	}
}

// Close 请求停止运行
func (ctx *Context) Close() {
	ctx.closed.Store(true)
}
