package config

import (
	"errors"
	"fmt"
	"math"
)

// 默认值
const (
	DefaultRoadWidth        = 8.
	DefaultLaneWidth        = 2.
	DefaultRoadLength       = 20.
	DefaultVehicleLength    = 3.
	DefaultVehicleWidth     = 1.5
	DefaultSpeed            = 5.
	DefaultStopMargin       = .5
	DefaultStopSignDuration = 1.5
	DefaultPathSegments     = 8
	DefaultSelfLookahead    = 2
	DefaultOtherLookahead   = 3
	DefaultLeftTurnYield    = .5
	DefaultYieldBuffer      = .25
	DefaultYieldJitter      = .25
	DefaultCycle            = 10.
	DefaultGreenRatio       = .45
	DefaultYellowRatio      = .10
)

var ErrInvalidConfig = errors.New("invalid config")

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息，所有缺省项均已填充
// 说明：将YAML配置转换为运行时可用的配置对象，供各模块只读访问
type RuntimeConfig struct {
	All     Config  // 全部配置
	C       Control // 全局控制配置
	Layout  Layout  // 路口几何
	Vehicle Vehicle // 车辆参数
	Light   Light   // 信号灯参数
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，填充默认值并进行配置验证
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针，配置非法时返回错误
// 算法说明：
// 1. 对未设置（零值）的几何、车辆、信号灯参数填充默认值
// 2. 检查通行规则取值
// 3. 检查各尺寸、速度、周期为正，信号灯比例之和不超过1
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	rc := &RuntimeConfig{}

	l := config.Layout
	setDefault(&l.RoadWidth, DefaultRoadWidth)
	setDefault(&l.LaneWidth, DefaultLaneWidth)
	setDefault(&l.RoadLength, DefaultRoadLength)
	if l.LaneConvention == "" {
		l.LaneConvention = RightHand
	}

	v := config.Vehicle
	setDefault(&v.Length, DefaultVehicleLength)
	setDefault(&v.Width, DefaultVehicleWidth)
	setDefault(&v.Speed, DefaultSpeed)
	setDefault(&v.StopMargin, DefaultStopMargin)
	setDefault(&v.StopSignDuration, DefaultStopSignDuration)
	setDefault(&v.LeftTurnYield, DefaultLeftTurnYield)
	setDefault(&v.YieldBuffer, DefaultYieldBuffer)
	setDefault(&v.YieldJitter, DefaultYieldJitter)
	if v.PathSegments == 0 {
		v.PathSegments = DefaultPathSegments
	}
	if v.SelfLookahead == 0 {
		v.SelfLookahead = DefaultSelfLookahead
	}
	if v.OtherLookahead == 0 {
		v.OtherLookahead = DefaultOtherLookahead
	}

	lt := config.Light
	setDefault(&lt.Cycle, DefaultCycle)
	setDefault(&lt.GreenRatio, DefaultGreenRatio)
	setDefault(&lt.YellowRatio, DefaultYellowRatio)

	switch l.LaneConvention {
	case RightHand, LeftHand:
	default:
		return nil, fmt.Errorf("%w: lane_convention must be %s or %s, got %q", ErrInvalidConfig, RightHand, LeftHand, l.LaneConvention)
	}
	for name, x := range map[string]float64{
		"layout.road_width":          l.RoadWidth,
		"layout.lane_width":          l.LaneWidth,
		"layout.road_length":         l.RoadLength,
		"vehicle.length":             v.Length,
		"vehicle.width":              v.Width,
		"vehicle.speed":              v.Speed,
		"vehicle.stop_sign_duration": v.StopSignDuration,
		"vehicle.left_turn_yield":    v.LeftTurnYield,
		"light.cycle":                lt.Cycle,
		"light.green_ratio":          lt.GreenRatio,
		"control.step.interval":      config.Control.Step.Interval,
	} {
		// NaN与任何数比较均为false
		if !(x > 0) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: %s must be a positive finite number, got %v", ErrInvalidConfig, name, x)
		}
	}
	for name, x := range map[string]float64{
		"vehicle.stop_margin":  v.StopMargin,
		"vehicle.yield_buffer": v.YieldBuffer,
		"vehicle.yield_jitter": v.YieldJitter,
		"light.yellow_ratio":   lt.YellowRatio,
	} {
		if !(x >= 0) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: %s must be a non-negative finite number, got %v", ErrInvalidConfig, name, x)
		}
	}
	if lt.FixedOffset != nil && (math.IsNaN(*lt.FixedOffset) || math.IsInf(*lt.FixedOffset, 0)) {
		return nil, fmt.Errorf("%w: light.fixed_offset must be finite, got %v", ErrInvalidConfig, *lt.FixedOffset)
	}
	if v.PathSegments < 1 || v.SelfLookahead < 1 || v.OtherLookahead < 1 {
		return nil, fmt.Errorf("%w: vehicle.path_segments and lookahead windows must be at least 1, got %d, %d, %d",
			ErrInvalidConfig, v.PathSegments, v.SelfLookahead, v.OtherLookahead)
	}
	if lt.GreenRatio+lt.YellowRatio > 1 {
		return nil, fmt.Errorf("%w: green_ratio + yellow_ratio exceeds 1", ErrInvalidConfig)
	}
	if 2*l.LaneWidth > l.RoadWidth {
		return nil, fmt.Errorf("%w: two lanes of width %v do not fit a road of width %v", ErrInvalidConfig, l.LaneWidth, l.RoadWidth)
	}

	rc.All = config
	rc.C = config.Control
	rc.Layout = l
	rc.Vehicle = v
	rc.Light = lt
	return rc, nil
}

// HalfWidth 路口半宽
func (l Layout) HalfWidth() float64 {
	return l.RoadWidth / 2
}

// ArmEnd 道路末端到路口中心的距离
func (l Layout) ArmEnd() float64 {
	return l.HalfWidth() + l.RoadLength
}

func setDefault(x *float64, d float64) {
	if *x == 0 {
		*x = d
	}
}
