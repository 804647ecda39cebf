// 车辆间路权仲裁：右侧优先、优先通行车辆、左转让直行
package arbiter

import "github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"

// Params 仲裁参数
type Params struct {
	HalfWidth float64 // 路口半宽
	Reach     float64 // 到达判定阈值，也是停车线前后的容差

	// 右侧优先
	CheckRadius    float64 // 只考虑该半径内的车辆
	RightDot       float64 // 相对位置与右向量点积大于该值视为位于右侧
	TowardDot      float64 // 朝向与指向路口中心方向点积大于该值视为驶向路口
	NearCenter     float64 // 对方到路口中心距离小于该值才参与仲裁
	SignReadyTimer float64 // 停车标志处计时小于该值视为已停妥、等待通行

	// 优先通行车辆
	SelfLookahead  int     // 自身向前考察的路段数
	OtherLookahead int     // 对方向前考察的路段数
	TimeBuffer     float64 // 对方到达冲突点的时间不晚于自身加该值则让行
	PassedMargin   float64 // 对方越过冲突点超过该距离则不再让行

	// 左转让对向直行
	OncomingApproach float64 // 左转车到路口中心距离小于该值时检查
	OncomingRange    float64 // 对向车到路口中心距离小于该值才考虑
	OncomingDot      float64 // 与对向车朝向点积小于该值视为对向
	OncomingMargin   float64 // 对向车比自身远不超过该值仍让行
}

// NewParams 根据运行时配置生成仲裁参数
// 说明：距离阈值以路口宽度与车长为单位
func NewParams(rc *config.RuntimeConfig) Params {
	half := rc.Layout.HalfWidth()
	length := rc.Vehicle.Length
	return Params{
		HalfWidth: half,
		Reach:     .05,

		CheckRadius:    rc.Layout.RoadWidth * 1.5,
		RightDot:       .5,
		TowardDot:      .5,
		NearCenter:     half + 3*length,
		SignReadyTimer: .05,

		SelfLookahead:  rc.Vehicle.SelfLookahead,
		OtherLookahead: rc.Vehicle.OtherLookahead,
		TimeBuffer:     .5,
		PassedMargin:   1,

		OncomingApproach: half + 2*length,
		OncomingRange:    half + 4*length,
		OncomingDot:      -.9,
		OncomingMargin:   1,
	}
}

// WithTick 按步长放宽停妥判定
// 功能：其他车辆的快照来自本步开始前，其计时在本步内还会减少dt，
// 因此快照计时不超过SignReadyTimer+dt的车辆在本步内即已停妥
func (p Params) WithTick(dt float64) Params {
	p.SignReadyTimer += dt
	return p
}
