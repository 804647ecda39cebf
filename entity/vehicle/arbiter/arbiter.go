package arbiter

import (
	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/planar"
)

// Mode 右侧优先检查的场景
type Mode int32

const (
	// Approach 驶近路口时，对方为正在驶向路口的行驶车辆
	Approach Mode = iota
	// AfterStop 停车标志处停妥后，对方为同样在停车标志处停妥、等待通行的车辆
	AfterStop
)

// CarsWithRightOfWay 右侧优先检查
// 功能：找出位于自身右侧、享有路权的车辆
// 参数：self-自身状态，others-其他车辆的快照，p-仲裁参数，mode-检查场景
// 返回：享有路权的车辆ID列表，非空则自身需要让行
// 算法说明：
// 1. 右向量为自身朝向绕竖直轴旋转-90度
// 2. 按mode筛选参与仲裁的车辆
// 3. 对方需在CheckRadius内、相对位置单位向量与右向量点积大于RightDot、到路口中心距离小于NearCenter
// 说明：只依赖快照，与车辆遍历顺序无关；两车之间的"右侧"关系不对称，因此两车不会互相让行
func CarsWithRightOfWay(self entity.VehicleView, others []entity.VehicleView, p Params, mode Mode) []int32 {
	right := planar.RightOf(self.Heading)
	var res []int32
	for _, o := range others {
		if o.ID == self.ID || !contending(o, p, mode) {
			continue
		}
		dir, ok := planar.Direction(self.Position, o.Position)
		if !ok || planar.Distance(self.Position, o.Position) > p.CheckRadius {
			continue
		}
		if dir.Dot(right) <= p.RightDot {
			continue
		}
		if planar.Flat(o.Position).Len() >= p.NearCenter {
			continue
		}
		res = append(res, o.ID)
	}
	return res
}

func contending(o entity.VehicleView, p Params, mode Mode) bool {
	switch mode {
	case Approach:
		if o.State != entity.StateMoving {
			return false
		}
		toCenter, ok := planar.Direction(o.Position, mgl64.Vec3{})
		return ok && o.Heading.Dot(toCenter) > p.TowardDot
	case AfterStop:
		return o.State == entity.StateStopping &&
			o.YieldingTo.Kind == entity.KindSign &&
			o.StopTimer <= p.SignReadyTimer
	default:
		return false
	}
}

// DistanceToStop 到指定停车位置的有向距离，正值表示尚未到达
func DistanceToStop(v entity.VehicleView) float64 {
	return v.StopPosition.Sub(v.Position).Dot(v.ApproachDir)
}

// UpcomingControl 查找车辆即将到达的、要求其停车的交通控制
// 功能：车辆尚未进入路口，且停车位置在[-Reach, travel+Reach]范围内时，
// 返回第一个管辖该车辆、且未在此停过的停车标志或处于红灯的信号灯
// 参数：v-车辆状态，controls-全部交通控制，travel-本步行驶距离，p-仲裁参数
// 返回：交通控制、到停车位置的有向距离、是否找到
func UpcomingControl(v entity.VehicleView, controls []entity.IControl, travel float64, p Params) (entity.IControl, float64, bool) {
	if v.SegmentIndex != 0 {
		return nil, 0, false
	}
	d := DistanceToStop(v)
	if d < -p.Reach || d > travel+p.Reach {
		return nil, d, false
	}
	for _, c := range controls {
		if !c.Governs(v.ApproachDir, v.Entry) {
			continue
		}
		switch c.Kind() {
		case entity.KindSign:
			if !v.HasSatisfied(c.ID()) {
				return c, d, true
			}
		case entity.KindLight:
			if c.Phase() == entity.PhaseRed {
				return c, d, true
			}
		}
	}
	return nil, d, false
}

// RequiredToStop 车辆是否必须在前方的交通控制处停车（只读探测）
func RequiredToStop(v entity.VehicleView, controls []entity.IControl, p Params) bool {
	_, _, ok := UpcomingControl(v, controls, mathutil.INF, p)
	return ok
}

// Segment 路径片段
type Segment struct {
	From, To mgl64.Vec3
	Start    float64 // From处相对车辆当前位置的沿路径距离，已驶过的部分为负
}

// Length 片段长度
func (s Segment) Length() float64 {
	return planar.Distance(s.From, s.To)
}

// Lookahead 车辆剩余路径的考察窗口
// 功能：从当前位置到当前目标路径点的片段，加上之后的ahead个片段；
// withPrevious为真时在最前面加上从上一个路径点到当前位置的已驶过片段
func Lookahead(v entity.VehicleView, ahead int, withPrevious bool) []Segment {
	idx := v.SegmentIndex
	if idx >= len(v.Path) {
		return nil
	}
	segs := make([]Segment, 0, ahead+2)
	if withPrevious && idx > 0 {
		prev := v.Path[idx-1]
		segs = append(segs, Segment{From: prev, To: v.Position, Start: -planar.Distance(prev, v.Position)})
	}
	s := 0.
	from := v.Position
	for i := idx; i < len(v.Path) && i <= idx+ahead; i++ {
		seg := Segment{From: from, To: v.Path[i], Start: s}
		segs = append(segs, seg)
		s += seg.Length()
		from = v.Path[i]
	}
	return segs
}

// Conflict 冲突点
type Conflict struct {
	Point         mgl64.Vec3
	SelfDistance  float64 // 自身到冲突点的沿路径距离
	OtherDistance float64 // 对方到冲突点的沿路径距离，已越过时为负
}

// FindConflicts 计算两组路径片段在水平面上的全部交点
func FindConflicts(self, other []Segment) []Conflict {
	var res []Conflict
	for _, a := range self {
		for _, b := range other {
			point, t, u, ok := planar.SegmentIntersection(a.From, a.To, b.From, b.To)
			if !ok {
				continue
			}
			res = append(res, Conflict{
				Point:         point,
				SelfDistance:  a.Start + t*a.Length(),
				OtherDistance: b.Start + u*b.Length(),
			})
		}
	}
	return res
}

// MustYieldToPrivileged 是否需要让行优先通行车辆
// 功能：对每个不需要在自身前方交通控制处停车的行驶车辆，检查两车路径窗口是否相交，
// 并比较双方到达冲突点的时间
// 参数：self-自身状态，others-其他车辆的快照，controls-全部交通控制，p-仲裁参数
// 返回：需要让行的对方ID、是否需要让行
// 算法说明：
// 1. 自身窗口为当前片段加SelfLookahead个片段，对方窗口为已驶过片段、当前片段加OtherLookahead个片段
// 2. 每个交点按匀速估计双方到达时间
// 3. 对方时间不晚于自身时间+TimeBuffer，且对方越过冲突点不超过PassedMargin时让行
func MustYieldToPrivileged(self entity.VehicleView, others []entity.VehicleView, controls []entity.IControl, p Params) (int32, bool) {
	selfSegs := Lookahead(self, p.SelfLookahead, false)
	if len(selfSegs) == 0 {
		return 0, false
	}
	for _, o := range others {
		if o.ID == self.ID || o.State != entity.StateMoving || RequiredToStop(o, controls, p) {
			continue
		}
		for _, c := range FindConflicts(selfSegs, Lookahead(o, p.OtherLookahead, true)) {
			if c.OtherDistance < -p.PassedMargin {
				continue
			}
			selfTime := travelTime(c.SelfDistance, self.Speed)
			otherTime := travelTime(c.OtherDistance, o.Speed)
			if otherTime <= selfTime+p.TimeBuffer {
				return o.ID, true
			}
		}
	}
	return 0, false
}

func travelTime(distance, speed float64) float64 {
	if speed <= 0 {
		return mathutil.INF
	}
	return distance / speed
}

// MustYieldToOncoming 左转车是否需要让行对向直行车
// 功能：左转车尚未进入路口且接近路口时，检查对向驶来的直行车
// 返回：需要让行的对方ID、是否需要让行
// 说明：对方需朝向相反、尚未驶出路口，且到路口中心的距离不大于自身距离加OncomingMargin；
// 对方处于行驶状态，或正在停车标志前等待（随时可能出发，与自身同时出发会在路口中心相遇）
func MustYieldToOncoming(self entity.VehicleView, others []entity.VehicleView, p Params) (int32, bool) {
	if !self.IsLeftTurn || self.SegmentIndex != 0 {
		return 0, false
	}
	selfDist := planar.Flat(self.Position).Len()
	if selfDist > p.OncomingApproach {
		return 0, false
	}
	for _, o := range others {
		if o.ID == self.ID || !o.Straight() || o.SegmentIndex > 1 {
			continue
		}
		atSign := o.State == entity.StateStopping && o.YieldingTo.Kind == entity.KindSign
		if o.State != entity.StateMoving && !atSign {
			continue
		}
		if o.Heading.Dot(self.Heading) >= p.OncomingDot {
			continue
		}
		d := planar.Flat(o.Position).Len()
		if d <= p.OncomingRange && d <= selfDist+p.OncomingMargin {
			return o.ID, true
		}
	}
	return 0, false
}
