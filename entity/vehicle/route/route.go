// 车辆穿越路口的转向判定与路径生成
package route

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/planar"
)

const (
	straightDot  = .99 // 朝向与驶出方向点积大于该值视为直行
	turnDeadband = .1  // 叉积判定转向的死区
	leftTurnPull = .4  // 左转控制点沿进出方向延伸的比例（相对进出口距离）
	coincideDist = 1e-3
)

var (
	ErrDegenerateHeading = errors.New("degenerate heading")
	ErrCoincidentGoal    = errors.New("goal coincides with start or intersection center")
	ErrUTurn             = errors.New("u-turn is not supported")
	ErrNonFinite         = errors.New("coordinate is NaN or infinite")
)

// Turn 转向类型
type Turn int32

const (
	Straight Turn = iota
	Right
	Left
)

func (t Turn) String() string {
	switch t {
	case Straight:
		return "straight"
	case Right:
		return "right"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("Turn(%d)", int32(t))
	}
}

// Geometry 路径生成所需的路口几何参数
type Geometry struct {
	HalfWidth float64 // 路口半宽
	LaneWidth float64 // 车道宽度
	Segments  int     // 转弯曲线采样段数
}

// Route 车辆穿越路口的路线
// 说明：创建后不可修改，车辆重置时复用
type Route struct {
	Turn      Turn
	Heading   mgl64.Vec3   // 驶入方向（轴向单位向量）
	Exit      mgl64.Vec3   // 驶出方向（轴向单位向量）
	EntryAt   mgl64.Vec3   // 路口入口点
	ExitAt    mgl64.Vec3   // 路口出口点
	Goal      mgl64.Vec3   // 终点
	Waypoints []mgl64.Vec3 // 路径点序列，首个为入口点，末个为终点
}

func (r *Route) IsTurning() bool {
	return r.Turn != Straight
}

func (r *Route) IsLeftTurn() bool {
	return r.Turn == Left
}

func (r *Route) IsRightTurn() bool {
	return r.Turn == Right
}

// StopPosition 指定停车位置
// 功能：计算车辆在路口前停车时应占据的位置
// 参数：setback-停车点相对入口点后退的距离（半车长+间距）
func (r *Route) StopPosition(setback float64) mgl64.Vec3 {
	return r.EntryAt.Sub(r.Heading.Mul(setback))
}

// Length 路径总长（从入口点起算）
func (r *Route) Length() float64 {
	total := 0.
	for i := 1; i < len(r.Waypoints); i++ {
		total += planar.Distance(r.Waypoints[i-1], r.Waypoints[i])
	}
	return total
}

// Classify 转向判定
// 功能：根据驶入朝向与终点判定直行、右转或左转
// 参数：heading-驶入朝向，goal-终点
// 返回：转向类型、驶出方向、错误
// 算法说明：
// 1. 朝向吸附到最近坐标轴，退化朝向返回ErrDegenerateHeading
// 2. 驶出方向为终点相对路口中心的主轴方向，终点位于中心时返回ErrCoincidentGoal
// 3. 点积接近1为直行，接近-1为掉头（不支持）
// 4. 否则按竖直方向叉积的符号判定，正为右转，负为左转
func Classify(heading, goal mgl64.Vec3) (Turn, mgl64.Vec3, error) {
	h, ok := planar.Cardinal(heading)
	if !ok {
		return Straight, mgl64.Vec3{}, ErrDegenerateHeading
	}
	exit, ok := planar.Cardinal(goal)
	if !ok {
		return Straight, mgl64.Vec3{}, fmt.Errorf("%w: goal %v is at the intersection center", ErrCoincidentGoal, goal)
	}
	dot := h.Dot(exit)
	switch {
	case dot > straightDot:
		return Straight, exit, nil
	case dot < -straightDot:
		return Straight, exit, ErrUTurn
	}
	cross := planar.CrossY(h, exit)
	switch {
	case cross > turnDeadband:
		return Right, exit, nil
	case cross < -turnDeadband:
		return Left, exit, nil
	default:
		return Straight, exit, fmt.Errorf("%w: cannot classify heading %v toward %v", ErrDegenerateHeading, h, exit)
	}
}

// Build 生成路线
// 功能：根据起点、朝向与终点生成穿越路口的完整路径
// 参数：start-起点，heading-起始朝向，goal-终点，g-路口几何参数
// 返回：路线，参数非法时返回错误且不生成任何路径点
// 算法说明：
// 1. 转向判定
// 2. 入口点：驶入车道中心线与路口边界的交点
// 3. 出口点：驶出方向上的路口边界点，横向偏移与终点所在车道中心对齐
// 4. 直行：[入口, 出口, 终点]
// 5. 右转：以两车道中心线的交点为内角，二次贝塞尔升阶为三次曲线
// 6. 左转：沿驶入方向与驶出反方向延伸控制点，延伸长度为进出口距离的0.4倍
// 7. 曲线采样后去掉与入口重复的首点，最后追加终点
// 说明：任一坐标含NaN或±Inf时返回ErrNonFinite，不会生成含NaN的路径
func Build(start, heading, goal mgl64.Vec3, g Geometry) (*Route, error) {
	if !planar.Finite(start, heading, goal) {
		return nil, fmt.Errorf("%w: start %v, heading %v, goal %v", ErrNonFinite, start, heading, goal)
	}
	if planar.Distance(start, goal) < coincideDist {
		return nil, fmt.Errorf("%w: start %v equals goal", ErrCoincidentGoal, start)
	}
	turn, exit, err := Classify(heading, goal)
	if err != nil {
		return nil, err
	}
	h, _ := planar.Cardinal(heading)
	entry := entryPoint(start, h, g.HalfWidth)
	exitAt := exitPoint(start.Y(), exit, goal, g)

	r := &Route{
		Turn:    turn,
		Heading: h,
		Exit:    exit,
		EntryAt: entry,
		ExitAt:  exitAt,
		Goal:    goal,
	}
	switch turn {
	case Straight:
		r.Waypoints = []mgl64.Vec3{entry, exitAt, goal}
		return r, nil
	case Right:
		var corner mgl64.Vec3
		if planar.AlongX(h) {
			corner = mgl64.Vec3{exitAt.X(), entry.Y(), entry.Z()}
		} else {
			corner = mgl64.Vec3{entry.X(), entry.Y(), exitAt.Z()}
		}
		c1 := planar.Lerp(entry, corner, 2./3)
		c2 := planar.Lerp(exitAt, corner, 2./3)
		r.Waypoints = curvePath(entry, c1, c2, exitAt, goal, g.Segments)
	case Left:
		k := leftTurnPull * exitAt.Sub(entry).Len()
		c1 := entry.Add(h.Mul(k))
		c2 := exitAt.Sub(exit.Mul(k))
		r.Waypoints = curvePath(entry, c1, c2, exitAt, goal, g.Segments)
	}
	return r, nil
}

func entryPoint(start, h mgl64.Vec3, half float64) mgl64.Vec3 {
	if planar.AlongX(h) {
		return mgl64.Vec3{-planar.Sign(h.X()) * half, start.Y(), start.Z()}
	}
	return mgl64.Vec3{start.X(), start.Y(), -planar.Sign(h.Z()) * half}
}

func exitPoint(y float64, exit, goal mgl64.Vec3, g Geometry) mgl64.Vec3 {
	lateral := g.LaneWidth / 2
	if planar.AlongX(exit) {
		return mgl64.Vec3{planar.Sign(exit.X()) * g.HalfWidth, y, planar.Sign(goal.Z()) * lateral}
	}
	return mgl64.Vec3{planar.Sign(goal.X()) * lateral, y, planar.Sign(exit.Z()) * g.HalfWidth}
}

func curvePath(p0, c1, c2, p3, goal mgl64.Vec3, n int) []mgl64.Vec3 {
	samples := SampleCubic(p0, c1, c2, p3, n)
	path := make([]mgl64.Vec3, 0, len(samples)+1)
	path = append(path, p0)
	path = append(path, samples[1:]...)
	return append(path, goal)
}

// SampleCubic 三次贝塞尔曲线等参数采样
// 功能：在t=i/n(i=0..n)处采样，共n+1个点，首末点精确等于端点
func SampleCubic(p0, c1, c2, p3 mgl64.Vec3, n int) []mgl64.Vec3 {
	if n < 1 {
		n = 1
	}
	pts := make([]mgl64.Vec3, n+1)
	pts[0] = p0
	for i := 1; i < n; i++ {
		pts[i] = mgl64.CubicBezierCurve3D(float64(i)/float64(n), p0, c1, c2, p3)
	}
	pts[n] = p3
	return pts
}
