package vehicle

import (
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/planar"
)

// 到达路径点的判定阈值
const reachThreshold = .05

// advance 沿路径前进
// 功能：向当前目标路径点移动distance，到达或越过路径点时切换到下一个路径点并继续消耗剩余距离
// 参数：distance-本步行驶距离
// 算法说明：
// 1. 与目标距离不超过阈值：吸附到目标点，不消耗距离
// 2. 本步距离足以到达目标：移动到目标点，扣除已走距离
// 3. 否则沿目标方向移动全部距离
// 4. 切换目标后朝向改为指向新目标（方向退化时保持原朝向）；越过最后一个路径点时到达终点
func (v *Vehicle) advance(distance float64) {
	rt := &v.runtime
	path := v.route.Waypoints
	for rt.State == entity.StateMoving {
		target := path[rt.SegmentIndex]
		d := rt.Position.Sub(target).Len()
		if d <= reachThreshold || distance >= d {
			if d > reachThreshold {
				distance -= d
			}
			rt.Position = target
			rt.SegmentIndex++
			if rt.SegmentIndex >= len(path) {
				rt.SegmentIndex = len(path)
				rt.Position = path[len(path)-1]
				rt.State = entity.StateFinished
				log.Debugf("vehicle %d: moving -> finished", v.id)
				return
			}
			if dir, ok := planar.Direction(rt.Position, path[rt.SegmentIndex]); ok {
				rt.Heading = dir
			}
			if distance <= 0 {
				return
			}
			continue
		}
		dir := target.Sub(rt.Position).Mul(1 / d)
		rt.Position = rt.Position.Add(dir.Mul(distance))
		if h := planar.Flat(dir); !planar.Degenerate(h) {
			rt.Heading = h.Normalize()
		}
		return
	}
}
