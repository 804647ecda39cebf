package vehicle

import "github.com/go-gl/mathgl/mgl64"

// Teleport 直接改写车辆位置与路径进度
func (v *Vehicle) Teleport(position mgl64.Vec3, segment int) {
	v.runtime.Position = position
	v.runtime.SegmentIndex = segment
}
