// 水平面(XZ)几何工具，Y轴为竖直方向
package planar

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// 向量长度判零阈值
	epsilon = 1e-9
	// 方向退化判定阈值（长度平方），小于该值视为无法确定朝向
	degenerateLenSqr = 1e-3
)

// Up 竖直向上单位向量
var Up = mgl64.Vec3{0, 1, 0}

// Flat 将向量投影到水平面（Y置0）
func Flat(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

// Distance 计算两点在水平面上的距离
func Distance(a, b mgl64.Vec3) float64 {
	return Flat(b.Sub(a)).Len()
}

// Direction 计算从a指向b的水平单位向量
// 返回：单位向量与是否有效，两点重合时返回false
func Direction(a, b mgl64.Vec3) (mgl64.Vec3, bool) {
	d := Flat(b.Sub(a))
	if d.LenSqr() < degenerateLenSqr {
		return mgl64.Vec3{}, false
	}
	return d.Normalize(), true
}

// Finite 判断全部向量的各分量是否均为有限值（非NaN、非±Inf）
func Finite(vs ...mgl64.Vec3) bool {
	for _, v := range vs {
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}

// Degenerate 判断方向向量是否退化（长度近似为0）
func Degenerate(v mgl64.Vec3) bool {
	return v.LenSqr() < degenerateLenSqr
}

// RightOf 计算朝向heading的右侧单位向量
// 功能：将heading绕竖直轴旋转-90度，等价于heading×Up
// 说明：heading(0,0,-1)的右侧为(1,0,0)
func RightOf(heading mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{-heading.Z(), 0, heading.X()}
}

// CrossY 计算两个水平向量叉积的竖直分量 a.x*b.z - a.z*b.x
// 说明：正值表示b位于a的右侧
func CrossY(a, b mgl64.Vec3) float64 {
	return a.X()*b.Z() - a.Z()*b.X()
}

// Sign 符号函数，0返回0
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Cardinal 将水平方向吸附到最接近的坐标轴方向（±X/±Z）
// 功能：取|x|与|z|中较大的分量作为主轴方向
// 返回：轴向单位向量与是否有效，退化方向返回false
func Cardinal(v mgl64.Vec3) (mgl64.Vec3, bool) {
	f := Flat(v)
	if Degenerate(f) {
		return mgl64.Vec3{}, false
	}
	if math.Abs(f.X()) > math.Abs(f.Z()) {
		return mgl64.Vec3{Sign(f.X()), 0, 0}, true
	}
	return mgl64.Vec3{0, 0, Sign(f.Z())}, true
}

// AlongX 判断方向是否以X轴为主
func AlongX(v mgl64.Vec3) bool {
	return math.Abs(v.X()) > .5
}

// Lerp 线性插值 a + (b-a)*t
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// SegmentIntersection 计算水平面上线段p1p2与q1q2的交点
// 功能：使用参数方程 p1 + t*r = q1 + u*s 求解，t,u∈[0,1]时相交
// 参数：p1,p2-第一条线段端点，q1,q2-第二条线段端点
// 返回：交点（Y取p1的值）、两条线段上的参数t,u、是否相交
// 说明：平行或共线的线段视为不相交
func SegmentIntersection(p1, p2, q1, q2 mgl64.Vec3) (point mgl64.Vec3, t, u float64, ok bool) {
	r := Flat(p2.Sub(p1))
	s := Flat(q2.Sub(q1))
	denom := CrossY(r, s)
	if math.Abs(denom) < epsilon {
		return
	}
	qp := Flat(q1.Sub(p1))
	t = CrossY(qp, s) / denom
	u = CrossY(qp, r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return
	}
	point = p1.Add(r.Mul(t))
	ok = true
	return
}
