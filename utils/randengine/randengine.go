// 随机数引擎，包装了golang.org/x/exp/rand，为信号灯相位偏移与让行抖动提供可复现的随机源
package randengine

import (
	"flag"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：提供可设定种子的随机数生成，记录初始种子以支持重置后复现相同序列
// 说明：每个引擎只归一个信号灯或车辆所有，不做加锁
type Engine struct {
	*rand.Rand        // 底层随机数生成器
	seed       uint64 // 初始种子（含偏移量）
}

// New 创建随机数引擎
// 功能：初始化一个新的随机数引擎实例
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：种子偏移量允许在不修改配置的情况下整体调整随机数序列
func New(seed uint64) *Engine {
	s := seed + *seedOffset
	return &Engine{Rand: rand.New(rand.NewSource(s)), seed: s}
}

// Reseed 恢复到初始种子
// 功能：重新设置随机源，使后续序列与创建时完全一致
func (e *Engine) Reseed() {
	e.Seed(e.seed)
}

// Uniform 生成[lo, hi)范围内的均匀分布随机数
func (e *Engine) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*e.Float64()
}

// Jitter 生成[0, max)范围内的随机扰动，max<=0时返回0
func (e *Engine) Jitter(max float64) float64 {
	if max <= 0 {
		return 0
	}
	return max * e.Float64()
}
