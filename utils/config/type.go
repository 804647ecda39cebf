package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义场景数据输入路径的配置结构，支持多种数据源
// 说明：File非空时优先从文件加载，否则从MongoDB的{db}.{col}加载
type InputPath struct {
	DB   string `yaml:"db"`             // 数据库名
	Col  string `yaml:"col"`            // 集合名
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// Input 指定模拟器所有输入数据的配置项
// 功能：定义仿真系统的输入数据配置
// 说明：场景为空时仅创建空路口，对象可以之后通过接口添加
type Input struct {
	URI      string     `yaml:"uri,omitempty"`      // MongoDB连接字符串
	Scenario *InputPath `yaml:"scenario,omitempty"` // 场景（车辆与交通控制的创建请求）
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
// 功能：定义仿真时间控制参数
// 说明：控制仿真的时间范围和步长
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
type Control struct {
	Step ControlStep `yaml:"step"`
	Seed uint64      `yaml:"seed,omitempty"` // 随机数种子，信号灯初始相位与让行抖动均由此派生
}

// 车道通行规则
const (
	RightHand = "right_hand" // 靠右行驶
	LeftHand  = "left_hand"  // 靠左行驶
)

// Layout 路口几何配置
// 功能：定义单个十字路口的尺寸与通行规则
// 说明：路口中心位于原点，四个方向的道路分别沿±X、±Z延伸
type Layout struct {
	RoadWidth      float64 `yaml:"road_width,omitempty"`      // 道路宽度（双向），路口半宽为其一半
	LaneWidth      float64 `yaml:"lane_width,omitempty"`      // 车道宽度
	RoadLength     float64 `yaml:"road_length,omitempty"`     // 路口外道路长度
	LaneConvention string  `yaml:"lane_convention,omitempty"` // 通行规则，right_hand或left_hand
}

// Vehicle 车辆参数配置
type Vehicle struct {
	Length           float64 `yaml:"length,omitempty"`             // 车长
	Width            float64 `yaml:"width,omitempty"`              // 车宽
	Speed            float64 `yaml:"speed,omitempty"`              // 匀速行驶速度
	StopMargin       float64 `yaml:"stop_margin,omitempty"`        // 停车点与路口边界之间的额外间距
	StopSignDuration float64 `yaml:"stop_sign_duration,omitempty"` // 停车标志处的停车时长（秒）
	PathSegments     int     `yaml:"path_segments,omitempty"`      // 转弯曲线采样段数
	SelfLookahead    int     `yaml:"self_lookahead,omitempty"`     // 优先通行检查中自身当前片段之后考察的片段数
	OtherLookahead   int     `yaml:"other_lookahead,omitempty"`    // 优先通行检查中对方当前片段之后考察的片段数
	LeftTurnYield    float64 `yaml:"left_turn_yield,omitempty"`    // 左转让行对向直行车的等待时长（秒）
	YieldBuffer      float64 `yaml:"yield_buffer,omitempty"`       // 让行延长的固定部分（秒）
	YieldJitter      float64 `yaml:"yield_jitter,omitempty"`       // 让行延长的随机部分上限（秒）
}

// Light 信号灯配置
type Light struct {
	Cycle       float64  `yaml:"cycle,omitempty"`        // 周期长度（秒）
	GreenRatio  float64  `yaml:"green_ratio,omitempty"`  // 绿灯占周期的比例
	YellowRatio float64  `yaml:"yellow_ratio,omitempty"` // 黄灯占周期的比例，其余为红灯
	FixedOffset *float64 `yaml:"fixed_offset,omitempty"` // 固定初始相位偏移，为空时随机选取
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：除control外均可省略，省略项由NewRuntimeConfig填充默认值
type Config struct {
	Input   Input   `yaml:"input"`             // 输入
	Control Control `yaml:"control"`           // 模拟过程控制
	Layout  Layout  `yaml:"layout,omitempty"`  // 路口几何
	Vehicle Vehicle `yaml:"vehicle,omitempty"` // 车辆参数
	Light   Light   `yaml:"light,omitempty"`   // 信号灯参数
}
