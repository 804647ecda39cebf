package input

import (
	"context"
	"errors"
	"fmt"
	"os"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v2"
)

// 场景对象类型
const (
	TypeCar   = "car"
	TypeLight = "light"
	TypeSign  = "sign"
)

var ErrBadPoint = errors.New("point must have exactly 3 components")

// Point 三维坐标，YAML中写作[x, y, z]
type Point []float64

// Vec3 转换为向量，空值返回nil
func (p Point) Vec3() (*mgl64.Vec3, error) {
	if p == nil {
		return nil, nil
	}
	if len(p) != 3 {
		return nil, fmt.Errorf("%w: %v", ErrBadPoint, []float64(p))
	}
	v := mgl64.Vec3{p[0], p[1], p[2]}
	return &v, nil
}

// ObjectSpec 场景中的一个对象创建请求
// 功能：描述一辆车（起点、朝向、终点）或一个交通控制（位置）
// 说明：车辆可以用放置区域代替坐标：zone为起点区域，goal_zone为终点区域；
// 交通控制的zone为转角区域。id为0时由模拟器分配
type ObjectSpec struct {
	ID        int32  `yaml:"id,omitempty" bson:"id,omitempty"`
	Type      string `yaml:"type" bson:"type"`
	Position  Point  `yaml:"position,flow,omitempty" bson:"position,omitempty"`
	Direction Point  `yaml:"direction,flow,omitempty" bson:"direction,omitempty"`
	Goal      Point  `yaml:"goal,flow,omitempty" bson:"goal,omitempty"`
	Zone      string `yaml:"zone,omitempty" bson:"zone,omitempty"`
	GoalZone  string `yaml:"goal_zone,omitempty" bson:"goal_zone,omitempty"`
}

func (s ObjectSpec) String() string {
	return fmt.Sprintf("ObjectSpec{id=%d, type=%s, position=%v, direction=%v, goal=%v, zone=%q, goal_zone=%q}",
		s.ID, s.Type, []float64(s.Position), []float64(s.Direction), []float64(s.Goal), s.Zone, s.GoalZone)
}

// Scenario 场景
type Scenario struct {
	Objects []ObjectSpec `yaml:"objects"`
}

// Input 输入数据
// 功能：存储仿真所需的所有输入数据
type Input struct {
	Scenario *Scenario
}

// Init 下载数据
// 功能：根据配置加载场景
// 参数：config-配置对象
// 返回：加载完成的输入数据指针
// 算法说明：
// 1. 未配置场景时返回空场景
// 2. 配置了文件路径时从YAML文件加载
// 3. 否则连接MongoDB，从{db}.{col}加载全部文档
// 说明：加载失败时直接panic
func Init(config config.Config) (res *Input) {
	res = &Input{Scenario: &Scenario{}}
	path := config.Input.Scenario
	if path == nil {
		log.Info("no scenario configured, start with an empty intersection")
		return
	}
	var err error
	if path.File != "" {
		res.Scenario, err = LoadFile(path.File)
		if err != nil {
			log.Panicf("failed to load scenario from file: %v", err)
		}
	} else {
		if config.Input.URI == "" {
			log.Panicf("scenario %s.%s needs input.uri", path.DB, path.Col)
		}
		client := mongoutil.NewClient(config.Input.URI)
		defer client.Disconnect(context.Background())
		log.Infof("start fetching from %s.%s", path.DB, path.Col)
		res.Scenario, err = LoadMongo(context.Background(), client.Database(path.GetDb()).Collection(path.GetColl()))
		if err != nil {
			log.Panicf("failed to load scenario from mongo: %v", err)
		}
		log.Infof("finish fetching from %s.%s", path.DB, path.Col)
	}
	log.Infof("scenario: %d objects", len(res.Scenario.Objects))
	return
}

// LoadFile 从YAML文件加载场景
func LoadFile(path string) (*Scenario, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(file)
}

// Parse 解析YAML场景，不允许未知字段
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadMongo 从MongoDB集合加载场景，每个文档为一个ObjectSpec
func LoadMongo(ctx context.Context, coll *mongo.Collection) (*Scenario, error) {
	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var objects []ObjectSpec
	if err := cursor.All(ctx, &objects); err != nil {
		return nil, err
	}
	return &Scenario{Objects: objects}, nil
}
