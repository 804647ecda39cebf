package vehicle

import "github.com/sirupsen/logrus"

// log 车辆模块的日志记录器
// 说明：使用logrus库，并添加"module"字段标识为"vehicle"模块
var log = logrus.WithField("module", "vehicle")
