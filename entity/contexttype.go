package entity

import (
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/clock"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/entity/layout"
	"github.com/tsinghua-fib-lab/crossroad-sim-oss/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	RuntimeConfig() *config.RuntimeConfig
	Layout() *layout.Layout
	ControlManager() IControlManager
	VehicleManager() IVehicleManager
}
