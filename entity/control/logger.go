package control

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "control")
