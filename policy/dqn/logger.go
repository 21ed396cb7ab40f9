package dqn

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "policy/dqn")
