package config

import (
	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger for a role. Unknown levels fall back
// to info rather than failing startup.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
