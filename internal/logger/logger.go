// Package logger wires the process-wide logrus instance used by every
// other package in this module. It mirrors the level/format conventions
// the CLI commands already assume (logrus.Info/Debugf/Warnf/Errorf).
package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the standard logrus logger for the given level
// string (one of the config.LogLevel* constants).
func InitLogger(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return nil
}
