package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the process-wide logrus logger.
func Setup(level, format string) {
	logrus.SetOutput(os.Stdout)

	if format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("Unknown log level, using info")
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}

// For returns a logger tagged with the given component name.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}

// MaskToken shortens a device token for log lines and API listings.
func MaskToken(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
