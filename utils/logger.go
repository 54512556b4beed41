package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

func InitLogger() {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	// Set output untuk InfoLogger ke stdout
	InfoLogger.SetOutput(os.Stdout)
	InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Set output untuk ErrorLogger ke stderr
	ErrorLogger.SetOutput(os.Stderr)
	ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	InfoLogger.SetLevel(logrus.InfoLevel)
	ErrorLogger.SetLevel(logrus.ErrorLevel)
}

// ConfigureLogger applies LOG_LEVEL and LOG_FORMAT to both loggers.
// Unknown levels keep the current one.
func ConfigureLogger(level, format string) {
	if InfoLogger == nil || ErrorLogger == nil {
		InitLogger()
	}

	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		InfoLogger.SetLevel(lvl)
		if lvl > logrus.ErrorLevel {
			ErrorLogger.SetLevel(logrus.ErrorLevel)
		} else {
			ErrorLogger.SetLevel(lvl)
		}
	}

	if strings.EqualFold(format, "json") {
		InfoLogger.SetFormatter(&logrus.JSONFormatter{})
		ErrorLogger.SetFormatter(&logrus.JSONFormatter{})
	}
}
