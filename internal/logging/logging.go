package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the shared logger. JSON output so job logs can be shipped and
// filtered by job_id; level comes from LOG_LEVEL (default info).
func New() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
