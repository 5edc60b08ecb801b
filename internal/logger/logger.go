// Package logger exposes one shared logrus instance for the whole process.
package logger

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	log  *logrus.Logger
	once sync.Once
)

// Get returns the shared logger, initializing it on first use. Output is
// JSON so log lines stay machine-parseable in every environment.
func Get() *logrus.Logger {
	once.Do(func() {
		log = logrus.New()
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	})
	return log
}
