package config

import (
	log "github.com/sirupsen/logrus"
)

// SetupLogger configures the standard logrus logger from the log settings.
// Unknown levels fall back to info.
func SetupLogger(level, format string) {
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
