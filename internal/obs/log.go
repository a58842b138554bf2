// Package obs centralizes structured logging: one *logrus.Entry per
// subsystem, so call sites carry a "subsystem" field instead of every
// package constructing its own logger ad hoc.
package obs

import "github.com/sirupsen/logrus"

var root = logrus.New()

// For returns a logger scoped to subsystem, with a "subsystem" field
// attached to every record it emits.
func For(subsystem string) *logrus.Entry {
	return root.WithField("subsystem", subsystem)
}

// SetLevel adjusts the root logger's level; the CLI's --trace flag maps
// to Debug, everything else defaults to Info.
func SetLevel(level logrus.Level) {
	root.SetLevel(level)
}

// SetJSON switches the root logger between the default text formatter and
// JSON, for piping rvcsim's output into a log aggregator.
func SetJSON(json bool) {
	if json {
		root.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
