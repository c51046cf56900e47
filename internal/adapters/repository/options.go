package repository

import "time"

type settings struct {
	indent      string
	busyTimeout time.Duration
}

func defaultSettings() settings {
	return settings{indent: "  ", busyTimeout: 10 * time.Second}
}

// Option configures a report store.
type Option func(*settings)

// WithIndent sets the JSON indentation of report files. Empty writes compact JSON.
func WithIndent(indent string) Option {
	return func(s *settings) {
		s.indent = indent
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}
