package storage

import (
	"strings"

	"feewatch/internal/clock"
)

// ErrorLog is the plain-text failure log, one "<timestamp> | <message>" line per failure.
type ErrorLog struct {
	appender
	clock clock.Clock
}

// NewErrorLog returns an error log writer for path. A nil clock uses the system clock.
func NewErrorLog(path string, fsync bool, c clock.Clock) *ErrorLog {
	if c == nil {
		c = clock.System()
	}
	return &ErrorLog{appender: appender{path: path, fsync: fsync}, clock: c}
}

// Path returns the backing file path.
func (l *ErrorLog) Path() string { return l.path }

// Log records message stamped with the current time.
func (l *ErrorLog) Log(message string) error {
	return l.Append(ErrorRecord{Timestamp: l.clock.NowISO(), Message: message})
}

// Append writes rec as one line; embedded newlines are folded into spaces.
func (l *ErrorLog) Append(rec ErrorRecord) error {
	return l.append(func(int64) ([]byte, error) {
		msg := strings.Join(strings.Fields(rec.Message), " ")
		return []byte(rec.Timestamp + " | " + msg + "\n"), nil
	})
}
