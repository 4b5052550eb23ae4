package clock

import "time"

// ISOLayout renders second-precision ISO 8601 with an explicit numeric offset.
// UTC values always print as +00:00, never Z.
const ISOLayout = "2006-01-02T15:04:05-07:00"

// Clock returns the current instant. Components take one so tests can pin time.
type Clock func() time.Time

// System is the wall clock.
func System() Clock {
	return time.Now
}

// FormatISO converts t to UTC, drops sub-second precision and formats it with ISOLayout.
func FormatISO(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(ISOLayout)
}

// UTCNowISO is FormatISO applied to the current time.
func UTCNowISO() string {
	return FormatISO(time.Now())
}

// NowISO formats the clock's current reading.
func (c Clock) NowISO() string {
	if c == nil {
		return UTCNowISO()
	}
	return FormatISO(c())
}

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}
