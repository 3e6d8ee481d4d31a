package clock

import "time"

func Now() time.Time {
	return time.Now().UTC()
}

func FormatRFC3339Nano(now time.Time) string {
	return now.UTC().Format(time.RFC3339Nano)
}

func RFC3339NanoToTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (m RealClock) Now() time.Time {
	return Now()
}
