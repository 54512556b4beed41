package services

import "time"

// Clock returns the current instant. Handlers sample it once per request.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now()
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type settings struct {
	clock Clock
	loc   *time.Location
}

type Option func(*settings)

func WithClock(clock Clock) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the zone visit dates and times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{clock: SystemClock, loc: time.UTC}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Now samples the clock in the configured location.
func (s settings) Now() time.Time {
	return s.clock().In(s.loc)
}

func (s settings) Location() *time.Location {
	return s.loc
}
