package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrInvalidVisitDate = errors.New("invalid visit date, expected YYYY-MM-DD")
	ErrInvalidVisitTime = errors.New("invalid visit time, expected HH:MM")
)

// Slot is the date and wall-clock time a table is reserved for.
type Slot struct {
	Date datatypes.Date
	Time datatypes.Time
}

func NewSlot(year int, month time.Month, day, hour, minute int) Slot {
	return Slot{
		Date: datatypes.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC)),
		Time: datatypes.NewTime(hour, minute, 0, 0),
	}
}

// SlotAt returns the slot containing the wall-clock reading of t.
func SlotAt(t time.Time) Slot {
	return NewSlot(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute())
}

func ParseSlot(date, clock string) (Slot, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return Slot{}, ErrInvalidVisitDate
	}
	hour, minute, err := ParseVisitTime(clock)
	if err != nil {
		return Slot{}, err
	}
	return NewSlot(d.Year(), d.Month(), d.Day(), hour, minute), nil
}

// ParseVisitTime accepts HH:MM and HH:MM:SS; seconds are dropped.
func ParseVisitTime(clock string) (int, int, error) {
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, ErrInvalidVisitTime
}

// At combines date and time in loc.
func (s Slot) At(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := time.Time(s.Date).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(s.Time))
}

func (s Slot) DateString() string {
	return time.Time(s.Date).Format(DateLayout)
}

func (s Slot) TimeString() string {
	d := time.Duration(s.Time)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func (s Slot) String() string {
	return s.DateString() + " " + s.TimeString()
}
