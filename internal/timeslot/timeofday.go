package timeslot

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date or timezone, second
// resolution, as used for appointment slots and schedule windows.
type TimeOfDay struct {
	sec int // seconds since midnight
}

func NewTimeOfDay(hour, minute, second int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %02d:%02d:%02d", hour, minute, second)
	}
	return TimeOfDay{sec: hour*3600 + minute*60 + second}, nil
}

// ParseTimeOfDay accepts "15:04" and "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
		}
	}
	return TimeOfDay{sec: t.Hour()*3600 + t.Minute()*60 + t.Second()}, nil
}

func (t TimeOfDay) Hour() int   { return t.sec / 3600 }
func (t TimeOfDay) Minute() int { return (t.sec % 3600) / 60 }
func (t TimeOfDay) Second() int { return t.sec % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

func (t TimeOfDay) Equal(o TimeOfDay) bool {
	return t.sec == o.sec
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.sec < o.sec
}

func (t TimeOfDay) After(o TimeOfDay) bool {
	return t.sec > o.sec
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer for TIME columns.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner for TIME columns.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case time.Time:
		tod, err := NewTimeOfDay(v.Hour(), v.Minute(), v.Second())
		if err != nil {
			return err
		}
		*t = tod
		return nil
	case int64:
		// pgx decodes TIME as microseconds since midnight.
		*t = TimeOfDay{sec: int(v / 1_000_000)}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timeslot.TimeOfDay", src)
	}
}
