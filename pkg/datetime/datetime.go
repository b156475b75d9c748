// Package datetime provides standardized date and time handling across the application.
// Availability dates are calendar days in the hotel's local timezone (JST);
// they are stored and transmitted date-only in ISO 8601 format.
package datetime

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Standard date formats used throughout the application.
const (
	// DateFormat is the standard date-only format (YYYY-MM-DD).
	DateFormat = "2006-01-02"

	// DateTimeFormat is the standard datetime format (ISO 8601 / RFC3339).
	DateTimeFormat = time.RFC3339
)

// JST is the hotel's local timezone. Calendar days for availability checks
// roll over at midnight JST regardless of where the service runs.
var JST = time.FixedZone("Asia/Tokyo", 9*60*60)

// Date represents a date-only value (no time component).
// It serializes to/from JSON as "YYYY-MM-DD" format.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns today's date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// TodayJST returns the current calendar day in Japan Standard Time.
func TodayJST() Date {
	now := time.Now().In(JST)
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	t := d.AddDate(0, 0, n)
	return NewDate(t.Year(), t.Month(), t.Day())
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// Equal reports whether two dates fall on the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Year() == other.Year() && d.YearDay() == other.YearDay()
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateFormat))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), "\"")
	if s == "" || s == "null" {
		return nil
	}

	// Try date-only format first
	t, err := time.Parse(DateFormat, s)
	if err == nil {
		d.Time = t
		return nil
	}

	// Fall back to RFC3339 (extract date portion)
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	}

	return err
}

// Scan implements sql.Scanner so Date columns load directly into struct fields.
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		d.Time = parsed.Time
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		d.Time = parsed.Time
		return nil
	default:
		return fmt.Errorf("cannot scan %T into datetime.Date", value)
	}
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(DateFormat), nil
}

// String returns the date in YYYY-MM-DD format.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}

// DateTime represents a datetime value with timezone.
// It serializes to/from JSON as ISO 8601 / RFC3339 format.
type DateTime struct {
	time.Time
}

// Now returns the current datetime in UTC.
func Now() DateTime {
	return DateTime{time.Now().UTC()}
}

// ParseDateTime parses a datetime string in RFC3339 format.
func ParseDateTime(s string) (DateTime, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return DateTime{}, err
	}
	return DateTime{t}, nil
}

// MarshalJSON implements json.Marshaler.
func (dt DateTime) MarshalJSON() ([]byte, error) {
	if dt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(dt.UTC().Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler.
func (dt *DateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), "\"")
	if s == "" || s == "null" {
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Try date-only format as fallback
		t, err = time.Parse(DateFormat, s)
		if err != nil {
			return err
		}
	}
	dt.Time = t.UTC()
	return nil
}

// String returns the datetime in RFC3339 format.
func (dt DateTime) String() string {
	if dt.IsZero() {
		return ""
	}
	return dt.UTC().Format(time.RFC3339)
}

// ToDate extracts the date portion from a DateTime.
func (dt DateTime) ToDate() Date {
	return NewDate(dt.Year(), dt.Month(), dt.Day())
}
