package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// LocalLayout is the zone-less wire format used for every date-time field.
	LocalLayout = "2006-01-02T15:04:05"
	// DateLayout is the wire format of calendar dates such as productionDate.
	DateLayout = "2006-01-02"
)

var inputLayouts = []string{
	LocalLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	DateLayout,
}

// ParseDateTime accepts the layouts browsers and admin forms send (datetime-local with or
// without seconds, RFC 3339, a bare date) and returns the instant in UTC.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date-time %q", s)
}

// DateTime is a wall-clock timestamp serialised without a zone.
type DateTime struct {
	time.Time
}

// NewDateTime wraps t, dropping sub-second precision.
func NewDateTime(t time.Time) *DateTime {
	return &DateTime{Time: t.UTC().Truncate(time.Second)}
}

// IsSet reports whether d holds a non-zero value.
func (d *DateTime) IsSet() bool {
	return d != nil && !d.IsZero()
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(LocalLayout))
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("datetime: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Date is a calendar day.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC.
func NewDate(t time.Time) *Date {
	y, m, day := t.UTC().Date()
	return &Date{Time: time.Date(y, m, day, 0, 0, 0, 0, time.UTC)}
}

func (d *Date) IsSet() bool {
	return d != nil && !d.IsZero()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	d.Time = NewDate(t).Time
	return nil
}
