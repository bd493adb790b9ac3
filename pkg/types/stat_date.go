package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const statDateLayout = time.DateOnly

var statDateScanLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// StatDate is a calendar date (UTC midnight) used to partition relationship snapshots.
// It persists as a YYYY-MM-DD literal so Postgres DATE columns and SQLite TEXT
// columns compare the same way.
type StatDate struct {
	time.Time
}

// NewStatDate truncates t to its UTC calendar day.
func NewStatDate(t time.Time) StatDate {
	u := t.UTC()
	return StatDate{Time: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseStatDate parses a YYYY-MM-DD value.
func ParseStatDate(raw string) (StatDate, error) {
	parsed, err := time.Parse(statDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return StatDate{}, fmt.Errorf("stat date: invalid value %q", raw)
	}
	return NewStatDate(parsed), nil
}

// String renders the YYYY-MM-DD literal.
func (d StatDate) String() string {
	return d.Time.Format(statDateLayout)
}

// AddDays returns the date n calendar days away.
func (d StatDate) AddDays(n int) StatDate {
	return NewStatDate(d.Time.AddDate(0, 0, n))
}

// Equal reports whether both values name the same calendar day.
func (d StatDate) Equal(other StatDate) bool {
	return d.String() == other.String()
}

// GormDataType keeps the column typed as a calendar date.
func (StatDate) GormDataType() string {
	return "date"
}

// Value implements driver.Valuer.
func (d StatDate) Value() (driver.Value, error) {
	if d.Time.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *StatDate) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = StatDate{}
		return nil
	case time.Time:
		*d = NewStatDate(v)
		return nil
	case string:
		return d.fromText(v)
	case []byte:
		return d.fromText(string(v))
	default:
		return fmt.Errorf("stat date: unsupported scan type %T", value)
	}
}

func (d *StatDate) fromText(raw string) error {
	raw = strings.TrimSpace(raw)
	for _, layout := range statDateScanLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*d = NewStatDate(parsed)
			return nil
		}
	}
	return fmt.Errorf("stat date: unsupported text %q", raw)
}

// MarshalJSON renders the date as a YYYY-MM-DD string.
func (d StatDate) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a YYYY-MM-DD string or null.
func (d *StatDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*d = StatDate{}
		return nil
	}
	parsed, err := ParseStatDate(*raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
