package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without time of day, kept at UTC midnight.
//
// On the wire it is milliseconds since the Unix epoch, which is what the
// front end feeds into its date filters. Decoding also accepts "YYYY-MM-DD".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return Date{t}, nil
}

// DateFromMillis converts a millisecond epoch timestamp to its calendar day.
func DateFromMillis(ms int64) Date {
	return DateOf(time.UnixMilli(ms))
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Millis() int64 {
	return d.UnixMilli()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(d.Millis(), 10)), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseDate(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	ms, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid date %s", b)
	}
	*d = DateFromMillis(ms)
	return nil
}
