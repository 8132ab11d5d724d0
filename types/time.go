package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Time represents a time.Time object that can be unmarshalled from an epoch
// number (seconds through nanoseconds, integer or decimal, quoted or not) or
// an RFC 3339 string. Venues disagree on timestamp representation; every
// normalized structure carries both an epoch-ms value and an ISO 8601 string
// derived from this type.
type Time time.Time

// UnmarshalJSON deserializes json timestamp information.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)

	switch s {
	case "null", "0", `""`, `"0"`:
		*t = Time(time.Time{})
		return nil
	}

	if s[0] == '"' {
		s = s[1 : len(s)-1]
	}

	badSyntax := false
	target := strings.IndexFunc(s, func(r rune) bool {
		if r == '.' {
			return true
		}
		badSyntax = r < '0' || r > '9'
		return badSyntax
	})

	if badSyntax {
		// Not an epoch number; fall back to RFC 3339.
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("cannot unmarshal %s into Time: %w", string(data), err)
		}
		*t = Time(parsed)
		return nil
	}

	if target != -1 {
		s = s[:target] + s[target+1:]
	}

	standard, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}

	switch len(s) {
	case 10:
		// Seconds
		*t = Time(time.Unix(standard, 0))
	case 11, 12:
		// Milliseconds: 1726104395.5 && 1726104395.56
		*t = Time(time.UnixMilli(standard * int64(math.Pow10(13-len(s)))))
	case 13:
		// Milliseconds
		*t = Time(time.UnixMilli(standard))
	case 14:
		// Microseconds: 1726106210903.0
		*t = Time(time.UnixMicro(standard * 100))
	case 16:
		// Microseconds
		*t = Time(time.UnixMicro(standard))
	case 17:
		// Nanoseconds: 1606292218213.4578
		*t = Time(time.Unix(0, standard*100))
	case 19:
		// Nanoseconds
		*t = Time(time.Unix(0, standard))
	default:
		return fmt.Errorf("cannot unmarshal %s into Time", string(data))
	}
	return nil
}

// Time represents a time instance.
func (t Time) Time() time.Time { return time.Time(t) }

// String returns a string representation of the time.
func (t Time) String() string {
	return t.Time().String()
}

// UnixMilli returns the canonical epoch-ms representation, or zero for the
// zero value.
func (t Time) UnixMilli() int64 {
	if t.Time().IsZero() {
		return 0
	}
	return t.Time().UnixMilli()
}

// ISO8601 returns the canonical UTC ISO 8601 representation with millisecond
// precision, or an empty string for the zero value.
func (t Time) ISO8601() string {
	if t.Time().IsZero() {
		return ""
	}
	return t.Time().UTC().Format("2006-01-02T15:04:05.000Z")
}

// MarshalJSON serializes the time to json.
func (t Time) MarshalJSON() ([]byte, error) {
	return t.Time().MarshalJSON()
}
