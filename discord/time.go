package discord

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Timestamp is a Discord ISO8601 timestamp that may be null.
type Timestamp time.Time

const TimestampFormat = time.RFC3339 // same as ISO8601

var (
	_ json.Unmarshaler = (*Timestamp)(nil)
	_ json.Marshaler   = (*Timestamp)(nil)
)

// NewTimestamp creates a new timestamp from the given time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// NowTimestamp creates a new timestamp with the current time.
func NowTimestamp() Timestamp {
	return NewTimestamp(time.Now())
}

func (t *Timestamp) UnmarshalJSON(v []byte) error {
	str := string(v)
	if str == "null" || str == `""` {
		return nil
	}

	r, err := time.Parse(`"`+TimestampFormat+`"`, str)
	if err != nil {
		return errors.Wrap(err, "failed to parse timestamp")
	}

	*t = Timestamp(r)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.IsValid() {
		return []byte("null"), nil
	}

	return []byte(`"` + t.Format(TimestampFormat) + `"`), nil
}

// IsValid returns true if the timestamp is not zero.
func (t Timestamp) IsValid() bool {
	return !t.Time().IsZero()
}

func (t Timestamp) Format(fmt string) string {
	return t.Time().Format(fmt)
}

func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// UnixTimestamp is a timestamp expressed in Unix seconds.
type UnixTimestamp int64

func (t UnixTimestamp) String() string {
	return t.Time().String()
}

func (t UnixTimestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// Seconds is a number of seconds, possibly fractional, as Discord sends in
// 429 bodies and rate-limit headers.
type Seconds float64

// DurationToSeconds converts a duration to Seconds.
func DurationToSeconds(dura time.Duration) Seconds {
	return Seconds(dura.Seconds())
}

func (s Seconds) String() string {
	return s.Duration().String()
}

func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

// Milliseconds is a number of milliseconds, as Discord sends for the
// heartbeat interval and the session start limit reset.
type Milliseconds float64

// DurationToMilliseconds converts a duration to Milliseconds.
func DurationToMilliseconds(dura time.Duration) Milliseconds {
	return Milliseconds(dura.Milliseconds())
}

func (ms Milliseconds) String() string {
	return ms.Duration().String()
}

func (ms Milliseconds) Duration() time.Duration {
	return time.Duration(float64(ms) * float64(time.Millisecond))
}
