package core

import (
	"bytes"
	"encoding/json"
	"regexp"
	"time"

	"github.com/pkg/errors"
)

// TimestampLayout is the text form of every persisted date/time value (ISO-8601, UTC, milliseconds).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	// timestampPrefix tells date/time strings apart from ordinary strings when decoding.
	timestampPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)
	parseLayouts    = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"}

	ErrNotTimestamp = errors.New("not a date/time value")

	NowFunc = time.Now // mockable
)

// Timestamp is a point in time that survives a text round trip unchanged.
// The zero Timestamp encodes as JSON null.
type Timestamp struct {
	t time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC().Truncate(time.Millisecond)}
}

// Now returns the current Timestamp.
func Now() Timestamp { return NewTimestamp(NowFunc()) }

// ParseTimestamp parses s if it looks like a date/time value (YYYY-MM-DDTHH:MM:SS prefix).
func ParseTimestamp(s string) (Timestamp, error) {
	if !timestampPrefix.MatchString(s) {
		return Timestamp{}, errors.Wrapf(ErrNotTimestamp, "%q", s)
	}
	var lastErr error
	for _, layout := range parseLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return NewTimestamp(t), nil
		}
		lastErr = err
	}
	return Timestamp{}, errors.Wrapf(lastErr, "parsing timestamp %q", s)
}

func (ts Timestamp) Time() time.Time               { return ts.t }
func (ts Timestamp) IsZero() bool                  { return ts.t.IsZero() }
func (ts Timestamp) Equal(o Timestamp) bool        { return ts.t.Equal(o.t) }
func (ts Timestamp) Before(o Timestamp) bool       { return ts.t.Before(o.t) }
func (ts Timestamp) Sub(o Timestamp) time.Duration { return ts.t.Sub(o.t) }

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.t.UTC().Format(TimestampLayout)
}

func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

func (ts *Timestamp) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*ts = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(string(data))
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding timestamp")
	}
	return ts.UnmarshalText([]byte(s))
}
