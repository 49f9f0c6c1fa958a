package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 9, 30, 15, 123e6, time.UTC)

	tests := []struct {
		name    string
		s       string
		want    time.Time
		wantErr bool
		notTS   bool // the string is not a date/time value at all
	}{
		{name: "utc", s: "2024-05-01T09:30:15.123Z", want: want},
		{name: "offset", s: "2024-05-01T11:30:15.123+02:00", want: want},
		{name: "no offset", s: "2024-05-01T09:30:15", want: want.Truncate(time.Second)},
		{name: "no offset, fraction", s: "2024-05-01T09:30:15.1239", want: want},
		{name: "prefix, bad suffix", s: "2024-05-01T09:30:15.123Zlol", wantErr: true},
		{name: "prefix, out of range", s: "2024-13-45T25:99:99", wantErr: true},
		{name: "plain string", s: "hello", wantErr: true, notTS: true},
		{name: "date only", s: "2024-05-01", wantErr: true, notTS: true},
		{name: "empty", s: "", wantErr: true, notTS: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.s)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTimestamp(%q) = %v, want error", tt.s, got)
				}
				if isNotTS := errors.Cause(err) == ErrNotTimestamp; isNotTS != tt.notTS {
					t.Errorf("ParseTimestamp(%q) error = %v, want ErrNotTimestamp: %v", tt.s, err, tt.notTS)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tt.s, err)
			}
			if !got.Time().Equal(tt.want) || got.Time().Location() != time.UTC {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.s, got.Time(), tt.want)
			}
		})
	}
}

func TestTimestamp_JSON(t *testing.T) {
	tests := []struct {
		name string
		ts   Timestamp
		want string
	}{
		{name: "zero", ts: Timestamp{}, want: `null`},
		{name: "millisecond precision", ts: NewTimestamp(time.Date(2024, 5, 1, 11, 30, 15, 123456789, time.FixedZone("CEST", 2*3600))), want: `"2024-05-01T09:30:15.123Z"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.ts)
			if err != nil || string(data) != tt.want {
				t.Fatalf("json.Marshal() = %s, %v, want %s", data, err, tt.want)
			}
			var decoded Timestamp
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("json.Unmarshal(%s) error = %v", data, err)
			}
			if !decoded.Equal(tt.ts) {
				t.Errorf("round trip = %v, want %v", decoded, tt.ts)
			}
		})
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"not a date"`), &ts); errors.Cause(err) != ErrNotTimestamp {
		t.Errorf("json.Unmarshal() of a plain string error = %v, want %v", err, ErrNotTimestamp)
	}
}
