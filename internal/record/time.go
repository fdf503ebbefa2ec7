package record

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Timestamp is an instant encoded as whole seconds since the Unix epoch.
// Sub-second precision is dropped on construction; rows persisted by earlier
// versions of the cache use the same encoding.
type Timestamp struct {
	time.Time
}

// At truncates t to whole seconds in UTC.
func At(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: time.Unix(t.Unix(), 0).UTC()}
}

// Unix builds a Timestamp from epoch seconds.
func Unix(sec int64) Timestamp {
	return Timestamp{Time: time.Unix(sec, 0).UTC()}
}

// MarshalJSON writes the epoch seconds as a JSON integer. The zero Timestamp
// is written as null so that the epoch itself survives a round trip.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, t.Unix(), 10), nil
}

// UnmarshalJSON accepts a JSON integer or null; only null yields the zero
// Timestamp. Strings, floats and objects are
// rejected so that a payload written for another schema fails to decode.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	sec, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp must be integer epoch seconds, got %s", data)
	}
	*t = Unix(sec)
	return nil
}
