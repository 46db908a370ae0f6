package config

import (
	"bytes"
	"encoding/json"
	"time"
)

// NullDuration is a nullable time.Duration, in the same vein as the nullable
// types provided by gopkg.in/guregu/null.v3.
type NullDuration struct {
	Duration time.Duration
	Valid    bool
}

// NewNullDuration is a simple helper constructor function.
func NewNullDuration(d time.Duration, valid bool) NullDuration {
	return NullDuration{Duration: d, Valid: valid}
}

// NullDurationFrom returns a new valid NullDuration.
func NullDurationFrom(d time.Duration) NullDuration {
	return NullDuration{Duration: d, Valid: true}
}

// UnmarshalText parses values such as "500ms" or "15s".
func (d *NullDuration) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = NullDuration{}
		return nil
	}
	v, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	*d = NullDuration{Duration: v, Valid: true}
	return nil
}

func (d *NullDuration) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte(`null`)) {
		d.Valid = false
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d NullDuration) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte(`null`), nil
	}
	return json.Marshal(d.Duration.String())
}
