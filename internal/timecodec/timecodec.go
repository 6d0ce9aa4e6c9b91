// Package timecodec converts timestamps to and from their persisted ISO-8601 form.
//
// Every timestamp that crosses the persistence boundary goes through Encode on the way out
// and Decode on the way in. Decode accepts every shape an older writer may have left behind:
// ISO-8601 strings with or without fractional seconds, epoch milliseconds, and native
// time.Time values that were never serialized.
package timecodec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Layout is the canonical persisted form (UTC, millisecond precision).
const Layout = "2006-01-02T15:04:05.000Z"

// Precision is the resolution preserved across a persist/rehydrate cycle.
const Precision = time.Millisecond

// ErrEmpty is returned by Decode for nil or blank input.
var ErrEmpty = errors.New("empty timestamp")

// Canonical truncates t to Precision in UTC, dropping any monotonic reading.
func Canonical(t time.Time) time.Time {
	return t.UTC().Truncate(Precision)
}

// Encode returns the canonical ISO-8601 form of t.
func Encode(t time.Time) string {
	return Canonical(t).Format(Layout)
}

// EncodePtr is Encode for optional timestamps; nil stays nil.
func EncodePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := Encode(*t)
	return &s
}

var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

// Decode converts any supported timestamp representation to a canonical time.Time.
func Decode(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, ErrEmpty
	case time.Time:
		if x.IsZero() {
			return time.Time{}, ErrEmpty
		}
		return Canonical(x), nil
	case *time.Time:
		if x == nil {
			return time.Time{}, ErrEmpty
		}
		return Decode(*x)
	case string:
		return decodeString(x)
	case *string:
		if x == nil {
			return time.Time{}, ErrEmpty
		}
		return decodeString(*x)
	case float64:
		return fromMillis(x)
	case int64:
		return fromMillis(float64(x))
	case int:
		return fromMillis(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("decode timestamp %q: %w", x.String(), err)
		}
		return fromMillis(f)
	case json.RawMessage:
		return decodeRaw(x)
	case []byte:
		return decodeRaw(x)
	}
	return time.Time{}, fmt.Errorf("decode timestamp: unsupported type %T", v)
}

// DecodePtr is Decode for optional timestamps: empty input yields nil without error.
func DecodePtr(v any) (*time.Time, error) {
	t, err := Decode(v)
	if errors.Is(err, ErrEmpty) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Normalize returns the canonical string form of any supported representation.
// It is idempotent: Normalize(Normalize(v)) == Normalize(v).
func Normalize(v any) (string, error) {
	t, err := Decode(v)
	if err != nil {
		return "", err
	}
	return Encode(t), nil
}

func decodeString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	for _, layout := range stringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Canonical(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("decode timestamp %q: not ISO-8601", s)
}

func decodeRaw(b []byte) (time.Time, error) {
	if len(b) == 0 {
		return time.Time{}, ErrEmpty
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp: %w", err)
	}
	return Decode(v)
}

func fromMillis(ms float64) (time.Time, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms <= 0 {
		return time.Time{}, fmt.Errorf("decode timestamp: invalid epoch millis %v", ms)
	}
	return Canonical(time.UnixMilli(int64(ms))), nil
}
