package timecodec

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestEncodeMillisecondUTC(t *testing.T) {
	loc := time.FixedZone("PKT", 5*3600)
	ts := time.Date(2026, 3, 14, 20, 30, 15, 123456789, loc)
	got := Encode(ts)
	if got != "2026-03-14T15:30:15.123Z" {
		t.Errorf("unexpected encoding %q", got)
	}
}

func TestDecodeShapes(t *testing.T) {
	want := time.Date(2026, 3, 14, 15, 30, 15, 123000000, time.UTC)
	cases := map[string]any{
		"iso millis":  "2026-03-14T15:30:15.123Z",
		"iso offset":  "2026-03-14T20:30:15.123+05:00",
		"iso nanos":   "2026-03-14T15:30:15.123999Z",
		"native":      want.Add(456 * time.Microsecond),
		"native ptr":  &want,
		"epoch float": float64(want.UnixMilli()),
		"epoch int64": want.UnixMilli(),
		"json number": json.Number("1773502215123"),
		"raw string":  json.RawMessage(`"2026-03-14T15:30:15.123Z"`),
		"raw number":  json.RawMessage(`1773502215123`),
	}
	for name, in := range cases {
		got, err := Decode(in)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, in := range []any{nil, "", "  ", time.Time{}, json.RawMessage(`null`)} {
		if _, err := Decode(in); !errors.Is(err, ErrEmpty) {
			t.Errorf("Decode(%#v): expected ErrEmpty, got %v", in, err)
		}
	}
}

func TestDecodeGarbage(t *testing.T) {
	for _, in := range []any{"yesterday", true, float64(-1), []int{1}} {
		if _, err := Decode(in); err == nil {
			t.Errorf("Decode(%#v): expected error", in)
		}
	}
}

func TestDecodePtr(t *testing.T) {
	p, err := DecodePtr(nil)
	if err != nil || p != nil {
		t.Errorf("expected nil, nil; got %v, %v", p, err)
	}
	p, err = DecodePtr("2026-01-01T00:00:00Z")
	if err != nil || p == nil {
		t.Fatalf("expected value, got %v, %v", p, err)
	}
	if p.Year() != 2026 {
		t.Errorf("unexpected year %d", p.Year())
	}
	if _, err := DecodePtr("nonsense"); err == nil {
		t.Error("expected error for malformed optional timestamp")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []any{
		"2026-03-14T20:30:15.123+05:00",
		time.Now(),
		float64(1773502215123),
	}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("normalize %#v: %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("normalize %q: %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q != %q", once, twice)
		}
	}
}

func TestRoundTripPreservesMillis(t *testing.T) {
	ts := time.Now()
	back, err := Decode(Encode(ts))
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(Canonical(ts)) {
		t.Errorf("expected %v, got %v", Canonical(ts), back)
	}
	if back.Sub(ts).Abs() >= Precision {
		t.Errorf("lost more than %v: %v vs %v", Precision, back, ts)
	}
}
