package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToKopecks(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1500", 150000, true},
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{"0", 0, true},
		{".50", 50, true},
		{"", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToKopecks(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q: expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("%q: got %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Money{Kopecks: 150000}, "1500"},
		{Money{Kopecks: 1234}, "12.34"},
		{Money{Kopecks: 5}, "0.05"},
		{Money{}, "0"},
	}
	for i, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Fatalf("case %d: got %q want %q", i, got, tc.want)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	for _, m := range []Money{{Kopecks: 150000}, {Kopecks: 1234}, {}} {
		data, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var back Money
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != m {
			t.Fatalf("round trip %s: got %+v want %+v", data, back, m)
		}
	}
}

func TestMoneyUnmarshalLegacyNumbers(t *testing.T) {
	// The legacy export wrote prices as plain JSON numbers of rubles.
	var m Money
	if err := json.Unmarshal([]byte("1500"), &m); err != nil {
		t.Fatalf("integer price: %v", err)
	}
	if m.Kopecks != 150000 {
		t.Fatalf("got %d want 150000", m.Kopecks)
	}
	if err := json.Unmarshal([]byte("1500.5"), &m); err != nil {
		t.Fatalf("fractional price: %v", err)
	}
	if m.Kopecks != 150050 {
		t.Fatalf("got %d want 150050", m.Kopecks)
	}
	if err := json.Unmarshal([]byte("null"), &m); err != nil {
		t.Fatalf("null price: %v", err)
	}
}
