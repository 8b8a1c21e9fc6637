package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	cases := []struct {
		in  float64
		out int64
	}{
		{1066.1854641401003, 106619},
		{0.1 + 0.2, 30},
		{1.005, 101},
		{-12.5, -1250},
		{0, 0},
	}
	for _, tc := range cases {
		got, err := MoneyFromFloat(tc.in)
		if err != nil {
			t.Fatalf("MoneyFromFloat(%v): %v", tc.in, err)
		}
		if got.Cents != tc.out {
			t.Fatalf("MoneyFromFloat(%v) = %d, want %d", tc.in, got.Cents, tc.out)
		}
	}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e20, -1e20} {
		if _, err := MoneyFromFloat(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("MoneyFromFloat(%v): expected ErrInvalidAmount, got %v", bad, err)
		}
	}
	if v := (Money{Cents: 123456}).Value(); v != 1234.56 {
		t.Fatalf("expected 1234.56, got %v", v)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Money `json:"a"`
	}{Money{Cents: 1230}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"a":12.30}` {
		t.Fatalf("unexpected json %s", b)
	}

	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{`12.3`, 1230, true},
		{`"12,30"`, 1230, true},
		{`-5`, -500, true},
		{`1e2`, 10000, true},
		{`null`, 0, true},
		{`"abc"`, 0, false},
		{`true`, 0, false},
	}
	for _, tc := range cases {
		var m Money
		err := json.Unmarshal([]byte(tc.in), &m)
		if tc.ok && (err != nil || m.Cents != tc.out) {
			t.Fatalf("%s expected %d, got %d (err=%v)", tc.in, tc.out, m.Cents, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s expected error", tc.in)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-03-09"}`), &v); err != nil {
		t.Fatal(err)
	}
	if !v.D.Equal(NewDate(2025, 3, 9).Time) {
		t.Fatalf("unexpected date %v", v.D)
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-03-09T22:10:00Z"}`), &v); err != nil || v.D.String() != "2025-03-09" {
		t.Fatalf("expected timestamp truncated to day, got %v (err=%v)", v.D, err)
	}
	if err := json.Unmarshal([]byte(`{"d":"09/03/2025"}`), &v); err == nil {
		t.Fatalf("expected error for bad layout")
	}
	b, _ := json.Marshal(struct {
		D Date `json:"d"`
	}{})
	if string(b) != `{"d":null}` {
		t.Fatalf("zero date should marshal as null, got %s", b)
	}
}
