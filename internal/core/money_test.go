package core

import "testing"

func TestFormatYen(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "¥0"},
		{5, "¥5"},
		{100, "¥100"},
		{1000, "¥1,000"},
		{12345, "¥12,345"},
		{1234567, "¥1,234,567"},
		{-5000, "-¥5,000"},
	}
	for _, tc := range cases {
		if got := FormatYen(tc.in); got != tc.out {
			t.Errorf("FormatYen(%d) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
