package ledger

import "testing"

func TestParseAmountToCents(t *testing.T) {
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
		{"10000", 1000000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmountToCents(tc.in)
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

func TestParseBudgetToCents(t *testing.T) {
	got, err := ParseBudgetToCents("0")
	if err != nil || got != 0 {
		t.Fatalf("zero budget rejected: %d, %v", got, err)
	}
	if _, err := ParseBudgetToCents("-5"); err == nil {
		t.Fatal("negative budget accepted")
	}
}

func TestCentsToFloat(t *testing.T) {
	if got := CentsToFloat(1234); got != 12.34 {
		t.Fatalf("CentsToFloat(1234) = %v", got)
	}
}
