package fixedpoint

import "testing"

func TestParsePriceCents(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"30123.45", 3012345, true},
		{"1234.56789", 123456, true}, // truncated to "56"
		{"10000", 1000000, true},
		{"0.1", 10, true},
		{"0", 0, true},
		{"", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
	}

	for _, c := range cases {
		got, ok := ParsePriceCents(c.in)
		if ok != c.ok {
			t.Fatalf("ParsePriceCents(%q) ok = %v, want %v", c.in, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("ParsePriceCents(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseQuantitySmallestUnit(t *testing.T) {
	cases := []struct {
		in   string
		d    int
		want uint64
		ok   bool
	}{
		{"0.00000001", 8, 1, true},
		{"1.5", 8, 150000000, true},
		{"500000000", 0, 500000000, true},
		{"1.123456789", 8, 112345678, true}, // 9th digit truncated
		{"", 8, 0, false},
		{"1.2.3", 8, 0, false},
	}

	for _, c := range cases {
		got, ok := ParseQuantitySmallestUnit(c.in, c.d)
		if ok != c.ok {
			t.Fatalf("ParseQuantitySmallestUnit(%q,%d) ok = %v, want %v", c.in, c.d, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("ParseQuantitySmallestUnit(%q,%d) = %d, want %d", c.in, c.d, got, c.want)
		}
	}
}

func TestParsePriceCentsOverflow(t *testing.T) {
	_, ok := ParsePriceCents("99999999999999999999.99")
	if ok {
		t.Fatal("expected overflow to be rejected")
	}
}

func TestParseQuantitySmallestUnitRoundTrip(t *testing.T) {
	// For inputs with <= d fractional digits, parsing is exact.
	got, ok := ParseQuantitySmallestUnit("12.34", 2)
	if !ok || got != 1234 {
		t.Fatalf("got %d, %v", got, ok)
	}
}
