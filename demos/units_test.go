package demos

import "testing"

func TestFormatDEMOS(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0", "0.000000"},
		{"1000000000000000000", "1.000000"},
		{"1500000000000000000", "1.500000"},
		{"1", "0.000000"},
		{"123456789000000000000", "123.456789"},
		{"not a number", "0.000000"},
		{"", "0.000000"},
	}
	for _, c := range cases {
		if got := FormatDEMOS(c.in); got != c.want {
			t.Errorf("FormatDEMOS(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseDEMOS(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0", "0"},
		{"1", "1000000000000000000"},
		{"1.5", "1500000000000000000"},
		{"0.000001", "1000000000000"},
		{" 2.25 ", "2250000000000000000"},
	}
	for _, c := range cases {
		got, err := ParseDEMOS(c.in)
		if err != nil {
			t.Errorf("ParseDEMOS(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseDEMOS(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	// Only plain decimals are display amounts; rational and exponent
	// forms accepted by big.Rat must be rejected.
	for _, bad := range []string{"", "abc", "-1", "1/3", "1e18", "1.", ".5", "+2"} {
		if _, err := ParseDEMOS(bad); err == nil {
			t.Errorf("ParseDEMOS(%q) should fail", bad)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, amount := range []string{"0.000000", "1.000000", "42.123456"} {
		base, err := ParseDEMOS(amount)
		if err != nil {
			t.Fatalf("parse %q: %v", amount, err)
		}
		if got := FormatDEMOS(base); got != amount {
			t.Errorf("round trip %q -> %q -> %q", amount, base, got)
		}
	}
}

func TestIsValidAddress(t *testing.T) {
	if !IsValidAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94") {
		t.Error("valid address rejected")
	}
	for _, bad := range []string{"", "0x123", "9858EfFD232B4033E47d90003D41EC34EcaEda94", "0xZZ58EfFD232B4033E47d90003D41EC34EcaEda94"} {
		if IsValidAddress(bad) {
			t.Errorf("invalid address accepted: %q", bad)
		}
	}
}

func TestShortenAddress(t *testing.T) {
	addr := "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	if got := ShortenAddress(addr, 4); got != "0x9858...da94" {
		t.Errorf("ShortenAddress = %q", got)
	}
	if got := ShortenAddress("", 4); got != "" {
		t.Errorf("empty address: %q", got)
	}
	if got := ShortenAddress("0xab", 4); got != "0xab" {
		t.Errorf("short address should pass through: %q", got)
	}
}
