package version

import "testing"

func mustParse(t *testing.T, s string) *Version {
	t.Helper()
	v, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", s, err)
	}
	return v
}

func TestCompareTotalOrder(t *testing.T) {
	order := []string{
		"1.0-alpha-1",
		"1.0-alpha-2",
		"1.0-beta-1",
		"1.0-milestone-1",
		"1.0-rc-1",
		"1.0-cr-1", // cr == rc: equal rank, so it compares equal to "1.0-rc-1"
		"1.0-SNAPSHOT",
		"1.0",
		"1.0-ga",
		"1.0-sp",
		"1.0-weirdqualifier",
		"1.1",
		"2.0",
	}

	var parsed []*Version
	for _, s := range order {
		parsed = append(parsed, mustParse(t, s))
	}

	for i := 1; i < len(parsed); i++ {
		a, b := parsed[i-1], parsed[i]
		if a.CompareTo(b) > 0 {
			t.Errorf("expected %s <= %s (position %d)", a, b, i)
		}
	}
}

func TestEqualityNormalization(t *testing.T) {
	cases := [][2]string{
		{"1.0", "1"},
		{"1-ga", "1"},
		{"1.0.0", "1"},
		{"1.0-final", "1.0"},
	}
	for _, c := range cases {
		a, b := mustParse(t, c[0]), mustParse(t, c[1])
		if !a.Equal(b) {
			t.Errorf("expected %q == %q", c[0], c[1])
		}
	}

	notEqual := [][2]string{
		{"1.0-alpha", "1.0"},
		{"1.0-sp", "1.0"},
	}
	for _, c := range notEqual {
		a, b := mustParse(t, c[0]), mustParse(t, c[1])
		if a.Equal(b) {
			t.Errorf("expected %q != %q", c[0], c[1])
		}
	}
}

func TestTotalOrderAxioms(t *testing.T) {
	vs := []string{"1.0-alpha", "1.0", "1.0-sp", "1.2", "1.2.3", "2.0-SNAPSHOT", "2.0"}
	var parsed []*Version
	for _, s := range vs {
		parsed = append(parsed, mustParse(t, s))
	}
	for _, a := range parsed {
		for _, b := range parsed {
			c1 := a.CompareTo(b)
			c2 := b.CompareTo(a)
			if (c1 == 0) != (c2 == 0) || (c1 < 0) != (c2 > 0) || (c1 > 0) != (c2 < 0) {
				t.Errorf("asymmetry between %s and %s: %d vs %d", a, b, c1, c2)
			}
			if c1 == 0 && !a.Equal(b) {
				t.Errorf("CompareTo==0 but Equal false for %s, %s", a, b)
			}
		}
	}
}

func TestParseIdempotent(t *testing.T) {
	for _, s := range []string{"1.0.0-beta-2", "2.3.4", "1-SNAPSHOT", "1.2.3.4.5-rc-1"} {
		v1 := mustParse(t, s)
		v2 := mustParse(t, v1.String())
		if !v1.Equal(v2) {
			t.Errorf("parse not idempotent for %q", s)
		}
	}
}

func TestParseEmptyFails(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error parsing empty version")
	}
}
