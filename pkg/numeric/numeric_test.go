package numeric

import "testing"

func TestParseFloat(t *testing.T) {
	cases := []struct {
		in    string
		want  float64
		wantOK bool
	}{
		{"-76.123450", -76.12345, true},
		{"0.01", 0.01, true},
		{"1e10", 1e10, true},
		{"76.1 garbage", 0, false},
		{"", 0, false},
		{"nope", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseFloat(c.in)
		if ok != c.wantOK {
			t.Fatalf("ParseFloat(%q) ok = %v, want %v", c.in, ok, c.wantOK)
		}
		if ok && got != c.want {
			t.Fatalf("ParseFloat(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseInt(t *testing.T) {
	if v, ok := ParseInt("42"); !ok || v != 42 {
		t.Fatalf("ParseInt(42) = %v, %v", v, ok)
	}
	if _, ok := ParseInt("42x"); ok {
		t.Fatalf("ParseInt(42x) should fail")
	}
	if _, ok := ParseInt(""); ok {
		t.Fatalf("ParseInt empty should fail")
	}
}
