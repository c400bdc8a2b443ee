package debug

import "testing"

func TestBoolEnv(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"0", false},
		{"false", false},
		{"yes", false},
	}
	for _, c := range cases {
		t.Setenv("XT_DEBUG_TEST", c.value)
		if got := boolEnv("XT_DEBUG_TEST"); got != c.want {
			t.Errorf("boolEnv(%q) = %v, want %v", c.value, got, c.want)
		}
	}
}
