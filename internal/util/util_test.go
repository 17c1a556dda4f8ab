package util

import (
	"os"
	"testing"
)

func TestGenerateTicketNumber(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := GenerateTicketNumber()
		if len(id) != 6 {
			t.Fatalf("ticket number should be 6 digits, got %q", id)
		}
		for _, r := range id {
			if r < '0' || r > '9' {
				t.Fatalf("ticket number should be numeric, got %q", id)
			}
		}
		if id[0] == '0' {
			t.Fatalf("ticket number should not start with zero, got %q", id)
		}
	}
}

func TestSayDigits(t *testing.T) {
	cases := map[string]string{
		"123456": "one two three four five six",
		"907":    "nine zero seven",
		"":       "",
	}
	for in, want := range cases {
		if got := SayDigits(in); got != want {
			t.Errorf("SayDigits(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseBoolEnv(t *testing.T) {
	key := "AFTERHOURS_TEST_BOOL"
	defer os.Unsetenv(key)

	os.Unsetenv(key)
	if !ParseBoolEnv(key, true) {
		t.Error("unset variable should return default")
	}
	os.Setenv(key, "yes")
	if !ParseBoolEnv(key, false) {
		t.Error("'yes' should parse as true")
	}
	os.Setenv(key, "off")
	if ParseBoolEnv(key, true) {
		t.Error("'off' should parse as false")
	}
	os.Setenv(key, "banana")
	if !ParseBoolEnv(key, true) {
		t.Error("invalid value should return default")
	}
}
