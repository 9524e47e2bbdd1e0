package utils

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("KYDY_TEST_STR", "value")
	if got := GetEnv("KYDY_TEST_STR", "fallback", nil); got != "value" {
		t.Fatalf("got %q, want value", got)
	}
	if got := GetEnv("KYDY_TEST_MISSING", "fallback", nil); got != "fallback" {
		t.Fatalf("got %q, want fallback", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("KYDY_TEST_INT", "42")
	if got := GetEnvAsInt("KYDY_TEST_INT", 7, nil); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	t.Setenv("KYDY_TEST_INT", "not a number")
	if got := GetEnvAsInt("KYDY_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("unparseable: got %d, want 7", got)
	}
	if got := GetEnvAsInt("KYDY_TEST_INT_MISSING", 7, nil); got != 7 {
		t.Fatalf("missing: got %d, want 7", got)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("KYDY_TEST_BOOL", "true")
	if !GetEnvAsBool("KYDY_TEST_BOOL", false, nil) {
		t.Fatalf("true not parsed")
	}
	t.Setenv("KYDY_TEST_BOOL", "nope")
	if !GetEnvAsBool("KYDY_TEST_BOOL", true, nil) {
		t.Fatalf("unparseable should fall back to default")
	}
}
