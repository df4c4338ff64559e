package config

import "testing"

func TestString(t *testing.T) {
	t.Setenv("CFG_TEST_STRING", "hello")
	if got := String("CFG_TEST_STRING", "fallback"); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	if got := String("CFG_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestRequiredString(t *testing.T) {
	if _, err := RequiredString("CFG_TEST_REQUIRED_MISSING"); err == nil {
		t.Fatal("expected error for missing required key")
	}
	t.Setenv("CFG_TEST_REQUIRED", "set")
	v, err := RequiredString("CFG_TEST_REQUIRED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "set" {
		t.Fatalf("expected set, got %q", v)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "42")
	if got := Int("CFG_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("CFG_TEST_INT_BAD", "not-a-number")
	if got := Int("CFG_TEST_INT_BAD", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("CFG_TEST_PORT", "8080")
	p, err := Port("CFG_TEST_PORT", "9999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != "8080" {
		t.Fatalf("expected 8080, got %q", p)
	}
	t.Setenv("CFG_TEST_PORT_BAD", "70000")
	if _, err := Port("CFG_TEST_PORT_BAD", "9999"); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}
