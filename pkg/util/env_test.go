package util

import (
	"testing"
	"time"
)

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("ALERTIFY_TEST_SET", "value")
	if got := GetEnvDefault("ALERTIFY_TEST_SET", "fallback"); got != "value" {
		t.Errorf("GetEnvDefault = %q", got)
	}
	if got := GetEnvDefault("ALERTIFY_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnvDefault = %q", got)
	}
}

func TestGetIntAndBoolEnv(t *testing.T) {
	t.Setenv("ALERTIFY_TEST_INT", "42")
	if got := GetIntEnv("ALERTIFY_TEST_INT"); got != 42 {
		t.Errorf("GetIntEnv = %d", got)
	}
	t.Setenv("ALERTIFY_TEST_BOOL", "true")
	if !GetBoolEnv("ALERTIFY_TEST_BOOL") {
		t.Error("GetBoolEnv = false, want true")
	}
	if GetIntEnv("ALERTIFY_TEST_MISSING") != 0 {
		t.Error("missing int should be 0")
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("ALERTIFY_TEST_DUR", "45s")
	if got := GetDurationEnv("ALERTIFY_TEST_DUR", time.Minute); got != 45*time.Second {
		t.Errorf("GetDurationEnv = %v", got)
	}
	if got := GetDurationEnv("ALERTIFY_TEST_DUR_MISSING", time.Minute); got != time.Minute {
		t.Errorf("default not applied: %v", got)
	}
	t.Setenv("ALERTIFY_TEST_DUR_BAD", "soon")
	if got := GetDurationEnv("ALERTIFY_TEST_DUR_BAD", time.Minute); got != time.Minute {
		t.Errorf("unparsable value should fall back: %v", got)
	}
}
