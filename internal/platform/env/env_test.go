package env

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestString_Default(t *testing.T) {
	t.Setenv("ENV_STRING_DEFAULT", "")
	got := String("ENV_STRING_DOES_NOT_EXIST", "fallback")
	if got != "fallback" {
		t.Fatalf("String()=%q, want fallback", got)
	}
}

func TestString_Override(t *testing.T) {
	t.Setenv("ENV_STRING_KEY", "value")
	got := String("ENV_STRING_KEY", "fallback")
	if got != "value" {
		t.Fatalf("String()=%q, want value", got)
	}
}

func TestDuration_Default(t *testing.T) {
	got, err := Duration("ENV_DURATION_DOES_NOT_EXIST", 5*time.Second)
	if err != nil {
		t.Fatalf("Duration() err=%v", err)
	}
	if got != 5*time.Second {
		t.Fatalf("Duration()=%v, want 5s", got)
	}
}

func TestDuration_Override(t *testing.T) {
	t.Setenv("ENV_DURATION_KEY", "250ms")
	got, err := Duration("ENV_DURATION_KEY", 5*time.Second)
	if err != nil {
		t.Fatalf("Duration() err=%v", err)
	}
	if got != 250*time.Millisecond {
		t.Fatalf("Duration()=%v, want 250ms", got)
	}
}

func TestDuration_Invalid(t *testing.T) {
	t.Setenv("ENV_DURATION_KEY_INVALID", "not-a-duration")
	_, err := Duration("ENV_DURATION_KEY_INVALID", 5*time.Second)
	if err == nil {
		t.Fatalf("Duration() expected error")
	}
}

func TestBool_Default(t *testing.T) {
	got, err := Bool("ENV_BOOL_DOES_NOT_EXIST", true)
	if err != nil {
		t.Fatalf("Bool() err=%v", err)
	}
	if got != true {
		t.Fatalf("Bool()=%v, want true", got)
	}
}

func TestBool_Override(t *testing.T) {
	t.Setenv("ENV_BOOL_KEY", "false")
	got, err := Bool("ENV_BOOL_KEY", true)
	if err != nil {
		t.Fatalf("Bool() err=%v", err)
	}
	if got != false {
		t.Fatalf("Bool()=%v, want false", got)
	}
}

func TestBool_Invalid(t *testing.T) {
	t.Setenv("ENV_BOOL_KEY_INVALID", "nope")
	_, err := Bool("ENV_BOOL_KEY_INVALID", false)
	if err == nil {
		t.Fatalf("Bool() expected error")
	}
}

func TestInt_Default(t *testing.T) {
	got, err := Int("ENV_INT_DOES_NOT_EXIST", 42)
	if err != nil {
		t.Fatalf("Int() err=%v", err)
	}
	if got != 42 {
		t.Fatalf("Int()=%v, want 42", got)
	}
}

func TestInt_Override(t *testing.T) {
	t.Setenv("ENV_INT_KEY", "7")
	got, err := Int("ENV_INT_KEY", 42)
	if err != nil {
		t.Fatalf("Int() err=%v", err)
	}
	if got != 7 {
		t.Fatalf("Int()=%v, want 7", got)
	}
}

func TestInt_Invalid(t *testing.T) {
	t.Setenv("ENV_INT_KEY_INVALID", "nope")
	_, err := Int("ENV_INT_KEY_INVALID", 42)
	if err == nil {
		t.Fatalf("Int() expected error")
	}
}

func TestLevel_Default(t *testing.T) {
	got, err := Level("ENV_LEVEL_DOES_NOT_EXIST", slog.LevelInfo)
	if err != nil {
		t.Fatalf("Level() err=%v", err)
	}
	if got != slog.LevelInfo {
		t.Fatalf("Level()=%v, want info", got)
	}
}

func TestLevel_Override(t *testing.T) {
	t.Setenv("ENV_LEVEL_KEY", "debug")
	got, err := Level("ENV_LEVEL_KEY", slog.LevelInfo)
	if err != nil {
		t.Fatalf("Level() err=%v", err)
	}
	if got != slog.LevelDebug {
		t.Fatalf("Level()=%v, want debug", got)
	}
}

func TestLevel_Invalid(t *testing.T) {
	t.Setenv("ENV_LEVEL_KEY_INVALID", "loud")
	if _, err := Level("ENV_LEVEL_KEY_INVALID", slog.LevelInfo); err == nil {
		t.Fatalf("Level() expected error")
	}
}

func TestLoad_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("ENV_LOAD_EXISTING=fromfile\nENV_LOAD_NEW=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_LOAD_EXISTING", "fromenv")
	t.Setenv("ENV_LOAD_NEW", "")
	os.Unsetenv("ENV_LOAD_NEW")

	if err := Load(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if got := os.Getenv("ENV_LOAD_EXISTING"); got != "fromenv" {
		t.Fatalf("ENV_LOAD_EXISTING=%q, want fromenv", got)
	}
	if got := os.Getenv("ENV_LOAD_NEW"); got != "fromfile" {
		t.Fatalf("ENV_LOAD_NEW=%q, want fromfile", got)
	}
}
