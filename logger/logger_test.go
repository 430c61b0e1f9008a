package logger

import (
	"fmt"
	"testing"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("authgate")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "authgate" {
		t.Errorf("expected service 'authgate', got %q", l.service)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	cfg := &Config{
		Level:  "debug",
		Format: "json",
		Output: "stdout",
	}
	l := New(cfg, "authgate")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNew_InvalidLevelFallsBack(t *testing.T) {
	cfg := &Config{
		Level:  "invalid-level",
		Format: "json",
		Output: "stdout",
	}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestWithComponent(t *testing.T) {
	l := NewDefault("test")
	cl := l.WithComponent("verifier")
	if cl == nil {
		t.Fatal("expected non-nil logger")
	}
	if cl.service != "test" {
		t.Errorf("service should be preserved, got %q", cl.service)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected default level info, got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected default format console, got %q", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamps enabled by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Level: "verbose", Format: "json", Output: "stdout"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}
	cfg = Config{Level: "info", Format: "xml", Output: "stdout"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
	cfg = Config{Level: "info", Format: "json", Output: "stdout"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFields(t *testing.T) {
	m := Fields("op", "exchange", "status", 200)
	if m["op"] != "exchange" || m["status"] != 200 {
		t.Errorf("unexpected fields map: %v", m)
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("refresh", fmt.Errorf("boom"))
	if m[FieldOperation] != "refresh" || m[FieldError] != "boom" {
		t.Errorf("unexpected fields map: %v", m)
	}
}
