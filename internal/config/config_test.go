package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("expected config to load with defaults, got error: %v", err)
	}

	if cfg.Push.ExecutorPoolSize != 8 {
		t.Errorf("expected default pool size 8, got %d", cfg.Push.ExecutorPoolSize)
	}
	if cfg.PushDataTaskDebouncingMillis().Milliseconds() != 1000 {
		t.Errorf("expected default debounce 1000ms, got %v", cfg.PushDataTaskDebouncingMillis())
	}
	if cfg.IsStopPushSwitch() {
		t.Error("expected stop-push switch to default to false")
	}
}

func TestSetStopPushSwitch(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.SetStopPushSwitch(true)
	if !cfg.IsStopPushSwitch() {
		t.Error("expected stop-push switch to be true after SetStopPushSwitch(true)")
	}
}

func TestValidateRejectsBadPoolSize(t *testing.T) {
	cfg := &Config{Push: PushConfig{
		ExecutorPoolSize:                0,
		ExecutorQueueSize:               10,
		ClientNodeExchangeTimeOutMillis: 1000,
	}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero pool size")
	}
}
