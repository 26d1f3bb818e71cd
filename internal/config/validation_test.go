package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{Push: PushConfig{
		ExecutorPoolSize:                8,
		ExecutorQueueSize:               1000,
		DebouncingMillis:                1000,
		RetryTimes:                      2,
		RetryFirstDelayMillis:           500,
		RetryIncrementDelayMillis:       500,
		ClientNodeExchangeTimeOutMillis: 2000,
	}}
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("expected no error for valid config, got: %v", err)
	}
}

func TestValidate_NegativeRetryTimes(t *testing.T) {
	cfg := validConfig()
	cfg.Push.RetryTimes = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for negative retry_times")
	}
	if !strings.Contains(err.Error(), "retry_times") {
		t.Errorf("error should mention retry_times, got: %v", err)
	}
}

func TestValidate_ZeroExchangeTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Push.ClientNodeExchangeTimeOutMillis = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for zero exchange timeout")
	}
	if !strings.Contains(err.Error(), "client_node_exchange_timeout_millis") {
		t.Errorf("error should mention the exchange timeout field, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{Push: PushConfig{
		ExecutorPoolSize:                0,
		ExecutorQueueSize:               0,
		ClientNodeExchangeTimeOutMillis: 0,
	}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for multiple issues")
	}

	errStr := err.Error()
	for _, want := range []string{"executor_pool_size", "executor_queue_size", "client_node_exchange_timeout_millis"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error should mention %s, got: %v", want, errStr)
		}
	}
}
