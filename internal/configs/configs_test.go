package configs

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS",
		"WORKER_COUNT", "TASK_QUEUE_SIZE",
		"INACTIVITY_TIMEOUT_SECONDS", "MONITOR_INTERVAL_SECONDS",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("expected development environment, got %q", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("expected no allowed origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.TaskQueueSize != 1024 {
		t.Errorf("expected queue size 1024, got %d", cfg.TaskQueueSize)
	}
	if cfg.InactivityTimeout != 60*time.Second {
		t.Errorf("expected 60s inactivity timeout, got %s", cfg.InactivityTimeout)
	}
	if cfg.MonitorInterval != 5*time.Second {
		t.Errorf("expected 5s monitor interval, got %s", cfg.MonitorInterval)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://chat.example.com, https://admin.example.com")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("TASK_QUEUE_SIZE", "256")
	t.Setenv("INACTIVITY_TIMEOUT_SECONDS", "120")
	t.Setenv("MONITOR_INTERVAL_SECONDS", "10")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Environment != "production" || cfg.Port != 9000 {
		t.Errorf("unexpected server settings: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://chat.example.com" {
		t.Errorf("origins not parsed and trimmed: %v", cfg.AllowedOrigins)
	}
	if cfg.WorkerCount != 8 || cfg.TaskQueueSize != 256 {
		t.Errorf("unexpected worker pool settings: %+v", cfg)
	}
	if cfg.InactivityTimeout != 2*time.Minute || cfg.MonitorInterval != 10*time.Second {
		t.Errorf("unexpected presence settings: %+v", cfg)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric port", "PORT", "web"},
		{"privileged port", "PORT", "80"},
		{"zero workers", "WORKER_COUNT", "0"},
		{"negative queue", "TASK_QUEUE_SIZE", "-1"},
		{"zero timeout", "INACTIVITY_TIMEOUT_SECONDS", "0"},
		{"non-numeric interval", "MONITOR_INTERVAL_SECONDS", "soon"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestLoadConfigRejectsIntervalLongerThanTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("INACTIVITY_TIMEOUT_SECONDS", "5")
	t.Setenv("MONITOR_INTERVAL_SECONDS", "30")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when the sweep interval exceeds the timeout")
	}
}
