/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, port, CORS allowed origins, the sizing of the
message processing worker pool, and the presence timeouts.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string

	// Worker Pool Settings
	WorkerCount   int
	TaskQueueSize int

	// Presence Settings
	InactivityTimeout time.Duration
	MonitorInterval   time.Duration
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
// It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	// AllowedOrigins
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// --- Worker Pool Settings ---
	// WorkerCount
	workersStr := os.Getenv("WORKER_COUNT")
	if workersStr == "" {
		workersStr = "4"
	}
	workers, err := strconv.Atoi(workersStr)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_COUNT environment variable: %w", err)
	}
	if workers < 1 {
		return nil, fmt.Errorf("WORKER_COUNT must be at least 1, got %d", workers)
	}
	cfg.WorkerCount = workers

	// TaskQueueSize
	queueStr := os.Getenv("TASK_QUEUE_SIZE")
	if queueStr == "" {
		queueStr = "1024"
	}
	queueSize, err := strconv.Atoi(queueStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TASK_QUEUE_SIZE environment variable: %w", err)
	}
	if queueSize < 1 {
		return nil, fmt.Errorf("TASK_QUEUE_SIZE must be at least 1, got %d", queueSize)
	}
	cfg.TaskQueueSize = queueSize

	// --- Presence Settings ---
	timeout, err := durationFromEnv("INACTIVITY_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.InactivityTimeout = timeout

	interval, err := durationFromEnv("MONITOR_INTERVAL_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	cfg.MonitorInterval = interval

	if cfg.MonitorInterval > cfg.InactivityTimeout {
		return nil, fmt.Errorf("MONITOR_INTERVAL_SECONDS (%s) must not exceed INACTIVITY_TIMEOUT_SECONDS (%s)", cfg.MonitorInterval, cfg.InactivityTimeout)
	}

	return cfg, nil
}

// durationFromEnv reads a positive integer number of seconds from the named
// environment variable and converts it to a time.Duration.
func durationFromEnv(name string, defaultSeconds int) (time.Duration, error) {
	str := os.Getenv(name)
	if str == "" {
		return time.Duration(defaultSeconds) * time.Second, nil
	}

	seconds, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	if seconds < 1 {
		return 0, fmt.Errorf("%s must be at least 1 second, got %d", name, seconds)
	}

	return time.Duration(seconds) * time.Second, nil
}
