package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// WorkflowPath is a workflow file or a directory of workflow files.
	WorkflowPath string

	// EventName and Ref describe the simulated trigger event.
	EventName string
	Ref       string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int

	// ListOnly prints the plan without executing it.
	ListOnly bool
	// Watch re-runs the plan whenever the workflow path changes.
	Watch bool
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	if cfg.EventName == "" {
		return nil, errors.New("EventName is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
