package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPath string // hcl file or directory of hcl files

	// OutputFormat selects what Run writes: "summary" for the flat text
	// report, "graph" for the diagnostic graph as JSON.
	OutputFormat string

	// EmitURL, when set, streams the resolution to a socket.io endpoint
	// after reporting. EmitNamespace and EmitEvent refine the destination.
	EmitURL       string
	EmitNamespace string
	EmitEvent     string

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("ModelPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
