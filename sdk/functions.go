package sdk

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

var supportedRuntimes = map[Runtime]struct{}{
	RuntimePython38:  {},
	RuntimePython39:  {},
	RuntimePython310: {},
	RuntimePython311: {},
	RuntimeNode16:    {},
	RuntimeNode18:    {},
}

const (
	minMemoryMB = 128
	maxMemoryMB = 3008
	minTimeout  = 1
	maxTimeout  = 900
)

// DeployFunction validates the config, uploads the code and registers
// the function's cleanup policy when one is set.
func (c *Client) DeployFunction(ctx context.Context, cfg FunctionConfig) (*FunctionDeployment, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	if cfg.Code == "" {
		data, err := os.ReadFile(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("read source file: %w", err)
		}
		cfg.Code = string(data)
	}

	var dep FunctionDeployment
	if err := c.call(ctx, http.MethodPost, "/functions", cfg, &dep); err != nil {
		return nil, err
	}

	if cfg.Cleanup != nil && !cfg.Cleanup.IsZero() {
		c.cleanup.Register(dep.FunctionID, *cfg.Cleanup)
	}
	return &dep, nil
}

func validateConfig(cfg *FunctionConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("function name is required")
	}

	hasCode := cfg.Code != ""
	hasFile := cfg.FilePath != ""
	if hasCode == hasFile {
		return fmt.Errorf("exactly one of code or file path must be provided")
	}

	if _, ok := supportedRuntimes[cfg.Runtime]; !ok {
		return fmt.Errorf("unsupported runtime %q", cfg.Runtime)
	}
	if strings.HasPrefix(string(cfg.Runtime), "python") && cfg.Handler == "" {
		return fmt.Errorf("handler is required for python runtimes")
	}

	if cfg.MemoryMB == 0 {
		cfg.MemoryMB = minMemoryMB
	}
	if cfg.MemoryMB < minMemoryMB || cfg.MemoryMB > maxMemoryMB {
		return fmt.Errorf("memory must be between %d and %d MB", minMemoryMB, maxMemoryMB)
	}

	if cfg.TimeoutSecs == 0 {
		cfg.TimeoutSecs = 30
	}
	if cfg.TimeoutSecs < minTimeout || cfg.TimeoutSecs > maxTimeout {
		return fmt.Errorf("timeout must be between %d and %d seconds", minTimeout, maxTimeout)
	}

	if cfg.Cleanup != nil && cfg.Cleanup.IsZero() {
		return fmt.Errorf("cleanup policy must set at least one condition")
	}
	return nil
}
