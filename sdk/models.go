package sdk

import "time"

// Runtime identifies a supported function runtime.
type Runtime string

const (
	RuntimePython38  Runtime = "python3.8"
	RuntimePython39  Runtime = "python3.9"
	RuntimePython310 Runtime = "python3.10"
	RuntimePython311 Runtime = "python3.11"
	RuntimeNode16    Runtime = "nodejs16"
	RuntimeNode18    Runtime = "nodejs18"
)

// FunctionConfig describes a function to deploy. Exactly one of Code or
// FilePath must be set.
type FunctionConfig struct {
	Name        string            `json:"name"`
	Runtime     Runtime           `json:"runtime"`
	Handler     string            `json:"handler,omitempty"`
	Code        string            `json:"code,omitempty"`
	FilePath    string            `json:"-"`
	MemoryMB    int               `json:"memory_mb"`
	TimeoutSecs int               `json:"timeout_seconds"`
	Environment map[string]string `json:"environment,omitempty"`
	Cleanup     *CleanupPolicy    `json:"-"`
}

// CleanupPolicy is an OR-combined set of deletion conditions. Any subset
// may be set; at least one must be.
type CleanupPolicy struct {
	// TTL deletes the function once it is older than this.
	TTL time.Duration
	// MaxExecutions deletes the function once it has run this many times.
	MaxExecutions int
	// Idle deletes the function once it has gone this long without running.
	Idle time.Duration
}

// IsZero reports whether no condition is set.
func (p CleanupPolicy) IsZero() bool {
	return p.TTL == 0 && p.MaxExecutions == 0 && p.Idle == 0
}

// Function is the platform's record of a deployed function.
type Function struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Runtime        Runtime    `json:"runtime"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`
	ExecutionCount int        `json:"execution_count"`
}

// FunctionDeployment is the result of a deploy call.
type FunctionDeployment struct {
	FunctionID string `json:"function_id"`
	Status     string `json:"status"`
	Version    string `json:"version,omitempty"`
}

// FunctionExecution is the result (or pending state) of an execution.
type FunctionExecution struct {
	ExecutionID string         `json:"execution_id"`
	Status      string         `json:"status"`
	Output      map[string]any `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	DurationMS  int64          `json:"duration_ms,omitempty"`
}
