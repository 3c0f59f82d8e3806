// Package tools defines the cluster-management actions the orchestrator
// can select: node inventory, deployment scaling, and log queries. Each
// tool formats its own caller-facing summary; transport and API failures
// propagate as errors for the executor to classify.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hexabase/hexabase-ai/internal/cluster"
	"github.com/hexabase/hexabase-ai/internal/orchestrator"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

func intPtr(n int) *int { return &n }

// NewRegistry builds the fixed tool catalog against the given cluster
// client. Registration order is stable and rendered into the model prompt.
func NewRegistry(client *cluster.Client) (*orchestrator.Registry, error) {
	registry := orchestrator.NewRegistry()
	for _, tool := range []orchestrator.Tool{
		&GetNodesTool{client: client},
		&ScaleDeploymentTool{client: client},
		&QueryLogsTool{client: client},
	} {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// GetNodesTool reports node inventory and health for a workspace.
type GetNodesTool struct {
	client *cluster.Client
}

func (t *GetNodesTool) Descriptor() orchestrator.Descriptor {
	return orchestrator.Descriptor{
		Name:        "get_kubernetes_nodes",
		Description: "Fetches a list of Kubernetes nodes and their status for a given workspace. Use this to answer questions about cluster nodes, their health, or count.",
		Parameters: []orchestrator.Parameter{
			{Name: "workspace_id", Type: orchestrator.ParamString, Description: "Workspace to inspect", Required: true},
		},
	}
}

func (t *GetNodesTool) Invoke(ctx context.Context, input orchestrator.Input) (string, error) {
	workspaceID, _ := input.StringField("workspace_id")

	nodes, err := t.client.ListNodes(ctx, workspaceID)
	if err != nil {
		return "", err
	}

	if len(nodes) == 0 {
		return fmt.Sprintf("No nodes found for workspace %s.", workspaceID), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d nodes for workspace %s.\n", len(nodes), workspaceID)
	for _, node := range nodes {
		fmt.Fprintf(&sb, "- Node '%s' is %s.\n", node.Name, node.Status)
	}
	return strings.TrimSpace(sb.String()), nil
}

// ScaleDeploymentTool sets the replica count of a deployment.
type ScaleDeploymentTool struct {
	client *cluster.Client
}

func (t *ScaleDeploymentTool) Descriptor() orchestrator.Descriptor {
	return orchestrator.Descriptor{
		Name:        "scale_deployment",
		Description: "Scales a specified deployment in a given workspace to the desired number of replicas. Use this for requests like 'scale my-app to 3 pods' or 'set replicas for web-api to 5'.",
		Parameters: []orchestrator.Parameter{
			{Name: "workspace_id", Type: orchestrator.ParamString, Description: "Workspace owning the deployment", Required: true},
			{Name: "deployment_name", Type: orchestrator.ParamString, Description: "Deployment to scale", Required: true},
			{Name: "replicas", Type: orchestrator.ParamInt, Description: "Desired replica count", Required: true, Min: intPtr(0)},
		},
	}
}

func (t *ScaleDeploymentTool) Invoke(ctx context.Context, input orchestrator.Input) (string, error) {
	workspaceID, _ := input.StringField("workspace_id")
	deployment, _ := input.StringField("deployment_name")
	replicas, _ := input.IntField("replicas")

	if err := t.client.ScaleDeployment(ctx, workspaceID, deployment, replicas); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully scaled deployment '%s' to %d replicas.", deployment, replicas), nil
}

// QueryLogsTool searches workspace logs by term, level and time range.
type QueryLogsTool struct {
	client *cluster.Client
}

func (t *QueryLogsTool) Descriptor() orchestrator.Descriptor {
	return orchestrator.Descriptor{
		Name:        "query_logs",
		Description: "Searches and retrieves logs from a workspace based on search terms, log level, and time range.",
		Parameters: []orchestrator.Parameter{
			{Name: "workspace_id", Type: orchestrator.ParamString, Description: "Workspace to search", Required: true},
			{Name: "search_term", Type: orchestrator.ParamString, Description: "Substring to match in log messages"},
			{Name: "level", Type: orchestrator.ParamString, Description: "Log level filter (e.g. ERROR)"},
			{Name: "start_time", Type: orchestrator.ParamString, Description: "Range start, RFC 3339"},
			{Name: "end_time", Type: orchestrator.ParamString, Description: "Range end, RFC 3339"},
			{Name: "limit", Type: orchestrator.ParamInt, Description: "Maximum entries to return", Min: intPtr(1), Max: intPtr(maxLogLimit)},
		},
	}
}

func (t *QueryLogsTool) Invoke(ctx context.Context, input orchestrator.Input) (string, error) {
	workspaceID, _ := input.StringField("workspace_id")

	filter := cluster.LogFilter{
		WorkspaceID: workspaceID,
		Limit:       defaultLogLimit,
	}
	if v, ok := input.StringField("search_term"); ok {
		filter.SearchTerm = v
	}
	if v, ok := input.StringField("level"); ok {
		filter.Level = v
	}
	if v, ok := input.StringField("start_time"); ok {
		filter.StartTime = v
	}
	if v, ok := input.StringField("end_time"); ok {
		filter.EndTime = v
	}
	if v, ok := input.IntField("limit"); ok {
		filter.Limit = v
	}

	logs, err := t.client.QueryLogs(ctx, filter)
	if err != nil {
		return "", err
	}

	if len(logs) == 0 {
		return fmt.Sprintf("No logs found for workspace %s with the given criteria.", workspaceID), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d log entries:\n", len(logs))
	for _, entry := range logs {
		fmt.Fprintf(&sb, "- [%s] [%s] %s\n", entry.Timestamp, entry.Level, entry.Message)
	}
	return strings.TrimSpace(sb.String()), nil
}
