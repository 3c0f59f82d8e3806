package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hexabase/hexabase-ai/internal/auth"
	"github.com/hexabase/hexabase-ai/internal/orchestrator"
)

type remediateRequest struct {
	Actions []remediateAction `json:"actions"`
	DryRun  bool              `json:"dry_run,omitempty"`
}

type remediateAction struct {
	Type       string `json:"type"`
	Deployment string `json:"deployment"`
	Replicas   *int   `json:"replicas,omitempty"`
}

type actionResult struct {
	Type       string `json:"type"`
	Deployment string `json:"deployment"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

type remediateResponse struct {
	WorkspaceID string         `json:"workspace_id"`
	DryRun      bool           `json:"dry_run"`
	Results     []actionResult `json:"results"`
}

// handleRemediate executes explicit remediation actions against a
// workspace without involving the model. The workspace in the path must
// match the one in the token.
func (s *Server) handleRemediate(c echo.Context) error {
	authCtx := auth.FromContext(c)
	if authCtx == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if err := authCtx.RequirePermission(auth.PermissionRemediate); err != nil {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}

	pathWorkspace := c.Param("workspace_id")
	if pathWorkspace != authCtx.WorkspaceID {
		return echo.NewHTTPError(http.StatusForbidden, "workspace does not match token")
	}

	var req remediateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Actions) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one action is required")
	}

	ctx := c.Request().Context()
	results := make([]actionResult, 0, len(req.Actions))
	for _, action := range req.Actions {
		results = append(results, s.runAction(ctx, authCtx, action, req.DryRun))
	}

	return c.JSON(http.StatusOK, remediateResponse{
		WorkspaceID: authCtx.WorkspaceID,
		DryRun:      req.DryRun,
		Results:     results,
	})
}

func (s *Server) runAction(ctx context.Context, authCtx *auth.AuthContext, action remediateAction, dryRun bool) actionResult {
	res := actionResult{Type: action.Type, Deployment: action.Deployment}

	if action.Deployment == "" {
		res.Status = "invalid"
		res.Message = "deployment is required"
		return res
	}

	switch action.Type {
	case "scale":
		if action.Replicas == nil {
			res.Status = "invalid"
			res.Message = "replicas is required for scale actions"
			return res
		}
		if dryRun {
			res.Status = "skipped"
			res.Message = fmt.Sprintf("dry run: would scale deployment '%s' to %d replicas", action.Deployment, *action.Replicas)
			return res
		}
		result := s.orch.RunTool(ctx, "scale_deployment", orchestrator.Input{
			"deployment_name": action.Deployment,
			"replicas":        *action.Replicas,
		}, authCtx.WorkspaceID, authCtx.UserID)
		if result.Failure != nil {
			res.Status = "failed"
			res.Message = result.Failure.CallerText()
			return res
		}
		res.Status = "applied"
		res.Message = result.Text
	case "restart":
		if dryRun {
			res.Status = "skipped"
			res.Message = fmt.Sprintf("dry run: would restart deployment '%s'", action.Deployment)
			return res
		}
		if err := s.cluster.RestartDeployment(ctx, authCtx.WorkspaceID, action.Deployment); err != nil {
			failure := orchestrator.ClassifyError("restart", err)
			s.logger.Warn("restart failed",
				"workspace_id", authCtx.WorkspaceID,
				"deployment", action.Deployment,
				"kind", failure.Kind,
				"detail", failure.Detail)
			res.Status = "failed"
			res.Message = failure.CallerText()
			return res
		}
		res.Status = "applied"
		res.Message = fmt.Sprintf("Successfully restarted deployment '%s'.", action.Deployment)
	default:
		res.Status = "invalid"
		res.Message = fmt.Sprintf("unsupported action type %q", action.Type)
	}
	return res
}
