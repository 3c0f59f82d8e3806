package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hexabase/hexabase-ai/internal/auth"
	"github.com/hexabase/hexabase-ai/internal/session"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Reply       string `json:"reply"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
}

// handleChat runs one natural-language query through the orchestrator.
// Every reply is a readable string; tool failures come back in the same
// channel as successes.
func (s *Server) handleChat(c echo.Context) error {
	authCtx := auth.FromContext(c)
	if authCtx == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if err := authCtx.RequirePermission(auth.PermissionRead); err != nil {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := c.Request().Context()
	reply := s.orch.Handle(ctx, req.Message, authCtx.WorkspaceID, authCtx.UserID)

	// History is best-effort; a Redis outage must not fail the chat.
	s.appendTurn(c, authCtx.WorkspaceID, sessionID, session.Turn{Role: session.RoleUser, Content: req.Message})
	s.appendTurn(c, authCtx.WorkspaceID, sessionID, session.Turn{Role: session.RoleAssistant, Content: reply})

	return c.JSON(http.StatusOK, chatResponse{
		Reply:       reply,
		SessionID:   sessionID,
		UserID:      authCtx.UserID,
		WorkspaceID: authCtx.WorkspaceID,
	})
}

func (s *Server) appendTurn(c echo.Context, workspaceID, sessionID string, turn session.Turn) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Append(c.Request().Context(), workspaceID, sessionID, turn); err != nil {
		s.logger.Warn("session append failed",
			"workspace_id", workspaceID,
			"session_id", sessionID,
			"error", err)
	}
}
