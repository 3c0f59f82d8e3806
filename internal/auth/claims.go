// Package auth validates control-plane issued JWTs and scopes every
// request to the workspace the token was minted for.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Permission is an AIOps capability carried in the token's permissions
// claim.
type Permission string

const (
	PermissionRead      Permission = "aiops:read"
	PermissionAnalyze   Permission = "aiops:analyze"
	PermissionRemediate Permission = "aiops:remediate"
	PermissionAdmin     Permission = "aiops:admin"
)

// PlanType identifies the workspace tier the token belongs to.
type PlanType string

const (
	PlanShared    PlanType = "shared"
	PlanDedicated PlanType = "dedicated"
)

// Claims is the token payload minted by the control plane for AIOps
// access.
type Claims struct {
	jwt.RegisteredClaims
	WorkspaceID string       `json:"workspace_id"`
	Permissions []Permission `json:"permissions"`
	PlanType    PlanType     `json:"plan_type"`
	OrgID       string       `json:"org_id,omitempty"`
}

// AuthContext is the validated identity attached to a request.
type AuthContext struct {
	UserID      string
	WorkspaceID string
	Permissions []Permission
	PlanType    PlanType
	OrgID       string
}

// HasPermission reports whether the context grants p. Admin grants
// everything.
func (a *AuthContext) HasPermission(p Permission) bool {
	for _, have := range a.Permissions {
		if have == PermissionAdmin || have == p {
			return true
		}
	}
	return false
}

// RequirePermission returns an error naming the missing permission.
func (a *AuthContext) RequirePermission(p Permission) error {
	if !a.HasPermission(p) {
		return fmt.Errorf("missing required permission %q", p)
	}
	return nil
}
