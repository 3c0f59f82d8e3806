package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Validator verifies RS256 tokens against the control plane's published
// key and the deployment's issuer/audience pinning.
type Validator struct {
	keys        *KeySource
	issuer      string
	audience    string
	maxTokenAge time.Duration
}

func NewValidator(keys *KeySource, issuer, audience string, maxTokenAge time.Duration) *Validator {
	return &Validator{
		keys:        keys,
		issuer:      issuer,
		audience:    audience,
		maxTokenAge: maxTokenAge,
	}
}

// ValidateToken parses and verifies a raw bearer token, returning the
// request identity on success.
func (v *Validator) ValidateToken(ctx context.Context, raw string) (*AuthContext, error) {
	key, err := v.keys.Key(ctx)
	if err != nil {
		return nil, fmt.Errorf("load verification key: %w", err)
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("token rejected: %w", err)
	}

	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("token rejected: missing iat claim")
	}
	if v.maxTokenAge > 0 && time.Since(claims.IssuedAt.Time) > v.maxTokenAge {
		return nil, fmt.Errorf("token rejected: issued more than %s ago", v.maxTokenAge)
	}

	if claims.WorkspaceID == "" {
		return nil, fmt.Errorf("token rejected: missing workspace_id claim")
	}
	if _, err := uuid.Parse(claims.WorkspaceID); err != nil {
		return nil, fmt.Errorf("token rejected: workspace_id is not a valid UUID")
	}

	userID := claims.Subject
	if userID == "" {
		return nil, fmt.Errorf("token rejected: missing sub claim")
	}

	return &AuthContext{
		UserID:      userID,
		WorkspaceID: claims.WorkspaceID,
		Permissions: claims.Permissions,
		PlanType:    claims.PlanType,
		OrgID:       claims.OrgID,
	}, nil
}
