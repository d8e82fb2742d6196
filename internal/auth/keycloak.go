package auth

import (
	"context"
	"fmt"

	"github.com/Nerzal/gocloak/v13"

	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

// KeycloakVerifier validates tokens by introspection against a Keycloak
// realm. Holders of the configured admin realm role become ADMIN.
type KeycloakVerifier struct {
	client *gocloak.GoCloak
	config config.KeycloakConfig
}

func NewKeycloakVerifier(cfg config.KeycloakConfig) *KeycloakVerifier {
	return &KeycloakVerifier{
		client: gocloak.NewClient(cfg.URL),
		config: cfg,
	}
}

func (k *KeycloakVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	result, err := k.client.RetrospectToken(ctx, token, k.config.ClientID, k.config.ClientSecret, k.config.Realm)
	if err != nil || result == nil || result.Active == nil || !*result.Active {
		return nil, errors.NewAuthError("invalid token", err)
	}

	info, err := k.client.GetUserInfo(ctx, token, k.config.Realm)
	if err != nil {
		return nil, errors.NewAuthError("failed to get user info", err)
	}

	_, claims, err := k.client.DecodeAccessToken(ctx, token, k.config.Realm)
	if err != nil {
		return nil, errors.NewAuthError("failed to decode token", err)
	}

	identity := &Identity{
		UserID: deref(info.Sub),
		Email:  deref(info.Email),
		Name:   deref(info.Name),
		Role:   models.RoleUser,
	}
	if identity.Name == "" {
		identity.Name = deref(info.PreferredUsername)
	}
	if claims != nil && hasRealmRole(*claims, k.config.AdminRole) {
		identity.Role = models.RoleAdmin
	}
	return identity, nil
}

// hasRealmRole looks for role in the realm_access.roles claim.
func hasRealmRole(claims map[string]interface{}, role string) bool {
	access, ok := claims["realm_access"].(map[string]interface{})
	if !ok {
		return false
	}
	roles, ok := access["roles"].([]interface{})
	if !ok {
		return false
	}
	for _, r := range roles {
		if fmt.Sprint(r) == role {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
