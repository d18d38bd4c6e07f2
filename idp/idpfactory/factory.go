package idpfactory

import (
	"fmt"

	"github.com/hba-portal/membership-backend/idp"
	"github.com/hba-portal/membership-backend/idp/scim"
)

// FactoryConfig holds the settings needed to construct an identity
// provider client
type FactoryConfig struct {
	ProviderType idp.ProviderType
	BaseURL      string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// NewIdpAPIProvider creates the identity provider client for the configured
// provider type
func NewIdpAPIProvider(cfg *FactoryConfig) (idp.IdentityProviderAPI, error) {
	if cfg == nil {
		return nil, fmt.Errorf("factory config is required")
	}

	switch cfg.ProviderType {
	case idp.ProviderSCIM:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("base URL is required for provider type %q", cfg.ProviderType)
		}
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, fmt.Errorf("client credentials are required for provider type %q", cfg.ProviderType)
		}
		return scim.NewClient(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, cfg.Scopes), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %q", cfg.ProviderType)
	}
}
