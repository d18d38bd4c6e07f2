package scim

import (
	"context"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to a SCIM2 management API using OAuth2 client credentials
type Client struct {
	BaseURL     string
	OAuthConfig *clientcredentials.Config
	// Client carries the OAuth2 token source and refreshes tokens as needed
	Client *http.Client
}

// NewClient creates a SCIM2 client for the given provider tenant
func NewClient(baseURL, clientID, clientSecret string, scopes []string) *Client {
	oauthConfig := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + "/oauth2/token",
		Scopes:       scopes,
	}

	return &Client{
		BaseURL:     baseURL,
		OAuthConfig: oauthConfig,
		Client:      oauthConfig.Client(context.Background()),
	}
}
