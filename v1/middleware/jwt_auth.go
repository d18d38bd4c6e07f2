package middleware

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hba-portal/membership-backend/shared/utils"
	"github.com/hba-portal/membership-backend/v1/models"
	authutils "github.com/hba-portal/membership-backend/v1/utils"
)

// JWTAuthConfig holds the settings for validating identity-provider tokens
type JWTAuthConfig struct {
	JWKSURL        string
	ExpectedIssuer string
	ValidClientIDs []string
	OrgName        string
	Timeout        time.Duration
}

// Validate checks that the configuration is complete
func (c *JWTAuthConfig) Validate() error {
	if c.JWKSURL == "" {
		return fmt.Errorf("JWKS URL is required")
	}
	if c.ExpectedIssuer == "" {
		return fmt.Errorf("expected issuer is required")
	}
	if len(c.ValidClientIDs) == 0 {
		return fmt.Errorf("at least one valid client ID is required")
	}
	for _, id := range c.ValidClientIDs {
		if id == "" {
			return fmt.Errorf("client IDs must not be empty")
		}
	}
	return nil
}

// JWK represents a single JSON Web Key
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWTAuthMiddleware validates RS256 bearer tokens against the identity
// provider's JWKS endpoint and stores the resulting AuthenticatedUser in
// the request context
type JWTAuthMiddleware struct {
	config     JWTAuthConfig
	httpClient *http.Client

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	keysFetched time.Time
}

// jwksCacheTTL bounds how long fetched signing keys are reused before a
// refresh; key rotation at the provider is picked up within this window
const jwksCacheTTL = time.Hour

// NewJWTAuthMiddleware creates a new JWT authentication middleware
func NewJWTAuthMiddleware(config JWTAuthConfig) *JWTAuthMiddleware {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &JWTAuthMiddleware{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		keys:       make(map[string]*rsa.PublicKey),
	}
}

// AuthenticateJWT validates the bearer token on protected paths and injects
// the authenticated user into the request context. Paths outside /api/v1/
// pass through unauthenticated.
func (m *JWTAuthMiddleware) AuthenticateJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v1/") {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := authutils.ExtractBearerToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := m.validateToken(tokenString)
		if err != nil {
			slog.Debug("JWT validation failed", "error", err, "path", r.URL.Path)
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		user := models.NewAuthenticatedUser(claims)
		authCtx := &models.AuthContext{
			Token:     tokenString,
			ClientID:  claims.ClientID,
			OrgName:   claims.OrgName,
			Scopes:    strings.Fields(claims.Scope),
			IssuedAt:  time.Unix(claims.IssuedAt, 0),
			ExpiresAt: time.Unix(claims.ExpiresAt, 0),
		}

		ctx := authutils.SetAuthenticatedUser(r.Context(), user)
		ctx = authutils.SetAuthContext(ctx, authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateToken parses and verifies the token signature and claims
func (m *JWTAuthMiddleware) validateToken(tokenString string) (*models.UserClaims, error) {
	claims := &models.UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(m.config.ExpectedIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token parsing failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	if err := m.validateAudience(claims); err != nil {
		return nil, err
	}

	if m.config.OrgName != "" && claims.OrgName != "" && claims.OrgName != m.config.OrgName {
		return nil, fmt.Errorf("token organization %q does not match expected %q", claims.OrgName, m.config.OrgName)
	}

	if claims.IdpUserID == "" {
		return nil, fmt.Errorf("token is missing subject claim")
	}

	return claims, nil
}

// validateAudience checks the aud claim against the configured client IDs
func (m *JWTAuthMiddleware) validateAudience(claims *models.UserClaims) error {
	for _, aud := range claims.Audience {
		for _, clientID := range m.config.ValidClientIDs {
			if aud == clientID {
				return nil
			}
		}
	}
	return fmt.Errorf("token audience does not match any valid client ID")
}

// keyFunc resolves the RSA public key for the token's kid header
func (m *JWTAuthMiddleware) keyFunc(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)

	if key := m.cachedKey(kid); key != nil {
		return key, nil
	}

	if err := m.refreshKeys(); err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	if key := m.cachedKey(kid); key != nil {
		return key, nil
	}
	return nil, fmt.Errorf("no signing key found for kid %q", kid)
}

// cachedKey returns the cached key for kid if the cache is still fresh.
// With a single key and no kid header, that key is used.
func (m *JWTAuthMiddleware) cachedKey(kid string) *rsa.PublicKey {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if time.Since(m.keysFetched) > jwksCacheTTL {
		return nil
	}
	if key, ok := m.keys[kid]; ok {
		return key
	}
	if kid == "" && len(m.keys) == 1 {
		for _, key := range m.keys {
			return key
		}
	}
	return nil
}

// refreshKeys fetches the JWKS and rebuilds the key cache
func (m *JWTAuthMiddleware) refreshKeys() error {
	resp, err := m.httpClient.Get(m.config.JWKSURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, jwk := range jwks.Keys {
		if jwk.Kty != "RSA" {
			continue
		}
		key, err := jwk.toRSAPublicKey()
		if err != nil {
			slog.Warn("Skipping unparseable JWK", "kid", jwk.Kid, "error", err)
			continue
		}
		keys[jwk.Kid] = key
	}

	if len(keys) == 0 {
		return fmt.Errorf("JWKS contained no usable RSA keys")
	}

	m.mu.Lock()
	m.keys = keys
	m.keysFetched = time.Now()
	m.mu.Unlock()
	return nil
}

// toRSAPublicKey converts the base64url modulus/exponent into an RSA key
func (j JWK) toRSAPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	e := big.NewInt(0).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, fmt.Errorf("invalid exponent value")
	}

	return &rsa.PublicKey{
		N: big.NewInt(0).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
