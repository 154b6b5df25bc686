package catalog

import "github.com/goliatone/go-router"

// AuthConfig is a plain Config implementation for wiring the module
// without a config container. Zero values fall back to defaults; the
// signing key has no default on purpose.
type AuthConfig struct {
	SigningKey      string   `json:"signing_key"`
	TokenExpiration int      `json:"token_expiration"`
	Issuer          string   `json:"issuer"`
	Audience        []string `json:"audience"`
	ContextKey      string   `json:"context_key"`
	TokenLookup     string   `json:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme"`
}

var _ Config = AuthConfig{}

func (c AuthConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c AuthConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return DefaultTokenExpiration
	}
	return c.TokenExpiration
}

func (c AuthConfig) GetIssuer() string {
	return c.Issuer
}

func (c AuthConfig) GetAudience() []string {
	return c.Audience
}

func (c AuthConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c AuthConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:" + router.HeaderAuthorization
	}
	return c.TokenLookup
}

func (c AuthConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}
