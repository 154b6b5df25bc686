package catalog

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// TokenValidator validates a raw bearer token into structured claims
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// RouteRequirement is the per operation access declaration. Zero roles
// means "authenticated only"; a populated set means the caller's role
// set must intersect it.
type RouteRequirement struct {
	Roles []string
}

// Authenticated is the empty requirement
func Authenticated() RouteRequirement {
	return RouteRequirement{}
}

// RequireRoles builds a requirement from the given role names
func RequireRoles(roles ...string) RouteRequirement {
	return RouteRequirement{Roles: roles}
}

// Guard is the per request decision pipeline: resolve the caller from a
// bearer token, then check its role set against a declared requirement.
// The identity is re-read from the store on every request, so role and
// active flag changes take effect without waiting for token expiry.
type Guard struct {
	tokens       TokenValidator
	users        Users
	contextKey   string
	tokenLookup  string
	authScheme   string
	logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

// NewGuard wires the guard with its token validator and credential store
func NewGuard(tokens TokenValidator, users Users, cfg Config) *Guard {
	contextKey := cfg.GetContextKey()
	if contextKey == "" {
		contextKey = "user"
	}

	tokenLookup := cfg.GetTokenLookup()
	if tokenLookup == "" {
		tokenLookup = "header:" + router.HeaderAuthorization
	}

	authScheme := cfg.GetAuthScheme()
	if authScheme == "" {
		authScheme = "Bearer"
	}

	g := &Guard{
		tokens:      tokens,
		users:       users,
		contextKey:  contextKey,
		tokenLookup: tokenLookup,
		authScheme:  authScheme,
		logger:      defLogger{},
	}
	g.ErrorHandler = g.defaultErrHandler

	return g
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	g.logger = logger
	return g
}

// Protected returns middleware enforcing the requirement. Stage one
// authenticates and attaches the resolved user; stage two checks roles
// and only ever runs after stage one succeeded.
func (g *Guard) Protected(requirement RouteRequirement) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, err := g.Authenticate(ctx)
			if err != nil {
				return g.ErrorHandler(ctx, err)
			}

			if err := CheckRoles(user, requirement); err != nil {
				return g.ErrorHandler(ctx, err)
			}

			return next(ctx)
		}
	}
}

// Authenticate runs stage one: extract the token, verify it, resolve the
// account by id (password hash excluded), and reject inactive accounts.
// On success the user is stored in router locals and the request context.
func (g *Guard) Authenticate(ctx router.Context) (*User, error) {
	raw, err := g.extractRawToken(ctx)
	if err != nil {
		return nil, err
	}

	claims, err := g.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		g.logger.Error("Guard token carries a non uuid subject", "subject", claims.UserID())
		return nil, ErrTokenMalformed
	}

	user, err := g.users.GetByUserID(ctx.Context(), id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		g.logger.Error("Guard identity lookup error", "error", err)
		return nil, MapPersistenceError(err)
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	ctx.Locals(g.contextKey, user)
	stdCtx := WithContext(ctx.Context(), user)
	stdCtx = WithClaimsContext(stdCtx, claims)
	ctx.SetContext(stdCtx)

	return user, nil
}

// CheckRoles runs stage two against an already resolved user
func CheckRoles(user *User, requirement RouteRequirement) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	if len(requirement.Roles) == 0 {
		return nil
	}

	if user.HasAnyRole(requirement.Roles...) {
		return nil
	}

	return ErrInsufficientRoles.Clone().WithMetadata(map[string]any{
		"user_id":  user.ID.String(),
		"required": requirement.Roles,
	})
}

// UserFromRouterContext returns the user the guard attached, if any
func UserFromRouterContext(ctx router.Context, key string) (*User, bool) {
	if key == "" {
		key = "user"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	user, ok := raw.(*User)
	return user, ok
}

func (g *Guard) extractRawToken(ctx router.Context) (string, error) {
	// header:Authorization,query:token,cookie:jwt
	for _, part := range strings.Split(g.tokenLookup, ",") {
		fields := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(fields) != 2 {
			continue
		}

		var raw string
		switch fields[0] {
		case "header":
			raw = tokenFromHeader(ctx.GetString(fields[1], ""), g.authScheme)
		case "query":
			raw = ctx.Query(fields[1], "")
		case "cookie":
			raw = ctx.Cookies(fields[1])
		}

		if raw != "" {
			return raw, nil
		}
	}

	return "", ErrTokenMissing
}

func tokenFromHeader(header, authScheme string) string {
	scheme := strings.TrimSpace(authScheme)
	if len(header) > len(scheme)+1 && strings.EqualFold(header[:len(scheme)], scheme) {
		return strings.TrimSpace(header[len(scheme):])
	}
	return ""
}

func (g *Guard) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	g.logger.Info(
		"Guard rejected request",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	return c.JSON(richErr.Code, map[string]any{
		"error": richErr.Message,
	})
}
