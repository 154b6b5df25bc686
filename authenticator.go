package catalog

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Auther orchestrates registration and login: it validates credentials
// against the store, hashes passwords, and issues tokens.
type Auther struct {
	repo   RepositoryManager
	tokens *TokenService
	logger Logger
}

// NewAuthenticator returns a new Authenticator. Construction fails when
// the signing secret is missing, so a misconfigured process never gets
// far enough to issue unverifiable tokens.
func NewAuthenticator(repo RepositoryManager, cfg Config) (*Auther, error) {
	tokens, err := NewTokenService(cfg, defLogger{})
	if err != nil {
		return nil, err
	}

	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}, nil
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// Register creates a new account with the default role set, stores the
// password as a bcrypt hash, and returns the sanitized record plus a
// fresh token. A duplicate email surfaces as a Conflict with the store's
// duplicate key detail; any other persistence failure is logged and
// replaced with an opaque Internal error.
func (s *Auther) Register(ctx context.Context, payload RegisterPayload) (*AuthResult, error) {
	hash, err := HashPassword(payload.Password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		s.logger.Error("Register password hash error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Email:        payload.Email,
		PasswordHash: hash,
		FullName:     payload.FullName,
	}

	created, err := s.repo.Users().Register(ctx, user)
	if err != nil {
		mapped := MapPersistenceError(err)
		s.logger.Error("Register persistence error", "error", err, "email", NormalizeEmail(payload.Email))
		return nil, mapped
	}

	token, err := s.tokens.Generate(userIdentity{created})
	if err != nil {
		s.logger.Error("Register token error", "error", err)
		return nil, err
	}

	return &AuthResult{User: created.Sanitized(), Token: token}, nil
}

// Login verifies an email/password pair and issues a token. A missing
// account and a bad password are indistinguishable to the caller.
func (s *Auther) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email, true)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Login lookup error", "error", err)
		return nil, MapPersistenceError(err)
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Login hash comparison error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to verify credentials")
	}

	token, err := s.tokens.Generate(userIdentity{user})
	if err != nil {
		s.logger.Error("Login token error", "error", err)
		return nil, err
	}

	return &AuthResult{User: user.Sanitized(), Token: token}, nil
}

// CheckStatus re-issues a token for an identity the guard already
// resolved. No credential re-check happens here.
func (s *Auther) CheckStatus(ctx context.Context, user *User) (*AuthResult, error) {
	if user == nil {
		return nil, ErrIdentityNotFound
	}

	token, err := s.tokens.Generate(userIdentity{user})
	if err != nil {
		s.logger.Error("CheckStatus token error", "error", err)
		return nil, err
	}

	return &AuthResult{User: user.Sanitized(), Token: token}, nil
}

var _ Authenticator = (*Auther)(nil)

type userIdentity struct {
	user *User
}

func (a userIdentity) ID() string {
	return a.user.ID.String()
}

func (a userIdentity) Email() string {
	return a.user.Email
}

func (a userIdentity) Roles() []string {
	return a.user.Roles
}

var _ Identity = userIdentity{}
