package catalog

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role names are free form; these are the ones the catalog ships with.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleSuperUser = "superUser"
)

// DefaultRoles is the role set assigned to new accounts
func DefaultRoles() []string {
	return []string{RoleUser}
}

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	FullName      string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	Roles         []string   `bun:"roles,type:jsonb" json:"roles,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*User)(nil)

// BeforeAppendModel keeps the email invariant: stored emails are always
// lower cased and trimmed, on inserts and updates alike.
func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		u.Email = NormalizeEmail(u.Email)
	case *bun.UpdateQuery:
		if u.Email != "" {
			u.Email = NormalizeEmail(u.Email)
		}
		now := time.Now()
		u.UpdatedAt = &now
	}
	return nil
}

// HasRole checks if the user carries the given role
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// HasAnyRole checks the user's role set against a requirement. An empty
// requirement always passes; a populated one needs a non empty intersection.
func (u *User) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// Sanitized returns a copy safe to hand back to callers: same record,
// password hash stripped.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// NormalizeEmail lower cases and trims an email address. Lookups use the
// same normalization as writes so casing never splits an account in two.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
