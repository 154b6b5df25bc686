package catalog_test

import (
	"database/sql"
	"testing"

	catalog "github.com/goliatone/go-catalog"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    full_name TEXT,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    roles TEXT NOT NULL DEFAULT '["user"]',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

	sqliteCreateProducts = `CREATE TABLE products (
    id TEXT NOT NULL PRIMARY KEY,
    title TEXT NOT NULL UNIQUE,
    price REAL NOT NULL DEFAULT 0,
    description TEXT,
    slug TEXT NOT NULL UNIQUE,
    stock INTEGER NOT NULL DEFAULT 0,
    sizes TEXT NOT NULL DEFAULT '[]',
    gender TEXT,
    tags TEXT NOT NULL DEFAULT '[]',
    user_id TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users (id)
);`

	sqliteCreateProductImages = `CREATE TABLE product_images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL,
    product_id TEXT NOT NULL,
    FOREIGN KEY (product_id) REFERENCES products (id) ON DELETE CASCADE
);`
)

func setupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	for _, ddl := range []string{sqliteCreateUsers, sqliteCreateProducts, sqliteCreateProductImages} {
		_, err = bunDB.Exec(ddl)
		require.NoError(t, err)
	}

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return bunDB, cleanup
}

func setupTestManager(t *testing.T) (catalog.RepositoryManager, func()) {
	t.Helper()

	db, cleanup := setupTestDB(t)
	return catalog.NewRepositoryManager(db), cleanup
}

func testAuthConfig() catalog.AuthConfig {
	return catalog.AuthConfig{
		SigningKey: "test-signing-secret",
		Issuer:     "catalog-test",
	}
}

// testIdentity satisfies catalog.Identity for token generation in tests
type testIdentity struct {
	id    string
	email string
	roles []string
}

func (i testIdentity) ID() string      { return i.id }
func (i testIdentity) Email() string   { return i.email }
func (i testIdentity) Roles() []string { return i.roles }
