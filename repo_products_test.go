package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	catalog "github.com/goliatone/go-catalog"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newStoredProduct(t *testing.T, products catalog.Products, title string, images ...string) *catalog.Product {
	t.Helper()

	record, err := products.CreateProduct(context.Background(), &catalog.Product{
		Title:       title,
		Price:       75,
		Description: "a stored product",
		Stock:       7,
		Sizes:       []string{"S", "M"},
		Gender:      "men",
		Tags:        []string{"test"},
	}, images)
	require.NoError(t, err)

	return record
}

func TestProductsCreateDerivesSlug(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	record := newStoredProduct(t, products, "Men's Chill Crew Neck Sweatshirt")
	assert.Equal(t, "mens_chill_crew_neck_sweatshirt", record.Slug)
}

func TestProductsCreateWithImages(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	record := newStoredProduct(t, products, "Sweatshirt", "one.jpg", "two.jpg")

	stored, err := products.GetByTerm(context.Background(), record.ID.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one.jpg", "two.jpg"}, stored.ImageURLs())
}

func TestProductsGetByTerm(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	record := newStoredProduct(t, products, "Men's Quilted Jacket", "one.jpg")

	t.Run("by id", func(t *testing.T) {
		found, err := products.GetByTerm(context.Background(), record.ID.String())
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
	})

	t.Run("by exact title", func(t *testing.T) {
		found, err := products.GetByTerm(context.Background(), "Men's Quilted Jacket")
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
	})

	t.Run("by slug", func(t *testing.T) {
		found, err := products.GetByTerm(context.Background(), "mens_quilted_jacket")
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
	})

	t.Run("title text normalizes into the slug", func(t *testing.T) {
		// the raw text doesn't match the title column but its
		// normalized form matches the slug
		found, err := products.GetByTerm(context.Background(), "MENS QUILTED JACKET")
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
	})

	t.Run("miss", func(t *testing.T) {
		_, err := products.GetByTerm(context.Background(), "does-not-exist")
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestProductsListProducts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	newStoredProduct(t, products, "Alpha Shirt", "a.jpg")
	newStoredProduct(t, products, "Beta Shirt", "b.jpg")
	newStoredProduct(t, products, "Gamma Shirt")

	all, err := products.ListProducts(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := products.ListProducts(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := products.ListProducts(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestProductsUpdateWithImagesReplacesChildren(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	record := newStoredProduct(t, products, "Sweatshirt", "x.jpg")

	title := "Renamed Sweatshirt"
	updated, err := products.UpdateWithImages(context.Background(), record.ID, catalog.ProductPatch{
		Title:  &title,
		Images: []string{"y.jpg", "z.jpg"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed Sweatshirt", updated.Title)
	assert.ElementsMatch(t, []string{"y.jpg", "z.jpg"}, updated.ImageURLs())

	// no orphan rows survive the replacement
	count, err := db.NewSelect().Model((*catalog.ProductImage)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProductsUpdateWithImagesNilKeepsChildren(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	record := newStoredProduct(t, products, "Sweatshirt", "x.jpg")

	price := 99.5
	updated, err := products.UpdateWithImages(context.Background(), record.ID, catalog.ProductPatch{
		Price: &price,
	})
	require.NoError(t, err)

	assert.Equal(t, 99.5, updated.Price)
	assert.ElementsMatch(t, []string{"x.jpg"}, updated.ImageURLs())
}

func TestProductsUpdateWithImagesEmptySliceClears(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	record := newStoredProduct(t, products, "Sweatshirt", "x.jpg", "y.jpg")

	updated, err := products.UpdateWithImages(context.Background(), record.ID, catalog.ProductPatch{
		Images: []string{},
	})
	require.NoError(t, err)
	assert.Empty(t, updated.ImageURLs())
}

func TestProductsUpdateWithImagesUnknownID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	_, err := products.UpdateWithImages(context.Background(), uuid.New(), catalog.ProductPatch{})
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestProductsUpdateWithImagesRollsBackAsOneUnit(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	record := newStoredProduct(t, products, "Sweatshirt", "x.jpg")
	boom := errors.New("forced failure after the swap")

	title := "Should Not Stick"
	err := db.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := products.UpdateWithImagesTx(ctx, tx, record.ID, catalog.ProductPatch{
			Title:  &title,
			Images: []string{"y.jpg", "z.jpg"},
		})
		require.NoError(t, err)

		// the failure lands after both the parent write and the child
		// swap; the whole unit has to roll back
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := products.GetByTerm(context.Background(), record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Sweatshirt", stored.Title)
	assert.ElementsMatch(t, []string{"x.jpg"}, stored.ImageURLs())
}

func TestProductsDeleteProductRemovesChildren(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	record := newStoredProduct(t, products, "Sweatshirt", "x.jpg", "y.jpg")

	require.NoError(t, products.DeleteProduct(context.Background(), record.ID))

	_, err := products.GetByTerm(context.Background(), record.ID.String())
	require.Error(t, err)

	count, err := db.NewSelect().Model((*catalog.ProductImage)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestProductsPurge(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	newStoredProduct(t, products, "Alpha Shirt", "a.jpg")
	newStoredProduct(t, products, "Beta Shirt", "b.jpg")

	require.NoError(t, products.PurgeProducts(context.Background()))

	all, err := products.ListProducts(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProductsDuplicateTitleIsConflict(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	products := catalog.NewProductsRepository(db)

	newStoredProduct(t, products, "Sweatshirt")

	_, err := products.CreateProduct(context.Background(), &catalog.Product{
		Title: "Sweatshirt",
	}, nil)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryConflict, richErr.Category)
}
