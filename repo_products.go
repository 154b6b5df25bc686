package catalog

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProductPatch is a partial update: nil fields are left untouched, set
// fields are merged onto the stored record. A nil Images slice means
// "keep the existing children"; a non nil one (empty included) replaces
// the full child set atomically.
type ProductPatch struct {
	Title       *string  `json:"title"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Slug        *string  `json:"slug"`
	Stock       *int     `json:"stock"`
	Sizes       []string `json:"sizes"`
	Gender      *string  `json:"gender"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

// Products is the catalog store
type Products interface {
	repository.Repository[*Product]

	CreateProduct(ctx context.Context, record *Product, images []string) (*Product, error)
	CreateProductTx(ctx context.Context, tx bun.IDB, record *Product, images []string) (*Product, error)

	GetByTerm(ctx context.Context, term string) (*Product, error)
	GetByTermTx(ctx context.Context, tx bun.IDB, term string) (*Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]*Product, error)

	UpdateWithImages(ctx context.Context, id uuid.UUID, patch ProductPatch) (*Product, error)
	UpdateWithImagesTx(ctx context.Context, tx bun.IDB, id uuid.UUID, patch ProductPatch) (*Product, error)

	DeleteImagesOf(ctx context.Context, tx bun.IDB, productID uuid.UUID) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	PurgeProducts(ctx context.Context) error
}

type products struct {
	repository.Repository[*Product]
	db *bun.DB
}

var (
	_ Products                        = (*products)(nil)
	_ repository.Repository[*Product] = (*products)(nil)
)

func NewProductsRepository(db *bun.DB) Products {
	repo := repository.NewRepository[*Product](db, repository.ModelHandlers[*Product]{
		NewRecord: func() *Product { return &Product{} },
		GetID: func(p *Product) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Product, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "slug"
		},
	})

	return &products{
		Repository: repo,
		db:         db,
	}
}

func (r *products) CreateProduct(ctx context.Context, record *Product, images []string) (*Product, error) {
	var created *Product
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		created, err = r.CreateProductTx(ctx, tx, record, images)
		return err
	})
	if err != nil {
		return nil, MapPersistenceError(err)
	}
	return created, nil
}

func (r *products) CreateProductTx(ctx context.Context, tx bun.IDB, record *Product, images []string) (*Product, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}

	if len(images) > 0 {
		rows := newImageRows(record.ID, images)
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return nil, err
		}
		record.Images = rows
	}

	return record, nil
}

// GetByTerm looks a product up by id when the term parses as a UUID,
// otherwise by exact title or by normalized slug.
func (r *products) GetByTerm(ctx context.Context, term string) (*Product, error) {
	return r.GetByTermTx(ctx, r.db, term)
}

func (r *products) GetByTermTx(ctx context.Context, tx bun.IDB, term string) (*Product, error) {
	record := &Product{}
	q := tx.NewSelect().
		Model(record).
		Relation("Images")

	if _, err := uuid.Parse(term); err == nil {
		q = q.Where("?TableAlias.id = ?", term)
	} else {
		q = q.Where("?TableAlias.title = ? OR ?TableAlias.slug = ?", term, NormalizeSlug(term))
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, errors.New("Product with id "+term+" not found", errors.CategoryNotFound).
				WithCode(errors.CodeNotFound).
				WithTextCode("PRODUCT_NOT_FOUND").
				WithMetadata(map[string]any{"term": term})
		}
		return nil, err
	}

	return record, nil
}

func (r *products) ListProducts(ctx context.Context, limit, offset int) ([]*Product, error) {
	if limit <= 0 {
		limit = 10
	}

	var records []*Product
	err := r.db.NewSelect().
		Model(&records).
		Relation("Images").
		Limit(limit).
		Offset(offset).
		Scan(ctx)

	if err != nil {
		return nil, MapPersistenceError(err)
	}

	return records, nil
}

// UpdateWithImages merges the patch onto the stored record and, when the
// patch carries a replacement image set, swaps the full child collection.
// Parent patch and child replacement commit or roll back as one unit; a
// reader never sees one without the other.
func (r *products) UpdateWithImages(ctx context.Context, id uuid.UUID, patch ProductPatch) (*Product, error) {
	record, err := r.GetByTerm(ctx, id.String())
	if err != nil {
		return nil, err
	}

	applyProductPatch(record, patch)

	err = r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return r.updateWithImagesTx(ctx, tx, record, patch)
	})
	if err != nil {
		return nil, MapPersistenceError(err)
	}

	return r.GetByTerm(ctx, id.String())
}

// UpdateWithImagesTx runs the merge + replace steps inside an existing
// transaction scope; the caller owns commit and rollback.
func (r *products) UpdateWithImagesTx(ctx context.Context, tx bun.IDB, id uuid.UUID, patch ProductPatch) (*Product, error) {
	record, err := r.GetByTermTx(ctx, tx, id.String())
	if err != nil {
		return nil, err
	}

	applyProductPatch(record, patch)

	if err := r.updateWithImagesTx(ctx, tx, record, patch); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *products) updateWithImagesTx(ctx context.Context, tx bun.IDB, record *Product, patch ProductPatch) error {
	if patch.Images != nil {
		if err := r.DeleteImagesOf(ctx, tx, record.ID); err != nil {
			return err
		}

		rows := newImageRows(record.ID, patch.Images)
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return err
			}
		}
		record.Images = rows
	}

	_, err := tx.NewUpdate().
		Model(record).
		ExcludeColumn("created_at").
		WherePK().
		Exec(ctx)

	return err
}

func (r *products) DeleteImagesOf(ctx context.Context, tx bun.IDB, productID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*ProductImage)(nil)).
		Where("product_id = ?", productID).
		Exec(ctx)
	return err
}

// DeleteProduct removes a record and its image rows in one transaction
func (r *products) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := r.DeleteImagesOf(ctx, tx, id); err != nil {
			return err
		}

		_, err := tx.NewDelete().
			Model((*Product)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return MapPersistenceError(err)
	}
	return nil
}

// PurgeProducts purges the catalog, children first. Used by the seeder.
func (r *products) PurgeProducts(ctx context.Context) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*ProductImage)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewDelete().
			Model((*Product)(nil)).
			Where("1 = 1").
			Exec(ctx)
		return err
	})
}

func applyProductPatch(record *Product, patch ProductPatch) {
	if patch.Title != nil {
		record.Title = *patch.Title
	}
	if patch.Price != nil {
		record.Price = *patch.Price
	}
	if patch.Description != nil {
		record.Description = *patch.Description
	}
	if patch.Slug != nil {
		record.Slug = *patch.Slug
	}
	if patch.Stock != nil {
		record.Stock = *patch.Stock
	}
	if patch.Sizes != nil {
		record.Sizes = patch.Sizes
	}
	if patch.Gender != nil {
		record.Gender = *patch.Gender
	}
	if patch.Tags != nil {
		record.Tags = patch.Tags
	}
}

func newImageRows(productID uuid.UUID, urls []string) []*ProductImage {
	rows := make([]*ProductImage, 0, len(urls))
	for _, url := range urls {
		rows = append(rows, &ProductImage{
			URL:       url,
			ProductID: productID,
		})
	}
	return rows
}
