package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Product is the catalog record model
type Product struct {
	bun.BaseModel `bun:"table:products,alias:prod"`
	ID            uuid.UUID       `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string          `bun:"title,notnull,unique" json:"title,omitempty"`
	Price         float64         `bun:"price,notnull,default:0" json:"price"`
	Description   string          `bun:"description" json:"description,omitempty"`
	Slug          string          `bun:"slug,notnull,unique" json:"slug,omitempty"`
	Stock         int             `bun:"stock,notnull,default:0" json:"stock"`
	Sizes         []string        `bun:"sizes,type:jsonb" json:"sizes,omitempty"`
	Gender        string          `bun:"gender" json:"gender,omitempty"`
	Tags          []string        `bun:"tags,type:jsonb" json:"tags,omitempty"`
	Images        []*ProductImage `bun:"rel:has-many,join:id=product_id" json:"images,omitempty"`
	UserID        uuid.UUID       `bun:"user_id,nullzero,type:uuid" json:"user_id,omitempty"`
	User          *User           `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt     *time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ProductImage is an owned child row; the full set is replaced atomically
// when an update supplies a new image collection.
type ProductImage struct {
	bun.BaseModel `bun:"table:product_images,alias:pimg"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	URL           string    `bun:"url,notnull" json:"url,omitempty"`
	ProductID     uuid.UUID `bun:"product_id,notnull,type:uuid" json:"product_id,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*Product)(nil)

// BeforeAppendModel derives the slug from the title when absent and keeps
// it normalized on every insert and update.
func (p *Product) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		if p.Slug == "" {
			p.Slug = p.Title
		}
		p.Slug = NormalizeSlug(p.Slug)
	case *bun.UpdateQuery:
		if p.Slug != "" {
			p.Slug = NormalizeSlug(p.Slug)
		}
		now := time.Now()
		p.UpdatedAt = &now
	}
	return nil
}

// ImageURLs flattens the image rows into their bare URLs
func (p *Product) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img != nil {
			urls = append(urls, img.URL)
		}
	}
	return urls
}

// ProductView is the plain response shape: the record with images
// flattened to URLs.
type ProductView struct {
	*Product
	Images []string `json:"images"`
}

// Plain returns the flattened view of the product
func (p *Product) Plain() *ProductView {
	return &ProductView{
		Product: p,
		Images:  p.ImageURLs(),
	}
}

// NormalizeSlug lower cases a slug, strips apostrophes, and replaces
// spaces with underscores.
func NormalizeSlug(slug string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ReplaceAll(slug, "'", "")
	return slug
}
