package catalog

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// SeedMessage resets the catalog to a known data set. Ids are derived
// from stable attributes so reseeding is idempotent.
type SeedMessage struct {
	Purge bool `json:"purge"`
}

func (e SeedMessage) Type() string { return "catalog.seed" }

type SeedUser struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
	IsActive bool     `json:"is_active"`
}

type SeedProduct struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Stock       int      `json:"stock"`
	Sizes       []string `json:"sizes"`
	Gender      string   `json:"gender"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
	OwnerEmail  string   `json:"owner_email"`
}

type SeedHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewSeedHandler(repo RepositoryManager) *SeedHandler {
	return &SeedHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *SeedHandler) WithLogger(logger Logger) *SeedHandler {
	h.logger = logger
	return h
}

func (h *SeedHandler) Execute(ctx context.Context, event SeedMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during catalog seed",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SeedHandler) execute(ctx context.Context, event SeedMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*30)
	defer cancel()

	if event.Purge {
		if err := h.repo.Products().PurgeProducts(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to purge catalog")
		}
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		owners := map[string]*User{}

		for _, su := range seedUsers {
			user, err := h.seedUser(ctx, tx, su)
			if err != nil {
				return err
			}
			owners[user.Email] = user
		}

		for _, sp := range seedProducts {
			if err := h.seedProduct(ctx, tx, sp, owners); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "catalog seed transaction failed")
	}

	h.logger.Info("Catalog seeded", "users", len(seedUsers), "products", len(seedProducts))

	return nil
}

func (h *SeedHandler) seedUser(ctx context.Context, tx bun.Tx, su SeedUser) (*User, error) {
	// Reseeding reuses accounts, only the catalog rows get purged.
	if existing, err := h.repo.Users().GetByEmailTx(ctx, tx, su.Email, false); err == nil {
		return existing, nil
	}

	hash, err := HashPassword(su.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash seed password")
	}

	user := &User{
		Email:        su.Email,
		PasswordHash: hash,
		FullName:     su.FullName,
		Roles:        su.Roles,
	}

	if id, err := hashid.NewUUID(su.Email); err == nil {
		user.ID = id
	}

	if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create seed user")
	}

	// Create defaults force active accounts, deactivation has to land as
	// an explicit column update afterwards.
	if !su.IsActive {
		if _, err := tx.NewUpdate().
			Model((*User)(nil)).
			Set("is_active = ?", false).
			Where("id = ?", user.ID).
			Exec(ctx); err != nil {
			return nil, err
		}
		user.IsActive = false
	}

	return user, nil
}

func (h *SeedHandler) seedProduct(ctx context.Context, tx bun.Tx, sp SeedProduct, owners map[string]*User) error {
	record := &Product{
		Title:       sp.Title,
		Price:       sp.Price,
		Description: sp.Description,
		Stock:       sp.Stock,
		Sizes:       sp.Sizes,
		Gender:      sp.Gender,
		Tags:        sp.Tags,
	}

	if id, err := hashid.NewUUID(sp.Title); err == nil {
		record.ID = id
	}

	if owner, ok := owners[NormalizeEmail(sp.OwnerEmail)]; ok {
		record.UserID = owner.ID
	}

	if _, err := h.repo.Products().CreateProductTx(ctx, tx, record, sp.Images); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create seed product")
	}

	return nil
}

var seedUsers = []SeedUser{
	{
		Email:    "admin@catalog.dev",
		Password: "Abc123456",
		FullName: "Ada Admin",
		Roles:    []string{RoleAdmin, RoleSuperUser, RoleUser},
		IsActive: true,
	},
	{
		Email:    "shopper@catalog.dev",
		Password: "Abc123456",
		FullName: "Sam Shopper",
		Roles:    []string{RoleUser},
		IsActive: true,
	},
	{
		Email:    "suspended@catalog.dev",
		Password: "Abc123456",
		FullName: "Iris Idle",
		Roles:    []string{RoleUser},
		IsActive: false,
	},
}

var seedProducts = []SeedProduct{
	{
		Title:       "Men's Chill Crew Neck Sweatshirt",
		Price:       75,
		Description: "Introducing the ultimate companion for cold days, crafted with premium cotton for everyday comfort.",
		Stock:       7,
		Sizes:       []string{"XS", "S", "M", "L", "XL", "XXL"},
		Gender:      "men",
		Tags:        []string{"sweatshirt"},
		Images:      []string{"1740176-00-A_0_2000.jpg", "1740176-00-A_1.jpg"},
		OwnerEmail:  "admin@catalog.dev",
	},
	{
		Title:       "Men's Quilted Shirt Jacket",
		Price:       200,
		Description: "A versatile layering piece with a quilted finish and a relaxed fit.",
		Stock:       5,
		Sizes:       []string{"XS", "S", "M", "XL", "XXL"},
		Gender:      "men",
		Tags:        []string{"jacket"},
		Images:      []string{"1740507-00-A_0_2000.jpg", "1740507-00-A_1.jpg"},
		OwnerEmail:  "admin@catalog.dev",
	},
	{
		Title:       "Women's Cropped Puffer Jacket",
		Price:       225,
		Description: "Cropped silhouette with a cinched waist and warm fill for winter wear.",
		Stock:       85,
		Sizes:       []string{"XS", "S", "M"},
		Gender:      "women",
		Tags:        []string{"jacket"},
		Images:      []string{"1740535-00-A_0_2000.jpg", "1740535-00-A_1.jpg"},
		OwnerEmail:  "admin@catalog.dev",
	},
	{
		Title:       "Kids Cyberquad Bomber Jacket",
		Price:       65,
		Description: "A bomber jacket with a glow in the dark graphic on the chest.",
		Stock:       10,
		Sizes:       []string{"XS", "S", "M"},
		Gender:      "kid",
		Tags:        []string{"shirt"},
		Images:      []string{"1742702-00-A_0_2000.jpg", "1742702-00-A_1.jpg"},
		OwnerEmail:  "admin@catalog.dev",
	},
}
