package catalog

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// AuthControllerRoutes holds the route paths for the auth surface
type AuthControllerRoutes struct {
	Register    string
	Login       string
	CheckStatus string
	Private     string
	Private2    string
	Private3    string
}

// AuthController exposes the credential operations over JSON
type AuthController struct {
	Debug        bool
	Logger       Logger
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	Guard        *Guard
	ErrorHandler func(c router.Context, err error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:    "/auth/register",
			Login:       "/auth/login",
			CheckStatus: "/auth/check-status",
			Private:     "/auth/private",
			Private2:    "/auth/private2",
			Private3:    "/auth/private3",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Guard == nil {
		panic("Missing Guard in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = MakeJSONErrorHandler(c.Logger, c.Debug)
	}

	return c
}

func WithAuthControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithAuthControllerGuard(guard *Guard) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Guard = guard
		return c
	}
}

func WithAuthControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

// RegisterAuthRoutes mounts the auth surface. Each protected route
// declares its requirement inline; the guard evaluates it per request.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)
	guard := controller.Guard

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Get(controller.Routes.CheckStatus,
		guard.Protected(Authenticated())(controller.CheckStatus),
	).SetName("auth.check-status")

	app.Get(controller.Routes.Private,
		guard.Protected(Authenticated())(controller.PrivateRoute),
	).SetName("auth.private")

	app.Get(controller.Routes.Private2,
		guard.Protected(RequireRoles(RoleSuperUser))(controller.ProtectedRead),
	).SetName("auth.private2")

	app.Get(controller.Routes.Private3,
		guard.Protected(RequireRoles(RoleAdmin, RoleSuperUser))(controller.ProtectedRead),
	).SetName("auth.private3")
}

// RegisterRequest payload
type RegisterRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	FullName string `form:"full_name" json:"full_name"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 50)),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 120)),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := &RegisterRequest{}
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse registration payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()).
			WithCode(errors.CodeBadRequest))
	}

	result, err := a.Auther.Register(ctx.Context(), RegisterPayload{
		Email:    payload.Email,
		Password: payload.Password,
		FullName: payload.FullName,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, authResponse(result))
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := &LoginRequest{}
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()).
			WithCode(errors.CodeBadRequest))
	}

	result, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, authResponse(result))
}

func (a *AuthController) CheckStatus(ctx router.Context) error {
	user, ok := UserFromRouterContext(ctx, a.Guard.contextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrIdentityNotFound)
	}

	result, err := a.Auther.CheckStatus(ctx.Context(), user)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, authResponse(result))
}

// PrivateRoute exposes the resolved caller plus the extracted email, the
// "current caller" contract downstream handlers rely on.
func (a *AuthController) PrivateRoute(ctx router.Context) error {
	user, ok := UserFromRouterContext(ctx, a.Guard.contextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrIdentityNotFound)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"ok":         true,
		"user":       user.Sanitized(),
		"user_email": user.Email,
	})
}

// ProtectedRead is the response shape for role guarded reads
func (a *AuthController) ProtectedRead(ctx router.Context) error {
	user, ok := UserFromRouterContext(ctx, a.Guard.contextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrIdentityNotFound)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"ok":   true,
		"user": user.Sanitized(),
	})
}

func authResponse(result *AuthResult) map[string]any {
	return map[string]any{
		"user":  result.User,
		"token": result.Token,
	}
}

// ProductsController exposes the catalog routes
type ProductsController struct {
	Logger       Logger
	Repo         RepositoryManager
	Guard        *Guard
	ErrorHandler func(c router.Context, err error) error
}

// RegisterProductRoutes mounts the catalog surface. Reads are public;
// writes require an authenticated caller and creation requires admin.
func RegisterProductRoutes[T any](app router.Router[T], controller *ProductsController) {
	guard := controller.Guard

	if controller.Logger == nil {
		controller.Logger = defLogger{}
	}

	if controller.ErrorHandler == nil {
		controller.ErrorHandler = MakeJSONErrorHandler(controller.Logger, false)
	}

	app.Get("/products", controller.List).SetName("products.list")
	app.Get("/products/:term", controller.Show).SetName("products.show")

	app.Post("/products",
		guard.Protected(RequireRoles(RoleAdmin))(controller.Create),
	).SetName("products.create")

	app.Patch("/products/:id",
		guard.Protected(Authenticated())(controller.Update),
	).SetName("products.update")

	app.Delete("/products/:id",
		guard.Protected(RequireRoles(RoleAdmin))(controller.Delete),
	).SetName("products.delete")
}

// CreateProductRequest payload
type CreateProductRequest struct {
	Title       string   `form:"title" json:"title"`
	Price       float64  `form:"price" json:"price"`
	Description string   `form:"description" json:"description"`
	Slug        string   `form:"slug" json:"slug"`
	Stock       int      `form:"stock" json:"stock"`
	Sizes       []string `form:"sizes" json:"sizes"`
	Gender      string   `form:"gender" json:"gender"`
	Tags        []string `form:"tags" json:"tags"`
	Images      []string `form:"images" json:"images"`
}

func (r CreateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Price, validation.Min(0.0)),
		validation.Field(&r.Stock, validation.Min(0)),
		validation.Field(&r.Gender, validation.In("men", "women", "kid", "unisex")),
	)
}

func (p *ProductsController) List(ctx router.Context) error {
	limit, _ := strconv.Atoi(ctx.Query("limit", "10"))
	offset, _ := strconv.Atoi(ctx.Query("offset", "0"))

	records, err := p.Repo.Products().ListProducts(ctx.Context(), limit, offset)
	if err != nil {
		return p.ErrorHandler(ctx, err)
	}

	views := make([]*ProductView, 0, len(records))
	for _, record := range records {
		views = append(views, record.Plain())
	}

	return ctx.JSON(router.StatusOK, views)
}

func (p *ProductsController) Show(ctx router.Context) error {
	term := ctx.Param("term")

	record, err := p.Repo.Products().GetByTerm(ctx.Context(), term)
	if err != nil {
		return p.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record.Plain())
}

func (p *ProductsController) Create(ctx router.Context) error {
	payload := &CreateProductRequest{}
	if err := ctx.Bind(payload); err != nil {
		return p.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse product payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return p.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()).
			WithCode(errors.CodeBadRequest))
	}

	record := &Product{
		Title:       payload.Title,
		Price:       payload.Price,
		Description: payload.Description,
		Slug:        payload.Slug,
		Stock:       payload.Stock,
		Sizes:       payload.Sizes,
		Gender:      payload.Gender,
		Tags:        payload.Tags,
	}

	if user, ok := FromContext(ctx.Context()); ok {
		record.UserID = user.ID
	}

	created, err := p.Repo.Products().CreateProduct(ctx.Context(), record, payload.Images)
	if err != nil {
		return p.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, created.Plain())
}

func (p *ProductsController) Update(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return p.ErrorHandler(ctx, errors.New("product id must be a uuid", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest))
	}

	patch := ProductPatch{}
	if err := ctx.Bind(&patch); err != nil {
		return p.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse product patch").
			WithCode(errors.CodeBadRequest))
	}

	record, err := p.Repo.Products().UpdateWithImages(ctx.Context(), id, patch)
	if err != nil {
		return p.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record.Plain())
}

func (p *ProductsController) Delete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return p.ErrorHandler(ctx, errors.New("product id must be a uuid", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest))
	}

	if err := p.Repo.Products().DeleteProduct(ctx.Context(), id); err != nil {
		return p.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"ok": true})
}

// MakeJSONErrorHandler maps rich errors onto the JSON failure shape.
// Internal details never reach the caller; they go to the server log.
func MakeJSONErrorHandler(logger Logger, debug bool) func(c router.Context, err error) error {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c router.Context, err error) error {
		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryInternal, "Unexpected error, check server logs").
				WithCode(errors.CodeInternal)
		}

		logger.Error(
			"Request failed",
			"error", richErr.Message,
			"category", richErr.Category,
			"path", c.OriginalURL(),
		)

		if debug {
			logger.Debug("Error detail", "metadata", print.MaybePrettyJSON(richErr.Metadata))
		}

		return c.JSON(richErr.Code, map[string]any{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	}
}
