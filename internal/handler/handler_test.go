package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-online-store/internal/database"
	"go-online-store/internal/middleware"
	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
	"go-online-store/internal/permission"
	"go-online-store/internal/repository"
	"go-online-store/internal/serializer"
	"go-online-store/internal/service"
)

const testPassword = "correct-horse"

type testEnv struct {
	router     http.Handler
	db         *database.DB
	products   *repository.ProductRepository
	categories *repository.CategoryRepository
	productSvc *service.ProductService
	userSvc    *service.UserService
	authSvc    *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := database.NewTestDB(t)
	hasher := service.PasswordHasher{Cost: bcrypt.MinCost}
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	env := &testEnv{
		db:         db,
		products:   productRepo,
		categories: categoryRepo,
		productSvc: service.NewProductService(productRepo, nil),
		userSvc:    service.NewUserService(userRepo, tokenRepo, hasher, nil),
		authSvc:    service.NewAuthService(userRepo, tokenRepo, hasher, "handler-secret", 15*time.Minute, time.Hour),
	}

	pageNumber := func(size int) pagination.Paginator {
		p, err := pagination.New(pagination.PageNumber, size, 100)
		require.NoError(t, err)
		return p
	}

	products := NewProductHandler(env.productSvc, serializer.ForProduct, permission.MutationsRequireAuth, pageNumber(10))
	catalog := NewProductHandler(env.productSvc, serializer.ForCatalog, permission.AllowAny, pageNumber(5))
	categories := NewCategoryHandler(service.NewCategoryService(categoryRepo, nil), permission.MutationsRequireAuth)
	users := NewUserHandler(env.userSvc, serializer.ForUser, permission.UserGate(), pageNumber(10))
	audit := NewAuditHandler(service.NewAuditService(repository.NewAuditRepository(db)), pageNumber(10))
	auth := NewAuthHandler(env.authSvc, env.userSvc)
	pages := NewPageHandler(env.authSvc, env.userSvc, false)
	authMW := middleware.NewAuthMiddleware(env.authSvc)

	r := chi.NewRouter()
	r.Use(authMW.Authenticate)
	r.Get("/user/home/", pages.Home)
	r.Post("/user/login/", pages.Login)
	r.Post("/user/register/", pages.Register)
	r.Post("/user/logout/", pages.Logout)
	r.Post("/api/v1/auth/login", auth.Login)
	r.Post("/api/v1/auth/register", auth.Register)
	r.Post("/api/v1/auth/refresh", auth.Refresh)
	r.With(authMW.RequireAuth).Get("/api/v1/auth/me", auth.Me)
	r.Get("/api/v1/products", products.List)
	r.Post("/api/v1/products", products.Create)
	r.Get("/api/v1/products/{id}", products.Get)
	r.Put("/api/v1/products/{id}", products.Update)
	r.Patch("/api/v1/products/{id}", products.Update)
	r.Delete("/api/v1/products/{id}", products.Destroy)
	r.Get("/api/v1/catalog/products", catalog.List)
	r.Post("/api/v1/catalog/products", catalog.Create)
	r.Get("/api/v1/categories", categories.List)
	r.Post("/api/v1/categories", categories.Create)
	r.Get("/api/v1/users", users.List)
	r.Post("/api/v1/users", users.Create)
	r.Get("/api/v1/users/{id}", users.Get)
	r.Patch("/api/v1/users/{id}", users.Update)
	r.Delete("/api/v1/users/{id}", users.Destroy)
	r.Get("/api/v1/users/{id}/username", users.Username)
	r.With(authMW.RequireStaff).Get("/api/v1/audit", audit.List)

	env.router = r
	return env
}

// login creates an account and returns an access token for it.
func (e *testEnv) login(t *testing.T, username string, staff bool) (string, model.User) {
	t.Helper()
	ctx := context.Background()

	var user model.User
	var err error
	if staff {
		user, err = e.userSvc.CreateSuperuser(ctx, username, "", testPassword)
	} else {
		pw := testPassword
		user, err = e.userSvc.Create(ctx, model.AuditActor{}, model.UserChanges{Username: &username, Password: &pw})
	}
	require.NoError(t, err)

	pair, err := e.authSvc.Login(ctx, username, testPassword)
	require.NoError(t, err)
	return pair.AccessToken, user
}

func (e *testEnv) seedProduct(t *testing.T, title string, price float64) model.Product {
	t.Helper()
	p, err := e.productSvc.Create(context.Background(), model.AuditActor{Username: "seed"}, model.ProductChanges{Title: &title, Price: &price})
	require.NoError(t, err)
	return p
}

func (e *testEnv) do(t *testing.T, method string, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
