package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	addresssvc "github.com/dukahub/duka-backend/internal/addresses"
	authsvc "github.com/dukahub/duka-backend/internal/auth"
	ordersvc "github.com/dukahub/duka-backend/internal/orders"
	paymentsvc "github.com/dukahub/duka-backend/internal/payments"
	productsvc "github.com/dukahub/duka-backend/internal/products"
	pkgauth "github.com/dukahub/duka-backend/pkg/auth"
	"github.com/dukahub/duka-backend/pkg/auth/session"
	"github.com/dukahub/duka-backend/pkg/config"
	"github.com/dukahub/duka-backend/pkg/daraja"
	"github.com/dukahub/duka-backend/pkg/db/models"
	"github.com/dukahub/duka-backend/pkg/enums"
	"github.com/dukahub/duka-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, authsvc.RegisterRequest) (*authsvc.SessionResponse, error) {
	return &authsvc.SessionResponse{}, nil
}
func (stubAuthService) Login(context.Context, authsvc.LoginRequest) (*authsvc.SessionResponse, error) {
	return &authsvc.SessionResponse{}, nil
}
func (stubAuthService) Refresh(context.Context, authsvc.RefreshRequest) (*authsvc.SessionResponse, error) {
	return &authsvc.SessionResponse{}, nil
}
func (stubAuthService) Logout(context.Context, string) error { return nil }
func (stubAuthService) Profile(context.Context, uuid.UUID) (*authsvc.UserProfile, error) {
	return &authsvc.UserProfile{}, nil
}

type stubProductService struct{}

func (stubProductService) Create(context.Context, productsvc.CreateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProductService) Get(context.Context, uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProductService) List(context.Context, *uuid.UUID, pagination.Params) ([]models.Product, pagination.Page, error) {
	return nil, pagination.Page{}, nil
}
func (stubProductService) Update(context.Context, uuid.UUID, productsvc.UpdateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProductService) Delete(context.Context, uuid.UUID) error { return nil }
func (stubProductService) CreateCategory(context.Context, string, *string) (*models.Category, error) {
	return &models.Category{}, nil
}
func (stubProductService) ListCategories(context.Context) ([]models.Category, error) {
	return nil, nil
}

type stubOrderService struct{}

func (stubOrderService) Create(context.Context, ordersvc.CreateOrderInput) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubOrderService) Get(context.Context, uuid.UUID, uuid.UUID, bool) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubOrderService) ListMine(context.Context, uuid.UUID, pagination.Params) ([]models.Order, pagination.Page, error) {
	return nil, pagination.Page{}, nil
}
func (stubOrderService) ListAll(context.Context, *enums.OrderStatus, pagination.Params) ([]models.Order, pagination.Page, error) {
	return nil, pagination.Page{}, nil
}
func (stubOrderService) Cancel(context.Context, uuid.UUID, uuid.UUID) error       { return nil }
func (stubOrderService) UpdateStatus(context.Context, uuid.UUID, enums.OrderStatus) error {
	return nil
}
func (stubOrderService) Dashboard(context.Context) (*ordersvc.DashboardSummary, error) {
	return &ordersvc.DashboardSummary{}, nil
}

type stubAddressService struct{}

func (stubAddressService) Create(context.Context, uuid.UUID, addresssvc.AddressInput) (*models.Address, error) {
	return &models.Address{}, nil
}
func (stubAddressService) List(context.Context, uuid.UUID) ([]models.Address, error) {
	return nil, nil
}
func (stubAddressService) Update(context.Context, uuid.UUID, uuid.UUID, addresssvc.AddressInput) (*models.Address, error) {
	return &models.Address{}, nil
}
func (stubAddressService) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stubPaymentService struct{}

func (stubPaymentService) Initiate(context.Context, uuid.UUID, paymentsvc.InitiateRequest) (*paymentsvc.InitiateResponse, error) {
	return &paymentsvc.InitiateResponse{}, nil
}
func (stubPaymentService) Reconcile(context.Context, daraja.CallbackEnvelope, []byte) error {
	return nil
}
func (stubPaymentService) Query(context.Context, uuid.UUID, uuid.UUID, bool) (*paymentsvc.StatusResponse, error) {
	return &paymentsvc.StatusResponse{}, nil
}

func testRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()

	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: jwtCfg,
	}

	router := NewRouter(Deps{
		Config:    cfg,
		DB:        stubPinger{},
		Sessions:  stubSessions{},
		Auth:      stubAuthService{},
		Products:  stubProductService{},
		Orders:    stubOrderService{},
		Addresses: stubAddressService{},
		Payments:  stubPaymentService{},
	})
	return router, jwtCfg
}

func mintToken(t *testing.T, cfg config.JWTConfig, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "tester@example.com",
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveRoute(t *testing.T) {
	router, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	router, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestCatalogRequiresAuth(t *testing.T) {
	router, jwtCfg := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleCustomer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOrdersRequireAuth(t *testing.T) {
	router, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestOrdersWithToken(t *testing.T) {
	router, jwtCfg := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPaymentStatusRoute(t *testing.T) {
	router, jwtCfg := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+uuid.NewString()+"/status", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminOrderDetailRoute(t *testing.T) {
	router, jwtCfg := testRouter(t)

	target := "/api/v1/admin/orders/" + uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router, jwtCfg := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}
