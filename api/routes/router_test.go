package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stockdeskhq/stockdesk-backend/internal/dashboard"
	internalorders "github.com/stockdeskhq/stockdesk-backend/internal/orders"
	internalproducts "github.com/stockdeskhq/stockdesk-backend/internal/products"
	pkgauth "github.com/stockdeskhq/stockdesk-backend/pkg/auth"
	"github.com/stockdeskhq/stockdesk-backend/pkg/config"
	"github.com/stockdeskhq/stockdesk-backend/pkg/db/models"
	"github.com/stockdeskhq/stockdesk-backend/pkg/logger"
	"github.com/stockdeskhq/stockdesk-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubProductsService struct{}

func (stubProductsService) Create(context.Context, uuid.UUID, internalproducts.CreateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductsService) Update(context.Context, uuid.UUID, internalproducts.UpdateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductsService) Get(context.Context, uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductsService) List(context.Context, pagination.Params, internalproducts.ProductFilters) (*internalproducts.ProductList, error) {
	return &internalproducts.ProductList{}, nil
}

func (stubProductsService) Delete(context.Context, uuid.UUID) error {
	return nil
}

type stubOrdersService struct{}

func (stubOrdersService) Create(context.Context, internalorders.CreateOrderInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) UpdateStatus(context.Context, internalorders.UpdateStatusInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) Get(context.Context, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) GetByCode(context.Context, string) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) List(context.Context, pagination.Params, internalorders.OrderFilters) (*internalorders.OrderList, error) {
	return &internalorders.OrderList{}, nil
}

func (stubOrdersService) Delete(context.Context, uuid.UUID) error {
	return nil
}

type stubDashboardRepo struct{}

func (stubDashboardRepo) Summary(context.Context) (*dashboard.Summary, error) {
	return &dashboard.Summary{}, nil
}

func (stubDashboardRepo) MonthlyRevenue(_ context.Context, year int) (*dashboard.MonthlyRevenue, error) {
	return &dashboard.MonthlyRevenue{Year: year, Data: make([]dashboard.MonthlyRevenuePoint, 12)}, nil
}

func (stubDashboardRepo) LowStock(context.Context, int) ([]dashboard.LowStockProduct, error) {
	return nil, nil
}

func (stubDashboardRepo) RecentOrders(context.Context, int) ([]dashboard.RecentOrder, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})

	dashSvc, err := dashboard.NewService(stubDashboardRepo{}, nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("dashboard service: %v", err)
	}

	return NewRouter(Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          stubPinger{},
		Redis:       stubPinger{},
		Products:    stubProductsService{},
		Orders:      stubOrdersService{},
		Dashboard:   dashSvc,
		MetricsGath: prometheus.NewRegistry(),
	})
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	userID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Role:   "manager",
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsArePublic(t *testing.T) {
	router := newTestRouter(t, testConfig())

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAPIGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	for _, path := range []string{"/api/v1/orders", "/api/v1/products", "/api/v1/dashboard/summary"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestAPIGroupRejectsBadToken(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token got %d", resp.Code)
	}
}
