package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rentstore/internal/cart"
	"rentstore/internal/config"
	"rentstore/internal/contract"
	"rentstore/internal/handlers"
	"rentstore/internal/logger"
	"rentstore/internal/middleware"
	"rentstore/internal/models"
	"rentstore/internal/notify"
	"rentstore/internal/repositories"
	"rentstore/internal/services"
)

// recordingQueue stands in for the broker; nothing consumes the tasks.
type recordingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingQueue) Enqueue(_ context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, taskID)
	return nil
}

func (q *recordingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	queue *recordingQueue
}

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	db, err := repositories.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))

	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	queue := &recordingQueue{}

	dispatcher := notify.NewDispatcher(nil, nil)
	notifications := services.NewNotificationService(repositories.NewGORMNotificationRepository(db), orderRepo, dispatcher, queue, 3)
	discountService := services.NewDiscountService(repositories.NewGORMDiscountRepository(db))
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, discountService, notifications)
	authService := services.NewAuthService(userRepo, dispatcher, config.JWTConfig{Secret: "test_jwt_secret", TTL: time.Hour}, 15*time.Minute)

	app := fiber.New()
	guards := handlers.Guards{Auth: middleware.AuthRequired(authService), Admin: middleware.AdminRequired()}
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1, guards)
	handlers.NewProductHandler(services.NewProductService(productRepo)).RegisterRoutes(apiV1, guards)
	handlers.NewCategoryHandler(services.NewCategoryService(repositories.NewGORMCategoryRepository(db))).RegisterRoutes(apiV1, guards)
	handlers.NewDiscountHandler(discountService).RegisterRoutes(apiV1, guards)
	handlers.NewCartHandler(services.NewCartService(cart.NewGORMStorage(db), productRepo, discountService, orderService)).RegisterRoutes(apiV1, guards)
	handlers.NewOrderHandler(orderService, authService, contract.NewBuilder(config.CompanyConfig{Name: "Rentstore LLP"})).RegisterRoutes(apiV1, guards)
	handlers.NewRentalHandler(services.NewRentalService(repositories.NewGORMRentalRepository(db), productRepo, userRepo)).RegisterRoutes(apiV1, guards)

	return &testEnv{app: app, db: db, queue: queue}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	logger.InitializeWithWriter(io.Discard, "error", "text")
	os.Exit(m.Run())
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
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
	resp, err := e.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	status, _ := e.do(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"email": email, "password": "password123", "first_name": "Test", "last_name": "User",
	})
	require.Equal(t, http.StatusCreated, status)
	return e.login(t, email)
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, status)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// admin registers a user, promotes it and logs in again so the token carries the role.
func (e *testEnv) admin(t *testing.T) string {
	t.Helper()
	e.register(t, "admin@example.com")
	require.NoError(t, e.db.Model(&models.User{}).Where("email = ?", "admin@example.com").Update("role", models.RoleAdmin).Error)
	return e.login(t, "admin@example.com")
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestAuthRegisterAndLogin(t *testing.T) {
	e := setupApp(t)

	token := e.register(t, "Test@Example.com")

	status, _ := e.do(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{"email": "test@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = e.do(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{"email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{"email": "test@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := e.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[models.User](t, body)
	assert.Equal(t, "test@example.com", me.Email)
	assert.Equal(t, models.RoleUser, me.Role)
	assert.NotContains(t, string(body), "password")

	status, body = e.do(t, http.MethodPatch, "/api/v1/auth/me", token, fiber.Map{"preferred_channel": "messaging", "whatsapp_phone": "87011112233"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.ChannelMessaging, decode[models.User](t, body).PreferredChannel)
}

func TestForgotPasswordInDemoMode(t *testing.T) {
	e := setupApp(t)
	e.register(t, "forgot@example.com")

	status, body := e.do(t, http.MethodPost, "/api/v1/auth/forgot-password", "", fiber.Map{"email": "forgot@example.com"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, decode[map[string]any](t, body)["demo"])

	status, _ = e.do(t, http.MethodPost, "/api/v1/auth/forgot-password", "", fiber.Map{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", fiber.Map{
		"email": "forgot@example.com", "code": "000000", "new_password": "another-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProductEndpointsRequireAdminForWrites(t *testing.T) {
	e := setupApp(t)
	userToken := e.register(t, "user@example.com")
	adminToken := e.admin(t)

	product := fiber.Map{"name": "Перфоратор Bosch", "price_per_day": 5000, "quantity": 3}

	status, _ := e.do(t, http.MethodPost, "/api/v1/products", "", product)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = e.do(t, http.MethodPost, "/api/v1/products", userToken, product)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := e.do(t, http.MethodPost, "/api/v1/products", adminToken, product)
	require.Equal(t, http.StatusCreated, status)
	created := decode[models.Product](t, body)
	assert.Equal(t, "perforator-bosch", created.Slug)
	assert.True(t, created.IsRentable)

	status, body = e.do(t, http.MethodGet, "/api/v1/products/slug/perforator-bosch", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, decode[models.Product](t, body).ID)

	status, body = e.do(t, http.MethodGet, "/api/v1/products?rentable=true", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Product](t, body), 1)

	status, _ = e.do(t, http.MethodGet, "/api/v1/products?status=lost", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodGet, "/api/v1/products/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

type orderResponse struct {
	ID             string             `json:"id"`
	OrderNumber    string             `json:"order_number"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountCode   string             `json:"discount_code"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	Total          decimal.Decimal    `json:"total"`
	Status         models.OrderStatus `json:"status"`
	Items          []models.OrderItem `json:"items"`
}

func TestCartCheckoutWithPromoAndContract(t *testing.T) {
	e := setupApp(t)
	adminToken := e.admin(t)
	userToken := e.register(t, "renter@example.com")

	status, body := e.do(t, http.MethodPost, "/api/v1/products", adminToken, fiber.Map{"name": "Rotary hammer", "price_per_day": 5000, "quantity": 5})
	require.Equal(t, http.StatusCreated, status)
	drill := decode[models.Product](t, body)

	status, _ = e.do(t, http.MethodPost, "/api/v1/discounts", adminToken, fiber.Map{"name": "save10", "type": "percentage", "value": 10})
	require.Equal(t, http.StatusCreated, status)

	status, body = e.do(t, http.MethodGet, "/api/v1/discounts/check/SAVE10", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "SAVE10", decode[map[string]any](t, body)["code"])

	status, _ = e.do(t, http.MethodPost, "/api/v1/cart/items", userToken, fiber.Map{"product_id": drill.ID})
	require.Equal(t, http.StatusOK, status)
	status, _ = e.do(t, http.MethodPatch, "/api/v1/cart/items/"+drill.ID, userToken, fiber.Map{"delta": 1})
	require.Equal(t, http.StatusOK, status)
	status, _ = e.do(t, http.MethodPut, "/api/v1/cart/items/"+drill.ID+"/dates", userToken, fiber.Map{"start_date": "2026-06-01", "end_date": "2026-06-04"})
	require.Equal(t, http.StatusOK, status)

	status, body = e.do(t, http.MethodPost, "/api/v1/cart/promo", userToken, fiber.Map{"code": "save10"})
	require.Equal(t, http.StatusOK, status)
	view := decode[services.CartView](t, body)
	assert.True(t, view.Subtotal.Equal(decimal.NewFromInt(30000)), view.Subtotal.String())
	assert.True(t, view.Total.Equal(decimal.NewFromInt(27000)), view.Total.String())

	status, body = e.do(t, http.MethodPost, "/api/v1/cart/checkout", userToken, fiber.Map{"delivery_address": "Almaty, Abay ave. 1"})
	require.Equal(t, http.StatusCreated, status)
	order := decode[orderResponse](t, body)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(27000)), order.Total.String())
	assert.True(t, order.DiscountAmount.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, "SAVE10", order.DiscountCode)
	assert.Equal(t, models.OrderPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Days)
	assert.Equal(t, 1, e.queue.len())

	status, body = e.do(t, http.MethodGet, "/api/v1/cart", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[services.CartView](t, body).Items)

	status, _ = e.do(t, http.MethodPost, "/api/v1/cart/checkout", userToken, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, status)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+order.ID+"/contract", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "contract-"+order.OrderNumber+".pdf")
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	strangerToken := e.register(t, "stranger@example.com")
	status, _ = e.do(t, http.MethodGet, "/api/v1/orders/"+order.ID+"/contract", strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = e.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", userToken, fiber.Map{"status": "processing"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = e.do(t, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", adminToken, fiber.Map{"status": "delivered"})
	assert.Equal(t, http.StatusConflict, status)
	status, body = e.do(t, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", adminToken, fiber.Map{"status": "processing"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.OrderProcessing, decode[orderResponse](t, body).Status)
}

func TestApplyUnknownPromoClearsPrevious(t *testing.T) {
	e := setupApp(t)
	adminToken := e.admin(t)
	userToken := e.register(t, "promo@example.com")

	status, body := e.do(t, http.MethodPost, "/api/v1/products", adminToken, fiber.Map{"name": "Ladder", "price_per_day": 1000, "quantity": 1})
	require.Equal(t, http.StatusCreated, status)
	ladder := decode[models.Product](t, body)
	status, _ = e.do(t, http.MethodPost, "/api/v1/discounts", adminToken, fiber.Map{"name": "FLAT500", "type": "fixed", "value": 500})
	require.Equal(t, http.StatusCreated, status)

	e.do(t, http.MethodPost, "/api/v1/cart/items", userToken, fiber.Map{"product_id": ladder.ID})
	status, _ = e.do(t, http.MethodPost, "/api/v1/cart/promo", userToken, fiber.Map{"code": "FLAT500"})
	require.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodPost, "/api/v1/cart/promo", userToken, fiber.Map{"code": "NOPE"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = e.do(t, http.MethodGet, "/api/v1/cart", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	view := decode[services.CartView](t, body)
	assert.Nil(t, view.Promo)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(1000)))
}

func TestInactiveDiscountIsNotRedeemable(t *testing.T) {
	e := setupApp(t)
	adminToken := e.admin(t)

	status, body := e.do(t, http.MethodPost, "/api/v1/discounts", adminToken, fiber.Map{
		"name": "PAUSED", "type": "percentage", "value": 20, "is_active": false,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.False(t, decode[models.Discount](t, body).IsActive)

	status, _ = e.do(t, http.MethodGet, "/api/v1/discounts/check/PAUSED", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNonRentableProductRejectsRentals(t *testing.T) {
	e := setupApp(t)
	adminToken := e.admin(t)
	userToken := e.register(t, "buyer@example.com")

	status, body := e.do(t, http.MethodPost, "/api/v1/products", adminToken, fiber.Map{
		"name": "Work gloves", "sale_price": 800, "quantity": 10, "is_rentable": false, "is_purchasable": true,
	})
	require.Equal(t, http.StatusCreated, status)
	gloves := decode[models.Product](t, body)
	assert.False(t, gloves.IsRentable)

	status, body = e.do(t, http.MethodGet, "/api/v1/products?rentable=true", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.Product](t, body))

	status, _ = e.do(t, http.MethodPost, "/api/v1/rentals", userToken, fiber.Map{
		"product_id": gloves.ID, "start_date": "2026-07-01", "end_date": "2026-07-03",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUnknownBodyFieldsAreRejected(t *testing.T) {
	e := setupApp(t)
	adminToken := e.admin(t)

	status, _ := e.do(t, http.MethodPost, "/api/v1/products", adminToken, fiber.Map{
		"name": "Ladder", "price_per_day": 1000, "rentable": false,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": "admin@example.com", "password": "password123", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := e.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.Product](t, body))
}

func TestRentalLifecycle(t *testing.T) {
	e := setupApp(t)
	adminToken := e.admin(t)
	userToken := e.register(t, "rental@example.com")

	status, body := e.do(t, http.MethodPost, "/api/v1/products", adminToken, fiber.Map{"name": "Concrete mixer", "price_per_day": 2000, "quantity": 1})
	require.Equal(t, http.StatusCreated, status)
	mixer := decode[models.Product](t, body)

	status, _ = e.do(t, http.MethodPost, "/api/v1/rentals", userToken, fiber.Map{
		"product_id": mixer.ID, "start_date": "2026-07-01", "end_date": "2026-07-03", "rental_price": 1,
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = e.do(t, http.MethodPost, "/api/v1/rentals", userToken, fiber.Map{
		"product_id": mixer.ID, "start_date": "2026-07-01", "end_date": "2026-07-03",
	})
	require.Equal(t, http.StatusCreated, status)
	rental := decode[models.Rental](t, body)
	assert.True(t, rental.TotalPrice.Equal(decimal.NewFromInt(4000)), rental.TotalPrice.String())
	assert.Equal(t, models.RentalPending, rental.Status)

	status, body = e.do(t, http.MethodGet, "/api/v1/rentals", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Rental](t, body), 1)

	status, _ = e.do(t, http.MethodPatch, "/api/v1/rentals/"+rental.ID+"/status", adminToken, fiber.Map{"status": "completed"})
	assert.Equal(t, http.StatusConflict, status)
	status, _ = e.do(t, http.MethodPatch, "/api/v1/rentals/"+rental.ID+"/status", adminToken, fiber.Map{"status": "active"})
	assert.Equal(t, http.StatusOK, status)
	status, body = e.do(t, http.MethodPatch, "/api/v1/rentals/"+rental.ID+"/payment", adminToken, fiber.Map{"status": "paid"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.PaymentPaid, decode[models.Rental](t, body).PaymentStatus)
}
