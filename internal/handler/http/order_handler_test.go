package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/defit-store/backend/internal/auth"
	"github.com/defit-store/backend/internal/config"
	storeHttp "github.com/defit-store/backend/internal/handler/http"
	"github.com/defit-store/backend/internal/order"
	"github.com/defit-store/backend/internal/product"
	"github.com/defit-store/backend/internal/stats"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, input order.PlaceOrderInput) (*order.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context) ([]order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus order.Status) (*order.Order, error) {
	args := m.Called(ctx, id, newStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Track(ctx context.Context, code string) (*order.TrackedOrder, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.TrackedOrder), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, filter product.Filter) ([]product.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, p *product.Product) (*product.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, p *product.Product) (*product.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type testEnv struct {
	router     *chi.Mux
	sessions   *auth.Sessions
	orderSvc   *MockOrderService
	productSvc *MockProductService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sessions := auth.NewSessions(config.AdminConfig{
		Password:      "sesame",
		SessionSecret: "handler-test-secret",
	})

	orderSvc := new(MockOrderService)
	productSvc := new(MockProductService)
	statsSvc := stats.NewService(orderSvc, productSvc, 10)

	router := storeHttp.NewRouter(
		sessions,
		storeHttp.NewProductHandler(productSvc),
		storeHttp.NewOrderHandler(orderSvc),
		storeHttp.NewAdminHandler(sessions, statsSvc),
	)

	return &testEnv{
		router:     router,
		sessions:   sessions,
		orderSvc:   orderSvc,
		productSvc: productSvc,
	}
}

func (e *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := e.sessions.IssueToken(time.Now().UTC())
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func validOrderPayload(productID uuid.UUID) map[string]any {
	return map[string]any{
		"customer_name":    "Ali Khan",
		"customer_phone":   "+923001234567",
		"customer_email":   "ali@example.com",
		"customer_address": "12 Mall Road, Lahore",
		"order_items": []map[string]any{
			{"product_id": productID.String(), "quantity": 2, "size": "M"},
		},
		"total":          2000,
		"payment_method": "cod",
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	env := newTestEnv(t)

	productID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())

	env.orderSvc.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(input order.PlaceOrderInput) bool {
		return input.CustomerName == "Ali Khan" &&
			len(input.Items) == 1 &&
			input.Items[0].ProductID == productID &&
			input.Items[0].Quantity == 2 &&
			input.ClientTotal != nil && *input.ClientTotal == 2000
	})).Return(&order.Order{ID: orderID, Status: order.StatusPending, Total: 2000}, nil).Once()

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/api/orders", validOrderPayload(productID)))

	require.Equal(t, http.StatusCreated, rr.Code)

	var response struct {
		Message string    `json:"message"`
		OrderID uuid.UUID `json:"orderId"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, orderID, response.OrderID)

	env.orderSvc.AssertExpectations(t)
}

func TestPlaceOrder_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	payload := validOrderPayload(uuid.Must(uuid.NewV4()))
	delete(payload, "customer_email")

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/api/orders", payload))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env.orderSvc.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
}

func TestPlaceOrder_MissingTotal(t *testing.T) {
	env := newTestEnv(t)

	payload := validOrderPayload(uuid.Must(uuid.NewV4()))
	delete(payload, "total")

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/api/orders", payload))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env.orderSvc.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
}

func TestPlaceOrder_UppercaseProductID(t *testing.T) {
	env := newTestEnv(t)

	productID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())

	payload := validOrderPayload(productID)
	payload["order_items"] = []map[string]any{
		{"product_id": strings.ToUpper(productID.String()), "quantity": 2, "size": "M"},
	}

	env.orderSvc.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(input order.PlaceOrderInput) bool {
		return len(input.Items) == 1 && input.Items[0].ProductID == productID
	})).Return(&order.Order{ID: orderID, Status: order.StatusPending, Total: 2000}, nil).Once()

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/api/orders", payload))

	require.Equal(t, http.StatusCreated, rr.Code)
	env.orderSvc.AssertExpectations(t)
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	env := newTestEnv(t)

	payload := validOrderPayload(uuid.Must(uuid.NewV4()))
	payload["order_items"] = []map[string]any{}

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/api/orders", payload))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env.orderSvc.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)

	productID := uuid.Must(uuid.NewV4())
	env.orderSvc.On("PlaceOrder", mock.Anything, mock.Anything).
		Return(nil, &order.InsufficientStockError{ItemName: "tee"}).Once()

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/api/orders", validOrderPayload(productID)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Not enough stock for tee")
}

func TestTrackOrder(t *testing.T) {
	env := newTestEnv(t)

	orderID := uuid.Must(uuid.NewV4())
	tracked := &order.TrackedOrder{ID: orderID, Status: order.StatusShipped, Total: 2500}
	env.orderSvc.On("Track", mock.Anything, orderID.String()).Return(tracked, nil).Once()

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/track-order?orderId="+orderID.String(), nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Order order.TrackedOrder `json:"order"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, orderID, response.Order.ID)
	assert.Equal(t, order.StatusShipped, response.Order.Status)
}

func TestTrackOrder_NotFound(t *testing.T) {
	env := newTestEnv(t)

	env.orderSvc.On("Track", mock.Anything, "DEADBEEF").Return(nil, order.ErrOrderNotFound).Once()

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/track-order?orderId=DEADBEEF", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTrackOrder_MissingParam(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/track-order", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env.orderSvc.AssertNotCalled(t, "Track", mock.Anything, mock.Anything)
}

func TestUpdateOrderStatus_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	orderID := uuid.Must(uuid.NewV4())
	req := jsonRequest(t, http.MethodPut, "/api/admin/orders?id="+orderID.String(), map[string]string{"status": "shipped"})

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	env.orderSvc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOrderStatus_Success(t *testing.T) {
	env := newTestEnv(t)

	orderID := uuid.Must(uuid.NewV4())
	updated := &order.Order{
		ID:     orderID,
		Status: order.StatusShipped,
		StatusHistory: []order.StatusUpdate{
			{Status: order.StatusPending, UpdatedBy: "customer"},
			{Status: order.StatusShipped, UpdatedBy: "admin"},
		},
	}
	env.orderSvc.On("UpdateStatus", mock.Anything, orderID, order.StatusShipped).Return(updated, nil).Once()

	req := jsonRequest(t, http.MethodPut, "/api/admin/orders?id="+orderID.String(), map[string]string{"status": "shipped"})
	req.AddCookie(env.adminCookie(t))

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Order order.Order `json:"order"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, order.StatusShipped, response.Order.Status)
	assert.Len(t, response.Order.StatusHistory, 2)

	env.orderSvc.AssertExpectations(t)
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPut, "/api/admin/orders?id="+uuid.Must(uuid.NewV4()).String(), map[string]string{"status": "refunded"})
	req.AddCookie(env.adminCookie(t))

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env.orderSvc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	env := newTestEnv(t)

	orderID := uuid.Must(uuid.NewV4())
	env.orderSvc.On("UpdateStatus", mock.Anything, orderID, order.StatusDelivered).
		Return(nil, order.ErrOrderNotFound).Once()

	req := jsonRequest(t, http.MethodPut, "/api/admin/orders?id="+orderID.String(), map[string]string{"status": "delivered"})
	req.AddCookie(env.adminCookie(t))

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListOrders_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	env.orderSvc.AssertNotCalled(t, "ListOrders", mock.Anything)
}

func TestListOrders_Success(t *testing.T) {
	env := newTestEnv(t)

	orders := []order.Order{
		{ID: uuid.Must(uuid.NewV4()), Status: order.StatusPending, Total: 1000},
		{ID: uuid.Must(uuid.NewV4()), Status: order.StatusShipped, Total: 500},
	}
	env.orderSvc.On("ListOrders", mock.Anything).Return(orders, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.AddCookie(env.adminCookie(t))

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Orders []order.Order `json:"orders"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Len(t, response.Orders, 2)
}
