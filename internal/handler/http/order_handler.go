package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/defit-store/backend/internal/order"
)

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4_rfc4122"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Size      string `json:"size"`
}

type PlaceOrderRequest struct {
	CustomerName    string             `json:"customer_name" validate:"required"`
	CustomerPhone   string             `json:"customer_phone" validate:"required"`
	CustomerEmail   string             `json:"customer_email" validate:"required,email"`
	CustomerAddress string             `json:"customer_address" validate:"required"`
	OrderItems      []OrderItemRequest `json:"order_items" validate:"required,min=1,dive"`
	Total           *float64           `json:"total" validate:"required"`
	PaymentMethod   string             `json:"payment_method"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending shipped delivered cancelled"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterPublicRoutes(router chi.Router) {
	router.Post("/api/orders", h.handlePlaceOrder)
	router.Get("/api/track-order", h.handleTrackOrder)
}

func (h *OrderHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/api/admin/orders", h.handleListOrders)
	router.Put("/api/admin/orders", h.handleUpdateOrderStatus)
}

func (h *OrderHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var payload PlaceOrderRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode order payload")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		handleValidationError(w, err)
		return
	}

	input := order.PlaceOrderInput{
		CustomerName:    payload.CustomerName,
		CustomerPhone:   payload.CustomerPhone,
		CustomerEmail:   payload.CustomerEmail,
		CustomerAddress: payload.CustomerAddress,
		PaymentMethod:   payload.PaymentMethod,
		ClientTotal:     payload.Total,
	}
	for _, item := range payload.OrderItems {
		productID, err := uuid.FromString(item.ProductID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid product id in order items")
			return
		}
		input.Items = append(input.Items, order.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			Size:      item.Size,
		})
	}

	placed, err := h.service.PlaceOrder(r.Context(), input)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)

		var clientMessage string
		var stockErr *order.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			clientMessage = "Not enough stock for " + stockErr.ItemName + "."
		case errors.Is(err, order.ErrProductNotFound):
			clientMessage = "One of the ordered products no longer exists."
		case errors.Is(err, order.ErrTotalMismatch):
			clientMessage = "Order total does not match current prices."
		case errors.Is(err, order.ErrInvalidInput):
			clientMessage = "Missing required order details."
		default:
			log.Error().Err(err).Msg("Failed to place order")
			clientMessage = "Failed to place order."
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{
		"message": "Order placed successfully! You can track your order using the Order ID.",
		"orderId": placed.ID,
	})
}

func (h *OrderHandler) handleTrackOrder(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("orderId")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Order ID is required")
		return
	}

	tracked, err := h.service.Track(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			respondWithError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, order.ErrInvalidTrackingCode):
			respondWithError(w, http.StatusBadRequest, "Invalid tracking code")
		default:
			log.Error().Err(err).Msg("Failed to track order")
			respondWithError(w, http.StatusInternalServerError, "Failed to track order")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"order": tracked})
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(r.URL.Query().Get("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Order ID and new status are required for update")
		return
	}

	var payload UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		handleValidationError(w, err)
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, order.Status(payload.Status))
	if err != nil {
		statusCode := mapErrorToStatusCode(err)

		var clientMessage string
		var stockErr *order.InsufficientStockError
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			clientMessage = "Order not found."
		case errors.As(err, &stockErr):
			clientMessage = "Not enough stock for " + stockErr.ItemName + " to reinstate this order."
		case errors.Is(err, order.ErrInvalidStatus):
			clientMessage = "Invalid status provided. Must be one of: pending, shipped, delivered, cancelled."
		default:
			log.Error().Err(err).Stringer("order_id", id).Msg("Failed to update order status")
			clientMessage = "Failed to update order status."
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message": "Order status updated successfully!",
		"order":   updated,
	})
}
