package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/defit-store/backend/internal/product"
)

type ProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Images      []string `json:"images"`
	Category    string   `json:"category" validate:"required,oneof=men women"`
	Sizes       []string `json:"sizes"`
}

type ProductHandler struct {
	service  product.Service
	validate *validator.Validate
}

func NewProductHandler(service product.Service) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ProductHandler) RegisterPublicRoutes(router chi.Router) {
	router.Get("/api/products", h.handleListProducts)
	router.Get("/api/products/{id}", h.handleGetProduct)
}

func (h *ProductHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/api/admin/products", h.handleAdminListProducts)
	router.Post("/api/admin/products", h.handleCreateProduct)
	router.Put("/api/admin/products", h.handleUpdateProduct)
	router.Delete("/api/admin/products", h.handleDeleteProduct)
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter := product.Filter{}
	if category := r.URL.Query().Get("category"); category != "" {
		c := product.Category(category)
		if !c.Valid() {
			respondWithError(w, http.StatusBadRequest, "Invalid category")
			return
		}
		filter.Category = &c
	}

	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to fetch products")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *ProductHandler) handleAdminListProducts(w http.ResponseWriter, r *http.Request) {
	filter := product.Filter{}
	if lowStock := r.URL.Query().Get("lowStock"); lowStock != "" {
		threshold, err := strconv.Atoi(lowStock)
		if err != nil || threshold <= 0 {
			threshold = 10
		}
		filter.StockBelow = &threshold
	}

	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to fetch products")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *ProductHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("Failed to get product")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"product": p})
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create product")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to add product")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{
		"message": "Product added successfully!",
		"product": created,
	})
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(r.URL.Query().Get("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Product ID is required for update")
		return
	}

	payload, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	payload.ID = id

	updated, err := h.service.Update(r.Context(), payload)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("Failed to update product")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to update product")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully!",
		"product": updated,
	})
}

func (h *ProductHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(r.URL.Query().Get("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Product ID is required for deletion")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("Failed to delete product")
		respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully!"})
}

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*product.Product, bool) {
	var payload ProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode product payload")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return nil, false
	}

	if err := h.validate.Struct(payload); err != nil {
		handleValidationError(w, err)
		return nil, false
	}

	images := payload.Images
	if images == nil {
		images = []string{}
	}
	sizes := payload.Sizes
	if sizes == nil {
		sizes = []string{}
	}

	return &product.Product{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Stock:       payload.Stock,
		Images:      images,
		Category:    product.Category(payload.Category),
		Sizes:       sizes,
	}, true
}
