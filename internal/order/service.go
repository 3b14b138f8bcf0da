package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/defit-store/backend/internal/product"
)

var (
	ErrInvalidInput        = errors.New("invalid order input")
	ErrTotalMismatch       = errors.New("submitted total does not match catalog prices")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidTrackingCode = errors.New("invalid tracking code")
)

const (
	actorCustomer = "customer"
	actorAdmin    = "admin"
)

// Catalog is the slice of the product service order placement needs.
type Catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

// ItemInput is a checkout line item as submitted by the client. Name,
// price, and image are looked up server-side; only the reference,
// quantity, and size are trusted.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Size      string
}

type PlaceOrderInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerAddress string
	Items           []ItemInput
	PaymentMethod   string
	// ClientTotal is the total the storefront displayed. When set it
	// is cross-checked against the recomputed total, never trusted.
	ClientTotal *float64
}

type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*Order, error)
	Track(ctx context.Context, code string) (*TrackedOrder, error)
}

type service struct {
	repo    Repository
	catalog Catalog
}

func NewService(repo Repository, catalog Catalog) Service {
	return &service{repo: repo, catalog: catalog}
}

// PlaceOrder validates the submission, rebuilds every line item from
// the catalog (price, name, image snapshot), recomputes the total, and
// persists the order together with all stock decrements atomically.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(input.Items))
	total := 0.0
	for _, in := range input.Items {
		p, err := s.catalog.GetByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, fmt.Errorf("service: product %s: %w", in.ProductID, ErrProductNotFound)
			}
			log.Error().Err(err).Stringer("product_id", in.ProductID).Msg("service: failed to load product for order")
			return nil, fmt.Errorf("service: failed to load product %s: %w", in.ProductID, err)
		}

		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  in.Quantity,
			Size:      in.Size,
			Image:     p.MainImage(),
		})
		total += p.Price * float64(in.Quantity)
	}

	if input.ClientTotal != nil && math.Abs(*input.ClientTotal-total) > 0.009 {
		log.Warn().
			Float64("client_total", *input.ClientTotal).
			Float64("computed_total", total).
			Msg("service: rejected order with mismatched total")
		return nil, ErrTotalMismatch
	}

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = PaymentMethodCOD
	}

	now := time.Now().UTC()
	o := &Order{
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerEmail:   input.CustomerEmail,
		CustomerAddress: input.CustomerAddress,
		Items:           items,
		Total:           total,
		PaymentMethod:   paymentMethod,
		Status:          StatusPending,
		StatusHistory: []StatusUpdate{{
			Status:    StatusPending,
			UpdatedAt: now,
			UpdatedBy: actorCustomer,
			Notes:     "Order placed",
		}},
	}

	orderID, err := s.repo.CreateOrder(ctx, o)
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) {
			log.Warn().Err(err).Msg("service: order rejected")
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Float64("total", total).Int("items", len(items)).Msg("service: order placed")
	return o, nil
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.GetAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to newStatus and appends one history
// entry. Transitions are intentionally unconstrained: the back office
// may move any order from any status to any other.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*Order, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	entry := StatusUpdate{
		Status:    newStatus,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: actorAdmin,
		Notes:     fmt.Sprintf("Status changed to %s", newStatus),
	}

	updated, err := s.repo.UpdateStatus(ctx, id, entry)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			return nil, ErrOrderNotFound
		case errors.Is(err, ErrInsufficientStock):
			log.Warn().Err(err).Stringer("order_id", id).Msg("service: cannot revive cancelled order, stock gone")
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", id).Str("new_status", newStatus.String()).Msg("service: failed to update order status")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", id).Str("status", newStatus.String()).Msg("service: order status updated")
	return updated, nil
}

// Track resolves either a full order id or an 8-character prefix code.
func (s *service) Track(ctx context.Context, code string) (*TrackedOrder, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidTrackingCode
	}

	if id, err := uuid.FromString(code); err == nil {
		return s.track(ctx, func(ctx context.Context) (*TrackedOrder, error) {
			return s.repo.TrackByID(ctx, id)
		})
	}

	if len(code) != TrackingCodeLength || !isHexCode(code) {
		return nil, ErrInvalidTrackingCode
	}
	return s.track(ctx, func(ctx context.Context) (*TrackedOrder, error) {
		return s.repo.TrackByCode(ctx, code)
	})
}

// isHexCode reports whether code consists solely of hex digits, the only
// characters a UUID prefix can contain. This also keeps LIKE wildcards
// such as % and _ out of the prefix query.
func isHexCode(code string) bool {
	for _, c := range code {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func (s *service) track(ctx context.Context, lookup func(context.Context) (*TrackedOrder, error)) (*TrackedOrder, error) {
	t, err := lookup(ctx)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Msg("service: failed to track order")
		return nil, fmt.Errorf("service: failed to track order: %w", err)
	}
	return t, nil
}

func validateInput(input PlaceOrderInput) error {
	switch {
	case input.CustomerName == "":
		return fmt.Errorf("customer name is required: %w", ErrInvalidInput)
	case input.CustomerPhone == "":
		return fmt.Errorf("customer phone is required: %w", ErrInvalidInput)
	case input.CustomerEmail == "":
		return fmt.Errorf("customer email is required: %w", ErrInvalidInput)
	case input.CustomerAddress == "":
		return fmt.Errorf("customer address is required: %w", ErrInvalidInput)
	case len(input.Items) == 0:
		return fmt.Errorf("order must contain at least one item: %w", ErrInvalidInput)
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("order item product id is required: %w", ErrInvalidInput)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("order item quantity must be greater than zero: %w", ErrInvalidInput)
		}
	}
	return nil
}
