// Package stats computes the admin dashboard numbers. The aggregation
// is a plain fold over full reads on every request; nothing is cached
// or maintained incrementally.
package stats

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/defit-store/backend/internal/order"
	"github.com/defit-store/backend/internal/product"
)

const recentOrdersLimit = 5

type AdminStats struct {
	TotalOrders      int           `json:"totalOrders"`
	PendingOrders    int           `json:"pendingOrders"`
	ShippedOrders    int           `json:"shippedOrders"`
	DeliveredOrders  int           `json:"deliveredOrders"`
	CancelledOrders  int           `json:"cancelledOrders"`
	TotalRevenue     float64       `json:"totalRevenue"`
	LowStockProducts int           `json:"lowStockProducts"`
	RecentOrders     []order.Order `json:"recentOrders"`
}

type OrderLister interface {
	ListOrders(ctx context.Context) ([]order.Order, error)
}

type ProductLister interface {
	List(ctx context.Context, filter product.Filter) ([]product.Product, error)
}

type Service struct {
	orders            OrderLister
	products          ProductLister
	lowStockThreshold int
}

func NewService(orders OrderLister, products ProductLister, lowStockThreshold int) *Service {
	return &Service{
		orders:            orders,
		products:          products,
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *Service) Compute(ctx context.Context) (*AdminStats, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("stats: failed to fetch orders")
		return nil, fmt.Errorf("stats: failed to fetch orders: %w", err)
	}

	threshold := s.lowStockThreshold
	lowStock, err := s.products.List(ctx, product.Filter{StockBelow: &threshold})
	if err != nil {
		log.Error().Err(err).Msg("stats: failed to fetch low-stock products")
		return nil, fmt.Errorf("stats: failed to fetch low-stock products: %w", err)
	}

	result := &AdminStats{
		TotalOrders:      len(orders),
		LowStockProducts: len(lowStock),
		RecentOrders:     make([]order.Order, 0, recentOrdersLimit),
	}

	for _, o := range orders {
		switch o.Status {
		case order.StatusPending:
			result.PendingOrders++
		case order.StatusShipped:
			result.ShippedOrders++
		case order.StatusDelivered:
			result.DeliveredOrders++
		case order.StatusCancelled:
			result.CancelledOrders++
		}
		if o.Status != order.StatusCancelled {
			result.TotalRevenue += o.Total
		}
	}

	// Orders arrive newest first, so the first few are the recent ones.
	for i := 0; i < len(orders) && i < recentOrdersLimit; i++ {
		result.RecentOrders = append(result.RecentOrders, orders[i])
	}

	return result, nil
}
