package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports which line item could not be covered
// by the available stock. It unwraps to ErrInsufficientStock.
type InsufficientStockError struct {
	ItemName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.ItemName)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

type Repository interface {
	CreateOrder(ctx context.Context, o *Order) (uuid.UUID, error)
	GetAll(ctx context.Context) ([]Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, entry StatusUpdate) (*Order, error)
	TrackByID(ctx context.Context, id uuid.UUID) (*TrackedOrder, error)
	TrackByCode(ctx context.Context, code string) (*TrackedOrder, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `id, customer_name, customer_phone, customer_email, customer_address,
	order_items, total, payment_method, status, status_history, created_at, updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.CustomerEmail,
		&o.CustomerAddress,
		&o.Items,
		&o.Total,
		&o.PaymentMethod,
		&o.Status,
		&o.StatusHistory,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

// CreateOrder inserts the order and decrements stock for every line
// item in a single transaction. Any line item the stock cannot cover
// aborts the whole transaction: nothing persists on failure.
func (r *postgresRepository) CreateOrder(ctx context.Context, o *Order) (orderID uuid.UUID, err error) {
	finalID := o.ID
	if finalID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate order id: %w", genErr)
		}
		finalID = genID
	}
	o.ID = finalID

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", finalID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", finalID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", finalID).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	now := time.Now().UTC()

	queryOrder := `
		INSERT INTO orders (id, customer_name, customer_phone, customer_email, customer_address,
			order_items, total, payment_method, status, status_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, queryOrder,
		finalID,
		o.CustomerName,
		o.CustomerPhone,
		o.CustomerEmail,
		o.CustomerAddress,
		o.Items,
		o.Total,
		o.PaymentMethod,
		string(o.Status),
		o.StatusHistory,
		now,
		now,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}
	o.CreatedAt = now
	o.UpdatedAt = now

	for i := range o.Items {
		item := &o.Items[i]
		if err = decrementStock(ctx, tx, item, now); err != nil {
			return uuid.Nil, err
		}
	}

	return finalID, nil
}

// decrementStock applies a conditional decrement: the row is only
// updated when the remaining stock covers the ordered quantity, which
// closes the read-then-write overselling race across requests.
func decrementStock(ctx context.Context, tx pgx.Tx, item *Item, now time.Time) error {
	query := `
		UPDATE products
		SET stock = stock - $1, updated_at = $2
		WHERE id = $3 AND stock >= $1
	`
	cmdTag, err := tx.Exec(ctx, query, item.Quantity, now, item.ProductID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return &InsufficientStockError{ItemName: item.Name}
		}
		return fmt.Errorf("repository: failed to decrement stock for product %s: %w", item.ProductID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		var stock int
		scanErr := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, item.ProductID).Scan(&stock)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return fmt.Errorf("repository: product %s: %w", item.ProductID, ErrProductNotFound)
		}
		if scanErr != nil {
			return fmt.Errorf("repository: failed to check stock for product %s: %w", item.ProductID, scanErr)
		}
		return &InsufficientStockError{ItemName: item.Name}
	}
	return nil
}

func restock(ctx context.Context, tx pgx.Tx, item *Item, now time.Time) error {
	query := `
		UPDATE products
		SET stock = stock + $1, updated_at = $2
		WHERE id = $3
	`
	// A product deleted since the order was placed has nothing to
	// restock; the snapshot in order_items keeps the order intact.
	if _, err := tx.Exec(ctx, query, item.Quantity, now, item.ProductID); err != nil {
		return fmt.Errorf("repository: failed to restock product %s: %w", item.ProductID, err)
	}
	return nil
}

func (r *postgresRepository) GetAll(ctx context.Context) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o Order
	if err := scanOrder(r.db.QueryRow(ctx, query, id), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	return &o, nil
}

// UpdateStatus sets the order's status to entry.Status, appends entry
// to the status history, and applies the stock side effects of moving
// into or out of the cancelled state, all in one transaction. A
// same-status update is a no-op returning the order unchanged.
func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, entry StatusUpdate) (result *Order, err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", id).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", id).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", id).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	var o Order
	if err = scanOrder(tx.QueryRow(ctx, query, id), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrOrderNotFound
			return nil, err
		}
		return nil, fmt.Errorf("repository: failed to lock order %s: %w", id, err)
	}

	if o.Status == entry.Status {
		return &o, nil
	}

	now := entry.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
		entry.UpdatedAt = now
	}

	// Cancelling returns every line item to stock; reviving a
	// cancelled order takes it back out, subject to availability.
	switch {
	case entry.Status == StatusCancelled:
		for i := range o.Items {
			if err = restock(ctx, tx, &o.Items[i], now); err != nil {
				return nil, err
			}
		}
	case o.Status == StatusCancelled:
		for i := range o.Items {
			if err = decrementStock(ctx, tx, &o.Items[i], now); err != nil {
				return nil, err
			}
		}
	}

	o.StatusHistory = append(o.StatusHistory, entry)
	o.Status = entry.Status
	o.UpdatedAt = now

	updateQuery := `
		UPDATE orders
		SET status = $1, status_history = $2, updated_at = $3
		WHERE id = $4
	`
	if _, err = tx.Exec(ctx, updateQuery, string(o.Status), o.StatusHistory, now, id); err != nil {
		return nil, fmt.Errorf("repository: failed to update order status %s: %w", id, err)
	}

	return &o, nil
}

const trackedColumns = `id, status, total, order_items, created_at`

func scanTracked(row pgx.Row, t *TrackedOrder) error {
	return row.Scan(&t.ID, &t.Status, &t.Total, &t.Items, &t.CreatedAt)
}

func (r *postgresRepository) TrackByID(ctx context.Context, id uuid.UUID) (*TrackedOrder, error) {
	query := `SELECT ` + trackedColumns + ` FROM orders_public WHERE id = $1`

	var t TrackedOrder
	if err := scanTracked(r.db.QueryRow(ctx, query, id), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to track order by id %s: %w", id, err)
	}

	return &t, nil
}

// TrackByCode resolves a short tracking code as a case-insensitive
// prefix of the order id. When several orders share the prefix the
// most recently created one wins.
func (r *postgresRepository) TrackByCode(ctx context.Context, code string) (*TrackedOrder, error) {
	query := `
		SELECT ` + trackedColumns + `
		FROM orders_public
		WHERE id_text LIKE $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var t TrackedOrder
	if err := scanTracked(r.db.QueryRow(ctx, query, strings.ToUpper(code)+"%"), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to track order by code %q: %w", code, err)
	}

	return &t, nil
}
