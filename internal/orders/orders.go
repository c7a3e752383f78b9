// Package orders owns order placement and order history.
//
// PlaceOrder is the sole writer of orders and the sole subtractor of stock
// for customer purchases. It runs as one serializable transaction: every
// stock decrement and the order insert commit together or not at all.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mediquick-backend/internal/medicines"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrMedicineNotFound  = errors.New("medicine not found")

	// ErrDuplicateSession means an order for this payment session already
	// exists; a replayed webhook delivery lands here before touching stock.
	ErrDuplicateSession = errors.New("order already placed for session")
)

// Store is the persistence surface the handlers depend on.
type Store interface {
	PlaceOrder(ctx context.Context, po PlacedOrder) error
	ListUserOrders(ctx context.Context, userID string) ([]UserOrder, error)
}

// Conf implements Store over postgres.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// PlaceOrder atomically validates and decrements stock for every line and
// inserts the order. The unique session id makes replays collide before any
// stock is touched.
func (c *Conf) PlaceOrder(ctx context.Context, po PlacedOrder) error {
	if len(po.Lines) == 0 {
		return fmt.Errorf("order has no lines")
	}

	return c.withTx(ctx, func(tx *sql.Tx) error {
		const insertOrder = `
			INSERT INTO orders (id, user_id, stripe_session_id, total_paise,
			                    payment_status, delivery_status)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (stripe_session_id) DO NOTHING
		`
		res, err := tx.ExecContext(ctx, insertOrder, po.ID, po.UserID,
			po.StripeSessionID, po.TotalPaise, PaymentCompleted, DeliveryProcessing)
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrDuplicateSession
		}

		// Conditional decrement: the stock check and the subtraction are one
		// atomic statement, so two racing confirmations cannot both spend the
		// same unit.
		const decrement = `
			UPDATE medicines
			SET stock = stock - $2,
			    in_stock = (stock - $2) > 0,
			    low_stock = (stock - $2) > 0 AND (stock - $2) < $3,
			    updated_at = NOW()
			WHERE id = $1 AND stock >= $2
		`
		for _, line := range po.Lines {
			res, err := tx.ExecContext(ctx, decrement, line.MedicineID, line.Quantity,
				medicines.LowStockThreshold)
			if err != nil {
				return fmt.Errorf("decrementing stock for %s: %w", line.MedicineID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("decrementing stock for %s: %w", line.MedicineID, err)
			}
			if n == 0 {
				var exists bool
				if err := tx.QueryRowContext(ctx,
					`SELECT EXISTS (SELECT 1 FROM medicines WHERE id = $1)`,
					line.MedicineID).Scan(&exists); err != nil {
					return fmt.Errorf("checking medicine %s: %w", line.MedicineID, err)
				}
				if !exists {
					return fmt.Errorf("%w: %s", ErrMedicineNotFound, line.MedicineID)
				}
				return fmt.Errorf("%w: medicine %s, requested %d",
					ErrInsufficientStock, line.MedicineID, line.Quantity)
			}
		}

		for _, line := range po.Lines {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, medicine_id, quantity)
				VALUES ($1, $2, $3)
			`, po.ID, line.MedicineID, line.Quantity)
			if err != nil {
				return fmt.Errorf("inserting order item: %w", err)
			}
		}
		return nil
	})
}

// ListUserOrders returns the caller's orders newest first, with line items
// resolved to current display name, price and image.
func (c *Conf) ListUserOrders(ctx context.Context, userID string) ([]UserOrder, error) {
	const query = `
		SELECT o.id, o.total_paise, o.payment_status, o.delivery_status, o.created_at,
		       oi.medicine_id, oi.quantity,
		       COALESCE(m.name, ''), COALESCE(m.price_paise, 0), COALESCE(m.image_url, '')
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN medicines m ON m.id = oi.medicine_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id, oi.medicine_id
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var list []UserOrder
	index := map[string]int{}
	for rows.Next() {
		var (
			o          UserOrder
			item       UserOrderItem
			totalPaise int64
			pricePaise int64
		)
		if err := rows.Scan(&o.ID, &totalPaise, &o.PaymentStatus, &o.DeliveryStatus,
			&o.CreatedAt, &item.MedicineID, &item.Quantity,
			&item.Name, &pricePaise, &item.ImageURL); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		item.Price = float64(pricePaise) / 100

		i, ok := index[o.ID]
		if !ok {
			o.TotalAmount = float64(totalPaise) / 100
			list = append(list, o)
			i = len(list) - 1
			index[o.ID] = i
		}
		list[i].Items = append(list[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return list, nil
}

// withTx runs fn inside a serializable transaction.
func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
