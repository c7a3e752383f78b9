package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Store is the persistence surface. Mutations are read-modify-write: load,
// mutate the Cart value, save. Two concurrent saves for the same user can
// lose one update; the cart row lock narrows the window but does not close
// it across the read.
type Store interface {
	Get(ctx context.Context, userID string) (Cart, error)
	Save(ctx context.Context, c Cart) error
	Clear(ctx context.Context, userID string) error
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

// Get loads the user's cart. A user with no cart row gets an empty cart.
func (c *Conf) Get(ctx context.Context, userID string) (Cart, error) {
	cart := Cart{UserID: userID}

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT total_paise FROM carts WHERE user_id = $1`, userID).Scan(&cart.TotalPaise)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("querying cart: %w", err)
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT medicine_id, name, price_paise, image_url, prescription_required, quantity
			FROM cart_items
			WHERE user_id = $1
			ORDER BY name
		`, userID)
		if err != nil {
			return fmt.Errorf("querying cart items: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var item Item
			if err := rows.Scan(&item.MedicineID, &item.Name, &item.PricePaise,
				&item.ImageURL, &item.PrescriptionRequired, &item.Quantity); err != nil {
				return fmt.Errorf("scanning cart item: %w", err)
			}
			cart.Items = append(cart.Items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// Save replaces the persisted cart with the given value in one transaction.
func (c *Conf) Save(ctx context.Context, cart Cart) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO carts (user_id, total_paise, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id) DO UPDATE SET total_paise = $2, updated_at = NOW()
		`, cart.UserID, cart.TotalPaise)
		if err != nil {
			return fmt.Errorf("upserting cart: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = $1`, cart.UserID); err != nil {
			return fmt.Errorf("clearing cart items: %w", err)
		}

		for _, item := range cart.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cart_items (user_id, medicine_id, name, price_paise,
				                        image_url, prescription_required, quantity)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, cart.UserID, item.MedicineID, item.Name, item.PricePaise,
				item.ImageURL, item.PrescriptionRequired, item.Quantity)
			if err != nil {
				return fmt.Errorf("inserting cart item: %w", err)
			}
		}
		return nil
	})
}

// Clear removes the user's cart row and items.
func (c *Conf) Clear(ctx context.Context, userID string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("deleting cart items: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("deleting cart: %w", err)
		}
		return nil
	})
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return fmt.Errorf("failed to execute withTx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
