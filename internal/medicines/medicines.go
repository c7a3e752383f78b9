// Package medicines owns the catalog and the stock ledger. Customer
// purchases never mutate stock here; that happens only inside the order
// placement transaction.
package medicines

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("medicine not found")

// Store is the catalog surface the handlers depend on.
type Store interface {
	Insert(ctx context.Context, nm NewMedicine) (Medicine, error)
	Update(ctx context.Context, id string, um UpdateMedicine) (Medicine, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Medicine, error)
	GetCombined(ctx context.Context, id string) (Combined, error)
	List(ctx context.Context, category string, page, pageSize int) ([]Medicine, error)
	Inventory(ctx context.Context) ([]Medicine, error)
	LowStock(ctx context.Context, threshold int) ([]Medicine, error)
	Restock(ctx context.Context, id string, quantity int) (Medicine, error)
	SetStock(ctx context.Context, id string, stock int) (Medicine, error)
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

const medicineColumns = `
	id, name, category, price_paise, stock, in_stock, low_stock,
	prescription_required, image_url, created_at, updated_at`

func scanMedicine(row interface{ Scan(...any) error }) (Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.PricePaise, &m.Stock,
		&m.InStock, &m.LowStock, &m.PrescriptionRequired, &m.ImageURL,
		&m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (c *Conf) Insert(ctx context.Context, nm NewMedicine) (Medicine, error) {
	const query = `
		INSERT INTO medicines (id, name, category, price_paise, stock, in_stock,
		                       low_stock, prescription_required, image_url)
		VALUES ($1, $2, $3, $4, $5, $5 > 0, $5 > 0 AND $5 < $6, $7, $8)
		RETURNING ` + medicineColumns
	row := c.db.QueryRowContext(ctx, query, uuid.NewString(), nm.Name, nm.Category,
		nm.PricePaise, nm.Stock, LowStockThreshold, nm.PrescriptionRequired, nm.ImageURL)
	m, err := scanMedicine(row)
	if err != nil {
		return Medicine{}, fmt.Errorf("inserting medicine: %w", err)
	}
	return m, nil
}

func (c *Conf) Update(ctx context.Context, id string, um UpdateMedicine) (Medicine, error) {
	const query = `
		UPDATE medicines
		SET name = $2, category = $3, price_paise = $4,
		    prescription_required = $5, image_url = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + medicineColumns
	row := c.db.QueryRowContext(ctx, query, id, um.Name, um.Category, um.PricePaise,
		um.PrescriptionRequired, um.ImageURL)
	m, err := scanMedicine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Medicine{}, ErrNotFound
		}
		return Medicine{}, fmt.Errorf("updating medicine: %w", err)
	}
	return m, nil
}

func (c *Conf) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting medicine: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Conf) GetByID(ctx context.Context, id string) (Medicine, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE id = $1`, id)
	m, err := scanMedicine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Medicine{}, ErrNotFound
		}
		return Medicine{}, fmt.Errorf("querying medicine: %w", err)
	}
	return m, nil
}

// GetCombined joins the catalog row with the descriptive record by name.
// A missing details record is not an error; the catalog fields still render.
func (c *Conf) GetCombined(ctx context.Context, id string) (Combined, error) {
	m, err := c.GetByID(ctx, id)
	if err != nil {
		return Combined{}, err
	}

	combined := Combined{Medicine: m, Availability: "Out of Stock"}
	if m.InStock {
		combined.Availability = "In Stock"
	}

	const query = `
		SELECT description, dosage, uses, side_effects, contraindications,
		       manufacturer, rating
		FROM medicine_details
		WHERE name = $1
	`
	var usesJSON, sideEffectsJSON, contraJSON []byte
	err = c.db.QueryRowContext(ctx, query, m.Name).Scan(
		&combined.Description, &combined.Dosage, &usesJSON, &sideEffectsJSON,
		&contraJSON, &combined.Manufacturer, &combined.Rating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return combined, nil
		}
		return Combined{}, fmt.Errorf("querying medicine details: %w", err)
	}

	for _, pair := range []struct {
		raw []byte
		dst *[]string
	}{
		{usesJSON, &combined.Uses},
		{sideEffectsJSON, &combined.SideEffects},
		{contraJSON, &combined.Contraindications},
	} {
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return Combined{}, fmt.Errorf("decoding medicine details: %w", err)
		}
	}
	return combined, nil
}

func (c *Conf) List(ctx context.Context, category string, page, pageSize int) ([]Medicine, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	const query = `
		SELECT ` + medicineColumns + `
		FROM medicines
		WHERE ($1 = '' OR category = $1)
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, query, category, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing medicines: %w", err)
	}
	defer rows.Close()
	return collectMedicines(rows)
}

func (c *Conf) Inventory(ctx context.Context) ([]Medicine, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+medicineColumns+` FROM medicines ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()
	return collectMedicines(rows)
}

func (c *Conf) LowStock(ctx context.Context, threshold int) ([]Medicine, error) {
	if threshold <= 0 {
		threshold = LowStockThreshold
	}
	const query = `
		SELECT ` + medicineColumns + `
		FROM medicines
		WHERE stock < $1
		ORDER BY stock, name
	`
	rows, err := c.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("listing low stock: %w", err)
	}
	defer rows.Close()
	return collectMedicines(rows)
}

// Restock adds quantity to the on-hand count. Quantity must already be
// validated as positive by the caller.
func (c *Conf) Restock(ctx context.Context, id string, quantity int) (Medicine, error) {
	const query = `
		UPDATE medicines
		SET stock = stock + $2,
		    in_stock = (stock + $2) > 0,
		    low_stock = (stock + $2) > 0 AND (stock + $2) < $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + medicineColumns
	row := c.db.QueryRowContext(ctx, query, id, quantity, LowStockThreshold)
	m, err := scanMedicine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Medicine{}, ErrNotFound
		}
		return Medicine{}, fmt.Errorf("restocking medicine: %w", err)
	}
	return m, nil
}

// SetStock replaces the on-hand count and recomputes the derived flags.
func (c *Conf) SetStock(ctx context.Context, id string, stock int) (Medicine, error) {
	const query = `
		UPDATE medicines
		SET stock = $2,
		    in_stock = $2 > 0,
		    low_stock = $2 > 0 AND $2 < $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + medicineColumns
	row := c.db.QueryRowContext(ctx, query, id, stock, LowStockThreshold)
	m, err := scanMedicine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Medicine{}, ErrNotFound
		}
		return Medicine{}, fmt.Errorf("setting stock: %w", err)
	}
	return m, nil
}

func collectMedicines(rows *sql.Rows) ([]Medicine, error) {
	var list []Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning medicine: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating medicines: %w", err)
	}
	return list, nil
}
