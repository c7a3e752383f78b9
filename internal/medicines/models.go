package medicines

import "time"

// LowStockThreshold marks a medicine for admin attention when stock falls
// strictly below it (but is still positive).
const LowStockThreshold = 10

// Medicine is the catalog row the storefront cards and the stock ledger use.
// Prices are integer paise.
type Medicine struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Category             string    `json:"category"`
	PricePaise           int64     `json:"price_paise"`
	Stock                int       `json:"stock"`
	InStock              bool      `json:"in_stock"`
	LowStock             bool      `json:"low_stock"`
	PrescriptionRequired bool      `json:"prescription_required"`
	ImageURL             string    `json:"image_url"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Details is the descriptive record kept separately and joined by name.
type Details struct {
	Description       string   `json:"description"`
	Dosage            string   `json:"dosage"`
	Uses              []string `json:"uses"`
	SideEffects       []string `json:"side_effects"`
	Contraindications []string `json:"contraindications"`
	Manufacturer      string   `json:"manufacturer"`
	Rating            float64  `json:"rating"`
}

// Combined merges the catalog row with its descriptive record for the
// details page. Availability mirrors the in-stock flag as display text.
type Combined struct {
	Medicine
	Details
	Availability string `json:"availability"`
}

// NewMedicine is the admin create payload.
type NewMedicine struct {
	Name                 string `json:"name" validate:"required"`
	Category             string `json:"category" validate:"required"`
	PricePaise           int64  `json:"price_paise" validate:"required,min=0"`
	Stock                int    `json:"stock" validate:"min=0"`
	PrescriptionRequired bool   `json:"prescription_required"`
	ImageURL             string `json:"image_url" validate:"required"`
}

// UpdateMedicine is the admin update payload. Stock is managed through the
// inventory endpoints, not here.
type UpdateMedicine struct {
	Name                 string `json:"name" validate:"required"`
	Category             string `json:"category" validate:"required"`
	PricePaise           int64  `json:"price_paise" validate:"required,min=0"`
	PrescriptionRequired bool   `json:"prescription_required"`
	ImageURL             string `json:"image_url" validate:"required"`
}
