// Package cart holds the per-user cart: snapshot line items and a cached
// paise total maintained incrementally on every mutation.
package cart

import (
	"errors"

	"mediquick-backend/internal/medicines"
)

var ErrItemNotInCart = errors.New("item not found in cart")

// Item is one cart line. Name, price and flags are snapshots taken when the
// item was added; the live medicine row may have drifted since.
type Item struct {
	MedicineID           string `json:"medicine_id"`
	Name                 string `json:"name"`
	PricePaise           int64  `json:"price_paise"`
	ImageURL             string `json:"image_url"`
	PrescriptionRequired bool   `json:"prescription_required"`
	Quantity             int    `json:"quantity"`
}

// Cart is the user's mutable cart. TotalPaise is a cached sum of
// price x quantity over the items and is adjusted by every mutation.
type Cart struct {
	UserID     string `json:"user_id"`
	Items      []Item `json:"items"`
	TotalPaise int64  `json:"total_paise"`
}

// AddItem appends a new line snapshotting the medicine's current fields, or
// bumps the quantity when the medicine is already in the cart.
func (c *Cart) AddItem(m medicines.Medicine, quantity int) {
	for i := range c.Items {
		if c.Items[i].MedicineID == m.ID {
			c.Items[i].Quantity += quantity
			c.TotalPaise += c.Items[i].PricePaise * int64(quantity)
			return
		}
	}
	c.Items = append(c.Items, Item{
		MedicineID:           m.ID,
		Name:                 m.Name,
		PricePaise:           m.PricePaise,
		ImageURL:             m.ImageURL,
		PrescriptionRequired: m.PrescriptionRequired,
		Quantity:             quantity,
	})
	c.TotalPaise += m.PricePaise * int64(quantity)
}

// UpdateQuantity sets an existing line to an exact quantity, adjusting the
// cached total by the delta.
func (c *Cart) UpdateQuantity(medicineID string, quantity int) error {
	for i := range c.Items {
		if c.Items[i].MedicineID == medicineID {
			delta := quantity - c.Items[i].Quantity
			c.TotalPaise += c.Items[i].PricePaise * int64(delta)
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotInCart
}

// RemoveItem drops one line and subtracts its contribution from the total.
func (c *Cart) RemoveItem(medicineID string) error {
	for i := range c.Items {
		if c.Items[i].MedicineID == medicineID {
			c.TotalPaise -= c.Items[i].PricePaise * int64(c.Items[i].Quantity)
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotInCart
}

// Clear empties the cart and resets the total.
func (c *Cart) Clear() {
	c.Items = nil
	c.TotalPaise = 0
}
