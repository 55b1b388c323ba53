// Package collection holds the product lines and inspection points of the
// control being edited, validated and normalized, ready to be persisted.
package collection

import (
	"sync"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
)

// ProductInput product line as submitted by the form.
type ProductInput struct {
	ProductoID string     `json:"producto_id"`
	Nombre     string     `json:"nombre,omitempty"`
	Cantidad   FlexNumber `json:"cantidad"`
	Unidad     string     `json:"unidad,omitempty"`
}

// ProductInputFromDraft rebuilds the form input of a cached draft product.
func ProductInputFromDraft(p domain.DraftProduct) ProductInput {
	return ProductInput{ProductoID: p.ProductoID, Nombre: p.Nombre, Cantidad: Num(p.Cantidad), Unidad: p.Unidad}
}

// Products ordered product lines of one control.
type Products struct {
	notifier

	mu    sync.Mutex
	items []domain.DraftProduct
}

// NewProducts creates an empty collection.
func NewProducts() *Products {
	return &Products{}
}

// Add validates and appends one product line.
func (c *Products) Add(in ProductInput) error {
	cantidad, ok := in.Cantidad.Float()
	if in.ProductoID == "" || !ok || cantidad <= 0 {
		return apperrors.Validation("Datos de producto inválidos")
	}

	c.mu.Lock()
	c.items = append(c.items, domain.DraftProduct{
		ProductoID: in.ProductoID,
		Nombre:     in.Nombre,
		Cantidad:   cantidad,
		Unidad:     in.Unidad,
	})
	c.mu.Unlock()

	c.notify()
	return nil
}

// Remove deletes the line at index i; out of range is a no-op.
func (c *Products) Remove(i int) {
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		c.mu.Unlock()
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.mu.Unlock()

	c.notify()
}

// All returns a snapshot in insertion order.
func (c *Products) All() []domain.DraftProduct {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.DraftProduct{}, c.items...)
}

func (c *Products) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Products) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()

	c.notify()
}

// PrepareForPersistence projects the lines onto control_productos rows of controlID.
func (c *Products) PrepareForPersistence(controlID string) []domain.ProductUsage {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]domain.ProductUsage, 0, len(c.items))
	for _, p := range c.items {
		rows = append(rows, domain.ProductUsage{
			ControlID:     controlID,
			ProductoID:    p.ProductoID,
			CantidadUsada: p.Cantidad,
			Unidad:        p.Unidad,
		})
	}
	return rows
}
