// Package cart mirrors the storefront's client-side cart: a list of
// product/size/quantity lines the browser keeps in local storage. The
// server never stores a cart; it only receives the lines at checkout.
package cart

import (
	"encoding/json"

	"github.com/gofrs/uuid"

	"github.com/defit-store/backend/internal/order"
	"github.com/defit-store/backend/internal/product"
)

// Item is one cart line. The name, price, and image are a display
// snapshot taken when the product was added.
type Item struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Image    string    `json:"image"`
	Size     string    `json:"size"`
	Quantity int       `json:"quantity"`
}

type Cart struct {
	items []Item
}

func New() *Cart {
	return &Cart{}
}

// AddItem merges the quantity into an existing (product, size) line,
// or appends a new line snapshotting the product's display fields.
func (c *Cart) AddItem(p *product.Product, quantity int, size string) {
	if quantity <= 0 {
		return
	}
	for i := range c.items {
		if c.items[i].ID == p.ID && c.items[i].Size == size {
			c.items[i].Quantity += quantity
			return
		}
	}
	c.items = append(c.items, Item{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.MainImage(),
		Size:     size,
		Quantity: quantity,
	})
}

// UpdateQuantity sets the quantity of the (product, size) line. A
// quantity of zero or less removes the line.
func (c *Cart) UpdateQuantity(id uuid.UUID, size string, quantity int) {
	if quantity <= 0 {
		c.Remove(id, size)
		return
	}
	for i := range c.items {
		if c.items[i].ID == id && c.items[i].Size == size {
			c.items[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) Remove(id uuid.UUID, size string) {
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID == id && item.Size == size {
			continue
		}
		kept = append(kept, item)
	}
	c.items = kept
}

// Clear empties the cart, as done after a successful checkout.
func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) Items() []Item {
	items := make([]Item, len(c.items))
	copy(items, c.items)
	return items
}

func (c *Cart) Total() float64 {
	total := 0.0
	for _, item := range c.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// CheckoutItems converts the cart lines into checkout line items. Only
// the product reference, quantity, and size travel to the server; the
// price snapshot is display-only and re-resolved there.
func (c *Cart) CheckoutItems() []order.ItemInput {
	items := make([]order.ItemInput, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, order.ItemInput{
			ProductID: item.ID,
			Quantity:  item.Quantity,
			Size:      item.Size,
		})
	}
	return items
}

// MarshalJSON serializes the cart in the flat line-list form the
// browser keeps in local storage.
func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	c.items = items
	return nil
}
