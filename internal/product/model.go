package product

import (
	"time"

	"github.com/gofrs/uuid"
)

type Category string

const (
	CategoryMen   Category = "men"
	CategoryWomen Category = "women"
)

func (c Category) Valid() bool {
	return c == CategoryMen || c == CategoryWomen
}

type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	Images      []string  `json:"images" db:"images"`
	Category    Category  `json:"category" db:"category"`
	Sizes       []string  `json:"sizes" db:"sizes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// MainImage returns the first image URL, or an empty string for a
// product with no images.
func (p *Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Filter narrows List results. A nil field means no filtering on it.
type Filter struct {
	Category   *Category
	StockBelow *int
}
