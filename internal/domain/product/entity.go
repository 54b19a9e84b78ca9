// internal/domain/product/entity.go
package product

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProduct = errors.New("product: invalid")
	ErrNotFound       = errors.New("product: not found")
)

// Product is one catalog entry.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	InStock     bool            `json:"inStock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func New(id, name, description string, price decimal.Decimal, currency, category string, now time.Time) (*Product, error) {
	p := &Product{
		ID:          strings.TrimSpace(id),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Price:       price,
		Currency:    strings.ToUpper(strings.TrimSpace(currency)),
		Category:    strings.TrimSpace(category),
		InStock:     true,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if p.Currency == "" {
		p.Currency = "SEK"
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Product) validate() error {
	if p == nil || p.ID == "" || p.Name == "" {
		return ErrInvalidProduct
	}
	if p.Price.IsNegative() {
		return ErrInvalidProduct
	}
	return nil
}
