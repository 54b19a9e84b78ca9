// internal/domain/order/entity.go
package order

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
)

var (
	ErrInvalidOrder = errors.New("order: invalid")
	ErrNotFound     = errors.New("order: not found")
)

// Status of a placed order.
type Status string

const (
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Order is a confirmed, paid order. Its creation is the completion event the
// abandonment sweep checks for when reconciling carts and checkouts.
type Order struct {
	ID            string                 `json:"id"`
	OrderNumber   string                 `json:"orderNumber"`
	Email         string                 `json:"email"`
	OwnerID       string                 `json:"ownerId,omitempty"` // cart session owner, if known
	Items         []cartsession.LineItem `json:"items"`
	Total         decimal.Decimal        `json:"total"`
	Currency      string                 `json:"currency"`
	DiscountCode  string                 `json:"discountCode,omitempty"`
	CheckoutToken string                 `json:"checkoutToken,omitempty"`
	Status        Status                 `json:"status"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

func New(id, orderNumber, email, ownerID string, items []cartsession.LineItem, total decimal.Decimal, currency string, now time.Time) (*Order, error) {
	o := &Order{
		ID:          strings.TrimSpace(id),
		OrderNumber: strings.TrimSpace(orderNumber),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		OwnerID:     strings.TrimSpace(ownerID),
		Items:       items,
		Total:       total,
		Currency:    strings.ToUpper(strings.TrimSpace(currency)),
		Status:      StatusPaid,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if o.Currency == "" {
		o.Currency = "SEK"
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Order) validate() error {
	if o == nil || o.ID == "" || o.Email == "" {
		return ErrInvalidOrder
	}
	if len(o.Items) == 0 || o.Total.IsNegative() {
		return ErrInvalidOrder
	}
	return nil
}
