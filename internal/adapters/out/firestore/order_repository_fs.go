// internal/adapters/out/firestore/order_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/cartsession"
	orderdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/order"
)

const ordersCol = "orders"

// OrderRepositoryFS implements order.Repository using Firestore.
type OrderRepositoryFS struct {
	Client *gfs.Client
}

func NewOrderRepositoryFS(client *gfs.Client) *OrderRepositoryFS {
	return &OrderRepositoryFS{Client: client}
}

func (r *OrderRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection(ordersCol)
}

func (r *OrderRepositoryFS) GetByID(ctx context.Context, id string) (*orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("order_repository_fs: firestore client is nil")
	}
	oid := strings.TrimSpace(id)
	if oid == "" {
		return nil, errors.New("order_repository_fs: id is empty")
	}

	snap, err := r.col().Doc(oid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, orderdom.ErrNotFound
		}
		return nil, err
	}
	return decodeOrder(oid, snap.Data()), nil
}

func (r *OrderRepositoryFS) Create(ctx context.Context, o *orderdom.Order) error {
	if r == nil || r.Client == nil {
		return errors.New("order_repository_fs: firestore client is nil")
	}
	if o == nil || strings.TrimSpace(o.ID) == "" {
		return errors.New("order_repository_fs: order or id is empty")
	}
	_, err := r.col().Doc(o.ID).Create(ctx, encodeOrder(o))
	return err
}

func (r *OrderRepositoryFS) ListByEmail(ctx context.Context, email string) ([]*orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("order_repository_fs: firestore client is nil")
	}
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, errors.New("order_repository_fs: email is empty")
	}

	iter := r.col().Query.Where("email", "==", e).Documents(ctx)
	defer iter.Stop()

	var out []*orderdom.Order
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, err
		}
		out = append(out, decodeOrder(snap.Ref.ID, snap.Data()))
	}
	return out, nil
}

// ExistsForEmailSince backs the sweep's supersede check.
func (r *OrderRepositoryFS) ExistsForEmailSince(ctx context.Context, email string, since time.Time) (bool, error) {
	if r == nil || r.Client == nil {
		return false, errors.New("order_repository_fs: firestore client is nil")
	}
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return false, nil
	}

	iter := r.col().Query.
		Where("email", "==", e).
		Where("createdAt", ">", since.UTC()).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type orderDoc struct {
	OrderNumber   string        `firestore:"orderNumber"`
	Email         string        `firestore:"email"`
	OwnerID       string        `firestore:"ownerId,omitempty"`
	Items         []cartItemDoc `firestore:"items"`
	Total         string        `firestore:"total"`
	Currency      string        `firestore:"currency"`
	DiscountCode  string        `firestore:"discountCode,omitempty"`
	CheckoutToken string        `firestore:"checkoutToken,omitempty"`
	Status        string        `firestore:"status"`
	CreatedAt     time.Time     `firestore:"createdAt"`
	UpdatedAt     time.Time     `firestore:"updatedAt"`
}

func encodeOrder(o *orderdom.Order) orderDoc {
	items := make([]cartItemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, cartItemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice.StringFixed(2),
		})
	}
	return orderDoc{
		OrderNumber:   o.OrderNumber,
		Email:         o.Email,
		OwnerID:       o.OwnerID,
		Items:         items,
		Total:         o.Total.StringFixed(2),
		Currency:      o.Currency,
		DiscountCode:  o.DiscountCode,
		CheckoutToken: o.CheckoutToken,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func decodeOrder(id string, data map[string]any) *orderdom.Order {
	o := &orderdom.Order{ID: id, Items: []cartdom.LineItem{}}
	if data == nil {
		return o
	}
	o.OrderNumber = asString(data["orderNumber"])
	o.Email = asString(data["email"])
	o.OwnerID = asString(data["ownerId"])
	o.Total = asDecimal(data["total"])
	o.Currency = asString(data["currency"])
	o.DiscountCode = asString(data["discountCode"])
	o.CheckoutToken = asString(data["checkoutToken"])
	o.Status = orderdom.Status(asString(data["status"]))
	if t, ok := asTime(data["createdAt"]); ok {
		o.CreatedAt = t
	}
	if t, ok := asTime(data["updatedAt"]); ok {
		o.UpdatedAt = t
	}

	if raw, ok := data["items"].([]any); ok {
		for _, v := range raw {
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			item := cartdom.LineItem{
				ProductID: strings.TrimSpace(asString(m["productId"])),
				Name:      strings.TrimSpace(asString(m["name"])),
				Qty:       asInt(m["qty"]),
				UnitPrice: asDecimal(m["unitPrice"]),
			}
			if item.ProductID == "" || item.Qty <= 0 {
				continue
			}
			o.Items = append(o.Items, item)
		}
	}
	return o
}
