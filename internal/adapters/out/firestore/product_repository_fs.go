// internal/adapters/out/firestore/product_repository_fs.go
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

	productdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/product"
)

const productsCol = "products"

// ProductRepositoryFS implements product.Repository using Firestore.
type ProductRepositoryFS struct {
	Client *gfs.Client
}

func NewProductRepositoryFS(client *gfs.Client) *ProductRepositoryFS {
	return &ProductRepositoryFS{Client: client}
}

func (r *ProductRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection(productsCol)
}

func (r *ProductRepositoryFS) GetByID(ctx context.Context, id string) (*productdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_repository_fs: firestore client is nil")
	}
	pid := strings.TrimSpace(id)
	if pid == "" {
		return nil, errors.New("product_repository_fs: id is empty")
	}

	snap, err := r.col().Doc(pid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, productdom.ErrNotFound
		}
		return nil, err
	}
	return decodeProduct(pid, snap.Data()), nil
}

func (r *ProductRepositoryFS) List(ctx context.Context, category string) ([]*productdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_repository_fs: firestore client is nil")
	}

	q := r.col().Query
	if c := strings.TrimSpace(category); c != "" {
		q = q.Where("category", "==", c)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*productdom.Product
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, err
		}
		out = append(out, decodeProduct(snap.Ref.ID, snap.Data()))
	}
	return out, nil
}

func (r *ProductRepositoryFS) Create(ctx context.Context, p *productdom.Product) error {
	if r == nil || r.Client == nil {
		return errors.New("product_repository_fs: firestore client is nil")
	}
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return errors.New("product_repository_fs: product or id is empty")
	}
	_, err := r.col().Doc(p.ID).Create(ctx, encodeProduct(p))
	return err
}

func (r *ProductRepositoryFS) Save(ctx context.Context, p *productdom.Product) error {
	if r == nil || r.Client == nil {
		return errors.New("product_repository_fs: firestore client is nil")
	}
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return errors.New("product_repository_fs: product or id is empty")
	}
	_, err := r.col().Doc(p.ID).Set(ctx, encodeProduct(p))
	return err
}

func (r *ProductRepositoryFS) Delete(ctx context.Context, id string) error {
	if r == nil || r.Client == nil {
		return errors.New("product_repository_fs: firestore client is nil")
	}
	pid := strings.TrimSpace(id)
	if pid == "" {
		return errors.New("product_repository_fs: id is empty")
	}
	_, err := r.col().Doc(pid).Delete(ctx)
	return err
}

type productDoc struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	Price       string    `firestore:"price"`
	Currency    string    `firestore:"currency"`
	Category    string    `firestore:"category,omitempty"`
	ImageURL    string    `firestore:"imageUrl,omitempty"`
	InStock     bool      `firestore:"inStock"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func encodeProduct(p *productdom.Product) productDoc {
	return productDoc{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Currency:    p.Currency,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		InStock:     p.InStock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func decodeProduct(id string, data map[string]any) *productdom.Product {
	p := &productdom.Product{ID: id}
	if data == nil {
		return p
	}
	p.Name = asString(data["name"])
	p.Description = asString(data["description"])
	p.Price = asDecimal(data["price"])
	p.Currency = asString(data["currency"])
	p.Category = asString(data["category"])
	p.ImageURL = asString(data["imageUrl"])
	p.InStock = asBool(data["inStock"])
	if t, ok := asTime(data["createdAt"]); ok {
		p.CreatedAt = t
	}
	if t, ok := asTime(data["updatedAt"]); ok {
		p.UpdatedAt = t
	}
	return p
}
