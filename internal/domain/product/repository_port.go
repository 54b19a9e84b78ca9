// internal/domain/product/repository_port.go
package product

import "context"

// Repository is a persistence port for catalog products.
// Storage (Firestore): collection products, docId = product id.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, category string) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Save(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}

// ImageStore stores product images and returns a public URL.
type ImageStore interface {
	Upload(ctx context.Context, productID, filename, contentType string, data []byte) (string, error)
}
