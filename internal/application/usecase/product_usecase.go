// internal/application/usecase/product_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	productdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/product"
)

var ErrProductInvalidInput = errors.New("product: name and price are required")

// ProductUsecase is catalog CRUD plus image upload.
type ProductUsecase struct {
	products productdom.Repository
	images   productdom.ImageStore
	now      func() time.Time
}

func NewProductUsecase(products productdom.Repository, images productdom.ImageStore) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		images:   images,
		now:      time.Now,
	}
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Currency    string
	Category    string
}

func (u *ProductUsecase) Create(ctx context.Context, in CreateProductInput) (*productdom.Product, error) {
	if strings.TrimSpace(in.Name) == "" || in.Price.IsNegative() {
		return nil, ErrProductInvalidInput
	}
	p, err := productdom.New(uuid.NewString(), in.Name, in.Description, in.Price, in.Currency, in.Category, u.now())
	if err != nil {
		return nil, err
	}
	if err := u.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id string) (*productdom.Product, error) {
	return u.products.GetByID(ctx, strings.TrimSpace(id))
}

func (u *ProductUsecase) List(ctx context.Context, category string) ([]*productdom.Product, error) {
	return u.products.List(ctx, strings.TrimSpace(category))
}

func (u *ProductUsecase) Update(ctx context.Context, p *productdom.Product) error {
	if p == nil {
		return ErrProductInvalidInput
	}
	p.UpdatedAt = u.now().UTC()
	return u.products.Save(ctx, p)
}

func (u *ProductUsecase) Delete(ctx context.Context, id string) error {
	return u.products.Delete(ctx, strings.TrimSpace(id))
}

// UploadImage stores the image and records its public URL on the product.
func (u *ProductUsecase) UploadImage(ctx context.Context, productID, filename, contentType string, data []byte) (*productdom.Product, error) {
	if u.images == nil {
		return nil, errors.New("product: image store is not configured")
	}
	p, err := u.products.GetByID(ctx, strings.TrimSpace(productID))
	if err != nil {
		return nil, err
	}
	url, err := u.images.Upload(ctx, p.ID, filename, contentType, data)
	if err != nil {
		return nil, err
	}
	p.ImageURL = url
	p.UpdatedAt = u.now().UTC()
	if err := u.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
