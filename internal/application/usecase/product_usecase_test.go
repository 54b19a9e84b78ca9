// internal/application/usecase/product_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	productdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/product"
)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*productdom.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*productdom.Product{}}
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*productdom.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, productdom.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) List(_ context.Context, category string) ([]*productdom.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*productdom.Product
	for _, p := range f.products {
		if category != "" && p.Category != category {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeProductRepo) Create(_ context.Context, p *productdom.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Save(_ context.Context, p *productdom.Product) error {
	return f.Create(context.Background(), p)
}

func (f *fakeProductRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, id)
	return nil
}

type fakeImageStore struct {
	uploads int
}

func (f *fakeImageStore) Upload(_ context.Context, productID, filename, _ string, _ []byte) (string, error) {
	f.uploads++
	return fmt.Sprintf("https://storage.googleapis.com/bucket/products/%s/%s", productID, filename), nil
}

func TestProductCRUD(t *testing.T) {
	repo := newFakeProductRepo()
	uc := NewProductUsecase(repo, &fakeImageStore{})

	p, err := uc.Create(context.Background(), CreateProductInput{
		Name:     "Hoodie",
		Price:    decimal.RequireFromString("499.00"),
		Category: "apparel",
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.Currency != "SEK" || !p.InStock {
		t.Errorf("product = %+v", p)
	}

	t.Run("category filter", func(t *testing.T) {
		if _, err := uc.Create(context.Background(), CreateProductInput{Name: "Mug", Price: decimal.RequireFromString("99.00"), Category: "accessories"}); err != nil {
			t.Fatal(err)
		}
		got, err := uc.List(context.Background(), "apparel")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Name != "Hoodie" {
			t.Errorf("list = %v", got)
		}
		all, _ := uc.List(context.Background(), "")
		if len(all) != 2 {
			t.Errorf("all = %v", all)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		if _, err := uc.Create(context.Background(), CreateProductInput{Name: " "}); !errors.Is(err, ErrProductInvalidInput) {
			t.Fatalf("err = %v", err)
		}
		if _, err := uc.Create(context.Background(), CreateProductInput{Name: "X", Price: decimal.RequireFromString("-1")}); !errors.Is(err, ErrProductInvalidInput) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := uc.Delete(context.Background(), p.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := uc.Get(context.Background(), p.ID); !errors.Is(err, productdom.ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestProductUploadImage(t *testing.T) {
	repo := newFakeProductRepo()
	store := &fakeImageStore{}
	uc := NewProductUsecase(repo, store)

	p, err := uc.Create(context.Background(), CreateProductInput{Name: "Hoodie", Price: decimal.RequireFromString("499.00")})
	if err != nil {
		t.Fatal(err)
	}

	got, err := uc.UploadImage(context.Background(), p.ID, "front.jpg", "image/jpeg", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatal(err)
	}
	if store.uploads != 1 {
		t.Errorf("uploads = %d", store.uploads)
	}
	want := fmt.Sprintf("https://storage.googleapis.com/bucket/products/%s/front.jpg", p.ID)
	if got.ImageURL != want {
		t.Errorf("ImageURL = %q, want %q", got.ImageURL, want)
	}

	// URL persisted, not just returned.
	stored, _ := uc.Get(context.Background(), p.ID)
	if stored.ImageURL != want {
		t.Errorf("stored ImageURL = %q", stored.ImageURL)
	}

	t.Run("unknown product", func(t *testing.T) {
		if _, err := uc.UploadImage(context.Background(), "nope", "a.jpg", "image/jpeg", nil); !errors.Is(err, productdom.ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("image store not configured", func(t *testing.T) {
		uc := NewProductUsecase(repo, nil)
		if _, err := uc.UploadImage(context.Background(), p.ID, "a.jpg", "image/jpeg", nil); err == nil {
			t.Fatal("expected error")
		}
	})
}
