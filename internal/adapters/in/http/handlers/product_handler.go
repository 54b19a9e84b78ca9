// internal/adapters/in/http/handlers/product_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
	productdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/product"
)

// 8 MiB is plenty for a product photo.
const maxImageBytes = 8 << 20

// ProductHandler serves the catalog CRUD plus image upload.
// Reads are public; the router wraps writes in auth middleware.
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewProductHandler(uc *usecase.ProductUsecase) http.Handler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && (path == "/products" || path == "/products/"):
		h.list(w, r)
	case r.Method == http.MethodPost && (path == "/products" || path == "/products/"):
		h.create(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/image"):
		id := pathTail(strings.TrimSuffix(path, "/image"), "/products/")
		h.uploadImage(w, r, id)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/products/"):
		h.get(w, r, pathTail(path, "/products/"))
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/products/"):
		h.update(w, r, pathTail(path, "/products/"))
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/products/"):
		h.delete(w, r, pathTail(path, "/products/"))
	default:
		notFound(w)
	}
}

// GET /products?category=hoodies
func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.uc.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeProductErr(w, err)
		return
	}
	if items == nil {
		items = []*productdom.Product{}
	}
	_ = json.NewEncoder(w).Encode(items)
}

// GET /products/{id}
func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		badRequest(w, "invalid id")
		return
	}
	p, err := h.uc.Get(r.Context(), id)
	if err != nil {
		writeProductErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

// POST /products
func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Currency    string          `json:"currency"`
		Category    string          `json:"category"`
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	p, err := h.uc.Create(r.Context(), usecase.CreateProductInput{
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
		Currency:    body.Currency,
		Category:    body.Category,
	})
	if err != nil {
		writeProductErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// PUT /products/{id}
func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		badRequest(w, "invalid id")
		return
	}
	var p productdom.Product
	if err := decodeJSON(r, &p); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	p.ID = id

	if err := h.uc.Update(r.Context(), &p); err != nil {
		writeProductErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(&p)
}

// DELETE /products/{id}
func (h *ProductHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		badRequest(w, "invalid id")
		return
	}
	if err := h.uc.Delete(r.Context(), id); err != nil {
		writeProductErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /products/{id}/image  (raw bytes; Content-Type and X-Filename headers)
func (h *ProductHandler) uploadImage(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		badRequest(w, "invalid id")
		return
	}
	filename := strings.TrimSpace(r.Header.Get("X-Filename"))
	if filename == "" {
		badRequest(w, "X-Filename header is required")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes+1))
	if err != nil {
		badRequest(w, "failed to read body")
		return
	}
	if len(data) == 0 {
		badRequest(w, "empty body")
		return
	}
	if len(data) > maxImageBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "image too large"})
		return
	}

	p, err := h.uc.UploadImage(r.Context(), id, filename, r.Header.Get("Content-Type"), data)
	if err != nil {
		writeProductErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

func writeProductErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrProductInvalidInput), errors.Is(err, productdom.ErrInvalidProduct):
		code = http.StatusBadRequest
	case errors.Is(err, productdom.ErrNotFound):
		code = http.StatusNotFound
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
