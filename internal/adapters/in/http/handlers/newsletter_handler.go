// internal/adapters/in/http/handlers/newsletter_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
	subdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/subscriber"
)

// NewsletterHandler serves newsletter signup/unsubscribe. A first signup also
// triggers the welcome discount mail.
type NewsletterHandler struct {
	uc *usecase.NewsletterUsecase
}

func NewNewsletterHandler(uc *usecase.NewsletterUsecase) http.Handler {
	return &NewsletterHandler{uc: uc}
}

func (h *NewsletterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	switch r.URL.Path {
	case "/newsletter/subscribe":
		h.subscribe(w, r)
	case "/newsletter/unsubscribe":
		h.unsubscribe(w, r)
	default:
		notFound(w)
	}
}

// POST /newsletter/subscribe
// body: {"email": "...", "source": "footer"}
func (h *NewsletterHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email  string `json:"email"`
		Source string `json:"source"`
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	s, err := h.uc.Subscribe(r.Context(), body.Email, body.Source)
	if err != nil {
		writeNewsletterErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(s)
}

// POST /newsletter/unsubscribe
// body: {"email": "..."}
func (h *NewsletterHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	if err := h.uc.Unsubscribe(r.Context(), body.Email); err != nil {
		writeNewsletterErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

func writeNewsletterErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, subdom.ErrInvalidSubscriber):
		code = http.StatusBadRequest
	case errors.Is(err, subdom.ErrNotFound):
		code = http.StatusNotFound
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
