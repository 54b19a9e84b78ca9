// internal/adapters/in/http/handlers/auth_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	usecase "github.com/ErnestIssa/vornify-server-sub000/internal/application/usecase"
	userdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/user"
)

// AuthHandler serves register/login and the whoami endpoint.
type AuthHandler struct {
	uc *usecase.AuthUsecase
}

func NewAuthHandler(uc *usecase.AuthUsecase) http.Handler {
	return &AuthHandler{uc: uc}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/register":
		h.register(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		h.login(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/auth/me":
		h.me(w, r)
	default:
		notFound(w)
	}
}

// POST /auth/register
func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	usr, token, err := h.uc.Register(r.Context(), body.Email, body.Name, body.Password)
	if err != nil {
		writeAuthErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": usr, "token": token})
}

// POST /auth/login
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	usr, token, err := h.uc.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeAuthErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"user": usr, "token": token})
}

// GET /auth/me (bearer token)
func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return
	}
	userID, email, err := h.uc.VerifyToken(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
	if err != nil {
		writeAuthErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"userId": userID, "email": email})
}

func writeAuthErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrAuthInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, usecase.ErrAuthInvalidCredentials), errors.Is(err, usecase.ErrAuthInvalidToken):
		code = http.StatusUnauthorized
	case errors.Is(err, userdom.ErrDuplicate):
		code = http.StatusConflict
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
