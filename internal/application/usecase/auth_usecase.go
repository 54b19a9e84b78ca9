// internal/application/usecase/auth_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ErnestIssa/vornify-server-sub000/internal/domain/lifecycle"
	userdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/user"
)

var (
	ErrAuthInvalidInput       = errors.New("auth: email and password are required")
	ErrAuthInvalidCredentials = errors.New("auth: invalid email or password")
	ErrAuthInvalidToken       = errors.New("auth: invalid token")
)

// AuthUsecase handles storefront account registration and login with
// first-party JWT access tokens.
type AuthUsecase struct {
	users     userdom.Repository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthUsecase(users userdom.Repository, jwtSecret string, tokenTTL time.Duration) *AuthUsecase {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthUsecase{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

type authClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Register creates an account and returns it with a fresh token.
func (u *AuthUsecase) Register(ctx context.Context, email, name, password string) (*userdom.User, string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" || strings.TrimSpace(password) == "" {
		return nil, "", ErrAuthInvalidInput
	}

	if _, err := u.users.GetByEmail(ctx, e); err == nil {
		return nil, "", userdom.ErrDuplicate
	} else if !errors.Is(err, userdom.ErrNotFound) && !errors.Is(err, lifecycle.ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	usr, err := userdom.New(uuid.NewString(), e, name, string(hash), u.now())
	if err != nil {
		return nil, "", err
	}
	if err := u.users.Create(ctx, usr); err != nil {
		return nil, "", err
	}

	token, err := u.issueToken(usr)
	if err != nil {
		return nil, "", err
	}
	return usr, token, nil
}

// Login verifies the password and returns the account with a fresh token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (*userdom.User, string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" || password == "" {
		return nil, "", ErrAuthInvalidInput
	}

	usr, err := u.users.GetByEmail(ctx, e)
	if err != nil {
		if errors.Is(err, userdom.ErrNotFound) || errors.Is(err, lifecycle.ErrNotFound) {
			return nil, "", ErrAuthInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrAuthInvalidCredentials
	}

	token, err := u.issueToken(usr)
	if err != nil {
		return nil, "", err
	}
	return usr, token, nil
}

// VerifyToken parses an access token and returns (userID, email).
func (u *AuthUsecase) VerifyToken(tokenString string) (string, string, error) {
	claims := &authClaims{}
	tok, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAuthInvalidToken
		}
		return u.jwtSecret, nil
	})
	if err != nil || !tok.Valid {
		return "", "", ErrAuthInvalidToken
	}
	return claims.Subject, claims.Email, nil
}

func (u *AuthUsecase) issueToken(usr *userdom.User) (string, error) {
	now := u.now()
	claims := authClaims{
		Email: usr.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   usr.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.tokenTTL)),
			Issuer:    "vornify-api",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.jwtSecret)
}
