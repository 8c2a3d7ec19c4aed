package infra

import (
	"errors"
	"time"

	"gestormoto/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenRefresh is the tipo claim of refresh tokens. Access tokens carry none.
const TokenRefresh = "refresh"

var ErrTipoToken = errors.New("tipo de token incorrecto")

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
	Rol      string `json:"rol"`
	Tipo     string `json:"tipo,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) EsAdmin() bool { return c.Rol == model.RolAdministrador }

// Tokens signs and verifies the HS256 session tokens.
type Tokens struct {
	secret  []byte
	acceso  time.Duration
	refresh time.Duration
	ahora   func() time.Time
}

func NewTokens(secret string, acceso, refresh time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), acceso: acceso, refresh: refresh, ahora: time.Now}
}

// Par returns a fresh access and refresh token for u.
func (t *Tokens) Par(u *model.Usuario) (acceso, refresh string, err error) {
	if acceso, err = t.firmar(u, "", t.acceso); err != nil {
		return "", "", err
	}
	refresh, err = t.firmar(u, TokenRefresh, t.refresh)
	return acceso, refresh, err
}

func (t *Tokens) firmar(u *model.Usuario, tipo string, ttl time.Duration) (string, error) {
	ahora := t.ahora()
	claims := Claims{
		UserID:   u.ID.String(),
		Username: u.Username,
		Nombre:   u.Nombre,
		Rol:      u.Rol,
		Tipo:     tipo,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(ahora),
			ExpiresAt: jwt.NewNumericDate(ahora.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies raw and requires its tipo claim to equal tipo. Tokens
// without exp or with an unparsable user id are rejected.
func (t *Tokens) Parse(raw, tipo string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.ahora),
	)
	if err != nil {
		return nil, err
	}
	if claims.Tipo != tipo {
		return nil, ErrTipoToken
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, err
	}
	return claims, nil
}
