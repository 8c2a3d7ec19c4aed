package middleware

import (
	"errors"
	"net/http"
	"strings"

	"gestormoto/internal/apierror"
	"gestormoto/internal/infra"

	"github.com/gin-gonic/gin"
)

// ClaimsKey holds the *JWTClaims of the authenticated request.
const ClaimsKey = "claims"

type JWTClaims = infra.Claims

func bearer(header string) (string, bool) {
	esquema, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(esquema, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// JWTAuth admits requests carrying a valid access token.
func JWTAuth(secret string) gin.HandlerFunc {
	tokens := infra.NewTokens(secret, 0, 0)
	return func(c *gin.Context) {
		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}
		claims, err := tokens.Parse(raw, "")
		switch {
		case errors.Is(err, infra.ErrTipoToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Use el access token, no el refresh token"))
			return
		case err != nil:
			RequestLogger(c).Debug().Err(err).Msg("token rechazado")
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		for _, r := range roles {
			if claims != nil && claims.Rol == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
	}
}

// GetClaims returns nil outside routes protected by JWTAuth.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
