package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gestormoto/internal/apierror"
	"gestormoto/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func init() { gin.SetMode(gin.TestMode) }

func signToken(t *testing.T, rol, tipo string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": uuid.NewString(), "username": "rosa", "nombre": "Rosa", "rol": rol,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	if tipo != "" {
		claims["tipo"] = tipo
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func ginTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(JWTAuth(testSecret))
	r.GET("/protected", func(c *gin.Context) {
		claims := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"rol": claims.Rol, "admin": claims.EsAdmin()})
	})
	r.GET("/admin", RequireRole(model.RolAdministrador), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

// ── JWT ──────────────────────────────────────────────────────────────────────

func TestJWTAuth(t *testing.T) {
	r := ginTestRouter()

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"sin token", "", http.StatusUnauthorized},
		{"valido", signToken(t, model.RolVendedor, "", time.Hour), http.StatusOK},
		{"expirado", signToken(t, model.RolVendedor, "", -time.Second), http.StatusUnauthorized},
		{"refresh token", signToken(t, model.RolVendedor, "refresh", time.Hour), http.StatusUnauthorized},
		{"basura", "no.es.jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, get(r, "/protected", tc.token).Code)
		})
	}
}

func TestJWTAuth_OtraFirma(t *testing.T) {
	claims := jwt.MapClaims{"user_id": uuid.NewString(), "rol": model.RolAdministrador, "exp": time.Now().Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("otro-secreto"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(ginTestRouter(), "/protected", tok).Code)
}

func TestJWTAuth_TokensMalFormados(t *testing.T) {
	firmar := func(m jwt.SigningMethod, claims jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(m, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return tok
	}
	exp := time.Now().Add(time.Hour).Unix()
	r := ginTestRouter()

	cases := map[string]string{
		"sin exp":     firmar(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": uuid.NewString(), "rol": model.RolVendedor}),
		"sin usuario": firmar(jwt.SigningMethodHS256, jwt.MapClaims{"rol": model.RolVendedor, "exp": exp}),
		"HS512":       firmar(jwt.SigningMethodHS512, jwt.MapClaims{"user_id": uuid.NewString(), "exp": exp}),
	}
	for name, tok := range cases {
		assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", tok).Code, name)
	}
}

func TestJWTAuth_EsquemaBearer(t *testing.T) {
	r := ginTestRouter()
	tok := signToken(t, model.RolVendedor, "", time.Hour)
	for header, want := range map[string]int{
		"bearer " + tok: http.StatusOK,
		"Token " + tok:  http.StatusUnauthorized,
		"Bearer ":       http.StatusUnauthorized,
		tok:             http.StatusUnauthorized,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, header)
	}
}

func TestRequireRole(t *testing.T) {
	r := ginTestRouter()
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", signToken(t, model.RolVendedor, "", time.Hour)).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", signToken(t, model.RolAdministrador, "", time.Hour)).Code)

	w := get(r, "/protected", signToken(t, model.RolAdministrador, "", time.Hour))
	assert.JSONEq(t, `{"rol":"administrador","admin":true}`, w.Body.String())
}

// ── Request ID ───────────────────────────────────────────────────────────────

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := get(r, "/", "")
	generado := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generado)
	assert.NoError(t, err)
	assert.Equal(t, generado, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caja-01-000123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "caja-01-000123", w.Header().Get(RequestIDHeader))
}

// ── CORS ─────────────────────────────────────────────────────────────────────

func TestCORS(t *testing.T) {
	handler := func(origins []string, origin, method string) *httptest.ResponseRecorder {
		r := gin.New()
		r.Use(CORS(origins))
		r.Any("/", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/", nil)
		req.Header.Set("Origin", origin)
		r.ServeHTTP(w, req)
		return w
	}

	w := handler([]string{"*"}, "http://pos.local", http.MethodGet)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = handler([]string{"http://pos.local", " http://admin.local"}, "http://admin.local", http.MethodGet)
	assert.Equal(t, "http://admin.local", w.Header().Get("Access-Control-Allow-Origin"))

	w = handler([]string{"http://pos.local"}, "http://evil.example", http.MethodGet)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = handler([]string{"*"}, "http://pos.local", http.MethodOptions)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

// ── Rate limiter ─────────────────────────────────────────────────────────────

func TestLimitador_VentanaFija(t *testing.T) {
	l := &limitador{nombre: "test", limit: 2, window: time.Minute, entries: map[string]*ventana{}}
	t0 := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	ok, _ := l.permitir("10.0.0.1", t0)
	assert.True(t, ok)
	ok, _ = l.permitir("10.0.0.1", t0.Add(time.Second))
	assert.True(t, ok)
	ok, fin := l.permitir("10.0.0.1", t0.Add(2*time.Second))
	assert.False(t, ok)
	assert.Equal(t, t0.Add(time.Minute), fin)

	ok, _ = l.permitir("10.0.0.2", t0.Add(2*time.Second))
	assert.True(t, ok, "limits are per IP")

	ok, _ = l.permitir("10.0.0.1", t0.Add(61*time.Second))
	assert.True(t, ok, "a new window starts after the old one ends")

	assert.Equal(t, 1, l.purgarVencidas(t0.Add(90*time.Second)))
}

func TestLimitador_Handler429(t *testing.T) {
	l := &limitador{nombre: "test", limit: 1, window: time.Minute, mensaje: "calma", entries: map[string]*ventana{}}
	r := gin.New()
	r.Use(l.handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	w := get(r, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "calma")
}

// ── Error handling ───────────────────────────────────────────────────────────

func TestErrorHandler_MapeaErroresDeDominio(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(), ErrorHandler())
	r.GET("/conflicto", func(c *gin.Context) {
		_ = c.Error(apierror.NewConflictoEstado("la fecha %s ya fue cerrada", "2024-03-15"))
	})
	r.GET("/interno", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: relation does not exist"))
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := get(r, "/conflicto", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "2024-03-15")

	w = get(r, "/interno", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation", "internal details never leak")

	w = get(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
