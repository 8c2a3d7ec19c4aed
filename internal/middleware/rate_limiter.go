package middleware

import (
	"net/http"
	"sync"
	"time"

	"gestormoto/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ventana counts requests per client IP in fixed windows.
type ventana struct {
	count     int
	windowEnd time.Time
}

type limitador struct {
	nombre  string
	limit   int
	window  time.Duration
	mensaje string

	mu      sync.Mutex
	entries map[string]*ventana
}

func nuevoLimitador(nombre string, limit int, window time.Duration, mensaje string) *limitador {
	l := &limitador{
		nombre:  nombre,
		limit:   limit,
		window:  window,
		mensaje: mensaje,
		entries: make(map[string]*ventana),
	}
	go l.purgar(purgeInterval)
	return l
}

// permitir records one request for ip and reports whether it is within the
// limit, plus the end of the current window.
func (l *limitador) permitir(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &ventana{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

func (l *limitador) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, fin := l.permitir(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", fin.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.mensaje))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return nuevoLimitador("login", 20, time.Minute, "Demasiados intentos de login. Intente en 1 minuto.").handler()
}

// RateLimiter is the general API limiter, limit requests per window per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return nuevoLimitador("api", limit, window, "Demasiadas solicitudes. Intente nuevamente en un momento.").handler()
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Expired windows are dropped so IPs that never return do not accumulate.

const purgeInterval = 5 * time.Minute

func (l *limitador) purgar(cada time.Duration) {
	ticker := time.NewTicker(cada)
	defer ticker.Stop()
	for range ticker.C {
		l.purgarVencidas(time.Now())
	}
}

func (l *limitador) purgarVencidas(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	purged := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().Str("limitador", l.nombre).Int("purged", purged).Int("remaining", len(l.entries)).
			Msg("rate limiter entries purged")
	}
	return purged
}
