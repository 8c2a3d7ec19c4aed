package infra

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards the SMTP server. After UmbralFallos consecutive failures every call
// fails fast for TiempoAbierto; then a single probe is let through and
// UmbralExitos successful probes close the breaker again.

type EstadoCB int

const (
	CBCerrado     EstadoCB = iota // calls flow
	CBAbierto                     // fast-fail
	CBSemiAbierto                 // one probe at a time
)

func (s EstadoCB) String() string {
	switch s {
	case CBCerrado:
		return "cerrado"
	case CBAbierto:
		return "abierto"
	case CBSemiAbierto:
		return "semiabierto"
	default:
		return "desconocido"
	}
}

// ErrCircuitoAbierto is matched with errors.Is on every rejection.
var ErrCircuitoAbierto = errors.New("circuit breaker abierto")

// CircuitoAbiertoError reports when the next probe will be allowed.
type CircuitoAbiertoError struct {
	Nombre       string
	ReintentarEn time.Duration
}

func (e *CircuitoAbiertoError) Error() string {
	return fmt.Sprintf("%s: %s, reintentar en %s", e.Nombre, ErrCircuitoAbierto, e.ReintentarEn.Round(time.Second))
}

func (e *CircuitoAbiertoError) Unwrap() error { return ErrCircuitoAbierto }

type CircuitBreakerConfig struct {
	UmbralFallos  int           // consecutive failures that open the breaker
	UmbralExitos  int           // successful probes needed to close it
	TiempoAbierto time.Duration // wait before the first probe
}

// DefaultCBConfig is used for the SMTP breaker.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{UmbralFallos: 5, UmbralExitos: 2, TiempoAbierto: time.Minute}
}

// ResumenCB is the state exposed on /health.
type ResumenCB struct {
	Estado         string     `json:"estado"`
	Fallos         int        `json:"fallos"`
	AbiertoDesde   *time.Time `json:"abierto_desde,omitempty"`
	TotalAperturas int        `json:"total_aperturas"`
}

type CircuitBreaker struct {
	nombre string
	cfg    CircuitBreakerConfig
	ahora  func() time.Time

	mu        sync.Mutex
	estado    EstadoCB
	fallos    int
	exitos    int
	abiertoEn time.Time
	sondeando bool
	aperturas int
}

func NewCircuitBreaker(nombre string, cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.UmbralFallos <= 0 {
		cfg.UmbralFallos = def.UmbralFallos
	}
	if cfg.UmbralExitos <= 0 {
		cfg.UmbralExitos = def.UmbralExitos
	}
	if cfg.TiempoAbierto <= 0 {
		cfg.TiempoAbierto = def.TiempoAbierto
	}
	return &CircuitBreaker{nombre: nombre, cfg: cfg, ahora: time.Now}
}

// Estado returns the current state, moving an expired open breaker to half-open.
func (cb *CircuitBreaker) Estado() EstadoCB {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expirar()
	return cb.estado
}

func (cb *CircuitBreaker) Resumen() ResumenCB {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expirar()
	r := ResumenCB{Estado: cb.estado.String(), Fallos: cb.fallos, TotalAperturas: cb.aperturas}
	if cb.estado != CBCerrado {
		desde := cb.abiertoEn
		r.AbiertoDesde = &desde
	}
	return r
}

// expirar must be called under lock.
func (cb *CircuitBreaker) expirar() {
	if cb.estado == CBAbierto && cb.ahora().Sub(cb.abiertoEn) >= cb.cfg.TiempoAbierto {
		cb.estado = CBSemiAbierto
		cb.exitos = 0
		cb.sondeando = false
	}
}

// Ejecutar runs fn unless the breaker rejects the call. The error of fn is
// returned unchanged.
func (cb *CircuitBreaker) Ejecutar(fn func() error) error {
	if err := cb.admitir(); err != nil {
		return err
	}
	err := fn()
	cb.registrar(err)
	return err
}

func (cb *CircuitBreaker) admitir() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expirar()
	switch cb.estado {
	case CBAbierto:
		return &CircuitoAbiertoError{Nombre: cb.nombre, ReintentarEn: cb.cfg.TiempoAbierto - cb.ahora().Sub(cb.abiertoEn)}
	case CBSemiAbierto:
		if cb.sondeando {
			return &CircuitoAbiertoError{Nombre: cb.nombre}
		}
		cb.sondeando = true
	}
	return nil
}

func (cb *CircuitBreaker) registrar(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	sondeo := cb.estado == CBSemiAbierto
	cb.sondeando = false

	if err != nil {
		cb.fallos++
		if sondeo || cb.fallos >= cb.cfg.UmbralFallos {
			cb.abrir()
		}
		return
	}

	cb.fallos = 0
	if sondeo {
		cb.exitos++
		if cb.exitos >= cb.cfg.UmbralExitos {
			cb.estado = CBCerrado
			cb.exitos = 0
			log.Info().Str("breaker", cb.nombre).Msg("circuit breaker cerrado")
		}
	}
}

func (cb *CircuitBreaker) abrir() {
	cb.estado = CBAbierto
	cb.abiertoEn = cb.ahora()
	cb.exitos = 0
	cb.aperturas++
	log.Warn().Str("breaker", cb.nombre).Int("fallos", cb.fallos).Dur("espera", cb.cfg.TiempoAbierto).
		Msg("circuit breaker abierto")
}
