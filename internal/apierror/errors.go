package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ── Sentinels ─────────────────────────────────────────────────────────────────
// Callers match with errors.Is; the typed errors below unwrap to one of these.

var (
	ErrValidacion           = errors.New("datos invalidos")
	ErrStockInsuficiente    = errors.New("stock insuficiente")
	ErrCapacidadDevolucion  = errors.New("capacidad de lotes insuficiente para la devolucion")
	ErrConflictoEstado      = errors.New("conflicto de estado")
	ErrConflictoTransitorio = errors.New("conflicto de concurrencia, reintente")
	ErrNoEncontrado         = errors.New("recurso no encontrado")
	ErrNoAutorizado         = errors.New("operacion reservada a administradores")
	ErrCredenciales         = errors.New("credenciales invalidas")
)

// ValidacionError reports malformed input detected before any I/O.
type ValidacionError struct {
	Campo  string
	Motivo string
}

func NewValidacion(campo, motivo string) *ValidacionError {
	return &ValidacionError{Campo: campo, Motivo: motivo}
}

func (e *ValidacionError) Error() string {
	if e.Campo == "" {
		return e.Motivo
	}
	return fmt.Sprintf("%s: %s", e.Campo, e.Motivo)
}

func (e *ValidacionError) Unwrap() error { return ErrValidacion }

// StockInsuficienteError is returned when the lots of a product cannot cover an outflow.
type StockInsuficienteError struct {
	ProductoID uuid.UUID
	Producto   string
	Solicitado int
	Disponible int
	Faltante   int
}

func (e *StockInsuficienteError) Error() string {
	nombre := e.Producto
	if nombre == "" {
		nombre = e.ProductoID.String()
	}
	return fmt.Sprintf("stock insuficiente para %s: solicitado %d, disponible %d, faltan %d",
		nombre, e.Solicitado, e.Disponible, e.Faltante)
}

func (e *StockInsuficienteError) Unwrap() error { return ErrStockInsuficiente }

// CapacidadLote is one line of the partial-assignability breakdown of a rejected return.
type CapacidadLote struct {
	LoteID    uuid.UUID `json:"lote_id"`
	Codigo    string    `json:"codigo"`
	Capacidad int       `json:"capacidad"`
}

// CapacidadDevolucionError is returned when a restoration exceeds the spare
// capacity of the existing lots. Nothing is applied.
type CapacidadDevolucionError struct {
	ProductoID uuid.UUID
	Producto   string
	Solicitado int
	Asignable  int
	Excedente  int
	Desglose   []CapacidadLote
}

func (e *CapacidadDevolucionError) Error() string {
	nombre := e.Producto
	if nombre == "" {
		nombre = e.ProductoID.String()
	}
	return fmt.Sprintf("no se pueden devolver %d unidades de %s: solo %d caben en los lotes existentes, exceden %d",
		e.Solicitado, nombre, e.Asignable, e.Excedente)
}

func (e *CapacidadDevolucionError) Unwrap() error { return ErrCapacidadDevolucion }

// ConflictoEstadoError means the persisted state forbids the requested transition.
type ConflictoEstadoError struct {
	Detalle string
}

func NewConflictoEstado(format string, args ...interface{}) *ConflictoEstadoError {
	return &ConflictoEstadoError{Detalle: fmt.Sprintf(format, args...)}
}

func (e *ConflictoEstadoError) Error() string { return e.Detalle }

func (e *ConflictoEstadoError) Unwrap() error { return ErrConflictoEstado }

// ConflictoTransitorioError is surfaced only after automatic retries are exhausted.
type ConflictoTransitorioError struct {
	Causa error
}

func (e *ConflictoTransitorioError) Error() string {
	return fmt.Sprintf("%s: %v", ErrConflictoTransitorio.Error(), e.Causa)
}

func (e *ConflictoTransitorioError) Unwrap() []error { return []error{ErrConflictoTransitorio, e.Causa} }

// NoEncontradoError names the missing resource.
type NoEncontradoError struct {
	Recurso string
	ID      string
}

func NewNoEncontrado(recurso string, id interface{}) *NoEncontradoError {
	return &NoEncontradoError{Recurso: recurso, ID: fmt.Sprint(id)}
}

func (e *NoEncontradoError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Recurso, e.ID)
}

func (e *NoEncontradoError) Unwrap() error { return ErrNoEncontrado }

// ── HTTP mapping ──────────────────────────────────────────────────────────────

// Status returns the HTTP status code for a domain error; 500 when unknown.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidacion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNoEncontrado):
		return http.StatusNotFound
	case errors.Is(err, ErrCredenciales):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNoAutorizado):
		return http.StatusForbidden
	case errors.Is(err, ErrStockInsuficiente),
		errors.Is(err, ErrCapacidadDevolucion),
		errors.Is(err, ErrConflictoEstado):
		return http.StatusConflict
	case errors.Is(err, ErrConflictoTransitorio):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromError builds the response envelope for err. Unknown errors get a generic
// message; the caller is expected to log the original.
func FromError(err error) *APIError {
	if Status(err) == http.StatusInternalServerError {
		return New("Error interno del servidor")
	}
	resp := New(err.Error())

	var stock *StockInsuficienteError
	var capacidad *CapacidadDevolucionError
	switch {
	case errors.As(err, &stock):
		resp.Extra = map[string]interface{}{
			"producto_id": stock.ProductoID.String(),
			"solicitado":  stock.Solicitado,
			"disponible":  stock.Disponible,
			"faltante":    stock.Faltante,
		}
	case errors.As(err, &capacidad):
		resp.Extra = map[string]interface{}{
			"producto_id": capacidad.ProductoID.String(),
			"solicitado":  capacidad.Solicitado,
			"asignable":   capacidad.Asignable,
			"excedente":   capacidad.Excedente,
			"desglose":    capacidad.Desglose,
		}
	}
	return resp
}
