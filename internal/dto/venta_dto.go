package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha     string `form:"fecha"`                     // YYYY-MM-DD; empty = today
	Estado    string `form:"estado,default=completada"` // completada | anulada | all
	Tipo      string `form:"tipo"`
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
	// PrecioUnitario overrides the catalog price when set.
	PrecioUnitario *decimal.Decimal `json:"precio_unitario" validate:"omitempty,gt=0"`
}

type PagoRequest struct {
	Metodo string          `json:"metodo" validate:"required,oneof=efectivo tarjeta yape plin transferencia"`
	Monto  decimal.Decimal `json:"monto"  validate:"required,gt=0"`
}

// RegistrarVentaRequest is a POS checkout. Either MetodoPago (single method,
// full total) or Pagos (mixed payment, parts must add up to the total) is set.
type RegistrarVentaRequest struct {
	ClienteID  *string            `json:"cliente_id"  validate:"omitempty,uuid"`
	Items      []ItemVentaRequest `json:"items"       validate:"required,min=1,dive"`
	MetodoPago string             `json:"metodo_pago" validate:"omitempty,oneof=efectivo tarjeta yape plin transferencia"`
	Pagos      []PagoRequest      `json:"pagos"       validate:"omitempty,min=2,dive"`
}

type RegistrarVentaCreditoRequest struct {
	ClienteID string             `json:"cliente_id" validate:"required,uuid"`
	Items     []ItemVentaRequest `json:"items"      validate:"required,min=1,dive"`
}

type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AsignacionResponse struct {
	LoteID        string          `json:"lote_id"`
	Codigo        string          `json:"codigo"`
	Cantidad      int             `json:"cantidad"`
	CostoUnitario decimal.Decimal `json:"costo_unitario"`
}

type ItemVentaResponse struct {
	ProductoID     string               `json:"producto_id"`
	Producto       string               `json:"producto"`
	Cantidad       int                  `json:"cantidad"`
	PrecioUnitario decimal.Decimal      `json:"precio_unitario"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	Asignaciones   []AsignacionResponse `json:"asignaciones"`
}

// VentaResponse never exposes profit figures; those only appear in cash reports.
type VentaResponse struct {
	ID            string              `json:"id"`
	Numero        int                 `json:"numero"`
	Tipo          string              `json:"tipo"`
	Estado        string              `json:"estado"`
	ClienteID     *string             `json:"cliente_id"`
	ClienteNombre string              `json:"cliente_nombre"`
	Total         decimal.Decimal     `json:"total"`
	MetodoPago    string              `json:"metodo_pago"`
	Pagos         []PagoRequest       `json:"pagos"`
	Items         []ItemVentaResponse `json:"items"`
	FechaNegocio  string              `json:"fecha_negocio"`
	CreatedAt     string              `json:"created_at"`
}

type CreditoResponse struct {
	ID        string              `json:"id"`
	ClienteID string              `json:"cliente_id"`
	Estado    string              `json:"estado"`
	Total     decimal.Decimal     `json:"total"`
	Items     []ItemVentaResponse `json:"items"`
	Saldo     decimal.Decimal     `json:"saldo_pendiente"`
	CreatedAt string              `json:"created_at"`
}
