package dto

import "github.com/shopspring/decimal"

// ─── Ingresos ────────────────────────────────────────────────────────────────

type ItemIngresoRequest struct {
	ProductoID    string          `json:"producto_id"    validate:"required,uuid"`
	Cantidad      int             `json:"cantidad"       validate:"required,min=1"`
	CostoUnitario decimal.Decimal `json:"costo_unitario" validate:"required,gt=0"`
}

type RegistrarIngresoRequest struct {
	ProveedorID *string              `json:"proveedor_id" validate:"omitempty,uuid"`
	Documento   *string              `json:"documento"    validate:"omitempty,max=40"`
	Items       []ItemIngresoRequest `json:"items"        validate:"required,min=1,dive"`
}

type IngresoResponse struct {
	ID           string          `json:"id"`
	ProveedorID  *string         `json:"proveedor_id"`
	Documento    *string         `json:"documento"`
	Total        decimal.Decimal `json:"total"`
	FechaNegocio string          `json:"fecha_negocio"`
	Lotes        []LoteResponse  `json:"lotes"`
}

// ─── Lotes ───────────────────────────────────────────────────────────────────

type LoteResponse struct {
	ID               string          `json:"id"`
	Codigo           string          `json:"codigo"`
	ProductoID       string          `json:"producto_id"`
	CantidadOriginal int             `json:"cantidad_original"`
	CantidadRestante int             `json:"cantidad_restante"`
	CostoUnitario    decimal.Decimal `json:"costo_unitario"`
	FechaIngreso     string          `json:"fecha_ingreso"`
	Estado           string          `json:"estado"`
	Legado           bool            `json:"legado"`
}

type MovimientoLoteFilter struct {
	ProductoID   string `form:"producto_id"       validate:"omitempty,uuid"`
	LoteID       string `form:"lote_id"           validate:"omitempty,uuid"`
	ReferenciaID string `form:"referencia_id"     validate:"omitempty,uuid"`
	Tipo         string `form:"tipo"              validate:"omitempty,oneof=devolucion anulacion"`
	Page         int    `form:"page,default=1"    validate:"min=1"`
	Limit        int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type MovimientoLoteResponse struct {
	ID                string          `json:"id"`
	LoteID            string          `json:"lote_id"`
	LoteCodigo        string          `json:"lote_codigo"`
	ProductoID        string          `json:"producto_id"`
	Tipo              string          `json:"tipo"`
	Cantidad          int             `json:"cantidad"`
	RestanteAnterior  int             `json:"restante_anterior"`
	RestanteNuevo     int             `json:"restante_nuevo"`
	CostoUnitario     decimal.Decimal `json:"costo_unitario"`
	GananciaRevertida decimal.Decimal `json:"ganancia_revertida"`
	ReferenciaID      *string         `json:"referencia_id"`
	Motivo            string          `json:"motivo"`
	CreatedAt         string          `json:"created_at"`
}

type MovimientoLoteListResponse struct {
	Data  []MovimientoLoteResponse `json:"data"`
	Total int64                    `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
}

type AlertaStockResponse struct {
	ProductoID  string `json:"producto_id"`
	Codigo      string `json:"codigo"`
	Nombre      string `json:"nombre"`
	StockActual int    `json:"stock_actual"`
	StockMinimo int    `json:"stock_minimo"`
}

// ─── Salidas / cotizaciones ──────────────────────────────────────────────────

type ItemSalidaRequest struct {
	ProductoID     string           `json:"producto_id"     validate:"required,uuid"`
	Cantidad       int              `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario *decimal.Decimal `json:"precio_unitario" validate:"omitempty,gt=0"`
}

type RegistrarSalidaRequest struct {
	Tipo      string              `json:"tipo"       validate:"required,oneof=salida cotizacion"`
	ClienteID *string             `json:"cliente_id" validate:"omitempty,uuid"`
	Motivo    string              `json:"motivo"     validate:"max=200"`
	Items     []ItemSalidaRequest `json:"items"      validate:"required,min=1,dive"`
}

type AprobarCotizacionRequest struct {
	MetodoPago string `json:"metodo_pago" validate:"required,oneof=efectivo tarjeta yape plin transferencia"`
}

type SalidaFilter struct {
	Tipo   string `form:"tipo"   validate:"omitempty,oneof=salida cotizacion"`
	Estado string `form:"estado"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SalidaResponse struct {
	ID            string              `json:"id"`
	Tipo          string              `json:"tipo"`
	Estado        string              `json:"estado"`
	ClienteNombre string              `json:"cliente_nombre"`
	Motivo        string              `json:"motivo"`
	Total         decimal.Decimal     `json:"total"`
	FechaNegocio  string              `json:"fecha_negocio"`
	VentaID       *string             `json:"venta_id"`
	Items         []ItemVentaResponse `json:"items"`
	CreatedAt     string              `json:"created_at"`
}

type SalidaListResponse struct {
	Data  []SalidaResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
