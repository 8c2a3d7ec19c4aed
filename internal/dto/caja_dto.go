package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearRetiroRequest struct {
	Monto      decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	MetodoPago string          `json:"metodo_pago" validate:"required,oneof=efectivo tarjeta yape plin transferencia"`
	Motivo     string          `json:"motivo"      validate:"required,min=3"`
	// Fecha defaults to the current business date.
	Fecha string `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
}

type CerrarCajaRequest struct {
	Fecha string `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
}

type CierreFilter struct {
	Desde string `form:"desde" validate:"omitempty,datetime=2006-01-02"`
	Hasta string `form:"hasta" validate:"omitempty,datetime=2006-01-02"`
	Limit int    `form:"limit,default=31" validate:"min=1,max=366"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VentaResumen struct {
	VentaID        string          `json:"venta_id"`
	Numero         int             `json:"numero"`
	Tipo           string          `json:"tipo"`
	Cliente        string          `json:"cliente"`
	MetodoPago     string          `json:"metodo_pago"`
	Total          decimal.Decimal `json:"total"`
	Ganancia       decimal.Decimal `json:"ganancia"`
	FuenteGanancia string          `json:"fuente_ganancia"`
}

type RetiroResponse struct {
	ID         string          `json:"id"`
	Monto      decimal.Decimal `json:"monto"`
	MetodoPago string          `json:"metodo_pago"`
	Motivo     string          `json:"motivo"`
	Fecha      string          `json:"fecha"`
	Hora       string          `json:"hora"`
}

// ResumenCajaResponse is the live aggregation of a business date.
type ResumenCajaResponse struct {
	Fecha              string                     `json:"fecha"`
	Cerrada            bool                       `json:"cerrada"`
	CantidadVentas     int                        `json:"cantidad_ventas"`
	PorMetodo          map[string]decimal.Decimal `json:"por_metodo"`
	GananciaBruta      decimal.Decimal            `json:"ganancia_bruta"`
	GananciaReal       decimal.Decimal            `json:"ganancia_real"`
	MetodoCalculo      string                     `json:"metodo_calculo"`
	VentasCalculadas   int                        `json:"ventas_calculadas"`
	VentasEstimadas    int                        `json:"ventas_estimadas"`
	TotalAbonos        decimal.Decimal            `json:"total_abonos"`
	TotalRetiros       decimal.Decimal            `json:"total_retiros"`
	TotalDevoluciones  decimal.Decimal            `json:"total_devoluciones"`
	EfectivoDisponible decimal.Decimal            `json:"efectivo_disponible"`
	Ventas             []VentaResumen             `json:"ventas"`
	Retiros            []RetiroResponse           `json:"retiros"`
}

type CierreCajaResponse struct {
	Fecha             string                     `json:"fecha"`
	PorMetodo         map[string]decimal.Decimal `json:"por_metodo"`
	CantidadVentas    int                        `json:"cantidad_ventas"`
	GananciaBruta     decimal.Decimal            `json:"ganancia_bruta"`
	GananciaReal      decimal.Decimal            `json:"ganancia_real"`
	MetodoCalculo     string                     `json:"metodo_calculo"`
	TotalAbonos       decimal.Decimal            `json:"total_abonos"`
	TotalRetiros      decimal.Decimal            `json:"total_retiros"`
	TotalDevoluciones decimal.Decimal            `json:"total_devoluciones"`
	EfectivoFinal     decimal.Decimal            `json:"efectivo_final"`
	Ventas            []VentaResumen             `json:"ventas"`
	Retiros           []RetiroResponse           `json:"retiros"`
	CerradoPor        string                     `json:"cerrado_por"`
	CerradoAt         string                     `json:"cerrado_at"`
}

type EstadoCajaResponse struct {
	Fecha   string              `json:"fecha"`
	Cerrada bool                `json:"cerrada"`
	Cierre  *CierreCajaResponse `json:"cierre,omitempty"`
}
