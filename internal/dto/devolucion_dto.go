package dto

import "github.com/shopspring/decimal"

type ItemDevolucionRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

type SolicitarDevolucionRequest struct {
	VentaID string                  `json:"venta_id" validate:"required,uuid"`
	Motivo  string                  `json:"motivo"   validate:"required,min=3"`
	Items   []ItemDevolucionRequest `json:"items"    validate:"required,min=1,dive"`
}

type RechazarDevolucionRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3"`
}

type DevolucionFilter struct {
	Estado  string `form:"estado"`
	VentaID string `form:"venta_id" validate:"omitempty,uuid"`
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ItemDevolucionResponse struct {
	ProductoID        string               `json:"producto_id"`
	Cantidad          int                  `json:"cantidad"`
	PrecioUnitario    decimal.Decimal      `json:"precio_unitario"`
	CostoUnitario     decimal.Decimal      `json:"costo_unitario"`
	GananciaRevertida decimal.Decimal      `json:"ganancia_revertida"`
	Asignaciones      []AsignacionResponse `json:"asignaciones"`
}

type DevolucionResponse struct {
	ID              string                   `json:"id"`
	VentaID         string                   `json:"venta_id"`
	Estado          string                   `json:"estado"`
	Motivo          string                   `json:"motivo"`
	MotivoRechazo   *string                  `json:"motivo_rechazo"`
	MontoReembolso  decimal.Decimal          `json:"monto_reembolso"`
	MetodoReembolso string                   `json:"metodo_reembolso,omitempty"`
	FechaNegocio    string                   `json:"fecha_negocio,omitempty"`
	Items           []ItemDevolucionResponse `json:"items"`
	CreatedAt       string                   `json:"created_at"`
	ProcesadoAt     *string                  `json:"procesado_at"`
}

type DevolucionListResponse struct {
	Data  []DevolucionResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
