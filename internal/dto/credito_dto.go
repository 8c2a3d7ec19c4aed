package dto

import "github.com/shopspring/decimal"

type LiquidarCreditoRequest struct {
	ItemIDs    []string `json:"item_ids"    validate:"required,min=1,dive,uuid"`
	MetodoPago string   `json:"metodo_pago" validate:"omitempty,oneof=efectivo tarjeta yape plin transferencia"`
}

type AbonoRequest struct {
	Monto      decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	MetodoPago string          `json:"metodo_pago" validate:"required,oneof=efectivo tarjeta yape plin transferencia"`
}

type CreditoItemResponse struct {
	ID             string          `json:"id"`
	CreditoID      string          `json:"credito_id"`
	ProductoID     string          `json:"producto_id"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Abonado        decimal.Decimal `json:"abonado"`
	Pendiente      decimal.Decimal `json:"pendiente"`
	CreatedAt      string          `json:"created_at"`
}

type SaldoResponse struct {
	ClienteID string `json:"cliente_id"`
	Cliente   string `json:"cliente"`
	// SaldoCache is the stored balance; SaldoItems is the live sum still owed on the items.
	SaldoCache decimal.Decimal       `json:"saldo_cache"`
	SaldoItems decimal.Decimal       `json:"saldo_items"`
	Items      []CreditoItemResponse `json:"items"`
}

type LiquidacionResponse struct {
	Venta          VentaResponse   `json:"venta"`
	MontoLiquidado decimal.Decimal `json:"monto_liquidado"`
	SaldoRestante  decimal.Decimal `json:"saldo_restante"`
}
