package dto

import "github.com/shopspring/decimal"

// HistorialPrecioItem is one purchase-price change of a product.
type HistorialPrecioItem struct {
	ID            string          `json:"id"`
	ProductoID    string          `json:"producto_id"`
	ProveedorID   *string         `json:"proveedor_id,omitempty"`
	IngresoID     *string         `json:"ingreso_id,omitempty"`
	CompraAntes   decimal.Decimal `json:"compra_antes"`
	CompraDespues decimal.Decimal `json:"compra_despues"`
	Motivo        string          `json:"motivo"`
	CreatedAt     string          `json:"created_at"`
}

// HistorialPrecioListResponse is returned by GET /v1/productos/:id/historial-precios.
type HistorialPrecioListResponse struct {
	Data  []HistorialPrecioItem `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
