package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Codigo       string          `json:"codigo"        validate:"required,min=2,max=40"`
	Nombre       string          `json:"nombre"        validate:"required,min=2,max=120"`
	Marca        string          `json:"marca"         validate:"max=60"`
	Categoria    string          `json:"categoria"`
	Ubicacion    *string         `json:"ubicacion"`
	PrecioCompra decimal.Decimal `json:"precio_compra" validate:"min=0"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"  validate:"required,gt=0"`
	StockMinimo  int             `json:"stock_minimo"  validate:"min=0"`
	ImagenURL    *string         `json:"imagen_url"    validate:"omitempty,url"`
	ProveedorID  *string         `json:"proveedor_id"  validate:"omitempty,uuid"`
}

// ActualizarProductoRequest never carries stock: stock only moves through lots.
type ActualizarProductoRequest struct {
	Nombre      *string          `json:"nombre"       validate:"omitempty,min=2,max=120"`
	Marca       *string          `json:"marca"        validate:"omitempty,max=60"`
	Categoria   *string          `json:"categoria"`
	Ubicacion   *string          `json:"ubicacion"`
	PrecioVenta *decimal.Decimal `json:"precio_venta" validate:"omitempty,gt=0"`
	StockMinimo *int             `json:"stock_minimo" validate:"omitempty,min=0"`
	ImagenURL   *string          `json:"imagen_url"   validate:"omitempty,url"`
	ProveedorID *string          `json:"proveedor_id" validate:"omitempty,uuid"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Q           string `form:"q"`
	Codigo      string `form:"codigo"`
	Nombre      string `form:"nombre"`
	Marca       string `form:"marca"`
	Categoria   string `form:"categoria"`
	ProveedorID string `form:"proveedor_id" validate:"omitempty,uuid"`
	Activo      string `form:"activo"       validate:"omitempty,oneof=true false all"`
	BajoStock   bool   `form:"bajo_stock"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID           string          `json:"id"`
	Codigo       string          `json:"codigo"`
	Nombre       string          `json:"nombre"`
	Marca        string          `json:"marca"`
	Categoria    string          `json:"categoria"`
	Ubicacion    *string         `json:"ubicacion"`
	PrecioCompra decimal.Decimal `json:"precio_compra"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"`
	StockActual  int             `json:"stock_actual"`
	StockMinimo  int             `json:"stock_minimo"`
	BajoStock    bool            `json:"bajo_stock"`
	ImagenURL    *string         `json:"imagen_url"`
	Activo       bool            `json:"activo"`
	ProveedorID  *string         `json:"proveedor_id"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// ConsultaPreciosResponse is returned by the public price check endpoint (no auth required).
type ConsultaPreciosResponse struct {
	Codigo          string          `json:"codigo"`
	Nombre          string          `json:"nombre"`
	Marca           string          `json:"marca"`
	PrecioVenta     decimal.Decimal `json:"precio_venta"`
	StockDisponible int             `json:"stock_disponible"`
	Ubicacion       *string         `json:"ubicacion"`
}
