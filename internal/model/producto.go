package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a catalog item. StockActual is the denormalised sum of the
// remaining quantity of its lots and is only changed together with them.
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo       string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"index;not null"`
	Marca        string    `gorm:"not null;default:''"`
	Categoria    string    `gorm:"not null;default:'general'"`
	Ubicacion    *string
	PrecioCompra decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioVenta  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockActual  int             `gorm:"not null;default:0"`
	StockMinimo  int             `gorm:"not null;default:2"`
	ImagenURL    *string
	ProveedorID  *uuid.UUID `gorm:"type:uuid;index"`
	Activo       bool       `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Proveedor *Proveedor `gorm:"foreignKey:ProveedorID"`
}

// BajoStock reports whether the product is at or under its low-stock threshold.
func (p *Producto) BajoStock() bool { return p.StockActual <= p.StockMinimo }
