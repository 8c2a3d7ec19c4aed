package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistorialPrecio records purchase price changes of a product. Immutable.
type HistorialPrecio struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProveedorID   *uuid.UUID      `gorm:"type:uuid"`
	IngresoID     *uuid.UUID      `gorm:"type:uuid"`
	CompraAntes   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CompraDespues decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Motivo        string          `gorm:"not null;default:'ingreso'"` // ingreso | manual
	CreatedAt     time.Time
}
