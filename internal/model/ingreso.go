package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ingreso is an intake batch (purchase from a supplier). Each item creates one Lote.
type Ingreso struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProveedorID  *uuid.UUID `gorm:"type:uuid;index"`
	Documento    *string
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FechaNegocio string          `gorm:"type:varchar(10);not null;index"`
	CreatedAt    time.Time

	Items []IngresoItem `gorm:"foreignKey:IngresoID"`
}

type IngresoItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IngresoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID    uuid.UUID       `gorm:"type:uuid;not null"`
	LoteID        uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad      int             `gorm:"not null"`
	CostoUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
