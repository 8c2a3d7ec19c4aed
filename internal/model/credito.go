package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	CreditoPendiente = "pendiente"
	CreditoLiquidado = "liquidado"
)

// Credito groups the items a client took on credit in one operation.
// It becomes "liquidado" once every item has been paid off (deleted).
type Credito struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	Estado       string          `gorm:"type:varchar(15);not null;default:'pendiente'"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FechaNegocio string          `gorm:"type:varchar(10);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []CreditoItem `gorm:"foreignKey:CreditoID"`
}

// CreditoItem is an unpaid line of a credit. Abonos raise Abonado oldest item
// first; paying the item off deletes it.
type CreditoItem struct {
	ID             uuid.UUID                           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreditoID      uuid.UUID                           `gorm:"type:uuid;not null;index"`
	ClienteID      uuid.UUID                           `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID                           `gorm:"type:uuid;not null"`
	Descripcion    string                              `gorm:"not null"`
	Cantidad       int                                 `gorm:"not null"`
	PrecioUnitario decimal.Decimal                     `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal                     `gorm:"type:decimal(12,2);not null"`
	Abonado        decimal.Decimal                     `gorm:"type:decimal(12,2);not null;default:0"`
	Ganancia       *decimal.Decimal                    `gorm:"type:decimal(12,2)"`
	Asignaciones   datatypes.JSONSlice[AsignacionLote] `gorm:"type:jsonb"`
	CreatedAt      time.Time
}

// Pendiente is what the client still owes on the item.
func (it CreditoItem) Pendiente() decimal.Decimal { return it.Subtotal.Sub(it.Abonado) }
