package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cliente is a customer that may buy on credit.
// SaldoPendiente is a cached figure; the live balance is the sum of the
// client's unresolved credit items.
type Cliente struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre         string    `gorm:"not null"`
	Documento      *string   `gorm:"uniqueIndex"`
	Telefono       *string
	Direccion      *string
	SaldoPendiente decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Activo         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
