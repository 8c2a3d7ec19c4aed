package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Retiro is money taken out of a payment bucket on a business date.
// Only withdrawals from "efectivo" lower the cash expected in the register.
type Retiro struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago   string          `gorm:"type:varchar(15);not null"`
	Motivo       string          `gorm:"not null"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	FechaNegocio string          `gorm:"type:varchar(10);not null;index"`
	CreatedAt    time.Time
}
