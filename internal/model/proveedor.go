package model

import (
	"time"

	"github.com/google/uuid"
)

// Proveedor is a parts supplier. RUC is the 11-digit Peruvian taxpayer id.
type Proveedor struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RazonSocial string    `gorm:"type:varchar(200);not null;index"`
	RUC         string    `gorm:"column:ruc;type:char(11);uniqueIndex;not null"`
	Telefono    *string   `gorm:"type:varchar(30)"`
	Email       *string   `gorm:"type:varchar(150)"`
	Direccion   *string
	Contacto    *string `gorm:"type:varchar(100)"`
	Activo      bool    `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Proveedor) TableName() string { return "proveedores" }
