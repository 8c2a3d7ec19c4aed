package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Tipo de salida. A cotizacion never touches lots or stock until approved.
const (
	SalidaInventario = "salida"
	SalidaCotizacion = "cotizacion"
)

const (
	SalidaRegistrada = "registrada"
	SalidaPendiente  = "pendiente"
	SalidaAprobada   = "aprobada"
)

type Salida struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo          string          `gorm:"type:varchar(15);not null"`
	Estado        string          `gorm:"type:varchar(15);not null"`
	ClienteID     *uuid.UUID      `gorm:"type:uuid"`
	ClienteNombre string          `gorm:"not null"`
	Motivo        string          `gorm:"not null;default:''"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FechaNegocio  string          `gorm:"type:varchar(10);not null;index"`
	VentaID       *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []SalidaItem `gorm:"foreignKey:SalidaID"`
}

type SalidaItem struct {
	ID             uuid.UUID                           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SalidaID       uuid.UUID                           `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID                           `gorm:"type:uuid;not null"`
	Descripcion    string                              `gorm:"not null"`
	Cantidad       int                                 `gorm:"not null"`
	PrecioUnitario decimal.Decimal                     `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal                     `gorm:"type:decimal(12,2);not null"`
	Asignaciones   datatypes.JSONSlice[AsignacionLote] `gorm:"type:jsonb"`
}
