package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Estado de devolucion: solicitada → aprobada | rechazada. Both outcomes are terminal.
const (
	DevolucionSolicitada = "solicitada"
	DevolucionAprobada   = "aprobada"
	DevolucionRechazada  = "rechazada"
)

type Devolucion struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Estado         string     `gorm:"type:varchar(15);not null;default:'solicitada'"`
	Motivo         string     `gorm:"not null"`
	SolicitadoPor  uuid.UUID  `gorm:"type:uuid;not null"`
	ProcesadoPor   *uuid.UUID `gorm:"type:uuid"`
	MotivoRechazo  *string
	MontoReembolso decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// MetodoReembolso is set on approval; see MetodoDeReembolso.
	MetodoReembolso string `gorm:"type:varchar(15)"`
	// FechaNegocio is the business date the return was processed on; empty while pending.
	FechaNegocio string `gorm:"type:varchar(10);index"`
	CreatedAt    time.Time
	ProcesadoAt  *time.Time

	Items []DevolucionItem `gorm:"foreignKey:DevolucionID"`
}

func (Devolucion) TableName() string { return "devoluciones" }

// MetodoDeReembolso is how a refund is paid out: by the method the sale was
// paid with, or in cash when it was split across methods or predates the
// field.
func MetodoDeReembolso(metodoVenta string) string {
	if metodoVenta == "" || metodoVenta == MetodoMixto {
		return MetodoEfectivo
	}
	return metodoVenta
}

type DevolucionItem struct {
	ID                uuid.UUID                           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DevolucionID      uuid.UUID                           `gorm:"type:uuid;not null;index"`
	ProductoID        uuid.UUID                           `gorm:"type:uuid;not null"`
	Cantidad          int                                 `gorm:"not null"`
	PrecioUnitario    decimal.Decimal                     `gorm:"type:decimal(12,2);not null"`
	CostoUnitario     decimal.Decimal                     `gorm:"type:decimal(12,2);not null"`
	GananciaRevertida decimal.Decimal                     `gorm:"type:decimal(12,2);not null"`
	Asignaciones      datatypes.JSONSlice[AsignacionLote] `gorm:"type:jsonb"`
}
