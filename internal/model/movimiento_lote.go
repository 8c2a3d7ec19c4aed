package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MovimientoDevolucion = "devolucion"
	MovimientoAnulacion  = "anulacion"
)

// MovimientoLote records every unit put back into a lot, one row per lot touched.
type MovimientoLote struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LoteID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo              string          `gorm:"type:varchar(15);not null"`
	Cantidad          int             `gorm:"not null"`
	RestanteAnterior  int             `gorm:"not null"`
	RestanteNuevo     int             `gorm:"not null"`
	CostoUnitario     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	GananciaRevertida decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ReferenciaID      *uuid.UUID      `gorm:"type:uuid"` // devolucion_id or venta_id
	UsuarioID         uuid.UUID       `gorm:"type:uuid;not null"`
	Motivo            string
	CreatedAt         time.Time

	Lote *Lote `gorm:"foreignKey:LoteID"`
}

func (MovimientoLote) TableName() string { return "movimientos_lote" }
