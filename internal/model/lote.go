package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoteActivo  = "activo"
	LoteAgotado = "agotado"

	// PrefijoLoteLegado marks lots fabricated by the old return flow.
	PrefijoLoteLegado = "DEV-"
)

// Lote is one purchase lot of a product. 0 <= CantidadRestante <= CantidadOriginal
// always holds (also enforced by a check constraint). Lots are never deleted.
type Lote struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo           string          `gorm:"uniqueIndex;not null"`
	ProductoID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_lotes_producto_fecha,priority:1"`
	IngresoID        *uuid.UUID      `gorm:"type:uuid;index"`
	CantidadOriginal int             `gorm:"not null"`
	CantidadRestante int             `gorm:"not null"`
	CostoUnitario    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FechaIngreso     time.Time       `gorm:"not null;index:idx_lotes_producto_fecha,priority:2"`
	Estado           string          `gorm:"type:varchar(10);not null;default:'activo'"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Lote) TableName() string { return "lotes" }

// CapacidadLibre is how many units a restoration may still put back into the lot.
func (l *Lote) CapacidadLibre() int { return l.CantidadOriginal - l.CantidadRestante }

// AsignacionLote is one step of an executed allocation plan.
type AsignacionLote struct {
	LoteID        uuid.UUID       `json:"lote_id"`
	Codigo        string          `json:"codigo"`
	Cantidad      int             `json:"cantidad"`
	CostoUnitario decimal.Decimal `json:"costo_unitario"`
}

// CostoAsignaciones returns Σ cantidad × costo_unitario of a plan.
func CostoAsignaciones(plan []AsignacionLote) decimal.Decimal {
	total := decimal.Zero
	for _, a := range plan {
		total = total.Add(a.CostoUnitario.Mul(decimal.NewFromInt(int64(a.Cantidad))))
	}
	return total
}
