package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Tipo de venta
const (
	VentaDirecta            = "directa"
	VentaLiquidacionCredito = "liquidacion_credito"
	VentaCotizacionAprobada = "cotizacion_aprobada"
	VentaAbono              = "abono"
)

// Estado de venta. completada → anulada is one-way.
const (
	VentaCompletada = "completada"
	VentaAnulada    = "anulada"
)

const (
	MetodoEfectivo      = "efectivo"
	MetodoTarjeta       = "tarjeta"
	MetodoYape          = "yape"
	MetodoPlin          = "plin"
	MetodoTransferencia = "transferencia"
	MetodoMixto         = "mixto"

	ClienteGeneral = "Cliente general"
)

// MetodosPago lists the buckets reported by the daily aggregation, cash first.
var MetodosPago = []string{MetodoEfectivo, MetodoTarjeta, MetodoYape, MetodoPlin, MetodoTransferencia}

type Venta struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero        int             `gorm:"uniqueIndex;not null"`
	ClienteID     *uuid.UUID      `gorm:"type:uuid;index"`
	ClienteNombre string          `gorm:"not null"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null"`
	Tipo          string          `gorm:"type:varchar(25);not null"`
	Estado        string          `gorm:"type:varchar(15);not null;default:'completada'"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// MetodoPago is the single method, or "mixto" when Pagos holds the breakdown.
	MetodoPago string `gorm:"type:varchar(15);not null"`
	// Ganancia is the precomputed profit; nil on legacy records.
	Ganancia        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	FechaNegocio    string           `gorm:"type:varchar(10);not null;index"`
	ReferenciaID    *uuid.UUID       `gorm:"type:uuid"`
	MotivoAnulacion *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []VentaItem `gorm:"foreignKey:VentaID"`
	Pagos []VentaPago `gorm:"foreignKey:VentaID"`
}

type VentaItem struct {
	ID             uuid.UUID                           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID                           `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID                           `gorm:"type:uuid;not null;index"`
	Descripcion    string                              `gorm:"not null"`
	Cantidad       int                                 `gorm:"not null"`
	PrecioUnitario decimal.Decimal                     `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal                     `gorm:"type:decimal(12,2);not null"`
	Ganancia       *decimal.Decimal                    `gorm:"type:decimal(12,2)"`
	Asignaciones   datatypes.JSONSlice[AsignacionLote] `gorm:"type:jsonb"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

type VentaPago struct {
	ID      uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Metodo  string          `gorm:"type:varchar(15);not null"`
	Monto   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
