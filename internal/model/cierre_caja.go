package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CierreCaja freezes the totals of one business date. The date is the primary
// key, so a date can be closed at most once; rows are never updated.
type CierreCaja struct {
	Fecha             string                                         `gorm:"type:varchar(10);primaryKey"`
	PorMetodo         datatypes.JSONType[map[string]decimal.Decimal] `gorm:"type:jsonb;not null"`
	CantidadVentas    int                                            `gorm:"not null"`
	GananciaBruta     decimal.Decimal                                `gorm:"type:decimal(12,2);not null"`
	GananciaReal      decimal.Decimal                                `gorm:"type:decimal(12,2);not null"`
	MetodoCalculo     string                                         `gorm:"type:varchar(15);not null"`
	TotalAbonos       decimal.Decimal                                `gorm:"type:decimal(12,2);not null"`
	TotalRetiros      decimal.Decimal                                `gorm:"type:decimal(12,2);not null"`
	TotalDevoluciones decimal.Decimal                                `gorm:"type:decimal(12,2);not null"`
	EfectivoFinal     decimal.Decimal                                `gorm:"type:decimal(12,2);not null"`
	Retiros           datatypes.JSONSlice[ResumenRetiro]             `gorm:"type:jsonb"`
	Ventas            datatypes.JSONSlice[ResumenVenta]              `gorm:"type:jsonb"`
	CerradoPor        uuid.UUID                                      `gorm:"type:uuid;not null"`
	CerradoPorNombre  string                                         `gorm:"not null"`
	CerradoAt         time.Time                                      `gorm:"not null"`
}

func (CierreCaja) TableName() string { return "cierres_caja" }

// CajaDia is written by the closure of a date and by every transaction that
// posts money to it. Two of them running at once update the same row, so
// under REPEATABLE READ the later one fails with a serialization error and
// is retried with a snapshot that includes the other.
type CajaDia struct {
	Fecha       string `gorm:"type:varchar(10);primaryKey"`
	Movimientos int64  `gorm:"not null;default:0"`
	UpdatedAt   time.Time
}

func (CajaDia) TableName() string { return "caja_dias" }

type ResumenVenta struct {
	VentaID        uuid.UUID       `json:"venta_id"`
	Numero         int             `json:"numero"`
	Tipo           string          `json:"tipo"`
	Cliente        string          `json:"cliente"`
	MetodoPago     string          `json:"metodo_pago"`
	Total          decimal.Decimal `json:"total"`
	Ganancia       decimal.Decimal `json:"ganancia"`
	FuenteGanancia string          `json:"fuente_ganancia"`
}

type ResumenRetiro struct {
	RetiroID   uuid.UUID       `json:"retiro_id"`
	Monto      decimal.Decimal `json:"monto"`
	MetodoPago string          `json:"metodo_pago"`
	Motivo     string          `json:"motivo"`
	Hora       string          `json:"hora"`
}
