package repository

import (
	"context"

	"gestormoto/internal/dto"
	"gestormoto/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CajaRepository stores withdrawals and closures, the two records that make
// up the cash register of a business date.
type CajaRepository interface {
	CreateRetiroTx(tx *gorm.DB, r *model.Retiro) error
	ListRetirosTx(tx *gorm.DB, fecha string) ([]model.Retiro, error)

	// CreateCierreTx inserts the closure unless one exists for the date and
	// reports whether this call created it.
	CreateCierreTx(tx *gorm.DB, c *model.CierreCaja) (bool, error)
	ExisteCierreTx(tx *gorm.DB, fecha string) (bool, error)
	// TocarDiaTx upserts the caja_dias row of the date. Closures and money
	// movements both call it so that they conflict with each other.
	TocarDiaTx(tx *gorm.DB, fecha string) error
	FindCierre(ctx context.Context, fecha string) (*model.CierreCaja, error)
	ListCierres(ctx context.Context, filter dto.CierreFilter) ([]model.CierreCaja, error)
	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) CreateRetiroTx(tx *gorm.DB, ret *model.Retiro) error {
	return tx.Create(ret).Error
}

func (r *cajaRepo) ListRetirosTx(tx *gorm.DB, fecha string) ([]model.Retiro, error) {
	var retiros []model.Retiro
	err := tx.Where("fecha_negocio = ?", fecha).Order("created_at ASC").Find(&retiros).Error
	return retiros, err
}

func (r *cajaRepo) CreateCierreTx(tx *gorm.DB, c *model.CierreCaja) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(c)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *cajaRepo) ExisteCierreTx(tx *gorm.DB, fecha string) (bool, error) {
	var n int64
	err := tx.Model(&model.CierreCaja{}).Where("fecha = ?", fecha).Count(&n).Error
	return n > 0, err
}

func (r *cajaRepo) TocarDiaTx(tx *gorm.DB, fecha string) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fecha"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"movimientos": gorm.Expr("caja_dias.movimientos + 1"),
			"updated_at":  gorm.Expr("now()"),
		}),
	}).Create(&model.CajaDia{Fecha: fecha, Movimientos: 1}).Error
}

func (r *cajaRepo) FindCierre(ctx context.Context, fecha string) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).First(&c, "fecha = ?", fecha).Error
	return &c, err
}

func (r *cajaRepo) ListCierres(ctx context.Context, filter dto.CierreFilter) ([]model.CierreCaja, error) {
	q := r.db.WithContext(ctx).Model(&model.CierreCaja{})
	if filter.Desde != "" {
		q = q.Where("fecha >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("fecha <= ?", filter.Hasta)
	}
	var cierres []model.CierreCaja
	err := q.Order("fecha DESC").Limit(filter.Limit).Find(&cierres).Error
	return cierres, err
}
