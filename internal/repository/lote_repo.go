package repository

import (
	"context"

	"gestormoto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoteRepository interface {
	CreateTx(tx *gorm.DB, l *model.Lote) error
	// ListForUpdateTx locks every lot of the given products, exhausted ones
	// included, since returns may refill them.
	ListForUpdateTx(tx *gorm.DB, productoIDs []uuid.UUID) ([]model.Lote, error)
	// UpdateRestanteTx persists cantidad_restante and estado of l.
	UpdateRestanteTx(tx *gorm.DB, l *model.Lote) error
	ListByProducto(ctx context.Context, productoID uuid.UUID, soloActivos bool) ([]model.Lote, error)
	ListByPrefijo(ctx context.Context, prefijo string) ([]model.Lote, error)
}

type loteRepo struct{ db *gorm.DB }

func NewLoteRepository(db *gorm.DB) LoteRepository { return &loteRepo{db: db} }

func (r *loteRepo) CreateTx(tx *gorm.DB, l *model.Lote) error {
	return tx.Create(l).Error
}

func (r *loteRepo) ListForUpdateTx(tx *gorm.DB, productoIDs []uuid.UUID) ([]model.Lote, error) {
	var lotes []model.Lote
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("producto_id IN ?", productoIDs).
		Order("producto_id, fecha_ingreso, created_at, id").
		Find(&lotes).Error
	return lotes, err
}

func (r *loteRepo) UpdateRestanteTx(tx *gorm.DB, l *model.Lote) error {
	return tx.Model(&model.Lote{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"cantidad_restante": l.CantidadRestante,
		"estado":            l.Estado,
	}).Error
}

func (r *loteRepo) ListByProducto(ctx context.Context, productoID uuid.UUID, soloActivos bool) ([]model.Lote, error) {
	q := r.db.WithContext(ctx).Where("producto_id = ?", productoID)
	if soloActivos {
		q = q.Where("cantidad_restante > 0")
	}
	var lotes []model.Lote
	err := q.Order("fecha_ingreso ASC, created_at ASC").Find(&lotes).Error
	return lotes, err
}

func (r *loteRepo) ListByPrefijo(ctx context.Context, prefijo string) ([]model.Lote, error) {
	var lotes []model.Lote
	err := r.db.WithContext(ctx).
		Where("codigo LIKE ?", prefijo+"%").
		Order("producto_id, fecha_ingreso").
		Find(&lotes).Error
	return lotes, err
}
