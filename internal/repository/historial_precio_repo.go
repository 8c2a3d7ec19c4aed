package repository

import (
	"context"

	"gestormoto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistorialPrecioRepository stores purchase-cost changes. Rows are never
// updated; the table is an append-only log.
type HistorialPrecioRepository interface {
	CreateTx(tx *gorm.DB, h *model.HistorialPrecio) error
	ListByProducto(ctx context.Context, productoID uuid.UUID, page, limit int) ([]model.HistorialPrecio, int64, error)
}

type historialPrecioRepo struct{ db *gorm.DB }

func NewHistorialPrecioRepository(db *gorm.DB) HistorialPrecioRepository {
	return &historialPrecioRepo{db: db}
}

func (r *historialPrecioRepo) CreateTx(tx *gorm.DB, h *model.HistorialPrecio) error {
	return tx.Create(h).Error
}

func (r *historialPrecioRepo) ListByProducto(ctx context.Context, productoID uuid.UUID, page, limit int) ([]model.HistorialPrecio, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.HistorialPrecio{}).Where("producto_id = ?", productoID)
	// Several changes can land in the same ingreso; id breaks the tie.
	return listarPagina[model.HistorialPrecio](q, "created_at DESC, id DESC", page, limit)
}
