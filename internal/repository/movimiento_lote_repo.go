package repository

import (
	"context"

	"gestormoto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoLoteFilter narrows the restoration audit trail. Nil fields match
// every row.
type MovimientoLoteFilter struct {
	ProductoID   *uuid.UUID
	LoteID       *uuid.UUID
	ReferenciaID *uuid.UUID
	Tipo         string
	Page         int
	Limit        int
}

type MovimientoLoteRepository interface {
	CreateTx(tx *gorm.DB, m *model.MovimientoLote) error
	List(ctx context.Context, filter MovimientoLoteFilter) ([]model.MovimientoLote, int64, error)
}

type movimientoLoteRepo struct{ db *gorm.DB }

func NewMovimientoLoteRepository(db *gorm.DB) MovimientoLoteRepository {
	return &movimientoLoteRepo{db: db}
}

func (r *movimientoLoteRepo) CreateTx(tx *gorm.DB, m *model.MovimientoLote) error {
	return tx.Create(m).Error
}

func (r *movimientoLoteRepo) List(ctx context.Context, filter MovimientoLoteFilter) ([]model.MovimientoLote, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoLote{})
	if filter.ProductoID != nil {
		q = q.Where("producto_id = ?", *filter.ProductoID)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.LoteID != nil {
		q = q.Where("lote_id = ?", *filter.LoteID)
	}
	if filter.ReferenciaID != nil {
		q = q.Where("referencia_id = ?", *filter.ReferenciaID)
	}
	return listarPagina[model.MovimientoLote](q, "created_at DESC, id DESC", filter.Page, filter.Limit, "Lote")
}
