package repository

import (
	"context"

	"gestormoto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IngresoRepository interface {
	CreateTx(tx *gorm.DB, i *model.Ingreso) error
	CreateItemsTx(tx *gorm.DB, items []model.IngresoItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ingreso, error)
	List(ctx context.Context, page, limit int) ([]model.Ingreso, int64, error)
}

type ingresoRepo struct{ db *gorm.DB }

func NewIngresoRepository(db *gorm.DB) IngresoRepository { return &ingresoRepo{db: db} }

// CreateTx stores the header only; items reference lots that are created
// afterwards and are inserted by the caller.
func (r *ingresoRepo) CreateTx(tx *gorm.DB, i *model.Ingreso) error {
	return tx.Omit("Items").Create(i).Error
}

func (r *ingresoRepo) CreateItemsTx(tx *gorm.DB, items []model.IngresoItem) error {
	return tx.Create(&items).Error
}

func (r *ingresoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Ingreso, error) {
	var i model.Ingreso
	err := r.db.WithContext(ctx).Preload("Items").First(&i, "id = ?", id).Error
	return &i, err
}

func (r *ingresoRepo) List(ctx context.Context, page, limit int) ([]model.Ingreso, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Ingreso{})
	return listarPagina[model.Ingreso](q, "created_at DESC", page, limit, "Items")
}
