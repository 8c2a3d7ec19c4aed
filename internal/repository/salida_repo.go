package repository

import (
	"context"

	"gestormoto/internal/dto"
	"gestormoto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalidaRepository interface {
	CreateTx(tx *gorm.DB, s *model.Salida) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Salida, error)
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Salida, error)
	// AprobarTx links an approved quotation to its sale and stores the plans.
	AprobarTx(tx *gorm.DB, s *model.Salida) error
	List(ctx context.Context, filter dto.SalidaFilter) ([]model.Salida, int64, error)
}

type salidaRepo struct{ db *gorm.DB }

func NewSalidaRepository(db *gorm.DB) SalidaRepository { return &salidaRepo{db: db} }

func (r *salidaRepo) CreateTx(tx *gorm.DB, s *model.Salida) error {
	return tx.Create(s).Error
}

func (r *salidaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Salida, error) {
	var s model.Salida
	err := r.db.WithContext(ctx).Preload("Items").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *salidaRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Salida, error) {
	var s model.Salida
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	err = tx.Where("salida_id = ?", id).Find(&s.Items).Error
	return &s, err
}

func (r *salidaRepo) AprobarTx(tx *gorm.DB, s *model.Salida) error {
	err := tx.Model(&model.Salida{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"estado":   s.Estado,
		"venta_id": s.VentaID,
	}).Error
	if err != nil {
		return err
	}
	for i := range s.Items {
		err := tx.Model(&model.SalidaItem{}).Where("id = ?", s.Items[i].ID).
			Update("asignaciones", s.Items[i].Asignaciones).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *salidaRepo) List(ctx context.Context, filter dto.SalidaFilter) ([]model.Salida, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Salida{})
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	return listarPagina[model.Salida](q, "created_at DESC", filter.Page, filter.Limit, "Items")
}
