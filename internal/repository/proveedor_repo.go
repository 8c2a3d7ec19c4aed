package repository

import (
	"context"

	"gestormoto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProveedorRepository interface {
	Create(ctx context.Context, p *model.Proveedor) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error)
	// FindByRUC matches inactive suppliers too; the RUC stays reserved.
	FindByRUC(ctx context.Context, ruc string) (*model.Proveedor, error)
	// Buscar lists active suppliers whose name contains termino or whose RUC
	// starts with it. An empty termino lists them all.
	Buscar(ctx context.Context, termino string) ([]model.Proveedor, error)
	Update(ctx context.Context, p *model.Proveedor) error
	Desactivar(ctx context.Context, id uuid.UUID) error
	ProductosActivos(ctx context.Context, id uuid.UUID) (int64, error)
}

type proveedorRepo struct{ db *gorm.DB }

func NewProveedorRepository(db *gorm.DB) ProveedorRepository { return &proveedorRepo{db: db} }

func (r *proveedorRepo) Create(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *proveedorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error) {
	var p model.Proveedor
	err := r.db.WithContext(ctx).Take(&p, "id = ?", id).Error
	return &p, err
}

func (r *proveedorRepo) FindByRUC(ctx context.Context, ruc string) (*model.Proveedor, error) {
	var p model.Proveedor
	err := r.db.WithContext(ctx).Take(&p, "ruc = ?", ruc).Error
	return &p, err
}

func (r *proveedorRepo) Buscar(ctx context.Context, termino string) ([]model.Proveedor, error) {
	q := r.db.WithContext(ctx).Where("activo")
	if termino != "" {
		q = q.Where("razon_social ILIKE ? OR ruc LIKE ?", "%"+termino+"%", termino+"%")
	}
	var out []model.Proveedor
	err := q.Order("razon_social").Find(&out).Error
	return out, err
}

func (r *proveedorRepo) Update(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *proveedorRepo) Desactivar(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Proveedor{}).Where("id = ? AND activo", id).Update("activo", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *proveedorRepo) ProductosActivos(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("proveedor_id = ? AND activo", id).
		Count(&n).Error
	return n, err
}
