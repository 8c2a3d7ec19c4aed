package repository

import (
	"context"

	"gestormoto/internal/dto"
	"gestormoto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VentaRepository interface {
	CreateTx(tx *gorm.DB, v *model.Venta) error
	NextNumeroTx(tx *gorm.DB) (int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	AnularTx(tx *gorm.DB, id uuid.UUID, motivo string) error
	// ListByFechaTx returns every sale of a business date with items and payments.
	ListByFechaTx(tx *gorm.DB, fecha string) ([]model.Venta, error)
	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)
	DB() *gorm.DB
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Create(v).Error
}

func (r *ventaRepo) NextNumeroTx(tx *gorm.DB) (int, error) {
	var num int
	err := tx.Raw("SELECT nextval('ventas_numero_seq')").Scan(&num).Error
	return num, err
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items.Producto").Preload("Pagos").First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	err = tx.Where("venta_id = ?", id).Find(&v.Items).Error
	return &v, err
}

func (r *ventaRepo) AnularTx(tx *gorm.DB, id uuid.UUID, motivo string) error {
	return tx.Model(&model.Venta{}).Where("id = ?", id).Updates(map[string]interface{}{
		"estado":           model.VentaAnulada,
		"motivo_anulacion": motivo,
	}).Error
}

func (r *ventaRepo) ListByFechaTx(tx *gorm.DB, fecha string) ([]model.Venta, error) {
	var ventas []model.Venta
	err := tx.Preload("Items").Preload("Pagos").
		Where("fecha_negocio = ?", fecha).
		Order("numero ASC").
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Venta{})

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Fecha != "" {
		q = q.Where("fecha_negocio = ?", filter.Fecha)
	}
	return listarPagina[model.Venta](q, "numero DESC", filter.Page, filter.Limit, "Items.Producto", "Pagos")
}
