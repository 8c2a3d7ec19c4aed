package repository

import (
	"context"

	"gestormoto/internal/dto"
	"gestormoto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DevolucionRepository interface {
	CreateTx(tx *gorm.DB, d *model.Devolucion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Devolucion, error)
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Devolucion, error)
	// ProcesarTx persists the outcome of a return: status, processor, refund,
	// business date and the executed restoration plans of its items.
	ProcesarTx(tx *gorm.DB, d *model.Devolucion) error
	// CantidadesAprobadasTx sums approved returned units per product of a sale.
	CantidadesAprobadasTx(tx *gorm.DB, ventaID uuid.UUID) (map[uuid.UUID]int, error)
	ListAprobadasByFechaTx(tx *gorm.DB, fecha string) ([]model.Devolucion, error)
	List(ctx context.Context, filter dto.DevolucionFilter) ([]model.Devolucion, int64, error)
}

type devolucionRepo struct{ db *gorm.DB }

func NewDevolucionRepository(db *gorm.DB) DevolucionRepository { return &devolucionRepo{db: db} }

func (r *devolucionRepo) CreateTx(tx *gorm.DB, d *model.Devolucion) error {
	return tx.Create(d).Error
}

func (r *devolucionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Devolucion, error) {
	var d model.Devolucion
	err := r.db.WithContext(ctx).Preload("Items").First(&d, "id = ?", id).Error
	return &d, err
}

func (r *devolucionRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Devolucion, error) {
	var d model.Devolucion
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	err = tx.Where("devolucion_id = ?", id).Find(&d.Items).Error
	return &d, err
}

func (r *devolucionRepo) ProcesarTx(tx *gorm.DB, d *model.Devolucion) error {
	err := tx.Model(&model.Devolucion{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"estado":           d.Estado,
		"procesado_por":    d.ProcesadoPor,
		"motivo_rechazo":   d.MotivoRechazo,
		"monto_reembolso":  d.MontoReembolso,
		"metodo_reembolso": d.MetodoReembolso,
		"fecha_negocio":    d.FechaNegocio,
		"procesado_at":     d.ProcesadoAt,
	}).Error
	if err != nil {
		return err
	}
	for i := range d.Items {
		it := &d.Items[i]
		err := tx.Model(&model.DevolucionItem{}).Where("id = ?", it.ID).Updates(map[string]interface{}{
			"costo_unitario":     it.CostoUnitario,
			"ganancia_revertida": it.GananciaRevertida,
			"asignaciones":       it.Asignaciones,
		}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *devolucionRepo) CantidadesAprobadasTx(tx *gorm.DB, ventaID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		ProductoID uuid.UUID
		Cantidad   int
	}
	err := tx.Model(&model.DevolucionItem{}).
		Select("devolucion_items.producto_id, SUM(devolucion_items.cantidad) AS cantidad").
		Joins("JOIN devoluciones d ON d.id = devolucion_items.devolucion_id").
		Where("d.venta_id = ? AND d.estado = ?", ventaID, model.DevolucionAprobada).
		Group("devolucion_items.producto_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.ProductoID] = row.Cantidad
	}
	return out, nil
}

func (r *devolucionRepo) ListAprobadasByFechaTx(tx *gorm.DB, fecha string) ([]model.Devolucion, error) {
	var devs []model.Devolucion
	err := tx.Where("fecha_negocio = ? AND estado = ?", fecha, model.DevolucionAprobada).
		Order("procesado_at ASC").
		Find(&devs).Error
	return devs, err
}

func (r *devolucionRepo) List(ctx context.Context, filter dto.DevolucionFilter) ([]model.Devolucion, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Devolucion{})
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.VentaID != "" {
		q = q.Where("venta_id = ?", filter.VentaID)
	}
	return listarPagina[model.Devolucion](q, "created_at DESC", filter.Page, filter.Limit, "Items")
}
