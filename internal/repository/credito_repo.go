package repository

import (
	"context"

	"gestormoto/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreditoRepository interface {
	CreateTx(tx *gorm.DB, c *model.Credito) error
	FindItemsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.CreditoItem, error)
	DeleteItemsTx(tx *gorm.DB, ids []uuid.UUID) error
	// LiquidarVaciosTx marks as liquidado the given credits that have no items left.
	LiquidarVaciosTx(tx *gorm.DB, creditoIDs []uuid.UUID) error
	// SumPendienteTx is the live balance: subtotal minus abonado over the
	// client's remaining items.
	SumPendienteTx(tx *gorm.DB, clienteID uuid.UUID) (decimal.Decimal, error)
	// PendientesForUpdateTx locks the client's items that still owe money,
	// oldest first.
	PendientesForUpdateTx(tx *gorm.DB, clienteID uuid.UUID) ([]model.CreditoItem, error)
	UpdateAbonadoTx(tx *gorm.DB, items []model.CreditoItem) error
	ListItemsByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.CreditoItem, error)
}

type creditoRepo struct{ db *gorm.DB }

func NewCreditoRepository(db *gorm.DB) CreditoRepository { return &creditoRepo{db: db} }

func (r *creditoRepo) CreateTx(tx *gorm.DB, c *model.Credito) error {
	return tx.Create(c).Error
}

func (r *creditoRepo) FindItemsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.CreditoItem, error) {
	var items []model.CreditoItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("created_at ASC, id").
		Find(&items).Error
	return items, err
}

func (r *creditoRepo) DeleteItemsTx(tx *gorm.DB, ids []uuid.UUID) error {
	return tx.Where("id IN ?", ids).Delete(&model.CreditoItem{}).Error
}

func (r *creditoRepo) LiquidarVaciosTx(tx *gorm.DB, creditoIDs []uuid.UUID) error {
	return tx.Model(&model.Credito{}).
		Where("id IN ?", creditoIDs).
		Where("NOT EXISTS (SELECT 1 FROM credito_items ci WHERE ci.credito_id = creditos.id)").
		Update("estado", model.CreditoLiquidado).Error
}

func (r *creditoRepo) SumPendienteTx(tx *gorm.DB, clienteID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&model.CreditoItem{}).
		Select("SUM(subtotal - abonado)").
		Where("cliente_id = ?", clienteID).
		Scan(&total).Error
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}

func (r *creditoRepo) PendientesForUpdateTx(tx *gorm.DB, clienteID uuid.UUID) ([]model.CreditoItem, error) {
	var items []model.CreditoItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cliente_id = ? AND abonado < subtotal", clienteID).
		Order("created_at ASC, id").
		Find(&items).Error
	return items, err
}

func (r *creditoRepo) UpdateAbonadoTx(tx *gorm.DB, items []model.CreditoItem) error {
	for _, it := range items {
		err := tx.Model(&model.CreditoItem{}).Where("id = ?", it.ID).
			Update("abonado", it.Abonado).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *creditoRepo) ListItemsByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.CreditoItem, error) {
	var items []model.CreditoItem
	err := r.db.WithContext(ctx).
		Where("cliente_id = ?", clienteID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}
