package repository

import (
	"context"

	"gestormoto/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	List(ctx context.Context, buscar string) ([]model.Cliente, error)
	Update(ctx context.Context, c *model.Cliente) error
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Cliente, error)
	UpdateSaldoTx(tx *gorm.DB, id uuid.UUID, saldo decimal.Decimal) error
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) List(ctx context.Context, buscar string) ([]model.Cliente, error) {
	q := r.db.WithContext(ctx).Where("activo = true")
	if buscar != "" {
		q = q.Where("nombre ILIKE ? OR documento = ?", "%"+buscar+"%", buscar)
	}
	var clientes []model.Cliente
	err := q.Order("nombre ASC").Limit(200).Find(&clientes).Error
	return clientes, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	// saldo_pendiente only changes inside credit transactions
	return r.db.WithContext(ctx).Omit("saldo_pendiente", "created_at").Save(c).Error
}

func (r *clienteRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) UpdateSaldoTx(tx *gorm.DB, id uuid.UUID, saldo decimal.Decimal) error {
	return tx.Model(&model.Cliente{}).Where("id = ?", id).Update("saldo_pendiente", saldo).Error
}
