package repository

import (
	"context"
	"strings"

	"gestormoto/internal/dto"
	"gestormoto/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	ListBajoStock(ctx context.Context) ([]model.Producto, error)
	Update(ctx context.Context, p *model.Producto) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Used inside transactions, callers must pass the tx instance.
	// FindForUpdateTx locks the rows in id order so concurrent outflows over
	// the same products always acquire locks in the same sequence.
	FindForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Producto, error)
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error
	UpdatePrecioCompraTx(tx *gorm.DB, id uuid.UUID, precio decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Take(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Take(&p, "codigo = ? AND activo", codigo).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Producto{}).Scopes(
		porEstado(filter.Activo),
		igual("codigo", filter.Codigo),
		contiene("nombre", filter.Nombre),
		contiene("marca", filter.Marca),
		igual("categoria", filter.Categoria),
		igual("proveedor_id", filter.ProveedorID),
		terminoLibre(filter.Q),
	)
	if filter.BajoStock {
		q = q.Where("stock_actual <= stock_minimo")
	}
	return listarPagina[model.Producto](q, "nombre ASC, codigo ASC", filter.Page, filter.Limit)
}

// porEstado: "false" lists inactive products, "all" every product, anything
// else the active ones.
func porEstado(activo string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		switch activo {
		case "all":
			return q
		case "false":
			return q.Where("NOT activo")
		}
		return q.Where("activo")
	}
}

func igual(col, v string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if v == "" {
			return q
		}
		return q.Where(clause.Eq{Column: clause.Column{Name: col}, Value: v})
	}
}

func contiene(col, v string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if v == "" {
			return q
		}
		return q.Where(col+" ILIKE ?", "%"+v+"%")
	}
}

// terminoLibre matches the counter search box: a code prefix, or part of the
// name or brand.
func terminoLibre(v string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		v = strings.TrimSpace(v)
		if v == "" {
			return q
		}
		like := "%" + v + "%"
		return q.Where("codigo ILIKE ? OR nombre ILIKE ? OR marca ILIKE ?", v+"%", like, like)
	}
}

func (r *productoRepo) ListBajoStock(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo AND stock_actual <= stock_minimo").
		Order("stock_actual ASC, nombre ASC").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	// stock_actual is owned by the lot operations and never saved from here
	return r.db.WithContext(ctx).Omit("stock_actual", "created_at").Save(p).Error
}

func (r *productoRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Producto{ID: id}).Update("activo", false).Error
}

func (r *productoRepo) FindForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).
		Update("stock_actual", gorm.Expr("stock_actual + ?", delta)).Error
}

func (r *productoRepo) UpdatePrecioCompraTx(tx *gorm.DB, id uuid.UUID, precio decimal.Decimal) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).Update("precio_compra", precio).Error
}

func (r *productoRepo) DB() *gorm.DB { return r.db }
