package infra

import (
	"fmt"

	"gestormoto/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (sequences, check constraints, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Modelos lists every table managed by AutoMigrate, parents first.
var Modelos = []interface{}{
	&model.Usuario{},
	&model.Proveedor{},
	&model.Producto{},
	&model.Cliente{},
	&model.Ingreso{},
	&model.Lote{},
	&model.IngresoItem{},
	&model.Venta{},
	&model.VentaItem{},
	&model.VentaPago{},
	&model.Credito{},
	&model.CreditoItem{},
	&model.Devolucion{},
	&model.DevolucionItem{},
	&model.Retiro{},
	&model.CierreCaja{},
	&model.CajaDia{},
	&model.Salida{},
	&model.SalidaItem{},
	&model.MovimientoLote{},
	&model.HistorialPrecio{},
}

// RunMigrations creates or updates the schema. Used at startup and by the
// integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(Modelos...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own. Each statement uses IF NOT EXISTS semantics so re-running
// on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// sale numbers come from a sequence so concurrent checkouts never collide
		`CREATE SEQUENCE IF NOT EXISTS ventas_numero_seq START 1`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_lotes_restante') THEN
		    ALTER TABLE lotes ADD CONSTRAINT chk_lotes_restante
		        CHECK (cantidad_restante >= 0 AND cantidad_restante <= cantidad_original);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_productos_stock') THEN
		    ALTER TABLE productos ADD CONSTRAINT chk_productos_stock CHECK (stock_actual >= 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_credito_items_abonado') THEN
		    ALTER TABLE credito_items ADD CONSTRAINT chk_credito_items_abonado
		        CHECK (abonado >= 0 AND abonado <= subtotal);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_clientes_saldo') THEN
		    ALTER TABLE clientes ADD CONSTRAINT chk_clientes_saldo CHECK (saldo_pendiente >= 0);
		  END IF;
		END $$`,
		// FIFO scans only touch lots that still have units
		`CREATE INDEX IF NOT EXISTS idx_lotes_disponibles
		    ON lotes (producto_id, fecha_ingreso)
		    WHERE cantidad_restante > 0`,
		`CREATE INDEX IF NOT EXISTS idx_devoluciones_pendientes
		    ON devoluciones (created_at)
		    WHERE estado = 'solicitada'`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
