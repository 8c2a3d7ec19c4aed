package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gestormoto/internal/apierror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Actor is the authenticated user an operation runs on behalf of.
type Actor struct {
	UsuarioID uuid.UUID
	Nombre    string
	EsAdmin   bool
}

func (a Actor) requiereAdmin() error {
	if !a.EsAdmin {
		return apierror.ErrNoAutorizado
	}
	return nil
}

// Reloj yields the current instant and the business date in the shop's timezone.
type Reloj struct {
	loc   *time.Location
	ahora func() time.Time
}

func NewReloj(loc *time.Location) *Reloj {
	if loc == nil {
		loc = time.Local
	}
	return &Reloj{loc: loc, ahora: time.Now}
}

func (r *Reloj) Ahora() time.Time { return r.ahora().In(r.loc) }

// FechaNegocio is today's business date as YYYY-MM-DD.
func (r *Reloj) FechaNegocio() string { return r.Ahora().Format(formatoFecha) }

const formatoFecha = "2006-01-02"

func validarFecha(fecha string) error {
	if _, err := time.Parse(formatoFecha, fecha); err != nil {
		return apierror.NewValidacion("fecha", "formato esperado YYYY-MM-DD")
	}
	return nil
}

// ── Transactions ──────────────────────────────────────────────────────────────

var (
	txMaxIntentos = 3
	txEsperaBase  = 25 * time.Millisecond
)

// SetTxMaxIntentos sets how many times a transaction is attempted when
// Postgres reports a serialization failure or a deadlock.
func SetTxMaxIntentos(n int) {
	if n > 0 {
		txMaxIntentos = n
	}
}

// runTx executes fn inside a REPEATABLE READ transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode). The whole closure
// is re-run on transient conflicts; business errors are returned as they are.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	return reintentarTransitorio(ctx, txMaxIntentos, func() error {
		return db.WithContext(ctx).Transaction(fn, opts)
	})
}

func reintentarTransitorio(ctx context.Context, maxIntentos int, fn func() error) error {
	var err error
	for intento := 1; intento <= maxIntentos; intento++ {
		err = fn()
		if err == nil || !esConflictoTransitorio(err) {
			return err
		}
		log.Warn().Err(err).Int("intento", intento).Msg("conflicto transitorio, reintentando transacción")
		if intento == maxIntentos {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(txEsperaBase << (intento - 1)):
		}
	}
	return &apierror.ConflictoTransitorioError{Causa: err}
}

// esConflictoTransitorio reports serialization failures (40001) and deadlocks (40P01).
func esConflictoTransitorio(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// noEncontrado turns gorm's missing-row error into the domain NotFound error.
func noEncontrado(err error, recurso string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NewNoEncontrado(recurso, id)
	}
	return err
}

func paginar(page, limit, defecto int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defecto
	}
	return page, limit
}
