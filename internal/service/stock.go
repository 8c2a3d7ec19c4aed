package service

import (
	"context"
	"errors"
	"fmt"

	"gestormoto/internal/apierror"
	"gestormoto/internal/asignacion"
	"gestormoto/internal/dto"
	"gestormoto/internal/infra"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// lineaStock is a quantity of one product leaving or entering stock.
// Original, when set on a restoration, pins the units to the lots they left.
type lineaStock struct {
	ProductoID     uuid.UUID
	Cantidad       int
	PrecioUnitario decimal.Decimal
	Original       []model.AsignacionLote
}

// lineaAsignada is a line with its allocation plan.
type lineaAsignada struct {
	Producto model.Producto
	Plan     asignacion.Plan
}

// MovimientoStock moves units across lots and keeps productos.stock_actual in
// step with them. Planning locks the products and all their lots and computes
// every line on the locked snapshot; nothing is written until aplicarTx, so a
// line that does not fit leaves every lot untouched.
type MovimientoStock struct {
	productos   repository.ProductoRepository
	lotes       repository.LoteRepository
	movimientos repository.MovimientoLoteRepository
	cache       *infra.Cache
}

// NewMovimientoStock wires the repositories shared by every service that moves
// stock. cache may be nil.
func NewMovimientoStock(
	productos repository.ProductoRepository,
	lotes repository.LoteRepository,
	movimientos repository.MovimientoLoteRepository,
	cache *infra.Cache,
) MovimientoStock {
	return MovimientoStock{productos: productos, lotes: lotes, movimientos: movimientos, cache: cache}
}

// operacionStock is a planned movement over a locked snapshot.
type operacionStock struct {
	Lineas  []lineaAsignada
	precios []decimal.Decimal
	antes   []model.Lote
	despues []model.Lote
}

func idsDe(lineas []lineaStock) []uuid.UUID {
	vistos := make(map[uuid.UUID]bool, len(lineas))
	ids := make([]uuid.UUID, 0, len(lineas))
	for _, l := range lineas {
		if !vistos[l.ProductoID] {
			vistos[l.ProductoID] = true
			ids = append(ids, l.ProductoID)
		}
	}
	return ids
}

func (m MovimientoStock) bloquearTx(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]model.Producto, []model.Lote, error) {
	productos, err := m.productos.FindForUpdateTx(tx, ids)
	if err != nil {
		return nil, nil, err
	}
	porID := make(map[uuid.UUID]model.Producto, len(productos))
	for _, p := range productos {
		porID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := porID[id]; !ok {
			return nil, nil, apierror.NewNoEncontrado("producto", id)
		}
	}
	lotes, err := m.lotes.ListForUpdateTx(tx, ids)
	if err != nil {
		return nil, nil, err
	}
	return porID, lotes, nil
}

// planificarSalidaTx plans every line oldest lot first. The first short line
// aborts with its StockInsuficienteError.
func (m MovimientoStock) planificarSalidaTx(tx *gorm.DB, lineas []lineaStock) (*operacionStock, error) {
	productos, antes, err := m.bloquearTx(tx, idsDe(lineas))
	if err != nil {
		return nil, err
	}

	op := &operacionStock{antes: antes, despues: antes}
	for _, l := range lineas {
		p := productos[l.ProductoID]
		if !p.Activo {
			return nil, apierror.NewValidacion("producto_id", fmt.Sprintf("el producto %s está inactivo", p.Nombre))
		}
		plan, err := asignacion.FIFO(l.ProductoID, op.despues, l.Cantidad)
		if err != nil {
			var stockErr *apierror.StockInsuficienteError
			if errors.As(err, &stockErr) {
				stockErr.Producto = p.Nombre
			}
			return nil, err
		}
		op.despues = asignacion.AplicarSalida(op.despues, plan)
		op.Lineas = append(op.Lineas, lineaAsignada{Producto: p, Plan: plan})
		op.precios = append(op.precios, l.PrecioUnitario)
	}
	return op, nil
}

// planificarRestauracionTx plans putting every line back into existing lots:
// newest lot first, or into the exact lots of Original when the line carries
// one. A line that does not fit aborts with a CapacidadDevolucionError; there
// is no path that creates a lot for the excess.
func (m MovimientoStock) planificarRestauracionTx(tx *gorm.DB, lineas []lineaStock) (*operacionStock, error) {
	productos, antes, err := m.bloquearTx(tx, idsDe(lineas))
	if err != nil {
		return nil, err
	}

	op := &operacionStock{antes: antes, despues: antes}
	for _, l := range lineas {
		p := productos[l.ProductoID]
		var plan asignacion.Plan
		if len(l.Original) > 0 {
			plan, err = asignacion.Restaurar(l.ProductoID, op.despues, l.Original)
		} else {
			plan, err = asignacion.LIFO(l.ProductoID, op.despues, l.Cantidad)
		}
		if err != nil {
			var capErr *apierror.CapacidadDevolucionError
			if errors.As(err, &capErr) {
				capErr.Producto = p.Nombre
			}
			return nil, err
		}
		op.despues = asignacion.AplicarRestauracion(op.despues, plan)
		op.Lineas = append(op.Lineas, lineaAsignada{Producto: p, Plan: plan})
		op.precios = append(op.precios, l.PrecioUnitario)
	}
	return op, nil
}

// aplicarTx persists the lots whose remainder changed and applies the net
// change per product to stock_actual, so the cached stock always equals the
// sum of lot remainders.
func (m MovimientoStock) aplicarTx(tx *gorm.DB, op *operacionStock) error {
	delta := make(map[uuid.UUID]int)
	var orden []uuid.UUID
	for i := range op.despues {
		d := op.despues[i].CantidadRestante - op.antes[i].CantidadRestante
		if d == 0 {
			continue
		}
		if err := m.lotes.UpdateRestanteTx(tx, &op.despues[i]); err != nil {
			return err
		}
		if _, ok := delta[op.despues[i].ProductoID]; !ok {
			orden = append(orden, op.despues[i].ProductoID)
		}
		delta[op.despues[i].ProductoID] += d
	}
	for _, id := range orden {
		if delta[id] == 0 {
			continue
		}
		if err := m.productos.UpdateStockTx(tx, id, delta[id]); err != nil {
			return err
		}
	}
	return nil
}

// registrarMovimientosTx records one MovimientoLote per lot a restoration
// touched, copying tipo, referencia, usuario and motivo from base.
func (m MovimientoStock) registrarMovimientosTx(tx *gorm.DB, op *operacionStock, base model.MovimientoLote) error {
	restante := make(map[uuid.UUID]int, len(op.antes))
	for _, l := range op.antes {
		restante[l.ID] = l.CantidadRestante
	}
	for i, la := range op.Lineas {
		for _, a := range la.Plan.Asignaciones {
			mov := base
			mov.LoteID = a.LoteID
			mov.ProductoID = la.Plan.ProductoID
			mov.Cantidad = a.Cantidad
			mov.RestanteAnterior = restante[a.LoteID]
			mov.RestanteNuevo = restante[a.LoteID] + a.Cantidad
			mov.CostoUnitario = a.CostoUnitario
			mov.GananciaRevertida = op.precios[i].Sub(a.CostoUnitario).Mul(decimal.NewFromInt(int64(a.Cantidad)))
			restante[a.LoteID] = mov.RestanteNuevo
			if err := m.movimientos.CreateTx(tx, &mov); err != nil {
				return err
			}
		}
	}
	return nil
}

// invalidar drops the cached price lookups of the products an operation moved.
func (m MovimientoStock) invalidar(ctx context.Context, op *operacionStock) {
	if op == nil {
		return
	}
	claves := make([]string, 0, len(op.Lineas))
	for _, la := range op.Lineas {
		claves = append(claves, claveConsulta(la.Producto.Codigo))
	}
	if err := m.cache.Delete(ctx, claves...); err != nil {
		log.Warn().Err(err).Msg("no se pudo invalidar la caché de consulta de precios")
	}
}

func asignacionesResponse(plan []model.AsignacionLote) []dto.AsignacionResponse {
	out := make([]dto.AsignacionResponse, 0, len(plan))
	for _, a := range plan {
		out = append(out, dto.AsignacionResponse{
			LoteID:        a.LoteID.String(),
			Codigo:        a.Codigo,
			Cantidad:      a.Cantidad,
			CostoUnitario: a.CostoUnitario,
		})
	}
	return out
}
