// Package asignacion plans how stock moves across the purchase lots of a product.
//
// Outflows consume lots oldest first (FIFO). Restorations refill lots newest
// first (LIFO) and only up to each lot's original quantity; a restoration that
// does not fit is rejected whole and no lot is ever created for the excess.
// The visiting order decides which cost basis attaches to which sale, so it is
// part of the contract.
//
// All functions are pure: they take a snapshot of lots and return a plan or a
// new snapshot. Persisting the result is the caller's job.
package asignacion

import (
	"slices"
	"strings"

	"gestormoto/internal/apierror"
	"gestormoto/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan is the lot-by-lot result of an allocation for one product.
type Plan struct {
	ProductoID   uuid.UUID
	Cantidad     int
	Asignaciones []model.AsignacionLote
}

// Costo returns Σ cantidad × costo_unitario over the plan.
func (p Plan) Costo() decimal.Decimal { return model.CostoAsignaciones(p.Asignaciones) }

// compararIngreso orders lots by intake time, then creation time, then id, so
// that lots received at the same instant still have a stable order.
func compararIngreso(a, b model.Lote) int {
	if c := a.FechaIngreso.Compare(b.FechaIngreso); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

func delProducto(productoID uuid.UUID, lotes []model.Lote) []model.Lote {
	out := make([]model.Lote, 0, len(lotes))
	for _, l := range lotes {
		if l.ProductoID == productoID {
			out = append(out, l)
		}
	}
	return out
}

// ── FIFO ──────────────────────────────────────────────────────────────────────

// FIFO plans an outflow of cantidad units of productoID, taking from the oldest
// lots with remaining stock first. When the lots cannot cover the request it
// returns *apierror.StockInsuficienteError with the shortfall and no plan.
func FIFO(productoID uuid.UUID, lotes []model.Lote, cantidad int) (Plan, error) {
	if cantidad <= 0 {
		return Plan{}, apierror.NewValidacion("cantidad", "debe ser mayor a cero")
	}

	candidatos := delProducto(productoID, lotes)
	slices.SortStableFunc(candidatos, compararIngreso)

	plan := Plan{ProductoID: productoID, Cantidad: cantidad}
	pendiente := cantidad
	for _, l := range candidatos {
		if pendiente == 0 {
			break
		}
		if l.CantidadRestante <= 0 {
			continue
		}
		tomar := min(pendiente, l.CantidadRestante)
		plan.Asignaciones = append(plan.Asignaciones, model.AsignacionLote{
			LoteID:        l.ID,
			Codigo:        l.Codigo,
			Cantidad:      tomar,
			CostoUnitario: l.CostoUnitario,
		})
		pendiente -= tomar
	}

	if pendiente > 0 {
		return Plan{}, &apierror.StockInsuficienteError{
			ProductoID: productoID,
			Solicitado: cantidad,
			Disponible: cantidad - pendiente,
			Faltante:   pendiente,
		}
	}
	return plan, nil
}

// ── LIFO ──────────────────────────────────────────────────────────────────────

// LIFO plans the restoration of cantidad units into the existing lots of
// productoID, newest intake first, never above a lot's original quantity.
// If the spare capacity of all lots is not enough it returns
// *apierror.CapacidadDevolucionError with the excess and the per-lot capacity
// breakdown. There is no fallback that creates a lot.
func LIFO(productoID uuid.UUID, lotes []model.Lote, cantidad int) (Plan, error) {
	if cantidad <= 0 {
		return Plan{}, apierror.NewValidacion("cantidad", "debe ser mayor a cero")
	}

	candidatos := delProducto(productoID, lotes)
	slices.SortStableFunc(candidatos, func(a, b model.Lote) int { return compararIngreso(b, a) })

	plan := Plan{ProductoID: productoID, Cantidad: cantidad}
	var desglose []apierror.CapacidadLote
	pendiente := cantidad
	for _, l := range candidatos {
		capacidad := l.CapacidadLibre()
		if capacidad <= 0 {
			continue
		}
		desglose = append(desglose, apierror.CapacidadLote{LoteID: l.ID, Codigo: l.Codigo, Capacidad: capacidad})
		if pendiente == 0 {
			continue
		}
		tomar := min(pendiente, capacidad)
		plan.Asignaciones = append(plan.Asignaciones, model.AsignacionLote{
			LoteID:        l.ID,
			Codigo:        l.Codigo,
			Cantidad:      tomar,
			CostoUnitario: l.CostoUnitario,
		})
		pendiente -= tomar
	}

	if pendiente > 0 {
		return Plan{}, &apierror.CapacidadDevolucionError{
			ProductoID: productoID,
			Solicitado: cantidad,
			Asignable:  cantidad - pendiente,
			Excedente:  pendiente,
			Desglose:   desglose,
		}
	}
	return plan, nil
}

// Restaurar plans putting units back into exactly the lots listed in a
// previously executed outflow plan (used when a sale is voided). Every lot must
// still have room for the units it gave.
func Restaurar(productoID uuid.UUID, lotes []model.Lote, original []model.AsignacionLote) (Plan, error) {
	porID := make(map[uuid.UUID]model.Lote, len(lotes))
	for _, l := range lotes {
		porID[l.ID] = l
	}

	plan := Plan{ProductoID: productoID}
	asignable := 0
	var desglose []apierror.CapacidadLote
	for _, a := range original {
		plan.Cantidad += a.Cantidad
		l, ok := porID[a.LoteID]
		if !ok {
			return Plan{}, apierror.NewNoEncontrado("lote", a.LoteID)
		}
		capacidad := l.CapacidadLibre()
		desglose = append(desglose, apierror.CapacidadLote{LoteID: l.ID, Codigo: l.Codigo, Capacidad: capacidad})
		asignable += min(capacidad, a.Cantidad)
		plan.Asignaciones = append(plan.Asignaciones, model.AsignacionLote{
			LoteID:        l.ID,
			Codigo:        l.Codigo,
			Cantidad:      a.Cantidad,
			CostoUnitario: l.CostoUnitario,
		})
	}

	if asignable < plan.Cantidad {
		return Plan{}, &apierror.CapacidadDevolucionError{
			ProductoID: productoID,
			Solicitado: plan.Cantidad,
			Asignable:  asignable,
			Excedente:  plan.Cantidad - asignable,
			Desglose:   desglose,
		}
	}
	return plan, nil
}

// ── Snapshots ─────────────────────────────────────────────────────────────────

// AplicarSalida returns a copy of lotes with the plan subtracted. Lots that
// reach zero become agotado.
func AplicarSalida(lotes []model.Lote, plan Plan) []model.Lote {
	return aplicar(lotes, plan, -1)
}

// AplicarRestauracion returns a copy of lotes with the plan added back. Touched
// lots become activo.
func AplicarRestauracion(lotes []model.Lote, plan Plan) []model.Lote {
	return aplicar(lotes, plan, 1)
}

func aplicar(lotes []model.Lote, plan Plan, signo int) []model.Lote {
	delta := make(map[uuid.UUID]int, len(plan.Asignaciones))
	for _, a := range plan.Asignaciones {
		delta[a.LoteID] += a.Cantidad * signo
	}
	out := make([]model.Lote, len(lotes))
	for i, l := range lotes {
		if d, ok := delta[l.ID]; ok {
			l.CantidadRestante += d
			l.Estado = EstadoPara(l)
		}
		out[i] = l
	}
	return out
}

// EstadoPara derives the lifecycle state from the remaining quantity.
func EstadoPara(l model.Lote) string {
	if l.CantidadRestante == 0 {
		return model.LoteAgotado
	}
	return model.LoteActivo
}

// Disponible returns Σ remaining over the lots of a product.
func Disponible(productoID uuid.UUID, lotes []model.Lote) int {
	total := 0
	for _, l := range lotes {
		if l.ProductoID == productoID {
			total += l.CantidadRestante
		}
	}
	return total
}
