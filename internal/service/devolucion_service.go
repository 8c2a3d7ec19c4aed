package service

import (
	"context"
	"fmt"

	"gestormoto/internal/apierror"
	"gestormoto/internal/dto"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DevolucionService drives the returns state machine:
// solicitada → aprobada | rechazada, both terminal.
type DevolucionService interface {
	Solicitar(ctx context.Context, actor Actor, req dto.SolicitarDevolucionRequest) (*dto.DevolucionResponse, error)
	Aprobar(ctx context.Context, actor Actor, id uuid.UUID) (*dto.DevolucionResponse, error)
	Rechazar(ctx context.Context, actor Actor, id uuid.UUID, motivo string) (*dto.DevolucionResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.DevolucionResponse, error)
	Listar(ctx context.Context, filter dto.DevolucionFilter) (*dto.DevolucionListResponse, error)
}

type devolucionService struct {
	repo     repository.DevolucionRepository
	ventas   repository.VentaRepository
	cajaRepo repository.CajaRepository
	stock    MovimientoStock
	reloj    *Reloj
}

func NewDevolucionService(
	repo repository.DevolucionRepository,
	ventas repository.VentaRepository,
	cajaRepo repository.CajaRepository,
	stock MovimientoStock,
	reloj *Reloj,
) DevolucionService {
	return &devolucionService{repo: repo, ventas: ventas, cajaRepo: cajaRepo, stock: stock, reloj: reloj}
}

// vendido is what a sale delivered of one product.
type vendido struct {
	cantidad int
	precio   decimal.Decimal
}

func vendidosPorProducto(v *model.Venta) map[uuid.UUID]vendido {
	out := make(map[uuid.UUID]vendido, len(v.Items))
	for _, it := range v.Items {
		prev, ok := out[it.ProductoID]
		if !ok {
			prev.precio = it.PrecioUnitario
		}
		prev.cantidad += it.Cantidad
		out[it.ProductoID] = prev
	}
	return out
}

func validarDevolucionDeVenta(v *model.Venta) error {
	if v.Estado != model.VentaCompletada {
		return apierror.NewConflictoEstado("la venta #%d está %s", v.Numero, v.Estado)
	}
	if v.Tipo == model.VentaAbono {
		return apierror.NewConflictoEstado("un abono no admite devoluciones")
	}
	return nil
}

// ── Solicitar ─────────────────────────────────────────────────────────────────

func (s *devolucionService) Solicitar(ctx context.Context, actor Actor, req dto.SolicitarDevolucionRequest) (*dto.DevolucionResponse, error) {
	ventaID, err := uuid.Parse(req.VentaID)
	if err != nil {
		return nil, apierror.NewValidacion("venta_id", "uuid inválido")
	}
	if len(req.Items) == 0 {
		return nil, apierror.NewValidacion("items", "la devolución no tiene ítems")
	}
	pedidos := make(map[uuid.UUID]int, len(req.Items))
	var orden []uuid.UUID
	for i, it := range req.Items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, apierror.NewValidacion(fmt.Sprintf("items[%d].producto_id", i), "uuid inválido")
		}
		if it.Cantidad <= 0 {
			return nil, apierror.NewValidacion(fmt.Sprintf("items[%d].cantidad", i), "debe ser mayor a cero")
		}
		if _, ok := pedidos[pid]; !ok {
			orden = append(orden, pid)
		}
		pedidos[pid] += it.Cantidad
	}

	venta, err := s.ventas.FindByID(ctx, ventaID)
	if err != nil {
		return nil, noEncontrado(err, "venta", ventaID)
	}
	if err := validarDevolucionDeVenta(venta); err != nil {
		return nil, err
	}

	var dev model.Devolucion
	txErr := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		aprobadas, err := s.repo.CantidadesAprobadasTx(tx, ventaID)
		if err != nil {
			return err
		}
		vendidos := vendidosPorProducto(venta)

		dev = model.Devolucion{
			VentaID:        ventaID,
			Estado:         model.DevolucionSolicitada,
			Motivo:         req.Motivo,
			SolicitadoPor:  actor.UsuarioID,
			MontoReembolso: decimal.Zero,
		}
		for _, pid := range orden {
			v, ok := vendidos[pid]
			if !ok {
				return apierror.NewValidacion("items", fmt.Sprintf("el producto %s no está en la venta", pid))
			}
			if pedidos[pid] > v.cantidad-aprobadas[pid] {
				return apierror.NewValidacion("items", fmt.Sprintf(
					"se vendieron %d unidades de %s y ya se devolvieron %d", v.cantidad, pid, aprobadas[pid]))
			}
			dev.Items = append(dev.Items, model.DevolucionItem{
				ProductoID:     pid,
				Cantidad:       pedidos[pid],
				PrecioUnitario: v.precio,
			})
			dev.MontoReembolso = dev.MontoReembolso.Add(v.precio.Mul(decimal.NewFromInt(int64(pedidos[pid]))))
		}
		return s.repo.CreateTx(tx, &dev)
	})
	if txErr != nil {
		return nil, txErr
	}
	return devolucionToResponse(&dev), nil
}

// ── Aprobar ───────────────────────────────────────────────────────────────────
// One transaction:
//   1. Lock the return, require estado solicitada
//   2. Re-check quantities against the sale and the returns approved meanwhile
//   3. Lock products and lots, plan LIFO for every item (read phase)
//   4. Write lots, stock, one movement per lot and the aprobada status
// An item without room in the existing lots rejects the whole return.

func (s *devolucionService) Aprobar(ctx context.Context, actor Actor, id uuid.UUID) (*dto.DevolucionResponse, error) {
	if err := actor.requiereAdmin(); err != nil {
		return nil, err
	}

	var dev *model.Devolucion
	var op *operacionStock
	txErr := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		d, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			return noEncontrado(err, "devolucion", id)
		}
		if d.Estado != model.DevolucionSolicitada {
			return apierror.NewConflictoEstado("la devolución ya fue %s", d.Estado)
		}
		hoy := s.reloj.FechaNegocio()
		if err := fechaAbiertaTx(tx, s.cajaRepo, hoy); err != nil {
			return err
		}

		venta, err := s.ventas.FindForUpdateTx(tx, d.VentaID)
		if err != nil {
			return noEncontrado(err, "venta", d.VentaID)
		}
		if err := validarDevolucionDeVenta(venta); err != nil {
			return err
		}
		aprobadas, err := s.repo.CantidadesAprobadasTx(tx, d.VentaID)
		if err != nil {
			return err
		}
		vendidos := vendidosPorProducto(venta)

		lineas := make([]lineaStock, 0, len(d.Items))
		for _, it := range d.Items {
			if it.Cantidad > vendidos[it.ProductoID].cantidad-aprobadas[it.ProductoID] {
				return apierror.NewConflictoEstado("otra devolución aprobada ya cubre las unidades de %s", it.ProductoID)
			}
			lineas = append(lineas, lineaStock{
				ProductoID:     it.ProductoID,
				Cantidad:       it.Cantidad,
				PrecioUnitario: it.PrecioUnitario,
			})
		}

		op, err = s.stock.planificarRestauracionTx(tx, lineas)
		if err != nil {
			return err
		}
		if err := s.stock.aplicarTx(tx, op); err != nil {
			return err
		}
		ref := d.ID
		base := model.MovimientoLote{
			Tipo:         model.MovimientoDevolucion,
			ReferenciaID: &ref,
			UsuarioID:    actor.UsuarioID,
			Motivo:       d.Motivo,
		}
		if err := s.stock.registrarMovimientosTx(tx, op, base); err != nil {
			return err
		}

		for i := range d.Items {
			plan := op.Lineas[i].Plan
			costo := plan.Costo()
			cantidad := decimal.NewFromInt(int64(plan.Cantidad))
			d.Items[i].CostoUnitario = costo.Div(cantidad).Round(2)
			d.Items[i].GananciaRevertida = d.Items[i].PrecioUnitario.Mul(cantidad).Sub(costo)
			d.Items[i].Asignaciones = plan.Asignaciones
		}
		ahora := s.reloj.Ahora()
		d.Estado = model.DevolucionAprobada
		d.MetodoReembolso = model.MetodoDeReembolso(venta.MetodoPago)
		d.ProcesadoPor = &actor.UsuarioID
		d.ProcesadoAt = &ahora
		d.FechaNegocio = hoy
		if err := s.repo.ProcesarTx(tx, d); err != nil {
			return err
		}
		dev = d
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	s.stock.invalidar(ctx, op)

	log.Info().Str("devolucion_id", id.String()).Str("reembolso", dev.MontoReembolso.StringFixed(2)).
		Msg("devolución aprobada")
	return devolucionToResponse(dev), nil
}

// ── Rechazar ──────────────────────────────────────────────────────────────────

func (s *devolucionService) Rechazar(ctx context.Context, actor Actor, id uuid.UUID, motivo string) (*dto.DevolucionResponse, error) {
	if err := actor.requiereAdmin(); err != nil {
		return nil, err
	}
	if len(motivo) < 3 {
		return nil, apierror.NewValidacion("motivo", "indique el motivo del rechazo")
	}

	var dev *model.Devolucion
	txErr := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		d, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			return noEncontrado(err, "devolucion", id)
		}
		if d.Estado != model.DevolucionSolicitada {
			return apierror.NewConflictoEstado("la devolución ya fue %s", d.Estado)
		}
		ahora := s.reloj.Ahora()
		d.Estado = model.DevolucionRechazada
		d.MotivoRechazo = &motivo
		d.ProcesadoPor = &actor.UsuarioID
		d.ProcesadoAt = &ahora
		d.FechaNegocio = s.reloj.FechaNegocio()
		if err := s.repo.ProcesarTx(tx, d); err != nil {
			return err
		}
		dev = d
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return devolucionToResponse(dev), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *devolucionService) Obtener(ctx context.Context, id uuid.UUID) (*dto.DevolucionResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "devolucion", id)
	}
	return devolucionToResponse(d), nil
}

func (s *devolucionService) Listar(ctx context.Context, filter dto.DevolucionFilter) (*dto.DevolucionListResponse, error) {
	filter.Page, filter.Limit = paginar(filter.Page, filter.Limit, 50)
	devs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.DevolucionResponse, 0, len(devs))
	for i := range devs {
		data = append(data, *devolucionToResponse(&devs[i]))
	}
	return &dto.DevolucionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func devolucionToResponse(d *model.Devolucion) *dto.DevolucionResponse {
	items := make([]dto.ItemDevolucionResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, dto.ItemDevolucionResponse{
			ProductoID:        it.ProductoID.String(),
			Cantidad:          it.Cantidad,
			PrecioUnitario:    it.PrecioUnitario,
			CostoUnitario:     it.CostoUnitario,
			GananciaRevertida: it.GananciaRevertida,
			Asignaciones:      asignacionesResponse(it.Asignaciones),
		})
	}
	var procesado *string
	if d.ProcesadoAt != nil {
		p := d.ProcesadoAt.Format("2006-01-02T15:04:05Z07:00")
		procesado = &p
	}
	return &dto.DevolucionResponse{
		ID:              d.ID.String(),
		VentaID:         d.VentaID.String(),
		Estado:          d.Estado,
		Motivo:          d.Motivo,
		MotivoRechazo:   d.MotivoRechazo,
		MontoReembolso:  d.MontoReembolso,
		MetodoReembolso: d.MetodoReembolso,
		FechaNegocio:    d.FechaNegocio,
		Items:           items,
		CreatedAt:       d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		ProcesadoAt:     procesado,
	}
}
