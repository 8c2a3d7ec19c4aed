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
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VentaService interface {
	RegistrarVenta(ctx context.Context, actor Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	RegistrarVentaCredito(ctx context.Context, actor Actor, req dto.RegistrarVentaCreditoRequest) (*dto.CreditoResponse, error)
	AnularVenta(ctx context.Context, actor Actor, id uuid.UUID, motivo string) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	ListarVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
}

type ventaService struct {
	repo     repository.VentaRepository
	creditos repository.CreditoRepository
	clientes repository.ClienteRepository
	cajaRepo repository.CajaRepository
	devRepo  repository.DevolucionRepository
	stock    MovimientoStock
	reloj    *Reloj
}

func NewVentaService(
	repo repository.VentaRepository,
	creditos repository.CreditoRepository,
	clientes repository.ClienteRepository,
	cajaRepo repository.CajaRepository,
	devRepo repository.DevolucionRepository,
	stock MovimientoStock,
	reloj *Reloj,
) VentaService {
	return &ventaService{
		repo:     repo,
		creditos: creditos,
		clientes: clientes,
		cajaRepo: cajaRepo,
		devRepo:  devRepo,
		stock:    stock,
		reloj:    reloj,
	}
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// One transaction:
//   1. Lock products and their lots, plan FIFO for every line (read phase)
//   2. Price lines, compute profit per item from the plan cost, check payments
//   3. Write lots and stock, then the sale with its items and payments

func (s *ventaService) RegistrarVenta(ctx context.Context, actor Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	if (req.MetodoPago == "") == (len(req.Pagos) == 0) {
		return nil, apierror.NewValidacion("metodo_pago", "indique metodo_pago o pagos, no ambos")
	}
	lineas, overrides, err := lineasDeItems(req.Items)
	if err != nil {
		return nil, err
	}
	clienteID, clienteNombre, err := resolverCliente(ctx, s.clientes, req.ClienteID)
	if err != nil {
		return nil, err
	}

	hoy := s.reloj.FechaNegocio()
	var venta model.Venta
	var op *operacionStock
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := fechaAbiertaTx(tx, s.cajaRepo, hoy); err != nil {
			return err
		}
		op, err = s.stock.planificarSalidaTx(tx, lineas)
		if err != nil {
			return err
		}

		items, total, ganancia := itemsVendidos(op, overrides)
		metodo, pagos, err := construirPagos(total, req.MetodoPago, req.Pagos)
		if err != nil {
			return err
		}

		if err := s.stock.aplicarTx(tx, op); err != nil {
			return err
		}
		numero, err := s.repo.NextNumeroTx(tx)
		if err != nil {
			return err
		}
		venta = model.Venta{
			Numero:        numero,
			ClienteID:     clienteID,
			ClienteNombre: clienteNombre,
			UsuarioID:     actor.UsuarioID,
			Tipo:          model.VentaDirecta,
			Estado:        model.VentaCompletada,
			Total:         total,
			MetodoPago:    metodo,
			Ganancia:      &ganancia,
			FechaNegocio:  hoy,
			Items:         items,
			Pagos:         pagos,
		}
		return s.repo.CreateTx(tx, &venta)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.stock.invalidar(ctx, op)

	log.Info().Int("numero", venta.Numero).Str("total", venta.Total.StringFixed(2)).Msg("venta registrada")
	return ventaToResponse(&venta), nil
}

// ── RegistrarVentaCredito ─────────────────────────────────────────────────────
// Same outflow as a POS sale, but the lines become pending credit items of
// the client and raise its cached balance instead of producing a sale.

func (s *ventaService) RegistrarVentaCredito(ctx context.Context, actor Actor, req dto.RegistrarVentaCreditoRequest) (*dto.CreditoResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, apierror.NewValidacion("cliente_id", "uuid inválido")
	}
	lineas, overrides, err := lineasDeItems(req.Items)
	if err != nil {
		return nil, err
	}

	var credito model.Credito
	var saldo decimal.Decimal
	var op *operacionStock
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		cliente, err := s.clientes.FindForUpdateTx(tx, clienteID)
		if err != nil {
			return noEncontrado(err, "cliente", clienteID)
		}
		if !cliente.Activo {
			return apierror.NewValidacion("cliente_id", "el cliente está inactivo")
		}
		op, err = s.stock.planificarSalidaTx(tx, lineas)
		if err != nil {
			return err
		}
		if err := s.stock.aplicarTx(tx, op); err != nil {
			return err
		}

		vendidos, total, _ := itemsVendidos(op, overrides)
		credito = model.Credito{
			ClienteID:    clienteID,
			UsuarioID:    actor.UsuarioID,
			Estado:       model.CreditoPendiente,
			Total:        total,
			FechaNegocio: s.reloj.FechaNegocio(),
		}
		for _, it := range vendidos {
			credito.Items = append(credito.Items, model.CreditoItem{
				ClienteID:      clienteID,
				ProductoID:     it.ProductoID,
				Descripcion:    it.Descripcion,
				Cantidad:       it.Cantidad,
				PrecioUnitario: it.PrecioUnitario,
				Subtotal:       it.Subtotal,
				Ganancia:       it.Ganancia,
				Asignaciones:   it.Asignaciones,
			})
		}
		if err := s.creditos.CreateTx(tx, &credito); err != nil {
			return err
		}
		// The new items are already in, so the live sum includes them.
		saldo, err = s.creditos.SumPendienteTx(tx, clienteID)
		if err != nil {
			return err
		}
		return s.clientes.UpdateSaldoTx(tx, clienteID, saldo)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.stock.invalidar(ctx, op)

	return creditoToResponse(&credito, saldo), nil
}

// ── AnularVenta ───────────────────────────────────────────────────────────────
// Voiding puts every unit back into exactly the lots its sale took it from.
// Refused for abonos and credit settlements (no stock moved), for sales with
// approved returns, for dates already closed, and when a lot has no room.

func (s *ventaService) AnularVenta(ctx context.Context, actor Actor, id uuid.UUID, motivo string) (*dto.VentaResponse, error) {
	var venta *model.Venta
	var op *operacionStock
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		v, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			return noEncontrado(err, "venta", id)
		}
		if v.Estado != model.VentaCompletada {
			return apierror.NewConflictoEstado("la venta #%d ya está %s", v.Numero, v.Estado)
		}
		if v.Tipo == model.VentaAbono || v.Tipo == model.VentaLiquidacionCredito {
			return apierror.NewConflictoEstado("una venta de tipo %s no se puede anular", v.Tipo)
		}
		if err := fechaAbiertaTx(tx, s.cajaRepo, v.FechaNegocio); err != nil {
			return err
		}
		devueltas, err := s.devRepo.CantidadesAprobadasTx(tx, v.ID)
		if err != nil {
			return err
		}
		if len(devueltas) > 0 {
			return apierror.NewConflictoEstado("la venta #%d tiene devoluciones aprobadas", v.Numero)
		}

		lineas := make([]lineaStock, 0, len(v.Items))
		for _, it := range v.Items {
			lineas = append(lineas, lineaStock{
				ProductoID:     it.ProductoID,
				Cantidad:       it.Cantidad,
				PrecioUnitario: it.PrecioUnitario,
				Original:       it.Asignaciones,
			})
		}
		if len(lineas) > 0 {
			op, err = s.stock.planificarRestauracionTx(tx, lineas)
			if err != nil {
				return err
			}
			if err := s.stock.aplicarTx(tx, op); err != nil {
				return err
			}
			ref := v.ID
			base := model.MovimientoLote{
				Tipo:         model.MovimientoAnulacion,
				ReferenciaID: &ref,
				UsuarioID:    actor.UsuarioID,
				Motivo:       fmt.Sprintf("Anulación venta #%d: %s", v.Numero, motivo),
			}
			if err := s.stock.registrarMovimientosTx(tx, op, base); err != nil {
				return err
			}
		}

		if err := s.repo.AnularTx(tx, v.ID, motivo); err != nil {
			return err
		}
		v.Estado = model.VentaAnulada
		v.MotivoAnulacion = &motivo
		venta = v
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	s.stock.invalidar(ctx, op)

	log.Info().Int("numero", venta.Numero).Str("usuario", actor.Nombre).Msg("venta anulada")
	return ventaToResponse(venta), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "venta", id)
	}
	return ventaToResponse(v), nil
}

// ListarVentas defaults to today's completed sales.
func (s *ventaService) ListarVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	filter.Page, filter.Limit = paginar(filter.Page, filter.Limit, 50)
	if filter.Fecha == "" {
		filter.Fecha = s.reloj.FechaNegocio()
	} else if err := validarFecha(filter.Fecha); err != nil {
		return nil, err
	}
	if filter.Estado == "" {
		filter.Estado = model.VentaCompletada
	}
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		data = append(data, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// resolverCliente returns the client id and name of a sale, or the walk-in
// customer when no client is given.
func resolverCliente(ctx context.Context, clientes repository.ClienteRepository, raw *string) (*uuid.UUID, string, error) {
	if raw == nil || *raw == "" {
		return nil, model.ClienteGeneral, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, "", apierror.NewValidacion("cliente_id", "uuid inválido")
	}
	c, err := clientes.FindByID(ctx, id)
	if err != nil {
		return nil, "", noEncontrado(err, "cliente", id)
	}
	return &id, c.Nombre, nil
}

// lineasDeItems parses the request lines before any I/O. The second result
// holds the price override of each line, nil when the catalog price applies.
func lineasDeItems(items []dto.ItemVentaRequest) ([]lineaStock, []*decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, nil, apierror.NewValidacion("items", "la venta no tiene ítems")
	}
	lineas := make([]lineaStock, 0, len(items))
	overrides := make([]*decimal.Decimal, 0, len(items))
	for i, it := range items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, nil, apierror.NewValidacion(fmt.Sprintf("items[%d].producto_id", i), "uuid inválido")
		}
		if it.Cantidad <= 0 {
			return nil, nil, apierror.NewValidacion(fmt.Sprintf("items[%d].cantidad", i), "debe ser mayor a cero")
		}
		if it.PrecioUnitario != nil && !it.PrecioUnitario.IsPositive() {
			return nil, nil, apierror.NewValidacion(fmt.Sprintf("items[%d].precio_unitario", i), "debe ser mayor a cero")
		}
		lineas = append(lineas, lineaStock{ProductoID: pid, Cantidad: it.Cantidad})
		overrides = append(overrides, it.PrecioUnitario)
	}
	return lineas, overrides, nil
}

// itemsVendidos prices every planned line and returns the items, the total
// and the sale profit (Σ subtotal − plan cost).
func itemsVendidos(op *operacionStock, overrides []*decimal.Decimal) ([]model.VentaItem, decimal.Decimal, decimal.Decimal) {
	items := make([]model.VentaItem, 0, len(op.Lineas))
	total := decimal.Zero
	ganancia := decimal.Zero
	for i, la := range op.Lineas {
		precio := la.Producto.PrecioVenta
		if i < len(overrides) && overrides[i] != nil {
			precio = *overrides[i]
		}
		subtotal := precio.Mul(decimal.NewFromInt(int64(la.Plan.Cantidad)))
		g := subtotal.Sub(la.Plan.Costo())
		items = append(items, model.VentaItem{
			ProductoID:     la.Producto.ID,
			Descripcion:    la.Producto.Nombre,
			Cantidad:       la.Plan.Cantidad,
			PrecioUnitario: precio,
			Subtotal:       subtotal,
			Ganancia:       &g,
			Asignaciones:   datatypes.JSONSlice[model.AsignacionLote](la.Plan.Asignaciones),
		})
		total = total.Add(subtotal)
		ganancia = ganancia.Add(g)
	}
	return items, total, ganancia
}

// construirPagos returns the stored payment method and breakdown. A single
// method carries the full total; mixed parts must add up to it exactly.
func construirPagos(total decimal.Decimal, metodo string, pagos []dto.PagoRequest) (string, []model.VentaPago, error) {
	if len(pagos) == 0 {
		return metodo, nil, nil
	}
	suma := decimal.Zero
	out := make([]model.VentaPago, 0, len(pagos))
	for _, p := range pagos {
		if !p.Monto.IsPositive() {
			return "", nil, apierror.NewValidacion("pagos", "cada pago debe ser mayor a cero")
		}
		suma = suma.Add(p.Monto)
		out = append(out, model.VentaPago{Metodo: p.Metodo, Monto: p.Monto})
	}
	if !suma.Equal(total) {
		return "", nil, apierror.NewValidacion("pagos",
			fmt.Sprintf("los pagos suman %s y el total es %s", suma.StringFixed(2), total.StringFixed(2)))
	}
	return model.MetodoMixto, out, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, dto.ItemVentaResponse{
			ProductoID:     it.ProductoID.String(),
			Producto:       it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
			Asignaciones:   asignacionesResponse(it.Asignaciones),
		})
	}
	pagos := make([]dto.PagoRequest, 0, len(v.Pagos))
	for _, p := range v.Pagos {
		pagos = append(pagos, dto.PagoRequest{Metodo: p.Metodo, Monto: p.Monto})
	}
	var clienteID *string
	if v.ClienteID != nil {
		id := v.ClienteID.String()
		clienteID = &id
	}
	return &dto.VentaResponse{
		ID:            v.ID.String(),
		Numero:        v.Numero,
		Tipo:          v.Tipo,
		Estado:        v.Estado,
		ClienteID:     clienteID,
		ClienteNombre: v.ClienteNombre,
		Total:         v.Total,
		MetodoPago:    v.MetodoPago,
		Pagos:         pagos,
		Items:         items,
		FechaNegocio:  v.FechaNegocio,
		CreatedAt:     v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func creditoToResponse(c *model.Credito, saldo decimal.Decimal) *dto.CreditoResponse {
	items := make([]dto.ItemVentaResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, dto.ItemVentaResponse{
			ProductoID:     it.ProductoID.String(),
			Producto:       it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
			Asignaciones:   asignacionesResponse(it.Asignaciones),
		})
	}
	return &dto.CreditoResponse{
		ID:        c.ID.String(),
		ClienteID: c.ClienteID.String(),
		Estado:    c.Estado,
		Total:     c.Total,
		Items:     items,
		Saldo:     saldo,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
