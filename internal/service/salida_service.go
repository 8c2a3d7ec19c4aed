package service

import (
	"context"

	"gestormoto/internal/apierror"
	"gestormoto/internal/dto"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalidaService registers inventory outflows and quotations. An outflow runs
// FIFO like a sale but produces no revenue. A quotation only records the
// quoted lines; it reads and writes no lot until it is approved, at which
// point FIFO runs and a cotizacion_aprobada sale is created.
type SalidaService interface {
	RegistrarSalida(ctx context.Context, actor Actor, req dto.RegistrarSalidaRequest) (*dto.SalidaResponse, error)
	AprobarCotizacion(ctx context.Context, actor Actor, id uuid.UUID, req dto.AprobarCotizacionRequest) (*dto.VentaResponse, error)
	ObtenerSalida(ctx context.Context, id uuid.UUID) (*dto.SalidaResponse, error)
	ListarSalidas(ctx context.Context, filter dto.SalidaFilter) (*dto.SalidaListResponse, error)
}

type salidaService struct {
	repo     repository.SalidaRepository
	ventas   repository.VentaRepository
	clientes repository.ClienteRepository
	cajaRepo repository.CajaRepository
	stock    MovimientoStock
	reloj    *Reloj
}

func NewSalidaService(
	repo repository.SalidaRepository,
	ventas repository.VentaRepository,
	clientes repository.ClienteRepository,
	cajaRepo repository.CajaRepository,
	stock MovimientoStock,
	reloj *Reloj,
) SalidaService {
	return &salidaService{repo: repo, ventas: ventas, clientes: clientes, cajaRepo: cajaRepo, stock: stock, reloj: reloj}
}

// ── RegistrarSalida ───────────────────────────────────────────────────────────

func (s *salidaService) RegistrarSalida(ctx context.Context, actor Actor, req dto.RegistrarSalidaRequest) (*dto.SalidaResponse, error) {
	if req.Tipo != model.SalidaInventario && req.Tipo != model.SalidaCotizacion {
		return nil, apierror.NewValidacion("tipo", "use salida o cotizacion")
	}
	items := make([]dto.ItemVentaRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, dto.ItemVentaRequest{ProductoID: it.ProductoID, Cantidad: it.Cantidad, PrecioUnitario: it.PrecioUnitario})
	}
	lineas, overrides, err := lineasDeItems(items)
	if err != nil {
		return nil, err
	}
	clienteID, clienteNombre, err := resolverCliente(ctx, s.clientes, req.ClienteID)
	if err != nil {
		return nil, err
	}

	salida := model.Salida{
		Tipo:          req.Tipo,
		ClienteID:     clienteID,
		ClienteNombre: clienteNombre,
		Motivo:        req.Motivo,
		UsuarioID:     actor.UsuarioID,
		FechaNegocio:  s.reloj.FechaNegocio(),
	}

	if req.Tipo == model.SalidaCotizacion {
		if err := s.cotizar(ctx, &salida, lineas, overrides); err != nil {
			return nil, err
		}
		return salidaToResponse(&salida), nil
	}

	var op *operacionStock
	txErr := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		var err error
		op, err = s.stock.planificarSalidaTx(tx, lineas)
		if err != nil {
			return err
		}
		if err := s.stock.aplicarTx(tx, op); err != nil {
			return err
		}
		vendidos, total, _ := itemsVendidos(op, overrides)
		salida.Estado = model.SalidaRegistrada
		salida.Total = total
		salida.Items = salidaItems(vendidos)
		return s.repo.CreateTx(tx, &salida)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.stock.invalidar(ctx, op)

	log.Info().Str("salida_id", salida.ID.String()).Int("items", len(salida.Items)).Msg("salida registrada")
	return salidaToResponse(&salida), nil
}

// cotizar prices the lines from the catalog without locking or reading lots.
func (s *salidaService) cotizar(ctx context.Context, salida *model.Salida, lineas []lineaStock, overrides []*decimal.Decimal) error {
	salida.Estado = model.SalidaPendiente
	salida.Total = decimal.Zero
	for i, l := range lineas {
		p, err := s.stock.productos.FindByID(ctx, l.ProductoID)
		if err != nil {
			return noEncontrado(err, "producto", l.ProductoID)
		}
		precio := p.PrecioVenta
		if overrides[i] != nil {
			precio = *overrides[i]
		}
		subtotal := precio.Mul(decimal.NewFromInt(int64(l.Cantidad)))
		salida.Items = append(salida.Items, model.SalidaItem{
			ProductoID:     p.ID,
			Descripcion:    p.Nombre,
			Cantidad:       l.Cantidad,
			PrecioUnitario: precio,
			Subtotal:       subtotal,
		})
		salida.Total = salida.Total.Add(subtotal)
	}
	return runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		return s.repo.CreateTx(tx, salida)
	})
}

// ── AprobarCotizacion ─────────────────────────────────────────────────────────
// The quoted prices are kept; lots are allocated at approval time, so the
// cost basis is that of the lots available when the sale really happens.

func (s *salidaService) AprobarCotizacion(ctx context.Context, actor Actor, id uuid.UUID, req dto.AprobarCotizacionRequest) (*dto.VentaResponse, error) {
	if req.MetodoPago == "" {
		return nil, apierror.NewValidacion("metodo_pago", "requerido")
	}

	hoy := s.reloj.FechaNegocio()
	var venta model.Venta
	var op *operacionStock
	txErr := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		sal, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			return noEncontrado(err, "salida", id)
		}
		if sal.Tipo != model.SalidaCotizacion {
			return apierror.NewConflictoEstado("la salida %s no es una cotización", id)
		}
		if sal.Estado != model.SalidaPendiente {
			return apierror.NewConflictoEstado("la cotización ya está %s", sal.Estado)
		}
		if err := fechaAbiertaTx(tx, s.cajaRepo, hoy); err != nil {
			return err
		}

		lineas := make([]lineaStock, 0, len(sal.Items))
		overrides := make([]*decimal.Decimal, 0, len(sal.Items))
		for i := range sal.Items {
			lineas = append(lineas, lineaStock{ProductoID: sal.Items[i].ProductoID, Cantidad: sal.Items[i].Cantidad})
			overrides = append(overrides, &sal.Items[i].PrecioUnitario)
		}
		op, err = s.stock.planificarSalidaTx(tx, lineas)
		if err != nil {
			return err
		}
		if err := s.stock.aplicarTx(tx, op); err != nil {
			return err
		}

		items, total, ganancia := itemsVendidos(op, overrides)
		numero, err := s.ventas.NextNumeroTx(tx)
		if err != nil {
			return err
		}
		venta = model.Venta{
			Numero:        numero,
			ClienteID:     sal.ClienteID,
			ClienteNombre: sal.ClienteNombre,
			UsuarioID:     actor.UsuarioID,
			Tipo:          model.VentaCotizacionAprobada,
			Estado:        model.VentaCompletada,
			Total:         total,
			MetodoPago:    req.MetodoPago,
			Ganancia:      &ganancia,
			FechaNegocio:  hoy,
			ReferenciaID:  &sal.ID,
			Items:         items,
		}
		if err := s.ventas.CreateTx(tx, &venta); err != nil {
			return err
		}

		sal.Estado = model.SalidaAprobada
		sal.VentaID = &venta.ID
		for i := range sal.Items {
			sal.Items[i].Asignaciones = items[i].Asignaciones
		}
		return s.repo.AprobarTx(tx, sal)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.stock.invalidar(ctx, op)

	log.Info().Str("salida_id", id.String()).Int("venta", venta.Numero).Msg("cotización aprobada")
	return ventaToResponse(&venta), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *salidaService) ObtenerSalida(ctx context.Context, id uuid.UUID) (*dto.SalidaResponse, error) {
	sal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "salida", id)
	}
	return salidaToResponse(sal), nil
}

func (s *salidaService) ListarSalidas(ctx context.Context, filter dto.SalidaFilter) (*dto.SalidaListResponse, error) {
	filter.Page, filter.Limit = paginar(filter.Page, filter.Limit, 50)
	salidas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SalidaResponse, 0, len(salidas))
	for i := range salidas {
		data = append(data, *salidaToResponse(&salidas[i]))
	}
	return &dto.SalidaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func salidaItems(vendidos []model.VentaItem) []model.SalidaItem {
	out := make([]model.SalidaItem, 0, len(vendidos))
	for _, it := range vendidos {
		out = append(out, model.SalidaItem{
			ProductoID:     it.ProductoID,
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
			Asignaciones:   it.Asignaciones,
		})
	}
	return out
}

func salidaToResponse(s *model.Salida) *dto.SalidaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.ItemVentaResponse{
			ProductoID:     it.ProductoID.String(),
			Producto:       it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
			Asignaciones:   asignacionesResponse(it.Asignaciones),
		})
	}
	var ventaID *string
	if s.VentaID != nil {
		v := s.VentaID.String()
		ventaID = &v
	}
	return &dto.SalidaResponse{
		ID:            s.ID.String(),
		Tipo:          s.Tipo,
		Estado:        s.Estado,
		ClienteNombre: s.ClienteNombre,
		Motivo:        s.Motivo,
		Total:         s.Total,
		FechaNegocio:  s.FechaNegocio,
		VentaID:       ventaID,
		Items:         items,
		CreatedAt:     s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
