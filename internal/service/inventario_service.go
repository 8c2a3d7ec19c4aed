package service

import (
	"context"
	"fmt"
	"strings"

	"gestormoto/internal/apierror"
	"gestormoto/internal/dto"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventarioService covers intake of purchase lots and read access to lots,
// their restoration history and low-stock alerts.
type InventarioService interface {
	RegistrarIngreso(ctx context.Context, actor Actor, req dto.RegistrarIngresoRequest) (*dto.IngresoResponse, error)
	ListarLotes(ctx context.Context, productoID uuid.UUID, soloActivos bool) ([]dto.LoteResponse, error)
	// ListarLotesLegados lists lots fabricated by the old return flow (code
	// prefix DEV-). They are ordinary lots now; this only makes them auditable.
	ListarLotesLegados(ctx context.Context) ([]dto.LoteResponse, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoLoteFilter) (*dto.MovimientoLoteListResponse, error)
	Alertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
}

type inventarioService struct {
	ingresos    repository.IngresoRepository
	productos   repository.ProductoRepository
	lotes       repository.LoteRepository
	movimientos repository.MovimientoLoteRepository
	historial   repository.HistorialPrecioRepository
	proveedores repository.ProveedorRepository
	stock       MovimientoStock
	reloj       *Reloj
}

func NewInventarioService(
	ingresos repository.IngresoRepository,
	historial repository.HistorialPrecioRepository,
	proveedores repository.ProveedorRepository,
	stock MovimientoStock,
	reloj *Reloj,
) InventarioService {
	return &inventarioService{
		ingresos:    ingresos,
		productos:   stock.productos,
		lotes:       stock.lotes,
		movimientos: stock.movimientos,
		historial:   historial,
		proveedores: proveedores,
		stock:       stock,
		reloj:       reloj,
	}
}

// ── RegistrarIngreso ──────────────────────────────────────────────────────────
// Every item of an intake opens a new lot with its own unit cost. Product
// stock grows by the lot quantity and, when the cost differs from the
// product's purchase price, the price is updated and the change recorded.

func (s *inventarioService) RegistrarIngreso(ctx context.Context, actor Actor, req dto.RegistrarIngresoRequest) (*dto.IngresoResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.NewValidacion("items", "el ingreso no tiene ítems")
	}
	lineas := make([]lineaStock, 0, len(req.Items))
	for i, it := range req.Items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, apierror.NewValidacion(fmt.Sprintf("items[%d].producto_id", i), "uuid inválido")
		}
		if it.Cantidad <= 0 {
			return nil, apierror.NewValidacion(fmt.Sprintf("items[%d].cantidad", i), "debe ser mayor a cero")
		}
		if !it.CostoUnitario.IsPositive() {
			return nil, apierror.NewValidacion(fmt.Sprintf("items[%d].costo_unitario", i), "debe ser mayor a cero")
		}
		lineas = append(lineas, lineaStock{ProductoID: pid, Cantidad: it.Cantidad, PrecioUnitario: it.CostoUnitario})
	}

	var proveedorID *uuid.UUID
	if req.ProveedorID != nil && *req.ProveedorID != "" {
		id, err := uuid.Parse(*req.ProveedorID)
		if err != nil {
			return nil, apierror.NewValidacion("proveedor_id", "uuid inválido")
		}
		if _, err := s.proveedores.FindByID(ctx, id); err != nil {
			return nil, noEncontrado(err, "proveedor", id)
		}
		proveedorID = &id
	}

	ahora := s.reloj.Ahora()
	fecha := ahora.Format(formatoFecha)
	var ingreso model.Ingreso
	var lotes []model.Lote
	var codigos []string
	txErr := runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		lotes, codigos = nil, nil
		productos, err := s.productos.FindForUpdateTx(tx, idsDe(lineas))
		if err != nil {
			return err
		}
		porID := make(map[uuid.UUID]model.Producto, len(productos))
		for _, p := range productos {
			porID[p.ID] = p
		}

		ingreso = model.Ingreso{
			ProveedorID:  proveedorID,
			Documento:    req.Documento,
			UsuarioID:    actor.UsuarioID,
			Total:        decimal.Zero,
			FechaNegocio: fecha,
		}
		for _, l := range lineas {
			if _, ok := porID[l.ProductoID]; !ok {
				return apierror.NewNoEncontrado("producto", l.ProductoID)
			}
			ingreso.Total = ingreso.Total.Add(l.PrecioUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad))))
		}
		if err := s.ingresos.CreateTx(tx, &ingreso); err != nil {
			return err
		}

		items := make([]model.IngresoItem, 0, len(lineas))
		for _, l := range lineas {
			p := porID[l.ProductoID]
			lote := model.Lote{
				Codigo:           codigoLote(ahora.Format("20060102")),
				ProductoID:       p.ID,
				IngresoID:        &ingreso.ID,
				CantidadOriginal: l.Cantidad,
				CantidadRestante: l.Cantidad,
				CostoUnitario:    l.PrecioUnitario,
				FechaIngreso:     ahora,
				Estado:           model.LoteActivo,
			}
			if err := s.lotes.CreateTx(tx, &lote); err != nil {
				return err
			}
			if err := s.productos.UpdateStockTx(tx, p.ID, l.Cantidad); err != nil {
				return err
			}
			if !l.PrecioUnitario.Equal(p.PrecioCompra) {
				if err := s.productos.UpdatePrecioCompraTx(tx, p.ID, l.PrecioUnitario); err != nil {
					return err
				}
				h := model.HistorialPrecio{
					ProductoID:    p.ID,
					ProveedorID:   proveedorID,
					IngresoID:     &ingreso.ID,
					CompraAntes:   p.PrecioCompra,
					CompraDespues: l.PrecioUnitario,
					Motivo:        "ingreso",
				}
				if err := s.historial.CreateTx(tx, &h); err != nil {
					return err
				}
				p.PrecioCompra = l.PrecioUnitario
				porID[p.ID] = p
			}
			items = append(items, model.IngresoItem{
				IngresoID:     ingreso.ID,
				ProductoID:    p.ID,
				LoteID:        lote.ID,
				Cantidad:      l.Cantidad,
				CostoUnitario: l.PrecioUnitario,
				Subtotal:      l.PrecioUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad))),
			})
			lotes = append(lotes, lote)
			codigos = append(codigos, claveConsulta(p.Codigo))
		}
		return s.ingresos.CreateItemsTx(tx, items)
	})
	if txErr != nil {
		return nil, txErr
	}
	if err := s.stock.cache.Delete(ctx, codigos...); err != nil {
		log.Warn().Err(err).Msg("no se pudo invalidar la caché de consulta de precios")
	}

	log.Info().Str("ingreso_id", ingreso.ID.String()).Int("lotes", len(lotes)).Msg("ingreso registrado")
	resp := &dto.IngresoResponse{
		ID:           ingreso.ID.String(),
		Documento:    ingreso.Documento,
		Total:        ingreso.Total,
		FechaNegocio: ingreso.FechaNegocio,
		Lotes:        make([]dto.LoteResponse, 0, len(lotes)),
	}
	if proveedorID != nil {
		p := proveedorID.String()
		resp.ProveedorID = &p
	}
	for _, l := range lotes {
		resp.Lotes = append(resp.Lotes, loteToResponse(l))
	}
	return resp, nil
}

// codigoLote builds codes like L-20240105-ab12cd34.
func codigoLote(dia string) string {
	return "L-" + dia + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *inventarioService) ListarLotes(ctx context.Context, productoID uuid.UUID, soloActivos bool) ([]dto.LoteResponse, error) {
	if _, err := s.productos.FindByID(ctx, productoID); err != nil {
		return nil, noEncontrado(err, "producto", productoID)
	}
	lotes, err := s.lotes.ListByProducto(ctx, productoID, soloActivos)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LoteResponse, 0, len(lotes))
	for _, l := range lotes {
		out = append(out, loteToResponse(l))
	}
	return out, nil
}

func (s *inventarioService) ListarLotesLegados(ctx context.Context) ([]dto.LoteResponse, error) {
	lotes, err := s.lotes.ListByPrefijo(ctx, model.PrefijoLoteLegado)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LoteResponse, 0, len(lotes))
	for _, l := range lotes {
		out = append(out, loteToResponse(l))
	}
	return out, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter dto.MovimientoLoteFilter) (*dto.MovimientoLoteListResponse, error) {
	page, limit := paginar(filter.Page, filter.Limit, 100)
	f := repository.MovimientoLoteFilter{Tipo: filter.Tipo, Page: page, Limit: limit}
	var err error
	if f.ProductoID, err = uuidOpcional("producto_id", filter.ProductoID); err != nil {
		return nil, err
	}
	if f.LoteID, err = uuidOpcional("lote_id", filter.LoteID); err != nil {
		return nil, err
	}
	if f.ReferenciaID, err = uuidOpcional("referencia_id", filter.ReferenciaID); err != nil {
		return nil, err
	}
	movs, total, err := s.movimientos.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovimientoLoteResponse, 0, len(movs))
	for _, m := range movs {
		r := dto.MovimientoLoteResponse{
			ID:                m.ID.String(),
			LoteID:            m.LoteID.String(),
			ProductoID:        m.ProductoID.String(),
			Tipo:              m.Tipo,
			Cantidad:          m.Cantidad,
			RestanteAnterior:  m.RestanteAnterior,
			RestanteNuevo:     m.RestanteNuevo,
			CostoUnitario:     m.CostoUnitario,
			GananciaRevertida: m.GananciaRevertida,
			Motivo:            m.Motivo,
			CreatedAt:         m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if m.Lote != nil {
			r.LoteCodigo = m.Lote.Codigo
		}
		if m.ReferenciaID != nil {
			ref := m.ReferenciaID.String()
			r.ReferenciaID = &ref
		}
		data = append(data, r)
	}
	return &dto.MovimientoLoteListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// Alertas lists active products at or under their low-stock threshold.
func (s *inventarioService) Alertas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.productos.ListBajoStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AlertaStockResponse, 0, len(productos))
	for _, p := range productos {
		out = append(out, dto.AlertaStockResponse{
			ProductoID:  p.ID.String(),
			Codigo:      p.Codigo,
			Nombre:      p.Nombre,
			StockActual: p.StockActual,
			StockMinimo: p.StockMinimo,
		})
	}
	return out, nil
}

func loteToResponse(l model.Lote) dto.LoteResponse {
	return dto.LoteResponse{
		ID:               l.ID.String(),
		Codigo:           l.Codigo,
		ProductoID:       l.ProductoID.String(),
		CantidadOriginal: l.CantidadOriginal,
		CantidadRestante: l.CantidadRestante,
		CostoUnitario:    l.CostoUnitario,
		FechaIngreso:     l.FechaIngreso.Format("2006-01-02T15:04:05Z07:00"),
		Estado:           l.Estado,
		Legado:           strings.HasPrefix(l.Codigo, model.PrefijoLoteLegado),
	}
}

// uuidOpcional parses an optional query filter; empty means no filter.
func uuidOpcional(campo, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apierror.NewValidacion(campo, "uuid inválido")
	}
	return &id, nil
}
