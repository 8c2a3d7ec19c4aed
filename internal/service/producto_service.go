package service

import (
	"context"
	"errors"
	"math"
	"time"

	"gestormoto/internal/apierror"
	"gestormoto/internal/dto"
	"gestormoto/internal/infra"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductoService defines the business logic contract for products.
// Stock is never edited here: it only moves through lots.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	ConsultarPrecio(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, error)
	HistorialPrecios(ctx context.Context, id uuid.UUID, page, limit int) (*dto.HistorialPrecioListResponse, error)
}

type productoService struct {
	repo        repository.ProductoRepository
	proveedores repository.ProveedorRepository
	historial   repository.HistorialPrecioRepository
	cache       *infra.Cache
	ttl         time.Duration
}

func NewProductoService(
	repo repository.ProductoRepository,
	proveedores repository.ProveedorRepository,
	historial repository.HistorialPrecioRepository,
	cache *infra.Cache,
	ttl time.Duration,
) ProductoService {
	return &productoService{repo: repo, proveedores: proveedores, historial: historial, cache: cache, ttl: ttl}
}

// claveConsulta is the cache key of the public price check for one code.
func claveConsulta(codigo string) string { return "precio:" + codigo }

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if _, err := s.repo.FindByCodigo(ctx, req.Codigo); err == nil {
		return nil, apierror.NewConflictoEstado("ya existe un producto con código %s", req.Codigo)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	proveedorID, err := s.proveedorOpcional(ctx, req.ProveedorID)
	if err != nil {
		return nil, err
	}

	categoria := req.Categoria
	if categoria == "" {
		categoria = "general"
	}
	p := &model.Producto{
		Codigo:       req.Codigo,
		Nombre:       req.Nombre,
		Marca:        req.Marca,
		Categoria:    categoria,
		Ubicacion:    req.Ubicacion,
		PrecioCompra: req.PrecioCompra,
		PrecioVenta:  req.PrecioVenta,
		StockMinimo:  req.StockMinimo,
		ImagenURL:    req.ImagenURL,
		ProveedorID:  proveedorID,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Info().Str("producto_id", p.ID.String()).Str("codigo", p.Codigo).Msg("producto creado")
	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto", id)
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	filter.Page, filter.Limit = paginar(filter.Page, filter.Limit, 20)
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *productoToResponse(&productos[i]))
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto", id)
	}
	if req.Nombre != nil {
		p.Nombre = *req.Nombre
	}
	if req.Marca != nil {
		p.Marca = *req.Marca
	}
	if req.Categoria != nil && *req.Categoria != "" {
		p.Categoria = *req.Categoria
	}
	if req.Ubicacion != nil {
		p.Ubicacion = req.Ubicacion
	}
	if req.PrecioVenta != nil {
		p.PrecioVenta = *req.PrecioVenta
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	if req.ImagenURL != nil {
		p.ImagenURL = req.ImagenURL
	}
	if req.ProveedorID != nil {
		proveedorID, err := s.proveedorOpcional(ctx, req.ProveedorID)
		if err != nil {
			return nil, err
		}
		p.ProveedorID = proveedorID
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.olvidar(ctx, p.Codigo)
	return productoToResponse(p), nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err, "producto", id)
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.olvidar(ctx, p.Codigo)
	return nil
}

// ConsultarPrecio answers the public price check. Hits are served from Redis;
// lot movements and catalog edits drop the key.
func (s *productoService) ConsultarPrecio(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, error) {
	var resp dto.ConsultaPreciosResponse
	if ok, err := s.cache.GetJSON(ctx, claveConsulta(codigo), &resp); err != nil {
		log.Warn().Err(err).Str("codigo", codigo).Msg("caché de consulta no disponible")
	} else if ok {
		return &resp, nil
	}

	p, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		return nil, noEncontrado(err, "producto", codigo)
	}
	resp = dto.ConsultaPreciosResponse{
		Codigo:          p.Codigo,
		Nombre:          p.Nombre,
		Marca:           p.Marca,
		PrecioVenta:     p.PrecioVenta,
		StockDisponible: p.StockActual,
		Ubicacion:       p.Ubicacion,
	}
	if err := s.cache.SetJSON(ctx, claveConsulta(codigo), resp, s.ttl); err != nil {
		log.Warn().Err(err).Str("codigo", codigo).Msg("no se pudo cachear la consulta")
	}
	return &resp, nil
}

func (s *productoService) HistorialPrecios(ctx context.Context, id uuid.UUID, page, limit int) (*dto.HistorialPrecioListResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, noEncontrado(err, "producto", id)
	}
	page, limit = paginar(page, limit, 50)
	rows, total, err := s.historial.ListByProducto(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.HistorialPrecioItem, 0, len(rows))
	for _, h := range rows {
		item := dto.HistorialPrecioItem{
			ID:            h.ID.String(),
			ProductoID:    h.ProductoID.String(),
			CompraAntes:   h.CompraAntes,
			CompraDespues: h.CompraDespues,
			Motivo:        h.Motivo,
			CreatedAt:     h.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if h.ProveedorID != nil {
			v := h.ProveedorID.String()
			item.ProveedorID = &v
		}
		if h.IngresoID != nil {
			v := h.IngresoID.String()
			item.IngresoID = &v
		}
		data = append(data, item)
	}
	return &dto.HistorialPrecioListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *productoService) proveedorOpcional(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apierror.NewValidacion("proveedor_id", "uuid inválido")
	}
	if _, err := s.proveedores.FindByID(ctx, id); err != nil {
		return nil, noEncontrado(err, "proveedor", id)
	}
	return &id, nil
}

func (s *productoService) olvidar(ctx context.Context, codigo string) {
	if err := s.cache.Delete(ctx, claveConsulta(codigo)); err != nil {
		log.Warn().Err(err).Str("codigo", codigo).Msg("no se pudo invalidar la caché de consulta de precios")
	}
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	var proveedorID *string
	if p.ProveedorID != nil {
		v := p.ProveedorID.String()
		proveedorID = &v
	}
	return &dto.ProductoResponse{
		ID:           p.ID.String(),
		Codigo:       p.Codigo,
		Nombre:       p.Nombre,
		Marca:        p.Marca,
		Categoria:    p.Categoria,
		Ubicacion:    p.Ubicacion,
		PrecioCompra: p.PrecioCompra,
		PrecioVenta:  p.PrecioVenta,
		StockActual:  p.StockActual,
		StockMinimo:  p.StockMinimo,
		BajoStock:    p.BajoStock(),
		ImagenURL:    p.ImagenURL,
		Activo:       p.Activo,
		ProveedorID:  proveedorID,
	}
}
