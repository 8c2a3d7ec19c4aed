package service

import (
	"context"

	"gestormoto/internal/apierror"
	"gestormoto/internal/dto"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClienteService manages credit customers. The balance shown is the cached
// saldo_pendiente; CreditoService.Saldo recomputes it from the open items.
type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, buscar string) ([]dto.ClienteResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	if req.Nombre == model.ClienteGeneral {
		return nil, apierror.NewValidacion("nombre", "nombre reservado para ventas sin cliente")
	}
	c := &model.Cliente{
		Nombre:         req.Nombre,
		Documento:      req.Documento,
		Telefono:       req.Telefono,
		Direccion:      req.Direccion,
		SaldoPendiente: decimal.Zero,
		Activo:         true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente", id)
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, buscar string) ([]dto.ClienteResponse, error) {
	clientes, err := s.repo.List(ctx, buscar)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ClienteResponse, len(clientes))
	for i := range clientes {
		resp[i] = *clienteToResponse(&clientes[i])
	}
	return resp, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente", id)
	}
	if req.Nombre != nil {
		c.Nombre = *req.Nombre
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if req.Direccion != nil {
		c.Direccion = req.Direccion
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:             c.ID.String(),
		Nombre:         c.Nombre,
		Documento:      c.Documento,
		Telefono:       c.Telefono,
		Direccion:      c.Direccion,
		SaldoPendiente: c.SaldoPendiente,
		Activo:         c.Activo,
	}
}
