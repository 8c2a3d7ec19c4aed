package service

import (
	"context"
	"errors"
	"strings"

	"gestormoto/internal/apierror"
	"gestormoto/internal/dto"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProveedorService interface {
	Crear(ctx context.Context, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProveedorResponse, error)
	Listar(ctx context.Context, buscar string) ([]dto.ProveedorResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type proveedorService struct {
	repo repository.ProveedorRepository
}

func NewProveedorService(repo repository.ProveedorRepository) ProveedorService {
	return &proveedorService{repo: repo}
}

func (s *proveedorService) Crear(ctx context.Context, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error) {
	if err := s.rucLibre(ctx, req.RUC, uuid.Nil); err != nil {
		return nil, err
	}
	p := &model.Proveedor{
		RazonSocial: req.RazonSocial,
		RUC:         req.RUC,
		Telefono:    req.Telefono,
		Email:       req.Email,
		Direccion:   req.Direccion,
		Contacto:    req.Contacto,
		Activo:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return proveedorToResponse(p), nil
}

func (s *proveedorService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "proveedor", id)
	}
	return proveedorToResponse(p), nil
}

func (s *proveedorService) Listar(ctx context.Context, buscar string) ([]dto.ProveedorResponse, error) {
	proveedores, err := s.repo.Buscar(ctx, strings.TrimSpace(buscar))
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProveedorResponse, len(proveedores))
	for i := range proveedores {
		resp[i] = *proveedorToResponse(&proveedores[i])
	}
	return resp, nil
}

func (s *proveedorService) Actualizar(ctx context.Context, id uuid.UUID, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "proveedor", id)
	}
	if req.RUC != p.RUC {
		if err := s.rucLibre(ctx, req.RUC, id); err != nil {
			return nil, err
		}
	}
	p.RazonSocial = req.RazonSocial
	p.RUC = req.RUC
	p.Telefono = req.Telefono
	p.Email = req.Email
	p.Direccion = req.Direccion
	p.Contacto = req.Contacto
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return proveedorToResponse(p), nil
}

// Eliminar deactivates the supplier. Products still pointing at it must be
// reassigned or deactivated first.
func (s *proveedorService) Eliminar(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.ProductosActivos(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierror.NewConflictoEstado("el proveedor tiene %d productos activos", n)
	}
	return noEncontrado(s.repo.Desactivar(ctx, id), "proveedor", id)
}

// rucLibre fails when another supplier already holds ruc.
func (s *proveedorService) rucLibre(ctx context.Context, ruc string, propio uuid.UUID) error {
	otro, err := s.repo.FindByRUC(ctx, ruc)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if otro.ID != propio {
		return apierror.NewConflictoEstado("el RUC %s ya está registrado por %s", ruc, otro.RazonSocial)
	}
	return nil
}

func proveedorToResponse(p *model.Proveedor) *dto.ProveedorResponse {
	return &dto.ProveedorResponse{
		ID:          p.ID.String(),
		RazonSocial: p.RazonSocial,
		RUC:         p.RUC,
		Telefono:    p.Telefono,
		Email:       p.Email,
		Direccion:   p.Direccion,
		Contacto:    p.Contacto,
		Activo:      p.Activo,
	}
}
