package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gestormoto/internal/apierror"
	"gestormoto/internal/config"
	"gestormoto/internal/dto"
	"gestormoto/internal/infra"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, actor Actor, id uuid.UUID) error
	ReactivarUsuario(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error)
}

type authService struct {
	repo   repository.UsuarioRepository
	tokens *infra.Tokens
	ttl    time.Duration
}

func NewAuthService(repo repository.UsuarioRepository, cfg *config.Config) AuthService {
	ttl := time.Duration(cfg.JWTExpirationHours) * time.Hour
	return &authService{
		repo:   repo,
		tokens: infra.NewTokens(cfg.JWTSecret, ttl, time.Duration(cfg.JWTRefreshHours)*time.Hour),
		ttl:    ttl,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindActivo(ctx, model.NormalizarUsername(req.Username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrCredenciales
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.ErrCredenciales
	}
	log.Info().Str("usuario", user.Username).Msg("inicio de sesión")
	return s.emitir(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.tokens.Parse(refreshToken, infra.TokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("refresh token rechazado: %v: %w", err, apierror.ErrCredenciales)
	}
	user, err := s.repo.FindByID(ctx, uuid.MustParse(claims.UserID))
	if err != nil || !user.Activo {
		return nil, fmt.Errorf("usuario no encontrado o inactivo: %w", apierror.ErrCredenciales)
	}
	return s.emitir(user)
}

func (s *authService) CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	username := model.NormalizarUsername(req.Username)
	tomado, err := s.repo.UsernameTomado(ctx, username)
	if err != nil {
		return nil, err
	}
	if tomado {
		return nil, apierror.NewConflictoEstado("el usuario %s ya existe", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Username:     username,
		Nombre:       req.Nombre,
		Email:        req.Email,
		PasswordHash: string(hash),
		Rol:          req.Rol,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx, incluirInactivos)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = usuarioToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) DesactivarUsuario(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.UsuarioID == id {
		return apierror.NewConflictoEstado("no puede desactivar su propio usuario")
	}
	if err := s.repo.SetActivo(ctx, id, false); err != nil {
		return noEncontrado(err, "usuario", id)
	}
	log.Info().Str("usuario_id", id.String()).Str("por", actor.Nombre).Msg("usuario desactivado")
	return nil
}

func (s *authService) ReactivarUsuario(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error) {
	if err := s.repo.SetActivo(ctx, id, true); err != nil {
		return nil, noEncontrado(err, "usuario", id)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) emitir(user *model.Usuario) (*dto.LoginResponse, error) {
	acceso, refresh, err := s.tokens.Par(user)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  acceso,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(s.ttl / time.Second),
		User:         usuarioToResponse(user),
	}, nil
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Nombre:   u.Nombre,
		Email:    u.Email,
		Rol:      u.Rol,
		Activo:   u.Activo,
	}
}
