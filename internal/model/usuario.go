package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RolAdministrador = "administrador"
	RolVendedor      = "vendedor"
)

// Usuario is a login of the shop staff. Deactivated users are kept so sales
// and closures still resolve who registered them.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	Nombre       string    `gorm:"type:varchar(100);not null"`
	Email        *string   `gorm:"type:varchar(150)"`
	PasswordHash string    `gorm:"not null"`
	Rol          string    `gorm:"type:varchar(20);not null"`
	Activo       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *Usuario) EsAdmin() bool { return u.Rol == RolAdministrador }

// NormalizarUsername is applied on every write and lookup of a username.
func NormalizarUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
