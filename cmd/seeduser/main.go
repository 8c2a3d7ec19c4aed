// cmd/seeduser/main.go: creates or resets the first administrator.
// Uso: SEED_PASSWORD=... go run ./cmd/seeduser
package main

import (
	"context"
	"os"

	"gestormoto/internal/config"
	"gestormoto/internal/infra"
	"gestormoto/internal/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		log.Fatal().Msg("SEED_PASSWORD is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}

	u := model.Usuario{
		Username:     model.NormalizarUsername(env("SEED_USERNAME", "admin")),
		Nombre:       env("SEED_NOMBRE", "Administrador"),
		PasswordHash: string(hash),
		Rol:          model.RolAdministrador,
		Activo:       true,
	}
	err = db.WithContext(context.Background()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "nombre", "rol", "activo"}),
	}).Create(&u).Error
	if err != nil {
		log.Fatal().Err(err).Msg("insert")
	}
	log.Info().Str("username", u.Username).Msg("usuario administrador creado/actualizado")
}
