package config_test

import (
	"testing"
	"time"

	"gestormoto/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 3, cfg.TxMaxIntentos)
	assert.Equal(t, "America/Lima", cfg.ZonaHoraria)
	assert.Equal(t, 4*time.Hour, cfg.CacheTTL())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("REPORTE_EMAIL", "dueno@example.com")
	t.Setenv("TX_MAX_INTENTOS", "5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "s3cr3t", cfg.JWTSecret)
	assert.Equal(t, "dueno@example.com", cfg.ReporteEmail)
	assert.Equal(t, 5, cfg.TxMaxIntentos)
}

func TestLoadRejectsUnknownTimeZone(t *testing.T) {
	t.Setenv("ZONA_HORARIA", "Mars/Olympus")

	_, err := config.Load()
	assert.Error(t, err)
}
