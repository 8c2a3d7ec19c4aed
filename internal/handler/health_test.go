package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gestormoto/internal/infra"
	"gestormoto/internal/worker"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestHealth_BaseDeDatosCaida(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	_, err := mr.Lpush(worker.DLQPrefix+worker.QueueEmail, `{"cola":"jobs:email"}`)
	require.NoError(t, err)

	// Nothing listens on port 1; the pool only dials on ping.
	db, err := gorm.Open(postgres.Open("host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1"),
		&gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/health", Health(db, rdb, infra.NewCircuitBreaker("smtp", infra.DefaultCBConfig())))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		OK    bool             `json:"ok"`
		DB    string           `json:"db"`
		Redis string           `json:"redis"`
		SMTP  infra.ResumenCB  `json:"smtp"`
		DLQ   map[string]int64 `json:"dlq"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.OK)
	assert.Equal(t, "error", body.DB)
	assert.Equal(t, "connected", body.Redis)
	assert.Equal(t, "cerrado", body.SMTP.Estado)
	assert.Equal(t, int64(1), body.DLQ[worker.QueueEmail])
	assert.Equal(t, int64(0), body.DLQ[worker.QueueReportes])
}

func TestTrabajosFallidos(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	entrada := worker.EntradaDLQ{
		Cola:  worker.QueueEmail,
		Job:   worker.Job{Type: worker.JobEmail, Intentos: 1},
		Causa: "dial tcp: connection refused",
	}
	raw, err := json.Marshal(entrada)
	require.NoError(t, err)
	_, err = mr.Lpush(worker.DLQPrefix+worker.QueueEmail, string(raw))
	require.NoError(t, err)
	_, err = mr.Lpush(worker.DLQAgotadosPrefix+worker.QueueEmail, string(raw))
	require.NoError(t, err)

	r := gin.New()
	r.GET("/fallidos", TrabajosFallidos(rdb))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fallidos?cola=email", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Pendientes []worker.EntradaDLQ `json:"pendientes"`
		Agotados   int64               `json:"agotados"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Pendientes, 1)
	assert.Equal(t, "dial tcp: connection refused", body.Pendientes[0].Causa)
	assert.Equal(t, int64(1), body.Agotados)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fallidos?cola=facturas", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
