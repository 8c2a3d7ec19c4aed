package handler

import (
	"context"
	"net/http"
	"time"

	"gestormoto/internal/apierror"
	"gestormoto/internal/infra"
	"gestormoto/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type sonda func(ctx context.Context) error

func estadoDe(ctx context.Context, s sonda) string {
	if err := s(ctx); err != nil {
		return "error"
	}
	return "connected"
}

// Health answers 503 when Postgres or Redis is unreachable. The SMTP breaker
// and the dead-letter counts are reported but never fail the check.
func Health(db *gorm.DB, rdb *redis.Client, mailCB *infra.CircuitBreaker) gin.HandlerFunc {
	postgres := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	redisPing := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		body := gin.H{"db": estadoDe(ctx, postgres), "redis": estadoDe(ctx, redisPing)}
		sano := body["db"] == "connected" && body["redis"] == "connected"
		body["ok"] = sano

		if mailCB != nil {
			body["smtp"] = mailCB.Resumen()
		}
		if body["redis"] == "connected" {
			dlq := gin.H{}
			for _, cola := range []string{worker.QueueReportes, worker.QueueEmail} {
				if n, err := worker.DLQLength(ctx, rdb, cola); err == nil {
					dlq[cola] = n
				}
			}
			body["dlq"] = dlq
		}

		status := http.StatusOK
		if !sano {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, body)
	}
}

var colasDeTrabajo = map[string]string{
	"reportes": worker.QueueReportes,
	"email":    worker.QueueEmail,
}

// TrabajosFallidos lists the dead-letter entries of one background queue,
// oldest first, plus how many were parked for good.
func TrabajosFallidos(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		cola, ok := colasDeTrabajo[c.DefaultQuery("cola", "email")]
		if !ok {
			c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"cola": "oneof"}))
			return
		}
		ctx := c.Request.Context()
		pendientes, err := worker.ListarDLQ(ctx, rdb, cola, 50)
		if err != nil {
			respondError(c, err)
			return
		}
		agotados, err := worker.DLQAgotadosLength(ctx, rdb, cola)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cola": cola, "pendientes": pendientes, "agotados": agotados})
	}
}
