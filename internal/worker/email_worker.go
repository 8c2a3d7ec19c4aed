package worker

// email_worker.go
// Processes email jobs from QueueEmail: closure reports mailed to the owner.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gestormoto/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail  string   `json:"to_email"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Adjuntos []string `json:"adjuntos"`
}

// Enviador sends one email. *infra.Mailer satisfies it.
type Enviador interface {
	Enviar(to, subject, body string, adjuntos ...string) error
}

// EmailWorker sends emails through the SMTP circuit breaker, retrying a few
// times with backoff before giving the job up to the DLQ.
type EmailWorker struct {
	enviador Enviador
	cb       *infra.CircuitBreaker
	intentos int
	espera   time.Duration
}

// NewEmailWorker creates an EmailWorker with the provided mailer and breaker.
func NewEmailWorker(enviador Enviador, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{enviador: enviador, cb: cb, intentos: 3, espera: time.Second}
}

func (w *EmailWorker) Process(ctx context.Context, job Job) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	sinSMTP := false
	err := withRetry(ctx, w.intentos, w.espera, func(attempt int) error {
		err := w.cb.Ejecutar(func() error {
			err := w.enviador.Enviar(payload.ToEmail, payload.Subject, payload.Body, payload.Adjuntos...)
			if errors.Is(err, infra.ErrSMTPNoConfigurado) {
				sinSMTP = true
				return nil
			}
			return err
		})
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("to", payload.ToEmail).
				Msg("email_worker: send failed")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("email_worker: %w", err)
	}
	if sinSMTP {
		log.Warn().Str("to", payload.ToEmail).Msg("email_worker: SMTP not configured, email dropped")
		return nil
	}
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: sent")
	return nil
}
