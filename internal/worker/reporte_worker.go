package worker

// reporte_worker.go
// Processes closure report jobs from QueueReportes: renders the PDF and XLSX
// of a closed business date and, when an owner address is configured, queues
// the email that carries them.

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gestormoto/internal/infra"
	"gestormoto/internal/model"

	"github.com/rs/zerolog/log"
)

// CierreFinder loads a stored closure. repository.CajaRepository satisfies it.
type CierreFinder interface {
	FindCierre(ctx context.Context, fecha string) (*model.CierreCaja, error)
}

type ReporteWorker struct {
	cierres      CierreFinder
	dispatcher   *Dispatcher
	storagePath  string
	tienda       string
	destinatario string
}

func NewReporteWorker(cierres CierreFinder, dispatcher *Dispatcher, storagePath, tienda, destinatario string) *ReporteWorker {
	return &ReporteWorker{
		cierres:      cierres,
		dispatcher:   dispatcher,
		storagePath:  storagePath,
		tienda:       tienda,
		destinatario: destinatario,
	}
}

func (w *ReporteWorker) Process(ctx context.Context, job Job) error {
	var payload ReporteCierrePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("reporte_worker: invalid payload: %w", err)
	}

	cierre, err := w.cierres.FindCierre(ctx, payload.Fecha)
	if err != nil {
		return fmt.Errorf("reporte_worker: cierre %s: %w", payload.Fecha, err)
	}

	pdfPath, err := infra.GuardarCierrePDF(w.storagePath, w.tienda, cierre)
	if err != nil {
		return err
	}
	xlsxPath, err := w.guardarXLSX(cierre)
	if err != nil {
		return err
	}
	log.Info().Str("fecha", cierre.Fecha).Str("pdf", pdfPath).Str("xlsx", xlsxPath).
		Msg("reporte_worker: reporte de cierre generado")

	if w.destinatario == "" || w.dispatcher == nil {
		return nil
	}
	return w.dispatcher.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.destinatario,
		Subject: fmt.Sprintf("%s - cierre de caja %s", w.tienda, cierre.Fecha),
		Body: fmt.Sprintf("Cierre del %s\nVentas: %d\nGanancia real: S/ %s\nEfectivo final: S/ %s\n",
			cierre.Fecha, cierre.CantidadVentas,
			cierre.GananciaReal.StringFixed(2), cierre.EfectivoFinal.StringFixed(2)),
		Adjuntos: []string{pdfPath, xlsxPath},
	})
}

func (w *ReporteWorker) guardarXLSX(c *model.CierreCaja) (string, error) {
	if err := os.MkdirAll(w.storagePath, 0755); err != nil {
		return "", fmt.Errorf("xlsx: create storage dir: %w", err)
	}
	path := filepath.Join(w.storagePath, fmt.Sprintf("cierre_%s.xlsx", c.Fecha))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("xlsx: create file: %w", err)
	}
	defer f.Close()
	if err := infra.EscribirCierreXLSX(f, c); err != nil {
		return "", fmt.Errorf("xlsx: write file: %w", err)
	}
	return path, nil
}
