package infra

// pdf.go: closure report generation using go-pdf/fpdf.
// One A4 page per closure with:
//   - Store name and business date header
//   - Totals per payment method
//   - Profit block (gross, real and how real profit was obtained)
//   - Withdrawals and refunds, final cash on hand
//   - Sale listing
//
// The file is saved to storagePath/cierre_{fecha}.pdf.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gestormoto/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

func soles(d decimal.Decimal) string { return "S/ " + d.StringFixed(2) }

// EscribirCierrePDF renders the closure report into w.
func EscribirCierrePDF(w io.Writer, tienda string, c *model.CierreCaja) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(tienda), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr("Cierre de caja del "+c.Fecha), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("Cerrado por %s - %s", c.CerradoPorNombre, c.CerradoAt.Format("02/01/2006 15:04"))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	etiqueta := contentW * 0.7
	valor := contentW * 0.3
	fila := func(label string, monto decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(etiqueta, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(valor, 6, soles(monto), "", 1, "R", false, 0, "")
	}
	seccion := func(titulo string) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, 7, tr(titulo), "B", 1, "L", false, 0, "")
	}

	// ── Payment methods ──────────────────────────────────────────────────────
	seccion("Ventas por método de pago")
	porMetodo := c.PorMetodo.Data()
	for _, m := range model.MetodosPago {
		fila(m, porMetodo[m], false)
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("%d ventas registradas", c.CantidadVentas)), "", 1, "L", false, 0, "")

	// ── Profit ───────────────────────────────────────────────────────────────
	seccion("Ganancias")
	fila("Ganancia bruta (incluye abonos)", c.GananciaBruta, false)
	fila("Abonos", c.TotalAbonos, false)
	fila("Ganancia real", c.GananciaReal, true)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, tr("Método de cálculo: "+c.MetodoCalculo), "", 1, "L", false, 0, "")

	// ── Cash ─────────────────────────────────────────────────────────────────
	seccion("Efectivo")
	fila("Ventas en efectivo", porMetodo[model.MetodoEfectivo], false)
	fila("Retiros (todos los métodos)", c.TotalRetiros, false)
	fila("Devoluciones reembolsadas", c.TotalDevoluciones, false)
	fila("Efectivo final", c.EfectivoFinal, true)

	if len(c.Retiros) > 0 {
		seccion("Retiros")
		pdf.SetFont("Helvetica", "", 9)
		for _, r := range c.Retiros {
			pdf.CellFormat(contentW*0.15, 5, r.Hora, "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.2, 5, r.MetodoPago, "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.4, 5, tr(recortar(r.Motivo, 40)), "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.25, 5, soles(r.Monto), "", 1, "R", false, 0, "")
		}
	}

	// ── Sales ────────────────────────────────────────────────────────────────
	if len(c.Ventas) > 0 {
		seccion("Detalle de ventas")
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(contentW*0.1, 5, "N", "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.35, 5, "Cliente", "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.2, 5, "Tipo", "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.15, 5, tr("Método"), "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.2, 5, "Total", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		for _, v := range c.Ventas {
			pdf.CellFormat(contentW*0.1, 5, fmt.Sprintf("%d", v.Numero), "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.35, 5, tr(recortar(v.Cliente, 30)), "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.2, 5, v.Tipo, "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.15, 5, v.MetodoPago, "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.2, 5, soles(v.Total), "", 1, "R", false, 0, "")
		}
	}

	return pdf.Output(w)
}

// GuardarCierrePDF writes the closure report under storagePath and returns its path.
func GuardarCierrePDF(storagePath, tienda string, c *model.CierreCaja) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("cierre_%s.pdf", c.Fecha))
	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("pdf: create file: %w", err)
	}
	defer f.Close()

	if err := EscribirCierrePDF(f, tienda, c); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func recortar(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
