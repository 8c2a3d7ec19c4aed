package infra

import (
	"fmt"
	"io"

	"gestormoto/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	hojaResumen = "Resumen"
	hojaVentas  = "Ventas"
	hojaRetiros = "Retiros"
)

// EscribirCierreXLSX exports a closure as a workbook with a summary sheet plus
// one sheet for the sales and one for the withdrawals.
func EscribirCierreXLSX(w io.Writer, c *model.CierreCaja) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", hojaResumen); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	porMetodo := c.PorMetodo.Data()
	resumen := [][]interface{}{
		{"Fecha", c.Fecha},
		{"Cerrado por", c.CerradoPorNombre},
		{"Cerrado a las", c.CerradoAt.Format("2006-01-02 15:04:05")},
		{"Cantidad de ventas", c.CantidadVentas},
	}
	for _, m := range model.MetodosPago {
		resumen = append(resumen, []interface{}{"Ventas " + m, porMetodo[m].InexactFloat64()})
	}
	resumen = append(resumen,
		[]interface{}{"Ganancia bruta", c.GananciaBruta.InexactFloat64()},
		[]interface{}{"Total abonos", c.TotalAbonos.InexactFloat64()},
		[]interface{}{"Ganancia real", c.GananciaReal.InexactFloat64()},
		[]interface{}{"Metodo de calculo", c.MetodoCalculo},
		[]interface{}{"Total retiros", c.TotalRetiros.InexactFloat64()},
		[]interface{}{"Total devoluciones", c.TotalDevoluciones.InexactFloat64()},
		[]interface{}{"Efectivo final", c.EfectivoFinal.InexactFloat64()},
	)
	for i, row := range resumen {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(hojaResumen, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(hojaResumen, "A1", fmt.Sprintf("A%d", len(resumen)), bold); err != nil {
		return err
	}
	_ = f.SetColWidth(hojaResumen, "A", "A", 24)

	if _, err := f.NewSheet(hojaVentas); err != nil {
		return err
	}
	ventas := [][]interface{}{{"Numero", "Cliente", "Tipo", "Metodo", "Total", "Ganancia", "Fuente"}}
	for _, v := range c.Ventas {
		ventas = append(ventas, []interface{}{
			v.Numero, v.Cliente, v.Tipo, v.MetodoPago,
			v.Total.InexactFloat64(), v.Ganancia.InexactFloat64(), v.FuenteGanancia,
		})
	}
	if err := escribirTabla(f, hojaVentas, ventas, bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(hojaRetiros); err != nil {
		return err
	}
	retiros := [][]interface{}{{"Hora", "Metodo", "Motivo", "Monto"}}
	for _, r := range c.Retiros {
		retiros = append(retiros, []interface{}{r.Hora, r.MetodoPago, r.Motivo, r.Monto.InexactFloat64()})
	}
	if err := escribirTabla(f, hojaRetiros, retiros, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func escribirTabla(f *excelize.File, hoja string, filas [][]interface{}, estiloCabecera int) error {
	for i := range filas {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(hoja, cell, &filas[i]); err != nil {
			return err
		}
	}
	ultima, _ := excelize.ColumnNumberToName(len(filas[0]))
	return f.SetCellStyle(hoja, "A1", ultima+"1", estiloCabecera)
}
