// Package cuadre computes the daily cash-register totals from snapshots of a
// business date's sales, withdrawals and processed returns. It performs no I/O:
// the caja service loads the snapshots and freezes the result into a closure.
package cuadre

import (
	"sort"

	"gestormoto/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// FactorGananciaEstimada is applied to the sale total when a legacy sale has no
// recorded profit at any level.
var FactorGananciaEstimada = decimal.NewFromFloat(0.40)

// Where a sale's profit figure came from.
const (
	FuentePrecalculada = "precalculada"
	FuenteItems        = "items"
	FuenteEstimada     = "estimada"
	// FuenteExcluida marks abonos, which never contribute real profit.
	FuenteExcluida = "excluida"
)

// Overall calculation method of a day.
const (
	CalculoExacto   = "calculada"
	CalculoEstimado = "estimada"
	CalculoMixto    = "mixta"
	CalculoSinVenta = "sin_ventas"
)

type Totales struct {
	Fecha          string
	CantidadVentas int
	PorMetodo      map[string]decimal.Decimal

	GananciaBruta decimal.Decimal
	GananciaReal  decimal.Decimal
	MetodoCalculo string
	// Sales per profit source, abonos excluded.
	VentasCalculadas int
	VentasEstimadas  int

	TotalAbonos       decimal.Decimal
	TotalRetiros      decimal.Decimal
	RetirosEfectivo   decimal.Decimal
	TotalDevoluciones decimal.Decimal
	// Only refunds paid out in cash leave the drawer.
	DevolucionesEfectivo decimal.Decimal
	EfectivoDisponible   decimal.Decimal

	Ventas  []model.ResumenVenta
	Retiros []model.ResumenRetiro
}

// ResolverGanancia returns the profit of a sale and the tier it was resolved
// from: the precomputed sale figure, the sum of item figures when every item
// has one, or the 40% estimate.
func ResolverGanancia(v model.Venta) (decimal.Decimal, string) {
	if v.Ganancia != nil {
		return *v.Ganancia, FuentePrecalculada
	}
	if len(v.Items) > 0 {
		suma := decimal.Zero
		completo := true
		for _, it := range v.Items {
			if it.Ganancia == nil {
				completo = false
				break
			}
			suma = suma.Add(*it.Ganancia)
		}
		if completo {
			return suma, FuenteItems
		}
	}
	return v.Total.Mul(FactorGananciaEstimada).Round(2), FuenteEstimada
}

// Agregar builds the totals of fecha. Voided sales and returns that were not
// approved are ignored, so callers may pass unfiltered snapshots.
func Agregar(fecha string, ventas []model.Venta, retiros []model.Retiro, devoluciones []model.Devolucion) Totales {
	t := Totales{
		Fecha:                fecha,
		PorMetodo:            make(map[string]decimal.Decimal, len(model.MetodosPago)),
		GananciaBruta:        decimal.Zero,
		GananciaReal:         decimal.Zero,
		TotalAbonos:          decimal.Zero,
		TotalRetiros:         decimal.Zero,
		RetirosEfectivo:      decimal.Zero,
		TotalDevoluciones:    decimal.Zero,
		DevolucionesEfectivo: decimal.Zero,
		EfectivoDisponible:   decimal.Zero,
		Ventas:               []model.ResumenVenta{},
		Retiros:              []model.ResumenRetiro{},
	}
	for _, m := range model.MetodosPago {
		t.PorMetodo[m] = decimal.Zero
	}

	ordenadas := make([]model.Venta, 0, len(ventas))
	for _, v := range ventas {
		if v.Estado == model.VentaCompletada {
			ordenadas = append(ordenadas, v)
		}
	}
	sort.SliceStable(ordenadas, func(i, j int) bool { return ordenadas[i].Numero < ordenadas[j].Numero })

	for _, v := range ordenadas {
		t.CantidadVentas++
		t.GananciaBruta = t.GananciaBruta.Add(v.Total)
		acumularPagos(t.PorMetodo, v)

		resumen := model.ResumenVenta{
			VentaID:    v.ID,
			Numero:     v.Numero,
			Tipo:       v.Tipo,
			Cliente:    v.ClienteNombre,
			MetodoPago: v.MetodoPago,
			Total:      v.Total,
			Ganancia:   decimal.Zero,
		}
		if v.Tipo == model.VentaAbono {
			t.TotalAbonos = t.TotalAbonos.Add(v.Total)
			resumen.FuenteGanancia = FuenteExcluida
		} else {
			g, fuente := ResolverGanancia(v)
			t.GananciaReal = t.GananciaReal.Add(g)
			resumen.Ganancia = g
			resumen.FuenteGanancia = fuente
			if fuente == FuenteEstimada {
				t.VentasEstimadas++
			} else {
				t.VentasCalculadas++
			}
		}
		t.Ventas = append(t.Ventas, resumen)
	}

	for _, r := range retiros {
		t.TotalRetiros = t.TotalRetiros.Add(r.Monto)
		if r.MetodoPago == model.MetodoEfectivo {
			t.RetirosEfectivo = t.RetirosEfectivo.Add(r.Monto)
		}
		t.Retiros = append(t.Retiros, model.ResumenRetiro{
			RetiroID:   r.ID,
			Monto:      r.Monto,
			MetodoPago: r.MetodoPago,
			Motivo:     r.Motivo,
			Hora:       r.CreatedAt.Format("15:04"),
		})
	}

	for _, d := range devoluciones {
		if d.Estado != model.DevolucionAprobada {
			continue
		}
		t.TotalDevoluciones = t.TotalDevoluciones.Add(d.MontoReembolso)
		if model.MetodoDeReembolso(d.MetodoReembolso) == model.MetodoEfectivo {
			t.DevolucionesEfectivo = t.DevolucionesEfectivo.Add(d.MontoReembolso)
		}
	}

	t.MetodoCalculo = metodoCalculo(t.VentasCalculadas, t.VentasEstimadas)
	t.EfectivoDisponible = t.PorMetodo[model.MetodoEfectivo].Sub(t.RetirosEfectivo).Sub(t.DevolucionesEfectivo)
	return t
}

func acumularPagos(buckets map[string]decimal.Decimal, v model.Venta) {
	if len(v.Pagos) > 0 {
		for _, p := range v.Pagos {
			buckets[p.Metodo] = buckets[p.Metodo].Add(p.Monto)
		}
		return
	}
	buckets[v.MetodoPago] = buckets[v.MetodoPago].Add(v.Total)
}

func metodoCalculo(calculadas, estimadas int) string {
	switch {
	case calculadas == 0 && estimadas == 0:
		return CalculoSinVenta
	case estimadas == 0:
		return CalculoExacto
	case calculadas == 0:
		return CalculoEstimado
	default:
		return CalculoMixto
	}
}

// Cierre converts the totals into the closure record to be inserted.
func (t Totales) Cierre() model.CierreCaja {
	return model.CierreCaja{
		Fecha:             t.Fecha,
		CantidadVentas:    t.CantidadVentas,
		GananciaBruta:     t.GananciaBruta,
		GananciaReal:      t.GananciaReal,
		MetodoCalculo:     t.MetodoCalculo,
		TotalAbonos:       t.TotalAbonos,
		TotalRetiros:      t.TotalRetiros,
		TotalDevoluciones: t.TotalDevoluciones,
		EfectivoFinal:     t.EfectivoDisponible,
		PorMetodo:         datatypes.NewJSONType(t.PorMetodo),
		Retiros:           datatypes.JSONSlice[model.ResumenRetiro](t.Retiros),
		Ventas:            datatypes.JSONSlice[model.ResumenVenta](t.Ventas),
	}
}
