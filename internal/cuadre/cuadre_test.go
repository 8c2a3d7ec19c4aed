package cuadre_test

import (
	"testing"
	"time"

	"gestormoto/internal/cuadre"
	"gestormoto/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fecha = "2024-03-01"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func venta(numero int, tipo, metodo, total string, ganancia *decimal.Decimal) model.Venta {
	return model.Venta{
		ID:            uuid.New(),
		Numero:        numero,
		ClienteNombre: model.ClienteGeneral,
		Tipo:          tipo,
		Estado:        model.VentaCompletada,
		Total:         dec(total),
		MetodoPago:    metodo,
		Ganancia:      ganancia,
		FechaNegocio:  fecha,
	}
}

func TestAgregarExcluyeAbonosDeGananciaReal(t *testing.T) {
	ventas := []model.Venta{
		venta(1, model.VentaDirecta, model.MetodoEfectivo, "100", ptr(dec("40"))),
		venta(2, model.VentaAbono, model.MetodoEfectivo, "50", ptr(dec("20"))),
	}

	tot := cuadre.Agregar(fecha, ventas, nil, nil)

	assert.True(t, tot.GananciaBruta.Equal(dec("150")), tot.GananciaBruta.String())
	assert.True(t, tot.GananciaReal.Equal(dec("40")), tot.GananciaReal.String())
	assert.True(t, tot.TotalAbonos.Equal(dec("50")))
	assert.Equal(t, 2, tot.CantidadVentas)
	assert.Equal(t, cuadre.CalculoExacto, tot.MetodoCalculo)
	assert.Equal(t, cuadre.FuenteExcluida, tot.Ventas[1].FuenteGanancia)
}

func TestResolverGananciaPorNiveles(t *testing.T) {
	t.Run("precalculada", func(t *testing.T) {
		v := venta(1, model.VentaDirecta, model.MetodoEfectivo, "100", ptr(dec("35")))
		v.Items = []model.VentaItem{{Ganancia: ptr(dec("10"))}}
		g, fuente := cuadre.ResolverGanancia(v)
		assert.Equal(t, cuadre.FuentePrecalculada, fuente)
		assert.True(t, g.Equal(dec("35")))
	})
	t.Run("items", func(t *testing.T) {
		v := venta(1, model.VentaDirecta, model.MetodoEfectivo, "100", nil)
		v.Items = []model.VentaItem{{Ganancia: ptr(dec("10"))}, {Ganancia: ptr(dec("12.5"))}}
		g, fuente := cuadre.ResolverGanancia(v)
		assert.Equal(t, cuadre.FuenteItems, fuente)
		assert.True(t, g.Equal(dec("22.5")))
	})
	t.Run("items incompletos usan estimado", func(t *testing.T) {
		v := venta(1, model.VentaDirecta, model.MetodoEfectivo, "80", nil)
		v.Items = []model.VentaItem{{Ganancia: ptr(dec("10"))}, {}}
		g, fuente := cuadre.ResolverGanancia(v)
		assert.Equal(t, cuadre.FuenteEstimada, fuente)
		assert.True(t, g.Equal(dec("32")))
	})
	t.Run("sin datos", func(t *testing.T) {
		v := venta(1, model.VentaDirecta, model.MetodoEfectivo, "100", nil)
		g, fuente := cuadre.ResolverGanancia(v)
		assert.Equal(t, cuadre.FuenteEstimada, fuente)
		assert.True(t, g.Equal(dec("40")))
	})
}

func TestMetodoCalculoDistingueEstimados(t *testing.T) {
	exacta := venta(1, model.VentaDirecta, model.MetodoEfectivo, "100", ptr(dec("30")))
	legado := venta(2, model.VentaDirecta, model.MetodoEfectivo, "100", nil)

	assert.Equal(t, cuadre.CalculoSinVenta, cuadre.Agregar(fecha, nil, nil, nil).MetodoCalculo)
	assert.Equal(t, cuadre.CalculoExacto, cuadre.Agregar(fecha, []model.Venta{exacta}, nil, nil).MetodoCalculo)
	assert.Equal(t, cuadre.CalculoEstimado, cuadre.Agregar(fecha, []model.Venta{legado}, nil, nil).MetodoCalculo)

	mixta := cuadre.Agregar(fecha, []model.Venta{exacta, legado}, nil, nil)
	assert.Equal(t, cuadre.CalculoMixto, mixta.MetodoCalculo)
	assert.Equal(t, 1, mixta.VentasCalculadas)
	assert.Equal(t, 1, mixta.VentasEstimadas)
	assert.True(t, mixta.GananciaReal.Equal(dec("70")))
}

func TestAgregarPagosMixtosYMetodosUnicos(t *testing.T) {
	mixta := venta(1, model.VentaDirecta, model.MetodoMixto, "100", ptr(dec("30")))
	mixta.Pagos = []model.VentaPago{
		{Metodo: model.MetodoEfectivo, Monto: dec("60")},
		{Metodo: model.MetodoYape, Monto: dec("40")},
	}
	tarjeta := venta(2, model.VentaDirecta, model.MetodoTarjeta, "25", ptr(dec("5")))

	tot := cuadre.Agregar(fecha, []model.Venta{tarjeta, mixta}, nil, nil)

	assert.True(t, tot.PorMetodo[model.MetodoEfectivo].Equal(dec("60")))
	assert.True(t, tot.PorMetodo[model.MetodoYape].Equal(dec("40")))
	assert.True(t, tot.PorMetodo[model.MetodoTarjeta].Equal(dec("25")))
	assert.True(t, tot.PorMetodo[model.MetodoPlin].IsZero())
	require.Len(t, tot.Ventas, 2)
	assert.Equal(t, 1, tot.Ventas[0].Numero)
}

func TestRetirosSoloDescuentanEfectivo(t *testing.T) {
	ventas := []model.Venta{
		venta(1, model.VentaDirecta, model.MetodoEfectivo, "200", ptr(dec("50"))),
		venta(2, model.VentaDirecta, model.MetodoYape, "80", ptr(dec("20"))),
	}
	hora := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	retiros := []model.Retiro{
		{ID: uuid.New(), Monto: dec("30"), MetodoPago: model.MetodoEfectivo, Motivo: "almuerzo", CreatedAt: hora},
		{ID: uuid.New(), Monto: dec("50"), MetodoPago: model.MetodoYape, Motivo: "proveedor", CreatedAt: hora},
	}

	tot := cuadre.Agregar(fecha, ventas, retiros, nil)

	assert.True(t, tot.TotalRetiros.Equal(dec("80")))
	assert.True(t, tot.RetirosEfectivo.Equal(dec("30")))
	assert.True(t, tot.EfectivoDisponible.Equal(dec("170")), tot.EfectivoDisponible.String())
	// digital buckets keep their sales total
	assert.True(t, tot.PorMetodo[model.MetodoYape].Equal(dec("80")))
	require.Len(t, tot.Retiros, 2)
	assert.Equal(t, "18:30", tot.Retiros[0].Hora)
}

func TestAgregarIgnoraAnuladasYDevolucionesNoAprobadas(t *testing.T) {
	anulada := venta(1, model.VentaDirecta, model.MetodoEfectivo, "500", ptr(dec("100")))
	anulada.Estado = model.VentaAnulada
	valida := venta(2, model.VentaDirecta, model.MetodoEfectivo, "100", ptr(dec("40")))
	devoluciones := []model.Devolucion{
		{Estado: model.DevolucionAprobada, MontoReembolso: dec("15")},
		{Estado: model.DevolucionRechazada, MontoReembolso: dec("99")},
	}

	tot := cuadre.Agregar(fecha, []model.Venta{anulada, valida}, nil, devoluciones)

	assert.Equal(t, 1, tot.CantidadVentas)
	assert.True(t, tot.TotalDevoluciones.Equal(dec("15")))
	assert.True(t, tot.EfectivoDisponible.Equal(dec("85")))
}

func TestAgregarSoloReembolsosEnEfectivoSalenDeCaja(t *testing.T) {
	ventas := []model.Venta{
		venta(1, model.VentaDirecta, model.MetodoEfectivo, "100", ptr(dec("40"))),
		venta(2, model.VentaDirecta, model.MetodoTarjeta, "60", ptr(dec("20"))),
	}
	devoluciones := []model.Devolucion{
		{Estado: model.DevolucionAprobada, MontoReembolso: dec("30"), MetodoReembolso: model.MetodoTarjeta},
		{Estado: model.DevolucionAprobada, MontoReembolso: dec("10"), MetodoReembolso: model.MetodoEfectivo},
	}

	tot := cuadre.Agregar(fecha, ventas, nil, devoluciones)

	assert.True(t, tot.TotalDevoluciones.Equal(dec("40")))
	assert.True(t, tot.DevolucionesEfectivo.Equal(dec("10")))
	assert.True(t, tot.EfectivoDisponible.Equal(dec("90")), tot.EfectivoDisponible.String())
}

func TestMetodoDeReembolso(t *testing.T) {
	assert.Equal(t, model.MetodoYape, model.MetodoDeReembolso(model.MetodoYape))
	assert.Equal(t, model.MetodoEfectivo, model.MetodoDeReembolso(model.MetodoMixto))
	assert.Equal(t, model.MetodoEfectivo, model.MetodoDeReembolso(""))
}

func TestCierreCopiaTotales(t *testing.T) {
	tot := cuadre.Agregar(fecha, []model.Venta{venta(1, model.VentaDirecta, model.MetodoEfectivo, "10", ptr(dec("4")))}, nil, nil)

	c := tot.Cierre()

	assert.Equal(t, fecha, c.Fecha)
	assert.True(t, c.EfectivoFinal.Equal(dec("10")))
	assert.True(t, c.PorMetodo.Data()[model.MetodoEfectivo].Equal(dec("10")))
	assert.Len(t, c.Ventas, 1)
}
