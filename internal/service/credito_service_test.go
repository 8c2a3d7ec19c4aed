package service

import (
	"context"
	"testing"

	"gestormoto/internal/apierror"
	"gestormoto/internal/dto"
	"gestormoto/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// creditoDeCliente sells a 30.00 and a 20.00 line on credit to a new client
// and returns the client with the id of each credit item by product.
func creditoDeCliente(t *testing.T, e *entorno) (*model.Cliente, map[uuid.UUID]uuid.UUID, *model.Producto, *model.Producto) {
	t.Helper()
	manubrio := e.producto("Manubrio", "30.00", [2]string{"3", "18.00"})
	pedal := e.producto("Pedal", "20.00", [2]string{"3", "9.00"})
	c := e.cliente("Juan Quispe")

	_, err := e.ventas.RegistrarVentaCredito(context.Background(), vendedor, dto.RegistrarVentaCreditoRequest{
		ClienteID: c.ID.String(),
		Items:     []dto.ItemVentaRequest{item(manubrio, 1), item(pedal, 1)},
	})
	require.NoError(t, err)

	ids := make(map[uuid.UUID]uuid.UUID)
	for _, it := range e.m.creditoItems {
		ids[it.ProductoID] = it.ID
	}
	return c, ids, manubrio, pedal
}

func TestLiquidar_DescuentaDelSaldo(t *testing.T) {
	e := nuevoEntorno()
	c, ids, manubrio, _ := creditoDeCliente(t, e)
	require.True(t, dec("50").Equal(e.m.clientes[c.ID].SaldoPendiente))

	resp, err := e.creditos.Liquidar(context.Background(), vendedor, c.ID, dto.LiquidarCreditoRequest{
		ItemIDs: []string{ids[manubrio.ID].String()},
	})
	require.NoError(t, err)

	assert.True(t, dec("30").Equal(resp.MontoLiquidado))
	assert.True(t, dec("20").Equal(resp.SaldoRestante))
	assert.True(t, dec("20").Equal(e.m.clientes[c.ID].SaldoPendiente))
	assert.Equal(t, model.VentaLiquidacionCredito, resp.Venta.Tipo)
	assert.Equal(t, model.MetodoEfectivo, resp.Venta.MetodoPago)
	assert.Len(t, e.m.creditoItems, 1)

	venta := e.m.ventas[uuid.MustParse(resp.Venta.ID)]
	require.NotNil(t, venta.Ganancia)
	assert.True(t, dec("12").Equal(*venta.Ganancia), "profit is copied from the credit item")
	require.NotNil(t, venta.ReferenciaID)

	saldo, err := e.creditos.Saldo(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, saldo.SaldoCache.Equal(saldo.SaldoItems))
}

func TestLiquidar_TodoMarcaCreditoLiquidado(t *testing.T) {
	e := nuevoEntorno()
	c, ids, manubrio, pedal := creditoDeCliente(t, e)

	_, err := e.creditos.Liquidar(context.Background(), vendedor, c.ID, dto.LiquidarCreditoRequest{
		ItemIDs:    []string{ids[manubrio.ID].String(), ids[pedal.ID].String()},
		MetodoPago: model.MetodoYape,
	})
	require.NoError(t, err)

	assert.Empty(t, e.m.creditoItems)
	assert.True(t, e.m.clientes[c.ID].SaldoPendiente.IsZero())
	for _, cr := range e.m.creditos {
		assert.Equal(t, model.CreditoLiquidado, cr.Estado)
	}
}

func TestLiquidar_ItemInexistenteOAjeno(t *testing.T) {
	e := nuevoEntorno()
	c, ids, manubrio, _ := creditoDeCliente(t, e)

	_, err := e.creditos.Liquidar(context.Background(), vendedor, c.ID, dto.LiquidarCreditoRequest{
		ItemIDs: []string{uuid.NewString()},
	})
	assert.ErrorIs(t, err, apierror.ErrNoEncontrado)

	otro := e.cliente("Otro")
	_, err = e.creditos.Liquidar(context.Background(), vendedor, otro.ID, dto.LiquidarCreditoRequest{
		ItemIDs: []string{ids[manubrio.ID].String()},
	})
	assert.ErrorIs(t, err, apierror.ErrValidacion)
	assert.Len(t, e.m.creditoItems, 2)
	assert.Empty(t, e.m.ventas)
}

func TestRegistrarAbono(t *testing.T) {
	e := nuevoEntorno()
	c, _, _, _ := creditoDeCliente(t, e)

	t.Run("se aplica al item mas antiguo", func(t *testing.T) {
		resp, err := e.creditos.RegistrarAbono(context.Background(), vendedor, c.ID, dto.AbonoRequest{
			Monto: dec("15"), MetodoPago: model.MetodoEfectivo,
		})
		require.NoError(t, err)
		assert.Equal(t, model.VentaAbono, resp.Tipo)
		assert.True(t, dec("35").Equal(e.m.clientes[c.ID].SaldoPendiente))
		assert.Len(t, e.m.creditoItems, 2)
		for _, it := range e.m.creditoItems {
			if it.Subtotal.Equal(dec("30")) {
				assert.True(t, dec("15").Equal(it.Abonado))
			} else {
				assert.True(t, it.Abonado.IsZero())
			}
		}
	})

	t.Run("supera el saldo", func(t *testing.T) {
		_, err := e.creditos.RegistrarAbono(context.Background(), vendedor, c.ID, dto.AbonoRequest{
			Monto: dec("35.01"), MetodoPago: model.MetodoEfectivo,
		})
		assert.ErrorIs(t, err, apierror.ErrValidacion)
		assert.True(t, dec("35").Equal(e.m.clientes[c.ID].SaldoPendiente))
	})

	t.Run("monto no positivo", func(t *testing.T) {
		_, err := e.creditos.RegistrarAbono(context.Background(), vendedor, c.ID, dto.AbonoRequest{
			Monto: dec("0"), MetodoPago: model.MetodoEfectivo,
		})
		assert.ErrorIs(t, err, apierror.ErrValidacion)
	})
}

func TestAbonoLuegoLiquidar(t *testing.T) {
	ctx := context.Background()
	e := nuevoEntorno()
	c, ids, manubrio, _ := creditoDeCliente(t, e)

	_, err := e.creditos.RegistrarAbono(ctx, vendedor, c.ID, dto.AbonoRequest{Monto: dec("15"), MetodoPago: model.MetodoEfectivo})
	require.NoError(t, err)

	resp, err := e.creditos.Liquidar(ctx, vendedor, c.ID, dto.LiquidarCreditoRequest{
		ItemIDs: []string{ids[manubrio.ID].String()},
	})
	require.NoError(t, err)
	assert.True(t, dec("15").Equal(resp.MontoLiquidado), "only what was still owed is charged")
	assert.True(t, dec("20").Equal(resp.SaldoRestante))

	saldo, err := e.creditos.Saldo(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, dec("20").Equal(saldo.SaldoItems))
	assert.True(t, saldo.SaldoCache.Equal(saldo.SaldoItems))

	// The whole remaining debt can still be paid.
	_, err = e.creditos.RegistrarAbono(ctx, vendedor, c.ID, dto.AbonoRequest{Monto: dec("20"), MetodoPago: model.MetodoYape})
	require.NoError(t, err)
	assert.True(t, e.m.clientes[c.ID].SaldoPendiente.IsZero())
}

func TestRegistrarAbono_SaldoEnCacheDesalineado(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("Taller Rojas")
	e.deuda(c, "40")
	c.SaldoPendiente = dec("5")

	_, err := e.creditos.RegistrarAbono(context.Background(), vendedor, c.ID, dto.AbonoRequest{
		Monto: dec("25"), MetodoPago: model.MetodoEfectivo,
	})
	require.NoError(t, err)
	assert.True(t, dec("15").Equal(e.m.clientes[c.ID].SaldoPendiente), "the balance is rebuilt from the items")

	_, err = e.creditos.RegistrarAbono(context.Background(), vendedor, c.ID, dto.AbonoRequest{
		Monto: dec("15.01"), MetodoPago: model.MetodoEfectivo,
	})
	assert.ErrorIs(t, err, apierror.ErrValidacion)
}

func TestCredito_CajaCerrada(t *testing.T) {
	ctx := context.Background()
	e := nuevoEntorno()
	c, ids, manubrio, _ := creditoDeCliente(t, e)
	_, err := e.caja.Cerrar(ctx, admin, "")
	require.NoError(t, err)

	_, err = e.creditos.RegistrarAbono(ctx, vendedor, c.ID, dto.AbonoRequest{Monto: dec("10"), MetodoPago: model.MetodoEfectivo})
	assert.ErrorIs(t, err, apierror.ErrConflictoEstado)

	_, err = e.creditos.Liquidar(ctx, vendedor, c.ID, dto.LiquidarCreditoRequest{ItemIDs: []string{ids[manubrio.ID].String()}})
	assert.ErrorIs(t, err, apierror.ErrConflictoEstado)

	assert.Empty(t, e.m.ventas)
	assert.Len(t, e.m.creditoItems, 2)
	assert.True(t, dec("50").Equal(e.m.clientes[c.ID].SaldoPendiente))
}

func TestRepartirAbono(t *testing.T) {
	items := []model.CreditoItem{
		{ID: uuid.New(), Subtotal: dec("30"), Abonado: dec("25")},
		{ID: uuid.New(), Subtotal: dec("20")},
		{ID: uuid.New(), Subtotal: dec("10")},
	}
	tocados := repartirAbono(items, dec("12"))
	require.Len(t, tocados, 2)
	assert.True(t, dec("30").Equal(tocados[0].Abonado))
	assert.True(t, dec("7").Equal(tocados[1].Abonado))
	assert.True(t, items[0].Abonado.Equal(dec("25")), "the input slice is not modified")
}

func TestDescontarSaldo_NuncaNegativo(t *testing.T) {
	assert.True(t, dec("5").Equal(descontarSaldo(dec("20"), dec("15"))))
	assert.True(t, descontarSaldo(dec("20"), dec("25")).IsZero())
}
