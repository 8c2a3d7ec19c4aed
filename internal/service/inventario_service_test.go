package service

import (
	"context"
	"strings"
	"testing"

	"gestormoto/internal/apierror"
	"gestormoto/internal/dto"
	"gestormoto/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrarIngreso_AbreLoteYSubeStock(t *testing.T) {
	e := nuevoEntorno()
	p := e.producto("Cable de embrague", "15.00", [2]string{"2", "6.00"})
	prov, err := e.proveedores.Crear(context.Background(), dto.CrearProveedorRequest{RazonSocial: "Repuestos Lima SAC", RUC: "20123456789"})
	require.NoError(t, err)

	resp, err := e.inventario.RegistrarIngreso(context.Background(), admin, dto.RegistrarIngresoRequest{
		ProveedorID: &prov.ID,
		Items:       []dto.ItemIngresoRequest{{ProductoID: p.ID.String(), Cantidad: 10, CostoUnitario: dec("7.50")}},
	})
	require.NoError(t, err)

	assert.True(t, dec("75").Equal(resp.Total))
	assert.Equal(t, "2024-03-15", resp.FechaNegocio)
	require.Len(t, resp.Lotes, 1)
	assert.True(t, strings.HasPrefix(resp.Lotes[0].Codigo, "L-20240315-"))
	assert.False(t, resp.Lotes[0].Legado)

	lotes := e.lotesDe(p.ID)
	require.Len(t, lotes, 2)
	assert.Equal(t, 10, lotes[1].CantidadRestante, "the new lot is the newest")
	assert.Equal(t, 10, lotes[1].CantidadOriginal)
	assert.Equal(t, 12, e.m.productos[p.ID].StockActual)
	assert.True(t, dec("7.50").Equal(e.m.productos[p.ID].PrecioCompra))

	require.Len(t, e.m.historial, 1)
	assert.True(t, e.m.historial[0].CompraAntes.IsZero())
	assert.True(t, dec("7.50").Equal(e.m.historial[0].CompraDespues))
	assert.Len(t, e.m.ingresoItems, 1)
}

func TestRegistrarIngreso_MismoCostoNoEscribeHistorial(t *testing.T) {
	e := nuevoEntorno()
	p := e.producto("Faro", "40.00")
	p.PrecioCompra = dec("25.00")

	_, err := e.inventario.RegistrarIngreso(context.Background(), admin, dto.RegistrarIngresoRequest{
		Items: []dto.ItemIngresoRequest{{ProductoID: p.ID.String(), Cantidad: 3, CostoUnitario: dec("25.00")}},
	})
	require.NoError(t, err)
	assert.Empty(t, e.m.historial)
	assert.Equal(t, 3, e.m.productos[p.ID].StockActual)
}

func TestRegistrarIngreso_Rechazos(t *testing.T) {
	ctx := context.Background()
	e := nuevoEntorno()
	p := e.producto("Tensor", "12.00")

	desconocido := uuid.NewString()
	_, err := e.inventario.RegistrarIngreso(ctx, admin, dto.RegistrarIngresoRequest{
		ProveedorID: &desconocido,
		Items:       []dto.ItemIngresoRequest{{ProductoID: p.ID.String(), Cantidad: 1, CostoUnitario: dec("5")}},
	})
	assert.ErrorIs(t, err, apierror.ErrNoEncontrado)

	_, err = e.inventario.RegistrarIngreso(ctx, admin, dto.RegistrarIngresoRequest{
		Items: []dto.ItemIngresoRequest{{ProductoID: p.ID.String(), Cantidad: 1, CostoUnitario: dec("0")}},
	})
	assert.ErrorIs(t, err, apierror.ErrValidacion)

	_, err = e.inventario.RegistrarIngreso(ctx, admin, dto.RegistrarIngresoRequest{})
	assert.ErrorIs(t, err, apierror.ErrValidacion)

	_, err = e.inventario.RegistrarIngreso(ctx, admin, dto.RegistrarIngresoRequest{
		Items: []dto.ItemIngresoRequest{{ProductoID: uuid.NewString(), Cantidad: 1, CostoUnitario: dec("5")}},
	})
	assert.ErrorIs(t, err, apierror.ErrNoEncontrado)

	assert.Empty(t, e.m.lotes)
	assert.Equal(t, 0, e.m.productos[p.ID].StockActual)
}

func TestListarLotesLegados(t *testing.T) {
	e := nuevoEntorno()
	p := e.producto("Sprocket", "30.00", [2]string{"3", "20.00"})
	legado := &model.Lote{
		ID:               uuid.New(),
		Codigo:           model.PrefijoLoteLegado + "0001",
		ProductoID:       p.ID,
		CantidadOriginal: 1,
		CantidadRestante: 1,
		CostoUnitario:    dec("20.00"),
		FechaIngreso:     hoyFijo,
		Estado:           model.LoteActivo,
	}
	e.m.lotes[legado.ID] = legado

	lotes, err := e.inventario.ListarLotesLegados(context.Background())
	require.NoError(t, err)
	require.Len(t, lotes, 1)
	assert.True(t, lotes[0].Legado)

	todos, err := e.inventario.ListarLotes(context.Background(), p.ID, true)
	require.NoError(t, err)
	assert.Len(t, todos, 2)
}
