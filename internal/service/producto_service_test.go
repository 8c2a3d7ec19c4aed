package service

import (
	"context"
	"testing"
	"time"

	"gestormoto/internal/apierror"
	"gestormoto/internal/dto"
	"gestormoto/internal/infra"
	"gestormoto/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheDePrueba(t *testing.T) (*miniredis.Miniredis, *infra.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, infra.NewCache(rdb, "gm:")
}

func TestConsultarPrecio_SirveDesdeCache(t *testing.T) {
	mr, cache := cacheDePrueba(t)
	e := nuevoEntorno()
	p := e.producto("Bocina", "22.00", [2]string{"4", "10.00"})
	svc := NewProductoService(&stubProductoRepo{e.m}, &stubProveedorRepo{e.m}, &stubHistorialRepo{e.m}, cache, time.Minute)

	resp, err := svc.ConsultarPrecio(context.Background(), "BOCINA")
	require.NoError(t, err)
	assert.Equal(t, 4, resp.StockDisponible)
	assert.True(t, mr.Exists("gm:precio:BOCINA"))

	// A direct write is invisible while the key lives.
	e.m.productos[p.ID].PrecioVenta = dec("99")
	resp, err = svc.ConsultarPrecio(context.Background(), "BOCINA")
	require.NoError(t, err)
	assert.True(t, dec("22").Equal(resp.PrecioVenta))

	// A catalog edit drops it.
	nuevo := dec("25.00")
	_, err = svc.Actualizar(context.Background(), p.ID, dto.ActualizarProductoRequest{PrecioVenta: &nuevo})
	require.NoError(t, err)
	assert.False(t, mr.Exists("gm:precio:BOCINA"))
	resp, err = svc.ConsultarPrecio(context.Background(), "BOCINA")
	require.NoError(t, err)
	assert.True(t, dec("25").Equal(resp.PrecioVenta))

	_, err = svc.ConsultarPrecio(context.Background(), "NO-EXISTE")
	assert.ErrorIs(t, err, apierror.ErrNoEncontrado)
}

func TestConsultarPrecio_VentaInvalidaCache(t *testing.T) {
	mr, cache := cacheDePrueba(t)
	e := nuevoEntorno()
	p := e.producto("Tapa de tanque", "35.00", [2]string{"5", "15.00"})

	stock := NewMovimientoStock(&stubProductoRepo{e.m}, &stubLoteRepo{e.m}, &stubMovimientoRepo{e.m}, cache)
	ventas := NewVentaService(&stubVentaRepo{e.m}, &stubCreditoRepo{e.m}, &stubClienteRepo{e.m}, &stubCajaRepo{e.m}, &stubDevolucionRepo{e.m}, stock, relojFijo)
	svc := NewProductoService(&stubProductoRepo{e.m}, &stubProveedorRepo{e.m}, &stubHistorialRepo{e.m}, cache, time.Minute)

	_, err := svc.ConsultarPrecio(context.Background(), p.Codigo)
	require.NoError(t, err)
	require.True(t, mr.Exists("gm:precio:"+p.Codigo))

	_, err = ventas.RegistrarVenta(context.Background(), vendedor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(p, 2)}, MetodoPago: model.MetodoEfectivo,
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("gm:precio:"+p.Codigo))

	resp, err := svc.ConsultarPrecio(context.Background(), p.Codigo)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.StockDisponible)
}

func TestCrearProducto(t *testing.T) {
	ctx := context.Background()
	e := nuevoEntorno()

	resp, err := e.productos.Crear(ctx, dto.CrearProductoRequest{
		Codigo: "FIL-001", Nombre: "Filtro de aire", PrecioVenta: dec("18.00"), StockMinimo: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "general", resp.Categoria)
	assert.Equal(t, 0, resp.StockActual, "stock starts at zero and only grows through lots")

	_, err = e.productos.Crear(ctx, dto.CrearProductoRequest{Codigo: "FIL-001", Nombre: "Otro", PrecioVenta: dec("1")})
	assert.ErrorIs(t, err, apierror.ErrConflictoEstado)

	desconocido := "6f1c2d1e-3b1a-4c55-9a77-0e6d3c1b2a90"
	_, err = e.productos.Crear(ctx, dto.CrearProductoRequest{Codigo: "FIL-002", Nombre: "Otro", PrecioVenta: dec("1"), ProveedorID: &desconocido})
	assert.ErrorIs(t, err, apierror.ErrNoEncontrado)
}

func TestHistorialPrecios(t *testing.T) {
	ctx := context.Background()
	e := nuevoEntorno()
	p := e.producto("Llanta trasera", "120.00")
	for _, costo := range []string{"80.00", "85.00"} {
		_, err := e.inventario.RegistrarIngreso(ctx, admin, dto.RegistrarIngresoRequest{
			Items: []dto.ItemIngresoRequest{{ProductoID: p.ID.String(), Cantidad: 1, CostoUnitario: dec(costo)}},
		})
		require.NoError(t, err)
	}

	h, err := e.productos.HistorialPrecios(ctx, p.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.Total)
	assert.Equal(t, 50, h.Limit)
}

func TestProveedor_RUCUnico(t *testing.T) {
	ctx := context.Background()
	e := nuevoEntorno()

	a, err := e.proveedores.Crear(ctx, dto.CrearProveedorRequest{RazonSocial: "Motopartes Norte", RUC: "20111111111"})
	require.NoError(t, err)
	_, err = e.proveedores.Crear(ctx, dto.CrearProveedorRequest{RazonSocial: "Copia", RUC: "20111111111"})
	assert.ErrorIs(t, err, apierror.ErrConflictoEstado)

	b, err := e.proveedores.Crear(ctx, dto.CrearProveedorRequest{RazonSocial: "Importadora Sur", RUC: "20222222222"})
	require.NoError(t, err)
	id := uuid.MustParse(b.ID)
	_, err = e.proveedores.Actualizar(ctx, id, dto.CrearProveedorRequest{RazonSocial: "Importadora Sur", RUC: a.RUC})
	assert.ErrorIs(t, err, apierror.ErrConflictoEstado)

	actualizado, err := e.proveedores.Actualizar(ctx, id, dto.CrearProveedorRequest{RazonSocial: "Importadora Sur EIRL", RUC: b.RUC})
	require.NoError(t, err)
	assert.Equal(t, "Importadora Sur EIRL", actualizado.RazonSocial)
}

func TestProveedor_BuscarYEliminar(t *testing.T) {
	ctx := context.Background()
	e := nuevoEntorno()

	norte, err := e.proveedores.Crear(ctx, dto.CrearProveedorRequest{RazonSocial: "Motopartes Norte", RUC: "20111111111"})
	require.NoError(t, err)
	_, err = e.proveedores.Crear(ctx, dto.CrearProveedorRequest{RazonSocial: "Importadora Sur", RUC: "10222222222"})
	require.NoError(t, err)

	lista, err := e.proveedores.Listar(ctx, " motopartes ")
	require.NoError(t, err)
	require.Len(t, lista, 1)
	assert.Equal(t, norte.ID, lista[0].ID)

	lista, err = e.proveedores.Listar(ctx, "10")
	require.NoError(t, err)
	require.Len(t, lista, 1)
	assert.Equal(t, "Importadora Sur", lista[0].RazonSocial)

	// A supplier with active products cannot be removed.
	id := uuid.MustParse(norte.ID)
	bujia := e.producto("Bujia", "15.00", [2]string{"10", "8.00"})
	bujia.ProveedorID = &id
	assert.ErrorIs(t, e.proveedores.Eliminar(ctx, id), apierror.ErrConflictoEstado)

	bujia.Activo = false
	require.NoError(t, e.proveedores.Eliminar(ctx, id))
	assert.ErrorIs(t, e.proveedores.Eliminar(ctx, id), apierror.ErrNoEncontrado)

	lista, err = e.proveedores.Listar(ctx, "")
	require.NoError(t, err)
	assert.Len(t, lista, 1)
}

func TestCliente_NombreReservado(t *testing.T) {
	e := nuevoEntorno()
	_, err := e.clientes.Crear(context.Background(), dto.CrearClienteRequest{Nombre: model.ClienteGeneral})
	assert.ErrorIs(t, err, apierror.ErrValidacion)

	c, err := e.clientes.Crear(context.Background(), dto.CrearClienteRequest{Nombre: "Rosa Mamani"})
	require.NoError(t, err)
	assert.True(t, c.SaldoPendiente.IsZero())
}
