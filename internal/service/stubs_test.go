package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"gestormoto/internal/dto"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store ───────────────────────────────────────────────────────────
// Every stub shares one store so products, lots and sales stay consistent
// across services. The tx argument is always nil in unit tests and ignored.

type memoria struct {
	productos    map[uuid.UUID]*model.Producto
	lotes        map[uuid.UUID]*model.Lote
	ventas       map[uuid.UUID]*model.Venta
	numero       int
	clientes     map[uuid.UUID]*model.Cliente
	creditos     map[uuid.UUID]*model.Credito
	creditoItems map[uuid.UUID]*model.CreditoItem
	devoluciones map[uuid.UUID]*model.Devolucion
	retiros      []model.Retiro
	cierres      map[string]*model.CierreCaja
	dias         map[string]int
	movimientos  []model.MovimientoLote
	ingresos     map[uuid.UUID]*model.Ingreso
	ingresoItems []model.IngresoItem
	salidas      map[uuid.UUID]*model.Salida
	historial    []model.HistorialPrecio
	proveedores  map[uuid.UUID]*model.Proveedor
	usuarios     map[uuid.UUID]*model.Usuario
}

func nuevaMemoria() *memoria {
	return &memoria{
		productos:    make(map[uuid.UUID]*model.Producto),
		lotes:        make(map[uuid.UUID]*model.Lote),
		ventas:       make(map[uuid.UUID]*model.Venta),
		clientes:     make(map[uuid.UUID]*model.Cliente),
		creditos:     make(map[uuid.UUID]*model.Credito),
		creditoItems: make(map[uuid.UUID]*model.CreditoItem),
		devoluciones: make(map[uuid.UUID]*model.Devolucion),
		cierres:      make(map[string]*model.CierreCaja),
		dias:         make(map[string]int),
		ingresos:     make(map[uuid.UUID]*model.Ingreso),
		salidas:      make(map[uuid.UUID]*model.Salida),
		proveedores:  make(map[uuid.UUID]*model.Proveedor),
		usuarios:     make(map[uuid.UUID]*model.Usuario),
	}
}

func asignarID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// ── Productos ─────────────────────────────────────────────────────────────────

type stubProductoRepo struct{ m *memoria }

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	asignarID(&p.ID)
	cp := *p
	r.m.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.m.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) FindByCodigo(_ context.Context, codigo string) (*model.Producto, error) {
	for _, p := range r.m.productos {
		if p.Codigo == codigo && p.Activo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) List(_ context.Context, f dto.ProductoFilter) ([]model.Producto, int64, error) {
	var out []model.Producto
	q := strings.ToLower(f.Q)
	for _, p := range r.m.productos {
		if f.Activo != "all" && p.Activo != (f.Activo != "false") {
			continue
		}
		if f.BajoStock && !p.BajoStock() {
			continue
		}
		if q != "" && !strings.HasPrefix(strings.ToLower(p.Codigo), q) && !strings.Contains(strings.ToLower(p.Nombre), q) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) ListBajoStock(_ context.Context) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.m.productos {
		if p.Activo && p.BajoStock() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	prev, ok := r.m.productos[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	cp.StockActual = prev.StockActual
	r.m.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if p, ok := r.m.productos[id]; ok {
		p.Activo = false
	}
	return nil
}

func (r *stubProductoRepo) FindForUpdateTx(_ *gorm.DB, ids []uuid.UUID) ([]model.Producto, error) {
	var out []model.Producto
	for _, id := range ids {
		if p, ok := r.m.productos[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	r.m.productos[id].StockActual += delta
	return nil
}

func (r *stubProductoRepo) UpdatePrecioCompraTx(_ *gorm.DB, id uuid.UUID, precio decimal.Decimal) error {
	r.m.productos[id].PrecioCompra = precio
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// ── Lotes ─────────────────────────────────────────────────────────────────────

type stubLoteRepo struct{ m *memoria }

func (r *stubLoteRepo) CreateTx(_ *gorm.DB, l *model.Lote) error {
	asignarID(&l.ID)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.FechaIngreso
	}
	cp := *l
	r.m.lotes[l.ID] = &cp
	return nil
}

func (r *stubLoteRepo) ListForUpdateTx(_ *gorm.DB, productoIDs []uuid.UUID) ([]model.Lote, error) {
	incluir := make(map[uuid.UUID]bool, len(productoIDs))
	for _, id := range productoIDs {
		incluir[id] = true
	}
	var out []model.Lote
	for _, l := range r.m.lotes {
		if incluir[l.ProductoID] {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaIngreso.Before(out[j].FechaIngreso) })
	return out, nil
}

func (r *stubLoteRepo) UpdateRestanteTx(_ *gorm.DB, l *model.Lote) error {
	prev := r.m.lotes[l.ID]
	prev.CantidadRestante = l.CantidadRestante
	prev.Estado = l.Estado
	return nil
}

func (r *stubLoteRepo) ListByProducto(_ context.Context, productoID uuid.UUID, soloActivos bool) ([]model.Lote, error) {
	var out []model.Lote
	for _, l := range r.m.lotes {
		if l.ProductoID == productoID && (!soloActivos || l.Estado == model.LoteActivo) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubLoteRepo) ListByPrefijo(_ context.Context, prefijo string) ([]model.Lote, error) {
	var out []model.Lote
	for _, l := range r.m.lotes {
		if strings.HasPrefix(l.Codigo, prefijo) {
			out = append(out, *l)
		}
	}
	return out, nil
}

var _ repository.LoteRepository = (*stubLoteRepo)(nil)

// ── Ventas ────────────────────────────────────────────────────────────────────

type stubVentaRepo struct{ m *memoria }

func (r *stubVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	asignarID(&v.ID)
	cp := *v
	r.m.ventas[v.ID] = &cp
	return nil
}

func (r *stubVentaRepo) NextNumeroTx(_ *gorm.DB) (int, error) {
	r.m.numero++
	return r.m.numero, nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.m.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *stubVentaRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubVentaRepo) AnularTx(_ *gorm.DB, id uuid.UUID, motivo string) error {
	v := r.m.ventas[id]
	v.Estado = model.VentaAnulada
	v.MotivoAnulacion = &motivo
	return nil
}

func (r *stubVentaRepo) ListByFechaTx(_ *gorm.DB, fecha string) ([]model.Venta, error) {
	var out []model.Venta
	for _, v := range r.m.ventas {
		if v.FechaNegocio == fecha {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numero < out[j].Numero })
	return out, nil
}

func (r *stubVentaRepo) List(_ context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var out []model.Venta
	for _, v := range r.m.ventas {
		if v.FechaNegocio == filter.Fecha && (filter.Estado == "all" || v.Estado == filter.Estado) {
			out = append(out, *v)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

// ── Clientes ──────────────────────────────────────────────────────────────────

type stubClienteRepo struct{ m *memoria }

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	asignarID(&c.ID)
	cp := *c
	r.m.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.m.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClienteRepo) List(_ context.Context, buscar string) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, c := range r.m.clientes {
		if buscar == "" || strings.Contains(strings.ToLower(c.Nombre), strings.ToLower(buscar)) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	prev, ok := r.m.clientes[c.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *c
	cp.SaldoPendiente = prev.SaldoPendiente
	r.m.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubClienteRepo) UpdateSaldoTx(_ *gorm.DB, id uuid.UUID, saldo decimal.Decimal) error {
	r.m.clientes[id].SaldoPendiente = saldo
	return nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

// ── Créditos ──────────────────────────────────────────────────────────────────

type stubCreditoRepo struct{ m *memoria }

func (r *stubCreditoRepo) CreateTx(_ *gorm.DB, c *model.Credito) error {
	asignarID(&c.ID)
	for i := range c.Items {
		asignarID(&c.Items[i].ID)
		c.Items[i].CreditoID = c.ID
		c.Items[i].CreatedAt = time.Date(2024, 3, 15, 10, 0, len(r.m.creditoItems), 0, time.UTC)
		it := c.Items[i]
		r.m.creditoItems[it.ID] = &it
	}
	cp := *c
	r.m.creditos[c.ID] = &cp
	return nil
}

func (r *stubCreditoRepo) FindItemsForUpdateTx(_ *gorm.DB, ids []uuid.UUID) ([]model.CreditoItem, error) {
	var out []model.CreditoItem
	for _, id := range ids {
		if it, ok := r.m.creditoItems[id]; ok {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *stubCreditoRepo) DeleteItemsTx(_ *gorm.DB, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(r.m.creditoItems, id)
	}
	return nil
}

func (r *stubCreditoRepo) LiquidarVaciosTx(_ *gorm.DB, creditoIDs []uuid.UUID) error {
	for _, cid := range creditoIDs {
		vacio := true
		for _, it := range r.m.creditoItems {
			if it.CreditoID == cid {
				vacio = false
			}
		}
		if vacio {
			r.m.creditos[cid].Estado = model.CreditoLiquidado
		}
	}
	return nil
}

func (r *stubCreditoRepo) SumPendienteTx(_ *gorm.DB, clienteID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, it := range r.m.creditoItems {
		if it.ClienteID == clienteID {
			total = total.Add(it.Pendiente())
		}
	}
	return total, nil
}

func (r *stubCreditoRepo) PendientesForUpdateTx(_ *gorm.DB, clienteID uuid.UUID) ([]model.CreditoItem, error) {
	var out []model.CreditoItem
	for _, it := range r.m.creditoItems {
		if it.ClienteID == clienteID && it.Pendiente().IsPositive() {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubCreditoRepo) UpdateAbonadoTx(_ *gorm.DB, items []model.CreditoItem) error {
	for _, it := range items {
		r.m.creditoItems[it.ID].Abonado = it.Abonado
	}
	return nil
}

func (r *stubCreditoRepo) ListItemsByCliente(_ context.Context, clienteID uuid.UUID) ([]model.CreditoItem, error) {
	var out []model.CreditoItem
	for _, it := range r.m.creditoItems {
		if it.ClienteID == clienteID {
			out = append(out, *it)
		}
	}
	return out, nil
}

var _ repository.CreditoRepository = (*stubCreditoRepo)(nil)

// ── Devoluciones ──────────────────────────────────────────────────────────────

type stubDevolucionRepo struct{ m *memoria }

func (r *stubDevolucionRepo) CreateTx(_ *gorm.DB, d *model.Devolucion) error {
	asignarID(&d.ID)
	cp := *d
	r.m.devoluciones[d.ID] = &cp
	return nil
}

func (r *stubDevolucionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Devolucion, error) {
	d, ok := r.m.devoluciones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	cp.Items = append([]model.DevolucionItem(nil), d.Items...)
	return &cp, nil
}

func (r *stubDevolucionRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Devolucion, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubDevolucionRepo) ProcesarTx(_ *gorm.DB, d *model.Devolucion) error {
	cp := *d
	r.m.devoluciones[d.ID] = &cp
	return nil
}

func (r *stubDevolucionRepo) CantidadesAprobadasTx(_ *gorm.DB, ventaID uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int)
	for _, d := range r.m.devoluciones {
		if d.VentaID != ventaID || d.Estado != model.DevolucionAprobada {
			continue
		}
		for _, it := range d.Items {
			out[it.ProductoID] += it.Cantidad
		}
	}
	return out, nil
}

func (r *stubDevolucionRepo) ListAprobadasByFechaTx(_ *gorm.DB, fecha string) ([]model.Devolucion, error) {
	var out []model.Devolucion
	for _, d := range r.m.devoluciones {
		if d.Estado == model.DevolucionAprobada && d.FechaNegocio == fecha {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *stubDevolucionRepo) List(_ context.Context, _ dto.DevolucionFilter) ([]model.Devolucion, int64, error) {
	var out []model.Devolucion
	for _, d := range r.m.devoluciones {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

var _ repository.DevolucionRepository = (*stubDevolucionRepo)(nil)

// ── Caja ──────────────────────────────────────────────────────────────────────

type stubCajaRepo struct{ m *memoria }

func (r *stubCajaRepo) CreateRetiroTx(_ *gorm.DB, ret *model.Retiro) error {
	asignarID(&ret.ID)
	ret.CreatedAt = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	r.m.retiros = append(r.m.retiros, *ret)
	return nil
}

func (r *stubCajaRepo) ListRetirosTx(_ *gorm.DB, fecha string) ([]model.Retiro, error) {
	var out []model.Retiro
	for _, ret := range r.m.retiros {
		if ret.FechaNegocio == fecha {
			out = append(out, ret)
		}
	}
	return out, nil
}

func (r *stubCajaRepo) CreateCierreTx(_ *gorm.DB, c *model.CierreCaja) (bool, error) {
	if _, ok := r.m.cierres[c.Fecha]; ok {
		return false, nil
	}
	cp := *c
	r.m.cierres[c.Fecha] = &cp
	return true, nil
}

func (r *stubCajaRepo) ExisteCierreTx(_ *gorm.DB, fecha string) (bool, error) {
	_, ok := r.m.cierres[fecha]
	return ok, nil
}

func (r *stubCajaRepo) TocarDiaTx(_ *gorm.DB, fecha string) error {
	r.m.dias[fecha]++
	return nil
}

func (r *stubCajaRepo) FindCierre(_ context.Context, fecha string) (*model.CierreCaja, error) {
	c, ok := r.m.cierres[fecha]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCajaRepo) ListCierres(_ context.Context, _ dto.CierreFilter) ([]model.CierreCaja, error) {
	var out []model.CierreCaja
	for _, c := range r.m.cierres {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCajaRepo) DB() *gorm.DB { return nil }

var _ repository.CajaRepository = (*stubCajaRepo)(nil)

// ── Movimientos de lote ───────────────────────────────────────────────────────

type stubMovimientoRepo struct{ m *memoria }

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, mov *model.MovimientoLote) error {
	asignarID(&mov.ID)
	r.m.movimientos = append(r.m.movimientos, *mov)
	return nil
}

func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoLoteFilter) ([]model.MovimientoLote, int64, error) {
	var out []model.MovimientoLote
	for _, mov := range r.m.movimientos {
		if f.ProductoID != nil && mov.ProductoID != *f.ProductoID {
			continue
		}
		if f.LoteID != nil && mov.LoteID != *f.LoteID {
			continue
		}
		if f.ReferenciaID != nil && (mov.ReferenciaID == nil || *mov.ReferenciaID != *f.ReferenciaID) {
			continue
		}
		if f.Tipo != "" && mov.Tipo != f.Tipo {
			continue
		}
		out = append(out, mov)
	}
	return out, int64(len(out)), nil
}

var _ repository.MovimientoLoteRepository = (*stubMovimientoRepo)(nil)

// ── Ingresos, salidas, historial, proveedores, usuarios ───────────────────────

type stubIngresoRepo struct{ m *memoria }

func (r *stubIngresoRepo) CreateTx(_ *gorm.DB, i *model.Ingreso) error {
	asignarID(&i.ID)
	cp := *i
	r.m.ingresos[i.ID] = &cp
	return nil
}

func (r *stubIngresoRepo) CreateItemsTx(_ *gorm.DB, items []model.IngresoItem) error {
	r.m.ingresoItems = append(r.m.ingresoItems, items...)
	return nil
}

func (r *stubIngresoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Ingreso, error) {
	i, ok := r.m.ingresos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return i, nil
}

func (r *stubIngresoRepo) List(_ context.Context, _, _ int) ([]model.Ingreso, int64, error) {
	var out []model.Ingreso
	for _, i := range r.m.ingresos {
		out = append(out, *i)
	}
	return out, int64(len(out)), nil
}

var _ repository.IngresoRepository = (*stubIngresoRepo)(nil)

type stubSalidaRepo struct{ m *memoria }

func (r *stubSalidaRepo) CreateTx(_ *gorm.DB, s *model.Salida) error {
	asignarID(&s.ID)
	cp := *s
	r.m.salidas[s.ID] = &cp
	return nil
}

func (r *stubSalidaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Salida, error) {
	s, ok := r.m.salidas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Items = append([]model.SalidaItem(nil), s.Items...)
	return &cp, nil
}

func (r *stubSalidaRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Salida, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubSalidaRepo) AprobarTx(_ *gorm.DB, s *model.Salida) error {
	cp := *s
	r.m.salidas[s.ID] = &cp
	return nil
}

func (r *stubSalidaRepo) List(_ context.Context, _ dto.SalidaFilter) ([]model.Salida, int64, error) {
	var out []model.Salida
	for _, s := range r.m.salidas {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

var _ repository.SalidaRepository = (*stubSalidaRepo)(nil)

type stubHistorialRepo struct{ m *memoria }

func (r *stubHistorialRepo) CreateTx(_ *gorm.DB, h *model.HistorialPrecio) error {
	asignarID(&h.ID)
	r.m.historial = append(r.m.historial, *h)
	return nil
}

func (r *stubHistorialRepo) ListByProducto(_ context.Context, productoID uuid.UUID, _, _ int) ([]model.HistorialPrecio, int64, error) {
	var out []model.HistorialPrecio
	for _, h := range r.m.historial {
		if h.ProductoID == productoID {
			out = append(out, h)
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.HistorialPrecioRepository = (*stubHistorialRepo)(nil)

type stubProveedorRepo struct{ m *memoria }

func (r *stubProveedorRepo) Create(_ context.Context, p *model.Proveedor) error {
	asignarID(&p.ID)
	cp := *p
	r.m.proveedores[p.ID] = &cp
	return nil
}

func (r *stubProveedorRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Proveedor, error) {
	p, ok := r.m.proveedores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProveedorRepo) FindByRUC(_ context.Context, ruc string) (*model.Proveedor, error) {
	for _, p := range r.m.proveedores {
		if p.RUC == ruc {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProveedorRepo) Buscar(_ context.Context, termino string) ([]model.Proveedor, error) {
	var out []model.Proveedor
	for _, p := range r.m.proveedores {
		nombre := strings.Contains(strings.ToLower(p.RazonSocial), strings.ToLower(termino))
		if p.Activo && (nombre || strings.HasPrefix(p.RUC, termino)) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RazonSocial < out[j].RazonSocial })
	return out, nil
}

func (r *stubProveedorRepo) Update(_ context.Context, p *model.Proveedor) error {
	cp := *p
	r.m.proveedores[p.ID] = &cp
	return nil
}

func (r *stubProveedorRepo) Desactivar(_ context.Context, id uuid.UUID) error {
	p, ok := r.m.proveedores[id]
	if !ok || !p.Activo {
		return gorm.ErrRecordNotFound
	}
	p.Activo = false
	return nil
}

func (r *stubProveedorRepo) ProductosActivos(_ context.Context, id uuid.UUID) (int64, error) {
	var n int64
	for _, p := range r.m.productos {
		if p.Activo && p.ProveedorID != nil && *p.ProveedorID == id {
			n++
		}
	}
	return n, nil
}

var _ repository.ProveedorRepository = (*stubProveedorRepo)(nil)

type stubUsuarioRepo struct{ m *memoria }

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	asignarID(&u.ID)
	cp := *u
	r.m.usuarios[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) FindActivo(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.m.usuarios {
		if u.Username == username && u.Activo {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.m.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsuarioRepo) UsernameTomado(_ context.Context, username string) (bool, error) {
	for _, u := range r.m.usuarios {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUsuarioRepo) List(_ context.Context, incluirInactivos bool) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.m.usuarios {
		if u.Activo || incluirInactivos {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) SetActivo(_ context.Context, id uuid.UUID, activo bool) error {
	u, ok := r.m.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = activo
	return nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// ── Fixtures ──────────────────────────────────────────────────────────────────

var (
	hoyFijo   = time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	admin     = Actor{UsuarioID: uuid.New(), Nombre: "Admin", EsAdmin: true}
	vendedor  = Actor{UsuarioID: uuid.New(), Nombre: "Vendedor"}
	relojFijo = &Reloj{loc: time.UTC, ahora: func() time.Time { return hoyFijo }}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// entorno wires every service over one memoria.
type entorno struct {
	m           *memoria
	stock       MovimientoStock
	ventas      VentaService
	creditos    CreditoService
	devolucion  DevolucionService
	caja        CajaService
	inventario  InventarioService
	salidas     SalidaService
	productos   ProductoService
	clientes    ClienteService
	proveedores ProveedorService
}

func nuevoEntorno() *entorno {
	m := nuevaMemoria()
	productos := &stubProductoRepo{m}
	ventas := &stubVentaRepo{m}
	clientes := &stubClienteRepo{m}
	creditos := &stubCreditoRepo{m}
	devs := &stubDevolucionRepo{m}
	caja := &stubCajaRepo{m}
	proveedores := &stubProveedorRepo{m}
	historial := &stubHistorialRepo{m}
	stock := NewMovimientoStock(productos, &stubLoteRepo{m}, &stubMovimientoRepo{m}, nil)

	return &entorno{
		m:           m,
		stock:       stock,
		ventas:      NewVentaService(ventas, creditos, clientes, caja, devs, stock, relojFijo),
		creditos:    NewCreditoService(creditos, clientes, ventas, caja, relojFijo),
		devolucion:  NewDevolucionService(devs, ventas, caja, stock, relojFijo),
		caja:        NewCajaService(caja, ventas, devs, relojFijo, CajaDeps{}),
		inventario:  NewInventarioService(&stubIngresoRepo{m}, historial, proveedores, stock, relojFijo),
		salidas:     NewSalidaService(&stubSalidaRepo{m}, ventas, clientes, caja, stock, relojFijo),
		productos:   NewProductoService(productos, proveedores, historial, nil, time.Hour),
		clientes:    NewClienteService(clientes),
		proveedores: NewProveedorService(proveedores),
	}
}

// producto seeds an active product with the given lots (cantidad, costo),
// oldest first, and keeps stock_actual equal to their sum.
func (e *entorno) producto(nombre, precio string, lotes ...[2]string) *model.Producto {
	p := &model.Producto{
		ID:           uuid.New(),
		Codigo:       strings.ToUpper(nombre),
		Nombre:       nombre,
		PrecioVenta:  dec(precio),
		PrecioCompra: decimal.Zero,
		StockMinimo:  1,
		Activo:       true,
	}
	e.m.productos[p.ID] = p
	for i, l := range lotes {
		cant := int(dec(l[0]).IntPart())
		lote := &model.Lote{
			ID:               uuid.New(),
			Codigo:           p.Codigo + "-L" + string(rune('1'+i)),
			ProductoID:       p.ID,
			CantidadOriginal: cant,
			CantidadRestante: cant,
			CostoUnitario:    dec(l[1]),
			FechaIngreso:     hoyFijo.AddDate(0, 0, -30+i),
			Estado:           model.LoteActivo,
		}
		lote.CreatedAt = lote.FechaIngreso
		e.m.lotes[lote.ID] = lote
		p.StockActual += cant
	}
	return p
}

// lotesDe returns the lots of a product oldest first.
func (e *entorno) lotesDe(productoID uuid.UUID) []model.Lote {
	var out []model.Lote
	for _, l := range e.m.lotes {
		if l.ProductoID == productoID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaIngreso.Before(out[j].FechaIngreso) })
	return out
}

func (e *entorno) cliente(nombre string) *model.Cliente {
	c := &model.Cliente{ID: uuid.New(), Nombre: nombre, SaldoPendiente: decimal.Zero, Activo: true}
	e.m.clientes[c.ID] = c
	return c
}

// deuda leaves c owing monto on one pending credit item.
func (e *entorno) deuda(c *model.Cliente, monto string) {
	cr := &model.Credito{ClienteID: c.ID, Estado: model.CreditoPendiente, Total: dec(monto)}
	cr.Items = []model.CreditoItem{{
		ClienteID:      c.ID,
		ProductoID:     uuid.New(),
		Descripcion:    "saldo anterior",
		Cantidad:       1,
		PrecioUnitario: dec(monto),
		Subtotal:       dec(monto),
	}}
	_ = (&stubCreditoRepo{e.m}).CreateTx(nil, cr)
	c.SaldoPendiente = c.SaldoPendiente.Add(dec(monto))
}

func item(p *model.Producto, cantidad int) dto.ItemVentaRequest {
	return dto.ItemVentaRequest{ProductoID: p.ID.String(), Cantidad: cantidad}
}
