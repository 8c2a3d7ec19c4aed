package router

import (
	"strings"
	"time"

	"gestormoto/internal/config"
	"gestormoto/internal/handler"
	"gestormoto/internal/infra"
	"gestormoto/internal/middleware"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"
	"gestormoto/internal/service"
	"gestormoto/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	admin    = model.RolAdministrador
	vendedor = model.RolVendedor
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(strings.Split(cfg.CORSOrigenes, ",")))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	service.SetTxMaxIntentos(cfg.TxMaxIntentos)
	loc, _ := cfg.Location() // validated by config.Load
	reloj := service.NewReloj(loc)
	cache := infra.NewCache(rdb, "gestormoto:")
	locker := infra.NewLocker(rdb, "gestormoto:lock:")
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	loteRepo := repository.NewLoteRepository(db)
	movimientoRepo := repository.NewMovimientoLoteRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	creditoRepo := repository.NewCreditoRepository(db)
	devolucionRepo := repository.NewDevolucionRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	ingresoRepo := repository.NewIngresoRepository(db)
	salidaRepo := repository.NewSalidaRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)
	historialPrecioRepo := repository.NewHistorialPrecioRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	stock := service.NewMovimientoStock(productoRepo, loteRepo, movimientoRepo, cache)

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	productoSvc := service.NewProductoService(productoRepo, proveedorRepo, historialPrecioRepo, cache, cfg.CacheTTL())
	proveedorSvc := service.NewProveedorService(proveedorRepo)
	clienteSvc := service.NewClienteService(clienteRepo)
	ventaSvc := service.NewVentaService(ventaRepo, creditoRepo, clienteRepo, cajaRepo, devolucionRepo, stock, reloj)
	creditoSvc := service.NewCreditoService(creditoRepo, clienteRepo, ventaRepo, cajaRepo, reloj)
	devolucionSvc := service.NewDevolucionService(devolucionRepo, ventaRepo, cajaRepo, stock, reloj)
	inventarioSvc := service.NewInventarioService(ingresoRepo, historialPrecioRepo, proveedorRepo, stock, reloj)
	salidaSvc := service.NewSalidaService(salidaRepo, ventaRepo, clienteRepo, cajaRepo, stock, reloj)
	cajaSvc := service.NewCajaService(cajaRepo, ventaRepo, devolucionRepo, reloj, service.CajaDeps{
		Locker:     locker,
		Cache:      cache,
		CacheTTL:   cfg.CacheTTL(),
		Dispatcher: dispatcher,
		Tienda:     cfg.NombreTienda,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	consultaH := handler.NewConsultaPreciosHandler(productoSvc)
	proveedoresH := handler.NewProveedoresHandler(proveedorSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	creditosH := handler.NewCreditosHandler(creditoSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	devolucionesH := handler.NewDevolucionesHandler(devolucionSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	salidasH := handler.NewSalidasHandler(salidaSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check, no auth required
	r.GET("/v1/precio/:codigo", consultaH.GetPrecio)

	// Protected routes. Every authenticated user may sell; administrative
	// operations are gated here and re-checked by the services.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(admin, vendedor))
	soloAdmin := middleware.RequireRole(admin)
	{
		v1.POST("/ventas", ventasH.RegistrarVenta)
		v1.POST("/ventas/credito", ventasH.RegistrarVentaCredito)
		v1.GET("/ventas", ventasH.ListarVentas)
		v1.GET("/ventas/:id", ventasH.ObtenerVenta)
		v1.POST("/ventas/:id/anular", soloAdmin, ventasH.AnularVenta)

		v1.GET("/productos", productosH.Listar)
		v1.GET("/productos/:id", productosH.ObtenerPorID)
		v1.GET("/productos/:id/lotes", inventarioH.ListarLotes)
		v1.GET("/productos/:id/historial-precios", productosH.HistorialPrecios)
		prods := v1.Group("/productos", soloAdmin)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
		}

		clientes := v1.Group("/clientes")
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.Obtener)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.GET("/:id/credito", creditosH.Saldo)
			clientes.GET("/:id/credito/items", creditosH.ListarItems)
			clientes.POST("/:id/credito/liquidar", creditosH.Liquidar)
			clientes.POST("/:id/credito/abonos", creditosH.Abono)
		}

		dev := v1.Group("/devoluciones")
		{
			dev.POST("", devolucionesH.Solicitar)
			dev.GET("", devolucionesH.Listar)
			dev.GET("/:id", devolucionesH.Obtener)
			dev.POST("/:id/aprobar", soloAdmin, devolucionesH.Aprobar)
			dev.POST("/:id/rechazar", soloAdmin, devolucionesH.Rechazar)
		}

		inv := v1.Group("/inventario")
		{
			inv.POST("/ingresos", soloAdmin, inventarioH.RegistrarIngreso)
			inv.GET("/alertas", inventarioH.Alertas)
			inv.GET("/movimientos", soloAdmin, inventarioH.ListarMovimientos)
			inv.GET("/lotes/legados", soloAdmin, inventarioH.ListarLotesLegados)
		}

		sal := v1.Group("/salidas")
		{
			sal.POST("", salidasH.Registrar)
			sal.GET("", salidasH.Listar)
			sal.GET("/:id", salidasH.Obtener)
			sal.POST("/:id/aprobar", salidasH.AprobarCotizacion)
		}

		caja := v1.Group("/caja")
		{
			caja.GET("/resumen", cajaH.Resumen)
			caja.GET("/estado", cajaH.Estado)
			caja.GET("/retiros", cajaH.ListarRetiros)
			caja.POST("/retiros", soloAdmin, cajaH.CrearRetiro)
			caja.POST("/cerrar", soloAdmin, cajaH.Cerrar)
			caja.GET("/cierres", soloAdmin, cajaH.ListarCierres)
			caja.GET("/cierres/:fecha", soloAdmin, cajaH.ObtenerCierre)
			caja.GET("/cierres/:fecha/export", soloAdmin, cajaH.Exportar)
		}

		prov := v1.Group("/proveedores", soloAdmin)
		{
			prov.POST("", proveedoresH.Crear)
			prov.GET("", proveedoresH.Listar)
			prov.GET("/:id", proveedoresH.ObtenerPorID)
			prov.PUT("/:id", proveedoresH.Actualizar)
			prov.DELETE("/:id", proveedoresH.Eliminar)
		}

		usuarios := v1.Group("/usuarios", soloAdmin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.POST("/:id/reactivar", usuariosH.Reactivar)
		}

		v1.GET("/sistema/trabajos-fallidos", soloAdmin, handler.TrabajosFallidos(rdb))
	}

	return r
}
