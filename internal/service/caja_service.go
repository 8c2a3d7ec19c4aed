package service

import (
	"context"
	"errors"
	"io"
	"time"

	"gestormoto/internal/apierror"
	"gestormoto/internal/cuadre"
	"gestormoto/internal/dto"
	"gestormoto/internal/infra"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"
	"gestormoto/internal/worker"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	FormatoPDF  = "pdf"
	FormatoXLSX = "xlsx"
)

const (
	lockCajaTTL    = 30 * time.Second
	lockCajaEspera = 5 * time.Second
)

type CajaService interface {
	Resumen(ctx context.Context, fecha string) (*dto.ResumenCajaResponse, error)
	CrearRetiro(ctx context.Context, actor Actor, req dto.CrearRetiroRequest) (*dto.RetiroResponse, error)
	ListarRetiros(ctx context.Context, fecha string) ([]dto.RetiroResponse, error)
	Cerrar(ctx context.Context, actor Actor, fecha string) (*dto.CierreCajaResponse, error)
	Estado(ctx context.Context, fecha string) (*dto.EstadoCajaResponse, error)
	ObtenerCierre(ctx context.Context, fecha string) (*dto.CierreCajaResponse, error)
	ListarCierres(ctx context.Context, filter dto.CierreFilter) ([]dto.CierreCajaResponse, error)
	ExportarCierre(ctx context.Context, fecha, formato string, w io.Writer) error
}

type cajaService struct {
	repo         repository.CajaRepository
	ventas       repository.VentaRepository
	devoluciones repository.DevolucionRepository
	locker       *infra.Locker
	cache        *infra.Cache
	cacheTTL     time.Duration
	dispatcher   *worker.Dispatcher
	reloj        *Reloj
	tienda       string
}

// CajaDeps groups the optional collaborators of the cash service. Any of
// them may be nil: without a locker closures rely on the primary key alone,
// without a dispatcher no report job is queued.
type CajaDeps struct {
	Locker     *infra.Locker
	Cache      *infra.Cache
	CacheTTL   time.Duration
	Dispatcher *worker.Dispatcher
	Tienda     string
}

func NewCajaService(
	repo repository.CajaRepository,
	ventas repository.VentaRepository,
	devoluciones repository.DevolucionRepository,
	reloj *Reloj,
	deps CajaDeps,
) CajaService {
	return &cajaService{
		repo:         repo,
		ventas:       ventas,
		devoluciones: devoluciones,
		locker:       deps.Locker,
		cache:        deps.Cache,
		cacheTTL:     deps.CacheTTL,
		dispatcher:   deps.Dispatcher,
		reloj:        reloj,
		tienda:       deps.Tienda,
	}
}

func (s *cajaService) fecha(fecha string) (string, error) {
	if fecha == "" {
		return s.reloj.FechaNegocio(), nil
	}
	return fecha, validarFecha(fecha)
}

// bloquear serialises closures and withdrawals of one business date.
func (s *cajaService) bloquear(ctx context.Context, fecha string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, "caja:"+fecha, lockCajaTTL, lockCajaEspera)
	if errors.Is(err, infra.ErrLockOcupado) {
		return nil, &apierror.ConflictoTransitorioError{Causa: err}
	}
	return unlock, err
}

// fechaAbiertaTx refuses to post to a closed date and otherwise touches the
// date's caja_dias row, so a closure running concurrently is retried after tx
// commits (or tx is retried after the closure and then refused).
func fechaAbiertaTx(tx *gorm.DB, repo repository.CajaRepository, fecha string) error {
	cerrada, err := repo.ExisteCierreTx(tx, fecha)
	if err != nil {
		return err
	}
	if cerrada {
		return apierror.NewConflictoEstado("la caja del %s ya está cerrada", fecha)
	}
	return repo.TocarDiaTx(tx, fecha)
}

func (s *cajaService) totalesTx(tx *gorm.DB, fecha string) (cuadre.Totales, error) {
	ventas, err := s.ventas.ListByFechaTx(tx, fecha)
	if err != nil {
		return cuadre.Totales{}, err
	}
	retiros, err := s.repo.ListRetirosTx(tx, fecha)
	if err != nil {
		return cuadre.Totales{}, err
	}
	devs, err := s.devoluciones.ListAprobadasByFechaTx(tx, fecha)
	if err != nil {
		return cuadre.Totales{}, err
	}
	return cuadre.Agregar(fecha, ventas, retiros, devs), nil
}

// ── Resumen ───────────────────────────────────────────────────────────────────

func (s *cajaService) Resumen(ctx context.Context, fecha string) (*dto.ResumenCajaResponse, error) {
	fecha, err := s.fecha(fecha)
	if err != nil {
		return nil, err
	}
	var t cuadre.Totales
	var cerrada bool
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		if cerrada, err = s.repo.ExisteCierreTx(tx, fecha); err != nil {
			return err
		}
		t, err = s.totalesTx(tx, fecha)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return &dto.ResumenCajaResponse{
		Fecha:              t.Fecha,
		Cerrada:            cerrada,
		CantidadVentas:     t.CantidadVentas,
		PorMetodo:          t.PorMetodo,
		GananciaBruta:      t.GananciaBruta,
		GananciaReal:       t.GananciaReal,
		MetodoCalculo:      t.MetodoCalculo,
		VentasCalculadas:   t.VentasCalculadas,
		VentasEstimadas:    t.VentasEstimadas,
		TotalAbonos:        t.TotalAbonos,
		TotalRetiros:       t.TotalRetiros,
		TotalDevoluciones:  t.TotalDevoluciones,
		EfectivoDisponible: t.EfectivoDisponible,
		Ventas:             ventasResumen(t.Ventas),
		Retiros:            retirosResumen(t.Fecha, t.Retiros),
	}, nil
}

// ── Retiros ───────────────────────────────────────────────────────────────────

func (s *cajaService) CrearRetiro(ctx context.Context, actor Actor, req dto.CrearRetiroRequest) (*dto.RetiroResponse, error) {
	if err := actor.requiereAdmin(); err != nil {
		return nil, err
	}
	if !req.Monto.IsPositive() {
		return nil, apierror.NewValidacion("monto", "debe ser mayor a cero")
	}
	fecha, err := s.fecha(req.Fecha)
	if err != nil {
		return nil, err
	}
	if fecha > s.reloj.FechaNegocio() {
		return nil, apierror.NewValidacion("fecha", "no se puede registrar un retiro en una fecha futura")
	}

	unlock, err := s.bloquear(ctx, fecha)
	if err != nil {
		return nil, err
	}
	defer unlock()

	retiro := model.Retiro{
		Monto:        req.Monto,
		MetodoPago:   req.MetodoPago,
		Motivo:       req.Motivo,
		UsuarioID:    actor.UsuarioID,
		FechaNegocio: fecha,
	}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := fechaAbiertaTx(tx, s.repo, fecha); err != nil {
			return err
		}
		return s.repo.CreateRetiroTx(tx, &retiro)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("fecha", fecha).Str("metodo", retiro.MetodoPago).Str("monto", retiro.Monto.StringFixed(2)).
		Msg("retiro registrado")
	return &dto.RetiroResponse{
		ID:         retiro.ID.String(),
		Monto:      retiro.Monto,
		MetodoPago: retiro.MetodoPago,
		Motivo:     retiro.Motivo,
		Fecha:      retiro.FechaNegocio,
		Hora:       retiro.CreatedAt.In(s.reloj.loc).Format("15:04"),
	}, nil
}

func (s *cajaService) ListarRetiros(ctx context.Context, fecha string) ([]dto.RetiroResponse, error) {
	fecha, err := s.fecha(fecha)
	if err != nil {
		return nil, err
	}
	var retiros []model.Retiro
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		retiros, err = s.repo.ListRetirosTx(tx, fecha)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	out := make([]dto.RetiroResponse, 0, len(retiros))
	for _, r := range retiros {
		out = append(out, dto.RetiroResponse{
			ID:         r.ID.String(),
			Monto:      r.Monto,
			MetodoPago: r.MetodoPago,
			Motivo:     r.Motivo,
			Fecha:      r.FechaNegocio,
			Hora:       r.CreatedAt.In(s.reloj.loc).Format("15:04"),
		})
	}
	return out, nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// A business date closes once. The insert uses ON CONFLICT DO NOTHING on the
// date key, so a second attempt is reported as a state conflict and the first
// closure keeps its frozen totals. There is no way to reopen a date.

func (s *cajaService) Cerrar(ctx context.Context, actor Actor, fecha string) (*dto.CierreCajaResponse, error) {
	if err := actor.requiereAdmin(); err != nil {
		return nil, err
	}
	fecha, err := s.fecha(fecha)
	if err != nil {
		return nil, err
	}
	if fecha > s.reloj.FechaNegocio() {
		return nil, apierror.NewValidacion("fecha", "no se puede cerrar una fecha futura")
	}

	unlock, err := s.bloquear(ctx, fecha)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var cierre model.CierreCaja
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// First statement: a sale holding the row makes this wait and then
		// fail with 40001, and the retry sees that sale.
		if err := s.repo.TocarDiaTx(tx, fecha); err != nil {
			return err
		}
		existe, err := s.repo.ExisteCierreTx(tx, fecha)
		if err != nil {
			return err
		}
		if existe {
			return apierror.NewConflictoEstado("la caja del %s ya fue cerrada", fecha)
		}
		t, err := s.totalesTx(tx, fecha)
		if err != nil {
			return err
		}
		cierre = t.Cierre()
		cierre.CerradoPor = actor.UsuarioID
		cierre.CerradoPorNombre = actor.Nombre
		cierre.CerradoAt = s.reloj.Ahora()
		creado, err := s.repo.CreateCierreTx(tx, &cierre)
		if err != nil {
			return err
		}
		if !creado {
			return apierror.NewConflictoEstado("la caja del %s ya fue cerrada", fecha)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("fecha", fecha).Str("usuario", actor.Nombre).
		Str("efectivo_final", cierre.EfectivoFinal.StringFixed(2)).Msg("caja cerrada")

	resp := cierreToResponse(&cierre)
	if err := s.cache.SetJSON(ctx, claveCierre(fecha), resp, s.cacheTTL); err != nil {
		log.Warn().Err(err).Str("fecha", fecha).Msg("no se pudo cachear el cierre")
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueReporteCierre(ctx, fecha); err != nil {
			log.Error().Err(err).Str("fecha", fecha).Msg("no se pudo encolar el reporte del cierre")
		}
	}
	return resp, nil
}

// Estado reports open or closed purely from the existence of the closure row.
func (s *cajaService) Estado(ctx context.Context, fecha string) (*dto.EstadoCajaResponse, error) {
	fecha, err := s.fecha(fecha)
	if err != nil {
		return nil, err
	}
	cierre, err := s.ObtenerCierre(ctx, fecha)
	if errors.Is(err, apierror.ErrNoEncontrado) {
		return &dto.EstadoCajaResponse{Fecha: fecha, Cerrada: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &dto.EstadoCajaResponse{Fecha: fecha, Cerrada: true, Cierre: cierre}, nil
}

// ObtenerCierre serves closures from the cache; they never change once written.
func (s *cajaService) ObtenerCierre(ctx context.Context, fecha string) (*dto.CierreCajaResponse, error) {
	if err := validarFecha(fecha); err != nil {
		return nil, err
	}
	var cached dto.CierreCajaResponse
	if ok, err := s.cache.GetJSON(ctx, claveCierre(fecha), &cached); err == nil && ok {
		return &cached, nil
	}
	c, err := s.repo.FindCierre(ctx, fecha)
	if err != nil {
		return nil, noEncontrado(err, "cierre", fecha)
	}
	resp := cierreToResponse(c)
	if err := s.cache.SetJSON(ctx, claveCierre(fecha), resp, s.cacheTTL); err != nil {
		log.Warn().Err(err).Str("fecha", fecha).Msg("no se pudo cachear el cierre")
	}
	return resp, nil
}

func (s *cajaService) ListarCierres(ctx context.Context, filter dto.CierreFilter) ([]dto.CierreCajaResponse, error) {
	if filter.Limit < 1 {
		filter.Limit = 31
	}
	cierres, err := s.repo.ListCierres(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CierreCajaResponse, 0, len(cierres))
	for i := range cierres {
		out = append(out, *cierreToResponse(&cierres[i]))
	}
	return out, nil
}

// ExportarCierre renders a stored closure as PDF or XLSX into w.
func (s *cajaService) ExportarCierre(ctx context.Context, fecha, formato string, w io.Writer) error {
	if err := validarFecha(fecha); err != nil {
		return err
	}
	if formato != FormatoPDF && formato != FormatoXLSX {
		return apierror.NewValidacion("formato", "use pdf o xlsx")
	}
	c, err := s.repo.FindCierre(ctx, fecha)
	if err != nil {
		return noEncontrado(err, "cierre", fecha)
	}
	if formato == FormatoXLSX {
		return infra.EscribirCierreXLSX(w, c)
	}
	return infra.EscribirCierrePDF(w, s.tienda, c)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func claveCierre(fecha string) string { return "cierre:" + fecha }

func ventasResumen(ventas []model.ResumenVenta) []dto.VentaResumen {
	out := make([]dto.VentaResumen, 0, len(ventas))
	for _, v := range ventas {
		out = append(out, dto.VentaResumen{
			VentaID:        v.VentaID.String(),
			Numero:         v.Numero,
			Tipo:           v.Tipo,
			Cliente:        v.Cliente,
			MetodoPago:     v.MetodoPago,
			Total:          v.Total,
			Ganancia:       v.Ganancia,
			FuenteGanancia: v.FuenteGanancia,
		})
	}
	return out
}

func retirosResumen(fecha string, retiros []model.ResumenRetiro) []dto.RetiroResponse {
	out := make([]dto.RetiroResponse, 0, len(retiros))
	for _, r := range retiros {
		out = append(out, dto.RetiroResponse{
			ID:         r.RetiroID.String(),
			Monto:      r.Monto,
			MetodoPago: r.MetodoPago,
			Motivo:     r.Motivo,
			Fecha:      fecha,
			Hora:       r.Hora,
		})
	}
	return out
}

func cierreToResponse(c *model.CierreCaja) *dto.CierreCajaResponse {
	return &dto.CierreCajaResponse{
		Fecha:             c.Fecha,
		PorMetodo:         c.PorMetodo.Data(),
		CantidadVentas:    c.CantidadVentas,
		GananciaBruta:     c.GananciaBruta,
		GananciaReal:      c.GananciaReal,
		MetodoCalculo:     c.MetodoCalculo,
		TotalAbonos:       c.TotalAbonos,
		TotalRetiros:      c.TotalRetiros,
		TotalDevoluciones: c.TotalDevoluciones,
		EfectivoFinal:     c.EfectivoFinal,
		Ventas:            ventasResumen(c.Ventas),
		Retiros:           retirosResumen(c.Fecha, c.Retiros),
		CerradoPor:        c.CerradoPorNombre,
		CerradoAt:         c.CerradoAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
