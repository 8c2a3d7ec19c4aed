package service

import (
	"context"
	"fmt"

	"gestormoto/internal/apierror"
	"gestormoto/internal/dto"
	"gestormoto/internal/model"
	"gestormoto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreditoService interface {
	Liquidar(ctx context.Context, actor Actor, clienteID uuid.UUID, req dto.LiquidarCreditoRequest) (*dto.LiquidacionResponse, error)
	RegistrarAbono(ctx context.Context, actor Actor, clienteID uuid.UUID, req dto.AbonoRequest) (*dto.VentaResponse, error)
	Saldo(ctx context.Context, clienteID uuid.UUID) (*dto.SaldoResponse, error)
	ListarItems(ctx context.Context, clienteID uuid.UUID) ([]dto.CreditoItemResponse, error)
}

type creditoService struct {
	repo     repository.CreditoRepository
	clientes repository.ClienteRepository
	ventas   repository.VentaRepository
	cajaRepo repository.CajaRepository
	reloj    *Reloj
}

func NewCreditoService(
	repo repository.CreditoRepository,
	clientes repository.ClienteRepository,
	ventas repository.VentaRepository,
	cajaRepo repository.CajaRepository,
	reloj *Reloj,
) CreditoService {
	return &creditoService{repo: repo, clientes: clientes, ventas: ventas, cajaRepo: cajaRepo, reloj: reloj}
}

// saldoVivoTx reads the live balance of a locked client and logs when the
// cached field has drifted from it.
func (s *creditoService) saldoVivoTx(tx *gorm.DB, cliente *model.Cliente) (decimal.Decimal, error) {
	vivo, err := s.repo.SumPendienteTx(tx, cliente.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if !vivo.Equal(cliente.SaldoPendiente) {
		log.Warn().Str("cliente_id", cliente.ID.String()).Str("cache", cliente.SaldoPendiente.StringFixed(2)).
			Str("items", vivo.StringFixed(2)).Msg("saldo en caché desalineado, se usa el de los ítems")
	}
	return vivo, nil
}

// ── Liquidar ──────────────────────────────────────────────────────────────────
// Pays off the selected credit items of a client. The items become one
// liquidacion_credito sale (quantities, prices, profit and lot plans copied)
// whose total is what was still owed on them, that is their subtotals minus
// earlier abonos. The items are deleted, emptied credits are marked
// liquidado and the balance becomes the live one minus the payoff, floored
// at zero. Stock does not move: it already left when the credit was granted.

func (s *creditoService) Liquidar(ctx context.Context, actor Actor, clienteID uuid.UUID, req dto.LiquidarCreditoRequest) (*dto.LiquidacionResponse, error) {
	ids, err := parseIDs("item_ids", req.ItemIDs)
	if err != nil {
		return nil, err
	}
	metodo := req.MetodoPago
	if metodo == "" {
		metodo = model.MetodoEfectivo
	}

	hoy := s.reloj.FechaNegocio()
	var venta model.Venta
	var saldo decimal.Decimal
	txErr := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		if err := fechaAbiertaTx(tx, s.cajaRepo, hoy); err != nil {
			return err
		}
		cliente, err := s.clientes.FindForUpdateTx(tx, clienteID)
		if err != nil {
			return noEncontrado(err, "cliente", clienteID)
		}
		vivo, err := s.saldoVivoTx(tx, cliente)
		if err != nil {
			return err
		}
		items, err := s.repo.FindItemsForUpdateTx(tx, ids)
		if err != nil {
			return err
		}
		if faltante, ok := primerFaltante(ids, items); !ok {
			return apierror.NewNoEncontrado("credito_item", faltante)
		}

		monto := decimal.Zero
		ganancia := decimal.Zero
		gananciaCompleta := true
		var creditoIDs []uuid.UUID
		vistos := make(map[uuid.UUID]bool)
		venta = model.Venta{
			ClienteID:     &cliente.ID,
			ClienteNombre: cliente.Nombre,
			UsuarioID:     actor.UsuarioID,
			Tipo:          model.VentaLiquidacionCredito,
			Estado:        model.VentaCompletada,
			MetodoPago:    metodo,
			FechaNegocio:  hoy,
		}
		for _, it := range items {
			if it.ClienteID != clienteID {
				return apierror.NewValidacion("item_ids", fmt.Sprintf("el ítem %s no pertenece al cliente", it.ID))
			}
			monto = monto.Add(it.Pendiente())
			if it.Ganancia == nil {
				gananciaCompleta = false
			} else {
				ganancia = ganancia.Add(*it.Ganancia)
			}
			if !vistos[it.CreditoID] {
				vistos[it.CreditoID] = true
				creditoIDs = append(creditoIDs, it.CreditoID)
			}
			venta.Items = append(venta.Items, model.VentaItem{
				ProductoID:     it.ProductoID,
				Descripcion:    it.Descripcion,
				Cantidad:       it.Cantidad,
				PrecioUnitario: it.PrecioUnitario,
				Subtotal:       it.Subtotal,
				Ganancia:       it.Ganancia,
				Asignaciones:   it.Asignaciones,
			})
		}
		venta.Total = monto
		if gananciaCompleta {
			venta.Ganancia = &ganancia
		}
		if len(creditoIDs) == 1 {
			venta.ReferenciaID = &creditoIDs[0]
		}

		numero, err := s.ventas.NextNumeroTx(tx)
		if err != nil {
			return err
		}
		venta.Numero = numero
		if err := s.ventas.CreateTx(tx, &venta); err != nil {
			return err
		}
		if err := s.repo.DeleteItemsTx(tx, ids); err != nil {
			return err
		}
		if err := s.repo.LiquidarVaciosTx(tx, creditoIDs); err != nil {
			return err
		}
		saldo = descontarSaldo(vivo, monto)
		return s.clientes.UpdateSaldoTx(tx, clienteID, saldo)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("cliente_id", clienteID.String()).Str("monto", venta.Total.StringFixed(2)).
		Str("saldo", saldo.StringFixed(2)).Msg("crédito liquidado")
	return &dto.LiquidacionResponse{
		Venta:          *ventaToResponse(&venta),
		MontoLiquidado: venta.Total,
		SaldoRestante:  saldo,
	}, nil
}

// ── RegistrarAbono ────────────────────────────────────────────────────────────
// A partial payment on account. It is recorded as an abono sale, which counts
// in gross profit but never in real profit, and is spread over the client's
// pending items oldest first by raising their Abonado. The items stay until
// they are paid off with Liquidar.

func (s *creditoService) RegistrarAbono(ctx context.Context, actor Actor, clienteID uuid.UUID, req dto.AbonoRequest) (*dto.VentaResponse, error) {
	if !req.Monto.IsPositive() {
		return nil, apierror.NewValidacion("monto", "debe ser mayor a cero")
	}

	hoy := s.reloj.FechaNegocio()
	var venta model.Venta
	txErr := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
		if err := fechaAbiertaTx(tx, s.cajaRepo, hoy); err != nil {
			return err
		}
		cliente, err := s.clientes.FindForUpdateTx(tx, clienteID)
		if err != nil {
			return noEncontrado(err, "cliente", clienteID)
		}
		pendientes, err := s.repo.PendientesForUpdateTx(tx, clienteID)
		if err != nil {
			return err
		}
		vivo, err := s.saldoVivoTx(tx, cliente)
		if err != nil {
			return err
		}
		if req.Monto.GreaterThan(vivo) {
			return apierror.NewValidacion("monto",
				fmt.Sprintf("el abono supera el saldo pendiente de %s", vivo.StringFixed(2)))
		}
		if err := s.repo.UpdateAbonadoTx(tx, repartirAbono(pendientes, req.Monto)); err != nil {
			return err
		}

		numero, err := s.ventas.NextNumeroTx(tx)
		if err != nil {
			return err
		}
		venta = model.Venta{
			Numero:        numero,
			ClienteID:     &cliente.ID,
			ClienteNombre: cliente.Nombre,
			UsuarioID:     actor.UsuarioID,
			Tipo:          model.VentaAbono,
			Estado:        model.VentaCompletada,
			Total:         req.Monto,
			MetodoPago:    req.MetodoPago,
			FechaNegocio:  hoy,
		}
		if err := s.ventas.CreateTx(tx, &venta); err != nil {
			return err
		}
		return s.clientes.UpdateSaldoTx(tx, clienteID, descontarSaldo(vivo, req.Monto))
	})
	if txErr != nil {
		return nil, txErr
	}
	return ventaToResponse(&venta), nil
}

// repartirAbono applies monto to items in order and returns the items whose
// Abonado changed. Each item absorbs at most what it still owes.
func repartirAbono(items []model.CreditoItem, monto decimal.Decimal) []model.CreditoItem {
	var tocados []model.CreditoItem
	for _, it := range items {
		if !monto.IsPositive() {
			break
		}
		parte := decimal.Min(monto, it.Pendiente())
		if !parte.IsPositive() {
			continue
		}
		it.Abonado = it.Abonado.Add(parte)
		monto = monto.Sub(parte)
		tocados = append(tocados, it)
	}
	return tocados
}

// ── Consultas ─────────────────────────────────────────────────────────────────

// Saldo returns both the cached balance and the live sum of what is still
// owed on the items.
func (s *creditoService) Saldo(ctx context.Context, clienteID uuid.UUID) (*dto.SaldoResponse, error) {
	cliente, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, noEncontrado(err, "cliente", clienteID)
	}
	items, err := s.ListarItems(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	suma := decimal.Zero
	for _, it := range items {
		suma = suma.Add(it.Pendiente)
	}
	return &dto.SaldoResponse{
		ClienteID:  cliente.ID.String(),
		Cliente:    cliente.Nombre,
		SaldoCache: cliente.SaldoPendiente,
		SaldoItems: suma,
		Items:      items,
	}, nil
}

func (s *creditoService) ListarItems(ctx context.Context, clienteID uuid.UUID) ([]dto.CreditoItemResponse, error) {
	items, err := s.repo.ListItemsByCliente(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CreditoItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.CreditoItemResponse{
			ID:             it.ID.String(),
			CreditoID:      it.CreditoID.String(),
			ProductoID:     it.ProductoID.String(),
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
			Abonado:        it.Abonado,
			Pendiente:      it.Pendiente(),
			CreatedAt:      it.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out, nil
}

// descontarSaldo subtracts a payment from a balance without going below zero.
func descontarSaldo(saldo, pago decimal.Decimal) decimal.Decimal {
	nuevo := saldo.Sub(pago)
	if nuevo.IsNegative() {
		return decimal.Zero
	}
	return nuevo
}

func parseIDs(campo string, raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, apierror.NewValidacion(campo, "seleccione al menos un elemento")
	}
	vistos := make(map[uuid.UUID]bool, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, apierror.NewValidacion(campo, fmt.Sprintf("uuid inválido: %s", r))
		}
		if !vistos[id] {
			vistos[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func primerFaltante(ids []uuid.UUID, items []model.CreditoItem) (uuid.UUID, bool) {
	encontrados := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		encontrados[it.ID] = true
	}
	for _, id := range ids {
		if !encontrados[id] {
			return id, false
		}
	}
	return uuid.Nil, true
}
