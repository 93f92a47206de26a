package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/inventory"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
	"github.com/jhoicas/autocare-estoque/pkg/logger"
)

// Estados por los que pasa el registro de un movimiento.
const (
	StateReceived     = "RECEIVED"
	StateValidated    = "VALIDATED"
	StateEntryApplied = "ENTRY_APPLIED"
	StateExitApplied  = "EXIT_APPLIED"
	StateCommitted    = "COMMITTED"
	StateRejected     = "REJECTED"
	StateFailed       = "FAILED"
)

const tracerName = "github.com/jhoicas/autocare-estoque/internal/application/inventory"

// RegisterMovementUseCase registra entradas y salidas de stock de forma transaccional:
// lock por producto, SELECT FOR UPDATE sobre el producto, lote nuevo o consumo FIFO,
// movimiento inmutable y recálculo del agregado en la misma transacción.
type RegisterMovementUseCase struct {
	serializer  *Serializer
	productRepo repository.ProductRepository
	observer    MovementObserver
	log         *logger.Logger
	tracer      trace.Tracer
	loc         *time.Location
	now         func() time.Time
}

// NewRegisterMovementUseCase construye el caso de uso. loc es la zona horaria del número de lote por defecto.
func NewRegisterMovementUseCase(
	serializer *Serializer,
	productRepo repository.ProductRepository,
	observer MovementObserver,
	log *logger.Logger,
	loc *time.Location,
) *RegisterMovementUseCase {
	if observer == nil {
		observer = NopObserver()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RegisterMovementUseCase{
		serializer:  serializer,
		productRepo: productRepo,
		observer:    observer,
		log:         log,
		tracer:      otel.Tracer(tracerName),
		loc:         loc,
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *RegisterMovementUseCase) WithClock(now func() time.Time) *RegisterMovementUseCase {
	uc.now = now
	return uc
}

// MovementInputDTO entrada para registrar un movimiento.
// ENTRY: UnitCost > 0 y al menos UnitSalePrice o MarginPercent. EXIT: sin SupplierID.
type MovementInputDTO struct {
	UserID         string
	UserName       string
	ProductID      int64
	Type           string
	Quantity       decimal.Decimal
	UnitCost       *decimal.Decimal
	UnitSalePrice  *decimal.Decimal
	MarginPercent  *decimal.Decimal
	SupplierID     *int64
	LotNumber      string
	EntryDate      *time.Time
	ExpiryDate     *time.Time
	Reason         string
	Notes          string
	ServiceOrderID *int64
}

// RegisterMovement valida, serializa por producto y aplica el movimiento.
// Errores: *domain.ValidationError, domain.ErrNotFound, domain.ErrProductInactive,
// *domain.InsufficientStockError, domain.ErrConcurrencyConflict.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (*entity.Movement, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.RegisterMovement", trace.WithAttributes(
		attribute.Int64("product_id", input.ProductID),
		attribute.String("movement_type", input.Type),
	))
	defer span.End()
	run := uc.startRun(span, input.ProductID, input.Type)

	if err := validateMovement(input); err != nil {
		return nil, run.fail(err)
	}
	run.to(StateValidated)

	if err := uc.ensureActive(ctx, input.ProductID); err != nil {
		return nil, run.fail(err)
	}

	var mov *entity.Movement
	err := uc.serializer.Do(ctx, input.ProductID, func(
		movRepo repository.MovementRepository,
		batchRepo repository.BatchRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := lockProduct(ctx, productRepo, input.ProductID)
		if err != nil {
			return err
		}
		if !product.Active {
			return domain.ErrProductInactive
		}
		now := uc.now()
		m, err := uc.apply(ctx, run, movRepo, batchRepo, product, input, now)
		if err != nil {
			return err
		}
		if err := RecomputeProduct(ctx, productRepo, batchRepo, movRepo, product, now); err != nil {
			return err
		}
		mov = m
		return nil
	})
	if err != nil {
		return nil, run.fail(err)
	}
	run.commit(mov)
	return mov, nil
}

// ensureActive rechaza temprano productos inexistentes o dados de baja, sin tomar el lock.
func (uc *RegisterMovementUseCase) ensureActive(ctx context.Context, productID int64) error {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	if !product.Active {
		return domain.ErrProductInactive
	}
	return nil
}

// apply ejecuta la entrada o la salida con los repositorios de la transacción en curso.
func (uc *RegisterMovementUseCase) apply(
	ctx context.Context,
	run *movementRun,
	movRepo repository.MovementRepository,
	batchRepo repository.BatchRepository,
	product *entity.Product,
	input MovementInputDTO,
	now time.Time,
) (*entity.Movement, error) {
	switch input.Type {
	case entity.MovementTypeEntry:
		mov, err := uc.applyEntry(ctx, movRepo, batchRepo, product, input, now)
		if err != nil {
			return nil, err
		}
		run.to(StateEntryApplied)
		return mov, nil
	case entity.MovementTypeExit:
		mov, err := uc.applyExit(ctx, movRepo, batchRepo, product, input, now)
		if err != nil {
			return nil, err
		}
		run.to(StateExitApplied)
		return mov, nil
	}
	return nil, domain.NewValidationError("type", "tipo de movimiento desconocido")
}

// applyEntry crea exactamente un lote y un movimiento ENTRY que lo referencia.
func (uc *RegisterMovementUseCase) applyEntry(
	ctx context.Context,
	movRepo repository.MovementRepository,
	batchRepo repository.BatchRepository,
	product *entity.Product,
	input MovementInputDTO,
	now time.Time,
) (*entity.Movement, error) {
	prices, err := inventory.ResolvePrices(*input.UnitCost, input.UnitSalePrice, input.MarginPercent)
	if err != nil {
		return nil, err
	}
	movID, err := movRepo.NextID(ctx)
	if err != nil {
		return nil, err
	}

	entryDate := now
	if input.EntryDate != nil {
		entryDate = *input.EntryDate
	}
	lot := strings.TrimSpace(input.LotNumber)
	if lot == "" {
		lot = DefaultLotNumber(product.ID, now, uc.loc)
	}
	cost := prices.UnitCost
	sale := prices.UnitSalePrice
	margin := prices.MarginPercent

	batch := &entity.Batch{
		ProductID:         product.ID,
		EntryMovementID:   movID,
		SupplierID:        input.SupplierID,
		InitialQuantity:   input.Quantity,
		RemainingQuantity: input.Quantity,
		UnitCost:          cost,
		UnitSalePrice:     &sale,
		MarginPercent:     &margin,
		EntryDate:         entryDate,
		ExpiryDate:        input.ExpiryDate,
		LotNumber:         lot,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := batchRepo.Create(ctx, batch); err != nil {
		return nil, err
	}
	batchID := batch.ID

	mov := &entity.Movement{
		ID:             movID,
		TransactionID:  uuid.New().String(),
		ProductID:      product.ID,
		Type:           entity.MovementTypeEntry,
		Quantity:       input.Quantity,
		UnitPrice:      cost,
		TotalValue:     input.Quantity.Mul(cost).Round(2),
		UnitCost:       &cost,
		UnitSalePrice:  &sale,
		MarginPercent:  &margin,
		SupplierID:     input.SupplierID,
		BatchID:        &batchID,
		Reason:         strings.TrimSpace(input.Reason),
		Notes:          input.Notes,
		UserID:         input.UserID,
		UserName:       input.UserName,
		ServiceOrderID: input.ServiceOrderID,
		OccurredAt:     now,
		CreatedAt:      now,
	}
	if err := movRepo.Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// applyExit consume lotes en orden FIFO y registra un movimiento EXIT con el desglose.
// Si el stock no alcanza no se descuenta nada.
func (uc *RegisterMovementUseCase) applyExit(
	ctx context.Context,
	movRepo repository.MovementRepository,
	batchRepo repository.BatchRepository,
	product *entity.Product,
	input MovementInputDTO,
	now time.Time,
) (*entity.Movement, error) {
	records, err := inventory.NewFIFOEngine(batchRepo).Consume(ctx, product.ID, input.Quantity, now)
	if err != nil {
		return nil, err
	}
	movID, err := movRepo.NextID(ctx)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Quantity.Mul(r.UnitCost))
	}
	unitCost := entity.WeightedUnitCost(records)

	mov := &entity.Movement{
		ID:             movID,
		TransactionID:  uuid.New().String(),
		ProductID:      product.ID,
		Type:           entity.MovementTypeExit,
		Quantity:       input.Quantity,
		UnitPrice:      unitCost,
		TotalValue:     total.Round(2),
		UnitCost:       &unitCost,
		Consumptions:   records,
		Reason:         strings.TrimSpace(input.Reason),
		Notes:          input.Notes,
		UserID:         input.UserID,
		UserName:       input.UserName,
		ServiceOrderID: input.ServiceOrderID,
		OccurredAt:     now,
		CreatedAt:      now,
	}
	if err := movRepo.Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// DefaultLotNumber genera LOTE-{producto}-{AAAAMMDDhhmmss} en la zona horaria indicada.
func DefaultLotNumber(productID int64, at time.Time, loc *time.Location) string {
	return fmt.Sprintf("LOTE-%d-%s", productID, at.In(loc).Format("20060102150405"))
}

func validateMovement(in MovementInputDTO) error {
	if in.Type != entity.MovementTypeEntry && in.Type != entity.MovementTypeExit {
		return domain.NewValidationError("type", "el tipo debe ser ENTRY o EXIT")
	}
	if in.ProductID <= 0 {
		return domain.NewValidationError("product_id", "producto requerido")
	}
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return domain.NewValidationError("reason", "el motivo es obligatorio")
	}

	if in.Type == entity.MovementTypeExit {
		if in.SupplierID != nil {
			return domain.NewValidationError("supplier_id", "una salida no lleva proveedor")
		}
		return nil
	}

	if in.UnitCost == nil || in.UnitCost.LessThanOrEqual(decimal.Zero) {
		return domain.NewValidationError("unit_cost", "el costo unitario debe ser mayor que cero")
	}
	if in.UnitSalePrice == nil && in.MarginPercent == nil {
		return domain.NewValidationError("unit_sale_price", "informe precio de venta o margen")
	}
	if in.UnitSalePrice != nil && in.UnitSalePrice.LessThan(decimal.Zero) {
		return domain.NewValidationError("unit_sale_price", "el precio de venta no puede ser negativo")
	}
	if in.ExpiryDate != nil && in.EntryDate != nil && in.ExpiryDate.Before(*in.EntryDate) {
		return domain.NewValidationError("expiry_date", "el vencimiento es anterior a la entrada")
	}
	return nil
}

// movementRun acompaña un registro: estado actual, span y métricas.
type movementRun struct {
	uc        *RegisterMovementUseCase
	span      trace.Span
	productID int64
	movType   string
	state     string
	started   time.Time
}

func (uc *RegisterMovementUseCase) startRun(span trace.Span, productID int64, movType string) *movementRun {
	r := &movementRun{uc: uc, span: span, productID: productID, movType: movType, started: time.Now()}
	r.to(StateReceived)
	return r
}

func (r *movementRun) to(state string) {
	r.state = state
	r.span.AddEvent(state)
	r.uc.log.Debug().
		Int64("product_id", r.productID).
		Str("movement_type", r.movType).
		Str("state", state).
		Msg("movimiento: transición")
}

func (r *movementRun) commit(mov *entity.Movement) {
	r.to(StateCommitted)
	r.span.SetAttributes(attribute.Int64("movement_id", mov.ID))
	r.uc.observer.MovementFinished(r.movType, StateCommitted, time.Since(r.started))
	r.uc.log.Info().
		Int64("product_id", r.productID).
		Str("movement_type", r.movType).
		Int64("movement_id", mov.ID).
		Str("transaction_id", mov.TransactionID).
		Str("quantity", mov.Quantity.String()).
		Str("user_id", mov.UserID).
		Msg("movimiento registrado")
}

// fail cierra el registro en REJECTED (validación, producto inexistente o inactivo) o FAILED.
func (r *movementRun) fail(err error) error {
	var validation *domain.ValidationError
	state := StateFailed
	if errors.As(err, &validation) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrProductInactive) {
		state = StateRejected
	}
	r.to(state)
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, err.Error())
	r.uc.observer.MovementFinished(r.movType, state, time.Since(r.started))

	var ev *zerolog.Event
	switch {
	case errors.Is(err, domain.ErrInsufficientBatchBalance):
		ev = r.uc.log.Error().Bool("invariant_violation", true)
	case state == StateRejected, errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConcurrencyConflict):
		ev = r.uc.log.Warn()
	default:
		ev = r.uc.log.Error()
	}
	ev.Int64("product_id", r.productID).
		Str("movement_type", r.movType).
		Str("state", state).
		Err(err).
		Msg("movimiento no registrado")
	return err
}
