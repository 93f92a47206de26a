package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
)

// BatchStore es lo que el motor FIFO necesita del almacén de lotes.
// Debe estar atado a la misma transacción que el resto de la salida.
type BatchStore interface {
	ListConsumable(ctx context.Context, productID int64) ([]*entity.Batch, error)
	Decrement(ctx context.Context, batchID int64, amount decimal.Decimal, now time.Time) (*entity.Batch, error)
}

// FIFOEngine consume lotes del más antiguo al más nuevo.
type FIFOEngine struct {
	store BatchStore
}

// NewFIFOEngine construye el motor sobre un BatchStore transaccional.
func NewFIFOEngine(store BatchStore) *FIFOEngine {
	return &FIFOEngine{store: store}
}

// Consume descuenta quantity de los lotes consumibles del producto y devuelve el desglose.
// La factibilidad se verifica antes de tocar cualquier lote; si falla no hay decrementos.
func (e *FIFOEngine) Consume(ctx context.Context, productID int64, quantity decimal.Decimal, now time.Time) ([]entity.ConsumptionRecord, error) {
	batches, err := e.store.ListConsumable(ctx, productID)
	if err != nil {
		return nil, err
	}
	plan, err := PlanConsumption(batches, quantity)
	if err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			stockErr.ProductID = productID
		}
		return nil, err
	}
	for _, rec := range plan {
		if _, err := e.store.Decrement(ctx, rec.BatchID, rec.Quantity, now); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// PlanConsumption calcula el desglose FIFO sin modificar los lotes.
// Devuelve *domain.InsufficientStockError si la suma de saldos no alcanza.
func PlanConsumption(batches []*entity.Batch, quantity decimal.Decimal) ([]entity.ConsumptionRecord, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}
	ordered := make([]*entity.Batch, 0, len(batches))
	available := decimal.Zero
	for _, b := range batches {
		if !b.Consumable() {
			continue
		}
		ordered = append(ordered, b)
		available = available.Add(b.RemainingQuantity)
	}
	if available.LessThan(quantity) {
		return nil, &domain.InsufficientStockError{Available: available, Requested: quantity}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return entity.FIFOBefore(ordered[i], ordered[j]) })

	pending := quantity
	plan := make([]entity.ConsumptionRecord, 0, len(ordered))
	for _, b := range ordered {
		if pending.IsZero() {
			break
		}
		take := decimal.Min(b.RemainingQuantity, pending)
		plan = append(plan, entity.ConsumptionRecord{
			BatchID:   b.ID,
			LotNumber: b.LotNumber,
			Quantity:  take,
			UnitCost:  b.UnitCost,
			EntryDate: b.EntryDate,
		})
		pending = pending.Sub(take)
	}
	return plan, nil
}
