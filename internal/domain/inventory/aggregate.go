package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
)

// RecomputeAggregate recalcula los campos derivados del producto a partir de todos sus lotes
// (activos y agotados) y del último movimiento. No existe otra vía para modificarlos.
func RecomputeAggregate(p *entity.Product, batches []*entity.Batch, last *entity.Movement) {
	qty := decimal.Zero
	value := decimal.Zero
	var latest, latestPriced *entity.Batch
	for _, b := range batches {
		if b.ProductID != p.ID {
			continue
		}
		if b.Active {
			qty = qty.Add(b.RemainingQuantity)
			value = value.Add(b.RemainingQuantity.Mul(b.UnitCost))
		}
		if latest == nil || entity.FIFOBefore(latest, b) {
			latest = b
		}
		if b.UnitSalePrice != nil && (latestPriced == nil || entity.FIFOBefore(latestPriced, b)) {
			latestPriced = b
		}
	}

	p.CurrentQuantity = qty
	p.AverageCost = AverageCost(qty, value, latest)
	if latestPriced != nil {
		p.SalePrice = *latestPriced.UnitSalePrice
	} else {
		p.SalePrice = decimal.Zero
	}
	p.Status = Status(qty, p.MinimumQuantity, p.Discontinued)
	if last != nil {
		at := last.OccurredAt
		p.LastMovementAt = &at
		p.LastMovementType = last.Type
	}
}

// AverageCost es el costo promedio ponderado por cantidad de los lotes activos:
// CostoPromedio = Σ(saldo * costo) / Σ saldo.
// Sin saldo se usa el costo de la última entrada para que el valor siga siendo mostrable.
func AverageCost(qty, value decimal.Decimal, latest *entity.Batch) decimal.Decimal {
	if qty.GreaterThan(decimal.Zero) {
		return value.Div(qty).Round(priceDecimals)
	}
	if latest != nil {
		return latest.UnitCost
	}
	return decimal.Zero
}

// Status clasifica el producto. DESCONTINUADO suprime la clasificación automática.
func Status(current, minimum decimal.Decimal, discontinued bool) string {
	switch {
	case discontinued:
		return entity.StatusDiscontinued
	case current.IsZero():
		return entity.StatusOutOfStock
	case current.LessThan(minimum):
		return entity.StatusLowStock
	default:
		return entity.StatusAvailable
	}
}
