package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/autocare-estoque/internal/domain"
)

// Batch es un lote: una entrada concreta de stock con su propio costo y saldo.
// InitialQuantity y UnitCost no cambian nunca; RemainingQuantity solo decrece.
type Batch struct {
	ID                int64
	ProductID         int64
	EntryMovementID   int64
	SupplierID        *int64
	InitialQuantity   decimal.Decimal
	RemainingQuantity decimal.Decimal
	UnitCost          decimal.Decimal
	UnitSalePrice     *decimal.Decimal
	MarginPercent     *decimal.Decimal
	EntryDate         time.Time // clave de orden FIFO
	ExpiryDate        *time.Time
	LotNumber         string
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Consumable indica si el lote puede todavía ser consumido por una salida.
func (b *Batch) Consumable() bool {
	return b.Active && b.RemainingQuantity.GreaterThan(decimal.Zero)
}

// Decrement descuenta amount del saldo. Al llegar exactamente a cero el lote queda inactivo.
func (b *Batch) Decrement(amount decimal.Decimal, now time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	if !b.Active || amount.GreaterThan(b.RemainingQuantity) {
		return domain.ErrInsufficientBatchBalance
	}
	b.RemainingQuantity = b.RemainingQuantity.Sub(amount)
	if b.RemainingQuantity.IsZero() {
		b.Active = false
	}
	b.UpdatedAt = now
	return nil
}

// FIFOBefore define el orden total de consumo: fecha de entrada y, en empate, id menor.
func FIFOBefore(a, b *Batch) bool {
	if !a.EntryDate.Equal(b.EntryDate) {
		return a.EntryDate.Before(b.EntryDate)
	}
	return a.ID < b.ID
}
