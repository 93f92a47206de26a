package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeEntry = "ENTRY" // entrada: crea un lote
	MovementTypeExit  = "EXIT"  // salida: consume lotes en orden FIFO
)

// ConsumptionRecord es la porción de un lote consumida por una salida.
type ConsumptionRecord struct {
	BatchID   int64           `json:"batch_id"`
	LotNumber string          `json:"lot_number,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	EntryDate time.Time       `json:"entry_date"`
}

// Movement es el registro inmutable de una entrada o salida. Nunca se actualiza ni se borra.
type Movement struct {
	ID             int64
	TransactionID  string
	ProductID      int64
	Type           string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal // costo unitario en entradas, costo FIFO promedio en salidas
	TotalValue     decimal.Decimal
	UnitCost       *decimal.Decimal
	UnitSalePrice  *decimal.Decimal
	MarginPercent  *decimal.Decimal
	SupplierID     *int64
	BatchID        *int64 // lote creado (solo entradas)
	Consumptions   []ConsumptionRecord
	Reason         string
	Notes          string
	UserID         string
	UserName       string
	ServiceOrderID *int64 // referencia opaca a la orden de servicio
	OccurredAt     time.Time
	CreatedAt      time.Time
}

// WeightedUnitCost devuelve el costo unitario promedio de una lista de consumos.
func WeightedUnitCost(records []ConsumptionRecord) decimal.Decimal {
	qty := decimal.Zero
	total := decimal.Zero
	for _, r := range records {
		qty = qty.Add(r.Quantity)
		total = total.Add(r.Quantity.Mul(r.UnitCost))
	}
	if qty.IsZero() {
		return decimal.Zero
	}
	return total.Div(qty).Round(2)
}
