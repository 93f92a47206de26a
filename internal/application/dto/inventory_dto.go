package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// En entradas se exige unit_cost y al menos unit_sale_price o margin_percent.
type RegisterMovementRequest struct {
	ProductID      int64            `json:"product_id"`
	Type           string           `json:"type"` // ENTRY | EXIT
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	UnitSalePrice  *decimal.Decimal `json:"unit_sale_price,omitempty"`
	MarginPercent  *decimal.Decimal `json:"margin_percent,omitempty"`
	SupplierID     *int64           `json:"supplier_id,omitempty"`
	LotNumber      string           `json:"lot_number,omitempty"`
	EntryDate      *time.Time       `json:"entry_date,omitempty"`
	ExpiryDate     *time.Time       `json:"expiry_date,omitempty"`
	Reason         string           `json:"reason"`
	Notes          string           `json:"notes,omitempty"`
	ServiceOrderID *int64           `json:"service_order_id,omitempty"`
}

// StockAdjustmentRequest body para POST /api/products/:id/stock-adjustment.
// Los precios solo se usan si el ajuste genera una entrada.
type StockAdjustmentRequest struct {
	TargetQuantity decimal.Decimal  `json:"target_quantity"`
	Reason         string           `json:"reason,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	UnitSalePrice  *decimal.Decimal `json:"unit_sale_price,omitempty"`
	MarginPercent  *decimal.Decimal `json:"margin_percent,omitempty"`
}

// ConsumptionResponse porción de un lote consumida por una salida.
type ConsumptionResponse struct {
	BatchID   int64           `json:"batch_id"`
	LotNumber string          `json:"lot_number,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	EntryDate time.Time       `json:"entry_date"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID             int64                 `json:"id"`
	TransactionID  string                `json:"transaction_id"`
	ProductID      int64                 `json:"product_id"`
	Type           string                `json:"type"`
	Quantity       decimal.Decimal       `json:"quantity"`
	UnitPrice      decimal.Decimal       `json:"unit_price"`
	TotalValue     decimal.Decimal       `json:"total_value"`
	UnitCost       *decimal.Decimal      `json:"unit_cost,omitempty"`
	UnitSalePrice  *decimal.Decimal      `json:"unit_sale_price,omitempty"`
	MarginPercent  *decimal.Decimal      `json:"margin_percent,omitempty"`
	SupplierID     *int64                `json:"supplier_id,omitempty"`
	BatchID        *int64                `json:"batch_id,omitempty"`
	Consumptions   []ConsumptionResponse `json:"consumptions,omitempty"`
	Reason         string                `json:"reason"`
	Notes          string                `json:"notes,omitempty"`
	UserID         string                `json:"user_id"`
	UserName       string                `json:"user_name,omitempty"`
	ServiceOrderID *int64                `json:"service_order_id,omitempty"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

// MovementListRequest filtros de GET /api/inventory/movements.
type MovementListRequest struct {
	PageRequest
	ProductID *int64 `query:"product_id"`
	Type      string `query:"type"`
}

// MovementListResponse lista paginada de movimientos (más recientes primero).
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockAdjustmentResponse resultado de un ajuste. Movement es nil si no hubo diferencia.
type StockAdjustmentResponse struct {
	ProductID        int64             `json:"product_id"`
	PreviousQuantity decimal.Decimal   `json:"previous_quantity"`
	NewQuantity      decimal.Decimal   `json:"new_quantity"`
	Difference       decimal.Decimal   `json:"difference"`
	Movement         *MovementResponse `json:"movement,omitempty"`
	Product          ProductResponse   `json:"product"`
}

// BatchResponse salida de un lote.
type BatchResponse struct {
	ID                int64            `json:"id"`
	ProductID         int64            `json:"product_id"`
	EntryMovementID   int64            `json:"entry_movement_id"`
	SupplierID        *int64           `json:"supplier_id,omitempty"`
	LotNumber         string           `json:"lot_number,omitempty"`
	InitialQuantity   decimal.Decimal  `json:"initial_quantity"`
	RemainingQuantity decimal.Decimal  `json:"remaining_quantity"`
	UnitCost          decimal.Decimal  `json:"unit_cost"`
	UnitSalePrice     *decimal.Decimal `json:"unit_sale_price,omitempty"`
	MarginPercent     *decimal.Decimal `json:"margin_percent,omitempty"`
	EntryDate         time.Time        `json:"entry_date"`
	ExpiryDate        *time.Time       `json:"expiry_date,omitempty"`
	Active            bool             `json:"active"`
	CreatedAt         time.Time        `json:"created_at"`
}

// BatchListRequest filtros de GET /api/inventory/batches.
type BatchListRequest struct {
	PageRequest
	OnlyAvailable *bool  `query:"only_available"`
	SupplierID    *int64 `query:"supplier_id"`
}

// BatchListResponse lista de lotes.
type BatchListResponse struct {
	Items []BatchResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
