package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para registrar un producto. La cantidad arranca en cero:
// el stock solo entra por movimientos.
type CreateProductRequest struct {
	Code            string          `json:"code" validate:"required,min=1,max=50"`
	Name            string          `json:"name" validate:"required,min=1,max=200"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Unit            string          `json:"unit"`
	MinimumQuantity decimal.Decimal `json:"minimum_quantity"`
	Location        string          `json:"location"`
	SupplierID      *int64          `json:"supplier_id"`
}

// UpdateProductRequest entrada para actualizar datos maestros (nunca cantidades ni costos).
type UpdateProductRequest struct {
	Name            *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category"`
	Unit            *string          `json:"unit"`
	MinimumQuantity *decimal.Decimal `json:"minimum_quantity"`
	Location        *string          `json:"location"`
	SupplierID      *int64           `json:"supplier_id"`
}

// SetDiscontinuedRequest body de PUT /api/products/:id/discontinued.
type SetDiscontinuedRequest struct {
	Discontinued bool `json:"discontinued"`
}

// ProductListRequest filtros de GET /api/products.
type ProductListRequest struct {
	PageRequest
	Search     string `query:"search"`
	Category   string `query:"category"`
	SupplierID *int64 `query:"supplier_id"`
	LowStock   bool   `query:"low_stock"`
	Active     *bool  `query:"active"`
}

// ProductResponse salida de un producto con su agregado.
type ProductResponse struct {
	ID               int64           `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Category         string          `json:"category,omitempty"`
	Unit             string          `json:"unit"`
	MinimumQuantity  decimal.Decimal `json:"minimum_quantity"`
	Location         string          `json:"location,omitempty"`
	SupplierID       *int64          `json:"supplier_id,omitempty"`
	Active           bool            `json:"active"`
	Discontinued     bool            `json:"discontinued"`
	CurrentQuantity  decimal.Decimal `json:"current_quantity"`
	AverageCost      decimal.Decimal `json:"average_cost"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	Status           string          `json:"status"`
	LastMovementAt   *time.Time      `json:"last_movement_at,omitempty"`
	LastMovementType string          `json:"last_movement_type,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
