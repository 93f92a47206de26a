package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unidades de medida admitidas.
const (
	UnitUnit        = "UN"
	UnitPiece       = "PC"
	UnitKilogram    = "KG"
	UnitLiter       = "LT"
	UnitMeter       = "MT"
	UnitSquareMeter = "M2"
	UnitCubicMeter  = "M3"
)

// ValidUnit indica si u es una de las unidades de medida admitidas.
func ValidUnit(u string) bool {
	switch u {
	case UnitUnit, UnitPiece, UnitKilogram, UnitLiter, UnitMeter, UnitSquareMeter, UnitCubicMeter:
		return true
	}
	return false
}

// Estados calculados del producto.
const (
	StatusAvailable    = "DISPONIVEL"
	StatusLowStock     = "BAIXO_ESTOQUE"
	StatusOutOfStock   = "SEM_ESTOQUE"
	StatusDiscontinued = "DESCONTINUADO"
)

// Product representa una pieza o insumo del taller.
// CurrentQuantity, AverageCost, SalePrice, Status y LastMovement* son derivados de los lotes
// y solo se escriben al recalcular el agregado.
type Product struct {
	ID              int64
	Code            string // código único
	Name            string
	Description     string
	Category        string
	Unit            string
	MinimumQuantity decimal.Decimal
	Location        string // estante / repisa
	SupplierID      *int64 // proveedor habitual (referencia externa)
	Active          bool
	Discontinued    bool

	CurrentQuantity  decimal.Decimal
	AverageCost      decimal.Decimal
	SalePrice        decimal.Decimal
	Status           string
	LastMovementAt   *time.Time
	LastMovementType string

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
