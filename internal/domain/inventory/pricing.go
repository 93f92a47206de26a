package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/autocare-estoque/internal/domain"
)

var (
	hundred         = decimal.NewFromInt(100)
	marginTolerance = decimal.RequireFromString("0.01")
	priceDecimals   = int32(2)
)

// SalePrice calcula el precio de venta a partir del costo y el margen en porcentaje.
// PrecioVenta = round(Costo * (1 + Margen/100), 2); se redondea solo al final.
func SalePrice(cost, marginPct decimal.Decimal) decimal.Decimal {
	return cost.Mul(decimal.NewFromInt(1).Add(marginPct.Div(hundred))).Round(priceDecimals)
}

// MarginPercent calcula el margen en porcentaje a partir del costo y el precio de venta.
// Margen = round((PrecioVenta - Costo) / Costo * 100, 2). Indefinido si Costo <= 0.
func MarginPercent(cost, salePrice decimal.Decimal) (decimal.Decimal, error) {
	if cost.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrUndefinedMargin
	}
	return salePrice.Sub(cost).Mul(hundred).Div(cost).Round(priceDecimals), nil
}

// Prices es la terna costo / precio de venta / margen de una entrada.
type Prices struct {
	UnitCost      decimal.Decimal
	UnitSalePrice decimal.Decimal
	MarginPercent decimal.Decimal
}

// ResolvePrices completa el valor faltante de la terna. Se necesita al menos precio de venta o margen.
// Si llegan ambos y no cuadran (más de 0.01 de diferencia), manda el precio de venta y el margen se recalcula.
func ResolvePrices(cost decimal.Decimal, salePrice, marginPct *decimal.Decimal) (Prices, error) {
	if cost.LessThanOrEqual(decimal.Zero) {
		return Prices{}, domain.NewValidationError("unit_cost", "el costo unitario debe ser mayor que cero")
	}
	switch {
	case salePrice == nil && marginPct == nil:
		return Prices{}, domain.NewValidationError("unit_sale_price", "informe precio de venta o margen")
	case salePrice == nil:
		sale := SalePrice(cost, *marginPct)
		if sale.LessThan(decimal.Zero) {
			return Prices{}, domain.NewValidationError("margin_percent", "el margen produce un precio de venta negativo")
		}
		return Prices{UnitCost: cost, UnitSalePrice: sale, MarginPercent: *marginPct}, nil
	}

	if salePrice.LessThan(decimal.Zero) {
		return Prices{}, domain.NewValidationError("unit_sale_price", "el precio de venta no puede ser negativo")
	}
	// El margen se deriva del precio tal como queda guardado.
	sale := salePrice.Round(priceDecimals)
	recomputed, err := MarginPercent(cost, sale)
	if err != nil {
		return Prices{}, err
	}
	margin := recomputed
	if marginPct != nil && marginPct.Sub(recomputed).Abs().LessThanOrEqual(marginTolerance) {
		margin = *marginPct
	}
	return Prices{UnitCost: cost, UnitSalePrice: sale, MarginPercent: margin}, nil
}
