package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
)

func cloneProduct(p *entity.Product) *entity.Product {
	if p == nil {
		return nil
	}
	c := *p
	c.SupplierID = cloneInt(p.SupplierID)
	c.LastMovementAt = cloneTime(p.LastMovementAt)
	return &c
}

func cloneBatch(b *entity.Batch) *entity.Batch {
	if b == nil {
		return nil
	}
	c := *b
	c.SupplierID = cloneInt(b.SupplierID)
	c.UnitSalePrice = cloneDecimal(b.UnitSalePrice)
	c.MarginPercent = cloneDecimal(b.MarginPercent)
	c.ExpiryDate = cloneTime(b.ExpiryDate)
	return &c
}

func cloneMovement(m *entity.Movement) *entity.Movement {
	if m == nil {
		return nil
	}
	c := *m
	c.UnitCost = cloneDecimal(m.UnitCost)
	c.UnitSalePrice = cloneDecimal(m.UnitSalePrice)
	c.MarginPercent = cloneDecimal(m.MarginPercent)
	c.SupplierID = cloneInt(m.SupplierID)
	c.BatchID = cloneInt(m.BatchID)
	c.ServiceOrderID = cloneInt(m.ServiceOrderID)
	if m.Consumptions != nil {
		c.Consumptions = append([]entity.ConsumptionRecord(nil), m.Consumptions...)
	}
	return &c
}

func cloneInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneDecimal(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
