package inventory

import (
	"github.com/jhoicas/autocare-estoque/internal/application/dto"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
)

// ToProductResponse mapea un producto con su agregado.
func ToProductResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:               p.ID,
		Code:             p.Code,
		Name:             p.Name,
		Description:      p.Description,
		Category:         p.Category,
		Unit:             p.Unit,
		MinimumQuantity:  p.MinimumQuantity,
		Location:         p.Location,
		SupplierID:       p.SupplierID,
		Active:           p.Active,
		Discontinued:     p.Discontinued,
		CurrentQuantity:  p.CurrentQuantity,
		AverageCost:      p.AverageCost,
		SalePrice:        p.SalePrice,
		Status:           p.Status,
		LastMovementAt:   p.LastMovementAt,
		LastMovementType: p.LastMovementType,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ToMovementResponse mapea un movimiento con su desglose de lotes.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	out := dto.MovementResponse{
		ID:             m.ID,
		TransactionID:  m.TransactionID,
		ProductID:      m.ProductID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		TotalValue:     m.TotalValue,
		UnitCost:       m.UnitCost,
		UnitSalePrice:  m.UnitSalePrice,
		MarginPercent:  m.MarginPercent,
		SupplierID:     m.SupplierID,
		BatchID:        m.BatchID,
		Reason:         m.Reason,
		Notes:          m.Notes,
		UserID:         m.UserID,
		UserName:       m.UserName,
		ServiceOrderID: m.ServiceOrderID,
		OccurredAt:     m.OccurredAt,
	}
	for _, c := range m.Consumptions {
		out.Consumptions = append(out.Consumptions, dto.ConsumptionResponse{
			BatchID:   c.BatchID,
			LotNumber: c.LotNumber,
			Quantity:  c.Quantity,
			UnitCost:  c.UnitCost,
			EntryDate: c.EntryDate,
		})
	}
	return out
}

// ToBatchResponse mapea un lote.
func ToBatchResponse(b *entity.Batch) dto.BatchResponse {
	return dto.BatchResponse{
		ID:                b.ID,
		ProductID:         b.ProductID,
		EntryMovementID:   b.EntryMovementID,
		SupplierID:        b.SupplierID,
		LotNumber:         b.LotNumber,
		InitialQuantity:   b.InitialQuantity,
		RemainingQuantity: b.RemainingQuantity,
		UnitCost:          b.UnitCost,
		UnitSalePrice:     b.UnitSalePrice,
		MarginPercent:     b.MarginPercent,
		EntryDate:         b.EntryDate,
		ExpiryDate:        b.ExpiryDate,
		Active:            b.Active,
		CreatedAt:         b.CreatedAt,
	}
}

func toBatchResponses(batches []*entity.Batch) []dto.BatchResponse {
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, ToBatchResponse(b))
	}
	return out
}
