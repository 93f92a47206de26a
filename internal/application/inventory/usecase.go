package inventory

import (
	"context"

	"github.com/jhoicas/autocare-estoque/internal/application/dto"
)

// RegisterMovementFromRequest adapta el request HTTP al caso de uso RegisterMovement(ctx, MovementInputDTO).
// Usar desde handlers HTTP o desde otros casos de uso que tengan la identidad del usuario y dto.RegisterMovementRequest.
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, userID, userName string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	input := MovementInputDTO{
		UserID:         userID,
		UserName:       userName,
		ProductID:      in.ProductID,
		Type:           in.Type,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		UnitSalePrice:  in.UnitSalePrice,
		MarginPercent:  in.MarginPercent,
		SupplierID:     in.SupplierID,
		LotNumber:      in.LotNumber,
		EntryDate:      in.EntryDate,
		ExpiryDate:     in.ExpiryDate,
		Reason:         in.Reason,
		Notes:          in.Notes,
		ServiceOrderID: in.ServiceOrderID,
	}
	mov, err := uc.RegisterMovement(ctx, input)
	if err != nil {
		return nil, err
	}
	out := ToMovementResponse(mov)
	return &out, nil
}
