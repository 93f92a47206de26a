package inventory_test

import "github.com/jhoicas/autocare-estoque/internal/application/dto"

func dtoMovementFilter(productID int64, movType string) dto.MovementListRequest {
	return dto.MovementListRequest{ProductID: &productID, Type: movType}
}
