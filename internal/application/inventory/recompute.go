package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/inventory"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

// lockProduct relee el producto con bloqueo de fila dentro de la transacción.
func lockProduct(ctx context.Context, productRepo repository.ProductRepository, id int64) (*entity.Product, error) {
	product, err := productRepo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// RecomputeProduct recalcula el agregado del producto a partir de sus lotes y de su último
// movimiento y lo persiste. Debe llamarse dentro de la transacción que modificó los lotes.
func RecomputeProduct(
	ctx context.Context,
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
	movRepo repository.MovementRepository,
	product *entity.Product,
	now time.Time,
) error {
	batches, err := batchRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("recalcular producto %d: %w", product.ID, err)
	}
	last, err := movRepo.LastByProduct(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("recalcular producto %d: %w", product.ID, err)
	}
	inventory.RecomputeAggregate(product, batches, last)
	product.UpdatedAt = now
	return productRepo.UpdateAggregate(ctx, product)
}
