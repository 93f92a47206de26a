package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

// TxFunc recibe los repositorios atados a la transacción en curso.
type TxFunc func(
	movRepo repository.MovementRepository,
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
) error

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error nada de lo escrito queda visible (Rollback).
// Los conflictos de serialización se reportan como domain.ErrConcurrencyConflict.
type TxRunner interface {
	Run(ctx context.Context, fn TxFunc) error
}

// ProductLocker serializa el trabajo sobre un mismo producto.
// Lock respeta la cancelación de ctx; si no obtiene el lock devuelve domain.ErrConcurrencyConflict.
type ProductLocker interface {
	Lock(ctx context.Context, productID int64) (unlock func(), err error)
}

// MovementObserver recibe métricas del ciclo de vida de los movimientos.
type MovementObserver interface {
	MovementFinished(movementType, state string, elapsed time.Duration)
	LockAcquired(wait time.Duration)
	Retried(reason string)
}

// BatchReportGenerator genera el PDF con los lotes de un producto.
type BatchReportGenerator interface {
	GenerateBatchReport(ctx context.Context, product *entity.Product, batches []*entity.Batch, generatedAt time.Time) ([]byte, error)
}

type nopObserver struct{}

func (nopObserver) MovementFinished(string, string, time.Duration) {}
func (nopObserver) LockAcquired(time.Duration)                     {}
func (nopObserver) Retried(string)                                 {}

// NopObserver devuelve un observer que descarta todo.
func NopObserver() MovementObserver { return nopObserver{} }
