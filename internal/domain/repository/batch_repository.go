package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
)

// BatchFilter filtros del listado global de lotes.
type BatchFilter struct {
	OnlyAvailable bool
	SupplierID    *int64
	Limit         int
	Offset        int
}

// BatchRepository es el almacén de lotes. Los lotes nunca se borran.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id int64) (*entity.Batch, error)
	// ListConsumable lotes activos con saldo, por entry_date ASC e id ASC.
	// En PostgreSQL bloquea las filas: usar solo dentro de la tx de una salida.
	ListConsumable(ctx context.Context, productID int64) ([]*entity.Batch, error)
	// ListByProduct todos los lotes del producto (incluye agotados) en el mismo orden FIFO.
	ListByProduct(ctx context.Context, productID int64) ([]*entity.Batch, error)
	// List lotes de todos los productos, más recientes primero.
	List(ctx context.Context, filter BatchFilter) ([]*entity.Batch, error)
	// Decrement falla con domain.ErrInsufficientBatchBalance si amount supera el saldo.
	Decrement(ctx context.Context, batchID int64, amount decimal.Decimal, now time.Time) (*entity.Batch, error)
}
