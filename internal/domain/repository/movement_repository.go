package repository

import (
	"context"

	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
)

// MovementFilter filtros del listado de movimientos (más recientes primero).
type MovementFilter struct {
	ProductID *int64
	Type      string
	Limit     int
	Offset    int
}

// MovementRepository es el libro de movimientos: solo inserción.
type MovementRepository interface {
	// NextID reserva el id del próximo movimiento; la entrada lo necesita antes de crear su lote.
	NextID(ctx context.Context) (int64, error)
	Append(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id int64) (*entity.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
	// LastByProduct último movimiento del producto o nil.
	LastByProduct(ctx context.Context, productID int64) (*entity.Movement, error)
}
