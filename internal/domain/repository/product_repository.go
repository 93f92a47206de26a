package repository

import (
	"context"

	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
)

// ProductFilter filtros de listado de productos.
// Active nil equivale a "solo activos".
type ProductFilter struct {
	Search     string
	Category   string
	SupplierID *int64
	LowStock   bool // BAIXO_ESTOQUE o SEM_ESTOQUE
	Active     *bool
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product.
// GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	// Update persiste solo datos maestros; los campos derivados se ignoran.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateAggregate persiste solo los campos derivados (cantidad, costo, precio, estado).
	UpdateAggregate(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
}
