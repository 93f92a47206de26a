package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, code, name, description, category, unit, minimum_quantity, location, supplier_id,
	active, discontinued, current_quantity, average_cost, sale_price, status, last_movement_at,
	last_movement_type, version, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto y completa su ID.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (code, name, description, category, unit, minimum_quantity, location, supplier_id,
			active, discontinued, current_quantity, average_cost, sale_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, version`
	err := r.q.QueryRow(ctx, query,
		p.Code, p.Name, p.Description, p.Category, p.Unit, p.MinimumQuantity, p.Location, p.SupplierID,
		p.Active, p.Discontinued, p.CurrentQuantity, p.AverageCost, p.SalePrice, p.Status, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID, &p.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID; (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetByCode obtiene un producto por código (sin distinguir mayúsculas).
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE lower(code) = lower($1)`, code)
}

// GetForUpdate bloquea la fila del producto (SELECT FOR UPDATE) hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Update actualiza datos maestros. Nunca toca cantidades, costos ni estado.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET name = $2, description = $3, category = $4, unit = $5, minimum_quantity = $6,
			location = $7, supplier_id = $8, active = $9, discontinued = $10, updated_at = $11,
			version = version + 1
		WHERE id = $1
		RETURNING version`
	err := r.q.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Category, p.Unit, p.MinimumQuantity,
		p.Location, p.SupplierID, p.Active, p.Discontinued, p.UpdatedAt,
	).Scan(&p.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// UpdateAggregate persiste solo los campos derivados de los lotes.
func (r *ProductRepo) UpdateAggregate(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET current_quantity = $2, average_cost = $3, sale_price = $4, status = $5,
			last_movement_at = $6, last_movement_type = $7, updated_at = $8, version = version + 1
		WHERE id = $1
		RETURNING version`
	err := r.q.QueryRow(ctx, query,
		p.ID, p.CurrentQuantity, p.AverageCost, p.SalePrice, p.Status,
		p.LastMovementAt, p.LastMovementType, p.UpdatedAt,
	).Scan(&p.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update product aggregate: %w", err)
	}
	return nil
}

// List lista productos filtrados, por ID ascendente.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	active := true
	if f.Active != nil {
		active = *f.Active
	}
	where = append(where, "active = "+arg(active))
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf("(code ILIKE %s OR name ILIKE %s OR description ILIKE %s)", p, p, p))
	}
	if f.Category != "" {
		where = append(where, "lower(category) = lower("+arg(f.Category)+")")
	}
	if f.SupplierID != nil {
		where = append(where, "supplier_id = "+arg(*f.SupplierID))
	}
	if f.LowStock {
		where = append(where, fmt.Sprintf("status IN (%s, %s)", arg(entity.StatusLowStock), arg(entity.StatusOutOfStock)))
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Category, &p.Unit, &p.MinimumQuantity, &p.Location,
		&p.SupplierID, &p.Active, &p.Discontinued, &p.CurrentQuantity, &p.AverageCost, &p.SalePrice,
		&p.Status, &p.LastMovementAt, &p.LastMovementType, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
