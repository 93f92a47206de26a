package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `id, product_id, entry_movement_id, supplier_id, initial_quantity, remaining_quantity,
	unit_cost, unit_sale_price, margin_percent, entry_date, expiry_date, lot_number, active, created_at, updated_at`

// BatchRepo lotes sobre PostgreSQL. Decrement y ListConsumable deben usarse dentro de una tx.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// Create inserta el lote y completa su ID.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	query := `
		INSERT INTO inventory_batches (product_id, entry_movement_id, supplier_id, initial_quantity,
			remaining_quantity, unit_cost, unit_sale_price, margin_percent, entry_date, expiry_date,
			lot_number, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		b.ProductID, b.EntryMovementID, b.SupplierID, b.InitialQuantity, b.RemainingQuantity,
		b.UnitCost, b.UnitSalePrice, b.MarginPercent, b.EntryDate, b.ExpiryDate,
		b.LotNumber, b.Active, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote; (nil, nil) si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id int64) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, `SELECT `+batchColumns+` FROM inventory_batches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// ListConsumable bloquea (FOR UPDATE) y devuelve los lotes con saldo en orden FIFO.
// Solo para la salida dentro de la tx; las lecturas filtran ListByProduct.
func (r *BatchRepo) ListConsumable(ctx context.Context, productID int64) ([]*entity.Batch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM inventory_batches
		WHERE product_id = $1 AND active AND remaining_quantity > 0
		ORDER BY entry_date, id
		FOR UPDATE`, productID)
}

// ListByProduct todos los lotes del producto en orden FIFO.
func (r *BatchRepo) ListByProduct(ctx context.Context, productID int64) ([]*entity.Batch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM inventory_batches
		WHERE product_id = $1
		ORDER BY entry_date, id`, productID)
}

// List lotes de todos los productos, más recientes primero.
func (r *BatchRepo) List(ctx context.Context, f repository.BatchFilter) ([]*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM inventory_batches
		WHERE ($1 = false OR (active AND remaining_quantity > 0))
		  AND ($2::bigint IS NULL OR supplier_id = $2)
		ORDER BY entry_date DESC, id DESC`
	args := []any{f.OnlyAvailable, f.SupplierID}
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += " LIMIT $3 OFFSET $4"
	}
	return r.list(ctx, query, args...)
}

// Decrement descuenta amount solo si el saldo alcanza; al llegar a cero el lote queda inactivo.
func (r *BatchRepo) Decrement(ctx context.Context, batchID int64, amount decimal.Decimal, now time.Time) (*entity.Batch, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	query := `
		UPDATE inventory_batches
		SET remaining_quantity = remaining_quantity - $2,
			active = (remaining_quantity - $2) > 0,
			updated_at = $3
		WHERE id = $1 AND active AND remaining_quantity >= $2
		RETURNING ` + batchColumns
	b, err := scanBatch(r.q.QueryRow(ctx, query, batchID, amount, now))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("decrement batch: %w", err)
	}
	existing, getErr := r.GetByID(ctx, batchID)
	if getErr != nil {
		return nil, getErr
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrInsufficientBatchBalance
}

func (r *BatchRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Batch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(
		&b.ID, &b.ProductID, &b.EntryMovementID, &b.SupplierID, &b.InitialQuantity, &b.RemainingQuantity,
		&b.UnitCost, &b.UnitSalePrice, &b.MarginPercent, &b.EntryDate, &b.ExpiryDate, &b.LotNumber,
		&b.Active, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
