package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, transaction_id, product_id, type, quantity, unit_price, total_value, unit_cost,
	unit_sale_price, margin_percent, supplier_id, batch_id, consumptions, reason, notes, user_id, user_name,
	service_order_id, occurred_at, created_at`

// MovementRepo libro de movimientos sobre PostgreSQL: solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// NextID reserva un id de la secuencia de inventory_movements.
func (r *MovementRepo) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `SELECT nextval(pg_get_serial_sequence('inventory_movements', 'id'))`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("next movement id: %w", err)
	}
	return id, nil
}

// Append inserta el movimiento. Si ID es cero lo asigna la secuencia.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if m.ID == 0 {
		id, err := r.NextID(ctx)
		if err != nil {
			return err
		}
		m.ID = id
	}
	consumptions := m.Consumptions
	if consumptions == nil {
		consumptions = []entity.ConsumptionRecord{}
	}
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TransactionID, m.ProductID, m.Type, m.Quantity, m.UnitPrice, m.TotalValue, m.UnitCost,
		m.UnitSalePrice, m.MarginPercent, m.SupplierID, m.BatchID, consumptions, m.Reason, m.Notes,
		m.UserID, m.UserName, m.ServiceOrderID, m.OccurredAt, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento; (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id int64) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List movimientos filtrados, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE ($1::bigint IS NULL OR product_id = $1)
		  AND ($2 = '' OR type = $2)
		ORDER BY occurred_at DESC, id DESC`
	args := []any{f.ProductID, f.Type}
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += " LIMIT $3 OFFSET $4"
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// LastByProduct último movimiento del producto o nil.
func (r *MovementRepo) LastByProduct(ctx context.Context, productID int64) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_movements
		WHERE product_id = $1 ORDER BY occurred_at DESC, id DESC LIMIT 1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last movement: %w", err)
	}
	return m, nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(
		&m.ID, &m.TransactionID, &m.ProductID, &m.Type, &m.Quantity, &m.UnitPrice, &m.TotalValue, &m.UnitCost,
		&m.UnitSalePrice, &m.MarginPercent, &m.SupplierID, &m.BatchID, &m.Consumptions, &m.Reason, &m.Notes,
		&m.UserID, &m.UserName, &m.ServiceOrderID, &m.OccurredAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
