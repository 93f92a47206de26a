package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

var errNoTx = errors.New("memory: escritura fuera de transacción")

// movementRepo implementa repository.MovementRepository. Solo inserción.
type movementRepo struct {
	s  *Store
	tx *tx
}

var _ repository.MovementRepository = (*movementRepo)(nil)

func (r *movementRepo) NextID(context.Context) (int64, error) {
	return r.s.nextID(&r.s.movementSeq), nil
}

func (r *movementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if r.tx == nil {
		return errNoTx
	}
	if m.ID == 0 {
		id, _ := r.NextID(ctx)
		m.ID = id
	}
	r.tx.movements = append(r.tx.movements, cloneMovement(m))
	return nil
}

func (r *movementRepo) GetByID(_ context.Context, id int64) (*entity.Movement, error) {
	for _, m := range r.view() {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	for _, m := range r.view() {
		if f.ProductID != nil && m.ProductID != *f.ProductID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	sortNewestFirst(out)
	return page(out, f.Limit, f.Offset), nil
}

func (r *movementRepo) LastByProduct(_ context.Context, productID int64) (*entity.Movement, error) {
	var last *entity.Movement
	for _, m := range r.view() {
		if m.ProductID != productID {
			continue
		}
		if last == nil || newer(m, last) {
			last = m
		}
	}
	return cloneMovement(last), nil
}

// view movimientos confirmados más los de la transacción en curso.
func (r *movementRepo) view() []*entity.Movement {
	r.s.mu.RLock()
	out := make([]*entity.Movement, 0, len(r.s.movements))
	out = append(out, r.s.movements...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		out = append(out, r.tx.movements...)
	}
	return out
}

func newer(a, b *entity.Movement) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.After(b.OccurredAt)
	}
	return a.ID > b.ID
}

func sortNewestFirst(movs []*entity.Movement) {
	sort.Slice(movs, func(i, j int) bool { return newer(movs[i], movs[j]) })
}
