package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

// batchRepo implementa repository.BatchRepository. Las escrituras exigen transacción.
type batchRepo struct {
	s  *Store
	tx *tx
}

var _ repository.BatchRepository = (*batchRepo)(nil)

func (r *batchRepo) Create(_ context.Context, b *entity.Batch) error {
	if r.tx == nil {
		return errNoTx
	}
	b.ID = r.s.nextID(&r.s.batchSeq)
	r.tx.batches[b.ID] = cloneBatch(b)
	r.tx.newBatches[b.ID] = true
	r.tx.dirtyBatches[b.ID] = true
	return nil
}

func (r *batchRepo) GetByID(_ context.Context, id int64) (*entity.Batch, error) {
	if r.tx != nil {
		return cloneBatch(r.tx.batch(id)), nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneBatch(r.s.batches[id]), nil
}

func (r *batchRepo) ListConsumable(ctx context.Context, productID int64) ([]*entity.Batch, error) {
	all, err := r.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, b := range all {
		if b.Consumable() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *batchRepo) ListByProduct(_ context.Context, productID int64) ([]*entity.Batch, error) {
	var out []*entity.Batch
	if r.tx != nil {
		out = r.tx.batchesOf(productID)
	} else {
		r.s.mu.RLock()
		for _, b := range r.s.batches {
			if b.ProductID == productID {
				out = append(out, cloneBatch(b))
			}
		}
		r.s.mu.RUnlock()
	}
	sortFIFO(out)
	return out, nil
}

func (r *batchRepo) List(_ context.Context, f repository.BatchFilter) ([]*entity.Batch, error) {
	r.s.mu.RLock()
	out := make([]*entity.Batch, 0)
	for _, b := range r.s.batches {
		if f.OnlyAvailable && !b.Consumable() {
			continue
		}
		if f.SupplierID != nil && (b.SupplierID == nil || *b.SupplierID != *f.SupplierID) {
			continue
		}
		out = append(out, cloneBatch(b))
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return entity.FIFOBefore(out[j], out[i]) })
	return page(out, f.Limit, f.Offset), nil
}

func (r *batchRepo) Decrement(_ context.Context, batchID int64, amount decimal.Decimal, now time.Time) (*entity.Batch, error) {
	if r.tx == nil {
		return nil, errNoTx
	}
	b := r.tx.batch(batchID)
	if b == nil {
		return nil, domain.ErrNotFound
	}
	if err := b.Decrement(amount, now); err != nil {
		return nil, err
	}
	r.tx.dirtyBatches[batchID] = true
	return cloneBatch(b), nil
}
