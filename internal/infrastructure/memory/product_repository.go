package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

// productRepo implementa repository.ProductRepository. Con tx == nil opera directo sobre el Store.
type productRepo struct {
	s  *Store
	tx *tx
}

var _ repository.ProductRepository = (*productRepo)(nil)

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	if r.tx != nil {
		for _, staged := range r.tx.products {
			if strings.EqualFold(staged.Code, p.Code) {
				return domain.ErrDuplicate
			}
		}
	}
	r.s.mu.Lock()
	for _, existing := range r.s.products {
		if strings.EqualFold(existing.Code, p.Code) {
			r.s.mu.Unlock()
			return domain.ErrDuplicate
		}
	}
	r.s.productSeq++
	p.ID = r.s.productSeq
	if r.tx == nil {
		p.Version = 1
		r.s.products[p.ID] = cloneProduct(p)
		r.s.mu.Unlock()
		return nil
	}
	r.s.mu.Unlock()

	p.Version = 1
	r.tx.products[p.ID] = cloneProduct(p)
	r.tx.newProducts[p.ID] = true
	r.tx.dirtyProducts[p.ID] = true
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	if r.tx != nil {
		return cloneProduct(r.tx.product(id)), nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneProduct(r.s.products[id]), nil
}

func (r *productRepo) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.products {
		if strings.EqualFold(p.Code, code) {
			return cloneProduct(p), nil
		}
	}
	return nil, nil
}

// GetForUpdate no bloquea: registra la versión leída y el commit la valida.
func (r *productRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	if r.tx == nil {
		return r.GetByID(ctx, id)
	}
	p := r.tx.product(id)
	if p == nil {
		return nil, nil
	}
	r.tx.lockProduct(p)
	return cloneProduct(p), nil
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	return r.write(p.ID, func(dst *entity.Product) {
		dst.Name = p.Name
		dst.Description = p.Description
		dst.Category = p.Category
		dst.Unit = p.Unit
		dst.MinimumQuantity = p.MinimumQuantity
		dst.Location = p.Location
		dst.SupplierID = cloneInt(p.SupplierID)
		dst.Active = p.Active
		dst.Discontinued = p.Discontinued
		dst.UpdatedAt = p.UpdatedAt
	})
}

func (r *productRepo) UpdateAggregate(_ context.Context, p *entity.Product) error {
	return r.write(p.ID, func(dst *entity.Product) {
		dst.CurrentQuantity = p.CurrentQuantity
		dst.AverageCost = p.AverageCost
		dst.SalePrice = p.SalePrice
		dst.Status = p.Status
		dst.LastMovementAt = cloneTime(p.LastMovementAt)
		dst.LastMovementType = p.LastMovementType
		dst.UpdatedAt = p.UpdatedAt
	})
}

func (r *productRepo) write(id int64, apply func(dst *entity.Product)) error {
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		dst, ok := r.s.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		apply(dst)
		dst.Version++
		return nil
	}
	dst := r.tx.product(id)
	if dst == nil {
		return domain.ErrNotFound
	}
	r.tx.lockProduct(dst)
	apply(dst)
	r.tx.dirtyProducts[id] = true
	return nil
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	r.s.mu.RLock()
	out := make([]*entity.Product, 0)
	for _, p := range r.s.products {
		if matchesProduct(p, f) {
			out = append(out, cloneProduct(p))
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}
