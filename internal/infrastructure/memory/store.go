// Package memory implementa los repositorios del inventario en memoria, con transacciones
// por superposición: las escrituras se acumulan y se aplican juntas al confirmar.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/autocare-estoque/internal/application/inventory"
	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
)

// Store contiene el estado confirmado.
type Store struct {
	mu        sync.RWMutex
	products  map[int64]*entity.Product
	batches   map[int64]*entity.Batch
	movements []*entity.Movement

	productSeq  int64
	batchSeq    int64
	movementSeq int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[int64]*entity.Product),
		batches:  make(map[int64]*entity.Batch),
	}
}

// ProductRepository repositorio de productos fuera de transacción.
func (s *Store) ProductRepository() repository.ProductRepository {
	return &productRepo{s: s}
}

// BatchRepository repositorio de lotes fuera de transacción (lecturas).
func (s *Store) BatchRepository() repository.BatchRepository {
	return &batchRepo{s: s}
}

// MovementRepository repositorio de movimientos fuera de transacción (lecturas).
func (s *Store) MovementRepository() repository.MovementRepository {
	return &movementRepo{s: s}
}

// TxRunner implementa inventory.TxRunner sobre el Store.
type TxRunner struct {
	s *Store
}

// NewTxRunner crea el TxRunner.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repositorios atados a una transacción nueva. Si fn falla nada se aplica.
// Al confirmar, si otro commit cambió un producto o lote leído por esta transacción,
// devuelve domain.ErrConcurrencyConflict.
func (r *TxRunner) Run(ctx context.Context, fn inventory.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newTx(r.s)
	if err := fn(&movementRepo{s: r.s, tx: tx}, &batchRepo{s: r.s, tx: tx}, &productRepo{s: r.s, tx: tx}); err != nil {
		return err
	}
	return tx.commit()
}

// tx acumula copias de trabajo. Se valida al confirmar que los productos bloqueados o escritos
// y los lotes escritos no hayan cambiado desde que esta transacción los leyó.
type tx struct {
	s *Store

	products       map[int64]*entity.Product
	productVersion map[int64]int64 // versión leída; solo filas bloqueadas o escritas
	dirtyProducts  map[int64]bool
	newProducts    map[int64]bool

	batches       map[int64]*entity.Batch
	batchSnapshot map[int64]entity.Batch // estado confirmado al leer
	dirtyBatches  map[int64]bool
	newBatches    map[int64]bool

	movements []*entity.Movement
}

func newTx(s *Store) *tx {
	return &tx{
		s:              s,
		products:       make(map[int64]*entity.Product),
		productVersion: make(map[int64]int64),
		dirtyProducts:  make(map[int64]bool),
		newProducts:    make(map[int64]bool),
		batches:        make(map[int64]*entity.Batch),
		batchSnapshot:  make(map[int64]entity.Batch),
		dirtyBatches:   make(map[int64]bool),
		newBatches:     make(map[int64]bool),
	}
}

// product devuelve la copia de trabajo del producto o nil si no existe.
func (t *tx) product(id int64) *entity.Product {
	if p, ok := t.products[id]; ok {
		return p
	}
	t.s.mu.RLock()
	committed, ok := t.s.products[id]
	var p *entity.Product
	if ok {
		p = cloneProduct(committed)
	}
	t.s.mu.RUnlock()
	if p == nil {
		return nil
	}
	t.products[id] = p
	return p
}

// lockProduct registra la versión leída para validarla al confirmar.
func (t *tx) lockProduct(p *entity.Product) {
	if t.newProducts[p.ID] {
		return
	}
	if _, ok := t.productVersion[p.ID]; !ok {
		t.productVersion[p.ID] = p.Version
	}
}

// batch devuelve la copia de trabajo del lote o nil si no existe.
func (t *tx) batch(id int64) *entity.Batch {
	if b, ok := t.batches[id]; ok {
		return b
	}
	t.s.mu.RLock()
	committed, ok := t.s.batches[id]
	var b *entity.Batch
	if ok {
		b = cloneBatch(committed)
	}
	t.s.mu.RUnlock()
	if b == nil {
		return nil
	}
	t.batches[id] = b
	t.batchSnapshot[id] = *b
	return b
}

// batchesOf copias de los lotes del producto vistos desde la transacción.
func (t *tx) batchesOf(productID int64) []*entity.Batch {
	t.s.mu.RLock()
	ids := make([]int64, 0)
	for id, b := range t.s.batches {
		if b.ProductID == productID {
			ids = append(ids, id)
		}
	}
	t.s.mu.RUnlock()
	for id := range t.newBatches {
		if t.batches[id].ProductID == productID {
			ids = append(ids, id)
		}
	}
	out := make([]*entity.Batch, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneBatch(t.batch(id)))
	}
	return out
}

func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, version := range t.productVersion {
		committed, ok := t.s.products[id]
		if !ok || committed.Version != version {
			return domain.ErrConcurrencyConflict
		}
	}
	for id := range t.dirtyBatches {
		if t.newBatches[id] {
			continue
		}
		snap := t.batchSnapshot[id]
		committed, ok := t.s.batches[id]
		if !ok || !committed.RemainingQuantity.Equal(snap.RemainingQuantity) || committed.Active != snap.Active {
			return domain.ErrConcurrencyConflict
		}
	}

	for id := range t.dirtyProducts {
		p := cloneProduct(t.products[id])
		if !t.newProducts[id] {
			p.Version = t.productVersion[id] + 1
		}
		t.s.products[id] = p
	}
	for id := range t.dirtyBatches {
		t.s.batches[id] = cloneBatch(t.batches[id])
	}
	for _, m := range t.movements {
		t.s.movements = append(t.s.movements, cloneMovement(m))
	}
	return nil
}

func (s *Store) nextID(seq *int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	*seq++
	return *seq
}

func matchesProduct(p *entity.Product, f repository.ProductFilter) bool {
	active := true
	if f.Active != nil {
		active = *f.Active
	}
	if p.Active != active {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Code), q) &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.SupplierID != nil && (p.SupplierID == nil || *p.SupplierID != *f.SupplierID) {
		return false
	}
	if f.LowStock && p.Status != entity.StatusLowStock && p.Status != entity.StatusOutOfStock {
		return false
	}
	return true
}

func sortFIFO(batches []*entity.Batch) {
	sort.Slice(batches, func(i, j int) bool { return entity.FIFOBefore(batches[i], batches[j]) })
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
