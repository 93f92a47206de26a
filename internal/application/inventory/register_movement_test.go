package inventory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/autocare-estoque/internal/application/dto"
	"github.com/jhoicas/autocare-estoque/internal/application/inventory"
	"github.com/jhoicas/autocare-estoque/internal/application/usecase"
	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
	"github.com/jhoicas/autocare-estoque/internal/infrastructure/lock"
	"github.com/jhoicas/autocare-estoque/internal/infrastructure/memory"
	"github.com/jhoicas/autocare-estoque/pkg/logger"
)

var t0 = time.Date(2026, 4, 6, 8, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }

// countingObserver registra lo que el caso de uso reporta.
type countingObserver struct {
	mu       sync.Mutex
	finished map[string]int // "TYPE/STATE"
	retries  int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{finished: map[string]int{}}
}

func (o *countingObserver) MovementFinished(movementType, state string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished[movementType+"/"+state]++
}

func (o *countingObserver) LockAcquired(time.Duration) {}

func (o *countingObserver) Retried(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries++
}

type ledger struct {
	store      *memory.Store
	serializer *inventory.Serializer
	uc         *inventory.RegisterMovementUseCase
	queries    *inventory.QueryUseCase
	observer   *countingObserver
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	return newLedgerWith(t, nil, nil)
}

// newLedgerWith permite reemplazar el TxRunner o el locker.
func newLedgerWith(t *testing.T, wrap func(inventory.TxRunner) inventory.TxRunner, locker inventory.ProductLocker) *ledger {
	t.Helper()
	store := memory.NewStore()
	var runner inventory.TxRunner = memory.NewTxRunner(store)
	if wrap != nil {
		runner = wrap(runner)
	}
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	obs := newCountingObserver()
	serializer := inventory.NewSerializer(runner, locker, obs, logger.Nop(), inventory.Options{
		LockTimeout:  time.Second,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	})
	uc := inventory.NewRegisterMovementUseCase(serializer, store.ProductRepository(), obs, logger.Nop(), time.UTC).
		WithClock(func() time.Time { return t0 })
	return &ledger{
		store:      store,
		serializer: serializer,
		uc:         uc,
		queries:    inventory.NewQueryUseCase(store.ProductRepository(), store.BatchRepository(), store.MovementRepository(), nil),
		observer:   obs,
	}
}

func (l *ledger) product(t *testing.T, minimum string) *entity.Product {
	t.Helper()
	p := &entity.Product{
		Code: "P-" + t.Name(), Name: "Óleo 5W30", Unit: entity.UnitLiter,
		MinimumQuantity: d(minimum), Active: true, Status: entity.StatusOutOfStock,
	}
	require.NoError(t, l.store.ProductRepository().Create(context.Background(), p))
	return p
}

func (l *ledger) reload(t *testing.T, id int64) *entity.Product {
	t.Helper()
	p, err := l.store.ProductRepository().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (l *ledger) entry(t *testing.T, productID int64, qty, cost, margin string, at *time.Time) *entity.Movement {
	t.Helper()
	mov, err := l.uc.RegisterMovement(context.Background(), inventory.MovementInputDTO{
		UserID: "u-1", UserName: "Joana", ProductID: productID, Type: entity.MovementTypeEntry,
		Quantity: d(qty), UnitCost: ptr(d(cost)), MarginPercent: ptr(d(margin)),
		EntryDate: at, Reason: "Compra",
	})
	require.NoError(t, err)
	return mov
}

func exitInput(productID int64, qty string) inventory.MovementInputDTO {
	return inventory.MovementInputDTO{
		UserID: "u-2", UserName: "Pedro", ProductID: productID, Type: entity.MovementTypeExit,
		Quantity: d(qty), Reason: "OS 77",
	}
}

// assertLedgerConsistent: el agregado coincide con los lotes y con la suma de movimientos.
func (l *ledger) assertLedgerConsistent(t *testing.T, productID int64) {
	t.Helper()
	ctx := context.Background()
	p := l.reload(t, productID)
	batches, err := l.store.BatchRepository().ListByProduct(ctx, productID)
	require.NoError(t, err)
	fromBatches := decimal.Zero
	for _, b := range batches {
		assert.False(t, b.RemainingQuantity.IsNegative(), "saldo negativo en lote %d", b.ID)
		assert.True(t, b.RemainingQuantity.LessThanOrEqual(b.InitialQuantity))
		if b.Active {
			fromBatches = fromBatches.Add(b.RemainingQuantity)
		} else {
			assert.True(t, b.RemainingQuantity.IsZero(), "lote inactivo %d con saldo", b.ID)
		}
	}
	movs, err := l.store.MovementRepository().List(ctx, repository.MovementFilter{ProductID: &productID})
	require.NoError(t, err)
	fromMovs := decimal.Zero
	for _, m := range movs {
		if m.Type == entity.MovementTypeEntry {
			fromMovs = fromMovs.Add(m.Quantity)
		} else {
			fromMovs = fromMovs.Sub(m.Quantity)
		}
	}
	assert.True(t, p.CurrentQuantity.Equal(fromBatches), "agregado %s, lotes %s", p.CurrentQuantity, fromBatches)
	assert.True(t, p.CurrentQuantity.Equal(fromMovs), "agregado %s, movimientos %s", p.CurrentQuantity, fromMovs)
}

func TestEscenarioA_EntradaCreaLote(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "20")

	mov := l.entry(t, p.ID, "50", "10.00", "60", nil)

	require.NotNil(t, mov.BatchID)
	assert.True(t, mov.TotalValue.Equal(d("500")))
	assert.NotEmpty(t, mov.TransactionID)
	b, err := l.store.BatchRepository().GetByID(context.Background(), *mov.BatchID)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, b.UnitSalePrice.Equal(d("16.00")))
	assert.Equal(t, mov.ID, b.EntryMovementID)
	assert.Equal(t, inventory.DefaultLotNumber(p.ID, t0, time.UTC), b.LotNumber)
	assert.Equal(t, "LOTE-1-20260406083000", b.LotNumber)

	got := l.reload(t, p.ID)
	assert.Equal(t, entity.StatusAvailable, got.Status)
	assert.True(t, got.CurrentQuantity.Equal(d("50")))
	assert.True(t, got.AverageCost.Equal(d("10")))
	assert.True(t, got.SalePrice.Equal(d("16")))
	assert.Equal(t, entity.MovementTypeEntry, got.LastMovementType)
	assert.Equal(t, 1, l.observer.finished["ENTRY/COMMITTED"])
	l.assertLedgerConsistent(t, p.ID)
}

func TestEscenarioB_SalidaMayorAlStockSeRechaza(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "20")
	l.entry(t, p.ID, "50", "10.00", "60", nil)
	before := l.reload(t, p.ID)

	_, err := l.uc.RegisterMovement(context.Background(), exitInput(p.ID, "55"))

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.True(t, stockErr.Available.Equal(d("50")))
	assert.True(t, stockErr.Requested.Equal(d("55")))
	assert.Equal(t, p.ID, stockErr.ProductID)

	after := l.reload(t, p.ID)
	assert.True(t, after.CurrentQuantity.Equal(before.CurrentQuantity))
	assert.Equal(t, before.Version, after.Version, "un rechazo no escribe nada")
	movs, _ := l.store.MovementRepository().List(context.Background(), repository.MovementFilter{})
	assert.Len(t, movs, 1)
	assert.Equal(t, 1, l.observer.finished["EXIT/FAILED"])
}

func TestEscenarioC_SalidaConsumeFIFO(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "20")
	day1, day3 := t0.AddDate(0, 0, -5), t0.AddDate(0, 0, -3)
	m1 := l.entry(t, p.ID, "30", "10.00", "50", &day1)
	m2 := l.entry(t, p.ID, "40", "12.00", "50", &day3)

	exit, err := l.uc.RegisterMovement(context.Background(), exitInput(p.ID, "35"))
	require.NoError(t, err)

	require.Len(t, exit.Consumptions, 2)
	assert.Equal(t, *m1.BatchID, exit.Consumptions[0].BatchID)
	assert.True(t, exit.Consumptions[0].Quantity.Equal(d("30")))
	assert.Equal(t, *m2.BatchID, exit.Consumptions[1].BatchID)
	assert.True(t, exit.Consumptions[1].Quantity.Equal(d("5")))
	assert.True(t, exit.TotalValue.Equal(d("360")))
	assert.True(t, exit.UnitPrice.Equal(d("10.29")))

	b1, _ := l.store.BatchRepository().GetByID(context.Background(), *m1.BatchID)
	b2, _ := l.store.BatchRepository().GetByID(context.Background(), *m2.BatchID)
	assert.False(t, b1.Active)
	assert.True(t, b1.RemainingQuantity.IsZero())
	assert.True(t, b2.Active)
	assert.True(t, b2.RemainingQuantity.Equal(d("35")))

	got := l.reload(t, p.ID)
	assert.True(t, got.CurrentQuantity.Equal(d("35")))
	assert.True(t, got.AverageCost.Equal(d("12")))
	l.assertLedgerConsistent(t, p.ID)
}

func TestEscenarioD_TransicionesDeEstado(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "20")
	l.entry(t, p.ID, "50", "10.00", "60", nil)

	_, err := l.uc.RegisterMovement(context.Background(), exitInput(p.ID, "35"))
	require.NoError(t, err)
	got := l.reload(t, p.ID)
	assert.True(t, got.CurrentQuantity.Equal(d("15")))
	assert.Equal(t, entity.StatusLowStock, got.Status)

	_, err = l.uc.RegisterMovement(context.Background(), exitInput(p.ID, "15"))
	require.NoError(t, err)
	got = l.reload(t, p.ID)
	assert.True(t, got.CurrentQuantity.IsZero())
	assert.Equal(t, entity.StatusOutOfStock, got.Status)
	assert.True(t, got.AverageCost.Equal(d("10")), "sin saldo se mantiene el último costo")
	l.assertLedgerConsistent(t, p.ID)
}

func TestEscenarioE_SalidasConcurrentesNuncaSobregiran(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "0")
	l.entry(t, p.ID, "50", "10.00", "60", nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, qty := range []string{"30", "40"} {
		wg.Add(1)
		go func(i int, qty string) {
			defer wg.Done()
			_, errs[i] = l.uc.RegisterMovement(context.Background(), exitInput(p.ID, qty))
		}(i, qty)
	}
	wg.Wait()

	var ok, rejected int
	consumed := decimal.Zero
	for i, err := range errs {
		if err == nil {
			ok++
			consumed = consumed.Add(d([]string{"30", "40"}[i]))
			continue
		}
		var stockErr *domain.InsufficientStockError
		require.True(t, errors.As(err, &stockErr), "error inesperado: %v", err)
		assert.True(t, stockErr.Available.Equal(d("20")) || stockErr.Available.Equal(d("10")))
		rejected++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	got := l.reload(t, p.ID)
	assert.True(t, got.CurrentQuantity.Equal(d("50").Sub(consumed)))
	assert.False(t, got.CurrentQuantity.IsNegative())
	l.assertLedgerConsistent(t, p.ID)
}

func TestConcurrencia_MuchasSalidasYEntradas(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "5")
	l.entry(t, p.ID, "100", "8.00", "25", nil)

	var wg sync.WaitGroup
	var exits atomic.Int64
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				_, err := l.uc.RegisterMovement(context.Background(), inventory.MovementInputDTO{
					UserID: "u", ProductID: p.ID, Type: entity.MovementTypeEntry, Quantity: d("2"),
					UnitCost: ptr(d("9")), UnitSalePrice: ptr(d("12")), Reason: "Reposição",
				})
				assert.NoError(t, err)
				return
			}
			if _, err := l.uc.RegisterMovement(context.Background(), exitInput(p.ID, "4")); err == nil {
				exits.Add(1)
			}
		}(i)
	}
	wg.Wait()

	got := l.reload(t, p.ID)
	expected := d("100").Add(d("20")).Sub(decimal.NewFromInt(exits.Load() * 4))
	assert.True(t, got.CurrentQuantity.Equal(expected), "got %s want %s", got.CurrentQuantity, expected)
	l.assertLedgerConsistent(t, p.ID)
}

func TestValidacion_CampoDelError(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "1")
	entryDate := t0
	expiry := t0.AddDate(0, 0, -1)
	supplier := int64(9)

	base := func() inventory.MovementInputDTO {
		return inventory.MovementInputDTO{
			ProductID: p.ID, Type: entity.MovementTypeEntry, Quantity: d("1"),
			UnitCost: ptr(d("10")), MarginPercent: ptr(d("10")), Reason: "Compra",
		}
	}
	cases := map[string]func(in *inventory.MovementInputDTO){
		"type":            func(in *inventory.MovementInputDTO) { in.Type = "TRANSFER" },
		"product_id":      func(in *inventory.MovementInputDTO) { in.ProductID = 0 },
		"quantity":        func(in *inventory.MovementInputDTO) { in.Quantity = d("-1") },
		"reason":          func(in *inventory.MovementInputDTO) { in.Reason = "   " },
		"unit_cost":       func(in *inventory.MovementInputDTO) { in.UnitCost = ptr(decimal.Zero) },
		"unit_sale_price": func(in *inventory.MovementInputDTO) { in.MarginPercent = nil },
		"expiry_date": func(in *inventory.MovementInputDTO) {
			in.EntryDate = &entryDate
			in.ExpiryDate = &expiry
		},
		"supplier_id": func(in *inventory.MovementInputDTO) {
			in.Type = entity.MovementTypeExit
			in.SupplierID = &supplier
		},
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := base()
			mutate(&in)
			_, err := l.uc.RegisterMovement(context.Background(), in)
			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr), "err=%v", err)
			assert.Equal(t, field, vErr.Field)
			assert.ErrorIs(t, err, domain.ErrInvalidMovement)
		})
	}
	assert.Equal(t, len(cases)-2, l.observer.finished["ENTRY/REJECTED"])
	assert.Equal(t, 1, l.observer.finished["TRANSFER/REJECTED"])
	assert.Equal(t, 1, l.observer.finished["EXIT/REJECTED"])
	assert.True(t, l.reload(t, p.ID).CurrentQuantity.IsZero())
}

func TestProductoInexistenteEInactivo(t *testing.T) {
	l := newLedger(t)
	_, err := l.uc.RegisterMovement(context.Background(), exitInput(404, "1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p := l.product(t, "1")
	err = memory.NewTxRunner(l.store).Run(context.Background(), func(_ repository.MovementRepository, _ repository.BatchRepository, productRepo repository.ProductRepository) error {
		q, err := productRepo.GetForUpdate(context.Background(), p.ID)
		if err != nil {
			return err
		}
		q.Active = false
		return productRepo.Update(context.Background(), q)
	})
	require.NoError(t, err)

	_, err = l.uc.RegisterMovement(context.Background(), exitInput(p.ID, "1"))
	assert.ErrorIs(t, err, domain.ErrProductInactive)
	assert.Equal(t, 2, l.observer.finished["EXIT/REJECTED"])
}

// flakyRunner devuelve conflicto las primeras n veces.
type flakyRunner struct {
	inner    inventory.TxRunner
	failures atomic.Int32
	calls    atomic.Int32
}

func (r *flakyRunner) Run(ctx context.Context, fn inventory.TxFunc) error {
	r.calls.Add(1)
	if r.failures.Add(-1) >= 0 {
		return domain.ErrConcurrencyConflict
	}
	return r.inner.Run(ctx, fn)
}

func TestSerializer_ReintentaConflictos(t *testing.T) {
	flaky := &flakyRunner{}
	flaky.failures.Store(2)
	l := newLedgerWith(t, func(inner inventory.TxRunner) inventory.TxRunner {
		flaky.inner = inner
		return flaky
	}, nil)
	p := l.product(t, "1")

	l.entry(t, p.ID, "5", "10", "10", nil)

	assert.Equal(t, int32(3), flaky.calls.Load())
	assert.Equal(t, 2, l.observer.retries)
	assert.True(t, l.reload(t, p.ID).CurrentQuantity.Equal(d("5")))
}

func TestSerializer_AgotaReintentos(t *testing.T) {
	flaky := &flakyRunner{}
	flaky.failures.Store(100)
	l := newLedgerWith(t, func(inner inventory.TxRunner) inventory.TxRunner {
		flaky.inner = inner
		return flaky
	}, nil)
	p := l.product(t, "1")

	_, err := l.uc.RegisterMovement(context.Background(), exitInput(p.ID, "1"))
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.Equal(t, int32(4), flaky.calls.Load(), "intento inicial más tres reintentos")
	assert.Equal(t, 1, l.observer.finished["EXIT/FAILED"])
}

// busyLocker nunca concede el lock.
type busyLocker struct{}

func (busyLocker) Lock(ctx context.Context, _ int64) (func(), error) {
	<-ctx.Done()
	return nil, domain.ErrConcurrencyConflict
}

func TestSerializer_LockOcupadoEsConflicto(t *testing.T) {
	store := memory.NewStore()
	serializer := inventory.NewSerializer(memory.NewTxRunner(store), busyLocker{}, nil, logger.Nop(), inventory.Options{
		LockTimeout: 5 * time.Millisecond,
	})
	called := false
	err := serializer.Do(context.Background(), 1, func(repository.MovementRepository, repository.BatchRepository, repository.ProductRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.False(t, called)
}

func TestAdjustStock(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "2")
	l.entry(t, p.ID, "10", "10", "50", nil)
	ctx := context.Background()

	res, err := l.uc.AdjustStock(ctx, inventory.StockAdjustmentInput{UserID: "u", ProductID: p.ID, TargetQuantity: d("4"), Notes: "contagem"})
	require.NoError(t, err)
	require.NotNil(t, res.Movement)
	assert.Equal(t, entity.MovementTypeExit, res.Movement.Type)
	assert.True(t, res.Movement.Quantity.Equal(d("6")))
	assert.Equal(t, "Ajuste manual", res.Movement.Reason)
	assert.Equal(t, "Ajuste de estoque: 10 → 4. contagem", res.Movement.Notes)
	assert.True(t, res.PreviousQuantity.Equal(d("10")))
	assert.True(t, res.Product.CurrentQuantity.Equal(d("4")))

	res, err = l.uc.AdjustStock(ctx, inventory.StockAdjustmentInput{UserID: "u", ProductID: p.ID, TargetQuantity: d("9"), Reason: "Inventário"})
	require.NoError(t, err)
	require.NotNil(t, res.Movement)
	assert.Equal(t, entity.MovementTypeEntry, res.Movement.Type)
	assert.True(t, res.Movement.Quantity.Equal(d("5")))
	assert.True(t, res.Movement.UnitCost.Equal(d("10")), "usa el costo promedio actual")
	assert.True(t, res.Movement.UnitSalePrice.Equal(d("15")), "usa el precio de venta actual")

	res, err = l.uc.AdjustStock(ctx, inventory.StockAdjustmentInput{UserID: "u", ProductID: p.ID, TargetQuantity: d("9")})
	require.NoError(t, err)
	assert.Nil(t, res.Movement)

	_, err = l.uc.AdjustStock(ctx, inventory.StockAdjustmentInput{ProductID: p.ID, TargetQuantity: d("-1")})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "target_quantity", vErr.Field)
	l.assertLedgerConsistent(t, p.ID)
}

func TestAdjustStock_EntradaSinCostoConocido(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "2")

	_, err := l.uc.AdjustStock(context.Background(), inventory.StockAdjustmentInput{ProductID: p.ID, TargetQuantity: d("3")})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "unit_cost", vErr.Field)

	res, err := l.uc.AdjustStock(context.Background(), inventory.StockAdjustmentInput{
		ProductID: p.ID, TargetQuantity: d("3"), UnitCost: ptr(d("4")), MarginPercent: ptr(d("100")),
	})
	require.NoError(t, err)
	assert.True(t, res.Product.SalePrice.Equal(d("8")))
}

func TestQueries(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "2")
	ctx := context.Background()
	early := t0.AddDate(0, 0, -2)
	l.entry(t, p.ID, "3", "10", "50", nil)
	l.entry(t, p.ID, "2", "11", "50", &early)
	_, err := l.uc.RegisterMovement(ctx, exitInput(p.ID, "2"))
	require.NoError(t, err)

	all, err := l.queries.ListBatches(ctx, p.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].EntryDate.Equal(early), "orden FIFO")
	assert.False(t, all[0].Active)

	available, err := l.queries.ListBatches(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Len(t, available, 1)

	_, err = l.queries.ListBatches(ctx, 999, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	movs, err := l.queries.ListMovements(ctx, dtoMovementFilter(p.ID, entity.MovementTypeExit))
	require.NoError(t, err)
	require.Len(t, movs.Items, 1)
	assert.Len(t, movs.Items[0].Consumptions, 1)

	_, err = l.queries.GetMovement(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = l.queries.BatchReport(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "sin generador de PDF configurado")
}

// Dos lecturas sin movimientos en medio devuelven lo mismo.
func TestLecturasRepetidasSonIguales(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	p := l.product(t, "2")
	l.entry(t, p.ID, "5", "10", "50", nil)
	l.entry(t, p.ID, "3", "12", "40", nil)
	_, err := l.uc.RegisterMovement(ctx, exitInput(p.ID, "6"))
	require.NoError(t, err)

	for _, onlyAvailable := range []bool{false, true} {
		first, err := l.queries.ListBatches(ctx, p.ID, onlyAvailable)
		require.NoError(t, err)
		second, err := l.queries.ListBatches(ctx, p.ID, onlyAvailable)
		require.NoError(t, err)
		assert.Equal(t, first, second, "only_available=%v", onlyAvailable)
	}

	products := usecase.NewProductUseCase(l.store.ProductRepository(), l.serializer)
	req := dto.ProductListRequest{PageRequest: dto.PageRequest{Limit: 20}}
	first, err := products.List(ctx, req)
	require.NoError(t, err)
	second, err := products.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	assert.Equal(t, first, second)
	assert.True(t, first.Items[0].CurrentQuantity.Equal(d("2")))
}

// lockingBatchRepo cuenta las llamadas a la consulta que bloquea filas.
type lockingBatchRepo struct {
	repository.BatchRepository
	consumableCalls atomic.Int32
}

func (r *lockingBatchRepo) ListConsumable(ctx context.Context, productID int64) ([]*entity.Batch, error) {
	r.consumableCalls.Add(1)
	return r.BatchRepository.ListConsumable(ctx, productID)
}

func TestQueries_LotesDisponiblesNoBloquean(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	p := l.product(t, "1")
	l.entry(t, p.ID, "2", "10", "50", nil)
	l.entry(t, p.ID, "4", "11", "50", nil)
	_, err := l.uc.RegisterMovement(ctx, exitInput(p.ID, "2"))
	require.NoError(t, err)

	batches := &lockingBatchRepo{BatchRepository: l.store.BatchRepository()}
	queries := inventory.NewQueryUseCase(l.store.ProductRepository(), batches, l.store.MovementRepository(), nil)

	available, err := queries.ListBatches(ctx, p.ID, true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.True(t, available[0].RemainingQuantity.Equal(d("4")))
	assert.Zero(t, batches.consumableCalls.Load())
}

// logStates devuelve, en orden, los estados registrados para el producto.
func logStates(t *testing.T, out *bytes.Buffer, productID int64) []string {
	t.Helper()
	var states []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if id, ok := entry["product_id"].(float64); !ok || int64(id) != productID {
			continue
		}
		if state, ok := entry["state"].(string); ok {
			states = append(states, state)
		}
	}
	return states
}

func TestRegisterMovement_RegistraTransicionesEnElLog(t *testing.T) {
	store := memory.NewStore()
	var out bytes.Buffer
	log := logger.NewWithWriter(&out, "debug")
	serializer := inventory.NewSerializer(memory.NewTxRunner(store), lock.NewKeyedMutex(), nil, log, inventory.Options{
		LockTimeout: time.Second, MaxRetries: 1, RetryBackoff: time.Millisecond,
	})
	uc := inventory.NewRegisterMovementUseCase(serializer, store.ProductRepository(), nil, log, time.UTC)
	ctx := context.Background()

	p := &entity.Product{Code: "FLT-9", Name: "Filtro de ar", Unit: entity.UnitUnit, Active: true}
	require.NoError(t, store.ProductRepository().Create(ctx, p))

	_, err := uc.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: "u-1", UserName: "Joana", ProductID: p.ID, Type: entity.MovementTypeEntry,
		Quantity: d("2"), UnitCost: ptr(d("30")), MarginPercent: ptr(d("20")), Reason: "Compra",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		inventory.StateReceived, inventory.StateValidated, inventory.StateEntryApplied, inventory.StateCommitted,
	}, logStates(t, &out, p.ID))

	out.Reset()
	_, err = uc.RegisterMovement(ctx, exitInput(4040, "1"))
	require.ErrorIs(t, err, domain.ErrNotFound)
	states := logStates(t, &out, 4040)
	require.NotEmpty(t, states)
	assert.Equal(t, inventory.StateRejected, states[len(states)-1])
}
