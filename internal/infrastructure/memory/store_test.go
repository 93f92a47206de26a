package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/autocare-estoque/internal/domain"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
	"github.com/jhoicas/autocare-estoque/internal/domain/repository"
	"github.com/jhoicas/autocare-estoque/internal/infrastructure/memory"
)

func seedProduct(t *testing.T, s *memory.Store, code string) *entity.Product {
	t.Helper()
	p := &entity.Product{Code: code, Name: code, Unit: entity.UnitUnit, Active: true, Status: entity.StatusOutOfStock}
	require.NoError(t, s.ProductRepository().Create(context.Background(), p))
	return p
}

func addBatch(t *testing.T, s *memory.Store, productID int64, qty int64, at time.Time) int64 {
	t.Helper()
	var id int64
	err := memory.NewTxRunner(s).Run(context.Background(), func(movRepo repository.MovementRepository, batchRepo repository.BatchRepository, _ repository.ProductRepository) error {
		movID, err := movRepo.NextID(context.Background())
		if err != nil {
			return err
		}
		b := &entity.Batch{
			ProductID: productID, EntryMovementID: movID,
			InitialQuantity: decimal.NewFromInt(qty), RemainingQuantity: decimal.NewFromInt(qty),
			UnitCost: decimal.NewFromInt(10), EntryDate: at, Active: true,
		}
		if err := batchRepo.Create(context.Background(), b); err != nil {
			return err
		}
		id = b.ID
		return movRepo.Append(context.Background(), &entity.Movement{
			ID: movID, ProductID: productID, Type: entity.MovementTypeEntry,
			Quantity: b.InitialQuantity, BatchID: &id, OccurredAt: at,
		})
	})
	require.NoError(t, err)
	return id
}

func TestStore_CodigoDuplicado(t *testing.T) {
	s := memory.NewStore()
	seedProduct(t, s, "FLT-1")
	err := s.ProductRepository().Create(context.Background(), &entity.Product{Code: "flt-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestTxRunner_ErrorNoAplicaNada(t *testing.T) {
	s := memory.NewStore()
	p := seedProduct(t, s, "FLT-2")
	boom := errors.New("boom")

	err := memory.NewTxRunner(s).Run(context.Background(), func(movRepo repository.MovementRepository, batchRepo repository.BatchRepository, productRepo repository.ProductRepository) error {
		require.NoError(t, batchRepo.Create(context.Background(), &entity.Batch{ProductID: p.ID, RemainingQuantity: decimal.NewFromInt(1), Active: true}))
		require.NoError(t, movRepo.Append(context.Background(), &entity.Movement{ProductID: p.ID, Type: entity.MovementTypeEntry}))
		locked, err := productRepo.GetForUpdate(context.Background(), p.ID)
		require.NoError(t, err)
		locked.CurrentQuantity = decimal.NewFromInt(1)
		require.NoError(t, productRepo.UpdateAggregate(context.Background(), locked))
		return boom
	})
	require.ErrorIs(t, err, boom)

	batches, err := s.BatchRepository().ListByProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, batches)
	movs, err := s.MovementRepository().List(context.Background(), repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movs)
	got, err := s.ProductRepository().GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentQuantity.IsZero())
}

func TestTxRunner_ConflictoDeVersion(t *testing.T) {
	s := memory.NewStore()
	p := seedProduct(t, s, "FLT-3")
	runner := memory.NewTxRunner(s)
	ctx := context.Background()

	inner := make(chan error, 1)
	err := runner.Run(ctx, func(_ repository.MovementRepository, _ repository.BatchRepository, productRepo repository.ProductRepository) error {
		locked, err := productRepo.GetForUpdate(ctx, p.ID)
		require.NoError(t, err)

		// otra transacción confirma primero sobre el mismo producto
		inner <- runner.Run(ctx, func(_ repository.MovementRepository, _ repository.BatchRepository, other repository.ProductRepository) error {
			q, err := other.GetForUpdate(ctx, p.ID)
			if err != nil {
				return err
			}
			q.Name = "cambiado"
			return other.Update(ctx, q)
		})

		locked.Location = "A-1"
		return productRepo.Update(ctx, locked)
	})
	require.NoError(t, <-inner)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	got, _ := s.ProductRepository().GetByID(ctx, p.ID)
	assert.Equal(t, "cambiado", got.Name)
	assert.Empty(t, got.Location)
}

func TestTxRunner_ConflictoDeLote(t *testing.T) {
	s := memory.NewStore()
	p := seedProduct(t, s, "FLT-4")
	batchID := addBatch(t, s, p.ID, 10, time.Now())
	runner := memory.NewTxRunner(s)
	ctx := context.Background()

	consume := func(batchRepo repository.BatchRepository, qty int64) error {
		_, err := batchRepo.Decrement(ctx, batchID, decimal.NewFromInt(qty), time.Now())
		return err
	}
	inner := make(chan error, 1)
	err := runner.Run(ctx, func(_ repository.MovementRepository, batchRepo repository.BatchRepository, _ repository.ProductRepository) error {
		if err := consume(batchRepo, 6); err != nil {
			return err
		}
		inner <- runner.Run(ctx, func(_ repository.MovementRepository, other repository.BatchRepository, _ repository.ProductRepository) error {
			return consume(other, 6)
		})
		return nil
	})
	require.NoError(t, <-inner)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict, "dos salidas sobre el mismo saldo no pueden confirmarse ambas")

	b, _ := s.BatchRepository().GetByID(ctx, batchID)
	assert.True(t, b.RemainingQuantity.Equal(decimal.NewFromInt(4)))
}

func TestRepositorios_EscrituraFueraDeTransaccion(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	assert.Error(t, s.BatchRepository().Create(ctx, &entity.Batch{}))
	assert.Error(t, s.MovementRepository().Append(ctx, &entity.Movement{}))
	_, err := s.BatchRepository().Decrement(ctx, 1, decimal.NewFromInt(1), time.Now())
	assert.Error(t, err)
}

func TestBatchRepository_OrdenYFiltros(t *testing.T) {
	s := memory.NewStore()
	p := seedProduct(t, s, "FLT-5")
	t0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	newer := addBatch(t, s, p.ID, 5, t0.AddDate(0, 0, 2))
	older := addBatch(t, s, p.ID, 3, t0)

	fifo, err := s.BatchRepository().ListByProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, fifo, 2)
	assert.Equal(t, older, fifo[0].ID)
	assert.Equal(t, newer, fifo[1].ID)

	all, err := s.BatchRepository().List(context.Background(), repository.BatchFilter{OnlyAvailable: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer, all[0].ID, "el listado general muestra los más recientes primero")

	last, err := s.MovementRepository().LastByProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, newer, *last.BatchID, "último movimiento por fecha de ocurrencia")
}
